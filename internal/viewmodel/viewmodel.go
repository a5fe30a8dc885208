package viewmodel

// ModelOption is a choice in the model selector.
type ModelOption struct {
	ID       string
	Label    string
	Selected bool
}

// FormValues echoes the submitted form so it can be re-rendered as typed.
type FormValues struct {
	Text           string
	Width          string
	Height         string
	Scale          string
	WordLimit      string
	BlacklistWords string
	Colors         []string
	Model          string
}

// Form holds data for the word-cloud form.
type Form struct {
	Values       FormValues
	Errors       map[string]string
	Models       []ModelOption
	MinDimension int
	MaxDimension int
}

// Result holds a rendered word cloud.
type Result struct {
	DataURL  string
	Width    int
	Height   int
	Size     string
	Filename string
}

// ErrorFragment is a dismissible failure notification.
type ErrorFragment struct {
	Message string
	Status  int
}

// HomePage holds data for the main page.
type HomePage struct {
	Title  string
	Form   Form
	Result *Result
	Error  *ErrorFragment
}
