// Package form decodes and validates the word-cloud form.
package form

import (
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"nuvem/internal/keywords"
	"nuvem/internal/weights"
)

// Defaults applied to omitted fields.
const (
	DefaultDimension    = 600
	DefaultScale        = 2.0
	DefaultMinDimension = 300
	DefaultMaxDimension = 1000
	MaxColors           = 10
)

// Field names as posted by the page.
const (
	FieldText           = "text"
	FieldWidth          = "width"
	FieldHeight         = "height"
	FieldScale          = "scale"
	FieldWordLimit      = "wordLimit"
	FieldBlacklistWords = "blacklistWords"
	FieldColors         = "colors"
	FieldModel          = "model"
)

// Submission is a validated word-cloud request.
type Submission struct {
	Text           string   `form:"text" validate:"notblank,maxtokens"`
	Width          int      `form:"width" validate:"mindim,maxdim"`
	Height         int      `form:"height" validate:"mindim,maxdim"`
	Scale          float64  `form:"scale" validate:"min=0.1,max=5"`
	WordLimit      int      `form:"wordLimit" validate:"min=1,max=100"`
	BlacklistWords string   `form:"blacklistWords"`
	Colors         []string `form:"colors" validate:"max=10,dive,rgbhex"`
	Model          string   `form:"model" validate:"omitempty,model"`
}

// KeywordRequest is a validated keyword-extraction request.
type KeywordRequest struct {
	Text           string `form:"text" validate:"notblank"`
	WordLimit      int    `form:"wordLimit" validate:"min=1,max=100"`
	BlacklistWords string `form:"blacklistWords"`
	Model          string `form:"model" validate:"model"`
}

// rgbHex matches #rgb and #rrggbb.
var rgbHex = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// FieldErrors maps a form field to its first validation message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, f+": "+e[f])
	}
	return strings.Join(msgs, "; ")
}

func (e FieldErrors) add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Schema holds the configurable bounds.
type Schema struct {
	MinDimension int
	MaxDimension int
	// DefaultModel is used when the model field is empty.
	DefaultModel string

	validate *validator.Validate
}

// NewSchema creates a schema. Zero bounds fall back to the defaults.
func NewSchema(minDim, maxDim int, defaultModel string) *Schema {
	if minDim <= 0 {
		minDim = DefaultMinDimension
	}
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	if defaultModel == "" {
		defaultModel = keywords.ModelGPT4o
	}
	s := &Schema{MinDimension: minDim, MaxDimension: maxDim, DefaultModel: defaultModel}
	s.validate = s.newValidator()
	return s
}

func (s *Schema) newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("rgbhex", func(fl validator.FieldLevel) bool {
		return rgbHex.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("maxtokens", func(fl validator.FieldLevel) bool {
		return weights.Count(fl.Field().String()) <= weights.MaxTokens
	})
	_ = v.RegisterValidation("mindim", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() >= int64(s.MinDimension)
	})
	_ = v.RegisterValidation("maxdim", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() <= int64(s.MaxDimension)
	})
	_ = v.RegisterValidation("model", func(fl validator.FieldLevel) bool {
		return keywords.IsKnownModel(fl.Field().String())
	})
	return v
}

// Parse decodes and validates a word-cloud submission. It returns nil
// FieldErrors when the submission is valid.
func (s *Schema) Parse(values url.Values) (Submission, FieldErrors) {
	errs := FieldErrors{}
	sub := Submission{
		Text:           values.Get(FieldText),
		Width:          intField(values, FieldWidth, DefaultDimension, errs),
		Height:         intField(values, FieldHeight, DefaultDimension, errs),
		Scale:          floatField(values, FieldScale, DefaultScale, errs),
		WordLimit:      intField(values, FieldWordLimit, keywords.DefaultWordLimit, errs),
		BlacklistWords: strings.TrimSpace(values.Get(FieldBlacklistWords)),
		Colors:         colorsField(values),
		Model:          strings.TrimSpace(values.Get(FieldModel)),
	}
	s.collect(s.validate.Struct(sub), errs)
	if sub.Model == "" {
		sub.Model = s.DefaultModel
	}
	if len(errs) > 0 {
		return sub, errs
	}
	return sub, nil
}

// ParseKeywords decodes and validates the fields used for keyword extraction.
func (s *Schema) ParseKeywords(values url.Values) (KeywordRequest, FieldErrors) {
	errs := FieldErrors{}
	req := KeywordRequest{
		Text:           values.Get(FieldText),
		WordLimit:      intField(values, FieldWordLimit, keywords.DefaultWordLimit, errs),
		BlacklistWords: strings.TrimSpace(values.Get(FieldBlacklistWords)),
		Model:          strings.TrimSpace(values.Get(FieldModel)),
	}
	if req.Model == "" {
		req.Model = s.DefaultModel
	}
	s.collect(s.validate.Struct(req), errs)
	if len(errs) > 0 {
		return req, errs
	}
	return req, nil
}

// Request converts the submission into an extraction request.
func (r KeywordRequest) Request() keywords.Request {
	return keywords.Request{
		Text:           r.Text,
		Model:          r.Model,
		BlacklistWords: r.BlacklistWords,
		WordLimit:      r.WordLimit,
	}
}

func (s *Schema) collect(err error, errs FieldErrors) {
	if err == nil {
		return
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs.add("_", err.Error())
		return
	}
	for _, fe := range verrs {
		field := fe.Field()
		if i := strings.IndexByte(field, '['); i >= 0 {
			field = field[:i]
		}
		errs.add(field, s.message(field, fe))
	}
}

type label struct {
	name     string
	feminine bool
}

var labels = map[string]label{
	FieldText:      {"Texto", false},
	FieldWidth:     {"Largura", true},
	FieldHeight:    {"Altura", true},
	FieldScale:     {"Escala", true},
	FieldWordLimit: {"Limite de palavras", false},
	FieldColors:    {"Cores", true},
	FieldModel:     {"Modelo", false},
}

func (l label) bound(lower bool) string {
	switch {
	case lower && l.feminine:
		return "mínima"
	case lower:
		return "mínimo"
	case l.feminine:
		return "máxima"
	default:
		return "máximo"
	}
}

func (s *Schema) message(field string, fe validator.FieldError) string {
	l, ok := labels[field]
	if !ok {
		l = label{name: field}
	}
	switch fe.Tag() {
	case "notblank", "required":
		return l.name + " é obrigatório"
	case "maxtokens":
		return fmt.Sprintf("%s excede o limite de %d palavras", l.name, weights.MaxTokens)
	case "mindim":
		return fmt.Sprintf("%s %s é %d", l.name, l.bound(true), s.MinDimension)
	case "maxdim":
		return fmt.Sprintf("%s %s é %d", l.name, l.bound(false), s.MaxDimension)
	case "min":
		return fmt.Sprintf("%s %s é %s", l.name, l.bound(true), fe.Param())
	case "max":
		if field == FieldColors {
			return fmt.Sprintf("Máximo de %s cores", fe.Param())
		}
		return fmt.Sprintf("%s %s é %s", l.name, l.bound(false), fe.Param())
	case "rgbhex":
		return fmt.Sprintf("Cor inválida: %v", fe.Value())
	case "model":
		return fmt.Sprintf("Modelo desconhecido: %v", fe.Value())
	default:
		return l.name + " é inválido"
	}
}

func intField(values url.Values, name string, def int, errs FieldErrors) int {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		// Fractional input from a number field is accepted and truncated.
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil {
			errs.add(name, numberMessage(name))
			return def
		}
		n = int(f)
	}
	return n
}

func floatField(values url.Values, name string, def float64, errs FieldErrors) float64 {
	raw := strings.TrimSpace(values.Get(name))
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	if err != nil {
		errs.add(name, numberMessage(name))
		return def
	}
	return f
}

func numberMessage(name string) string {
	if l, ok := labels[name]; ok {
		return l.name + " deve ser um número"
	}
	return name + " deve ser um número"
}

func colorsField(values url.Values) []string {
	var colors []string
	for _, c := range values[FieldColors] {
		if c = strings.TrimSpace(c); c != "" {
			colors = append(colors, c)
		}
	}
	return colors
}
