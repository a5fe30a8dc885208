package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"nuvem/internal/form"
	"nuvem/internal/keywords"
	"nuvem/internal/viewmodel"
	"nuvem/views/pages"
)

const pageTitle = "Nuvem de Palavras"

type HomeHandler struct {
	schema *form.Schema
}

func NewHomeHandler(schema *form.Schema) *HomeHandler {
	return &HomeHandler{schema: schema}
}

func (h *HomeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Get("/healthz", h.healthz)
}

func (h *HomeHandler) home(w http.ResponseWriter, r *http.Request) {
	render(w, r, pages.HomePage(viewmodel.HomePage{
		Title: pageTitle,
		Form:  buildForm(h.schema, defaultValues(h.schema), nil),
	}))
}

func (h *HomeHandler) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func defaultValues(schema *form.Schema) viewmodel.FormValues {
	return viewmodel.FormValues{
		Width:     strconv.Itoa(form.DefaultDimension),
		Height:    strconv.Itoa(form.DefaultDimension),
		Scale:     strconv.FormatFloat(form.DefaultScale, 'f', -1, 64),
		WordLimit: strconv.Itoa(keywords.DefaultWordLimit),
		Model:     schema.DefaultModel,
	}
}

// submittedValues echoes what the user typed, falling back to defaults for
// omitted fields.
func submittedValues(schema *form.Schema, values url.Values) viewmodel.FormValues {
	v := defaultValues(schema)
	v.Text = values.Get(form.FieldText)
	v.BlacklistWords = values.Get(form.FieldBlacklistWords)
	for field, dst := range map[string]*string{
		form.FieldWidth:     &v.Width,
		form.FieldHeight:    &v.Height,
		form.FieldScale:     &v.Scale,
		form.FieldWordLimit: &v.WordLimit,
		form.FieldModel:     &v.Model,
	} {
		if s := values.Get(field); s != "" {
			*dst = s
		}
	}
	for _, c := range values[form.FieldColors] {
		if c != "" {
			v.Colors = append(v.Colors, c)
		}
	}
	return v
}

func buildForm(schema *form.Schema, values viewmodel.FormValues, errs form.FieldErrors) viewmodel.Form {
	models := keywords.Models()
	options := make([]viewmodel.ModelOption, 0, len(models))
	for _, m := range models {
		options = append(options, viewmodel.ModelOption{
			ID:       m.ID,
			Label:    m.Label,
			Selected: m.ID == values.Model,
		})
	}
	return viewmodel.Form{
		Values:       values,
		Errors:       errs,
		Models:       options,
		MinDimension: schema.MinDimension,
		MaxDimension: schema.MaxDimension,
	}
}
