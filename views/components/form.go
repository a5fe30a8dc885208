package components

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"nuvem/internal/viewmodel"
)

// Form renders the word-cloud form with inline field errors.
func Form(data viewmodel.Form) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		v := data.Values

		h.raw(`<form id="wordcloud-form" class="box" method="POST" action="/wordcloud">`)

		h.raw(`<div class="field"><label class="label" for="text">Texto</label><div class="control">`)
		h.raw(`<textarea class="textarea`)
		invalid(h, data.Errors, "text")
		h.raw(`" id="text" name="text" rows="8" placeholder="Cole um texto ou uma lista &quot;palavra, peso&quot; por linha">`)
		h.text(v.Text)
		h.raw(`</textarea></div>`)
		fieldError(h, data.Errors, "text")
		h.raw(`</div>`)

		h.raw(`<div class="columns">`)
		numberInput(h, data.Errors, "width", "Largura", v.Width, data.MinDimension, data.MaxDimension, "1")
		numberInput(h, data.Errors, "height", "Altura", v.Height, data.MinDimension, data.MaxDimension, "1")
		h.raw(`<div class="column">`)
		h.raw(`<div class="field"><label class="label" for="scale">Escala</label><div class="control">`)
		h.raw(`<input class="input`)
		invalid(h, data.Errors, "scale")
		h.raw(`" type="number" id="scale" name="scale" min="0.1" max="5" step="0.1" value="`)
		h.text(v.Scale)
		h.raw(`"></div>`)
		fieldError(h, data.Errors, "scale")
		h.raw(`</div></div></div>`)

		h.raw(`<div class="field"><label class="label">Cores</label><div id="colors">`)
		for _, c := range v.Colors {
			colorRow(h, c)
		}
		h.raw(`</div><div class="control mt-2"><button type="button" class="button is-small" data-action="add-color">Adicionar cor</button></div>`)
		fieldError(h, data.Errors, "colors")
		h.raw(`<template id="color-template">`)
		colorRow(h, "#000000")
		h.raw(`</template></div>`)

		h.raw(`<div class="columns">`)
		h.raw(`<div class="column"><div class="field"><label class="label" for="model">Modelo</label><div class="control"><div class="select`)
		if data.Errors["model"] != "" {
			h.raw(` is-danger`)
		}
		h.raw(`"><select id="model" name="model">`)
		for _, m := range data.Models {
			h.raw(`<option value="`)
			h.text(m.ID)
			h.raw(`"`)
			if m.Selected {
				h.raw(` selected`)
			}
			h.raw(`>`)
			h.text(m.Label)
			h.raw(`</option>`)
		}
		h.raw(`</select></div></div>`)
		fieldError(h, data.Errors, "model")
		h.raw(`</div></div>`)
		numberInput(h, data.Errors, "wordLimit", "Limite de palavras", v.WordLimit, 1, 100, "1")
		h.raw(`</div>`)

		h.raw(`<div class="field"><label class="label" for="blacklistWords">Palavras a ignorar</label><div class="control">`)
		h.raw(`<input class="input" type="text" id="blacklistWords" name="blacklistWords" placeholder="separadas por vírgula" value="`)
		h.text(v.BlacklistWords)
		h.raw(`"></div></div>`)

		h.raw(`<div class="field is-grouped">`)
		h.raw(`<div class="control"><button type="button" class="button is-link is-light" data-action="keywords">Extrair palavras-chave</button></div>`)
		h.raw(`<div class="control"><button type="submit" class="button is-primary" data-action="submit">Gerar nuvem</button></div>`)
		h.raw(`</div></form>`)
		return h.err
	})
}

func numberInput(h *htmlWriter, errs map[string]string, name, label, value string, min, max int, step string) {
	h.raw(`<div class="column"><div class="field"><label class="label" for="`)
	h.text(name)
	h.raw(`">`)
	h.text(label)
	h.raw(`</label><div class="control"><input class="input`)
	invalid(h, errs, name)
	h.raw(`" type="number" id="`)
	h.text(name)
	h.raw(`" name="`)
	h.text(name)
	h.raw(`" min="`)
	h.num(min)
	h.raw(`" max="`)
	h.num(max)
	h.raw(`" step="`)
	h.text(step)
	h.raw(`" value="`)
	h.text(value)
	h.raw(`"></div>`)
	fieldError(h, errs, name)
	h.raw(`</div></div>`)
}

func colorRow(h *htmlWriter, value string) {
	h.raw(`<div class="field has-addons color-row"><div class="control"><input class="input color-input" type="color" name="colors" value="`)
	h.text(value)
	h.raw(`"></div><div class="control"><button type="button" class="button is-danger is-light" data-action="remove-color" aria-label="Remover cor">&times;</button></div></div>`)
}

func invalid(h *htmlWriter, errs map[string]string, name string) {
	if errs[name] != "" {
		h.raw(` is-danger`)
	}
}

func fieldError(h *htmlWriter, errs map[string]string, name string) {
	msg := errs[name]
	if msg == "" {
		return
	}
	h.raw(`<p class="help is-danger" data-error-for="`)
	h.text(name)
	h.raw(`">`)
	h.text(msg)
	h.raw(`</p>`)
}
