package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"nuvem/internal/form"
	"nuvem/internal/viewmodel"
	"nuvem/internal/weights"
	"nuvem/internal/wordcloud"
	"nuvem/views/components"
	"nuvem/views/pages"
)

const downloadFilename = "wordcloud.png"

// Generator renders word clouds.
type Generator interface {
	Generate(ctx context.Context, req wordcloud.Request) (wordcloud.Result, error)
}

type WordCloudHandler struct {
	schema    *form.Schema
	generator Generator
	logger    *zap.Logger
}

func NewWordCloudHandler(schema *form.Schema, generator Generator, logger *zap.Logger) *WordCloudHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WordCloudHandler{schema: schema, generator: generator, logger: logger.Named("wordcloud")}
}

func (h *WordCloudHandler) RegisterRoutes(r chi.Router) {
	r.Post("/wordcloud", h.generate)
}

func (h *WordCloudHandler) generate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	values := submittedValues(h.schema, r.PostForm)

	sub, errs := h.schema.Parse(r.PostForm)
	if errs != nil {
		data := buildForm(h.schema, values, errs)
		if isFragmentRequest(r) {
			renderStatus(w, r, http.StatusUnprocessableEntity, components.Form(data))
			return
		}
		renderStatus(w, r, http.StatusUnprocessableEntity, pages.HomePage(viewmodel.HomePage{Title: pageTitle, Form: data}))
		return
	}

	res, err := h.generator.Generate(r.Context(), wordcloud.Request{
		Text:   weights.Expand(sub.Text),
		Width:  sub.Width,
		Height: sub.Height,
		Scale:  sub.Scale,
		Colors: sub.Colors,
	})
	if err != nil {
		h.logger.Warn("generation failed", zap.Error(err))
		fragment := generationError(err)
		if isFragmentRequest(r) {
			renderStatus(w, r, http.StatusBadGateway, components.ErrorFragment(fragment))
			return
		}
		renderStatus(w, r, http.StatusBadGateway, pages.HomePage(viewmodel.HomePage{
			Title: pageTitle,
			Form:  buildForm(h.schema, values, nil),
			Error: &fragment,
		}))
		return
	}

	result := viewmodel.Result{
		DataURL:  res.DataURL(),
		Width:    res.Width,
		Height:   res.Height,
		Size:     humanize.Bytes(uint64(len(res.PNG))),
		Filename: downloadFilename,
	}
	if isFragmentRequest(r) {
		render(w, r, components.Result(result))
		return
	}
	render(w, r, pages.HomePage(viewmodel.HomePage{
		Title:  pageTitle,
		Form:   buildForm(h.schema, values, nil),
		Result: &result,
	}))
}

func generationError(err error) viewmodel.ErrorFragment {
	var statusErr *wordcloud.StatusError
	if errors.As(err, &statusErr) {
		return viewmodel.ErrorFragment{
			Message: fmt.Sprintf("Erro ao gerar a nuvem de palavras: o serviço respondeu com status %d.", statusErr.Code),
			Status:  statusErr.Code,
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return viewmodel.ErrorFragment{
			Message: "Erro ao gerar a nuvem de palavras: tempo esgotado.",
			Status:  http.StatusGatewayTimeout,
		}
	}
	if errors.Is(err, wordcloud.ErrInvalidImage) {
		return viewmodel.ErrorFragment{
			Message: "Erro ao gerar a nuvem de palavras: imagem inválida.",
			Status:  http.StatusBadGateway,
		}
	}
	return viewmodel.ErrorFragment{
		Message: "Erro ao gerar a nuvem de palavras: serviço indisponível.",
		Status:  http.StatusBadGateway,
	}
}
