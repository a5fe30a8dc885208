package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"nuvem/internal/extraction"
	"nuvem/internal/form"
)

const keepAliveInterval = 25 * time.Second

type KeywordsHandler struct {
	schema *form.Schema
	store  *extraction.Store
	logger *zap.Logger
}

func NewKeywordsHandler(schema *form.Schema, store *extraction.Store, logger *zap.Logger) *KeywordsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeywordsHandler{schema: schema, store: store, logger: logger.Named("keywords")}
}

// RegisterRoutes mounts the request/response routes.
func (h *KeywordsHandler) RegisterRoutes(r chi.Router) {
	r.Post("/keywords", h.start)
}

// RegisterStreamRoutes mounts the long-lived SSE route. It is kept apart so
// request timeouts are not applied to it.
func (h *KeywordsHandler) RegisterStreamRoutes(r chi.Router) {
	r.Get("/keywords/{id}/stream", h.stream)
}

type startResponse struct {
	ID     string `json:"id"`
	Stream string `json:"stream"`
}

type errorResponse struct {
	Errors form.FieldErrors `json:"errors"`
}

func (h *KeywordsHandler) start(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	req, errs := h.schema.ParseKeywords(r.PostForm)
	if errs != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Errors: errs})
		return
	}
	job := h.store.Start(req.Request())
	h.logger.Debug("extraction started", zap.String("job", job.ID), zap.String("model", req.Model))
	writeJSON(w, http.StatusAccepted, startResponse{
		ID:     job.ID,
		Stream: "/keywords/" + job.ID + "/stream",
	})
}

func (h *KeywordsHandler) stream(w http.ResponseWriter, r *http.Request) {
	job, sub, unsubscribe, err := h.store.Subscribe(chi.URLParam(r, "id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer unsubscribe()

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Subscribed before the snapshot, so no update between the two is lost.
	snap := job.Snapshot()
	if snap.Text != "" {
		writeSSE(w, "keywords", snap.Text)
	}
	if snap.Status.Finished() {
		writeTerminal(w, snap)
		flusher.Flush()
		return
	}
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-sub:
			if !open {
				snap := job.Snapshot()
				if snap.Text != "" {
					writeSSE(w, "keywords", snap.Text)
				}
				writeTerminal(w, snap)
				flusher.Flush()
				return
			}
			switch event.Kind {
			case extraction.EventText:
				writeSSE(w, "keywords", event.Text)
			case extraction.EventDone:
				if event.Text != "" {
					writeSSE(w, "keywords", event.Text)
				}
				writeSSE(w, "done", "")
				flusher.Flush()
				return
			case extraction.EventError:
				writeSSE(w, "failed", event.Err)
				flusher.Flush()
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			_, _ = w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		}
	}
}

func writeTerminal(w http.ResponseWriter, snap extraction.Snapshot) {
	if snap.Status == extraction.StatusFailed {
		writeSSE(w, "failed", snap.Err)
		return
	}
	writeSSE(w, "done", "")
}
