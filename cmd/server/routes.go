package main

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/modelmux/modelmux/internal/config"
	"github.com/modelmux/modelmux/internal/observability"
	"github.com/modelmux/modelmux/internal/registry"
	"github.com/modelmux/modelmux/internal/router"
	"github.com/modelmux/modelmux/pkg/types"
)

type handler struct {
	router   *router.Router
	registry *registry.Registry
	logger   *slog.Logger
}

func newHandler(rt *router.Router, reg *registry.Registry, logger *slog.Logger) *handler {
	return &handler{router: rt, registry: reg, logger: logger}
}

func buildMux(cfg *config.Config, h *handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health/live", h.healthLive)
	mux.HandleFunc("GET /health/ready", h.healthReady)

	mux.HandleFunc("POST /v1/chat/completions", h.chatCompletions)
	mux.HandleFunc("GET /v1/models", h.listModels)
	mux.HandleFunc("POST /admin/models/{provider}/{model}/reset", h.resetModel)

	if cfg.Metrics.Enabled {
		mux.Handle("GET "+cfg.Metrics.Path, promhttp.Handler())
	}
	return mux
}

// chatRequest is the inbound shape. The model field is accepted for
// OpenAI-client compatibility but ignored: model choice belongs to the
// router.
type chatRequest struct {
	Model    string              `json:"model"`
	Messages []types.ChatMessage `json:"messages"`
	Prompt   string              `json:"prompt"`
}

func (h *handler) chatCompletions(w http.ResponseWriter, r *http.Request) {
	logger := observability.WithRequestID(r.Context(), h.logger)

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	text := req.Prompt
	for i := len(req.Messages) - 1; i >= 0 && text == ""; i-- {
		if req.Messages[i].Role == "user" {
			text = req.Messages[i].Content
		}
	}
	if text == "" {
		writeError(w, http.StatusBadRequest, "request has no user content")
		return
	}

	resp, err := h.router.Route(r.Context(), text)
	if err != nil {
		var exhausted *router.ExhaustedError
		if errors.As(err, &exhausted) {
			logger.Warn("no model could serve the request",
				"capability", exhausted.Capability, "attempts", len(exhausted.Attempts))
			writeError(w, http.StatusBadGateway, exhausted.Error())
			return
		}
		logger.Error("routing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// modelEntry is one row of the model listing.
type modelEntry struct {
	ID         string `json:"id"`
	Object     string `json:"object"`
	OwnedBy    string `json:"owned_by"`
	Capability string `json:"capability"`
	Available  bool   `json:"available"`
}

func (h *handler) listModels(w http.ResponseWriter, r *http.Request) {
	caps := []types.Capability{
		types.CapabilityText,
		types.CapabilityImage,
		types.CapabilityAudio,
		types.CapabilityVideo,
	}

	var entries []modelEntry
	for _, cap := range caps {
		for _, cand := range h.registry.Candidates(cap) {
			key := cand.Key()
			entries = append(entries, modelEntry{
				ID:         key.String(),
				Object:     "model",
				OwnedBy:    key.Provider,
				Capability: string(cand.Model.Capability()),
				Available:  cand.HasCredentials,
			})
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"object": "list",
		"data":   entries,
	})
}

func (h *handler) resetModel(w http.ResponseWriter, r *http.Request) {
	provider := r.PathValue("provider")
	model := r.PathValue("model")

	if !h.router.ResetModel(provider, model) {
		writeError(w, http.StatusNotFound, "unknown model "+provider+":"+model)
		return
	}
	h.logger.Info("model manually reset", "provider", provider, "model", model)
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *handler) healthLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) healthReady(w http.ResponseWriter, r *http.Request) {
	text, media := h.registry.Len()
	if text+media == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "waiting for benchmark data",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"text_models":  text,
		"media_models": media,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{"message": msg, "code": status},
	})
}
