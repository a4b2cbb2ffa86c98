package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/brunobiangulo/syrmorph"
)

// decomposer is the part of *syrmorph.Engine the HTTP handlers use.
type decomposer interface {
	ParseSentence(ctx context.Context, sentence string) (string, syrmorph.Stats, error)
	Model() string
}

type handler struct {
	engine  decomposer
	log     *zap.Logger
	timeout time.Duration
}

func newHandler(e decomposer, log *zap.Logger) *handler {
	return &handler{engine: e, log: log, timeout: 10 * time.Minute}
}

func (h *handler) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /decompose", h.handleDecompose)
	mux.HandleFunc("GET /models", h.handleModels)
	mux.HandleFunc("GET /health", h.handleHealth)
	return mux
}

type decomposeRequest struct {
	Sentence string `json:"sentence"`
}

type decomposeResponse struct {
	Sentence string         `json:"sentence"`
	Model    string         `json:"model"`
	Trace    string         `json:"trace"`
	Stats    syrmorph.Stats `json:"stats"`
}

// POST /decompose
func (h *handler) handleDecompose(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req decomposeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	text, stats, err := h.engine.ParseSentence(ctx, req.Sentence)
	switch {
	case errors.Is(err, syrmorph.ErrEmptySentence):
		writeError(w, http.StatusBadRequest, "sentence is required")
		return
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "decomposition timed out")
		return
	case err != nil:
		h.log.Error("decompose failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "decomposition failed")
		return
	}

	writeJSON(w, http.StatusOK, decomposeResponse{
		Sentence: req.Sentence,
		Model:    h.engine.Model(),
		Trace:    text,
		Stats:    stats,
	})
}

// GET /models
func (h *handler) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, syrmorph.Models())
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"model":  h.engine.Model(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
