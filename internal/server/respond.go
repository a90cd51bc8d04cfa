package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
)

type successResponse struct {
	Success bool `json:"success"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := sonic.Marshal(v)
	if err != nil {
		h.logger.Errorf("%s: can't marshal response", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		h.logger.Errorf("%s: can't write response", err)
	}
}

func (h *Handler) writeSuccess(w http.ResponseWriter) {
	h.writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, errorResponse{Error: msg})
}

func decode(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: can't read request body", err)
	}
	if err := sonic.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: can't unmarshal request body", err)
	}
	return nil
}
