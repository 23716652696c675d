package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Envelope 是所有 JSON 响应的统一外壳。
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, env Envelope, log *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Error("写 JSON 响应失败", "err", err)
	}
}

// ok 写 200；message 非空时附带给前端展示的提示（例如 "no media found"）。
func ok(w http.ResponseWriter, data any, message string, log *slog.Logger) {
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: data, Message: message}, log)
}

func fail(w http.ResponseWriter, status int, msg string, log *slog.Logger) {
	writeJSON(w, status, Envelope{Success: false, Error: msg}, log)
}
