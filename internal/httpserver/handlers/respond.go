package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/cloudnav/internal/domain"
)

// documentResponse always carries data, null when nothing is stored.
type documentResponse struct {
	Success bool             `json:"success"`
	Data    *domain.Document `json:"data"`
	Message string           `json:"message,omitempty"`
}

type pushResponse struct {
	Success  bool             `json:"success"`
	Conflict bool             `json:"conflict,omitempty"`
	Data     *domain.Document `json:"data,omitempty"`
	Message  string           `json:"message,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type backupResponse struct {
	Success   bool   `json:"success"`
	BackupKey string `json:"backupKey"`
	Message   string `json:"message,omitempty"`
}

type backupsResponse struct {
	Success bool                `json:"success"`
	Backups []domain.BackupInfo `json:"backups"`
}

type errorResponse struct {
	Success  bool     `json:"success"`
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, problems ...string) {
	writeJSON(w, status, errorResponse{Success: false, Error: msg, Problems: problems})
}
