package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MrSnakeDoc/cloudnav/internal/domain"
	"github.com/MrSnakeDoc/cloudnav/internal/httpserver/deps"
	"github.com/MrSnakeDoc/cloudnav/internal/logger"
	"github.com/MrSnakeDoc/cloudnav/internal/store"
)

// Query values of the "action" parameter.
const (
	ActionBackup  = "backup"
	ActionBackups = "backups"
)

const (
	msgEmpty        = "no data stored yet"
	msgMissingData  = "missing data field"
	msgConflict     = "version conflict: the document was updated by another device"
	msgSynced       = "sync succeeded"
	msgBackedUp     = "backup created: "
	msgNotAllowed   = "Method not allowed"
	msgMissingKey   = "missing key parameter"
	msgBackupAbsent = "backup not found"
	msgTooLarge     = "request body too large"
	msgBadJSON      = "invalid JSON body"
	msgInvalid      = "invalid document"
)

type pushRequest struct {
	Data            *domain.Document `json:"data"`
	ExpectedVersion *int64           `json:"expectedVersion,omitempty"`
}

// Sync serves the /api/sync endpoint. The action query parameter selects
// the snapshot operations, every other request reads or writes the
// shared document.
func Sync(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		action := r.URL.Query().Get("action")

		switch r.Method {
		case http.MethodGet:
			switch action {
			case ActionBackups:
				listBackups(w, r, d)
			case ActionBackup:
				getBackup(w, r, d)
			default:
				getDocument(w, r, d)
			}
		case http.MethodPost:
			if action == ActionBackup {
				createBackup(w, r, d)
				return
			}
			putDocument(w, r, d)
		default:
			w.Header().Set("Allow", "GET, POST")
			writeError(w, http.StatusMethodNotAllowed, msgNotAllowed)
		}
	}
}

// WithAction pins the action parameter, used for the path aliases.
func WithAction(action string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		q.Set("action", action)
		r.URL.RawQuery = q.Encode()
		next(w, r)
	}
}

func getDocument(w http.ResponseWriter, r *http.Request, d deps.Deps) {
	doc, err := d.Store.GetDocument(r.Context())
	if err != nil {
		d.Logger.Error("failed to read document", logger.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if doc == nil {
		writeJSON(w, http.StatusOK, documentResponse{Success: true, Message: msgEmpty})
		return
	}
	writeJSON(w, http.StatusOK, documentResponse{Success: true, Data: doc})
}

func putDocument(w http.ResponseWriter, r *http.Request, d deps.Deps) {
	var req pushRequest
	if !decodeBody(w, r, d, &req) {
		return
	}
	if req.Data == nil {
		writeError(w, http.StatusBadRequest, msgMissingData)
		return
	}
	if err := req.Data.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	saved, err := d.Store.PutDocument(r.Context(), *req.Data, req.ExpectedVersion)
	if err != nil {
		var conflict *domain.ConflictError
		if errors.As(err, &conflict) {
			d.Logger.Info("version conflict",
				logger.String("device_id", req.Data.Meta.DeviceID),
				logger.Int64("current_version", conflict.CurrentVersion))
			writeJSON(w, http.StatusConflict, pushResponse{
				Success:  false,
				Conflict: true,
				Data:     conflict.Remote,
				Error:    msgConflict,
			})
			return
		}
		d.Logger.Error("failed to store document", logger.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	d.Logger.Info("document stored",
		logger.String("device_id", saved.Meta.DeviceID),
		logger.Int64("version", saved.Meta.Version),
		logger.Int("links", len(saved.Links)))
	writeJSON(w, http.StatusOK, pushResponse{Success: true, Data: saved, Message: msgSynced})
}

func createBackup(w http.ResponseWriter, r *http.Request, d deps.Deps) {
	var req pushRequest
	if !decodeBody(w, r, d, &req) {
		return
	}
	if req.Data == nil {
		writeError(w, http.StatusBadRequest, msgMissingData)
		return
	}
	if err := req.Data.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	key, err := d.Store.CreateBackup(r.Context(), *req.Data, d.BackupTTL)
	if err != nil {
		d.Logger.Error("failed to create backup", logger.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	d.Logger.Info("backup created", logger.String("key", key))
	writeJSON(w, http.StatusOK, backupResponse{Success: true, BackupKey: key, Message: msgBackedUp + key})
}

func listBackups(w http.ResponseWriter, r *http.Request, d deps.Deps) {
	list, err := d.Store.ListBackups(r.Context())
	if err != nil {
		d.Logger.Error("failed to list backups", logger.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []domain.BackupInfo{}
	}
	writeJSON(w, http.StatusOK, backupsResponse{Success: true, Backups: list})
}

func getBackup(w http.ResponseWriter, r *http.Request, d deps.Deps) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, msgMissingKey)
		return
	}
	doc, err := d.Store.GetBackup(r.Context(), key)
	if err != nil {
		if errors.Is(err, store.ErrBackupNotFound) {
			writeError(w, http.StatusNotFound, msgBackupAbsent)
			return
		}
		d.Logger.Error("failed to read backup", logger.String("key", key), logger.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, documentResponse{Success: true, Data: doc})
}

// decodeBody reads a size-limited JSON body into v and writes the error
// response itself when that fails.
func decodeBody(w http.ResponseWriter, r *http.Request, d deps.Deps, v any) bool {
	body := r.Body
	if d.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, d.MaxBodyBytes)
	}
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
			return false
		}
		d.Logger.Debug("rejected request body", logger.Error(err))
		writeError(w, http.StatusBadRequest, msgBadJSON)
		return false
	}
	return true
}

func writeValidation(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, msgInvalid, verr.Problems...)
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}
