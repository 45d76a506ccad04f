package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/aura-labs/aura/internal/config"
)

func (d *Dependencies) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, d.Config.Snapshot())
}

// handleUpdateConfig applies a partial update. A validation failure
// rejects the whole request and leaves settings untouched.
func (d *Dependencies) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var update config.Update
	if err := readJSON(r, &update); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: "Invalid JSON body"})
		return
	}

	applied, err := d.Config.Apply(r.Context(), update)
	if err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, ErrorResp{Detail: verr.Error()})
			return
		}
		d.Logger.Error("failed to apply settings", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResp{Detail: "Failed to save settings"})
		return
	}
	writeJSON(w, http.StatusOK, applied)
}
