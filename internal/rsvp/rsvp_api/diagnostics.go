package rsvp_api

import (
	"fmt"
	"ms-rsvp/internal/config"
	"ms-rsvp/internal/models"
	"ms-rsvp/internal/utils"
	"net/http"
)

// PresenceFromConfig records which connection settings are set, never their
// values.
func PresenceFromConfig(cfg *config.Config) models.ConfigPresence {
	return models.ConfigPresence{
		HasDatabaseURL:      cfg.Database.URL != "",
		HasDatabaseHost:     cfg.Database.Host != "",
		HasDatabaseName:     cfg.Database.Name != "",
		HasDatabaseUser:     cfg.Database.Username != "",
		HasDatabasePassword: cfg.Database.Password != "",
		HasRedisAddr:        cfg.Redis.Enabled && cfg.Redis.Addr != "",
	}
}

// TestDB reports store connectivity, whether the responses table exists and
// how many rows it holds.
func (h *Handler) TestDB(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		utils.WriteError(w, http.StatusServiceUnavailable, "Diagnostics unavailable", "no store configured")
		return
	}

	if err := h.Store.Ping(r.Context()); err != nil {
		h.Logger.Error("API", fmt.Sprintf("TestDB: ping failed: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, msgConnection, err.Error())
		return
	}

	diag := models.Diagnostics{
		Connection: "OK",
		Config:     h.ConfigPresence,
		Timestamp:  h.now().UTC(),
	}

	exists, err := h.Store.TableExists(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("TestDB: table probe failed: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, msgConnection, err.Error())
		return
	}
	diag.TableExists = exists
	diag.Success = exists
	if !exists {
		h.Logger.Warn("DATABASE", "TestDB: rsvp_responses table is missing")
	} else if n, err := h.Store.CountResponses(r.Context()); err != nil {
		h.Logger.Warn("DATABASE", fmt.Sprintf("TestDB: count failed: %v", err))
	} else {
		diag.RecordCount = &n
	}

	utils.WriteJSON(w, http.StatusOK, diag)
}
