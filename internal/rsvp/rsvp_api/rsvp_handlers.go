package rsvp_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"ms-rsvp/internal/models"
	"ms-rsvp/internal/rsvp"
	"ms-rsvp/internal/rsvp/export"
	"ms-rsvp/internal/utils"
	"net/http"
)

const (
	msgMissingFields  = "Missing required fields"
	msgInvalid        = "Invalid RSVP"
	msgDuplicate      = "Duplicate submission"
	msgSchemaMissing  = "Database table not found. Please set up the database schema first."
	msgSchemaFix      = "The rsvp_responses table does not exist. Run `rsvp-migrate up` (or start the service with DB_AUTO_MIGRATE=true) to create it."
	msgConnection     = "Database connection failed. Please check your database configuration."
	msgSubmitFailed   = "Failed to submit RSVP"
	msgListFailed     = "Failed to fetch RSVP responses"
	msgStatsFailed    = "Failed to fetch RSVP stats"
	msgExportFailed   = "Failed to export RSVP responses"
	msgBodyTooLarge   = "Request body too large"
	msgSubmitAccepted = "RSVP submitted successfully"
)

func (h *Handler) SubmitRSVP(w http.ResponseWriter, r *http.Request) {
	if h.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxBodyBytes)
	}

	var req models.RSVPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Logger.Warn("API", fmt.Sprintf("SubmitRSVP: body over %d bytes", tooLarge.Limit))
			utils.WriteError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge, "")
			return
		}
		h.Logger.Warn("API", fmt.Sprintf("SubmitRSVP: invalid JSON: %v", err))
		utils.WriteError(w, http.StatusBadRequest, msgInvalid, "request body must be a JSON object")
		return
	}

	created, err := h.Service.Submit(r.Context(), req, r.Header.Get("Idempotency-Key"))
	if err != nil {
		h.writeSubmitError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, models.RSVPSubmitResponse{
		Success: true,
		Message: msgSubmitAccepted,
		ID:      created.ID,
	})
}

func (h *Handler) writeSubmitError(w http.ResponseWriter, err error) {
	class := rsvp.Classify(err)
	h.Logger.Error("RSVP", fmt.Sprintf("SubmitRSVP failed (%s): %v", class, err))

	switch class {
	case rsvp.ClassValidation:
		var verr *rsvp.ValidationError
		if errors.As(err, &verr) {
			utils.WriteError(w, http.StatusBadRequest, msgInvalid, verr.Details)
			return
		}
		utils.WriteError(w, http.StatusBadRequest, msgMissingFields, "")
	case rsvp.ClassDuplicate:
		utils.WriteError(w, http.StatusConflict, msgDuplicate, "")
	case rsvp.ClassConfiguration:
		utils.WriteError(w, http.StatusInternalServerError, msgSchemaMissing, msgSchemaFix)
	case rsvp.ClassConnectivity:
		utils.WriteError(w, http.StatusInternalServerError, msgConnection, err.Error())
	default:
		utils.WriteError(w, http.StatusInternalServerError, msgSubmitFailed, err.Error())
	}
}

func (h *Handler) ListRSVPs(w http.ResponseWriter, r *http.Request) {
	responses, err := h.Service.List(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListRSVPs failed (%s): %v", rsvp.Classify(err), err))
		utils.WriteError(w, http.StatusInternalServerError, msgListFailed, err.Error())
		return
	}

	utils.WriteJSON(w, http.StatusOK, models.RSVPListResponse{Success: true, Responses: responses})
}

func (h *Handler) RSVPStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("RSVPStats failed (%s): %v", rsvp.Classify(err), err))
		utils.WriteError(w, http.StatusInternalServerError, msgStatsFailed, err.Error())
		return
	}

	utils.WriteJSON(w, http.StatusOK, models.StatsResponse{Success: true, Stats: stats})
}

// ExportRSVPs streams every response as a CSV attachment.
func (h *Handler) ExportRSVPs(w http.ResponseWriter, r *http.Request) {
	responses, err := h.Service.List(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ExportRSVPs failed (%s): %v", rsvp.Classify(err), err))
		utils.WriteError(w, http.StatusInternalServerError, msgExportFailed, err.Error())
		return
	}

	filename := export.Filename(h.now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)

	if err := export.WriteCSV(w, responses); err != nil {
		h.Logger.Error("API", fmt.Sprintf("ExportRSVPs: write failed: %v", err))
		return
	}
	h.Logger.Info("API", fmt.Sprintf("ExportRSVPs: exported %d responses as %s", len(responses), filename))
}
