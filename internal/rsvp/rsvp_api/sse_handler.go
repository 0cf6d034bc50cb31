package rsvp_api

import (
	"encoding/json"
	"fmt"
	"ms-rsvp/internal/auth"
	"ms-rsvp/internal/utils"
	"net/http"
	"time"
)

// StreamRSVPs pushes one `rsvp` event per stored reply until the client
// disconnects.
func (h *Handler) StreamRSVPs(w http.ResponseWriter, r *http.Request) {
	if h.Events == nil {
		utils.WriteError(w, http.StatusServiceUnavailable, "Live feed unavailable", "")
		return
	}

	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		h.Logger.Debug("SSE", fmt.Sprintf("Could not clear write deadline: %v", err))
	}

	setupSSEHeaders(w)
	ctx := r.Context()
	eventChan := h.Events.Subscribe(ctx)

	fmt.Fprint(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	if err := rc.Flush(); err != nil {
		h.Logger.Error("SSE", fmt.Sprintf("Streaming unsupported: %v", err))
		return
	}

	h.Logger.Info("SSE", fmt.Sprintf("Admin feed connected (subject=%q, %d listening)", auth.Subject(ctx), h.Events.ClientCount()))

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return
			}

			jsonData, err := json.Marshal(event)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize rsvp event: %v", err))
				continue
			}

			fmt.Fprintf(w, "event: rsvp\ndata: %s\n\n", jsonData)
			if err := rc.Flush(); err != nil {
				return
			}

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Admin feed disconnected, %d still listening", h.Events.ClientCount()))
			return
		}
	}
}

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Accel-Buffering", "no")
}
