package server

import (
	"net/http"

	"github.com/illumi1717/realdeko-site-backend/internal/model"
)

// HandleCreateApplication handles POST /v1/applications (public contact
// form). The application is forwarded to the operators; nothing is stored.
func (h *Handlers) HandleCreateApplication(w http.ResponseWriter, r *http.Request) {
	var app model.Application
	if err := decodeJSON(w, r, &app, h.maxRequestBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if err := app.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeBadRequest, err.Error())
		return
	}

	if h.sender == nil {
		h.logger.Info("application received with no notifier configured",
			"name", app.Name, "phone", app.Phone)
		writeJSON(w, r, http.StatusAccepted, map[string]string{"status": "accepted"})
		return
	}

	if err := h.sender.Send(r.Context(), app); err != nil {
		h.writeInternalError(w, r, "failed to forward application", err)
		return
	}
	writeJSON(w, r, http.StatusAccepted, map[string]string{"status": "accepted"})
}
