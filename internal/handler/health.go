package handler

import "net/http"

// Health handles GET /healthz.
func Health(w http.ResponseWriter, r *http.Request) {
	RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
