package handlers

import "net/http"

const serviceVersion = "1.0.0"

// Root returns the welcome document with the service route map.
func Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Bienvenido a PAPPI Calculator Auth API",
		"version": serviceVersion,
		"endpoints": map[string]string{
			"registro": "/registro",
			"login":    "/login",
			"health":   "/health",
		},
	})
}

// Healthz reports service liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "auth",
	})
}
