package api

import (
	"net/http"
)

// Routes builds the HTTP surface: REST intents, the socket and metrics.
func (a *API) Routes(hub *Hub) http.Handler {
	mux := http.NewServeMux()

	// Information Endpoints
	mux.HandleFunc("GET /api/state", a.HandleGetState)
	mux.HandleFunc("GET /api/upgrades", a.HandleGetUpgrades)
	mux.HandleFunc("GET /api/export", a.HandleExport)

	// Action Endpoints
	mux.HandleFunc("POST /api/click", a.HandleClick)
	mux.HandleFunc("POST /api/buy", a.HandleBuy)
	mux.HandleFunc("POST /api/prestige", a.HandlePrestige)
	mux.HandleFunc("POST /api/reset", a.HandleReset)
	mux.HandleFunc("POST /api/import", a.HandleImport)

	// Real-Time WebSocket Endpoint
	if hub != nil {
		mux.HandleFunc("GET /ws", hub.ServeWs)
	}

	// Observability
	mux.HandleFunc("GET /metrics", a.metrics.PrometheusHandler())
	mux.HandleFunc("GET /metrics.json", a.metrics.Handler())

	return corsMiddleware(mux)
}

// corsMiddleware lets a browser client served from another origin call the API.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
