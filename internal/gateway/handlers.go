package gateway

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/TCSthecoder/Scraper/internal/model"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// StateReader is the read side of the tracker consumed by the REST surface.
type StateReader interface {
	Latest() map[string]model.PriceObservation
	History() map[string][]model.ChartPoint
	ChartSeries(asset string) ([]model.ChartPoint, bool)
	Indicators() map[string]model.IndicatorSnapshot
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// RegisterRoutes registers all HTTP routes on the provided mux.
func RegisterRoutes(mux *http.ServeMux, h *Hub, state StateReader, processStart time.Time) {
	// WebSocket endpoint: pushes one envelope per successful poll cycle.
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[gateway] ws upgrade error: %v", err)
			return
		}
		h.HandleWSRequest(conn)
	})

	// REST: latest observation and indicators per asset
	mux.HandleFunc("/api/latest", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"latest":     state.Latest(),
			"indicators": state.Indicators(),
			"ts":         time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// REST: bounded display history for every tracked asset
	mux.HandleFunc("/api/history", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(state.History())
	})

	// REST: chart series for a single asset
	mux.HandleFunc("/api/chart/", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")

		asset := strings.TrimPrefix(r.URL.Path, "/api/chart/")
		if asset == "" {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "asset is required"})
			return
		}
		series, ok := state.ChartSeries(asset)
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "no data for " + asset})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"asset":  asset,
			"points": series,
		})
	})

	// REST: process resource usage snapshot
	mux.HandleFunc("/api/metrics", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")
		m := CollectSystemMetrics(processStart)
		m.WSClients = h.ClientCount()
		json.NewEncoder(w).Encode(m)
	})

	// Health endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		SetCORS(w)
		w.Header().Set("Content-Type", "application/json")

		resp := map[string]interface{}{
			"status":         "ok",
			"ws_clients":     h.ClientCount(),
			"tracked_assets": len(state.Latest()),
			"uptime_sec":     int64(time.Since(processStart).Seconds()),
			"ts":             time.Now().UTC().Format(time.RFC3339Nano),
		}
		if last := h.LastCycleTS(); !last.IsZero() {
			resp["last_cycle"] = last.Format(time.RFC3339Nano)
		}
		json.NewEncoder(w).Encode(resp)
	})
}
