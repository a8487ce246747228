package api

import (
	"encoding/json"
	"image/png"
	"log"
	"net/http"
	"strconv"

	"splat/internal/render"
	"splat/internal/splat"

	"github.com/go-gl/mathgl/mgl64"
)

// Handler methods for routerHandlers
// These are used by both the standalone router (for testing) and the full Server.

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.Snapshot())
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.Stats())
}

func (h *routerHandlers) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	n := 50
	if raw := r.URL.Query().Get("n"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, "n must be a positive integer", http.StatusBadRequest)
			return
		}
		n = parsed
	}
	if n > 1024 {
		n = 1024
	}

	writeJSON(w, map[string]interface{}{
		"events": h.engine.Events(n),
	})
}

// emitRequest is the shared body for single and burst emission.
// Origin and direction are [x, y, z] triples; direction need not be
// normalized. Overrides apply to this emission only.
type emitRequest struct {
	Origin    mgl64.Vec3       `json:"origin"`
	Direction mgl64.Vec3       `json:"direction"`
	Count     int              `json:"count,omitempty"`
	Delay     float64          `json:"delay,omitempty"` // seconds between droplets
	Overrides *splat.Overrides `json:"overrides,omitempty"`
}

func (h *routerHandlers) handleEmit(w http.ResponseWriter, r *http.Request) {
	var req emitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	h.engine.Emit(req.Origin, req.Direction, req.Overrides)
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleEmitBurst(w http.ResponseWriter, r *http.Request) {
	var req emitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	count := req.Count
	if count <= 0 {
		count = 5 // Default
	}
	if count > 100 {
		count = 100 // Cap
	}

	delay := req.Delay
	if delay < 0 {
		delay = 0
	}

	h.engine.EmitAmount(req.Origin, req.Direction, count, delay, req.Overrides)
	writeJSON(w, map[string]interface{}{
		"success": true,
		"count":   count,
	})
}

// handleGetFrame renders the latest snapshot as a PNG debug frame.
func (h *routerHandlers) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()

	h.renderMu.Lock()
	defer h.renderMu.Unlock()
	if h.renderer == nil {
		h.renderer = render.NewRenderer(render.DefaultConfig())
	}

	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, h.renderer.Render(snap)); err != nil {
		log.Printf("⚠️ Frame encode failed: %v", err)
	}
}

func (h *routerHandlers) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.GetSettings())
}

func (h *routerHandlers) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var ov splat.Overrides
	if err := json.NewDecoder(r.Body).Decode(&ov); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	if err := h.engine.UpdateSettings(&ov); err != nil {
		writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	writeJSON(w, h.engine.GetSettings())
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
