package api

import (
	"bytes"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"splat/internal/splat"

	"github.com/go-gl/mathgl/mgl64"
)

// fakeEngine records calls so handler tests can run without the real
// engine loop.
type fakeEngine struct {
	settings splat.Settings

	emitCalls  int
	lastOrigin mgl64.Vec3
	lastDir    mgl64.Vec3
	lastCount  int
	lastDelay  float64
	lastOv     *splat.Overrides

	updateErr error
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{settings: splat.DefaultSettings()}
}

func (f *fakeEngine) Emit(origin, dir mgl64.Vec3, ov *splat.Overrides) {
	f.emitCalls++
	f.lastOrigin = origin
	f.lastDir = dir
	f.lastOv = ov
}

func (f *fakeEngine) EmitAmount(origin, dir mgl64.Vec3, count int, delay float64, ov *splat.Overrides) {
	f.emitCalls++
	f.lastOrigin = origin
	f.lastDir = dir
	f.lastCount = count
	f.lastDelay = delay
	f.lastOv = ov
}

func (f *fakeEngine) Snapshot() *splat.EngineSnapshot {
	return &splat.EngineSnapshot{Tick: 42, Limit: 200}
}

func (f *fakeEngine) Stats() map[string]interface{} {
	return map[string]interface{}{"tick": uint64(42)}
}

func (f *fakeEngine) Events(n int) []splat.Event {
	return []splat.Event{{Type: splat.EventTypeEmit, Tick: 1}}
}

func (f *fakeEngine) GetSettings() splat.Settings { return f.settings }

func (f *fakeEngine) UpdateSettings(ov *splat.Overrides) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.settings = f.settings.Derive(ov)
	return nil
}

func testRouter(engine EngineInterface) http.Handler {
	return NewRouter(RouterConfig{
		Engine: engine,
		RateLimitConfig: &RateLimitConfig{
			RequestsPerSecond: 1000,
			Burst:             1000,
			CleanupInterval:   time.Hour,
		},
		DisableLogging: true,
	})
}

// TestGetState verifies the state endpoint serves the latest snapshot.
func TestGetState(t *testing.T) {
	ts := httptest.NewServer(testRouter(newFakeEngine()))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/state")
	if err != nil {
		t.Fatalf("GET /api/state: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	var snap splat.EngineSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("Decode snapshot: %v", err)
	}
	if snap.Tick != 42 {
		t.Errorf("Expected tick 42, got %d", snap.Tick)
	}
}

// TestEmitEndpoint verifies a POST /api/emit reaches the engine with the
// decoded origin, direction and overrides.
func TestEmitEndpoint(t *testing.T) {
	engine := newFakeEngine()
	ts := httptest.NewServer(testRouter(engine))
	defer ts.Close()

	body := `{"origin":[1,2,3],"direction":[0,-1,0],"overrides":{"color":"#00ff00"}}`
	resp, err := http.Post(ts.URL+"/api/emit", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST /api/emit: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}
	if engine.emitCalls != 1 {
		t.Errorf("Expected 1 emit call, got %d", engine.emitCalls)
	}
	if engine.lastOrigin != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("Origin not decoded: %v", engine.lastOrigin)
	}
	if engine.lastOv == nil || engine.lastOv.Color == nil || *engine.lastOv.Color != "#00ff00" {
		t.Errorf("Overrides not decoded: %+v", engine.lastOv)
	}
}

// TestEmitRejectsBadJSON verifies malformed bodies are rejected before
// touching the engine.
func TestEmitRejectsBadJSON(t *testing.T) {
	engine := newFakeEngine()
	ts := httptest.NewServer(testRouter(engine))
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/emit", "application/json", bytes.NewBufferString("{nope"))
	if err != nil {
		t.Fatalf("POST /api/emit: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
	if engine.emitCalls != 0 {
		t.Errorf("Engine should not be called on bad JSON")
	}
}

// TestEmitBurstCapsCount verifies the burst endpoint clamps oversized
// requests instead of failing them.
func TestEmitBurstCapsCount(t *testing.T) {
	engine := newFakeEngine()
	ts := httptest.NewServer(testRouter(engine))
	defer ts.Close()

	body := `{"origin":[0,5,0],"direction":[0,-1,0],"count":5000,"delay":0.05}`
	resp, err := http.Post(ts.URL+"/api/emit/burst", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST /api/emit/burst: %v", err)
	}
	resp.Body.Close()

	if engine.lastCount != 100 {
		t.Errorf("Expected count capped at 100, got %d", engine.lastCount)
	}
	if engine.lastDelay != 0.05 {
		t.Errorf("Expected delay 0.05, got %f", engine.lastDelay)
	}
}

// TestSettingsRoundTrip verifies PUT /api/settings overlays onto the base
// and returns the updated configuration.
func TestSettingsRoundTrip(t *testing.T) {
	engine := newFakeEngine()
	ts := httptest.NewServer(testRouter(engine))
	defer ts.Close()

	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/settings",
		bytes.NewBufferString(`{"color":"#123456","maximumSize":2.5}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT /api/settings: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	var got splat.Settings
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Decode settings: %v", err)
	}
	if got.Color != "#123456" {
		t.Errorf("Expected color #123456, got %s", got.Color)
	}
	if got.MaximumSize != 2.5 {
		t.Errorf("Expected maximumSize 2.5, got %f", got.MaximumSize)
	}
}

// TestEventsEndpointValidatesN verifies the n query parameter must be a
// positive integer.
func TestEventsEndpointValidatesN(t *testing.T) {
	ts := httptest.NewServer(testRouter(newFakeEngine()))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/events?n=-3")
	if err != nil {
		t.Fatalf("GET /api/events: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", resp.StatusCode)
	}
}

// TestRateLimiterRejects verifies a tight limiter starts returning 429.
func TestRateLimiterRejects(t *testing.T) {
	router := NewRouter(RouterConfig{
		Engine: newFakeEngine(),
		RateLimitConfig: &RateLimitConfig{
			RequestsPerSecond: 1,
			Burst:             2,
			CleanupInterval:   time.Hour,
		},
		DisableLogging: true,
	})
	ts := httptest.NewServer(router)
	defer ts.Close()

	var rejected bool
	for i := 0; i < 10; i++ {
		resp, err := http.Get(ts.URL + "/api/state")
		if err != nil {
			t.Fatalf("GET /api/state: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			rejected = true
			break
		}
	}
	if !rejected {
		t.Errorf("Expected at least one 429 from the rate limiter")
	}
}

// TestGetFrame verifies the debug frame endpoint serves a decodable PNG
// of the current snapshot.
func TestGetFrame(t *testing.T) {
	router := testRouter(newFakeEngine())

	req := httptest.NewRequest("GET", "/api/frame", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %q", ct)
	}
	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatalf("Frame did not decode as PNG: %v", err)
	}
	if img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		t.Errorf("Decoded frame has empty bounds: %v", img.Bounds())
	}
}
