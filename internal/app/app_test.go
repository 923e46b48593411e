package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abrezinsky/prizewheel/internal/config"
	"github.com/abrezinsky/prizewheel/internal/handlers"
	"github.com/abrezinsky/prizewheel/internal/logger"
	"github.com/abrezinsky/prizewheel/internal/models"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Database.Path = ":memory:"
	cfg.Auth.JWTSecret = "app-test-secret"
	cfg.Server.ShutdownTimeout = 2 * time.Second
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := New(logger.New(), cfg)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func postJSON(t *testing.T, url string, body interface{}, token string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(http.MethodPost, url, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestNew_InitializesApp(t *testing.T) {
	a := newTestApp(t, testConfig())

	if a.handlers == nil {
		t.Error("expected handlers to be initialized")
	}
	if a.repo == nil {
		t.Error("expected repo to be initialized")
	}
	if a.hub == nil {
		t.Error("expected hub to be initialized")
	}
	if a.stopHub == nil {
		t.Error("expected stopHub to be set")
	}
	if a.redis != nil {
		t.Error("expected no redis client without an address")
	}
}

func TestNew_FailsWithBadDBPath(t *testing.T) {
	cfg := testConfig()
	cfg.Database.Path = "/nonexistent/path/db.sqlite"

	if _, err := New(logger.New(), cfg); err == nil {
		t.Error("expected error for invalid db path")
	}
}

func TestNew_FailsWithInvalidRate(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Public = "lots"

	if _, err := New(logger.New(), cfg); err == nil {
		t.Error("expected error for invalid rate")
	}
}

func TestNew_FailsWithUnknownPhoneRegion(t *testing.T) {
	cfg := testConfig()
	cfg.Contact.PhoneRegion = "QQ"

	_, err := New(logger.New(), cfg)
	if err == nil {
		t.Fatal("expected error for unknown phone region")
	}
	if !strings.Contains(err.Error(), "QQ") {
		t.Errorf("expected error naming the region, got %v", err)
	}
}

func TestNew_FailsWhenRedisUnreachable(t *testing.T) {
	// grab a free port and release it so nothing is listening there
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	cfg := testConfig()
	cfg.RateLimit.RedisAddr = addr

	_, err = New(logger.New(), cfg)
	if err == nil {
		t.Fatal("expected error for unreachable redis")
	}
	if !strings.Contains(err.Error(), "redis") {
		t.Errorf("expected redis error, got %v", err)
	}
}

func TestNew_EnablesHTTPLogging(t *testing.T) {
	cfg := testConfig()
	cfg.Log.HTTP = true
	log := logger.New()

	a, err := New(log, cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if !log.IsHTTPLoggingEnabled() {
		t.Error("expected HTTP logging enabled")
	}
}

func TestNew_GeneratesSecretWhenMissing(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = ""
	a := newTestApp(t, cfg)

	rec := httptest.NewRecorder()
	body := strings.NewReader(`{"name":"Corner Cafe","email":"cafe@example.com","password":"s3cret-pass"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", body)
	req.Header.Set("Content-Type", "application/json")
	a.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_PublicRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Public = "2-M"
	a := newTestApp(t, cfg)
	router := a.Router()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/redeem/unknown-token", nil)
		req.RemoteAddr = "203.0.113.9:5555"
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusNotFound || codes[1] != http.StatusNotFound {
		t.Errorf("expected first two requests to pass through, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("expected third request to be limited, got %v", codes)
	}
}

func TestRouter_RateLimitDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit.Public = ""
	a := newTestApp(t, cfg)
	router := a.Router()

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/redeem/unknown-token", nil)
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("request %d: expected 404, got %d", i, rec.Code)
		}
	}
}

func TestApp_SpinReachesLiveFeed(t *testing.T) {
	a := newTestApp(t, testConfig())
	server := httptest.NewServer(a.Router())
	defer server.Close()

	resp := postJSON(t, server.URL+"/api/auth/signup", map[string]string{
		"name": "Corner Cafe", "email": "cafe@example.com", "password": "s3cret-pass",
	}, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d", resp.StatusCode)
	}
	var session handlers.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		t.Fatal(err)
	}

	resp = postJSON(t, server.URL+"/api/admin/prizes", map[string]interface{}{
		"name": "Free Coffee", "type": "food_item", "quantity": 3,
	}, session.Token)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create prize: expected 201, got %d", resp.StatusCode)
	}

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/admin/live?access_token=" + session.Token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial live feed: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg models.WSMessage
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != "connected" {
		t.Fatalf("expected connected message, got %+v (%v)", msg, err)
	}

	resp = postJSON(t, fmt.Sprintf("%s/api/wheel/%d/spin", server.URL, session.Tenant.ID), nil, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("spin: expected 201, got %d", resp.StatusCode)
	}

	var spin struct {
		Type    string            `json:"type"`
		Payload models.SpinRecord `json:"payload"`
	}
	if err := conn.ReadJSON(&spin); err != nil {
		t.Fatalf("read spin message: %v", err)
	}
	if spin.Type != "spin" || spin.Payload.PrizeWon != "Free Coffee" {
		t.Errorf("unexpected spin message: %+v", spin)
	}
	if spin.Payload.TenantID != session.Tenant.ID {
		t.Errorf("expected tenant %d, got %d", session.Tenant.ID, spin.Payload.TenantID)
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	a := newTestApp(t, testConfig())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRun_FailsWhenPortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()

	cfg := testConfig()
	cfg.Server.Port = ln.Addr().(*net.TCPAddr).Port
	a := newTestApp(t, cfg)

	if err := a.Run(context.Background()); err == nil {
		t.Error("expected error when port is in use")
	}
}

func TestClose_IsSafeToCallTwice(t *testing.T) {
	a, err := New(logger.New(), testConfig())
	if err != nil {
		t.Fatal(err)
	}
	a.Close()
	a.Close()
}
