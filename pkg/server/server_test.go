package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/domsync/internal/errors"
	"github.com/vango-dev/domsync/pkg/telemetry"
)

const mountTx = `{
	"patches": {"0": [{"Mount": {"Data": {"kind": "div", "props": {"class": "app"}, "children": [{"Text": "hi"}], "key": null}}}]},
	"events": {"0": {"click": true}}
}`

const mountedHTML = `<div class="app"><span>hi</span></div>`

func newTestServer(t *testing.T, config *ServerConfig, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	srv := New(config, opts...)
	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return srv, ts
}

func post(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func TestTransactionsAndSnapshot(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, body := post(t, ts.URL+"/transactions", mountTx)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	var result applyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatal(err)
	}
	if result.Applied != 1 || result.Seq != 1 {
		t.Errorf("result = %+v", result)
	}

	resp, body = get(t, ts.URL+"/snapshot?minify=false")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("snapshot status = %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Errorf("content type = %s", resp.Header.Get("Content-Type"))
	}
	if string(body) != mountedHTML {
		t.Errorf("snapshot = %s, want %s", body, mountedHTML)
	}

	resp, _ = get(t, ts.URL+"/snapshot?minify=maybe")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad minify status = %d", resp.StatusCode)
	}
}

func TestTransactionsArrayAppliesInOrder(t *testing.T) {
	_, ts := newTestServer(t, nil)

	props := `{"patches": {"0": [{"Props": [{"class": "app"}, {"class": "b"}]}]}}`
	resp, body := post(t, ts.URL+"/transactions", "["+mountTx+","+props+"]")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	var result applyResponse
	json.Unmarshal(body, &result)
	if result.Applied != 2 || result.Seq != 2 {
		t.Errorf("result = %+v", result)
	}

	_, body = get(t, ts.URL+"/snapshot")
	if !strings.Contains(string(body), `class="b"`) {
		t.Errorf("snapshot = %s", body)
	}
}

func TestTransactionsRejectBadInput(t *testing.T) {
	_, ts := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"not json", `{"patches":`, `"code":"DS301"`},
		{"empty", ``, `"code":"DS501"`},
		{"unknown patch kind", `{"patches": {"0": [{"Move": {}}]}}`, `"category":"protocol"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := post(t, ts.URL+"/transactions", tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (%s)", resp.StatusCode, body)
			}
			if !strings.Contains(string(body), tt.want) {
				t.Errorf("body = %s, want %s", body, tt.want)
			}
		})
	}
}

func TestFailedTransactionMarksTargetStale(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, body := post(t, ts.URL+"/transactions", `{"patches": {"9": [{"Props": [{}, {"title": "x"}]}]}}`)
	if resp.StatusCode != http.StatusUnprocessableEntity || !strings.Contains(string(body), "DS101") {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}

	resp, body = post(t, ts.URL+"/transactions", mountTx)
	if resp.StatusCode != http.StatusConflict || !strings.Contains(string(body), "DS106") {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}

	_, body = get(t, ts.URL+"/healthz")
	var health healthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "stale" || health.Target.Stale == "" {
		t.Errorf("health = %+v", health)
	}

	resp, _ = post(t, ts.URL+"/reset", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("reset status = %d", resp.StatusCode)
	}

	resp, body = post(t, ts.URL+"/transactions", mountTx)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("after reset status = %d, body = %s", resp.StatusCode, body)
	}
	_, body = get(t, ts.URL+"/healthz")
	json.Unmarshal(body, &health)
	if health.Status != "ok" || health.Target.Seq != 1 || health.Target.Registered != 2 {
		t.Errorf("health after reset = %+v", health)
	}
}

func TestDispatch(t *testing.T) {
	_, ts := newTestServer(t, nil)
	post(t, ts.URL+"/transactions", mountTx)

	tests := []struct {
		name   string
		body   string
		status int
		want   string
	}{
		{"delivered", `{"id": "0.0", "event": "onclick"}`, http.StatusOK, `"delivered":true`},
		{"no listener", `{"id": "0", "event": "keydown"}`, http.StatusOK, `"delivered":false`},
		{"unknown id", `{"id": "7", "event": "click"}`, http.StatusNotFound, "DS101"},
		{"missing event", `{"id": "0"}`, http.StatusBadRequest, "DS301"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := post(t, ts.URL+"/dispatch", tt.body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d (%s)", resp.StatusCode, tt.status, body)
			}
			if !strings.Contains(string(body), tt.want) {
				t.Errorf("body = %s, want %s", body, tt.want)
			}
		})
	}
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestWebSocketAcksAndEvents(t *testing.T) {
	srv, ts := newTestServer(t, nil)
	conn := dial(t, ts)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(mountTx)); err != nil {
		t.Fatal(err)
	}
	var a ack
	if err := conn.ReadJSON(&a); err != nil {
		t.Fatal(err)
	}
	if a.Seq != 1 || !a.OK {
		t.Fatalf("ack = %+v", a)
	}

	conn.WriteMessage(websocket.TextMessage, []byte("not json"))
	if err := conn.ReadJSON(&a); err != nil {
		t.Fatal(err)
	}
	if a.Seq != 2 || a.OK || a.Code != "DS301" {
		t.Errorf("bad frame ack = %+v", a)
	}

	if srv.Hub().Len() != 1 {
		t.Errorf("hub clients = %d, want 1", srv.Hub().Len())
	}

	resp, body := post(t, ts.URL+"/dispatch", `{"id": "0", "event": "click", "fields": {"clientX": 3, "shiftKey": true}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dispatch status = %d, body = %s", resp.StatusCode, body)
	}

	var msg eventMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Event.ID != "0" || msg.Event.Name != "click" {
		t.Errorf("event = %+v", msg.Event)
	}
	if msg.Event.Data["clientX"] != 3.0 || msg.Event.Data["shiftKey"] != true {
		t.Errorf("event data = %v", msg.Event.Data)
	}
}

func TestMetricsRoute(t *testing.T) {
	_, ts := newTestServer(t, nil, WithMetrics(telemetry.NewMetrics(telemetry.WithNamespace("test"))))
	post(t, ts.URL+"/transactions", mountTx)

	resp, body := get(t, ts.URL+"/metrics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	for _, name := range []string{"test_transactions_total", "test_patches_total", "test_native_listeners"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("metrics output missing %s", name)
		}
	}

	_, ts = newTestServer(t, nil)
	resp, _ = get(t, ts.URL+"/metrics")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("metrics without WithMetrics status = %d, want 404", resp.StatusCode)
	}
}

type memStore struct {
	name string
	body []byte
}

func (m *memStore) Put(_ context.Context, name string, body []byte) (string, error) {
	m.name, m.body = name, body
	return "mem://" + name, nil
}

func TestStoreSnapshot(t *testing.T) {
	store := &memStore{}
	_, ts := newTestServer(t, &ServerConfig{Store: store})
	post(t, ts.URL+"/transactions", mountTx)

	resp, body := post(t, ts.URL+"/snapshot", "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, body)
	}
	if !strings.HasPrefix(store.name, "snapshot-") || string(store.body) != mountedHTML {
		t.Errorf("stored %s = %s", store.name, store.body)
	}
	if !strings.Contains(string(body), "mem://snapshot-") {
		t.Errorf("body = %s", body)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"stale", errors.New("DS106"), http.StatusConflict},
		{"unknown id outside patch", errors.New("DS101").WithID("3"), http.StatusNotFound},
		{"unknown id in patch", errors.New("DS101").WithPatch("Props"), http.StatusUnprocessableEntity},
		{"protocol", errors.New("DS301"), http.StatusBadRequest},
		{"native", errors.New("DS203"), http.StatusUnprocessableEntity},
		{"upload", errors.New("DS502"), http.StatusBadGateway},
		{"canceled", context.Canceled, http.StatusServiceUnavailable},
		{"plain", io.EOF, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAllowOrigins(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"no origin", nil, "", true},
		{"same origin", nil, "http://example.com", true},
		{"cross origin", nil, "http://evil.com", false},
		{"listed", []string{"http://app.com"}, "http://app.com", true},
		{"unlisted", []string{"http://app.com"}, "http://evil.com", false},
		{"wildcard", []string{"*"}, "http://evil.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "http://example.com/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := AllowOrigins(tt.allowed)(r); got != tt.want {
				t.Errorf("check = %v, want %v", got, tt.want)
			}
		})
	}
}
