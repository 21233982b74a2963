package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hakalabs/hakabot/internal/config"
	"github.com/hakalabs/hakabot/internal/domain"
)

func testClient(baseURL string, timeout time.Duration) *Client {
	cfg := &config.Config{
		Upstream: config.UpstreamConfig{BaseURL: baseURL, Timeout: timeout},
		Errors: config.ErrorsConfig{
			Contact:       "contact support",
			Unreachable:   "unreachable body",
			UpstreamFault: "fault body",
			BadRequest:    "bad request body",
			Timeout:       "timeout body",
			Transport:     "transport body",
			System:        "system body",
		},
	}
	return NewClient(cfg, zap.NewNop())
}

func upstreamKind(t *testing.T, err error) domain.FailureKind {
	t.Helper()
	var ue *domain.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected *domain.UpstreamError, got %T: %v", err, err)
	}
	return ue.Kind
}

func TestRelayPassesThroughSuccess(t *testing.T) {
	const answer = `{"session_id":"s1","text":["hello"]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected Content-Type application/json, got %q", ct)
		}
		if accept := r.Header.Get("Accept"); accept != "application/json" {
			t.Errorf("expected Accept application/json, got %q", accept)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(answer))
	}))
	defer srv.Close()

	c := testClient(srv.URL, time.Second)
	data, err := c.Relay(context.Background(), []byte(`{"question":"hi"}`))
	if err != nil {
		t.Fatalf("Relay returned error: %v", err)
	}
	if string(data) != answer {
		t.Fatalf("expected upstream body returned unchanged, got %q", string(data))
	}
}

func TestRelayBadJSONIsSystemFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html>not json at all`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, time.Second)
	_, err := c.Relay(context.Background(), []byte(`{"question":"hi"}`))
	if err == nil {
		t.Fatal("expected error for non-JSON success body")
	}
	if kind := upstreamKind(t, err); kind != domain.KindSystem {
		t.Fatalf("expected kind %q, got %q", domain.KindSystem, kind)
	}
	if got := domain.KindSystem.Status(); got != http.StatusInternalServerError {
		t.Fatalf("expected client status 500, got %d", got)
	}
}

func TestRelayClassifiesStatuses(t *testing.T) {
	tests := []struct {
		upstreamStatus int
		wantKind       domain.FailureKind
		wantStatus     int
	}{
		{http.StatusNotFound, domain.KindUnreachable, http.StatusServiceUnavailable},
		{http.StatusInternalServerError, domain.KindUpstreamFault, http.StatusServiceUnavailable},
		{http.StatusBadGateway, domain.KindUpstreamFault, http.StatusServiceUnavailable},
		{http.StatusTooManyRequests, domain.KindBadRequest, http.StatusBadRequest},
		{http.StatusUnprocessableEntity, domain.KindBadRequest, http.StatusBadRequest},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.upstreamStatus)
		}))

		c := testClient(srv.URL, time.Second)
		_, err := c.Relay(context.Background(), []byte(`{}`))
		srv.Close()

		if err == nil {
			t.Fatalf("upstream %d: expected error", tt.upstreamStatus)
		}
		kind := upstreamKind(t, err)
		if kind != tt.wantKind {
			t.Errorf("upstream %d: expected kind %q, got %q", tt.upstreamStatus, tt.wantKind, kind)
		}
		if got := kind.Status(); got != tt.wantStatus {
			t.Errorf("upstream %d: expected client status %d, got %d", tt.upstreamStatus, tt.wantStatus, got)
		}
	}
}

func TestRelayTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 50*time.Millisecond)
	_, err := c.Relay(context.Background(), []byte(`{}`))
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if kind := upstreamKind(t, err); kind != domain.KindTimeout {
		t.Fatalf("expected kind %q, got %q", domain.KindTimeout, kind)
	}
	if got := domain.KindTimeout.Status(); got != http.StatusGatewayTimeout {
		t.Fatalf("expected client status 504, got %d", got)
	}
}

func TestRelayTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // nothing listening anymore

	c := testClient(url, time.Second)
	_, err := c.Relay(context.Background(), []byte(`{}`))
	if err == nil {
		t.Fatal("expected transport error")
	}
	if kind := upstreamKind(t, err); kind != domain.KindTransport {
		t.Fatalf("expected kind %q, got %q", domain.KindTransport, kind)
	}
}

func TestChatDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"session_id":"tok-2","text":["a","b"],"is_unknown":false}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, time.Second)
	resp, err := c.Chat(context.Background(), &domain.ChatRequest{SessionID: "tok-1", Question: "hi"})
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if resp.SessionID != "tok-2" {
		t.Errorf("expected session token tok-2, got %q", resp.SessionID)
	}
	if len(resp.Text) != 2 {
		t.Errorf("expected 2 sentences, got %d", len(resp.Text))
	}
}

func TestChatBadJSONIsSystemFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	c := testClient(srv.URL, time.Second)
	_, err := c.Chat(context.Background(), &domain.ChatRequest{Question: "hi"})
	if err == nil {
		t.Fatal("expected decode error")
	}
	if kind := upstreamKind(t, err); kind != domain.KindSystem {
		t.Fatalf("expected kind %q, got %q", domain.KindSystem, kind)
	}
}

func TestPayloadUsesConfiguredText(t *testing.T) {
	c := testClient("http://localhost:0", time.Second)

	payload := c.Payload(domain.KindTimeout)
	if payload.Error != "response timeout" {
		t.Errorf("expected error title %q, got %q", "response timeout", payload.Error)
	}
	if payload.Message != "timeout body" {
		t.Errorf("expected configured body, got %q", payload.Message)
	}
	if payload.Contact != "contact support" {
		t.Errorf("expected configured contact, got %q", payload.Contact)
	}
}
