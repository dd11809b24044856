package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

type ipv4Server struct {
	URL string
	srv *http.Server
	ln  net.Listener
}

func newIPv4Server(t *testing.T, handler http.Handler) *ipv4Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := &http.Server{Handler: handler}
	s := &ipv4Server{URL: "http://" + ln.Addr().String(), srv: srv, ln: ln}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("test server serve: %v", err))
		}
	}()
	return s
}

func (s *ipv4Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

func chatRequest() GenerateRequest {
	return GenerateRequest{Model: "test-model", Messages: []Message{{Role: "user", Content: "hi"}}, MaxTokens: 1}
}

func TestGenerateSuccessSendsJSONMode(t *testing.T) {
	var got GenerateRequest
	var auth string
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("X-Request-Id", "req_ok")
		_ = json.NewEncoder(w).Encode(GenerateResponse{Choices: []Choice{{Message: Message{Role: "assistant", Content: "ok"}}}})
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("secret", 2*time.Second, srv.URL)
	req := chatRequest()
	req.ResponseFormat = JSONObject
	resp, err := c.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if resp.Content() != "ok" || resp.RequestID != "req_ok" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if auth != "Bearer secret" {
		t.Fatalf("unexpected auth header %q", auth)
	}
	if got.ResponseFormat == nil || got.ResponseFormat.Type != "json_object" {
		t.Fatalf("expected json_object response format, got %+v", got.ResponseFormat)
	}
}

func TestGenerateIsSingleAttempt(t *testing.T) {
	var calls int32
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "overloaded"}})
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test", 2*time.Second, srv.URL)
	_, err := c.Generate(context.Background(), chatRequest())
	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("expected ServerError, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected exactly one request, got %d", n)
	}
}

func TestGenerateClassifiesErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		header http.Header
		body   map[string]any
		check  func(error) bool
	}{
		{"auth", http.StatusUnauthorized, nil, map[string]any{"error": map[string]any{"message": "no key"}},
			func(err error) bool { var e *AuthError; return errors.As(err, &e) }},
		{"rate", http.StatusTooManyRequests, http.Header{"Retry-After": {"7"}}, map[string]any{"error": map[string]any{"message": "slow down"}},
			func(err error) bool { var e *RateLimitError; return errors.As(err, &e) && e.RetryAfter == 7*time.Second }},
		{"model", http.StatusNotFound, nil, map[string]any{"error": map[string]any{"message": "x", "code": "model_not_found"}},
			func(err error) bool { var e *ModelNotFoundError; return errors.As(err, &e) }},
		{"bad request", http.StatusBadRequest, nil, map[string]any{"message": "bad"},
			func(err error) bool { var e *BadRequestError; return errors.As(err, &e) }},
		{"quota", http.StatusPaymentRequired, nil, map[string]any{"error": map[string]any{"message": "Insufficient quota"}},
			func(err error) bool { var e *QuotaExceededError; return errors.As(err, &e) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, vals := range tc.header {
					for _, v := range vals {
						w.Header().Add(k, v)
					}
				}
				w.WriteHeader(tc.status)
				_ = json.NewEncoder(w).Encode(tc.body)
			}))
			defer srv.Close()
			c := NewClientWithBaseURL("test", 2*time.Second, srv.URL)
			_, err := c.Generate(context.Background(), chatRequest())
			if err == nil || !tc.check(err) {
				t.Fatalf("unexpected error classification: %v", err)
			}
		})
	}
}

func TestErrorIncludesRequestID(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", "req_test_123")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "bad req", "code": "bad_request"}})
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test", 2*time.Second, srv.URL)
	_, err := c.Generate(context.Background(), chatRequest())
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "req_test_123") {
		t.Fatalf("expected request id in error, got: %v", err)
	}
}

func TestGenerateRequiresKeyAndModel(t *testing.T) {
	if _, err := NewClient("", time.Second).Generate(context.Background(), chatRequest()); err == nil {
		t.Fatalf("expected missing key error")
	}
	req := chatRequest()
	req.Model = ""
	if _, err := NewClient("k", time.Second).Generate(context.Background(), req); err == nil {
		t.Fatalf("expected empty model error")
	}
}

func TestGenerateHonorsContextDeadline(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("test", 5*time.Second, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Generate(ctx, chatRequest())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestRegistryBuildsProviders(t *testing.T) {
	for _, name := range []string{ProviderOpenRouter, ProviderOllama} {
		if rt, ok := GetRuntime(name, RuntimeConfig{APIKey: "k"}); !ok || rt == nil {
			t.Fatalf("provider %s not registered", name)
		}
	}
	if _, ok := GetRuntime(ProviderNone, RuntimeConfig{}); ok {
		t.Fatalf("provider none must not resolve to a runtime")
	}
	if got := Providers(); len(got) != 2 || got[0] != ProviderOllama {
		t.Fatalf("unexpected providers: %v", got)
	}
}

func TestHint(t *testing.T) {
	if Hint(&AuthError{APIError: &APIError{StatusCode: 401}}) == "" {
		t.Fatalf("expected hint for auth error")
	}
	if Hint(fmt.Errorf("wrapped: %w", &UnreachableError{Host: "h", Err: errors.New("refused")})) == "" {
		t.Fatalf("expected hint for wrapped unreachable error")
	}
	if Hint(errors.New("other")) != "" {
		t.Fatalf("expected no hint for untyped error")
	}
}
