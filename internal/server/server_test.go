package server

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"cvtailor/internal/ai"
	"cvtailor/internal/config"
	"cvtailor/internal/errors"
	"cvtailor/internal/pipeline"
	"cvtailor/internal/summary"
	"cvtailor/internal/tailoring"
	"cvtailor/internal/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	configured bool
	text       string
	err        error
	calls      atomic.Int32
}

func (s *stubProvider) Generate(ctx context.Context, prompt ai.Prompt) (*ai.Completion, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return &ai.Completion{Text: s.text, Model: "stub-model"}, nil
}

func (s *stubProvider) IsConfigured() bool { return s.configured }
func (s *stubProvider) Name() string       { return "stub" }
func (s *stubProvider) Model() string      { return "stub-model" }
func (s *stubProvider) Close() error       { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: "0"},
		App:    config.AppConfig{MaxFileSize: 64 * 1024},
	}
}

func newTestServer(t *testing.T, cfg *config.Config, provider ai.Provider, opts summary.Options) *Server {
	t.Helper()
	logger := errors.NewNopLogger()
	gen := summary.NewGenerator(provider, opts)
	p := pipeline.New(tailoring.New(tailoring.DefaultParams()), gen, nil, logger)
	s := New(cfg, Options{Version: "test", Pipeline: p, Logger: logger})
	t.Cleanup(func() {
		if s.RateLimiter != nil {
			s.RateLimiter.Close()
		}
	})
	return s
}

func doRequest(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

const manualProfile = `{
	"fullName": "Jane Doe",
	"documentType": "Resume",
	"targetJobTitle": "Data Analyst",
	"jobDescription": "Required: SQL, Python, data visualization, Tableau. Responsibilities: build dashboards.",
	"skills": ["SQL", "Leadership", "Python", "Cooking"],
	"certifications": ["SQL Certification"],
	"hobbies": ["Chess"],
	"autoGenerateSummary": false,
	"professionalSummary": "Analyst."
}`

func TestGenerateEndpoint(t *testing.T) {
	provider := &stubProvider{configured: true, text: "unused"}
	s := newTestServer(t, testConfig(), provider, summary.Options{UseAI: true, FallbackEnabled: true})

	rec := doRequest(t, s.Handler(), http.MethodPost, "/v1/generate", manualProfile, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var content types.GeneratedContent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &content))
	assert.Equal(t, "Analyst.", content.Summary)
	assert.Equal(t, types.SourceManual, content.SummaryResult.Source)
	assert.Equal(t, []string{"SQL Certification"}, content.Certifications)
	assert.Empty(t, content.Hobbies)
	assert.Equal(t, "Jane_Doe_Resume.pdf", content.FileName)
	assert.Zero(t, provider.calls.Load())
}

func TestGenerateEndpointRendersMarkdown(t *testing.T) {
	s := newTestServer(t, testConfig(), nil, summary.Options{FallbackEnabled: true})

	rec := doRequest(t, s.Handler(), http.MethodPost, "/v1/generate?format=markdown", manualProfile, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "Jane_Doe_Resume.md")
	assert.Contains(t, rec.Body.String(), "## Professional Summary\n\nAnalyst.")

	rec = doRequest(t, s.Handler(), http.MethodPost, "/v1/generate?format=yaml", manualProfile, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.ErrCodeInvalidFormat, decodeError(t, rec).Code)
}

func TestRequestValidation(t *testing.T) {
	cfg := testConfig()
	cfg.App.MaxFileSize = 256
	s := newTestServer(t, cfg, nil, summary.Options{FallbackEnabled: true})

	tests := []struct {
		name        string
		body        string
		contentType string
		wantStatus  int
		wantCode    string
	}{
		{name: "unknown document type", body: `{"documentType": "Letter"}`, wantStatus: http.StatusBadRequest, wantCode: errors.ErrCodeInvalidProfile},
		{name: "malformed JSON", body: `{"documentType":`, wantStatus: http.StatusBadRequest, wantCode: errors.ErrCodeInvalidProfile},
		{name: "wrong content type", body: `{}`, contentType: "text/plain", wantStatus: http.StatusBadRequest, wantCode: errors.ErrCodeInvalidRequest},
		{name: "body too large", body: `{"documentType": "CV", "fullName": "` + strings.Repeat("x", 300) + `"}`, wantStatus: http.StatusRequestEntityTooLarge, wantCode: errCodeRequestTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.contentType != "" {
				headers["Content-Type"] = tt.contentType
			}
			rec := doRequest(t, s.Handler(), http.MethodPost, "/v1/summary", tt.body, headers)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestSummaryEndpoint(t *testing.T) {
	t.Run("ai summary", func(t *testing.T) {
		s := newTestServer(t, testConfig(), &stubProvider{configured: true, text: "Seasoned analyst."}, summary.Options{UseAI: true, FallbackEnabled: true})

		rec := doRequest(t, s.Handler(), http.MethodPost, "/v1/summary", `{"documentType": "CV", "fullName": "Ada Lovelace"}`, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var result types.SummaryResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, "Seasoned analyst.", result.Summary)
		assert.Equal(t, types.SourceAI, result.Source)
	})

	t.Run("timeout without fallback", func(t *testing.T) {
		failure := errors.NewNetworkError(errors.ErrCodeAITimeout, "request timeout - please try again", nil)
		s := newTestServer(t, testConfig(), &stubProvider{configured: true, err: failure}, summary.Options{UseAI: true})

		rec := doRequest(t, s.Handler(), http.MethodPost, "/v1/summary", `{"documentType": "CV"}`, nil)
		assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, errors.ErrCodeAITimeout, resp.Code)
		assert.Equal(t, "request timeout - please try again", resp.Message)
	})
}

func TestSummaryStreamEndpoint(t *testing.T) {
	s := newTestServer(t, testConfig(), &stubProvider{configured: true, text: "Streamed summary."}, summary.Options{UseAI: true, FallbackEnabled: true})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/summary/stream", "application/json", strings.NewReader(`{"documentType": "Resume", "fullName": "Jane Doe"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var events []string
	var lastData string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if name, ok := strings.CutPrefix(line, "event: "); ok {
			events = append(events, name)
		}
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			lastData = data
		}
	}
	require.NoError(t, scanner.Err())

	assert.Equal(t, []string{"progress", "progress", "progress", "result"}, events)
	var result types.SummaryResult
	require.NoError(t, json.Unmarshal([]byte(lastData), &result))
	assert.Equal(t, "Streamed summary.", result.Summary)
}

func TestKeywordsEndpoint(t *testing.T) {
	s := newTestServer(t, testConfig(), nil, summary.Options{})

	body, err := json.Marshal(KeywordsRequest{JobDescription: "<div class='job-description'><p>Required: SQL and Python</p></div>"})
	require.NoError(t, err)
	rec := doRequest(t, s.Handler(), http.MethodPost, "/v1/keywords", string(body), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report types.KeywordReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Contains(t, report.Keywords, "sql")
	assert.Contains(t, report.Keywords, "python")

	rec = doRequest(t, s.Handler(), http.MethodPost, "/v1/keywords", `{"jobDescription": "   "}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthMiddleware(t *testing.T) {
	cfg := testConfig()
	cfg.Server.APIKeys = []string{"secret-key-123"}
	s := newTestServer(t, cfg, nil, summary.Options{})
	body := `{"jobDescription": "Required: Go"}`

	rec := doRequest(t, s.Handler(), http.MethodPost, "/v1/keywords", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Missing API key", decodeError(t, rec).Error)

	rec = doRequest(t, s.Handler(), http.MethodPost, "/v1/keywords", body, map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, s.Handler(), http.MethodPost, "/v1/keywords", body, map[string]string{"Authorization": "Bearer secret-key-123"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s.Handler(), http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstCapacity: 1, ByIP: true}
	s := newTestServer(t, cfg, nil, summary.Options{})
	body := `{"jobDescription": "Required: Go"}`

	rec := doRequest(t, s.Handler(), http.MethodPost, "/v1/keywords", body, map[string]string{"X-Forwarded-For": "203.0.113.7"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s.Handler(), http.MethodPost, "/v1/keywords", body, map[string]string{"X-Forwarded-For": "203.0.113.7"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))

	rec = doRequest(t, s.Handler(), http.MethodPost, "/v1/keywords", body, map[string]string{"X-Forwarded-For": "198.51.100.1"})
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 2, s.RateLimiter.GetStats()["active_limiters"])
}

func TestRateLimitUnknownKeysShareTheIPBucket(t *testing.T) {
	cfg := testConfig()
	cfg.Server.APIKeys = []string{"good-key"}
	cfg.Server.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstCapacity: 1, ByAPIKey: true}
	s := newTestServer(t, cfg, nil, summary.Options{})
	body := `{"jobDescription": "Required: Go"}`
	client := "203.0.113.9"

	rec := doRequest(t, s.Handler(), http.MethodPost, "/v1/keywords", body,
		map[string]string{"X-Forwarded-For": client, "X-API-Key": "made-up-1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, s.Handler(), http.MethodPost, "/v1/keywords", body,
		map[string]string{"X-Forwarded-For": client, "X-API-Key": "made-up-2"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = doRequest(t, s.Handler(), http.MethodPost, "/v1/keywords", body,
		map[string]string{"X-Forwarded-For": client, "X-API-Key": "good-key"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, s.Handler(), http.MethodPost, "/v1/keywords", body,
		map[string]string{"X-Forwarded-For": "198.51.100.4", "Authorization": "Bearer good-key"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	assert.Equal(t, 2, s.RateLimiter.GetStats()["active_limiters"])
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(60, 1, errors.NewNopLogger())
	defer rl.Close()

	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	assert.True(t, rl.Allow("ip:1"))

	now = now.Add(11 * time.Minute)
	assert.True(t, rl.Allow("ip:2"))
	rl.evictIdle(10 * time.Minute)

	assert.Equal(t, 1, rl.GetStats()["active_limiters"])
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, testConfig(), nil, summary.Options{})

	rec := doRequest(t, s.Handler(), http.MethodGet, "/health", "", nil)
	_, err := uuid.Parse(rec.Header().Get(requestIDHeader))
	assert.NoError(t, err)

	id := uuid.NewString()
	rec = doRequest(t, s.Handler(), http.MethodGet, "/stats", "", map[string]string{requestIDHeader: id})
	assert.Equal(t, id, rec.Header().Get(requestIDHeader))

	rec = doRequest(t, s.Handler(), http.MethodGet, "/stats", "", map[string]string{requestIDHeader: "not-a-uuid"})
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(requestIDHeader))
}

func TestHealthAndStats(t *testing.T) {
	s := newTestServer(t, testConfig(), &stubProvider{}, summary.Options{UseAI: true, FallbackEnabled: true})

	rec := doRequest(t, s.Handler(), http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "template", health["summary_source"])

	rec = doRequest(t, s.Handler(), http.MethodPost, "/health", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = doRequest(t, s.Handler(), http.MethodGet, "/stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, map[string]any{"enabled": false}, stats["rate_limiting"])
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{errors.NewValidationError(errors.ErrCodeInvalidProfile, "bad", nil), http.StatusBadRequest},
		{errors.NewConfigError(errors.ErrCodeAINotConfigured, "no key", nil), http.StatusServiceUnavailable},
		{errors.NewNetworkError(errors.ErrCodeAITimeout, "timeout", nil), http.StatusGatewayTimeout},
		{errors.NewProtocolError(errors.ErrCodeAIBadStatus, "API Error: 500 - boom", nil), http.StatusBadGateway},
		{errors.NewAIError(errors.ErrCodeAICircuitOpen, "open", nil), http.StatusServiceUnavailable},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.status, statusFor(tt.err))
		})
	}
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, testConfig(), nil, summary.Options{})
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	httpServer := &http.Server{Handler: s.Handler()}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.serve(ctx, httpServer, listener) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + listener.Addr().String() + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
