package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"residency/internal/onboarding/events"
	"residency/internal/onboarding/handler"
	onboardingmetrics "residency/internal/onboarding/metrics"
	"residency/internal/onboarding/models"
	"residency/internal/onboarding/providers/mock"
	"residency/internal/onboarding/resume"
	"residency/internal/onboarding/service"
	"residency/internal/onboarding/store"
	"residency/internal/onboarding/verification"
	"residency/internal/onboarding/workflow"
	"residency/pkg/platform/middleware/request"
)

// takenNames are registered with the in-process mock registry. Point BASE_URL
// at a server started with MOCK_PROVIDER_TAKEN_NAMES=Acme for the same behavior.
var takenNames = []string{"Acme"}

// TestContext holds state between test steps
type TestContext struct {
	BaseURL          string
	HTTPClient       *http.Client
	LastResponse     *http.Response
	LastResponseBody []byte
	SessionID        string
	ResumeToken      string

	server *httptest.Server
}

// NewTestContext targets BASE_URL when set and otherwise starts an in-process server.
func NewTestContext() *TestContext {
	tc := &TestContext{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
	if baseURL := os.Getenv("BASE_URL"); baseURL != "" {
		tc.BaseURL = strings.TrimRight(baseURL, "/")
		return tc
	}
	tc.server = httptest.NewServer(newInProcessRouter())
	tc.BaseURL = tc.server.URL
	return tc
}

// Close stops the in-process server, if any.
func (tc *TestContext) Close() {
	if tc.server != nil {
		tc.server.Close()
	}
}

func newInProcessRouter() http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := onboardingmetrics.NewWith(prometheus.NewRegistry())
	provider := mock.New(mock.Config{Seed: 42, Taken: takenNames})

	catalog := models.NewCatalog([]models.Plan{
		{ID: "starter", Name: "Starter", MonthlyPrice: decimal.RequireFromString("29"), Currency: "EUR", MinKYCLevel: models.KYCEnhanced},
		{ID: "premium", Name: "Premium", MonthlyPrice: decimal.RequireFromString("199"), Currency: "EUR", MinKYCLevel: models.KYCPremium},
	})
	engine := workflow.New(workflow.Config{
		Requirements: map[models.KYCLevel][]models.DocumentKind{
			models.KYCEnhanced: {models.DocumentPhotoID, models.DocumentSelfie},
			models.KYCPremium:  {models.DocumentPhotoID, models.DocumentSelfie, models.DocumentProofOfAddress},
		},
		Catalog: catalog,
	})
	client := verification.New(provider, provider, provider,
		verification.WithLogger(logger),
		verification.WithMetrics(metrics),
	)
	svc := service.New(store.NewInMemory(), engine, client, catalog, service.Config{},
		service.WithLogger(logger),
		service.WithMetrics(metrics),
		service.WithPublisher(events.NewLogPublisher(logger)),
	)

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.ClientIP)
	r.Use(request.ContentTypeJSON)
	handler.New(svc, resume.New("e2e-signing-key", time.Hour), logger).Register(r)
	return r
}

// POST makes a POST request and stores the response
func (tc *TestContext) POST(path string, body interface{}) error {
	return tc.POSTWithHeaders(path, body, nil)
}

// POSTWithHeaders makes a POST request with optional headers
func (tc *TestContext) POSTWithHeaders(path string, body interface{}, headers map[string]string) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	return tc.do(http.MethodPost, path, bytes.NewReader(data), headers)
}

// GET makes a GET request and stores the response
func (tc *TestContext) GET(path string, headers map[string]string) error {
	return tc.do(http.MethodGet, path, nil, headers)
}

func (tc *TestContext) do(method, path string, body io.Reader, headers map[string]string) error {
	req, err := http.NewRequestWithContext(context.Background(), method, tc.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}

	tc.LastResponse = resp
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	return nil
}

// sessionPath addresses the current applicant's session.
func (tc *TestContext) sessionPath(suffix string) string {
	return "/v1/applicants/" + tc.SessionID + suffix
}

func (tc *TestContext) authHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + tc.ResumeToken}
}

// GetResponseField extracts a top-level field from the JSON response
func (tc *TestContext) GetResponseField(field string) (interface{}, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(tc.LastResponseBody, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	value, ok := data[field]
	if !ok {
		return nil, fmt.Errorf("field %s not found in response", field)
	}
	return value, nil
}

// ResponseContains checks if the response body contains a field or text
func (tc *TestContext) ResponseContains(text string) bool {
	if strings.Contains(string(tc.LastResponseBody), text) {
		return true
	}

	var data map[string]interface{}
	if err := json.Unmarshal(tc.LastResponseBody, &data); err == nil {
		if _, ok := data[text]; ok {
			return true
		}
	}
	return false
}

func (tc *TestContext) GetLastResponseStatus() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}
