// API client for a running nowplaying instance
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/nowplaying/internal/models"
	"github.com/desertthunder/nowplaying/internal/shared"
)

// Paths served by the service.
const (
	NowPlayingPath = "/nowplaying/song"
	HealthPath     = "/healthz"

	DefaultBaseURL = "http://127.0.0.1:8000"
)

// APIService provides methods for querying a running service over HTTP.
type APIService struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates a new API client for the service at baseURL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    baseURL,
		httpClient: client,
	}
}

// BaseURL returns the service address this client talks to.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string) (*APIResponse, error) {
	fullURL := a.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// NowPlaying fetches the current status text.
func (a *APIService) NowPlaying(ctx context.Context) (string, error) {
	resp, err := a.getOK(ctx, NowPlayingPath)
	if err != nil {
		return "", err
	}

	status, ok := resp.JSONData.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected a JSON string, got %s", shared.ErrAPIRequest, string(resp.Body))
	}
	return status, nil
}

// Health fetches the service health report.
func (a *APIService) Health(ctx context.Context) (*models.HealthReport, error) {
	resp, err := a.getOK(ctx, HealthPath)
	if err != nil {
		return nil, err
	}

	var report models.HealthReport
	if err := json.Unmarshal(resp.Body, &report); err != nil {
		return nil, fmt.Errorf("%w: failed to decode health report: %v", shared.ErrAPIRequest, err)
	}
	return &report, nil
}

func (a *APIService) getOK(ctx context.Context, path string) (*APIResponse, error) {
	resp, err := a.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s returned status %d", shared.ErrAPIRequest, path, resp.StatusCode)
	}
	if !resp.IsJSON {
		return nil, fmt.Errorf("%w: %s returned non-JSON body", shared.ErrAPIRequest, path)
	}
	return resp, nil
}
