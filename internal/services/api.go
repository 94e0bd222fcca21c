// HTTP client facade for the HitNote REST backend
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"golang.org/x/oauth2"

	"github.com/desertthunder/hitnote/internal/shared"
)

const DefaultBaseURL string = "http://127.0.0.1:8000"

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader string = "X-Request-ID"

// APIService performs JSON requests against the backend.
//
// [APIService.Do] is the typed entry point used by [HitnoteService]. [APIService.Get] and [APIService.Post] return raw
// responses for debugging.
type APIService struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIService creates a new API service instance for the given backend.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// BaseURL returns the backend root all paths are resolved against.
func (a *APIService) BaseURL() string { return a.baseURL }

// Request describes one backend call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Token  string // Bearer token; omitted when empty
	Body   any    // JSON-encoded when non-nil
}

func (r Request) String() string {
	return r.Method + " " + r.Path
}

// Do performs the request and decodes a 2xx body into out.
//
// A nil out discards the body. Non-2xx responses return [*HTTPError] and requests that never received a response
// return [*TransportError]. Nothing is retried.
func (a *APIService) Do(ctx context.Context, r Request, out any) error {
	req, err := a.newRequest(ctx, r)
	if err != nil {
		return err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: r.String(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: r.String(), Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newHTTPError(resp.StatusCode, body)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", r, err)
	}
	return nil
}

func (a *APIService) newRequest(ctx context.Context, r Request) (*http.Request, error) {
	fullURL := a.baseURL + r.Path
	if len(r.Query) > 0 {
		fullURL += "?" + r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, shared.GenerateID())

	if r.Token != "" {
		tok := &oauth2.Token{AccessToken: r.Token, TokenType: "Bearer"}
		tok.SetAuthHeader(req)
	}
	return req, nil
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
func (a *APIService) Get(ctx context.Context, path, token string) (*APIResponse, error) {
	return a.raw(ctx, http.MethodGet, path, token, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path, token string, data []byte) (*APIResponse, error) {
	return a.raw(ctx, http.MethodPost, path, token, data)
}

func (a *APIService) raw(ctx context.Context, method, path, token string, data []byte) (*APIResponse, error) {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(RequestIDHeader, shared.GenerateID())
	if token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}

	var jsonData any
	if err := json.Unmarshal(respBody, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}
