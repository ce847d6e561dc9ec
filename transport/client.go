//go:generate go run go.uber.org/mock/mockgen -source=client.go -destination=../mocks/mock_client.go -package=mocks
package transport

import (
	"bytes"
	"chat-sync/domain"
	"chat-sync/errors"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const maxResponseBytes = 4 << 20

// IClient is the boundary to the chat backend. Register and Login fail with
// *errors.AuthError, every other call with *errors.FeedError. Nothing above
// this layer looks at status codes or error payloads.
type IClient interface {
	Register(ctx context.Context, username, password string) (domain.Credential, error)
	Login(ctx context.Context, username, password string) (string, error)
	Profile(ctx context.Context, token string) (domain.Profile, error)
	ListMessages(ctx context.Context, token string, window domain.Window) (domain.Page, error)
	PostMessage(ctx context.Context, token, text string) (domain.Message, error)
}

type ClientConfig struct {
	// BaseURL is the backend root, e.g. "http://localhost:8000".
	BaseURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

func NewHTTPClient(config ClientConfig) (*HTTPClient, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("transport: BaseURL is required")
	}
	parsed, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("transport: invalid BaseURL %q: %w", config.BaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("transport: BaseURL %q must be http or https", config.BaseURL)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &HTTPClient{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		log:        logger,
	}, nil
}

func (c *HTTPClient) Register(ctx context.Context, username, password string) (domain.Credential, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/register", "", credentialsBody{username, password}, nil)
	if err != nil {
		return domain.Credential{}, errors.ServerRejected("registration request failed", 0, err)
	}
	if !resp.ok() {
		if resp.status == http.StatusBadRequest {
			if body := resp.errorBody(); len(body.FieldErrors) > 0 {
				return domain.Credential{}, errors.ValidationFailed(body.message(resp.status), body.FieldErrors)
			}
		}
		return domain.Credential{}, errors.ServerRejected(resp.errorBody().message(resp.status), resp.status, nil)
	}

	var auth authResponse
	if err := json.Unmarshal(resp.body, &auth); err != nil || auth.token() == "" {
		return domain.Credential{}, errors.ServerRejected("unexpected registration response", resp.status, err)
	}
	name := auth.Username
	if name == "" {
		name = username
	}
	return domain.Credential{Token: auth.token(), DisplayName: name}, nil
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/api/login", "", credentialsBody{username, password}, nil)
	if err != nil {
		return "", errors.ServerRejected("login request failed", 0, err)
	}
	if !resp.ok() {
		body := resp.errorBody()
		switch {
		case resp.status == http.StatusUnauthorized:
			return "", errors.InvalidCredentials(body.message(resp.status))
		case resp.status == http.StatusBadRequest && len(body.FieldErrors) > 0:
			return "", errors.ValidationFailed(body.message(resp.status), body.FieldErrors)
		default:
			return "", errors.ServerRejected(body.message(resp.status), resp.status, nil)
		}
	}

	var auth authResponse
	if err := json.Unmarshal(resp.body, &auth); err != nil || auth.token() == "" {
		return "", errors.ServerRejected("unexpected login response", resp.status, err)
	}
	return auth.token(), nil
}

func (c *HTTPClient) Profile(ctx context.Context, token string) (domain.Profile, error) {
	resp, err := c.feedCall(ctx, http.MethodGet, "/api/profile", token, nil, nil)
	if err != nil {
		return domain.Profile{}, err
	}
	var wire profileWire
	if err := decodeValid(resp.body, &wire); err != nil {
		return domain.Profile{}, err
	}
	return wire.toProfile(), nil
}

func (c *HTTPClient) ListMessages(ctx context.Context, token string, window domain.Window) (domain.Page, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(window.Limit))
	query.Set("offset", strconv.Itoa(window.Offset))

	resp, err := c.feedCall(ctx, http.MethodGet, "/api/messages", token, nil, query)
	if err != nil {
		return domain.Page{}, err
	}
	var wire pageWire
	if err := decodeValid(resp.body, &wire); err != nil {
		return domain.Page{}, err
	}
	return wire.toPage(), nil
}

func (c *HTTPClient) PostMessage(ctx context.Context, token, text string) (domain.Message, error) {
	resp, err := c.feedCall(ctx, http.MethodPost, "/api/messages", token, postMessageBody{Text: text}, nil)
	if err != nil {
		return domain.Message{}, err
	}
	var wire messageWire
	if err := decodeValid(resp.body, &wire); err != nil {
		return domain.Message{}, err
	}
	return wire.toMessage(), nil
}

// feedCall maps every failure of an authenticated call to a *errors.FeedError.
func (c *HTTPClient) feedCall(ctx context.Context, method, path, token string, body any, query url.Values) (response, error) {
	resp, err := c.do(ctx, method, path, token, body, query)
	if err != nil {
		return response{}, errors.Transient(fmt.Sprintf("%s %s failed", method, path), 0, err)
	}
	if resp.ok() {
		return resp, nil
	}
	message := resp.errorBody().message(resp.status)
	switch {
	case resp.status == http.StatusUnauthorized:
		return response{}, errors.Unauthorized(message)
	case resp.status >= 500, resp.status == http.StatusRequestTimeout, resp.status == http.StatusTooManyRequests:
		return response{}, errors.Transient(message, resp.status, nil)
	default:
		return response{}, errors.Rejected(message, resp.status)
	}
}

type response struct {
	status int
	body   []byte
}

func (r response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (r response) errorBody() errorWire {
	var body errorWire
	_ = json.Unmarshal(r.body, &body)
	return body
}

// do performs the request. It only fails when no complete response was
// received; status codes are left to the caller.
func (c *HTTPClient) do(ctx context.Context, method, path, token string, requestBody any, query url.Values) (response, error) {
	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return response{}, fmt.Errorf("encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return response{}, fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	request.Header.Set("Accept", "application/json")
	request.Header.Set("X-Request-ID", requestID)
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(request)
	if err != nil {
		c.log.Debug("HTTP request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return response{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return response{}, fmt.Errorf("read response body: %w", err)
	}
	c.log.Debug("HTTP request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start))
	return response{status: resp.StatusCode, body: body}, nil
}
