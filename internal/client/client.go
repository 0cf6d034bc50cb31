// Package client talks to the RSVP HTTP API. It backs the command line tool
// and implements form.Submitter.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"ms-rsvp/internal/logger"
	"ms-rsvp/internal/models"
	"ms-rsvp/internal/utils"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultTimeout = 15 * time.Second

var ErrNetwork = errors.New("rsvp api unreachable")

// APIError is a non 2xx answer from the API.
type APIError struct {
	Status  int
	Message string
	Details string
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("rsvp api returned %d: %s (%s)", e.Status, e.Message, e.Details)
	}
	return fmt.Sprintf("rsvp api returned %d: %s", e.Status, e.Message)
}

// UserMessage is the server's message, shown to guests as is.
func (e *APIError) UserMessage() string {
	return e.Message
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	// AdminToken is sent as a bearer token on admin routes
	AdminToken string
	Logger     *logger.Logger
}

func New(baseURL string, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewWriterLogger(nil)
	}
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
		Logger:     log,
	}
}

// Submit posts req with a fresh idempotency key and returns the stored id.
func (c *Client) Submit(ctx context.Context, req models.RSVPRequest) (string, error) {
	return c.SubmitWithKey(ctx, req, uuid.NewString())
}

// SubmitWithKey posts req under the given idempotency key. Retrying with the
// same key never stores a second reply; once the first one is stored the retry
// returns its id.
func (c *Client) SubmitWithKey(ctx context.Context, req models.RSVPRequest, key string) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode rsvp: %w", err)
	}

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	if key != "" {
		headers.Set("Idempotency-Key", key)
	}

	var out models.RSVPSubmitResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/rsvp", bytes.NewReader(body), headers, &out); err != nil {
		return "", err
	}

	c.Logger.LogRSVP("SUBMIT", out.ID, "RSVP accepted by server")
	return out.ID, nil
}

func (c *Client) List(ctx context.Context) ([]models.RSVPResponse, error) {
	var out models.RSVPListResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/rsvp-list", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Responses, nil
}

func (c *Client) Stats(ctx context.Context) (models.Stats, error) {
	var out models.StatsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/rsvp-stats", nil, c.adminHeaders(), &out); err != nil {
		return models.Stats{}, err
	}
	return out.Stats, nil
}

// Export downloads the CSV and the filename the server suggested.
func (c *Client) Export(ctx context.Context) (filename string, data []byte, err error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/rsvp-export", nil, c.adminHeaders())
	if err != nil {
		return "", nil, err
	}
	defer c.closeBody(resp.Body)

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("%w: read export: %w", ErrNetwork, err)
	}

	if _, params, perr := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); perr == nil {
		filename = params["filename"]
	}
	return filename, data, nil
}

func (c *Client) adminHeaders() http.Header {
	if c.AdminToken == "" {
		return nil
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+c.AdminToken)
	return h
}

func (c *Client) doJSON(ctx context.Context, method, path string, body io.Reader, headers http.Header, out any) error {
	resp, err := c.do(ctx, method, path, body, headers)
	if err != nil {
		return err
	}
	defer c.closeBody(resp.Body)

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// do sends the request and turns non 2xx answers into *APIError.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, headers http.Header) (*http.Response, error) {
	url := c.BaseURL + path
	c.Logger.Debug("CLIENT", fmt.Sprintf("%s %s", method, url))

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range headers {
		req.Header[k] = v
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Logger.Error("CLIENT", fmt.Sprintf("%s %s failed: %v", method, path, err))
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer c.closeBody(resp.Body)
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

		var eb utils.ErrorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err == nil && eb.Error != "" {
			apiErr.Message = eb.Error
			apiErr.Details = eb.Details
		}
		c.Logger.Warn("CLIENT", apiErr.Error())
		return nil, apiErr
	}
	return resp, nil
}

func (c *Client) closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		c.Logger.Error("CLIENT", fmt.Sprintf("Failed to close response body: %v", err))
	}
}
