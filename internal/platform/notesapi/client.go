package notesapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-notes/internal/config"
	"github.com/phrazzld/scry-notes/internal/domain"
)

const (
	// maxPages bounds how many "next" links FetchNotes follows.
	maxPages = 100

	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 4 << 20

	// RequestIDHeader carries the per-request correlation ID.
	RequestIDHeader = "X-Request-ID"
)

// Client talks to the notes API over HTTP.
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a Client for the API described by cfg.
func NewClient(cfg config.APIConfig, logger *slog.Logger, opts ...Option) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host are required", cfg.BaseURL)
	}

	c := &Client{
		baseURL:    base,
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.With("component", "notes_api_client"),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// FetchNotes returns every note visible to the configured token, following
// pagination links when the API paginates.
func (c *Client) FetchNotes(ctx context.Context) ([]domain.Note, error) {
	next := c.endpoint("notes/")
	var all []domain.Note

	for page := 0; ; page++ {
		if page >= maxPages {
			return nil, fmt.Errorf("failed to fetch notes: more than %d pages", maxPages)
		}

		body, err := c.do(ctx, http.MethodGet, next, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch notes: %w", err)
		}

		notes, nextURL, err := decodeNoteList(body)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch notes: %w", err)
		}

		all = append(all, notes...)
		if nextURL == "" {
			break
		}
		if next, err = c.resolveNext(nextURL); err != nil {
			return nil, fmt.Errorf("failed to fetch notes: %w", err)
		}
	}

	c.logger.Debug("fetched notes", "count", len(all))
	return all, nil
}

// UpdateTopicStatus sets the status of a topic.
func (c *Client) UpdateTopicStatus(ctx context.Context, topicID int64, status domain.TopicStatus) error {
	if status == domain.TopicStatusUnset || !status.IsValid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidTopicStatus, status)
	}

	payload := struct {
		Status domain.TopicStatus `json:"status"`
	}{Status: status}

	path := c.endpoint("topics", strconv.FormatInt(topicID, 10)+"/")
	if _, err := c.do(ctx, http.MethodPatch, path, payload); err != nil {
		return fmt.Errorf("failed to update topic %d: %w", topicID, err)
	}

	return nil
}

// UpdateNote applies a partial edit to a note and returns the stored result.
func (c *Client) UpdateNote(ctx context.Context, noteID int64, update domain.NoteUpdate) (*domain.Note, error) {
	if noteID <= 0 {
		return nil, domain.ErrInvalidNoteID
	}
	if err := update.Validate(); err != nil {
		return nil, err
	}

	path := c.endpoint("notes", strconv.FormatInt(noteID, 10)+"/")
	body, err := c.do(ctx, http.MethodPatch, path, update)
	if err != nil {
		return nil, fmt.Errorf("failed to update note %d: %w", noteID, err)
	}

	var note domain.Note
	if err := json.Unmarshal(body, &note); err != nil {
		return nil, fmt.Errorf("failed to decode updated note %d: %w", noteID, err)
	}

	return &note, nil
}

// DeleteNote removes a note.
func (c *Client) DeleteNote(ctx context.Context, noteID int64) error {
	if noteID <= 0 {
		return domain.ErrInvalidNoteID
	}

	path := c.endpoint("notes", strconv.FormatInt(noteID, 10)+"/")
	if _, err := c.do(ctx, http.MethodDelete, path, nil); err != nil {
		return fmt.Errorf("failed to delete note %d: %w", noteID, err)
	}

	return nil
}

// Close releases idle connections held by the underlying http.Client.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// resolveNext resolves a pagination link against the base URL. Links that
// leave the API's scheme and host are refused so the token stays with the API.
func (c *Client) resolveNext(link string) (string, error) {
	ref, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("%w: invalid next link %q", ErrUnexpectedPayload, link)
	}

	u := c.baseURL.ResolveReference(ref)
	if u.Scheme != c.baseURL.Scheme || u.Host != c.baseURL.Host {
		return "", fmt.Errorf("%w: next link %q", ErrForeignLink, u.Redacted())
	}
	return u.String(), nil
}

// endpoint resolves path elements against the base URL. A trailing slash on
// the last element is kept, matching the API's URL style.
func (c *Client) endpoint(elem ...string) string {
	return c.baseURL.JoinPath(elem...).String()
}

// do sends one request and returns the response body of a 2xx response.
func (c *Client) do(ctx context.Context, method, target string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	log := c.logger.With("method", method, "url", target, "request_id", requestID)
	log.Debug("sending request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Debug("failed to close response body", "error", cerr)
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := parseAPIError(resp.StatusCode, body, requestID)
		log.Debug("request failed", "status_code", resp.StatusCode, "message", apiErr.Message)
		return nil, apiErr
	}

	log.Debug("request succeeded", "status_code", resp.StatusCode)
	return body, nil
}
