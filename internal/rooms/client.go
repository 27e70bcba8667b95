package rooms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Role scopes a join link to one side of the consultation.
type Role string

const (
	RoleHost  Role = "host"  // doctor
	RoleGuest Role = "guest" // patient
)

// Client is the capability set the appointment lifecycle needs from the
// video room provider. Disabling an already disabled room is a no-op on
// the provider side and must not surface as an error.
type Client interface {
	CreateRoom(ctx context.Context, name, description string) (string, error)
	JoinLink(ctx context.Context, roomID string, role Role) (string, error)
	DisableRoom(ctx context.Context, roomID string) (bool, error)
}

// ProviderError reports a failed room provider call.
type ProviderError struct {
	Op     string
	Status int
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("room provider %s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("room provider %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Options configures the HTTP client against a 100ms-style rooms API.
type Options struct {
	APIURL      string
	LinkBaseURL string
	Token       string
	TemplateID  string
	Timeout     time.Duration
	Retries     int // extra attempts for transport errors and 5xx responses
}

type HTTPClient struct {
	opts Options
	http *http.Client
}

func NewHTTPClient(opts Options) *HTTPClient {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &HTTPClient{
		opts: opts,
		http: &http.Client{Timeout: opts.Timeout},
	}
}

type createRoomRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	TemplateID  string `json:"template_id,omitempty"`
}

type createRoomResponse struct {
	ID string `json:"id"`
}

func (c *HTTPClient) CreateRoom(ctx context.Context, name, description string) (string, error) {
	body := createRoomRequest{
		Name:        name,
		Description: description,
		TemplateID:  c.opts.TemplateID,
	}

	var resp createRoomResponse
	if err := c.post(ctx, "create_room", c.opts.APIURL+"/rooms", body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", &ProviderError{Op: "create_room", Err: fmt.Errorf("empty room id in response")}
	}
	return resp.ID, nil
}

type roomCodeResponse struct {
	Code string `json:"code"`
}

func (c *HTTPClient) JoinLink(ctx context.Context, roomID string, role Role) (string, error) {
	url := fmt.Sprintf("%s/room-codes/room/%s/role/%s", c.opts.APIURL, roomID, role)

	var resp roomCodeResponse
	if err := c.post(ctx, "issue_join_link", url, nil, &resp); err != nil {
		return "", err
	}
	if resp.Code == "" {
		return "", &ProviderError{Op: "issue_join_link", Err: fmt.Errorf("empty room code in response")}
	}
	return fmt.Sprintf("%s/%s", c.opts.LinkBaseURL, resp.Code), nil
}

type disableRoomRequest struct {
	Enabled bool `json:"enabled"`
}

type disableRoomResponse struct {
	Enabled bool `json:"enabled"`
}

func (c *HTTPClient) DisableRoom(ctx context.Context, roomID string) (bool, error) {
	var resp disableRoomResponse
	err := c.post(ctx, "disable_room", c.opts.APIURL+"/rooms/"+roomID, disableRoomRequest{Enabled: false}, &resp)
	if err != nil {
		return false, err
	}
	return !resp.Enabled, nil
}

// post sends one provider call, retrying transport errors and 5xx
// responses up to the configured budget with doubling backoff.
func (c *HTTPClient) post(ctx context.Context, op, url string, body, out any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", op, err)
		}
		payload = data
	}

	attempts := c.opts.Retries + 1
	delay := 200 * time.Millisecond

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return &ProviderError{Op: op, Err: ctx.Err()}
			case <-time.After(delay):
			}
			delay *= 2
			log.Debug().Str("op", op).Int("attempt", attempt).Msg("retrying room provider call")
		}

		retryable, err := c.doOnce(ctx, op, url, payload, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
	}

	return lastErr
}

func (c *HTTPClient) doOnce(ctx context.Context, op, url string, payload []byte, out any) (retryable bool, err error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reader)
	if err != nil {
		return false, &ProviderError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.opts.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return true, &ProviderError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode >= 500, &ProviderError{Op: op, Status: resp.StatusCode}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return false, &ProviderError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return false, nil
}
