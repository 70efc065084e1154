package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kostadinov1/gym-backend/internal/models"
)

const maxAttempts = 3

// StatusError is a non-2xx reply from the server.
type StatusError struct {
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Detail)
}

// retryable reports whether a request may succeed when sent again.
func (e *StatusError) retryable() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

// Client talks to the GymTrack REST API as one user.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	backoff    time.Duration
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		backoff:    time.Second,
	}
}

// SetToken uses an existing bearer token instead of logging in.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Login exchanges credentials for a bearer token used by later calls.
func (c *Client) Login(ctx context.Context, email, password string) error {
	form := url.Values{"username": {email}, "password": {password}}
	var tok models.Token
	err := c.do(ctx, http.MethodPost, "/token", "application/x-www-form-urlencoded", []byte(form.Encode()), &tok)
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	if tok.AccessToken == "" {
		return errors.New("logging in: empty access token")
	}
	c.token = tok.AccessToken
	return nil
}

func (c *Client) ListRoutines(ctx context.Context) ([]models.RoutineSummary, error) {
	var routines []models.RoutineSummary
	if err := c.do(ctx, http.MethodGet, "/workouts/routines", "", nil, &routines); err != nil {
		return nil, fmt.Errorf("listing routines: %w", err)
	}
	return routines, nil
}

func (c *Client) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	var exercises []models.Exercise
	if err := c.do(ctx, http.MethodGet, "/exercises", "", nil, &exercises); err != nil {
		return nil, fmt.Errorf("listing exercises: %w", err)
	}
	return exercises, nil
}

func (c *Client) CreateExercise(ctx context.Context, in models.ExerciseCreate) (*models.Exercise, error) {
	var ex models.Exercise
	if err := c.postJSON(ctx, "/exercises", in, &ex); err != nil {
		return nil, fmt.Errorf("creating exercise %q: %w", in.Name, err)
	}
	return &ex, nil
}

func (c *Client) FinishSession(ctx context.Context, in models.SessionCreate) (*models.SessionRead, error) {
	var read models.SessionRead
	if err := c.postJSON(ctx, "/workouts/finish", in, &read); err != nil {
		return nil, fmt.Errorf("logging session: %w", err)
	}
	return &read, nil
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, "application/json", data, out)
}

// do sends a request, retrying transport failures and 5xx/429 replies with
// exponential backoff. Other client errors are returned at once.
func (c *Client) do(ctx context.Context, method, path, contentType string, body []byte, out any) error {
	var lastErr error
	for attempt := range maxAttempts {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff * time.Duration(1<<uint(attempt-1))):
			}
		}

		err := c.send(ctx, method, path, contentType, body, out)
		if err == nil {
			return nil
		}
		var se *StatusError
		if errors.As(err, &se) && !se.retryable() {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
	}
	return fmt.Errorf("after %d attempts: %w", maxAttempts, lastErr)
}

func (c *Client) send(ctx context.Context, method, path, contentType string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Status: resp.StatusCode, Detail: detail(data)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// detail pulls the message out of a {"detail": ...} body, falling back to the raw text.
func detail(body []byte) string {
	var v struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &v) == nil && v.Detail != "" {
		return v.Detail
	}
	return strings.TrimSpace(string(body))
}
