package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gearup/storefront/internal/config"
	"github.com/sony/gobreaker/v2"
)

var (
	ErrEmptyImage    = errors.New("image payload is empty")
	ErrNotConfigured = errors.New("image host client id is not configured")
)

// RejectedError means the host answered but refused the upload.
type RejectedError struct {
	Status  int
	Details json.RawMessage
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("image host rejected upload: status %d", e.Status)
}

type response struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    struct {
		Link string `json:"link"`
	} `json:"data"`
}

// Client uploads images to an Imgur-compatible host.
type Client struct {
	endpoint string
	clientID string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker[string]
}

func New(cfg config.ImageHostConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		endpoint: cfg.Endpoint,
		clientID: cfg.ClientID,
		http:     httpClient,
		breaker: gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
			Name:        "imagehost",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			// A refused image says nothing about the host's health.
			IsSuccessful: func(err error) bool {
				var rejected *RejectedError
				return err == nil || errors.As(err, &rejected)
			},
		}),
	}
}

// Payload strips a data URL prefix, leaving the bare base64 body.
func Payload(image string) string {
	if i := strings.Index(image, ","); i >= 0 {
		return image[i+1:]
	}
	return image
}

// Upload sends image (base64 or a data URL) and returns the hosted link.
func (c *Client) Upload(ctx context.Context, image string) (string, error) {
	payload := Payload(strings.TrimSpace(image))
	if payload == "" {
		return "", ErrEmptyImage
	}
	if c.clientID == "" {
		return "", ErrNotConfigured
	}
	return c.breaker.Execute(func() (string, error) {
		return c.upload(ctx, payload)
	})
}

func (c *Client) upload(ctx context.Context, payload string) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("image", payload); err != nil {
		return "", fmt.Errorf("write form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+c.clientID)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read upload response: %w", err)
	}

	var parsed response
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode upload response (status %d): %w", resp.StatusCode, err)
	}
	if !parsed.Success || parsed.Data.Link == "" {
		return "", &RejectedError{Status: resp.StatusCode, Details: json.RawMessage(raw)}
	}
	return parsed.Data.Link, nil
}
