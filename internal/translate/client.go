// Package translate talks to the sign recognition ML service.
package translate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// MaxImageBytes bounds the decoded image accepted for a prediction.
const MaxImageBytes = 2 * 1024 * 1024

const defaultMediaPrefix = "data:image/jpeg;base64,"

var (
	ErrInvalidImage  = errors.New("invalid base64 image")
	ErrImageTooLarge = fmt.Errorf("image size exceeds limit. Max size is %dMB", MaxImageBytes/(1024*1024))
	ErrUnavailable   = errors.New("translation service unavailable")
)

// Prediction is the ML service result. Status is success, no_hand, or error.
type Prediction struct {
	Status        string  `json:"status"`
	PredictedSign *string `json:"predicted_sign"`
	Confidence    float64 `json:"confidence"`
	Message       string  `json:"message,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// RejectedError carries a 4xx prediction the ML service returned for a frame
// it could not process.
type RejectedError struct {
	Prediction *Prediction
}

func (e *RejectedError) Error() string {
	if e.Prediction != nil && e.Prediction.Error != "" {
		return e.Prediction.Error
	}
	return "translation rejected"
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NormalizeImage validates a base64 image, optionally given as a data URL, and
// returns it as a data URL.
func NormalizeImage(image string) (string, error) {
	image = strings.TrimSpace(image)
	if image == "" {
		return "", ErrInvalidImage
	}

	prefix := defaultMediaPrefix
	payload := image
	if strings.HasPrefix(image, "data:") {
		comma := strings.IndexByte(image, ',')
		if comma < 0 {
			return "", ErrInvalidImage
		}
		header := image[:comma]
		if !strings.HasPrefix(header, "data:image/") || !strings.HasSuffix(header, ";base64") {
			return "", ErrInvalidImage
		}
		prefix = header + ","
		payload = image[comma+1:]
	}

	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes+2 {
		return "", ErrImageTooLarge
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(decoded) == 0 {
		return "", ErrInvalidImage
	}
	if len(decoded) > MaxImageBytes {
		return "", ErrImageTooLarge
	}
	return prefix + payload, nil
}

func (c *Client) TranslateImage(ctx context.Context, image string) (*Prediction, error) {
	return c.predict(ctx, "/api/translate", image)
}

func (c *Client) TranslateRealtime(ctx context.Context, image string) (*Prediction, error) {
	return c.predict(ctx, "/api/translate/realtime", image)
}

func (c *Client) predict(ctx context.Context, path, image string) (*Prediction, error) {
	normalized, err := NormalizeImage(image)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]string{"image": normalized})
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var pred Prediction
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&pred)

	switch {
	case resp.StatusCode == http.StatusOK && decodeErr == nil:
		return &pred, nil
	case resp.StatusCode == http.StatusBadRequest && decodeErr == nil:
		return nil, &RejectedError{Prediction: &pred}
	default:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
}

// ModelInfo returns the ML service's model description untouched.
func (c *Client) ModelInfo(ctx context.Context) (json.RawMessage, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/model/info", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: malformed model info", ErrUnavailable)
	}
	return raw, nil
}

func (c *Client) Health(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}
