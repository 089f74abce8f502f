package extractor

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/face-auth-api/internal/config"
)

// Client talks to the face model sidecar over HTTP. The sidecar loads the
// detection and embedding networks once per process; this client is created
// once at startup and closed at shutdown to mirror that lifetime.
//
// The sidecar runs the models on a single shared accelerator and is not
// safely reentrant, so mu serializes calls. Nothing else in the request path
// waits on this lock.
type Client struct {
	baseURL string
	http    *http.Client
	mu      sync.Mutex
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: cfg.ExtractorURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type detectRequest struct {
	Image string `json:"image"` // base64
}

type detectResponse struct {
	Faces []struct {
		Crop       string  `json:"crop"` // base64 JPEG
		Confidence float64 `json:"confidence"`
	} `json:"faces"`
	Error string `json:"error,omitempty"`
}

type embedRequest struct {
	Crop string `json:"crop"` // base64 JPEG
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

func (c *Client) DetectFaces(ctx context.Context, image []byte) ([]DetectedFace, error) {
	var resp detectResponse
	req := detectRequest{Image: base64.StdEncoding.EncodeToString(image)}
	if err := c.post(ctx, "/detect", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("extractor detect: %s", resp.Error)
	}
	faces := make([]DetectedFace, 0, len(resp.Faces))
	for _, f := range resp.Faces {
		crop, err := base64.StdEncoding.DecodeString(f.Crop)
		if err != nil {
			return nil, fmt.Errorf("extractor returned undecodable crop: %w", err)
		}
		faces = append(faces, DetectedFace{Crop: crop, Confidence: f.Confidence})
	}
	return faces, nil
}

func (c *Client) Embed(ctx context.Context, crop []byte) ([]float32, error) {
	var resp embedResponse
	req := embedRequest{Crop: base64.StdEncoding.EncodeToString(crop)}
	if err := c.post(ctx, "/embed", req, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("extractor embed: %s", resp.Error)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("extractor returned empty embedding")
	}
	return resp.Embedding, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal extractor request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("extractor request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("extractor returned status %d", res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(out)
}

// Close releases idle connections to the sidecar.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}
