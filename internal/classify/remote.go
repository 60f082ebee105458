package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"album-engine/internal/library"
	"album-engine/internal/logging"
)

const defaultRemoteTimeout = 10 * time.Second

// RemoteClassifier calls an external labeling service over HTTP. The
// service receives asset metadata as JSON and returns weighted labels.
// Unavailability is reported by the service as the generic label pair,
// not as an HTTP error, so callers see it through isFailure.
type RemoteClassifier struct {
	url    string
	client *http.Client
	log    *logging.Component
}

// NewRemoteClassifier returns a classifier backed by the service at url.
// A non-positive timeout falls back to 10s.
func NewRemoteClassifier(url string, timeout time.Duration) *RemoteClassifier {
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}
	return &RemoteClassifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
		log:    logging.ForComponent("classifier"),
	}
}

type classifyRequest struct {
	AssetID   string  `json:"assetId"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

type classifyResponse struct {
	Labels []Result `json:"labels"`
}

// Classify sends one asset to the labeling service.
func (r *RemoteClassifier) Classify(ctx context.Context, asset library.AssetMetadata) ([]Result, error) {
	body, err := json.Marshal(classifyRequest{
		AssetID:   asset.AssetID,
		Width:     asset.PixelWidth,
		Height:    asset.PixelHeight,
		Latitude:  asset.Latitude,
		Longitude: asset.Longitude,
	})
	if err != nil {
		return nil, fmt.Errorf("encode classify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build classify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classify %s: %w", asset.AssetID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("classify %s: unexpected status %d", asset.AssetID, resp.StatusCode)
	}

	var decoded classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode classify response for %s: %w", asset.AssetID, err)
	}

	r.log.Debug("classified %s: %d labels", asset.AssetID, len(decoded.Labels))
	return decoded.Labels, nil
}
