package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const defaultUnlockerURL = "https://api.brightdata.com/request"

// UnlockerConfig configures a web-unlocker proxy API
type UnlockerConfig struct {
	URL     string
	Zone    string
	APIKey  string
	Timeout time.Duration
}

// UnlockerFetcher retrieves product pages through an unlocker API that
// answers with a JSON envelope carrying the page body
type UnlockerFetcher struct {
	config   UnlockerConfig
	client   *http.Client
	detector *BotDetector
	log      logrus.FieldLogger
}

// NewUnlockerFetcher creates a fetcher for the given unlocker endpoint
func NewUnlockerFetcher(cfg UnlockerConfig, log logrus.FieldLogger) *UnlockerFetcher {
	if cfg.URL == "" {
		cfg.URL = defaultUnlockerURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &UnlockerFetcher{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		detector: NewBotDetector(),
		log:      log.WithField("fetcher", "unlocker"),
	}
}

type unlockerRequest struct {
	URL    string `json:"url"`
	Zone   string `json:"zone"`
	Format string `json:"format"`
}

// Fetch returns the raw markup of the page at sourceID
func (f *UnlockerFetcher) Fetch(ctx context.Context, sourceID string) (string, error) {
	if strings.TrimSpace(sourceID) == "" {
		return "", fmt.Errorf("%w: empty source id", ErrRetrievalFailed)
	}

	payload, err := json.Marshal(unlockerRequest{URL: sourceID, Zone: f.config.Zone, Format: "json"})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.config.URL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.config.APIKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read response: %v", ErrRetrievalFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: unlocker returned status %d", ErrRetrievalFailed, resp.StatusCode)
	}

	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("%w: unlocker response is not JSON", ErrRetrievalFailed)
	}

	envelope := gjson.ParseBytes(body)
	if status := envelope.Get("status_code"); status.Exists() && status.Int() >= 400 {
		return "", fmt.Errorf("%w: target returned status %d", ErrRetrievalFailed, status.Int())
	}

	markup := envelope.Get("body").String()
	if strings.TrimSpace(markup) == "" {
		return "", ErrEmptyDocument
	}

	if err := f.detector.Check(markup); err != nil {
		f.log.WithField("source_id", sourceID).Warnf("🤖 %v", err)
		return "", err
	}

	f.log.WithField("source_id", sourceID).Debugf("Fetched %d bytes", len(markup))
	return markup, nil
}
