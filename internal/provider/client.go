// Package provider is the thin client for the external image-synthesis API.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dreamcanvas-app/dreamcanvas/internal/config"
	"github.com/dreamcanvas-app/dreamcanvas/internal/security"
	"github.com/sirupsen/logrus"
)

type Client struct {
	httpClient *http.Client
	config     *config.Config
	log        *logrus.Entry
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type generateResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

type loggingTransport struct {
	log *logrus.Entry
}

func NewClient(logger *logrus.Logger, cfg *config.Config) *Client {
	logger.WithFields(logrus.Fields{
		"component": "provider_client",
		"api_key":   security.MaskAPIKey(cfg.OpenAIAPIKey),
	}).Info("Image provider client initialized")

	return &Client{
		httpClient: &http.Client{
			Timeout:   60 * time.Second,
			Transport: &loggingTransport{log: logger.WithField("component", "provider_transport")},
		},
		config: cfg,
		log:    logger.WithField("component", "provider_client"),
	}
}

// Configured reports whether a plausible API key is present. Generation is
// refused up front when it is not, without spending a provider call.
func (c *Client) Configured() bool {
	return c.config.OpenAIAPIKey != "" && strings.HasPrefix(c.config.OpenAIAPIKey, "sk-")
}

// Generate requests count images for the prompt and returns their URLs. The
// returned URLs are short-lived on the provider side.
func (c *Client) Generate(ctx context.Context, prompt, size string, count int) ([]string, error) {
	start := time.Now()
	log := c.log.WithFields(logrus.Fields{
		"operation": "generate",
		"model":     c.config.ImageModel,
		"size":      size,
		"count":     count,
	})

	body, err := json.Marshal(generateRequest{
		Model:  c.config.ImageModel,
		Prompt: prompt,
		N:      count,
		Size:   size,
	})
	if err != nil {
		return nil, fmt.Errorf("encode generation request: %w", err)
	}

	url := strings.TrimSuffix(c.config.OpenAIBaseURL, "/") + "/v1/images/generations"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.config.OpenAIAPIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Error("Generation request failed")
		return nil, fmt.Errorf("image generation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&errResp); decodeErr == nil && errResp.Error.Message != "" {
			log.WithFields(logrus.Fields{
				"status_code": resp.StatusCode,
				"error_type":  errResp.Error.Type,
			}).Error("Provider rejected generation")
			return nil, fmt.Errorf("%s", errResp.Error.Message)
		}
		log.WithField("status_code", resp.StatusCode).Error("Provider rejected generation")
		return nil, fmt.Errorf("image generation failed with status %d", resp.StatusCode)
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		log.WithError(err).Error("Failed to decode generation response")
		return nil, fmt.Errorf("failed to decode generation response: %w", err)
	}

	urls := make([]string, 0, len(genResp.Data))
	for _, item := range genResp.Data {
		if item.URL != "" {
			urls = append(urls, item.URL)
		}
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("provider returned no images")
	}

	log.WithFields(logrus.Fields{
		"duration":    time.Since(start),
		"image_count": len(urls),
	}).Info("Images generated")
	return urls, nil
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	log := t.log.WithFields(logrus.Fields{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := http.DefaultTransport.RoundTrip(req)
	if err != nil {
		log.WithError(err).Error("HTTP request failed")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"status_code": resp.StatusCode,
		"duration":    time.Since(start),
	}).Debug("HTTP request completed")
	return resp, nil
}
