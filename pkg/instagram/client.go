package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"igdownloader/pkg/errors"
	"igdownloader/pkg/logger"
)

// browser-like headers sent on raw media fetches so the CDN serves the bytes
var mediaHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Referer":         "https://www.instagram.com/",
	"Accept":          "image/webp,image/apng,image/*,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
	"Cache-Control":   "no-cache",
}

// Client issues calls against the scraping API and the media CDN
type Client struct {
	metadataClient *http.Client
	mediaClient    *http.Client
	endpoints      *Endpoints
	apiKey         string
	logger         logger.Logger
}

// NewClient creates a new scraping API client. metadataTimeout bounds the
// JSON endpoint calls, mediaTimeout bounds raw media byte fetches.
func NewClient(endpoints *Endpoints, apiKey string, metadataTimeout, mediaTimeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		metadataClient: &http.Client{Timeout: metadataTimeout},
		mediaClient:    &http.Client{Timeout: mediaTimeout},
		endpoints:      endpoints,
		apiKey:         apiKey,
		logger:         log,
	}
}

// Endpoints returns the endpoint builder the client was configured with
func (c *Client) Endpoints() *Endpoints {
	return c.endpoints
}

// GetJSON performs a GET against a scraping API URL and decodes the response
// into target. The response shape is not trusted, so callers typically decode
// into an interface{} and hand it to the normalizer.
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.Newf(errors.ErrorTypeUnknown, "failed to create request: %v", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.endpoints.Host())

	start := time.Now()
	resp, err := c.metadataClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("scraping API request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return errors.Newf(errors.ErrorTypeNetwork, "network error: %v", err)
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("scraping API request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	})

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WithCode(errors.ErrorTypeNetwork, resp.StatusCode,
			fmt.Sprintf("failed to read response body: %v", err))
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errors.WithCode(errors.ErrorTypeParsing, resp.StatusCode,
			fmt.Sprintf("failed to parse JSON: %v", err))
	}

	return nil
}

// FetchMedia downloads the raw bytes of a media URL from the CDN
func (c *Client) FetchMedia(ctx context.Context, mediaURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		return nil, errors.Newf(errors.ErrorTypeUnknown, "failed to create request: %v", err)
	}
	for key, value := range mediaHeaders {
		req.Header.Set(key, value)
	}

	resp, err := c.mediaClient.Do(req)
	if err != nil {
		c.logger.ErrorWithFields("media fetch failed", map[string]interface{}{
			"url":   mediaURL,
			"error": err.Error(),
		})
		return nil, errors.Newf(errors.ErrorTypeNetwork, "network error: %v", err)
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Newf(errors.ErrorTypeNetwork, "failed to read media body: %v", err)
	}

	c.logger.DebugWithFields("media fetch completed", map[string]interface{}{
		"url":  mediaURL,
		"size": len(data),
	})

	return data, nil
}

// checkResponseStatus maps non-2xx upstream responses to typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.WarnWithFields("upstream rate limit exceeded", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errors.WithCode(errors.ErrorTypeRateLimit, resp.StatusCode, "upstream rate limit exceeded")
	default:
		c.logger.ErrorWithFields("upstream returned error status", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errors.WithCode(errors.ErrorTypeUpstream, resp.StatusCode,
			fmt.Sprintf("upstream returned status %d", resp.StatusCode))
	}
}
