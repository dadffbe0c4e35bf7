// Package relay re-fetches CDN-hosted media server-side so the browser
// never needs direct cross-origin access to the upstream host.
package relay

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"igdownloader/pkg/errors"
	"igdownloader/pkg/logger"
)

// headers sent with every relay fetch, mimicking a browser the CDN will serve
var fetchHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
	"Referer":         "https://www.instagram.com/",
	"Accept":          "image/webp,image/apng,image/*,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
	"Cache-Control":   "no-cache",
}

// Payload is one successfully relayed resource
type Payload struct {
	Data        []byte
	ContentType string
}

// Relay fetches caller-supplied media URLs
type Relay struct {
	client *http.Client
	logger logger.Logger
}

// New creates a Relay with the given per-fetch timeout
func New(timeout time.Duration, log logger.Logger) *Relay {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Relay{
		client: &http.Client{Timeout: timeout},
		logger: log,
	}
}

// Fetch downloads the resource at rawURL. The URL must carry an HTTP(S)
// scheme; validation happens before any network I/O. defaultContentType is
// used when upstream omits the header.
func (r *Relay) Fetch(ctx context.Context, rawURL, defaultContentType string) (*Payload, error) {
	if !strings.HasPrefix(rawURL, "http") {
		return nil, errors.New(errors.ErrorTypeInvalidInput, "Invalid URL format")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Newf(errors.ErrorTypeInvalidInput, "invalid URL: %v", err)
	}
	for key, value := range fetchHeaders {
		req.Header.Set(key, value)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.ErrorWithFields("relay fetch failed", map[string]interface{}{
			"url":   rawURL,
			"error": err.Error(),
		})
		return nil, errors.Newf(errors.ErrorTypeNetwork, "failed to fetch media: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.logger.WarnWithFields("relay fetch returned error status", map[string]interface{}{
			"url":    rawURL,
			"status": resp.StatusCode,
		})
		return nil, errors.WithCode(errors.ErrorTypeUpstream, resp.StatusCode,
			"Failed to fetch media: "+resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Newf(errors.ErrorTypeNetwork, "failed to read media body: %v", err)
	}

	if len(data) == 0 {
		return nil, errors.New(errors.ErrorTypeEmptyPayload, "Downloaded file is empty")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = defaultContentType
	}

	r.logger.DebugWithFields("relay fetch completed", map[string]interface{}{
		"url":          rawURL,
		"size":         len(data),
		"content_type": contentType,
	})

	return &Payload{Data: data, ContentType: contentType}, nil
}
