package instagram

import (
	"fmt"
	"net/url"
)

const (
	// DefaultHost is the RapidAPI host serving the scraping endpoints
	DefaultHost = "instagram-scrapper-posts-reels-stories-downloader.p.rapidapi.com"

	// Endpoint paths, one per logical operation
	UserIDEndpoint      = "/user_id_by_username"
	StoriesEndpoint     = "/stories_by_user_id"
	ReelEndpoint        = "/reel_by_shortcode"
	PostEndpoint        = "/post_by_shortcode"
	HighlightsEndpoint  = "/highlights_by_user_id"
	HighlightEndpoint   = "/highlight_by_id"
)

// Endpoints builds request URLs against a scraping API host. The host is
// configurable so tests can point at a local server.
type Endpoints struct {
	host   string
	scheme string
}

// NewEndpoints creates an Endpoints instance for the given host
func NewEndpoints(host string) *Endpoints {
	return &Endpoints{host: host, scheme: "https"}
}

// NewEndpointsURL creates an Endpoints instance from a full base URL,
// for pointing at httptest servers.
func NewEndpointsURL(baseURL string) (*Endpoints, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	return &Endpoints{host: u.Host, scheme: u.Scheme}, nil
}

// Host returns the configured upstream host
func (e *Endpoints) Host() string {
	return e.host
}

func (e *Endpoints) build(path string, params url.Values) string {
	return fmt.Sprintf("%s://%s%s?%s", e.scheme, e.host, path, params.Encode())
}

// UserIDByUsernameURL constructs the user-id resolution URL
func (e *Endpoints) UserIDByUsernameURL(username string) string {
	params := url.Values{}
	params.Set("username", username)
	return e.build(UserIDEndpoint, params)
}

// StoriesByUserIDURL constructs the story feed URL
func (e *Endpoints) StoriesByUserIDURL(userID string) string {
	params := url.Values{}
	params.Set("user_id", userID)
	return e.build(StoriesEndpoint, params)
}

// ReelByShortcodeURL constructs the reel lookup URL
func (e *Endpoints) ReelByShortcodeURL(shortcode string) string {
	params := url.Values{}
	params.Set("shortcode", shortcode)
	return e.build(ReelEndpoint, params)
}

// PostByShortcodeURL constructs the post lookup URL
func (e *Endpoints) PostByShortcodeURL(shortcode string) string {
	params := url.Values{}
	params.Set("shortcode", shortcode)
	return e.build(PostEndpoint, params)
}

// HighlightsByUserIDURL constructs the highlight tray URL
func (e *Endpoints) HighlightsByUserIDURL(userID string) string {
	params := url.Values{}
	params.Set("user_id", userID)
	return e.build(HighlightsEndpoint, params)
}

// HighlightByIDURL constructs the single highlight content URL
func (e *Endpoints) HighlightByIDURL(highlightID string) string {
	params := url.Values{}
	params.Set("highlight_id", highlightID)
	return e.build(HighlightEndpoint, params)
}
