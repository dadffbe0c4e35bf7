package instagram

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndpointURLs(t *testing.T) {
	e := NewEndpoints(DefaultHost)

	tests := []struct {
		name      string
		built     string
		path      string
		paramKey  string
		paramWant string
	}{
		{
			name:      "user id by username",
			built:     e.UserIDByUsernameURL("janedoe"),
			path:      UserIDEndpoint,
			paramKey:  "username",
			paramWant: "janedoe",
		},
		{
			name:      "stories by user id",
			built:     e.StoriesByUserIDURL("123456"),
			path:      StoriesEndpoint,
			paramKey:  "user_id",
			paramWant: "123456",
		},
		{
			name:      "reel by shortcode",
			built:     e.ReelByShortcodeURL("ABC123"),
			path:      ReelEndpoint,
			paramKey:  "shortcode",
			paramWant: "ABC123",
		},
		{
			name:      "post by shortcode",
			built:     e.PostByShortcodeURL("ABC123"),
			path:      PostEndpoint,
			paramKey:  "shortcode",
			paramWant: "ABC123",
		},
		{
			name:      "highlights by user id",
			built:     e.HighlightsByUserIDURL("123456"),
			path:      HighlightsEndpoint,
			paramKey:  "user_id",
			paramWant: "123456",
		},
		{
			name:      "highlight by id",
			built:     e.HighlightByIDURL("hl42"),
			path:      HighlightEndpoint,
			paramKey:  "highlight_id",
			paramWant: "hl42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(tt.built)
			require.NoError(t, err)
			assert.Equal(t, "https", u.Scheme)
			assert.Equal(t, DefaultHost, u.Host)
			assert.Equal(t, tt.path, u.Path)
			assert.Equal(t, tt.paramWant, u.Query().Get(tt.paramKey))
		})
	}
}

func TestNewEndpointsURL(t *testing.T) {
	e, err := NewEndpointsURL("http://127.0.0.1:8912")
	require.NoError(t, err)

	u, err := url.Parse(e.PostByShortcodeURL("X"))
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "127.0.0.1:8912", u.Host)
}
