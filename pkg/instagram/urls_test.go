package instagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igdownloader/pkg/errors"
)

func TestExtractShortcode(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{
			name:     "post URL",
			url:      "https://www.instagram.com/p/ABC123/",
			expected: "ABC123",
		},
		{
			name:     "reel URL",
			url:      "https://www.instagram.com/reel/XyZ_9-8/",
			expected: "XyZ_9-8",
		},
		{
			name:     "tv URL",
			url:      "https://www.instagram.com/tv/Cqwerty/",
			expected: "Cqwerty",
		},
		{
			name:     "story URL with code",
			url:      "https://www.instagram.com/stories/someuser/31415926/",
			expected: "31415926",
		},
		{
			name:     "post URL without trailing slash",
			url:      "https://instagram.com/p/DEF456",
			expected: "DEF456",
		},
		{
			name:     "post URL with query string",
			url:      "https://www.instagram.com/p/GHI789/?igshid=abc",
			expected: "GHI789",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := ExtractShortcode(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, code)
		})
	}
}

func TestExtractShortcodeInvalid(t *testing.T) {
	tests := []string{
		"https://www.instagram.com/someuser/",
		"https://example.com/p/ABC123/",
		"not a url",
		"",
	}

	for _, url := range tests {
		_, err := ExtractShortcode(url)
		assert.Error(t, err, url)
		assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidInput), url)
	}
}

func TestExtractShortcodePatternOrder(t *testing.T) {
	// /p/ wins over /stories/ when both could match; first pattern in the
	// list decides
	code, err := ExtractShortcode("https://www.instagram.com/p/FIRST/ instagram.com/stories/u/SECOND")
	require.NoError(t, err)
	assert.Equal(t, "FIRST", code)
}

func TestExtractStoryUsername(t *testing.T) {
	username, effective, err := ExtractStoryUsername("https://www.instagram.com/stories/janedoe/")
	require.NoError(t, err)
	assert.Equal(t, "janedoe", username)
	assert.Equal(t, "https://www.instagram.com/stories/janedoe/", effective)
}

func TestExtractStoryUsernameFromProfileURL(t *testing.T) {
	// A profile URL is accepted and rewritten to the canonical story form
	username, effective, err := ExtractStoryUsername("https://www.instagram.com/janedoe")
	require.NoError(t, err)
	assert.Equal(t, "janedoe", username)
	assert.Equal(t, "https://www.instagram.com/stories/janedoe/", effective)
}

func TestExtractStoryUsernameInvalid(t *testing.T) {
	_, _, err := ExtractStoryUsername("https://example.com/janedoe")
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidInput))
}

func TestExtractProfileUsername(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{
			name:     "plain profile",
			url:      "https://www.instagram.com/janedoe",
			expected: "janedoe",
		},
		{
			name:     "profile with trailing slash",
			url:      "https://www.instagram.com/janedoe/",
			expected: "janedoe",
		},
		{
			name:     "profile with query string",
			url:      "https://www.instagram.com/janedoe?hl=en",
			expected: "janedoe",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			username, err := ExtractProfileUsername(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, username)
		})
	}
}

func TestExtractProfileUsernameInvalid(t *testing.T) {
	_, err := ExtractProfileUsername("https://example.com/janedoe")
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidInput))
}
