package instagram

import (
	"fmt"
	"regexp"

	"igdownloader/pkg/errors"
)

// shortcodePatterns is the ordered list of URL shapes that carry a shortcode.
// First match wins; ambiguous URLs resolve by list order.
var shortcodePatterns = []*regexp.Regexp{
	regexp.MustCompile(`instagram\.com/p/([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`instagram\.com/reel/([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`instagram\.com/tv/([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`instagram\.com/stories/[^/]+/([A-Za-z0-9_-]+)`),
}

var (
	storyUsernamePattern   = regexp.MustCompile(`instagram\.com/stories/([^/]+)`)
	profileUsernamePattern = regexp.MustCompile(`instagram\.com/([^/?]+)`)
)

// ExtractShortcode extracts a post/reel shortcode from an Instagram URL
func ExtractShortcode(rawURL string) (string, error) {
	for _, pattern := range shortcodePatterns {
		if match := pattern.FindStringSubmatch(rawURL); match != nil {
			return match[1], nil
		}
	}
	return "", errors.Newf(errors.ErrorTypeInvalidInput, "could not extract shortcode from URL: %s", rawURL)
}

// ExtractStoryUsername extracts the username from a story URL. When the URL
// is a plain profile URL the first path segment is used instead and the
// effective URL is rewritten to the canonical story form.
func ExtractStoryUsername(rawURL string) (username, effectiveURL string, err error) {
	if match := storyUsernamePattern.FindStringSubmatch(rawURL); match != nil {
		return match[1], rawURL, nil
	}

	username, err = ExtractProfileUsername(rawURL)
	if err != nil {
		return "", "", errors.New(errors.ErrorTypeInvalidInput, "could not extract username from story or profile URL")
	}
	return username, CanonicalStoryURL(username), nil
}

// ExtractProfileUsername extracts the username from a profile URL
func ExtractProfileUsername(rawURL string) (string, error) {
	if match := profileUsernamePattern.FindStringSubmatch(rawURL); match != nil {
		return match[1], nil
	}
	return "", errors.New(errors.ErrorTypeInvalidInput, "could not extract username from profile URL")
}

// CanonicalStoryURL returns the canonical story URL for a username
func CanonicalStoryURL(username string) string {
	return fmt.Sprintf("https://www.instagram.com/stories/%s/", username)
}
