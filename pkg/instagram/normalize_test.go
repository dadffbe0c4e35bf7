package instagram

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, raw string) interface{} {
	t.Helper()
	var payload interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))
	return payload
}

func TestExtractUserIDProbeOrder(t *testing.T) {
	n := NewNormalizer(nil)

	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"top-level user_id", `{"user_id": "111"}`, "111"},
		{"top-level id", `{"id": 222}`, "222"},
		{"nested data.user_id", `{"data": {"user_id": "333"}}`, "333"},
		{"nested data.id", `{"data": {"id": "444"}}`, "444"},
		{"nested result.user_id", `{"result": {"user_id": "555"}}`, "555"},
		{"nested result.id", `{"result": {"id": 666}}`, "666"},
		{"pascal-case UserID", `{"UserID": "777"}`, "777"},
		{"nested data.UserID", `{"data": {"UserID": "888"}}`, "888"},
		{"nested result.UserID", `{"result": {"UserID": "999"}}`, "999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := n.ExtractUserID(decode(t, tt.raw))
			require.True(t, ok)
			assert.Equal(t, tt.expected, id)
		})
	}
}

func TestExtractUserIDPrecedence(t *testing.T) {
	n := NewNormalizer(nil)

	// Earlier probe paths win over later ones
	id, ok := n.ExtractUserID(decode(t, `{"user_id": "first", "result": {"id": "second"}}`))
	require.True(t, ok)
	assert.Equal(t, "first", id)
}

func TestExtractUserIDLargeNumber(t *testing.T) {
	n := NewNormalizer(nil)

	// Numeric ids must not be rendered in exponent notation
	id, ok := n.ExtractUserID(decode(t, `{"user_id": 50372838212}`))
	require.True(t, ok)
	assert.Equal(t, "50372838212", id)
}

func TestExtractUserIDMissing(t *testing.T) {
	n := NewNormalizer(nil)

	for _, raw := range []string{`{}`, `{"status": "ok"}`, `{"user_id": null}`, `[]`} {
		_, ok := n.ExtractUserID(decode(t, raw))
		assert.False(t, ok, raw)
	}
}

func TestParsePostCarousel(t *testing.T) {
	n := NewNormalizer(nil)

	raw := `{
		"carousel_media": [
			{"image_versions2": {"candidates": [
				{"url": "https://cdn.test/img1.jpg", "width": 1080, "height": 1350},
				{"url": "https://cdn.test/img1-small.jpg", "width": 320, "height": 400}
			]}},
			{"image_versions2": {"candidates": [
				{"url": "https://cdn.test/img2.jpg", "width": 1080, "height": 1350}
			]}},
			{"video_versions": [
				{"url": "https://cdn.test/vid1.mp4", "width": 720, "height": 1280},
				{"url": "https://cdn.test/vid1-low.mp4", "width": 480, "height": 854}
			]}
		]
	}`

	media := n.ParsePost(decode(t, raw), "ABC123", 1700000000000)
	require.Len(t, media, 3)

	// Source order preserved, first candidate wins
	assert.Equal(t, "https://cdn.test/img1.jpg", media[0].URL)
	assert.Equal(t, MediaKindImage, media[0].Kind)
	assert.Equal(t, 1080, media[0].Width)
	assert.Equal(t, "https://cdn.test/img2.jpg", media[1].URL)
	assert.Equal(t, "https://cdn.test/vid1.mp4", media[2].URL)
	assert.Equal(t, MediaKindVideo, media[2].Kind)

	// Filenames carry a 1-based running index
	assert.Equal(t, "instagram-ABC123-1700000000000-1.jpg", media[0].Filename)
	assert.Equal(t, "instagram-ABC123-1700000000000-2.jpg", media[1].Filename)
	assert.Equal(t, "instagram-ABC123-1700000000000-3.mp4", media[2].Filename)
}

func TestParsePostCarouselVideoWithCover(t *testing.T) {
	n := NewNormalizer(nil)

	// A carousel video that also carries image candidates emits the image
	// standalone and attaches it as the video's cover
	raw := `{
		"carousel_media": [
			{
				"image_versions2": {"candidates": [{"url": "https://cdn.test/cover.jpg"}]},
				"video_versions": [{"url": "https://cdn.test/vid.mp4"}]
			}
		]
	}`

	media := n.ParsePost(decode(t, raw), "ABC123", 1)
	require.Len(t, media, 2)
	assert.Equal(t, MediaKindImage, media[0].Kind)
	assert.Equal(t, "https://cdn.test/cover.jpg", media[0].URL)
	assert.Equal(t, MediaKindVideo, media[1].Kind)
	assert.Equal(t, "https://cdn.test/cover.jpg", media[1].CoverURL)
}

func TestParsePostSingleImage(t *testing.T) {
	n := NewNormalizer(nil)

	raw := `{"image_versions2": {"candidates": [{"url": "https://cdn.test/single.jpg", "width": 640, "height": 640}]}}`

	media := n.ParsePost(decode(t, raw), "ABC123", 1700000000000)
	require.Len(t, media, 1)
	assert.Equal(t, "https://cdn.test/single.jpg", media[0].URL)
	assert.Equal(t, MediaKindImage, media[0].Kind)
	assert.Equal(t, QualityHD, media[0].Quality)

	// Single-media posts are not index-suffixed
	assert.Equal(t, "instagram-ABC123-1700000000000.jpg", media[0].Filename)
}

func TestParsePostSingleVideo(t *testing.T) {
	n := NewNormalizer(nil)

	raw := `{"video_versions": [{"url": "https://cdn.test/single.mp4", "width": 720, "height": 1280}]}`

	media := n.ParsePost(decode(t, raw), "ABC123", 42)
	require.Len(t, media, 1)
	assert.Equal(t, MediaKindVideo, media[0].Kind)
	assert.Equal(t, "instagram-ABC123-42.mp4", media[0].Filename)
}

func TestParsePostSingleVideoWithThumbnailYieldsImageOnly(t *testing.T) {
	n := NewNormalizer(nil)

	// A non-carousel post carrying both an image candidate list and video
	// renditions resolves at the image layer; the video layer never runs
	raw := `{
		"image_versions2": {"candidates": [{"url": "https://cdn.test/thumb.jpg", "width": 640, "height": 640}]},
		"video_versions": [{"url": "https://cdn.test/clip.mp4", "width": 720, "height": 1280}]
	}`

	media := n.ParsePost(decode(t, raw), "ABC123", 1700000000000)
	require.Len(t, media, 1)
	assert.Equal(t, MediaKindImage, media[0].Kind)
	assert.Equal(t, "https://cdn.test/thumb.jpg", media[0].URL)
	assert.Empty(t, media[0].CoverURL)
	assert.Equal(t, "instagram-ABC123-1700000000000.jpg", media[0].Filename)
}

func TestParsePostFallbackShapes(t *testing.T) {
	n := NewNormalizer(nil)

	tests := []struct {
		name      string
		raw       string
		wantURLs  []string
		wantKinds []MediaKind
	}{
		{
			name:      "success envelope with media array",
			raw:       `{"success": true, "media": [{"url": "https://cdn.test/a.jpg"}, {"url": "https://cdn.test/b.mp4", "type": "video"}]}`,
			wantURLs:  []string{"https://cdn.test/a.jpg", "https://cdn.test/b.mp4"},
			wantKinds: []MediaKind{MediaKindImage, MediaKindVideo},
		},
		{
			name:      "bare url field",
			raw:       `{"url": "https://cdn.test/direct.mp4"}`,
			wantURLs:  []string{"https://cdn.test/direct.mp4"},
			wantKinds: []MediaKind{MediaKindVideo},
		},
		{
			name:      "data.media envelope",
			raw:       `{"data": {"media": [{"url": "https://cdn.test/c.jpg", "width": 100, "height": 200}]}}`,
			wantURLs:  []string{"https://cdn.test/c.jpg"},
			wantKinds: []MediaKind{MediaKindImage},
		},
		{
			name:      "bare array",
			raw:       `[{"url": "https://cdn.test/d.jpg"}, {"url": "https://cdn.test/e.jpg"}]`,
			wantURLs:  []string{"https://cdn.test/d.jpg", "https://cdn.test/e.jpg"},
			wantKinds: []MediaKind{MediaKindImage, MediaKindImage},
		},
		{
			name:      "bare URL string",
			raw:       `"https://cdn.test/f.mp4"`,
			wantURLs:  []string{"https://cdn.test/f.mp4"},
			wantKinds: []MediaKind{MediaKindVideo},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			media := n.ParsePost(decode(t, tt.raw), "ABC123", 1)
			require.Len(t, media, len(tt.wantURLs))
			for i := range tt.wantURLs {
				assert.Equal(t, tt.wantURLs[i], media[i].URL)
				assert.Equal(t, tt.wantKinds[i], media[i].Kind)
			}
		})
	}
}

func TestParsePostUnrecognizedShape(t *testing.T) {
	n := NewNormalizer(nil)

	tests := []string{
		`{"status": "ok", "message": "nothing here"}`,
		`{"success": false, "error": "denied"}`,
		`{}`,
		`[]`,
		`"no media in this string"`,
		`42`,
		`null`,
	}

	for _, raw := range tests {
		media := n.ParsePost(decode(t, raw), "ABC123", 1)
		assert.Empty(t, media, raw)
	}
}

func TestParsePostIdempotent(t *testing.T) {
	n := NewNormalizer(nil)

	raw := `{"carousel_media": [
		{"image_versions2": {"candidates": [{"url": "https://cdn.test/x.jpg"}]}},
		{"video_versions": [{"url": "https://cdn.test/y.mp4"}]}
	]}`
	payload := decode(t, raw)

	first := n.ParsePost(payload, "ABC123", 1000)
	second := n.ParsePost(payload, "ABC123", 1000)
	assert.Equal(t, first, second)

	// A different timestamp only changes the filename component
	third := n.ParsePost(payload, "ABC123", 2000)
	require.Len(t, third, len(first))
	for i := range first {
		assert.Equal(t, first[i].URL, third[i].URL)
		assert.Equal(t, first[i].Kind, third[i].Kind)
		assert.NotEqual(t, first[i].Filename, third[i].Filename)
	}
}

func TestParseStories(t *testing.T) {
	n := NewNormalizer(nil)

	raw := `{"stories": [
		{"image_versions2": {"candidates": [{"url": "https://cdn.test/s1.jpg", "width": 1080, "height": 1920}]}},
		{
			"image_versions2": {"candidates": [{"url": "https://cdn.test/s2-cover.jpg"}]},
			"video_versions": [{"url": "https://cdn.test/s2.mp4", "width": 720, "height": 1280}]
		}
	]}`

	media := n.ParseStories(decode(t, raw), "123456", 1700000000000)
	require.Len(t, media, 2)

	assert.Equal(t, MediaKindImage, media[0].Kind)
	assert.Equal(t, "instagram-story-123456-1700000000000-1.jpg", media[0].Filename)

	// Story videos attach the image as cover only, no standalone descriptor
	assert.Equal(t, MediaKindVideo, media[1].Kind)
	assert.Equal(t, "https://cdn.test/s2.mp4", media[1].URL)
	assert.Equal(t, "https://cdn.test/s2-cover.jpg", media[1].CoverURL)
	assert.Equal(t, "instagram-story-123456-1700000000000-2.mp4", media[1].Filename)
}

func TestParseStoriesListProbes(t *testing.T) {
	n := NewNormalizer(nil)

	item := `{"image_versions2": {"candidates": [{"url": "https://cdn.test/s.jpg"}]}}`
	tests := []string{
		fmt.Sprintf(`{"stories": [%s]}`, item),
		fmt.Sprintf(`{"data": {"stories": [%s]}}`, item),
		fmt.Sprintf(`{"result": {"stories": [%s]}}`, item),
		fmt.Sprintf(`{"data": [%s]}`, item),
		fmt.Sprintf(`{"result": [%s]}`, item),
		fmt.Sprintf(`[%s]`, item),
	}

	for _, raw := range tests {
		media := n.ParseStories(decode(t, raw), "1", 1)
		assert.Len(t, media, 1, raw)
	}
}

func TestParseStoriesEmpty(t *testing.T) {
	n := NewNormalizer(nil)
	assert.Empty(t, n.ParseStories(decode(t, `{"stories": []}`), "1", 1))
	assert.Empty(t, n.ParseStories(decode(t, `{"status": "ok"}`), "1", 1))
}

func TestParseReel(t *testing.T) {
	n := NewNormalizer(nil)

	raw := `{
		"image_versions2": {"candidates": [{"url": "https://cdn.test/reel-cover.jpg", "width": 1080, "height": 1920}]},
		"video_versions": [{"url": "https://cdn.test/reel.mp4", "width": 720, "height": 1280}]
	}`

	media := n.ParseReel(decode(t, raw), "XYZ789", 1700000000000)
	require.Len(t, media, 2)

	// Reels emit the image standalone before the video, and attach it as cover
	assert.Equal(t, MediaKindImage, media[0].Kind)
	assert.Equal(t, "https://cdn.test/reel-cover.jpg", media[0].URL)
	assert.Equal(t, "instagram-reel-XYZ789-1700000000000.jpg", media[0].Filename)

	assert.Equal(t, MediaKindVideo, media[1].Kind)
	assert.Equal(t, "https://cdn.test/reel.mp4", media[1].URL)
	assert.Equal(t, "https://cdn.test/reel-cover.jpg", media[1].CoverURL)
	assert.Equal(t, "instagram-reel-XYZ789-1700000000000.mp4", media[1].Filename)
}

func TestParseReelVideoOnly(t *testing.T) {
	n := NewNormalizer(nil)

	raw := `{"video_versions": [{"url": "https://cdn.test/reel.mp4"}]}`
	media := n.ParseReel(decode(t, raw), "XYZ789", 1)
	require.Len(t, media, 1)
	assert.Equal(t, MediaKindVideo, media[0].Kind)
	assert.Empty(t, media[0].CoverURL)
}

func TestParseHighlightTray(t *testing.T) {
	n := NewNormalizer(nil)

	tests := []struct {
		name string
		raw  string
	}{
		{"highlights key", `{"highlights": [{"id": "h1", "title": "Trips"}]}`},
		{"tray key", `{"tray": [{"id": "h1", "title": "Trips"}]}`},
		{"data key", `{"data": [{"id": "h1", "title": "Trips"}]}`},
		{"bare array", `[{"id": "h1", "title": "Trips"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			highlights := n.ParseHighlightTray(decode(t, tt.raw))
			require.Len(t, highlights, 1)
			assert.Equal(t, "h1", highlights[0].ID)
			assert.Equal(t, "Trips", highlights[0].Title)
		})
	}
}

func TestParseHighlightTrayTitleFallback(t *testing.T) {
	n := NewNormalizer(nil)

	highlights := n.ParseHighlightTray(decode(t, `{"highlights": [{"id": "h2", "name": "Food"}, {"id": "h3"}]}`))
	require.Len(t, highlights, 2)
	assert.Equal(t, "Food", highlights[0].Title)
	assert.Equal(t, "highlight_h3", highlights[1].Title)
}

func TestParseHighlightMedia(t *testing.T) {
	n := NewNormalizer(nil)

	raw := `{"media": [
		{"image_versions2": {"candidates": [{"url": "https://cdn.test/h1.jpg"}]}},
		{"video_versions": [{"url": "https://cdn.test/h2.mp4"}]}
	]}`

	// startIdx continues the running sequence of a multi-highlight result
	media := n.ParseHighlightMedia(decode(t, raw), "Trips", 1700000000000, 3)
	require.Len(t, media, 2)
	assert.Equal(t, "instagram-highlight-Trips-1700000000000-3.jpg", media[0].Filename)
	assert.Equal(t, "instagram-highlight-Trips-1700000000000-4.mp4", media[1].Filename)
}

func TestParseHighlightMediaUnrecognized(t *testing.T) {
	n := NewNormalizer(nil)
	assert.Empty(t, n.ParseHighlightMedia(decode(t, `{"status": "ok"}`), "t", 1, 1))
	assert.Empty(t, n.ParseHighlightMedia(decode(t, `[]`), "t", 1, 1))
}
