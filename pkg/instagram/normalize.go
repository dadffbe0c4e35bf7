package instagram

import (
	"fmt"
	"strconv"
	"strings"

	"igdownloader/pkg/logger"
)

// The upstream API has shipped several response shapes for the same
// endpoints. Instead of trusting any single schema, each lookup walks an
// ordered list of key paths and accepts the first present, non-null value.
// The lists are data so new shapes can be appended without touching the
// walking code.

// userIDProbes locates the numeric user id in a user_id_by_username response
var userIDProbes = []string{
	"user_id",
	"id",
	"data.user_id",
	"data.id",
	"result.user_id",
	"result.id",
	"UserID",
	"data.UserID",
	"result.UserID",
}

// storyListProbes locates the story array in a stories_by_user_id response
var storyListProbes = []string{
	"stories",
	"data.stories",
	"result.stories",
	"data",
	"result",
}

// highlightListProbes locates the highlight tray in a highlights_by_user_id response
var highlightListProbes = []string{
	"highlights",
	"data.highlights",
	"result.highlights",
	"tray",
	"data",
	"result",
}

// coverPolicy controls what happens when a video item also carries an image
// candidate list. Stories and highlights attach the image as the video's
// cover only; reels and carousel posts additionally emit it as a standalone
// descriptor before the video. The duplication on the reel/carousel side is
// historical behavior, kept deliberately.
type coverPolicy struct {
	emitStandaloneImage bool
}

var (
	storyCoverPolicy    = coverPolicy{emitStandaloneImage: false}
	reelCoverPolicy     = coverPolicy{emitStandaloneImage: true}
	carouselCoverPolicy = coverPolicy{emitStandaloneImage: true}
)

// Normalizer turns loosely-typed upstream payloads into uniform media lists.
// It never fails on unrecognized shapes; it degrades to an empty result.
type Normalizer struct {
	logger logger.Logger
}

// NewNormalizer creates a Normalizer
func NewNormalizer(log logger.Logger) *Normalizer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Normalizer{logger: log}
}

// probePath walks a dot-separated key path through nested JSON objects
func probePath(data interface{}, path string) interface{} {
	current := data
	for _, key := range strings.Split(path, ".") {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current = obj[key]
		if current == nil {
			return nil
		}
	}
	return current
}

// probeString returns the first probe path holding a non-null scalar,
// rendered as a string
func probeString(data interface{}, probes []string) (string, bool) {
	for _, path := range probes {
		switch v := probePath(data, path).(type) {
		case string:
			if v != "" {
				return v, true
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true
		}
	}
	return "", false
}

// probeList returns the first probe path holding an array. A bare top-level
// array matches when no keyed path does.
func probeList(data interface{}, probes []string) []interface{} {
	for _, path := range probes {
		if list, ok := probePath(data, path).([]interface{}); ok {
			return list
		}
	}
	if list, ok := data.([]interface{}); ok {
		return list
	}
	return nil
}

// ExtractUserID resolves the user id from a user_id_by_username response
func (n *Normalizer) ExtractUserID(payload interface{}) (string, bool) {
	return probeString(payload, userIDProbes)
}

// version is one image candidate or video rendition from upstream
type version struct {
	url    string
	width  int
	height int
}

// imageCandidate returns the first (upstream best-first) image candidate
func imageCandidate(item map[string]interface{}) (version, bool) {
	iv, ok := item["image_versions2"].(map[string]interface{})
	if !ok {
		return version{}, false
	}
	candidates, ok := iv["candidates"].([]interface{})
	if !ok || len(candidates) == 0 {
		return version{}, false
	}
	return parseVersion(candidates[0])
}

// videoVersion returns the first (upstream best-first) video rendition
func videoVersion(item map[string]interface{}) (version, bool) {
	versions, ok := item["video_versions"].([]interface{})
	if !ok || len(versions) == 0 {
		return version{}, false
	}
	return parseVersion(versions[0])
}

func parseVersion(raw interface{}) (version, bool) {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return version{}, false
	}
	u, _ := obj["url"].(string)
	if u == "" {
		return version{}, false
	}
	return version{
		url:    u,
		width:  intField(obj, "width"),
		height: intField(obj, "height"),
	}, true
}

func intField(obj map[string]interface{}, key string) int {
	if f, ok := obj[key].(float64); ok {
		return int(f)
	}
	return 0
}

// appendItem applies the cover policy to one upstream item and appends the
// resulting descriptors. name is called once per emitted descriptor.
func appendItem(media []Media, item map[string]interface{}, policy coverPolicy, name func(kind MediaKind) string) []Media {
	image, hasImage := imageCandidate(item)
	video, hasVideo := videoVersion(item)

	if hasImage && (policy.emitStandaloneImage || !hasVideo) {
		media = append(media, Media{
			URL:      image.url,
			Kind:     MediaKindImage,
			Quality:  QualityHD,
			Filename: name(MediaKindImage),
			Width:    image.width,
			Height:   image.height,
		})
	}

	if hasVideo {
		desc := Media{
			URL:      video.url,
			Kind:     MediaKindVideo,
			Quality:  QualityHD,
			Filename: name(MediaKindVideo),
			Width:    video.width,
			Height:   video.height,
		}
		if hasImage {
			desc.CoverURL = image.url
		}
		media = append(media, desc)
	}

	return media
}

func ext(kind MediaKind) string {
	if kind == MediaKindVideo {
		return "mp4"
	}
	return "jpg"
}

// ParseStories extracts media from a stories_by_user_id response.
// Descriptor order follows upstream story order (chronological).
func (n *Normalizer) ParseStories(payload interface{}, userID string, ts int64) []Media {
	stories := probeList(payload, storyListProbes)
	n.logger.DebugWithFields("parsed story feed", map[string]interface{}{
		"user_id": userID,
		"stories": len(stories),
	})

	var media []Media
	idx := 0
	for _, raw := range stories {
		item, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		media = appendItem(media, item, storyCoverPolicy, func(kind MediaKind) string {
			idx++
			return fmt.Sprintf("instagram-story-%s-%d-%d.%s", userID, ts, idx, ext(kind))
		})
	}
	return media
}

// ParseReel extracts media from a reel_by_shortcode response
func (n *Normalizer) ParseReel(payload interface{}, shortcode string, ts int64) []Media {
	item, ok := payload.(map[string]interface{})
	if !ok {
		return nil
	}
	return appendItem(nil, item, reelCoverPolicy, func(kind MediaKind) string {
		return fmt.Sprintf("instagram-reel-%s-%d.%s", shortcode, ts, ext(kind))
	})
}

// ParsePost extracts media from a post_by_shortcode response.
//
// The upstream contract is not trustworthy, so parsing is a layered
// fallback: carousel first, then single image, single video, then four
// generic shapes in fixed order. The first layer yielding at least one
// descriptor wins; nothing matching yields an empty (not error) result.
func (n *Normalizer) ParsePost(payload interface{}, shortcode string, ts int64) []Media {
	ident := shortcode
	if ident == "" {
		ident = "content"
	}

	var media []Media

	if item, ok := payload.(map[string]interface{}); ok {
		if carousel, ok := item["carousel_media"].([]interface{}); ok {
			idx := 0
			for _, raw := range carousel {
				entry, ok := raw.(map[string]interface{})
				if !ok {
					continue
				}
				media = appendItem(media, entry, carouselCoverPolicy, func(kind MediaKind) string {
					idx++
					return fmt.Sprintf("instagram-%s-%d-%d.%s", ident, ts, idx, ext(kind))
				})
			}
		} else if image, ok := imageCandidate(item); ok {
			// Single-media post: the image layer wins even when video
			// renditions are also present, and there is no running index
			media = append(media, Media{
				URL:      image.url,
				Kind:     MediaKindImage,
				Quality:  QualityHD,
				Filename: fmt.Sprintf("instagram-%s-%d.jpg", ident, ts),
				Width:    image.width,
				Height:   image.height,
			})
		} else if video, ok := videoVersion(item); ok {
			media = append(media, Media{
				URL:      video.url,
				Kind:     MediaKindVideo,
				Quality:  QualityHD,
				Filename: fmt.Sprintf("instagram-%s-%d.mp4", ident, ts),
				Width:    video.width,
				Height:   video.height,
			})
		}
	}

	if len(media) > 0 {
		return media
	}

	return n.parseGenericShapes(payload, ident, ts)
}

// parseGenericShapes handles the legacy response formats some upstream
// versions still return
func (n *Normalizer) parseGenericShapes(payload interface{}, ident string, ts int64) []Media {
	var media []Media

	switch data := payload.(type) {
	case map[string]interface{}:
		if success, _ := data["success"].(bool); success {
			if items, ok := data["media"].([]interface{}); ok {
				media = appendGenericItems(media, items, ident, ts)
				if len(media) > 0 {
					return media
				}
			}
		}
		if u, ok := data["url"].(string); ok && u != "" {
			return []Media{genericMedia(u, nil, ident, ts, 0)}
		}
		if inner, ok := data["data"].(map[string]interface{}); ok {
			if items, ok := inner["media"].([]interface{}); ok {
				media = appendGenericItems(media, items, ident, ts)
				if len(media) > 0 {
					return media
				}
			}
		}
	case []interface{}:
		media = appendGenericItems(media, data, ident, ts)
		if len(media) > 0 {
			return media
		}
	case string:
		if strings.Contains(data, "http") {
			return []Media{genericMedia(data, nil, ident, ts, 0)}
		}
	}

	n.logger.WarnWithFields("no recognizable media in upstream response", map[string]interface{}{
		"identifier": ident,
	})
	return nil
}

func appendGenericItems(media []Media, items []interface{}, ident string, ts int64) []Media {
	for _, raw := range items {
		item, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		u, _ := item["url"].(string)
		if u == "" {
			continue
		}
		media = append(media, genericMedia(u, item, ident, ts, len(media)+1))
	}
	return media
}

// genericMedia builds a descriptor from a loosely-typed item. Kind falls
// back to sniffing the URL for an .mp4 suffix. idx 0 omits the index suffix.
func genericMedia(u string, item map[string]interface{}, ident string, ts int64, idx int) Media {
	kind := MediaKindImage
	if item != nil {
		if t, _ := item["type"].(string); t == "video" {
			kind = MediaKindVideo
		}
	}
	if strings.Contains(u, ".mp4") {
		kind = MediaKindVideo
	}

	quality := QualityHD
	if item != nil {
		if q, _ := item["quality"].(string); q == string(QualitySD) {
			quality = QualitySD
		}
	}

	filename := fmt.Sprintf("instagram-%s-%d.%s", ident, ts, ext(kind))
	if idx > 0 {
		filename = fmt.Sprintf("instagram-%s-%d-%d.%s", ident, ts, idx, ext(kind))
	}

	m := Media{
		URL:      u,
		Kind:     kind,
		Quality:  quality,
		Filename: filename,
	}
	if item != nil {
		m.Width = intField(item, "width")
		m.Height = intField(item, "height")
	}
	return m
}

// ParseHighlightTray extracts the highlight list from a highlights_by_user_id response
func (n *Normalizer) ParseHighlightTray(payload interface{}) []Highlight {
	entries := probeList(payload, highlightListProbes)

	var highlights []Highlight
	for _, raw := range entries {
		item, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}

		id, _ := probeString(item, []string{"id"})
		title, ok := probeString(item, []string{"title", "name"})
		if !ok {
			title = fmt.Sprintf("highlight_%s", id)
		}

		highlights = append(highlights, Highlight{ID: id, Title: title})
	}
	return highlights
}

// ParseHighlightMedia extracts media from a highlight_by_id response.
// startIdx is the 1-based index of the next descriptor across the whole
// profile result, so filenames keep a single running sequence.
func (n *Normalizer) ParseHighlightMedia(payload interface{}, title string, ts int64, startIdx int) []Media {
	obj, ok := payload.(map[string]interface{})
	if !ok {
		return nil
	}
	items, ok := obj["media"].([]interface{})
	if !ok {
		return nil
	}

	var media []Media
	idx := startIdx
	for _, raw := range items {
		item, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		media = appendItem(media, item, storyCoverPolicy, func(kind MediaKind) string {
			name := fmt.Sprintf("instagram-highlight-%s-%d-%d.%s", title, ts, idx, ext(kind))
			idx++
			return name
		})
	}
	return media
}
