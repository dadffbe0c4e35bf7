// Package extractor orchestrates the per-content-kind extraction sequences:
// classify the URL, pace and issue the upstream calls, and normalize the
// response into a uniform media list.
package extractor

import (
	"context"
	"time"

	"igdownloader/pkg/errors"
	"igdownloader/pkg/instagram"
	"igdownloader/pkg/lock"
	"igdownloader/pkg/logger"
	"igdownloader/pkg/ratelimit"
)

// Service runs extraction sequences against the scraping API
type Service struct {
	client         *instagram.Client
	normalizer     *instagram.Normalizer
	storyLock      *lock.Lock
	pacer          ratelimit.Limiter
	highlightDelay time.Duration
	logger         logger.Logger
	now            func() time.Time
}

// New creates an extraction Service. storyLock serializes story extraction
// across concurrent requests; pacer spaces the story call sequence.
func New(client *instagram.Client, storyLock *lock.Lock, pacer ratelimit.Limiter, highlightDelay time.Duration, log logger.Logger) *Service {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Service{
		client:         client,
		normalizer:     instagram.NewNormalizer(log),
		storyLock:      storyLock,
		pacer:          pacer,
		highlightDelay: highlightDelay,
		logger:         log,
		now:            time.Now,
	}
}

// Extract resolves a content URL to its downloadable media. The returned
// slice preserves upstream discovery order; an empty slice means no media
// was found, which is distinct from a transport failure.
func (s *Service) Extract(ctx context.Context, rawURL string, kind instagram.ContentKind) ([]instagram.Media, error) {
	switch kind {
	case instagram.KindStory:
		return s.extractStory(ctx, rawURL)
	case instagram.KindReel:
		return s.extractReel(ctx, rawURL)
	case instagram.KindPost:
		return s.extractPost(ctx, rawURL)
	case instagram.KindProfile:
		return s.extractProfile(ctx, rawURL)
	default:
		return nil, errors.Newf(errors.ErrorTypeInvalidInput, "unsupported content type: %s", kind)
	}
}

// extractStory runs the two-step story sequence under the global advisory
// lock: resolve the user id, then fetch the story feed. Both calls are paced
// to stay under the upstream rate limit.
func (s *Service) extractStory(ctx context.Context, rawURL string) ([]instagram.Media, error) {
	username, _, err := instagram.ExtractStoryUsername(rawURL)
	if err != nil {
		return nil, err
	}

	if err := s.storyLock.Acquire(ctx); err != nil {
		return nil, err
	}

	s.logger.InfoWithFields("starting story extraction", map[string]interface{}{
		"username": username,
	})

	userID, err := s.resolveUserID(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := s.pacer.Wait(ctx); err != nil {
		return nil, errors.Newf(errors.ErrorTypeUnknown, "pacing wait canceled: %v", err)
	}

	var payload interface{}
	if err := s.client.GetJSON(ctx, s.client.Endpoints().StoriesByUserIDURL(userID), &payload); err != nil {
		return nil, err
	}

	media := s.normalizer.ParseStories(payload, userID, s.now().UnixMilli())
	s.logger.InfoWithFields("story extraction finished", map[string]interface{}{
		"username":    username,
		"media_count": len(media),
	})
	return media, nil
}

func (s *Service) extractReel(ctx context.Context, rawURL string) ([]instagram.Media, error) {
	shortcode, err := instagram.ExtractShortcode(rawURL)
	if err != nil {
		return nil, err
	}

	var payload interface{}
	if err := s.client.GetJSON(ctx, s.client.Endpoints().ReelByShortcodeURL(shortcode), &payload); err != nil {
		return nil, err
	}

	return s.normalizer.ParseReel(payload, shortcode, s.now().UnixMilli()), nil
}

func (s *Service) extractPost(ctx context.Context, rawURL string) ([]instagram.Media, error) {
	shortcode, err := instagram.ExtractShortcode(rawURL)
	if err != nil {
		return nil, err
	}

	var payload interface{}
	if err := s.client.GetJSON(ctx, s.client.Endpoints().PostByShortcodeURL(shortcode), &payload); err != nil {
		return nil, err
	}

	return s.normalizer.ParsePost(payload, shortcode, s.now().UnixMilli()), nil
}

// extractProfile fetches the profile's highlight tray and then each
// highlight's content. A failed highlight is logged and skipped; the delay
// between highlight calls keeps the sequence under the upstream rate limit.
func (s *Service) extractProfile(ctx context.Context, rawURL string) ([]instagram.Media, error) {
	username, err := instagram.ExtractProfileUsername(rawURL)
	if err != nil {
		return nil, err
	}

	userID, err := s.resolveUserID(ctx, username)
	if err != nil {
		return nil, err
	}

	var payload interface{}
	if err := s.client.GetJSON(ctx, s.client.Endpoints().HighlightsByUserIDURL(userID), &payload); err != nil {
		return nil, err
	}

	highlights := s.normalizer.ParseHighlightTray(payload)
	s.logger.InfoWithFields("fetched highlight tray", map[string]interface{}{
		"username":   username,
		"highlights": len(highlights),
	})

	ts := s.now().UnixMilli()
	var media []instagram.Media
	for i, highlight := range highlights {
		if highlight.ID == "" {
			continue
		}

		var content interface{}
		if err := s.client.GetJSON(ctx, s.client.Endpoints().HighlightByIDURL(highlight.ID), &content); err != nil {
			s.logger.WarnWithFields("failed to fetch highlight content", map[string]interface{}{
				"highlight_id": highlight.ID,
				"error":        err.Error(),
			})
		} else {
			media = append(media, s.normalizer.ParseHighlightMedia(content, highlight.Title, ts, len(media)+1)...)
		}

		if i < len(highlights)-1 {
			if err := sleep(ctx, s.highlightDelay); err != nil {
				return nil, errors.Newf(errors.ErrorTypeUnknown, "highlight pacing canceled: %v", err)
			}
		}
	}

	return media, nil
}

// resolveUserID issues the paced user_id_by_username call and probes the
// response for the id
func (s *Service) resolveUserID(ctx context.Context, username string) (string, error) {
	if err := s.pacer.Wait(ctx); err != nil {
		return "", errors.Newf(errors.ErrorTypeUnknown, "pacing wait canceled: %v", err)
	}

	var payload interface{}
	if err := s.client.GetJSON(ctx, s.client.Endpoints().UserIDByUsernameURL(username), &payload); err != nil {
		return "", err
	}

	userID, ok := s.normalizer.ExtractUserID(payload)
	if !ok {
		s.logger.ErrorWithFields("user id not found in upstream response", map[string]interface{}{
			"username": username,
		})
		return "", errors.Newf(errors.ErrorTypeParsing, "could not get user ID for username %s", username)
	}

	return userID, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
