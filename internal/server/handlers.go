package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"igdownloader/pkg/errors"
	"igdownloader/pkg/instagram"
	"igdownloader/pkg/mailer"
)

const profileComingSoonMessage = "Profile downloads are coming soon! This feature is currently under development."

// downloadRequest is the body of POST /api/download
type downloadRequest struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

// downloadData is the success payload of POST /api/download. The first media
// item is mirrored into the top-level download fields for single-item
// clients.
type downloadData struct {
	Media            []instagram.Media     `json:"media"`
	Type             instagram.ContentKind `json:"type"`
	OriginalURL      string                `json:"originalUrl"`
	Shortcode        string                `json:"shortcode"`
	DownloadURL      string                `json:"downloadUrl"`
	Quality          instagram.QualityTier `json:"quality"`
	Filename         string                `json:"filename"`
	IsRealContent    bool                  `json:"isRealContent"`
	MediaCount       int                   `json:"mediaCount"`
	HasMultipleMedia bool                  `json:"hasMultipleMedia"`
}

// bundleRequest is the body of PUT /api/download
type bundleRequest struct {
	MediaItems     []instagram.Media `json:"mediaItems"`
	HighlightTitle string            `json:"highlightTitle"`
}

// proxyRequest is the body of POST /api/proxy
type proxyRequest struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

// contactRequest is the body of POST /api/contact
type contactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.New(errors.ErrorTypeInvalidInput, "Invalid request body"))
		return
	}

	if req.URL == "" {
		s.writeError(w, errors.New(errors.ErrorTypeInvalidInput, "URL is required"))
		return
	}

	kind := instagram.ContentKind(req.Type)
	if !kind.IsValid() {
		s.writeError(w, errors.Newf(errors.ErrorTypeInvalidInput, "Unsupported content type: %s", req.Type))
		return
	}

	if kind == instagram.KindProfile && !s.cfg.Extract.EnableProfile {
		s.writeError(w, errors.New(errors.ErrorTypeInvalidInput, profileComingSoonMessage))
		return
	}

	media, err := s.extractor.Extract(r.Context(), req.URL, kind)
	if err != nil {
		extractionsTotal.WithLabelValues(string(kind), "error").Inc()
		s.logger.ErrorWithFields("extraction failed", map[string]interface{}{
			"url":   req.URL,
			"type":  string(kind),
			"error": err.Error(),
		})
		s.writeError(w, err)
		return
	}

	if len(media) == 0 {
		extractionsTotal.WithLabelValues(string(kind), "empty").Inc()
		s.writeError(w, errors.New(errors.ErrorTypeNotFound, "No media found for this content"))
		return
	}

	extractionsTotal.WithLabelValues(string(kind), "success").Inc()

	first := media[0]
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": downloadData{
			Media:            media,
			Type:             kind,
			OriginalURL:      req.URL,
			Shortcode:        contentIdentifier(req.URL, kind),
			DownloadURL:      first.URL,
			Quality:          first.Quality,
			Filename:         first.Filename,
			IsRealContent:    true,
			MediaCount:       len(media),
			HasMultipleMedia: len(media) > 1,
		},
	})
}

func (s *Server) handleBundle(w http.ResponseWriter, r *http.Request) {
	var req bundleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.New(errors.ErrorTypeInvalidInput, "Invalid request body"))
		return
	}

	if len(req.MediaItems) == 0 {
		s.writeError(w, errors.New(errors.ErrorTypeInvalidInput, "No media items provided"))
		return
	}

	groupLabel := sanitizeLabel(req.HighlightTitle)
	data, err := s.archiver.Build(r.Context(), req.MediaItems, groupLabel)
	if err != nil {
		s.logger.ErrorWithFields("bundle build failed", map[string]interface{}{
			"items": len(req.MediaItems),
			"error": err.Error(),
		})
		s.writeError(w, err)
		return
	}

	ts := s.now().UnixMilli()
	name := fmt.Sprintf("instagram-media-%d.zip", ts)
	if groupLabel != "" {
		name = fmt.Sprintf("instagram-highlights-%s-%d.zip", groupLabel, ts)
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleProxyGet(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		s.writeError(w, errors.New(errors.ErrorTypeInvalidInput, "URL parameter is required"))
		return
	}

	payload, err := s.relay.Fetch(r.Context(), rawURL, "image/jpeg")
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", payload.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(payload.Data)))
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(payload.Data)
}

func (s *Server) handleProxyPost(w http.ResponseWriter, r *http.Request) {
	var req proxyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.New(errors.ErrorTypeInvalidInput, "Invalid request body"))
		return
	}

	payload, err := s.relay.Fetch(r.Context(), req.URL, "application/octet-stream")
	if err != nil {
		s.writeError(w, err)
		return
	}

	filename := req.Filename
	if filename == "" {
		filename = "download"
	}

	w.Header().Set("Content-Type", payload.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(payload.Data)))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(payload.Data)
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errors.New(errors.ErrorTypeInvalidInput, "Invalid request body"))
		return
	}

	msg := &mailer.Message{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}

	if err := s.mailer.Send(msg); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Message sent successfully.",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.ErrorWithFields("failed to write json response", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// writeError maps a service error onto the failure envelope. Internal detail
// never reaches the client.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, errors.HTTPStatus(err), map[string]interface{}{
		"success": false,
		"error":   errors.UserMessage(err),
	})
}

// contentIdentifier extracts the best-effort identifier for the response
// envelope: the shortcode for posts and reels, the username otherwise
func contentIdentifier(rawURL string, kind instagram.ContentKind) string {
	switch kind {
	case instagram.KindStory:
		username, _, err := instagram.ExtractStoryUsername(rawURL)
		if err != nil {
			return ""
		}
		return username
	case instagram.KindProfile:
		username, err := instagram.ExtractProfileUsername(rawURL)
		if err != nil {
			return ""
		}
		return username
	default:
		shortcode, err := instagram.ExtractShortcode(rawURL)
		if err != nil {
			return ""
		}
		return shortcode
	}
}

// sanitizeLabel converts a highlight title into a filesystem-safe lowercase
// label
func sanitizeLabel(title string) string {
	if title == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	return strings.Trim(b.String(), "-")
}
