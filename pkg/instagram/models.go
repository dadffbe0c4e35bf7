package instagram

// MediaKind distinguishes images from videos
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// QualityTier describes the quality of a media representation
type QualityTier string

const (
	QualityHD QualityTier = "hd"
	QualitySD QualityTier = "sd"
)

// Media describes one downloadable item extracted from upstream.
// Immutable once constructed; request-scoped, never persisted.
type Media struct {
	URL      string      `json:"url"`
	Kind     MediaKind   `json:"type"`
	Quality  QualityTier `json:"quality"`
	Filename string      `json:"filename"`
	Width    int         `json:"width,omitempty"`
	Height   int         `json:"height,omitempty"`
	CoverURL string      `json:"coverUrl,omitempty"`
}

// ContentKind identifies the supported Instagram content types
type ContentKind string

const (
	KindPost    ContentKind = "post"
	KindStory   ContentKind = "story"
	KindReel    ContentKind = "reel"
	KindProfile ContentKind = "profile"
)

// IsValid reports whether the kind is one of the supported content types
func (k ContentKind) IsValid() bool {
	switch k {
	case KindPost, KindStory, KindReel, KindProfile:
		return true
	}
	return false
}

// Highlight is one entry of a profile's highlight tray
type Highlight struct {
	ID    string
	Title string
}
