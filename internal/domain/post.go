package domain

// Shortcode is Instagram's opaque identifier for a single post, embedded
// in its canonical URL (e.g. the ABC123 in instagram.com/p/ABC123/).
type Shortcode string

func (s Shortcode) String() string {
	return string(s)
}

// MediaType identifies the kind of a media item.
type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

// Dimensions holds pixel dimensions of a media item.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// MediaItem is one downloadable media resource of a post. Carousel posts
// carry several; plain posts exactly one.
type MediaItem struct {
	Type       MediaType  `json:"type"`
	URL        string     `json:"url"`
	Dimensions Dimensions `json:"dimensions"`

	// Thumbnail and VideoViewCount are only set for videos. The view
	// count is present (possibly zero) whenever Type is video.
	Thumbnail      string `json:"thumbnail,omitempty"`
	VideoViewCount *int   `json:"video_view_count,omitempty"`
}

// CommentItem is a single post comment, deduplicated by ID within one
// resolve.
type CommentItem struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}

// PostInfo carries the post's metadata. Every field is best-effort:
// anything Instagram omits defaults to its zero value rather than
// failing the resolve.
type PostInfo struct {
	OwnerUsername string  `json:"owner_username"`
	OwnerFullname string  `json:"owner_fullname"`
	IsVerified    bool    `json:"is_verified"`
	IsPrivate     bool    `json:"is_private"`
	Likes         int     `json:"likes"`
	IsAd          bool    `json:"is_ad"`
	Caption       string  `json:"caption"`
	CommentsCount int     `json:"comments_count"`
	TakenAt       *string `json:"taken_at"` // RFC 3339, null when unknown
}

// ResolvedPost is the public result of resolving a post URL. It is
// immutable once constructed and safe to cache and share.
type ResolvedPost struct {
	ResultsNumber int           `json:"results_number"`
	URLList       []string      `json:"url_list"`
	PostInfo      PostInfo      `json:"post_info"`
	MediaDetails  []MediaItem   `json:"media_details"`
	Comments      []CommentItem `json:"comments"`
}
