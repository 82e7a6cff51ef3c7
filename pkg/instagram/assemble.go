package instagram

import (
	"time"

	"github.com/sajibhub/instagram-downloader/internal/domain"
)

// postNode is the canonical post object extracted from a GraphQL
// response. Only the fields the assembler reads are declared; everything
// else in the payload is ignored.
type postNode struct {
	Typename   string `json:"__typename"`
	ID         string `json:"id"`
	Shortcode  string `json:"shortcode"`
	IsVideo    bool   `json:"is_video"`
	IsAd       bool   `json:"is_ad"`
	DisplayURL string `json:"display_url"`
	VideoURL   string `json:"video_url"`
	ViewCount  int    `json:"video_view_count"`
	TakenAt    int64  `json:"taken_at"`

	Dimensions struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"dimensions"`

	Owner struct {
		Username   string `json:"username"`
		FullName   string `json:"full_name"`
		IsVerified bool   `json:"is_verified"`
		IsPrivate  bool   `json:"is_private"`
	} `json:"owner"`

	EdgeMediaPreviewLike struct {
		Count int `json:"count"`
	} `json:"edge_media_preview_like"`

	EdgeMediaToCaption struct {
		Edges []struct {
			Node struct {
				Text string `json:"text"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"edge_media_to_caption"`

	EdgeSidecarToChildren *struct {
		Edges []struct {
			Node postNode `json:"node"`
		} `json:"edges"`
	} `json:"edge_sidecar_to_children"`

	EdgeMediaToParentComment *struct {
		Edges []struct {
			Node commentNode `json:"node"`
		} `json:"edges"`
	} `json:"edge_media_to_parent_comment"`
}

type commentNode struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt int64  `json:"created_at"`
	Owner     struct {
		Username string `json:"username"`
	} `json:"owner"`
}

// assemblePost maps a canonical post object to the public result shape.
// Missing optional fields default to zero values; assembly never fails.
func assemblePost(node *postNode) *domain.ResolvedPost {
	mediaDetails := make([]domain.MediaItem, 0, 1)
	urlList := make([]string, 0, 1)

	if node.Typename == "XDTGraphSidecar" || node.Typename == "GraphSidecar" || node.EdgeSidecarToChildren != nil {
		if node.EdgeSidecarToChildren != nil {
			for _, edge := range node.EdgeSidecarToChildren.Edges {
				child := edge.Node
				mediaDetails = append(mediaDetails, formatMedia(&child))
				urlList = append(urlList, mediaURL(&child))
			}
		}
	} else {
		mediaDetails = append(mediaDetails, formatMedia(node))
		urlList = append(urlList, mediaURL(node))
	}

	comments := formatComments(node)

	var takenAt *string
	if node.TakenAt > 0 {
		ts := time.Unix(node.TakenAt, 0).UTC().Format(time.RFC3339)
		takenAt = &ts
	}

	return &domain.ResolvedPost{
		ResultsNumber: len(urlList),
		URLList:       urlList,
		PostInfo: domain.PostInfo{
			OwnerUsername: node.Owner.Username,
			OwnerFullname: node.Owner.FullName,
			IsVerified:    node.Owner.IsVerified,
			IsPrivate:     node.Owner.IsPrivate,
			Likes:         node.EdgeMediaPreviewLike.Count,
			IsAd:          node.IsAd,
			Caption:       firstCaption(node),
			CommentsCount: len(comments),
			TakenAt:       takenAt,
		},
		MediaDetails: mediaDetails,
		Comments:     comments,
	}
}

func formatMedia(node *postNode) domain.MediaItem {
	item := domain.MediaItem{
		Type: domain.MediaTypeImage,
		URL:  node.DisplayURL,
		Dimensions: domain.Dimensions{
			Width:  node.Dimensions.Width,
			Height: node.Dimensions.Height,
		},
	}

	if node.IsVideo {
		viewCount := node.ViewCount
		item.Type = domain.MediaTypeVideo
		item.URL = node.VideoURL
		item.Thumbnail = node.DisplayURL
		item.VideoViewCount = &viewCount
	}

	return item
}

func mediaURL(node *postNode) string {
	if node.IsVideo {
		return node.VideoURL
	}
	return node.DisplayURL
}

// formatComments deduplicates comments by ID, keeping the first
// occurrence in payload order.
func formatComments(node *postNode) []domain.CommentItem {
	comments := make([]domain.CommentItem, 0)
	if node.EdgeMediaToParentComment == nil {
		return comments
	}

	seen := make(map[string]bool)
	for _, edge := range node.EdgeMediaToParentComment.Edges {
		c := edge.Node
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true

		username := c.Owner.Username
		if username == "" {
			username = "unknown"
		}

		comments = append(comments, domain.CommentItem{
			ID:        c.ID,
			Username:  username,
			Text:      c.Text,
			CreatedAt: time.Unix(c.CreatedAt, 0).UTC().Format(time.RFC3339),
		})
	}

	return comments
}

func firstCaption(node *postNode) string {
	if len(node.EdgeMediaToCaption.Edges) > 0 {
		return node.EdgeMediaToCaption.Edges[0].Node.Text
	}
	return ""
}
