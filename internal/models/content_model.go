package models

import "time"

// TrackedContent is the dedup ledger of externally observed posts. The
// (connection_id, external_post_id) pair is unique in the store; the
// processed flag flips once trigger matching for the item has finished.
type TrackedContent struct {
	ID             int64     `db:"id" json:"id"`
	ConnectionID   int64     `db:"connection_id" json:"connection_id"`
	ExternalPostID string    `db:"external_post_id" json:"external_post_id"`
	ContentType    string    `db:"content_type" json:"content_type"`
	URL            string    `db:"url" json:"url"`
	Title          string    `db:"title" json:"title"`
	Caption        string    `db:"caption" json:"caption"`
	MediaURL       string    `db:"media_url" json:"media_url"`
	ThumbnailURL   string    `db:"thumbnail_url" json:"thumbnail_url"`
	PostedAt       time.Time `db:"posted_at" json:"posted_at"`
	Processed      bool      `db:"processed" json:"processed"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

const (
	ContentTypeVideo = "video"
	ContentTypeImage = "image"
	ContentTypeText  = "text"
)
