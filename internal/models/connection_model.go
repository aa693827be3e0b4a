package models

import (
	"database/sql"
	"time"
)

type Connection struct {
	ID              int64        `db:"id" json:"id"`
	UserID          int64        `db:"user_id" json:"user_id"`
	Platform        string       `db:"platform" json:"platform"`
	AccountID       string       `db:"account_id" json:"account_id"`
	AccountName     string       `db:"account_name" json:"account_name"`
	AccountUsername string       `db:"account_username" json:"account_username"`
	ProfilePicture  string       `db:"profile_picture_url" json:"profile_picture"`
	AccessToken     string       `db:"access_token" json:"-"`
	RefreshToken    string       `db:"refresh_token" json:"-"`
	TokenExpiresAt  time.Time    `db:"token_expires_at" json:"token_expires_at"`
	IsActive        bool         `db:"is_active" json:"is_active"`
	LastSyncedAt    sql.NullTime `db:"last_synced_at" json:"last_synced_at"`
	Metadata        string       `db:"metadata" json:"metadata"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}

const (
	PlatformInstagram = "instagram"
	PlatformFacebook  = "facebook"
	PlatformYoutube   = "youtube"
	PlatformTiktok    = "tiktok"
	PlatformLinkedin  = "linkedin"
)
