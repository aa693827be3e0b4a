package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/maheshrc27/crossflow/configs"
	"github.com/maheshrc27/crossflow/internal/models"
)

const (
	tiktokTokenURL     = "https://open.tiktokapis.com/v2/oauth/token/"
	tiktokVideoListURL = "https://open.tiktokapis.com/v2/video/list/?fields=id,title,video_description,create_time,cover_image_url,share_url"
	tiktokVideoInitURL = "https://open.tiktokapis.com/v2/post/publish/video/init/"
)

type tiktokAdapter struct {
	cfg   *config.Config
	creds *Credentials
}

func NewTiktokAdapter(cfg *config.Config, creds *Credentials) Lister {
	return &tiktokAdapter{cfg: cfg, creds: creds}
}

func (a *tiktokAdapter) Platform() string {
	return models.PlatformTiktok
}

func (a *tiktokAdapter) EnsureValidToken(ctx context.Context, conn *models.Connection) (string, error) {
	return a.creds.ensure(ctx, conn, a.refreshToken)
}

func (a *tiktokAdapter) refreshToken(ctx context.Context, refreshToken string) (*oauthToken, error) {
	data := url.Values{}
	data.Set("client_key", a.cfg.TiktokClientKey)
	data.Set("client_secret", a.cfg.TiktokClientSecret)
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, "POST", tiktokTokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		slog.Info(string(body))
		return nil, fmt.Errorf("tiktok token refresh returned status %d", resp.StatusCode)
	}

	var result struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &oauthToken{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Second * time.Duration(result.ExpiresIn)),
	}, nil
}

type tiktokVideo struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	VideoDescription string `json:"video_description"`
	CreateTime       int64  `json:"create_time"`
	CoverImageURL    string `json:"cover_image_url"`
	ShareURL         string `json:"share_url"`
}

func (a *tiktokAdapter) ListSince(ctx context.Context, conn *models.Connection, since time.Time) ([]ContentItem, error) {
	accessToken, err := a.EnsureValidToken(ctx, conn)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]interface{}{"max_count": 20})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", tiktokVideoListURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var result struct {
		Data struct {
			Videos []tiktokVideo `json:"videos"`
		} `json:"data"`
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("tiktok authorization failed: %s", result.Error.Message)
		}
		return nil, fmt.Errorf("tiktok video list returned status %d: %s", resp.StatusCode, result.Error.Message)
	}

	var items []ContentItem
	for _, video := range result.Data.Videos {
		createdAt := time.Unix(video.CreateTime, 0)
		if !createdAt.After(since) {
			continue
		}

		items = append(items, ContentItem{
			ExternalID:   video.ID,
			Type:         models.ContentTypeVideo,
			Title:        video.Title,
			Caption:      video.VideoDescription,
			URL:          video.ShareURL,
			ThumbnailURL: video.CoverImageURL,
			PublishedAt:  createdAt,
		})
	}

	return items, nil
}

func (a *tiktokAdapter) Publish(ctx context.Context, conn *models.Connection, content ContentItem, opts PublishOptions) PublishResult {
	accessToken, err := a.EnsureValidToken(ctx, conn)
	if err != nil {
		return publishFailure(err)
	}

	mediaURL := opts.MediaURL
	if mediaURL == "" {
		mediaURL = content.MediaURL
	}
	if mediaURL == "" {
		return publishFailure(errors.New("no media URL available for tiktok publish"))
	}

	privacy := opts.Privacy
	if privacy == "" {
		privacy = "PUBLIC_TO_EVERYONE"
	}

	payload := map[string]interface{}{
		"post_info": map[string]interface{}{
			"title":                    opts.Caption,
			"privacy_level":            privacy,
			"disable_duet":             false,
			"disable_comment":          opts.DisableComment,
			"disable_stitch":           false,
			"video_cover_timestamp_ms": 1000,
		},
		"source_info": map[string]interface{}{
			"source":    "PULL_FROM_URL",
			"video_url": mediaURL,
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return publishFailure(err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", tiktokVideoInitURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return publishFailure(err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return publishFailure(err)
	}
	defer resp.Body.Close()

	var result struct {
		Data struct {
			PublishID string `json:"publish_id"`
		} `json:"data"`
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return publishFailure(err)
	}

	if resp.StatusCode != http.StatusOK {
		return publishFailure(fmt.Errorf("tiktok publish returned status %d: %s", resp.StatusCode, result.Error.Message))
	}
	if result.Data.PublishID == "" {
		return publishFailure(fmt.Errorf("tiktok publish rejected: %s", result.Error.Message))
	}

	return PublishResult{
		Success:        true,
		PlatformPostID: result.Data.PublishID,
	}
}
