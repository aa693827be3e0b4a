package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	config "github.com/maheshrc27/crossflow/configs"
	"github.com/maheshrc27/crossflow/internal/models"
)

// instagramAdapter publishes to a directly linked Instagram business
// account. Publish-only: Instagram is not a trigger source in this design.
type instagramAdapter struct {
	cfg   *config.Config
	creds *Credentials
	pub   *containerPublisher
	graph graphClient
}

func NewInstagramAdapter(cfg *config.Config, creds *Credentials) Publisher {
	graph := newGraphClient(graphInstagramHost)
	return &instagramAdapter{
		cfg:   cfg,
		creds: creds,
		pub:   newContainerPublisher(graph, cfg.Retry),
		graph: graph,
	}
}

func (a *instagramAdapter) Platform() string {
	return models.PlatformInstagram
}

func (a *instagramAdapter) EnsureValidToken(ctx context.Context, conn *models.Connection) (string, error) {
	return a.creds.ensure(ctx, conn, a.refreshToken)
}

// Instagram long-lived tokens refresh against themselves; the stored refresh
// token is the current long-lived token.
func (a *instagramAdapter) refreshToken(ctx context.Context, refreshToken string) (*oauthToken, error) {
	reqURL := fmt.Sprintf(
		"https://graph.instagram.com/refresh_access_token?grant_type=ig_refresh_token&access_token=%s",
		refreshToken,
	)

	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("instagram token refresh returned status %d", resp.StatusCode)
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &oauthToken{
		AccessToken:  result.AccessToken,
		RefreshToken: result.AccessToken,
		ExpiresAt:    time.Now().Add(time.Second * time.Duration(result.ExpiresIn)),
	}, nil
}

func (a *instagramAdapter) Publish(ctx context.Context, conn *models.Connection, content ContentItem, opts PublishOptions) PublishResult {
	accessToken, err := a.EnsureValidToken(ctx, conn)
	if err != nil {
		return publishFailure(err)
	}

	mediaURL := opts.MediaURL
	if mediaURL == "" {
		mediaURL = content.MediaURL
	}
	if mediaURL == "" {
		return publishFailure(fmt.Errorf("no media URL available for instagram publish"))
	}

	media := containerParams{Caption: opts.Caption}
	if content.Type == models.ContentTypeVideo {
		media.VideoURL = mediaURL
	} else {
		media.ImageURL = mediaURL
	}

	mediaID, err := a.pub.publishMedia(ctx, conn.AccountID, accessToken, media)
	if err != nil {
		return publishFailure(err)
	}

	permalink, err := a.graph.MediaPermalink(ctx, mediaID, accessToken)
	if err != nil {
		// The post is live; a missing permalink is not a failure.
		slog.Info(err.Error())
	}

	return PublishResult{
		Success:        true,
		PlatformPostID: mediaID,
		PlatformURL:    permalink,
	}
}
