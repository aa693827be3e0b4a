package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	config "github.com/maheshrc27/crossflow/configs"
	"github.com/maheshrc27/crossflow/internal/models"
)

// facebookAdapter publishes to an Instagram business account reached through
// a parent Facebook Page token. Same state machine as the direct adapter,
// parameterized over the Facebook Graph domain. Page tokens do not expire on
// a refreshable schedule, so there is no refresh func.
type facebookAdapter struct {
	cfg   *config.Config
	creds *Credentials
	pub   *containerPublisher
	graph graphClient
}

func NewFacebookAdapter(cfg *config.Config, creds *Credentials) Publisher {
	graph := newGraphClient(graphFacebookHost)
	return &facebookAdapter{
		cfg:   cfg,
		creds: creds,
		pub:   newContainerPublisher(graph, cfg.Retry),
		graph: graph,
	}
}

func (a *facebookAdapter) Platform() string {
	return models.PlatformFacebook
}

func (a *facebookAdapter) EnsureValidToken(ctx context.Context, conn *models.Connection) (string, error) {
	return a.creds.ensure(ctx, conn, nil)
}

// connectionMetadata is the platform extras stored on a Facebook Page
// connection: which Instagram business account the Page is linked to.
type connectionMetadata struct {
	InstagramBusinessID string `json:"instagram_business_id"`
}

func (a *facebookAdapter) Publish(ctx context.Context, conn *models.Connection, content ContentItem, opts PublishOptions) PublishResult {
	var meta connectionMetadata
	if conn.Metadata != "" {
		if err := json.Unmarshal([]byte(conn.Metadata), &meta); err != nil {
			return publishFailure(fmt.Errorf("invalid connection metadata: %w", err))
		}
	}
	if meta.InstagramBusinessID == "" {
		return publishFailure(fmt.Errorf("facebook page connection has no linked instagram business account"))
	}

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

	mediaID, err := a.pub.publishMedia(ctx, meta.InstagramBusinessID, accessToken, media)
	if err != nil {
		return publishFailure(err)
	}

	permalink, err := a.graph.MediaPermalink(ctx, mediaID, accessToken)
	if err != nil {
		slog.Info(err.Error())
	}

	return PublishResult{
		Success:        true,
		PlatformPostID: mediaID,
		PlatformURL:    permalink,
	}
}
