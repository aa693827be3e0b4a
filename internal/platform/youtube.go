package platform

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	config "github.com/maheshrc27/crossflow/configs"
	"github.com/maheshrc27/crossflow/internal/models"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// youtubeAdapter is one of the two pollable platforms: it both lists a
// channel's new uploads and publishes videos.
type youtubeAdapter struct {
	cfg   *config.Config
	creds *Credentials
}

func NewYoutubeAdapter(cfg *config.Config, creds *Credentials) Lister {
	return &youtubeAdapter{cfg: cfg, creds: creds}
}

func (a *youtubeAdapter) Platform() string {
	return models.PlatformYoutube
}

func (a *youtubeAdapter) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     a.cfg.GoogleClientID,
		ClientSecret: a.cfg.GoogleClientSecret,
		Scopes: []string{
			"https://www.googleapis.com/auth/youtube.readonly",
			"https://www.googleapis.com/auth/youtube.upload",
		},
		Endpoint: google.Endpoint,
	}
}

func (a *youtubeAdapter) EnsureValidToken(ctx context.Context, conn *models.Connection) (string, error) {
	return a.creds.ensure(ctx, conn, a.refreshToken)
}

func (a *youtubeAdapter) refreshToken(ctx context.Context, refreshToken string) (*oauthToken, error) {
	tokenSource := a.oauthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})

	token, err := tokenSource.Token()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &oauthToken{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}, nil
}

func (a *youtubeAdapter) service(ctx context.Context, accessToken string) (*youtube.Service, error) {
	token := &oauth2.Token{AccessToken: accessToken}
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	return youtube.NewService(ctx, option.WithHTTPClient(client))
}

func (a *youtubeAdapter) ListSince(ctx context.Context, conn *models.Connection, since time.Time) ([]ContentItem, error) {
	accessToken, err := a.EnsureValidToken(ctx, conn)
	if err != nil {
		return nil, err
	}

	service, err := a.service(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("error creating YouTube service: %w", err)
	}

	call := service.Search.List([]string{"snippet"}).
		ForMine(true).
		Type("video").
		Order("date").
		PublishedAfter(since.UTC().Format(time.RFC3339)).
		MaxResults(25)

	response, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("error listing channel uploads: %w", err)
	}

	var items []ContentItem
	for _, result := range response.Items {
		if result.Id == nil || result.Id.VideoId == "" || result.Snippet == nil {
			continue
		}

		publishedAt, err := time.Parse(time.RFC3339, result.Snippet.PublishedAt)
		if err != nil {
			publishedAt = time.Now()
		}

		item := ContentItem{
			ExternalID:  result.Id.VideoId,
			Type:        models.ContentTypeVideo,
			Title:       result.Snippet.Title,
			Caption:     result.Snippet.Description,
			URL:         "https://www.youtube.com/watch?v=" + result.Id.VideoId,
			PublishedAt: publishedAt,
		}
		if result.Snippet.Thumbnails != nil && result.Snippet.Thumbnails.High != nil {
			item.ThumbnailURL = result.Snippet.Thumbnails.High.Url
		}
		items = append(items, item)
	}

	return items, nil
}

func (a *youtubeAdapter) Publish(ctx context.Context, conn *models.Connection, content ContentItem, opts PublishOptions) PublishResult {
	accessToken, err := a.EnsureValidToken(ctx, conn)
	if err != nil {
		return publishFailure(err)
	}

	mediaURL := opts.MediaURL
	if mediaURL == "" {
		mediaURL = content.MediaURL
	}
	if mediaURL == "" {
		return publishFailure(fmt.Errorf("no media URL available for youtube publish"))
	}

	service, err := a.service(ctx, accessToken)
	if err != nil {
		return publishFailure(fmt.Errorf("error creating YouTube service: %w", err))
	}

	videoID, err := a.uploadVideoFromURL(ctx, service, mediaURL, opts)
	if err != nil {
		return publishFailure(err)
	}

	return PublishResult{
		Success:        true,
		PlatformPostID: videoID,
		PlatformURL:    "https://youtu.be/" + videoID,
	}
}

func (a *youtubeAdapter) uploadVideoFromURL(ctx context.Context, service *youtube.Service, mediaURL string, opts PublishOptions) (string, error) {
	tempFile, err := downloadToTempFile(ctx, mediaURL)
	if err != nil {
		return "", err
	}
	defer os.Remove(tempFile)

	file, err := os.Open(tempFile)
	if err != nil {
		return "", fmt.Errorf("error opening video file: %w", err)
	}
	defer file.Close()

	privacy := opts.Privacy
	if privacy == "" {
		privacy = "public"
	}

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       opts.Title,
			Description: opts.Caption,
			Tags:        opts.Tags,
			CategoryId:  "22",
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus: privacy,
		},
	}

	call := service.Videos.Insert([]string{"snippet", "status"}, video)
	response, err := call.Media(file).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("error uploading video: %w", err)
	}

	return response.Id, nil
}

func downloadToTempFile(ctx context.Context, mediaURL string) (string, error) {
	tempFile, err := os.CreateTemp("", "video-*.mp4")
	if err != nil {
		return "", fmt.Errorf("error creating temporary file: %w", err)
	}
	defer tempFile.Close()

	req, err := http.NewRequestWithContext(ctx, "GET", mediaURL, nil)
	if err != nil {
		return "", err
	}

	response, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error downloading media: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected response status: %d", response.StatusCode)
	}

	_, err = io.Copy(tempFile, response.Body)
	if err != nil {
		return "", fmt.Errorf("error saving media to temporary file: %w", err)
	}

	return tempFile.Name(), nil
}
