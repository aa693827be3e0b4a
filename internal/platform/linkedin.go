package platform

import (
	"bytes"
	"context"
	"encoding/json"
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
	linkedinTokenURL = "https://www.linkedin.com/oauth/v2/accessToken"
	linkedinPostURL  = "https://api.linkedin.com/v2/ugcPosts"
)

// linkedinAdapter is publish-only: it shares the detected content as a text
// post with the source URL appended.
type linkedinAdapter struct {
	cfg   *config.Config
	creds *Credentials
}

func NewLinkedinAdapter(cfg *config.Config, creds *Credentials) Publisher {
	return &linkedinAdapter{cfg: cfg, creds: creds}
}

func (a *linkedinAdapter) Platform() string {
	return models.PlatformLinkedin
}

func (a *linkedinAdapter) EnsureValidToken(ctx context.Context, conn *models.Connection) (string, error) {
	return a.creds.ensure(ctx, conn, a.refreshToken)
}

func (a *linkedinAdapter) refreshToken(ctx context.Context, refreshToken string) (*oauthToken, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)
	data.Set("client_id", a.cfg.LinkedinClientID)
	data.Set("client_secret", a.cfg.LinkedinClientSecret)

	req, err := http.NewRequestWithContext(ctx, "POST", linkedinTokenURL, strings.NewReader(data.Encode()))
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
		return nil, fmt.Errorf("linkedin token refresh returned status %d", resp.StatusCode)
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

func (a *linkedinAdapter) Publish(ctx context.Context, conn *models.Connection, content ContentItem, opts PublishOptions) PublishResult {
	accessToken, err := a.EnsureValidToken(ctx, conn)
	if err != nil {
		return publishFailure(err)
	}

	commentary := opts.Caption
	if content.URL != "" {
		commentary = commentary + "\n\n" + content.URL
	}

	visibility := "PUBLIC"
	if opts.Privacy == "connections" {
		visibility = "CONNECTIONS"
	}

	payload := map[string]interface{}{
		"author":         "urn:li:person:" + conn.AccountID,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]interface{}{
			"com.linkedin.ugc.ShareContent": map[string]interface{}{
				"shareCommentary": map[string]string{
					"text": commentary,
				},
				"shareMediaCategory": "NONE",
			},
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": visibility,
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return publishFailure(err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", linkedinPostURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return publishFailure(err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return publishFailure(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return publishFailure(fmt.Errorf("linkedin publish returned status %d: %s", resp.StatusCode, body))
	}

	postID := resp.Header.Get("X-RestLi-Id")
	result := PublishResult{
		Success:        true,
		PlatformPostID: postID,
	}
	if postID != "" {
		result.PlatformURL = "https://www.linkedin.com/feed/update/" + postID
	}
	return result
}
