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
)

const (
	graphInstagramHost = "graph.instagram.com"
	graphFacebookHost  = "graph.facebook.com"
	graphAPIVersion    = "v21.0"

	// Documented pairing for "media not ready to publish"; distinct from
	// generic errors and retried with backoff.
	graphCodeMediaNotReady    = 9007
	graphSubcodeMediaNotReady = 2207027
)

// GraphError is a structured Graph API error response.
type GraphError struct {
	Message    string `json:"message"`
	Type       string `json:"type"`
	Code       int    `json:"code"`
	Subcode    int    `json:"error_subcode"`
	HTTPStatus int    `json:"-"`
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("graph api error %d (subcode %d, %s): %s", e.Code, e.Subcode, e.Type, e.Message)
}

// IsOAuthError reports whether err is an authorization-class Graph failure.
// These are never transient: retrying wastes the attempt budget and the user
// has to re-authorize.
func IsOAuthError(err error) bool {
	var ge *GraphError
	if !errors.As(err, &ge) {
		return false
	}
	if ge.Type == "OAuthException" {
		return true
	}
	return ge.Code == 190 || ge.Code == 102 || ge.HTTPStatus == http.StatusUnauthorized
}

// IsMediaNotReady reports the specific code+subcode pair Instagram returns
// when a finished container still cannot be published yet.
func IsMediaNotReady(err error) bool {
	var ge *GraphError
	if !errors.As(err, &ge) {
		return false
	}
	return ge.Code == graphCodeMediaNotReady && ge.Subcode == graphSubcodeMediaNotReady
}

type containerParams struct {
	ImageURL string
	VideoURL string
	Caption  string
}

// graphClient is the slice of the Graph API the container publish flow
// needs. The host is a parameter: graph.instagram.com for directly linked
// accounts, graph.facebook.com when publishing through a Page token.
type graphClient interface {
	CreateContainer(ctx context.Context, accountID, accessToken string, p containerParams) (string, error)
	ContainerStatus(ctx context.Context, containerID, accessToken string) (string, error)
	PublishContainer(ctx context.Context, accountID, containerID, accessToken string) (string, error)
	MediaPermalink(ctx context.Context, mediaID, accessToken string) (string, error)
}

type httpGraphClient struct {
	host   string
	client *http.Client
}

func newGraphClient(host string) *httpGraphClient {
	return &httpGraphClient{host: host, client: http.DefaultClient}
}

func (g *httpGraphClient) endpoint(path string) string {
	return fmt.Sprintf("https://%s/%s/%s", g.host, graphAPIVersion, path)
}

func (g *httpGraphClient) postJSON(ctx context.Context, endpoint string, payload map[string]interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshalling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	return decodeGraphResponse(resp, out)
}

func (g *httpGraphClient) get(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request error: %w", err)
	}
	defer resp.Body.Close()

	return decodeGraphResponse(resp, out)
}

func decodeGraphResponse(resp *http.Response, out interface{}) error {
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error GraphError `json:"error"`
		}
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			ge := errResp.Error
			ge.HTTPStatus = resp.StatusCode
			slog.Info(ge.Error())
			return &ge
		}
		return fmt.Errorf("unexpected status code from Graph API: %d", resp.StatusCode)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("error parsing response: %w", err)
	}
	return nil
}

func (g *httpGraphClient) CreateContainer(ctx context.Context, accountID, accessToken string, p containerParams) (string, error) {
	payload := map[string]interface{}{
		"caption":      p.Caption,
		"access_token": accessToken,
	}
	if p.VideoURL != "" {
		payload["media_type"] = "REELS"
		payload["video_url"] = p.VideoURL
	} else {
		payload["image_url"] = p.ImageURL
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := g.postJSON(ctx, g.endpoint(accountID+"/media"), payload, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", errors.New("no container ID returned from Graph API")
	}
	return result.ID, nil
}

func (g *httpGraphClient) ContainerStatus(ctx context.Context, containerID, accessToken string) (string, error) {
	endpoint := fmt.Sprintf("%s?fields=status_code&access_token=%s",
		g.endpoint(containerID), url.QueryEscape(accessToken))

	var result struct {
		StatusCode string `json:"status_code"`
	}
	if err := g.get(ctx, endpoint, &result); err != nil {
		return "", err
	}
	return result.StatusCode, nil
}

func (g *httpGraphClient) PublishContainer(ctx context.Context, accountID, containerID, accessToken string) (string, error) {
	payload := map[string]interface{}{
		"creation_id":  containerID,
		"access_token": accessToken,
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := g.postJSON(ctx, g.endpoint(accountID+"/media_publish"), payload, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", errors.New("no media ID returned from Graph API")
	}
	return result.ID, nil
}

func (g *httpGraphClient) MediaPermalink(ctx context.Context, mediaID, accessToken string) (string, error) {
	endpoint := fmt.Sprintf("%s?fields=permalink&access_token=%s",
		g.endpoint(mediaID), url.QueryEscape(accessToken))

	var result struct {
		Permalink string `json:"permalink"`
	}
	if err := g.get(ctx, endpoint, &result); err != nil {
		return "", err
	}
	return result.Permalink, nil
}
