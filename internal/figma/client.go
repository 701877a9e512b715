// Package figma is a thin client for the third-party design API: bearer
// token metadata listing plus the OAuth code exchange. The collaboration
// layer never touches it; it only serves the catalog handlers.
package figma

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	apiBase   string
	oauthBase string
	http      *http.Client
}

func New(apiBase, oauthBase string) *Client {
	return &Client{
		apiBase:   strings.TrimSuffix(apiBase, "/"),
		oauthBase: strings.TrimSuffix(oauthBase, "/"),
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

// Project is one project within a team.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// File is one design file within a project.
type File struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	ThumbnailURL string `json:"thumbnail_url"`
	LastModified string `json:"last_modified"`
}

// Tokens is the OAuth code-exchange result.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// TeamProjects lists the projects of a team on behalf of the token owner.
func (c *Client) TeamProjects(ctx context.Context, token, teamID string) ([]Project, error) {
	var out struct {
		Projects []Project `json:"projects"`
	}
	if err := c.get(ctx, token, "/teams/"+url.PathEscape(teamID)+"/projects", &out); err != nil {
		return nil, err
	}
	return out.Projects, nil
}

// ProjectFiles lists the files of a project on behalf of the token owner.
func (c *Client) ProjectFiles(ctx context.Context, token, projectID string) ([]File, error) {
	var out struct {
		Files []File `json:"files"`
	}
	if err := c.get(ctx, token, "/projects/"+url.PathEscape(projectID)+"/files", &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

// AuthURL builds the provider authorization URL for the OAuth flow.
func (c *Client) AuthURL(clientID, redirectURI string) string {
	return fmt.Sprintf("%s/oauth?client_id=%s&redirect_uri=%s&scope=file_read&response_type=code",
		c.oauthBase, url.QueryEscape(clientID), url.QueryEscape(redirectURI))
}

// ExchangeCode trades an OAuth authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, clientID, clientSecret, redirectURI, code string) (Tokens, error) {
	form := url.Values{
		"client_id":     {clientID},
		"client_secret": {clientSecret},
		"redirect_uri":  {redirectURI},
		"code":          {code},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauthBase+"/api/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return Tokens{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return Tokens{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Tokens{}, fmt.Errorf("oauth token exchange: %s", resp.Status)
	}

	var t Tokens
	if err := json.NewDecoder(resp.Body).Decode(&t); err != nil {
		return Tokens{}, err
	}
	return t, nil
}

func (c *Client) get(ctx context.Context, token, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Figma-Token", token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("design api: %s %s", endpoint, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
