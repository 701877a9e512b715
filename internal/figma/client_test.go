package figma_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"designforge/internal/figma"
)

func TestTeamProjects(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/teams/t1/projects", r.URL.Path)
		require.Equal(t, "tok-abc", r.Header.Get("X-Figma-Token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"projects":[{"id":"p1","name":"Website"},{"id":"p2","name":"App"}]}`))
	}))
	defer srv.Close()

	c := figma.New(srv.URL, srv.URL)
	projects, err := c.TeamProjects(context.Background(), "tok-abc", "t1")
	require.NoError(t, err)
	require.Len(t, projects, 2)
	require.Equal(t, "Website", projects[0].Name)
}

func TestProjectFiles(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/projects/p1/files", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"files":[{"key":"f1","name":"Home","thumbnail_url":"http://x/t.png","last_modified":"2024-05-01T12:00:00Z"}]}`))
	}))
	defer srv.Close()

	c := figma.New(srv.URL, srv.URL)
	files, err := c.ProjectFiles(context.Background(), "tok", "p1")
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "f1", files[0].Key)
	require.Equal(t, "http://x/t.png", files[0].ThumbnailURL)
}

func TestAPIErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	c := figma.New(srv.URL, srv.URL)
	_, err := c.TeamProjects(context.Background(), "bad-token", "t1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "403")
}

func TestExchangeCode(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/oauth/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		require.Equal(t, "code-1", r.PostForm.Get("code"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_in":3600}`))
	}))
	defer srv.Close()

	c := figma.New(srv.URL, srv.URL)
	toks, err := c.ExchangeCode(context.Background(), "cid", "secret", "http://cb", "code-1")
	require.NoError(t, err)
	require.Equal(t, "at", toks.AccessToken)
	require.Equal(t, "rt", toks.RefreshToken)
}

func TestAuthURL(t *testing.T) {
	t.Parallel()

	c := figma.New("https://api.example.com/v1", "https://www.example.com")
	u := c.AuthURL("cid", "http://localhost:5000/auth/callback")
	require.Contains(t, u, "https://www.example.com/oauth?")
	require.Contains(t, u, "client_id=cid")
	require.Contains(t, u, "scope=file_read")
	require.Contains(t, u, "response_type=code")
}
