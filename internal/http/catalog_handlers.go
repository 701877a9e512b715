package httpx

import (
	"errors"
	"net/http"
	"time"

	"log/slog"

	"designforge/internal/figma"
	"designforge/internal/store"
	"designforge/pkg/auth"
)

// CatalogAPI serves team/project/file metadata with a cache-aside read
// path: redis, then postgres, then the design API. API results are
// written back to both stores; an API failure degrades to an empty
// list, never an error to the caller.
type CatalogAPI struct {
	DB    *store.Postgres
	Cache *store.Cache
	Figma *figma.Client
	Log   *slog.Logger
}

// figmaToken loads the calling user's design-API token, or writes 401.
func (a *CatalogAPI) figmaToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid := auth.UserID(r.Context())
	u, err := a.DB.GetUser(r.Context(), uid)
	if err != nil || u.FigmaAccessToken == "" {
		http.Error(w, "not authenticated with design provider", http.StatusUnauthorized)
		return "", false
	}
	return u.FigmaAccessToken, true
}

// GetTeam returns the team record, creating a placeholder on first
// sight. The design API exposes no team-details endpoint, so the
// placeholder name is derived from the id.
func (a *CatalogAPI) GetTeam(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("teamId")
	if _, ok := a.figmaToken(w, r); !ok {
		return
	}

	team, err := a.DB.GetTeam(r.Context(), teamID)
	if errors.Is(err, store.ErrNotFound) {
		tail := teamID
		if len(tail) > 8 {
			tail = tail[len(tail)-8:]
		}
		team, err = a.DB.CreateTeam(r.Context(), teamID, "Team "+tail, "Design team")
	}
	if err != nil {
		http.Error(w, "failed to get team", http.StatusInternalServerError)
		return
	}
	writeJSON(w, team)
}

// ListTeamProjects returns a team's projects via the cache-aside path.
func (a *CatalogAPI) ListTeamProjects(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("teamId")
	token, ok := a.figmaToken(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	var projects []store.Project
	if a.Cache.GetJSON(ctx, store.TeamProjectsKey(teamID), &projects) {
		writeJSON(w, projects)
		return
	}

	projects, err := a.DB.ProjectsByTeam(ctx, teamID)
	if err != nil {
		http.Error(w, "failed to list projects", http.StatusInternalServerError)
		return
	}

	if len(projects) == 0 {
		remote, err := a.Figma.TeamProjects(ctx, token, teamID)
		if err != nil {
			// Degrade to an empty listing; the origin being down is
			// not the caller's problem.
			a.Log.Warn("catalog.projects.origin", "team", teamID, "err", err)
			writeJSON(w, []store.Project{})
			return
		}
		for _, rp := range remote {
			p, err := a.DB.UpsertProject(ctx, store.Project{ID: rp.ID, TeamID: teamID, Name: rp.Name})
			if err != nil {
				a.Log.Warn("catalog.projects.cache_write", "project", rp.ID, "err", err)
				continue
			}
			projects = append(projects, p)
		}
	}

	if projects == nil {
		projects = []store.Project{}
	}
	a.Cache.SetJSON(ctx, store.TeamProjectsKey(teamID), projects)
	writeJSON(w, projects)
}

// ListProjectFiles returns a project's files via the cache-aside path.
func (a *CatalogAPI) ListProjectFiles(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("projectId")
	token, ok := a.figmaToken(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	var files []store.File
	if a.Cache.GetJSON(ctx, store.ProjectFilesKey(projectID), &files) {
		writeJSON(w, files)
		return
	}

	files, err := a.DB.FilesByProject(ctx, projectID)
	if err != nil {
		http.Error(w, "failed to list files", http.StatusInternalServerError)
		return
	}

	if len(files) == 0 {
		remote, err := a.Figma.ProjectFiles(ctx, token, projectID)
		if err != nil {
			a.Log.Warn("catalog.files.origin", "project", projectID, "err", err)
			writeJSON(w, []store.File{})
			return
		}
		teamID := r.URL.Query().Get("teamId")
		for _, rf := range remote {
			lm, _ := time.Parse(time.RFC3339, rf.LastModified)
			f, err := a.DB.UpsertFile(ctx, store.File{
				ID:           rf.Key,
				ProjectID:    projectID,
				TeamID:       teamID,
				Name:         rf.Name,
				ThumbnailURL: rf.ThumbnailURL,
				LastModified: lm,
				Version:      "1.0",
				EditorType:   "figma",
			})
			if err != nil {
				a.Log.Warn("catalog.files.cache_write", "file", rf.Key, "err", err)
				continue
			}
			files = append(files, f)
		}
		if err := a.DB.SetProjectFileCount(ctx, projectID, len(files)); err != nil {
			a.Log.Debug("catalog.files.count", "project", projectID, "err", err)
		}
	}

	if files == nil {
		files = []store.File{}
	}
	a.Cache.SetJSON(ctx, store.ProjectFilesKey(projectID), files)
	writeJSON(w, files)
}

// ListTeamFiles returns a team's cached files; ?recent=true limits to
// the eight most recently modified.
func (a *CatalogAPI) ListTeamFiles(w http.ResponseWriter, r *http.Request) {
	teamID := r.PathValue("teamId")
	if _, ok := a.figmaToken(w, r); !ok {
		return
	}

	var (
		files []store.File
		err   error
	)
	if r.URL.Query().Get("recent") == "true" {
		files, err = a.DB.RecentFilesByTeam(r.Context(), teamID, 8)
	} else {
		files, err = a.DB.FilesByTeam(r.Context(), teamID)
	}
	if err != nil {
		http.Error(w, "failed to list team files", http.StatusInternalServerError)
		return
	}
	if files == nil {
		files = []store.File{}
	}
	writeJSON(w, files)
}
