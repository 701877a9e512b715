package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// The catalog tables mirror what the design API reports: teams,
// projects, and files. They are a cache of the API's view, not an
// authority; rows are upserted whenever the API is consulted.

// GetTeam fetches a team record.
func (p *Postgres) GetTeam(ctx context.Context, id string) (Team, error) {
	row := p.pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(description, ''), created_at, updated_at
		FROM teams WHERE id = $1
	`, id)

	var t Team
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Team{}, ErrNotFound
	}
	return t, err
}

// CreateTeam inserts a team placeholder; repeated ids are tolerated.
func (p *Postgres) CreateTeam(ctx context.Context, id, name, description string) (Team, error) {
	row := p.pool.QueryRow(ctx, `
		INSERT INTO teams (id, name, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET updated_at = NOW()
		RETURNING id, name, COALESCE(description, ''), created_at, updated_at
	`, id, name, description)

	var t Team
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// ProjectsByTeam returns the cached projects of a team.
func (p *Postgres) ProjectsByTeam(ctx context.Context, teamID string) ([]Project, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, team_id, name, COALESCE(description, ''), file_count, created_at, updated_at
		FROM projects WHERE team_id = $1
		ORDER BY name
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var pr Project
		if err := rows.Scan(&pr.ID, &pr.TeamID, &pr.Name, &pr.Description, &pr.FileCount, &pr.CreatedAt, &pr.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}

// UpsertProject caches one project as reported by the design API.
func (p *Postgres) UpsertProject(ctx context.Context, pr Project) (Project, error) {
	row := p.pool.QueryRow(ctx, `
		INSERT INTO projects (id, team_id, name, description, file_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, updated_at = NOW()
		RETURNING id, team_id, name, COALESCE(description, ''), file_count, created_at, updated_at
	`, pr.ID, pr.TeamID, pr.Name, pr.Description, pr.FileCount)

	var out Project
	err := row.Scan(&out.ID, &out.TeamID, &out.Name, &out.Description, &out.FileCount, &out.CreatedAt, &out.UpdatedAt)
	return out, err
}

// SetProjectFileCount records the file total seen on the last listing.
func (p *Postgres) SetProjectFileCount(ctx context.Context, projectID string, n int) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE projects SET file_count = $2, updated_at = NOW() WHERE id = $1
	`, projectID, n)
	return err
}

const fileCols = `id, COALESCE(project_id, ''), team_id, name, COALESCE(description, ''),
	COALESCE(thumbnail_url, ''), COALESCE(last_modified, to_timestamp(0)),
	COALESCE(version, ''), COALESCE(editor_type, ''), created_at, updated_at`

func (p *Postgres) scanFiles(rows pgx.Rows) ([]File, error) {
	defer rows.Close()
	var out []File
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.TeamID, &f.Name, &f.Description,
			&f.ThumbnailURL, &f.LastModified, &f.Version, &f.EditorType, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// FilesByProject returns the cached files of a project.
func (p *Postgres) FilesByProject(ctx context.Context, projectID string) ([]File, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+fileCols+` FROM files WHERE project_id = $1 ORDER BY last_modified DESC
	`, projectID)
	if err != nil {
		return nil, err
	}
	return p.scanFiles(rows)
}

// FilesByTeam returns every cached file of a team.
func (p *Postgres) FilesByTeam(ctx context.Context, teamID string) ([]File, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+fileCols+` FROM files WHERE team_id = $1 ORDER BY last_modified DESC
	`, teamID)
	if err != nil {
		return nil, err
	}
	return p.scanFiles(rows)
}

// RecentFilesByTeam returns the team's most recently modified files.
func (p *Postgres) RecentFilesByTeam(ctx context.Context, teamID string, limit int) ([]File, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+fileCols+` FROM files WHERE team_id = $1 ORDER BY last_modified DESC LIMIT $2
	`, teamID, limit)
	if err != nil {
		return nil, err
	}
	return p.scanFiles(rows)
}

// UpsertFile caches one file as reported by the design API.
func (p *Postgres) UpsertFile(ctx context.Context, f File) (File, error) {
	if f.LastModified.IsZero() {
		f.LastModified = time.Unix(0, 0)
	}
	row := p.pool.QueryRow(ctx, `
		INSERT INTO files (id, project_id, team_id, name, description, thumbnail_url, last_modified, version, editor_type)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, thumbnail_url = EXCLUDED.thumbnail_url,
		    last_modified = EXCLUDED.last_modified, updated_at = NOW()
		RETURNING `+fileCols,
		f.ID, f.ProjectID, f.TeamID, f.Name, f.Description, f.ThumbnailURL, f.LastModified, f.Version, f.EditorType)

	var out File
	err := row.Scan(&out.ID, &out.ProjectID, &out.TeamID, &out.Name, &out.Description,
		&out.ThumbnailURL, &out.LastModified, &out.Version, &out.EditorType, &out.CreatedAt, &out.UpdatedAt)
	return out, err
}
