package store

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("not found")

// normEmail trims and lowercases the email (needed if DB col isnt citext)
func normEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

const userCols = `id, username, email, name,
	COALESCE(figma_access_token, ''), COALESCE(figma_refresh_token, ''), created_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Name,
		&u.FigmaAccessToken, &u.FigmaRefreshToken, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

// GetUser fetches a user by id.
func (p *Postgres) GetUser(ctx context.Context, id string) (User, error) {
	return scanUser(p.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

// GetUserByEmail fetches a user by normalized email.
func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(p.pool.QueryRow(ctx, `SELECT `+userCols+` FROM users WHERE email = $1`, normEmail(email)))
}

// CreateUser inserts a new user; username and name default to the email
// local part the way the editor's login flow does.
func (p *Postgres) CreateUser(ctx context.Context, email, accessToken, refreshToken string) (User, error) {
	email = normEmail(email)
	if email == "" {
		return User{}, errors.New("missing email")
	}
	local, _, _ := strings.Cut(email, "@")

	return scanUser(p.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, name, figma_access_token, figma_refresh_token)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))
		RETURNING `+userCols, local, email, local, accessToken, refreshToken))
}

// UpdateUserTokens replaces a user's design-API tokens. An empty
// refresh token leaves the stored one alone.
func (p *Postgres) UpdateUserTokens(ctx context.Context, id, accessToken, refreshToken string) (User, error) {
	return scanUser(p.pool.QueryRow(ctx, `
		UPDATE users
		SET figma_access_token = $2,
		    figma_refresh_token = COALESCE(NULLIF($3, ''), figma_refresh_token)
		WHERE id = $1
		RETURNING `+userCols, id, accessToken, refreshToken))
}

// UpsertUserByEmail creates the user on first login or refreshes their
// tokens on a repeat login.
func (p *Postgres) UpsertUserByEmail(ctx context.Context, email, accessToken, refreshToken string) (User, error) {
	u, err := p.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return p.CreateUser(ctx, email, accessToken, refreshToken)
	}
	if err != nil {
		return User{}, err
	}
	return p.UpdateUserTokens(ctx, u.ID, accessToken, refreshToken)
}
