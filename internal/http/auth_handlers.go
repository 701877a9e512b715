package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"designforge/internal/app"
	"designforge/internal/figma"
	"designforge/internal/store"
	"designforge/pkg/auth"
)

type AuthAPI struct {
	Cfg   app.Config
	DB    *store.Postgres
	Figma *figma.Client
	JWT   *auth.JWT
}

type loginReq struct {
	Email            string `json:"email"`
	FigmaAccessToken string `json:"figmaAccessToken"`
}

type callbackReq struct {
	Code  string `json:"code"`
	Email string `json:"email"`
}

type userDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

type tokenResp struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

func toUserDTO(u store.User) userDTO {
	// Design-API tokens are never echoed back.
	return userDTO{ID: u.ID, Username: u.Username, Email: u.Email, Name: u.Name}
}

// Login upserts the user from an email + design-API token pair and
// returns a 24h JWT. There is no password: possession of a working API
// token is the credential.
func (a *AuthAPI) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if !strings.Contains(req.Email, "@") || req.FigmaAccessToken == "" {
		http.Error(w, "email and figmaAccessToken required", http.StatusBadRequest)
		return
	}

	u, err := a.DB.UpsertUserByEmail(r.Context(), req.Email, req.FigmaAccessToken, "")
	if err != nil {
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	tok, _ := a.JWT.Sign(u.ID, 24*time.Hour)
	writeJSON(w, tokenResp{Token: tok, User: toUserDTO(u)})
}

// FigmaAuthURL returns the provider authorization URL for the OAuth flow.
func (a *AuthAPI) FigmaAuthURL(w http.ResponseWriter, _ *http.Request) {
	if a.Cfg.FigmaClientID == "" {
		http.Error(w, "oauth not configured", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{
		"authUrl": a.Figma.AuthURL(a.Cfg.FigmaClientID, a.Cfg.FigmaRedirectURI),
	})
}

// FigmaCallback exchanges an OAuth code for tokens and upserts the user.
func (a *AuthAPI) FigmaCallback(w http.ResponseWriter, r *http.Request) {
	var req callbackReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" || !strings.Contains(req.Email, "@") {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}
	if a.Cfg.FigmaClientID == "" || a.Cfg.FigmaClientSecret == "" {
		http.Error(w, "oauth not configured", http.StatusInternalServerError)
		return
	}

	toks, err := a.Figma.ExchangeCode(r.Context(), a.Cfg.FigmaClientID, a.Cfg.FigmaClientSecret, a.Cfg.FigmaRedirectURI, req.Code)
	if err != nil {
		http.Error(w, "token exchange failed", http.StatusBadRequest)
		return
	}

	u, err := a.DB.UpsertUserByEmail(r.Context(), req.Email, toks.AccessToken, toks.RefreshToken)
	if err != nil {
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	tok, _ := a.JWT.Sign(u.ID, 24*time.Hour)
	writeJSON(w, tokenResp{Token: tok, User: toUserDTO(u)})
}

// Me returns the authenticated user.
func (a *AuthAPI) Me(w http.ResponseWriter, r *http.Request) {
	uid := auth.UserID(r.Context())
	if uid == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	u, err := a.DB.GetUser(r.Context(), uid)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, toUserDTO(u))
}

// send JSON with proper headers
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
