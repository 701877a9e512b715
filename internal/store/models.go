package store

import "time"

type User struct {
	ID                string
	Username          string
	Email             string
	Name              string
	FigmaAccessToken  string
	FigmaRefreshToken string
	CreatedAt         time.Time
}

type Team struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Project struct {
	ID          string    `json:"id"`
	TeamID      string    `json:"teamId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	FileCount   int       `json:"fileCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type File struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"projectId"`
	TeamID       string    `json:"teamId"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	LastModified time.Time `json:"lastModified"`
	Version      string    `json:"version"`
	EditorType   string    `json:"editorType"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
