package storage

import (
	"context"
	"fmt"
	"io"
)

type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// Archiver stores finished-tournament documents in object storage.
type Archiver interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	GetPublicURL(key string) string
}

// TournamentArchiveKey is where the final report of a tournament is stored.
func TournamentArchiveKey(tournamentID int) string {
	return fmt.Sprintf("tournaments/%d/final.json", tournamentID)
}

type noopArchiver struct{}

// NewNoopArchiver returns an Archiver that drops every upload. It is used when object
// storage is not configured.
func NewNoopArchiver() Archiver {
	return noopArchiver{}
}

func (noopArchiver) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	return &UploadResult{Key: key}, nil
}

func (noopArchiver) GetPublicURL(key string) string {
	return ""
}
