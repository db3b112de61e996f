package uploader

import (
	"context"
	"log/slog"
)

// ImageAPI uploads a file and returns its public URL.
type ImageAPI interface {
	UploadImage(ctx context.Context, path string) (string, error)
}

// Ghost uploads images through the Ghost Admin API.
type Ghost struct {
	api ImageAPI
	log *slog.Logger
}

// NewGhost returns a Ghost uploader.
func NewGhost(api ImageAPI, log *slog.Logger) *Ghost {
	if log == nil {
		log = slog.Default()
	}
	return &Ghost{api: api, log: log}
}

// Upload sends localPath to Ghost.
func (g *Ghost) Upload(ctx context.Context, localPath string) (string, error) {
	u, err := g.api.UploadImage(ctx, localPath)
	if err != nil {
		return "", err
	}
	g.log.Info("uploader: image uploaded", slog.String("path", localPath), slog.String("url", u))
	return u, nil
}
