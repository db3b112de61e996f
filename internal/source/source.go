// Package source reads documents from the places posts live: a content
// directory, a Ghost JSON export, the Ghost API and RSS/Atom feeds.
package source

import (
	"context"

	"github.com/starford/scribe/internal/models"
)

// Source yields the documents of one input.
type Source interface {
	Documents(ctx context.Context) ([]models.Document, error)
}

// Kinds of source accepted in configuration.
const (
	KindFiles       = "files"
	KindGhostExport = "ghost-export"
	KindGhostAPI    = "ghost-api"
	KindFeed        = "feed"
)

// Kinds lists the accepted source kinds.
var Kinds = []string{KindFiles, KindGhostExport, KindGhostAPI, KindFeed}
