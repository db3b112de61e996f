package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/starford/scribe/internal/checksum"
	"github.com/starford/scribe/internal/models"
	"github.com/starford/scribe/internal/slug"
)

// Feed reads posts from an RSS, Atom or JSON feed given as a URL or a file
// path.
type Feed struct {
	location string
	client   *http.Client
	log      *slog.Logger
}

// NewFeed returns a feed source. client may be nil.
func NewFeed(location string, client *http.Client, log *slog.Logger) *Feed {
	if log == nil {
		log = slog.Default()
	}
	return &Feed{location: location, client: client, log: log}
}

// Documents parses the feed; each item becomes an HTML document.
func (f *Feed) Documents(ctx context.Context) ([]models.Document, error) {
	fp := gofeed.NewParser()
	if f.client != nil {
		fp.Client = f.client
	}

	var feed *gofeed.Feed
	var err error
	if strings.HasPrefix(f.location, "http://") || strings.HasPrefix(f.location, "https://") {
		feed, err = fp.ParseURLWithContext(f.location, ctx)
	} else {
		var file *os.File
		file, err = os.Open(f.location)
		if err != nil {
			return nil, fmt.Errorf("source: open feed: %w", err)
		}
		defer file.Close()
		feed, err = fp.Parse(file)
	}
	if err != nil {
		return nil, fmt.Errorf("source: parse feed: %w", err)
	}

	docs := make([]models.Document, 0, len(feed.Items))
	for _, item := range feed.Items {
		if doc, ok := itemDocument(item); ok {
			docs = append(docs, doc)
		}
	}
	f.log.Info("source: feed loaded", slog.String("feed", feed.Title), slog.Int("count", len(docs)))
	return docs, nil
}

func itemDocument(item *gofeed.Item) (models.Document, bool) {
	body := item.Content
	if body == "" {
		body = item.Description
	}
	if strings.TrimSpace(item.Title) == "" && body == "" {
		return models.Document{}, false
	}

	var m models.Metadata
	if item.Title != "" {
		m.Set(models.KeyTitle, models.StringValue(item.Title))
	}
	switch {
	case item.PublishedParsed != nil:
		m.Set(models.KeyDate, models.DateValue(*item.PublishedParsed))
	case item.UpdatedParsed != nil:
		m.Set(models.KeyDate, models.DateValue(*item.UpdatedParsed))
	}
	if item.Content != "" && item.Description != "" {
		m.Set(models.KeyExcerpt, models.StringValue(item.Description))
	}
	if tags := models.NormalizeTags(item.Categories); len(tags) > 0 {
		m.Set(models.KeyTags, models.ListValue(tags))
	}

	id := firstNonEmpty(item.GUID, item.Link, item.Title)
	name := slug.Make(item.Title)
	if name == "" {
		name = slug.Fallback(id)
	}
	return models.Document{
		Metadata:       m,
		Body:           body,
		Representation: models.RepresentationHTML,
		SourcePath:     "feed/" + name,
		Checksum:       checksum.Sum([]byte(id + "\x00" + item.Updated + "\x00" + body)),
	}, true
}
