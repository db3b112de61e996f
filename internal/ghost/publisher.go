package ghost

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/models"
	"github.com/starford/scribe/internal/transcode"
)

// Post statuses accepted by Ghost.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

const customExcerptLimit = 300

// Publisher is a transcode.Sink that creates one Ghost post per document.
// Documents must carry an HTML body.
type Publisher struct {
	client *Client
	status string
}

var _ transcode.Sink = (*Publisher)(nil)

// NewPublisher returns a Publisher creating posts with the given status.
func NewPublisher(c *Client, status string) *Publisher {
	if status == "" {
		status = StatusDraft
	}
	return &Publisher{client: c, status: status}
}

// Write creates the post.
func (p *Publisher) Write(ctx context.Context, out transcode.Output) error {
	doc := out.Document
	if doc.Representation != models.RepresentationHTML {
		return fmt.Errorf("%w: ghost posts need an html body, got %s", apperr.ErrUnsupported, doc.Representation)
	}
	_, err := p.client.CreatePost(ctx, p.post(out))
	return err
}

func (p *Publisher) post(out transcode.Output) Post {
	m := out.Document.Metadata
	post := Post{
		Title:  m.Title(),
		Slug:   out.Slug,
		HTML:   out.Document.Body,
		Status: p.status,
	}
	for _, key := range []string{models.KeyExcerpt, models.KeyDescription} {
		if s := m.String(key); s != "" {
			if utf8.RuneCountInString(s) > customExcerptLimit {
				s = string([]rune(s)[:customExcerptLimit])
			}
			post.CustomExcerpt = s
			break
		}
	}
	for _, tag := range m.Tags() {
		post.Tags = append(post.Tags, Tag{Name: tag})
	}
	if d, ok := m.Date(); ok {
		post.PublishedAt = d.Format(time.RFC3339)
	}
	return post
}
