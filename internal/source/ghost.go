package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/starford/scribe/internal/checksum"
	"github.com/starford/scribe/internal/ghost"
	"github.com/starford/scribe/internal/models"
)

// postDocument maps a Ghost post to an HTML document. The description
// chain used by the serializer then picks custom excerpt, excerpt or
// plaintext before falling back to the title.
func postDocument(p ghost.Post) models.Document {
	var m models.Metadata
	m.Set(models.KeyTitle, models.StringValue(p.Title))
	if d, ok := models.ParseDate(p.PublishedAt); ok {
		m.Set(models.KeyDate, models.DateValue(d))
	}
	if ex := firstNonEmpty(p.CustomExcerpt, p.Excerpt, p.Plaintext); ex != "" {
		m.Set(models.KeyExcerpt, models.StringValue(ex))
	}
	if p.MetaDescription != "" {
		m.Set(models.KeyMetaDescription, models.StringValue(p.MetaDescription))
	}
	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		tags = append(tags, t.Name)
	}
	if tags = models.NormalizeTags(tags); len(tags) > 0 {
		m.Set(models.KeyTags, models.ListValue(tags))
	}

	name := p.Slug
	if name == "" {
		name = p.ID
	}
	return models.Document{
		Metadata:       m,
		Body:           p.HTML,
		Representation: models.RepresentationHTML,
		SourcePath:     "ghost/" + name,
		Checksum:       checksum.Sum([]byte(strings.Join([]string{p.Title, p.PublishedAt, p.UpdatedAt, p.HTML, m.String(models.KeyExcerpt), strings.Join(tags, ",")}, "\x00"))),
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

type exportFile struct {
	DB []struct {
		Data struct {
			Posts     []ghost.Post `json:"posts"`
			Tags      []ghost.Tag  `json:"tags"`
			PostsTags []struct {
				PostID string `json:"post_id"`
				TagID  string `json:"tag_id"`
			} `json:"posts_tags"`
		} `json:"data"`
	} `json:"db"`
}

// GhostExport reads published posts from a Ghost JSON site export.
type GhostExport struct {
	path string
	log  *slog.Logger
}

// NewGhostExport returns a source over the export file at path.
func NewGhostExport(path string, log *slog.Logger) *GhostExport {
	if log == nil {
		log = slog.Default()
	}
	return &GhostExport{path: path, log: log}
}

// Documents joins posts with their tags and keeps published posts.
func (g *GhostExport) Documents(ctx context.Context) ([]models.Document, error) {
	data, err := os.ReadFile(g.path)
	if err != nil {
		return nil, fmt.Errorf("source: read export: %w", err)
	}
	return parseExport(ctx, data, g.log)
}

func parseExport(ctx context.Context, data []byte, log *slog.Logger) ([]models.Document, error) {
	var exp exportFile
	if err := json.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("source: decode export: %w", err)
	}
	if len(exp.DB) == 0 {
		return nil, fmt.Errorf("source: invalid ghost export: missing db[0].data")
	}
	d := exp.DB[0].Data

	tagsByID := make(map[string]ghost.Tag, len(d.Tags))
	for _, t := range d.Tags {
		tagsByID[t.ID] = t
	}
	postTags := make(map[string][]ghost.Tag)
	for _, pt := range d.PostsTags {
		if t, ok := tagsByID[pt.TagID]; ok {
			postTags[pt.PostID] = append(postTags[pt.PostID], t)
		}
	}

	var docs []models.Document
	for _, p := range d.Posts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.Type != "post" || p.Status != "published" {
			continue
		}
		p.Tags = postTags[p.ID]
		docs = append(docs, postDocument(p))
	}
	log.Info("source: ghost export loaded", slog.Int("posts", len(d.Posts)), slog.Int("published", len(docs)))
	return docs, nil
}

// PostLister is the part of the Ghost client GhostAPI needs.
type PostLister interface {
	ListPosts(ctx context.Context) ([]ghost.Post, error)
}

// GhostAPI reads posts from a live Ghost site.
type GhostAPI struct {
	client PostLister
	log    *slog.Logger
}

// NewGhostAPI returns a source backed by client.
func NewGhostAPI(client PostLister, log *slog.Logger) *GhostAPI {
	if log == nil {
		log = slog.Default()
	}
	return &GhostAPI{client: client, log: log}
}

// Documents lists posts. Posts whose status is set and not published are
// skipped.
func (g *GhostAPI) Documents(ctx context.Context) ([]models.Document, error) {
	posts, err := g.client.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	docs := make([]models.Document, 0, len(posts))
	for _, p := range posts {
		if p.Status != "" && p.Status != "published" {
			continue
		}
		docs = append(docs, postDocument(p))
	}
	g.log.Info("source: ghost posts loaded", slog.Int("count", len(docs)))
	return docs, nil
}
