// Package ghost talks to the Ghost Admin and Content APIs: it lists posts,
// creates posts from HTML and uploads images.
package ghost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/gabriel-vasile/mimetype"
)

// APIError is a non-2xx answer from Ghost.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("ghost: status %d: %s", e.Status, body)
}

// Tag is a Ghost tag.
type Tag struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

// Post is the subset of a Ghost post scribe reads and writes. The same
// shape appears in API responses and in JSON site exports.
type Post struct {
	ID              string `json:"id,omitempty"`
	Title           string `json:"title"`
	Slug            string `json:"slug,omitempty"`
	HTML            string `json:"html,omitempty"`
	Plaintext       string `json:"plaintext,omitempty"`
	Excerpt         string `json:"excerpt,omitempty"`
	CustomExcerpt   string `json:"custom_excerpt,omitempty"`
	MetaDescription string `json:"meta_description,omitempty"`
	Status          string `json:"status,omitempty"`
	Type            string `json:"type,omitempty"`
	PublishedAt     string `json:"published_at,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
	URL             string `json:"url,omitempty"`
	Tags            []Tag  `json:"tags,omitempty"`
}

type postsEnvelope struct {
	Posts []Post `json:"posts"`
}

// Client is a Ghost API client. Admin calls need an admin key; ListPosts
// falls back to the Content API when only a content key is set.
type Client struct {
	baseURL    string
	adminKey   string
	contentKey string
	http       *http.Client
	now        func() time.Time
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithAdminKey sets the Admin API key ("id:secret").
func WithAdminKey(key string) Option {
	return func(c *Client) { c.adminKey = key }
}

// WithContentKey sets the Content API key.
func WithContentKey(key string) Option {
	return func(c *Client) { c.contentKey = key }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient returns a client for the site at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = NewHTTPClient(DefaultHTTPConfig())
	}
	return c
}

// ListPosts returns every post with tags and HTML.
func (c *Client) ListPosts(ctx context.Context) ([]Post, error) {
	q := url.Values{}
	q.Set("limit", "all")
	q.Set("include", "tags")
	q.Set("formats", "html")

	var endpoint string
	var admin bool
	switch {
	case c.adminKey != "":
		endpoint, admin = "/ghost/api/admin/posts/", true
	case c.contentKey != "":
		endpoint = "/ghost/api/content/posts/"
		q.Set("key", c.contentKey)
	default:
		return nil, fmt.Errorf("ghost: list posts: no api key configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("ghost: build request: %w", err)
	}
	body, err := c.do(req, admin)
	if err != nil {
		return nil, err
	}
	var env postsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("ghost: decode posts: %w", err)
	}
	return env.Posts, nil
}

// CreatePost creates a post from its HTML body.
func (c *Client) CreatePost(ctx context.Context, p Post) (*Post, error) {
	payload, err := json.Marshal(postsEnvelope{Posts: []Post{p}})
	if err != nil {
		return nil, fmt.Errorf("ghost: encode post: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/ghost/api/admin/posts/?source=html", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ghost: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req, true)
	if err != nil {
		return nil, err
	}
	var env postsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("ghost: decode created post: %w", err)
	}
	if len(env.Posts) == 0 {
		return nil, fmt.Errorf("ghost: create post: empty response")
	}
	c.log.Info("ghost: post created", slog.String("title", p.Title), slog.String("url", env.Posts[0].URL))
	return &env.Posts[0], nil
}

// UploadImage uploads the file at path and returns its public URL.
func (c *Client) UploadImage(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("ghost: read image: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(path)))
	h.Set("Content-Type", mimetype.Detect(data).String())
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("ghost: multipart: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("ghost: multipart: %w", err)
	}
	if err := mw.WriteField("purpose", "image"); err != nil {
		return "", fmt.Errorf("ghost: multipart: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("ghost: multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ghost/api/admin/images/upload/", &buf)
	if err != nil {
		return "", fmt.Errorf("ghost: build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := c.do(req, true)
	if err != nil {
		return "", err
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("ghost: decode upload: %w", err)
	}
	v, err := jsonpath.Get("$.images[0].url", doc)
	if err != nil {
		return "", fmt.Errorf("ghost: upload response: %w", err)
	}
	u, _ := v.(string)
	if u == "" {
		return "", fmt.Errorf("ghost: upload response has no url")
	}
	return u, nil
}

func (c *Client) do(req *http.Request, admin bool) ([]byte, error) {
	if admin {
		tok, err := AdminToken(c.adminKey, c.now())
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Ghost "+tok)
	}
	req.Header.Set("Accept-Version", "v5.0")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ghost: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ghost: read response: %w", err)
	}
	c.log.Debug("ghost: request",
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
