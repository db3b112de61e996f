// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes scribe conversions for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/scribe/internal/apperr"
	"github.com/starford/scribe/internal/docservice"
)

const formatsURI = "scribe://formats"

// Server wraps the MCP server with scribe tools.
type Server struct {
	mcp *server.MCPServer
	svc *docservice.Service
}

// New creates a new MCP server with all scribe tools registered.
func New(svc *docservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"scribe",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("transcode_document",
		mcp.WithDescription("Convert one document between Markdown and HTML bodies and the zola (TOML) "+
			"or YAML-style frontmatter blocks. Returns filename, slug, content and notices as JSON. "+
			"Read the "+formatsURI+" resource for the accepted targets."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Document text, optionally starting with a frontmatter block")),
		mcp.WithString("filename", mcp.Description("Original filename; its extension selects Markdown or HTML input")),
		mcp.WithString("target", mcp.Description("Target format: zola, markdown or html")),
		mcp.WithString("engine", mcp.Description("Markup engine: rules, commonmark or passthrough")),
	), s.transcodeDocument)

	s.mcp.AddTool(mcp.NewTool("slugify",
		mcp.WithDescription("Return the URL slug scribe derives from a title."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Document title")),
	), s.slugify)

	s.mcp.AddTool(mcp.NewTool("get_formats",
		mcp.WithDescription("Returns the description of the frontmatter dialects and targets."),
	), s.getFormats)

	s.mcp.AddResource(
		mcp.NewResource(formatsURI, "Formats",
			mcp.WithResourceDescription("Frontmatter dialects, body representations and output names per target."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatsResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func optionalString(req mcp.CallToolRequest, key string) string {
	if v, err := req.RequireString(key); err == nil {
		return v
	}
	return ""
}

func (s *Server) transcodeDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := s.svc.Transcode(ctx, docservice.Request{
		Content:  content,
		Filename: optionalString(req, "filename"),
		Target:   optionalString(req, "target"),
		Engine:   optionalString(req, "engine"),
	})
	if err != nil {
		if errors.Is(err, apperr.ErrMissingTitle) {
			return mcp.NewToolResultError("document has no title: add a title field, a leading heading or a filename"), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(resp, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) slugify(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sl, err := s.svc.Slugify(title)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(sl), nil
}

func (s *Server) getFormats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(docservice.FormatsGuide), nil
}

func (s *Server) readFormatsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatsURI,
			MIMEType: "text/markdown",
			Text:     docservice.FormatsGuide,
		},
	}, nil
}
