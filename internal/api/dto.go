package api

import (
	"github.com/starford/scribe/internal/docservice"
)

// TranscodeRequest is the request body for converting one document.
type TranscodeRequest struct {
	Content  string `json:"content" example:"<h1>Hello</h1><p>World</p>" validate:"required"`
	Filename string `json:"filename,omitempty" example:"hello.html"`
	Target   string `json:"target,omitempty" example:"zola" enums:"zola,markdown,html"`
	Engine   string `json:"engine,omitempty" example:"rules" enums:"rules,commonmark,passthrough"`
}

// TranscodeResponse is the converted document (aliased from the service layer).
type TranscodeResponse = docservice.Response

// SlugRequest is the request body for deriving a slug.
type SlugRequest struct {
	Title string `json:"title" example:"NixOS & Self-Hosting: A Guide!" validate:"required"`
}

// SlugResponse carries a derived slug.
type SlugResponse struct {
	Slug string `json:"slug" example:"nixos-self-hosting-a-guide" validate:"required"`
}

// FormatsResponse lists the accepted targets.
type FormatsResponse struct {
	Formats []docservice.Format `json:"formats" validate:"required"`
}
