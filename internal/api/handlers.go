package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/starford/scribe/internal/docservice"
)

const maxRequestBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *docservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *docservice.Service) *Handler {
	return &Handler{svc: svc}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("request body too large"))
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

// Transcode handles POST /api/transcode.
//
//	@Summary		Convert one document to a target format
//	@Tags			transcode
//	@Accept			json
//	@Produce		json
//	@Param			body	body		TranscodeRequest	true	"Document"
//	@Success		200		{object}	TranscodeResponse
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/transcode [post]
func (h *Handler) Transcode(w http.ResponseWriter, r *http.Request) {
	var req TranscodeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Content == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("content is required"))
		return
	}
	res, err := h.svc.Transcode(r.Context(), docservice.Request{
		Content:  req.Content,
		Filename: req.Filename,
		Target:   req.Target,
		Engine:   req.Engine,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Slug handles POST /api/slug.
//
//	@Summary		Derive the slug of a title
//	@Tags			transcode
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SlugRequest	true	"Title"
//	@Success		200		{object}	SlugResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/slug [post]
func (h *Handler) Slug(w http.ResponseWriter, r *http.Request) {
	var req SlugRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s, err := h.svc.Slugify(req.Title)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SlugResponse{Slug: s})
}

// Formats handles GET /api/formats.
//
//	@Summary		List output targets
//	@Tags			transcode
//	@Produce		json
//	@Success		200	{object}	FormatsResponse
//	@Security		BearerAuth
//	@Router			/formats [get]
func (h *Handler) Formats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, FormatsResponse{Formats: h.svc.Formats()})
}
