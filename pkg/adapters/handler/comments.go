package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/ports"
)

type CommentHandler struct {
	service ports.CommentService
	log     logrus.FieldLogger
}

func NewCommentHandler(service ports.CommentService, log logrus.FieldLogger) *CommentHandler {
	return &CommentHandler{service: service, log: log}
}

type commentRequest struct {
	Content string `json:"content"`
}

func (h *CommentHandler) ListForImage(w http.ResponseWriter, r *http.Request) {
	imageID, ok := int64Param(r, "id")
	if !ok {
		badRequest(w, r, "Invalid ID")
		return
	}

	comments, err := h.service.ListComments(r.Context(), imageID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]interface{}{"data": comments, "total": len(comments)})
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	imageID, ok := int64Param(r, "id")
	if !ok {
		badRequest(w, r, "Invalid ID")
		return
	}
	var req commentRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}

	comment, err := h.service.AddComment(r.Context(), UserIDFromContext(r.Context()), imageID, req.Content)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, comment)
}

func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}

	comment, err := h.service.UpdateComment(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"), req.Content)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, r, http.StatusOK, comment)
}

func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteComment(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Mine lists the caller's comments with the images they were left on.
func (h *CommentHandler) Mine(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.ListMyComments(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]interface{}{"data": comments, "total": len(comments)})
}
