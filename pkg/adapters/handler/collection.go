package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/reorder"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/ports"
)

type CollectionHandler struct {
	service ports.CollectionService
	log     logrus.FieldLogger
}

func NewCollectionHandler(service ports.CollectionService, log logrus.FieldLogger) *CollectionHandler {
	return &CollectionHandler{service: service, log: log}
}

type collectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type membersRequest struct {
	FavoriteIDs []int64 `json:"favorite_ids"`
}

type moveRequest struct {
	Source int64  `json:"source"`
	Target int64  `json:"target"`
	Side   string `json:"side"` // before or after
}

type orderResponse struct {
	FavoriteIDs []int64 `json:"favorite_ids"`
}

func (h *CollectionHandler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}

	collection, err := h.service.CreateCollection(r.Context(), UserIDFromContext(r.Context()), req.Name, req.Description)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, collection)
}

func (h *CollectionHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.service.ListCollections(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]interface{}{"data": collections, "total": len(collections)})
}

func (h *CollectionHandler) GetCollection(w http.ResponseWriter, r *http.Request) {
	collection, err := h.service.GetCollection(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, r, http.StatusOK, collection)
}

// GetSharedCollection serves a collection to anyone holding its link
func (h *CollectionHandler) GetSharedCollection(w http.ResponseWriter, r *http.Request) {
	collection, err := h.service.GetSharedCollection(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, r, http.StatusOK, collection)
}

func (h *CollectionHandler) UpdateCollection(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}

	collection, err := h.service.UpdateCollection(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"), req.Name, req.Description)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, r, http.StatusOK, collection)
}

func (h *CollectionHandler) DeleteCollection(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCollection(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddMembers adds favorites at the end of the collection, in request order.
// One bad id rejects the whole request.
func (h *CollectionHandler) AddMembers(w http.ResponseWriter, r *http.Request) {
	var req membersRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil || len(req.FavoriteIDs) == 0 {
		badRequest(w, r, "favorite_ids is required")
		return
	}

	added, err := h.service.AddMembers(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"), req.FavoriteIDs)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, map[string]interface{}{"data": added})
}

func (h *CollectionHandler) RemoveMembers(w http.ResponseWriter, r *http.Request) {
	var req membersRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil || len(req.FavoriteIDs) == 0 {
		badRequest(w, r, "favorite_ids is required")
		return
	}

	removed, err := h.service.RemoveMembers(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"), req.FavoriteIDs)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]int{"removed": removed})
}

type selectRequest struct {
	FavoriteID int64 `json:"favorite_id"`
}

// Selection lists the members picked for bulk removal.
func (h *CollectionHandler) Selection(w http.ResponseWriter, r *http.Request) {
	selected, err := h.service.Selection(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, r, http.StatusOK, orderResponse{FavoriteIDs: nonNil(selected)})
}

// ToggleSelection is sent by a swipe over a member.
func (h *CollectionHandler) ToggleSelection(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil || req.FavoriteID <= 0 {
		badRequest(w, r, "favorite_id is required")
		return
	}

	selected, err := h.service.ToggleSelection(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"), req.FavoriteID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, r, http.StatusOK, orderResponse{FavoriteIDs: nonNil(selected)})
}

// RemoveSelected drops every selected member.
func (h *CollectionHandler) RemoveSelected(w http.ResponseWriter, r *http.Request) {
	removed, err := h.service.RemoveSelected(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]int{"removed": removed})
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

// SetOrder replaces the display order with a full permutation of members.
func (h *CollectionHandler) SetOrder(w http.ResponseWriter, r *http.Request) {
	var req membersRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}

	order, err := h.service.SetOrder(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"), req.FavoriteIDs)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, r, http.StatusOK, orderResponse{FavoriteIDs: order})
}

// Move drops one member before or after another.
func (h *CollectionHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}
	side, err := reorder.ParseSide(req.Side)
	if err != nil {
		badRequest(w, r, err.Error())
		return
	}

	order, err := h.service.MoveMember(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"), req.Source, req.Target, side)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, r, http.StatusOK, orderResponse{FavoriteIDs: order})
}

// Export streams the collection as a ZIP archive. The summary shown to the
// user travels in X-Export-* headers.
func (h *CollectionHandler) Export(w http.ResponseWriter, r *http.Request) {
	archive, err := h.service.Export(r.Context(), UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	res := archive.Result
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", archive.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(archive.Data)))
	w.Header().Set("X-Export-Total", strconv.Itoa(res.Total))
	w.Header().Set("X-Export-Succeeded", strconv.Itoa(res.Succeeded))
	w.Header().Set("X-Export-Failed", strconv.Itoa(res.Failed))
	w.Header().Set("X-Export-Outcome", string(res.Outcome))
	w.WriteHeader(http.StatusOK)
	if _, err := bytes.NewReader(archive.Data).WriteTo(w); err != nil {
		h.log.WithError(err).WithField("collection_id", chi.URLParam(r, "id")).Warn("export download interrupted")
	}
}
