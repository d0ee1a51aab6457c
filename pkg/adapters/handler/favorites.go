package handler

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/ports"
)

type FavoriteHandler struct {
	service ports.FavoriteService
	log     logrus.FieldLogger
}

func NewFavoriteHandler(service ports.FavoriteService, log logrus.FieldLogger) *FavoriteHandler {
	return &FavoriteHandler{service: service, log: log}
}

type favoriteRequest struct {
	ImageID int64 `json:"image_id"`
	// Toggle removes the favorite when it already exists
	Toggle bool `json:"toggle"`
}

func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	favorites, err := h.service.ListFavorites(r.Context(), UserIDFromContext(r.Context()))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]interface{}{"data": favorites, "total": len(favorites)})
}

func (h *FavoriteHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req favoriteRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		badRequest(w, r, "invalid request body")
		return
	}
	if req.ImageID <= 0 {
		badRequest(w, r, "image_id is required")
		return
	}
	userID := UserIDFromContext(r.Context())

	if req.Toggle {
		favorited, err := h.service.ToggleFavorite(r.Context(), userID, req.ImageID)
		if err != nil {
			respondError(w, r, h.log, err)
			return
		}
		respondJSON(w, r, http.StatusOK, map[string]interface{}{"image_id": req.ImageID, "favorited": favorited})
		return
	}

	fav, err := h.service.AddFavorite(r.Context(), userID, req.ImageID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, fav)
}

func (h *FavoriteHandler) Remove(w http.ResponseWriter, r *http.Request) {
	imageID, ok := int64Param(r, "imageID")
	if !ok {
		badRequest(w, r, "Invalid image ID")
		return
	}

	if err := h.service.RemoveFavorite(r.Context(), UserIDFromContext(r.Context()), imageID); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
