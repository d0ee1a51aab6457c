package handler

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/ports"
)

type GalleryHandler struct {
	service ports.GalleryService
	log     logrus.FieldLogger
}

func NewGalleryHandler(service ports.GalleryService, log logrus.FieldLogger) *GalleryHandler {
	return &GalleryHandler{service: service, log: log}
}

// ListImages serves one page of the mosaic. Query: author, offset, limit, dpr.
func (h *GalleryHandler) ListImages(w http.ResponseWriter, r *http.Request) {
	q := ports.GalleryQuery{
		Author: r.URL.Query().Get("author"),
		Offset: intQuery(r, "offset", 0),
		Limit:  intQuery(r, "limit", 0),
		DPR:    floatQuery(r, "dpr", 1),
	}

	page, err := h.service.ListImages(r.Context(), q)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, r, http.StatusOK, page)
}

func (h *GalleryHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		badRequest(w, r, "Invalid ID")
		return
	}

	img, err := h.service.GetImage(r.Context(), id)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, r, http.StatusOK, img)
}

// Variant returns the URL to load for an image shown width CSS pixels wide
// at a zoom factor.
func (h *GalleryHandler) Variant(w http.ResponseWriter, r *http.Request) {
	id, ok := int64Param(r, "id")
	if !ok {
		badRequest(w, r, "Invalid ID")
		return
	}
	width := intQuery(r, "width", 0)
	if width < 0 {
		badRequest(w, r, "width must not be negative")
		return
	}

	sel, err := h.service.SelectVariant(r.Context(), id, width, floatQuery(r, "zoom", 1))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, r, http.StatusOK, sel)
}

func (h *GalleryHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.Refresh(r.Context())
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]int{"images": n})
}
