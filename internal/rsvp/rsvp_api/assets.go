package rsvp_api

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"ms-rsvp/internal/imaging"
	"ms-rsvp/internal/utils"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

const jpegQuality = 90

var galleryExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

func (h *Handler) InviteQR(w http.ResponseWriter, r *http.Request) {
	if h.QR == nil {
		utils.WriteError(w, http.StatusServiceUnavailable, "Invitation QR unavailable", "")
		return
	}

	png, err := h.QR.PNG()
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("InviteQR: encode failed: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to render QR code", err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// Gallery serves a gallery photo cropped for the requested variant.
func (h *Handler) Gallery(w http.ResponseWriter, r *http.Request) {
	if h.Cropper == nil || h.GalleryDir == "" {
		utils.WriteError(w, http.StatusServiceUnavailable, "Gallery unavailable", "")
		return
	}

	name := chi.URLParam(r, "name")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") ||
		!galleryExtensions[strings.ToLower(filepath.Ext(name))] {
		utils.WriteError(w, http.StatusBadRequest, "Invalid image name", "")
		return
	}

	variant, err := imaging.ParseVariant(r.URL.Query().Get("variant"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid variant", err.Error())
		return
	}

	f, err := os.Open(filepath.Join(h.GalleryDir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			utils.WriteError(w, http.StatusNotFound, "Image not found", "")
			return
		}
		h.Logger.Error("API", fmt.Sprintf("Gallery: open %s: %v", name, err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to load image", "")
		return
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Gallery: decode %s: %v", name, err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to decode image", "")
		return
	}

	cropped, err := h.Cropper.Crop(r.Context(), img, variant)
	if err != nil {
		h.Logger.Warn("IMAGING", fmt.Sprintf("Gallery: crop %s failed, serving original: %v", name, err))
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	if err := jpeg.Encode(w, cropped, &jpeg.Options{Quality: jpegQuality}); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Gallery: encode %s: %v", name, err))
	}
}
