package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"autoclaim/logger"
	"autoclaim/perception"
	"autoclaim/validator"
)

// statusClientClosedRequest is logged when the caller went away mid-analysis.
const statusClientClosedRequest = 499

// Analyze runs the claim pipeline on a multipart upload. Images come in the
// "images" field (a single "image" is accepted too); vehicle_class,
// workshop_type, pricing_mode and vehicle_make are optional form fields.
func (h *Handler) Analyze(c *gin.Context) {
	log := logger.Get(c)

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected a multipart form with images"})
		return
	}
	files := append(form.File["images"], form.File["image"]...)

	uploads := make([]validator.Upload, 0, len(files))
	for _, fh := range files {
		data, err := readUpload(fh)
		if err != nil {
			log.Warn("reading upload failed", zap.String("file", fh.Filename), zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("could not read %q", fh.Filename)})
			return
		}
		uploads = append(uploads, validator.Upload{Name: fh.Filename, Data: data})
	}

	claim, err := h.claims.Analyze(c.Request.Context(), validator.Input{
		Images:       uploads,
		VehicleClass: c.PostForm("vehicle_class"),
		WorkshopType: c.PostForm("workshop_type"),
		PricingMode:  c.PostForm("pricing_mode"),
		VehicleMake:  c.PostForm("vehicle_make"),
	})
	if err != nil {
		h.analyzeError(c, err)
		return
	}
	c.JSON(http.StatusOK, claim)
}

func (h *Handler) analyzeError(c *gin.Context, err error) {
	var verr *validator.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, perception.ErrNoUsableImages):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled):
		logger.Get(c).Info("analysis abandoned by client")
		c.AbortWithStatus(statusClientClosedRequest)
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to analyze claim"})
	}
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
