package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"snapcaption/internal/app"
	"snapcaption/internal/transport/http/response"
	"snapcaption/internal/vision"
)

// multipartOverhead is the slack allowed on top of the file limit for form boundaries
// and headers.
const multipartOverhead = 1 << 20

var uploadFields = []string{"file", "image"}

type ImageProcessor interface {
	ProcessImage(ctx context.Context, data []byte) (*app.ProcessResult, error)
}

type ProcessHandler struct {
	images   ImageProcessor
	maxBytes int64
	logger   *zap.Logger
}

func NewProcessHandler(images ImageProcessor, maxBytes int64, logger *zap.Logger) *ProcessHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessHandler{images: images, maxBytes: maxBytes, logger: logger.Named("process")}
}

// Process accepts a multipart upload in field "file" (or "image") and returns the
// detected objects, mood, captions and hashtags.
func (h *ProcessHandler) Process(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)

	file, err := h.formFile(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusBadRequest, response.CodeFileTooLarge, h.tooLargeMessage())
			return
		}
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing image file (form field 'file')")
		return
	}
	if file.Size > h.maxBytes {
		response.Error(c, http.StatusBadRequest, response.CodeFileTooLarge, h.tooLargeMessage())
		return
	}

	data, err := readUpload(file)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "failed to read image")
		return
	}

	result, err := h.images.ProcessImage(c.Request.Context(), data)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, result)
	case errors.Is(err, vision.ErrImageDecode):
		response.Error(c, http.StatusBadRequest, response.CodeImageDecode, "uploaded file is not a supported image")
	default:
		h.logger.Error("process image failed", zap.String("filename", file.Filename), zap.Error(err))
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInference, "image processing failed")
	}
}

func (h *ProcessHandler) formFile(c *gin.Context) (*multipart.FileHeader, error) {
	var firstErr error
	for _, field := range uploadFields {
		file, err := c.FormFile(field)
		if err == nil {
			return file, nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

func (h *ProcessHandler) tooLargeMessage() string {
	return fmt.Sprintf("image too large (max %dMB)", h.maxBytes>>20)
}

func readUpload(file *multipart.FileHeader) ([]byte, error) {
	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload failed: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload failed: %w", err)
	}
	return data, nil
}
