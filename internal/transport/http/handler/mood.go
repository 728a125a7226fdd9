package handler

import (
	"github.com/gin-gonic/gin"

	"snapcaption/internal/transport/http/response"
	"snapcaption/internal/vision"
)

type MoodHandler struct{}

func NewMoodHandler() *MoodHandler {
	return &MoodHandler{}
}

// List returns every mood with the palette clients theme their UI with.
func (h *MoodHandler) List(c *gin.Context) {
	response.OK(c, gin.H{"moods": vision.MoodThemes()})
}
