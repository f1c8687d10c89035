package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Slydexx/esthetica-app/internal/gemini"
	"github.com/Slydexx/esthetica-app/internal/media"
)

// The two proxy endpoints exist so the browser never sees the model API key.
// They forward a single request and add nothing: no retries, no credit
// accounting, no caching.

type proxyAnalyzeRequest struct {
	Images       []string `json:"images" binding:"required,min=1"`
	Instructions string   `json:"instructions" binding:"required"`
}

func (h HandlerSet) ProxyAnalyze(c *gin.Context) {
	if !h.gemini.Configured() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "model API key not configured"})
		return
	}

	var req proxyAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	images := make([]media.NormalizedImage, len(req.Images))
	for i, raw := range req.Images {
		if _, _, err := media.ParseDataURI(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "images must be base64 data URIs"})
			return
		}
		images[i] = media.NormalizedImage(raw)
	}

	analysis, err := h.gemini.AnalyzeFaces(c.Request.Context(), images, req.Instructions)
	if err != nil {
		h.proxyError(c, err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

type proxyGenerateRequest struct {
	Image  string `json:"image" binding:"required"`
	Prompt string `json:"prompt" binding:"required"`
}

func (h HandlerSet) ProxyGenerate(c *gin.Context) {
	if !h.gemini.Configured() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "model API key not configured"})
		return
	}

	var req proxyGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, _, err := media.ParseDataURI(req.Image); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image must be a base64 data URI"})
		return
	}

	generated, err := h.gemini.EditImage(c.Request.Context(), media.NormalizedImage(req.Image), req.Prompt)
	if err != nil {
		h.proxyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"image": string(generated)})
}

func (h HandlerSet) proxyError(c *gin.Context, err error) {
	var apiErr *gemini.APIError
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.StatusCode, gin.H{"error": apiErr.Message})
		return
	}
	h.log.Error().Err(err).Msg("model proxy call failed")
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}
