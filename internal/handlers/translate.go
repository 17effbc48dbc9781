package handlers

import (
	"net/http"
	"regintel/internal/services"

	"github.com/gin-gonic/gin"
)

type TranslateHandler struct {
	translator *services.TranslateService
}

func NewTranslateHandler(translator *services.TranslateService) *TranslateHandler {
	return &TranslateHandler{translator: translator}
}

type translateRequest struct {
	Text string `json:"text"`
	From string `json:"from"`
	To   string `json:"to"`
}

// Translate POST /api/translate
func (h *TranslateHandler) Translate(c *gin.Context) {
	var req translateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	result, err := h.translator.Translate(c.Request.Context(), req.Text, req.From, req.To)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
