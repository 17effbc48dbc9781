package handlers

import (
	"net/http"
	"regintel/internal/services"
	"regintel/internal/utils"

	"github.com/gin-gonic/gin"
)

type CompanyHandler struct {
	companies *services.CompanyService
}

func NewCompanyHandler(companies *services.CompanyService) *CompanyHandler {
	return &CompanyHandler{companies: companies}
}

// List GET /api/companies?q&page&limit
func (h *CompanyHandler) List(c *gin.Context) {
	page := utils.PositiveIntOr(c.Query("page"), 1)
	limit := utils.PositiveIntOr(c.Query("limit"), services.DefaultPageSize)

	result, err := h.companies.List(c.Request.Context(), c.Query("q"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Detail GET /api/companies/:id
func (h *CompanyHandler) Detail(c *gin.Context) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		badRequest(c, "Invalid company id")
		return
	}

	company, err := h.companies.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"company": company})
}
