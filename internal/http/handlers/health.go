package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/tcdsagency/renewals-backend/internal/http/response"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Check(c *gin.Context) {
	response.RespondOK(c, gin.H{"status": "ok"})
}
