package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	messagedomain "github.com/smallbiznis/rastro/internal/message/domain"
)

func (s *Server) SendMessage(c *gin.Context) {
	var req messagedomain.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.messageSvc.Send(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListMessages(c *gin.Context) {
	productID := strings.TrimSpace(c.Query("product_id"))
	if productID == "" {
		AbortWithError(c, newValidationError("product_id", "invalid_id", "product_id is required"))
		return
	}

	items, err := s.messageSvc.Conversation(c.Request.Context(), productID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}
