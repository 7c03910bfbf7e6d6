package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	questiondomain "github.com/smallbiznis/rastro/internal/question/domain"
)

func (s *Server) CreateQuestion(c *gin.Context) {
	var req questiondomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.questSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListQuestions(c *gin.Context) {
	productID := strings.TrimSpace(c.Query("product_id"))
	if productID == "" {
		AbortWithError(c, newValidationError("product_id", "invalid_id", "product_id is required"))
		return
	}

	items, err := s.questSvc.ListByProduct(c.Request.Context(), productID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) AnswerQuestion(c *gin.Context) {
	var req questiondomain.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.QuestionID = strings.TrimSpace(c.Param("id"))

	resp, err := s.questSvc.Answer(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
