package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	biddomain "github.com/smallbiznis/rastro/internal/bid/domain"
)

func (s *Server) PlaceBid(c *gin.Context) {
	var req biddomain.PlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.bidSvc.Place(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

// ListProductBids serves the bid history addressed by product path.
func (s *Server) ListProductBids(c *gin.Context) {
	items, err := s.bidSvc.ListByProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) ListBids(c *gin.Context) {
	productID := strings.TrimSpace(c.Query("product_id"))
	if productID == "" {
		AbortWithError(c, newValidationError("product_id", "invalid_id", "product_id is required"))
		return
	}

	items, err := s.bidSvc.ListByProduct(c.Request.Context(), productID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}
