package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	shippingdomain "github.com/smallbiznis/rastro/internal/shippingaddress/domain"
)

func (s *Server) CreateShippingAddress(c *gin.Context) {
	var req shippingdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.addressSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListShippingAddresses(c *gin.Context) {
	items, err := s.addressSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}
