package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ProcessAuctions triggers one settlement sweep. The scheduler runs the
// same sweep on a timer; this endpoint exists for operators and tests.
func (s *Server) ProcessAuctions(c *gin.Context) {
	report, err := s.auctionSvc.Settle(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}
