package server

import (
	"net/http"

	"github.com/crescendohq/crescendo/internal/auditcontext"
	auditdomain "github.com/crescendohq/crescendo/internal/audit/domain"
	"github.com/gin-gonic/gin"
)

// GetContractForReview godoc
// @Summary Fetch a contract by reviewer token
// @Tags signing
// @Produce json
// @Param token path string true "Reviewer token"
// @Success 200 {object} domain.ContractProjection
// @Failure 404 {object} apiError
// @Failure 410 {object} apiError
// @Router /contracts/review/{token} [get]
func (s *Server) GetContractForReview(c *gin.Context) {
	ctx := auditcontext.WithActor(c.Request.Context(), string(auditdomain.ActorTypeReviewer), "")

	projection, err := s.reviewFlow.View(ctx, c.Param("token"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, projection)
}

// ApproveContractAsReviewer godoc
// @Summary Approve a contract and forward it to the signer
// @Tags signing
// @Produce json
// @Param token path string true "Reviewer token"
// @Success 200 {object} map[string]any
// @Failure 404 {object} apiError
// @Failure 410 {object} apiError
// @Router /contracts/review/{token} [post]
func (s *Server) ApproveContractAsReviewer(c *gin.Context) {
	ctx := auditcontext.WithActor(c.Request.Context(), string(auditdomain.ActorTypeReviewer), "")

	receipt, err := s.reviewFlow.Approve(ctx, c.Param("token"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"forwarded_to": receipt.ForwardedTo,
	})
}
