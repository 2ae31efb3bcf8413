package server

import (
	"net/http"

	"github.com/crescendohq/crescendo/internal/auditcontext"
	auditdomain "github.com/crescendohq/crescendo/internal/audit/domain"
	signingdomain "github.com/crescendohq/crescendo/internal/signing/domain"
	"github.com/gin-gonic/gin"
)

// GetContractForSigning godoc
// @Summary Fetch a contract by signing token
// @Tags signing
// @Produce json
// @Param token path string true "Signing token"
// @Success 200 {object} domain.ContractProjection
// @Failure 404 {object} apiError
// @Failure 410 {object} apiError
// @Router /contracts/sign/{token} [get]
func (s *Server) GetContractForSigning(c *gin.Context) {
	ctx := auditcontext.WithActor(c.Request.Context(), string(auditdomain.ActorTypeSigner), "")

	projection, err := s.signFlow.View(ctx, c.Param("token"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, projection)
}

// SignContract godoc
// @Summary Sign a contract by signing token
// @Tags signing
// @Accept json
// @Produce json
// @Param token path string true "Signing token"
// @Param request body domain.SignRequest true "Signature payload"
// @Success 200 {object} map[string]any
// @Failure 400 {object} apiError
// @Failure 404 {object} apiError
// @Failure 410 {object} apiError
// @Router /contracts/sign/{token} [post]
func (s *Server) SignContract(c *gin.Context) {
	var req signingdomain.SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError(""))
		return
	}

	ctx := auditcontext.WithActor(c.Request.Context(), string(auditdomain.ActorTypeSigner), "")

	receipt, err := s.signFlow.Sign(ctx, c.Param("token"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"signed_at": receipt.SignedAt,
	})
}
