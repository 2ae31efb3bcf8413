package server

import (
	"net/http"

	contractdomain "github.com/crescendohq/crescendo/internal/contract/domain"
	"github.com/crescendohq/crescendo/internal/contract/render"
	"github.com/gin-gonic/gin"
)

// CreateContract godoc
// @Summary Create a draft contract
// @Tags contracts
// @Accept json
// @Produce json
// @Param request body domain.CreateContractRequest true "Contract terms and parties"
// @Success 201 {object} domain.Contract
// @Failure 400 {object} apiError
// @Router /admin/contracts [post]
func (s *Server) CreateContract(c *gin.Context) {
	var req contractdomain.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError(""))
		return
	}

	contract, err := s.contractSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contract)
}

// ListContracts godoc
// @Summary List contracts
// @Tags contracts
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} domain.ListContractsResponse
// @Router /admin/contracts [get]
func (s *Server) ListContracts(c *gin.Context) {
	var req contractdomain.ListContractsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError("invalid pagination parameters"))
		return
	}

	resp, err := s.contractSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetContract godoc
// @Summary Fetch a contract with its audit trail
// @Tags contracts
// @Produce json
// @Param id path string true "Contract ID"
// @Success 200 {object} domain.ContractWithTrail
// @Failure 404 {object} apiError
// @Router /admin/contracts/{id} [get]
func (s *Server) GetContract(c *gin.Context) {
	detail, err := s.contractSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// UpdateContract godoc
// @Summary Update a draft contract
// @Tags contracts
// @Accept json
// @Produce json
// @Param id path string true "Contract ID"
// @Param request body domain.UpdateContractRequest true "Replacement terms and parties"
// @Success 200 {object} domain.Contract
// @Failure 404 {object} apiError
// @Failure 409 {object} apiError
// @Router /admin/contracts/{id} [put]
func (s *Server) UpdateContract(c *gin.Context) {
	var req contractdomain.UpdateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError(""))
		return
	}
	req.ID = c.Param("id")

	contract, err := s.contractSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

// SendContractToReviewer godoc
// @Summary Issue a reviewer token and route the contract for review
// @Tags contracts
// @Produce json
// @Param id path string true "Contract ID"
// @Success 200 {object} domain.SendResult
// @Failure 404 {object} apiError
// @Failure 409 {object} apiError
// @Router /admin/contracts/{id}/send_to_reviewer [post]
func (s *Server) SendContractToReviewer(c *gin.Context) {
	result, err := s.contractSvc.SendToReviewer(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SendContractToSigner godoc
// @Summary Issue a signing token and route the contract to the signer
// @Tags contracts
// @Produce json
// @Param id path string true "Contract ID"
// @Success 200 {object} domain.SendResult
// @Failure 404 {object} apiError
// @Failure 409 {object} apiError
// @Router /admin/contracts/{id}/send_to_signer [post]
func (s *Server) SendContractToSigner(c *gin.Context) {
	result, err := s.contractSvc.SendToSigner(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CancelContract godoc
// @Summary Cancel a contract and revoke its outstanding links
// @Tags contracts
// @Produce json
// @Param id path string true "Contract ID"
// @Success 200 {object} domain.Contract
// @Failure 404 {object} apiError
// @Failure 409 {object} apiError
// @Router /admin/contracts/{id}/cancel [post]
func (s *Server) CancelContract(c *gin.Context) {
	contract, err := s.contractSvc.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

// DeleteContract godoc
// @Summary Delete a contract and its audit trail
// @Tags contracts
// @Param id path string true "Contract ID"
// @Success 204
// @Failure 404 {object} apiError
// @Router /admin/contracts/{id} [delete]
func (s *Server) DeleteContract(c *gin.Context) {
	if err := s.contractSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RenderContractDocument godoc
// @Summary Render the contract document as HTML
// @Tags contracts
// @Produce html
// @Param id path string true "Contract ID"
// @Success 200 {string} string
// @Failure 404 {object} apiError
// @Router /admin/contracts/{id}/document [get]
func (s *Server) RenderContractDocument(c *gin.Context) {
	detail, err := s.contractSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	html, err := s.renderer.RenderHTML(renderInput(detail.Contract))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func renderInput(contract contractdomain.Contract) render.RenderInput {
	input := render.RenderInput{
		Contract: render.ContractView{
			ID:              contract.ID.String(),
			Tier:            contract.Tier,
			AnnualPrice:     contract.AnnualPrice,
			Currency:        contract.Currency,
			BillingInterval: string(contract.BillingInterval),
			VATRatePercent:  contract.VATRatePercent,
			StartDate:       contract.StartDate,
			DurationMonths:  contract.DurationMonths,
			Status:          string(contract.Status),
		},
		Signer: render.PartyView{
			Name:  contract.SignerName,
			Email: contract.SignerEmail,
			Title: deref(contract.SignerTitle),
		},
	}
	if contract.HasReviewer() {
		input.Reviewer = &render.PartyView{
			Name:  deref(contract.ReviewerName),
			Email: deref(contract.ReviewerEmail),
			Title: deref(contract.ReviewerTitle),
		}
	}
	if contract.SignedAt != nil && contract.SignatureImage != nil {
		input.Signature = &render.SignatureView{
			SignerName: contract.SignerName,
			SignedAt:   *contract.SignedAt,
			ImageData:  *contract.SignatureImage,
		}
	}
	return input
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
