package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/remitwise/core"
	"github.com/layer-3/remitwise/service"
)

// ContractHandlers return unsigned transactions for the caller's wallet to sign
type ContractHandlers struct {
	contractService *service.ContractService
}

func NewContractHandlers(contractService *service.ContractService) *ContractHandlers {
	return &ContractHandlers{contractService: contractService}
}

func (h *ContractHandlers) CreateBill(c *gin.Context) {
	var req service.NewBill
	if !bindBody(c, &req) {
		return
	}
	h.respond(c)(h.contractService.CreateBill(c.Request.Context(), callerAddress(c), req))
}

func (h *ContractHandlers) PayBill(c *gin.Context) {
	h.respond(c)(h.contractService.PayBill(c.Request.Context(), callerAddress(c), c.Param("id")))
}

func (h *ContractHandlers) CreatePolicy(c *gin.Context) {
	var req service.NewPolicy
	if !bindBody(c, &req) {
		return
	}
	h.respond(c)(h.contractService.CreatePolicy(c.Request.Context(), callerAddress(c), req))
}

func (h *ContractHandlers) PayPremium(c *gin.Context) {
	h.respond(c)(h.contractService.PayPremium(c.Request.Context(), callerAddress(c), c.Param("id")))
}

func (h *ContractHandlers) DeactivatePolicy(c *gin.Context) {
	h.respond(c)(h.contractService.DeactivatePolicy(c.Request.Context(), callerAddress(c), c.Param("id")))
}

func (h *ContractHandlers) InitializeSplit(c *gin.Context) {
	var req service.SplitAllocation
	if !bindBody(c, &req) {
		return
	}
	h.respond(c)(h.contractService.InitializeSplit(c.Request.Context(), callerAddress(c), req))
}

func (h *ContractHandlers) UpdateSplit(c *gin.Context) {
	var req service.SplitAllocation
	if !bindBody(c, &req) {
		return
	}
	h.respond(c)(h.contractService.UpdateSplit(c.Request.Context(), callerAddress(c), req))
}

func (h *ContractHandlers) respond(c *gin.Context) func(string, error) {
	return func(envelope string, err error) {
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"xdr": envelope})
	}
}

func bindBody(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, core.InvalidInput("invalid request body"))
		return false
	}
	return true
}
