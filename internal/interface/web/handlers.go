package web

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/KeelLabsHQ/keelbridge/internal/core/application"
	"github.com/KeelLabsHQ/keelbridge/internal/core/domain"
	"github.com/KeelLabsHQ/keelbridge/internal/core/ports"
	httporacle "github.com/KeelLabsHQ/keelbridge/internal/infrastructure/oracle/http"
	"github.com/gin-gonic/gin"
)

const accountHeader = "X-Bridge-Account"

type handler struct {
	svc *application.Service
}

func caller(c *gin.Context) string {
	return c.GetHeader(accountHeader)
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(errStatus(err), gin.H{"error": err.Error()})
}

// errStatus maps the domain error taxonomy to HTTP statuses so operator
// tooling can tell retryable failures from escalations.
func errStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrHalted):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateDeposit),
		errors.Is(err, domain.ErrAlreadyProcessed),
		errors.Is(err, domain.ErrAlreadyLocked),
		errors.Is(err, domain.ErrNotLocked),
		errors.Is(err, domain.ErrInFlight),
		errors.Is(err, domain.ErrReentrantCall):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrFeeExceedsAmount),
		errors.Is(err, domain.ErrFeeRecipientUnset),
		errors.Is(err, domain.ErrMissingSettlementProof),
		errors.Is(err, domain.ErrIndexOutOfBounds):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotRequester):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func pathID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid withdrawal id"})
		return 0, false
	}
	return id, true
}

type confirmDepositRequest struct {
	TxID      string `json:"txid" binding:"required"`
	Vout      uint32 `json:"vout"`
	Recipient string `json:"recipient" binding:"required"`
	Amount    uint64 `json:"amount" binding:"required,gt=0"`
}

func (h *handler) confirmDeposit(c *gin.Context) {
	var req confirmDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	deposit, err := h.svc.ConfirmDeposit(c, caller(c), req.TxID, req.Vout, req.Recipient, req.Amount)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, deposit)
}

func (h *handler) listDeposits(c *gin.Context) {
	deposits, err := h.svc.ListDeposits(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deposits": deposits})
}

func (h *handler) getDeposit(c *gin.Context) {
	vout, err := strconv.ParseUint(c.Param("vout"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vout"})
		return
	}
	deposit, err := h.svc.GetDeposit(c, c.Param("txid"), uint32(vout))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, deposit)
}

type initiateWithdrawalRequest struct {
	Amount      uint64 `json:"amount" binding:"required,gt=0"`
	Destination string `json:"destination" binding:"required"`
}

func (h *handler) initiateWithdrawal(c *gin.Context) {
	var req initiateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := h.svc.InitiateWithdrawal(c, caller(c), req.Amount, req.Destination)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (h *handler) listWithdrawals(c *gin.Context) {
	withdrawals, err := h.svc.ListWithdrawals(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": withdrawals})
}

func (h *handler) getWithdrawal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	withdrawal, err := h.svc.GetWithdrawal(c, id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, withdrawal)
}

func (h *handler) lockWithdrawal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.LockWithdrawal(c, caller(c), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type lockBatchRequest struct {
	IDs []uint64 `json:"ids" binding:"required"`
}

func (h *handler) lockWithdrawalBatch(c *gin.Context) {
	var req lockBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	locked, err := h.svc.LockWithdrawalBatch(c, caller(c), req.IDs)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"locked": locked})
}

func (h *handler) unlockWithdrawal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.UnlockWithdrawal(c, caller(c), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type finalizeWithdrawalRequest struct {
	UserReceive    uint64 `json:"userReceive"`
	MinerFee       uint64 `json:"minerFee"`
	OperatorFee    uint64 `json:"operatorFee"`
	SettlementTxID string `json:"settlementTxid" binding:"required"`
	SettlementVout uint32 `json:"settlementVout"`
}

func (h *handler) finalizeWithdrawal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req finalizeWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.FinalizeWithdrawal(
		c, caller(c), id,
		req.UserReceive, req.MinerFee, req.OperatorFee,
		req.SettlementTxID, req.SettlementVout,
	); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) cancelWithdrawal(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.CancelWithdrawal(c, caller(c), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type addCustodyAddressRequest struct {
	Address string `json:"address" binding:"required"`
}

func (h *handler) addCustodyAddress(c *gin.Context) {
	var req addCustodyAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.AddCustodyAddress(c, caller(c), req.Address); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) listCustodyAddresses(c *gin.Context) {
	addresses, err := h.svc.CustodyAddresses(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"addresses": addresses})
}

func (h *handler) removeCustodyAddress(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid index"})
		return
	}
	removed, err := h.svc.RemoveCustodyAddress(c, caller(c), index)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

type capabilityRequest struct {
	Account    string `json:"account" binding:"required"`
	Capability string `json:"capability" binding:"required"`
}

func (h *handler) grantCapability(c *gin.Context) {
	var req capabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.GrantCapability(c, caller(c), req.Account, domain.Capability(req.Capability)); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) revokeCapability(c *gin.Context) {
	var req capabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.RevokeCapability(c, caller(c), req.Account, domain.Capability(req.Capability)); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) accountCapabilities(c *gin.Context) {
	grants, err := h.svc.AccountCapabilities(c, c.Param("account"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"capabilities": grants})
}

func (h *handler) halt(c *gin.Context) {
	if err := h.svc.Halt(c, caller(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) resume(c *gin.Context) {
	if err := h.svc.Resume(c, caller(c)); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type feeRecipientRequest struct {
	Account string `json:"account"`
}

func (h *handler) setFeeRecipient(c *gin.Context) {
	var req feeRecipientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.SetFeeRecipient(c, caller(c), req.Account); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type feePolicyRequest struct {
	DepositFeeSats    uint64 `json:"depositFeeSats"`
	WithdrawalFeeSats uint64 `json:"withdrawalFeeSats"`
}

func (h *handler) setFeePolicy(c *gin.Context) {
	var req feePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.svc.SetFeePolicy(c, caller(c), req.DepositFeeSats, req.WithdrawalFeeSats); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type oracleRequest struct {
	URL string `json:"url"`
}

// setApprovalOracle points deposit approval at a proof-of-reserve endpoint.
// An empty URL clears the oracle so deposits are approved unconditionally.
func (h *handler) setApprovalOracle(c *gin.Context) {
	var req oracleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var oracle ports.DepositApprovalOracle
	if req.URL != "" {
		oracle = httporacle.NewService(req.URL)
	}
	if err := h.svc.SetApprovalOracle(c, caller(c), oracle, req.URL); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) report(c *gin.Context) {
	report, err := h.svc.ReconciliationReport(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
