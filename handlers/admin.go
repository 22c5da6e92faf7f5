package handlers

import (
	"net/http"

	"fixserv/config"
	"fixserv/models"

	"github.com/gin-gonic/gin"
)

// ApproveSettlement approves a pending settlement, reducing the provider's
// dues and re-evaluating the block state.
func ApproveSettlement(c *gin.Context) {
	req, err := WalletService.ApproveSettlement(c.Request.Context(), c.Param("id"), actorFrom(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

type rejectInput struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectSettlement rejects a pending settlement without touching balances.
func RejectSettlement(c *gin.Context) {
	var input rejectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	req, err := WalletService.RejectSettlement(c.Request.Context(), c.Param("id"), actorFrom(c).ID, input.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// ApproveWithdrawal pays out a pending withdrawal net of tax at source. The
// rate may be overridden per request; the platform default applies otherwise.
func ApproveWithdrawal(c *gin.Context) {
	var input struct {
		TDSRate *float64 `json:"tdsRate"`
	}
	if err := c.ShouldBindJSON(&input); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	rate := config.AppConfig.TDSRate
	if input.TDSRate != nil {
		rate = *input.TDSRate
	}
	req, err := WalletService.ApproveWithdrawal(c.Request.Context(), c.Param("id"), actorFrom(c).ID, rate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// RejectWithdrawal rejects a pending withdrawal without touching balances.
func RejectWithdrawal(c *gin.Context) {
	var input rejectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	req, err := WalletService.RejectWithdrawal(c.Request.Context(), c.Param("id"), actorFrom(c).ID, input.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// ListSettlements returns settlement requests, filterable by status.
func ListSettlements(c *gin.Context) {
	status := models.RequestStatus(c.DefaultQuery("status", string(models.RequestPending)))
	list, err := WalletService.ListSettlements(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settlements": list})
}

// ListWithdrawals returns withdrawal requests, filterable by status.
func ListWithdrawals(c *gin.Context) {
	status := models.RequestStatus(c.DefaultQuery("status", string(models.RequestPending)))
	list, err := WalletService.ListWithdrawals(c.Request.Context(), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": list})
}

// BlockProvider manually suspends a provider from dispatch.
func BlockProvider(c *gin.Context) {
	var input rejectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	w, err := WalletService.BlockProvider(c.Request.Context(), c.Param("id"), actorFrom(c).ID, input.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// UnblockProvider lifts a suspension regardless of outstanding dues.
func UnblockProvider(c *gin.Context) {
	w, err := WalletService.UnblockProvider(c.Request.Context(), c.Param("id"), actorFrom(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// SetCashLimit updates the provider's cash collection ceiling.
func SetCashLimit(c *gin.Context) {
	var input struct {
		Limit int64 `json:"limit" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	w, err := WalletService.SetCashLimit(c.Request.Context(), c.Param("id"), actorFrom(c).ID, input.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}
