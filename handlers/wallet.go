package handlers

import (
	"net/http"
	"strconv"

	"fixserv/services/wallet"

	"github.com/gin-gonic/gin"
)

var WalletService wallet.WalletService

// GetWallet returns the authenticated provider's wallet.
func GetWallet(c *gin.Context) {
	w, err := WalletService.GetWallet(c.Request.Context(), actorFrom(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// ListTransactions returns the provider's ledger entries, newest first.
func ListTransactions(c *gin.Context) {
	limit := int64(50)
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			limit = n
		}
	}
	txs, err := WalletService.ListTransactions(c.Request.Context(), actorFrom(c).ID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

type amountInput struct {
	Amount int64 `json:"amount" binding:"required"`
}

// CreateSettlementRequest opens a dues settlement request for the provider.
func CreateSettlementRequest(c *gin.Context) {
	var input amountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	req, err := WalletService.CreateSettlementRequest(c.Request.Context(), actorFrom(c).ID, input.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// CreateWithdrawalRequest opens an earnings withdrawal request for the provider.
func CreateWithdrawalRequest(c *gin.Context) {
	var input amountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}
	req, err := WalletService.CreateWithdrawalRequest(c.Request.Context(), actorFrom(c).ID, input.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}
