package models

import "time"

type TransactionType string

const (
	TxnCashCollected  TransactionType = "cash_collected"
	TxnEarningsCredit TransactionType = "earnings_credit"
	TxnSettlement     TransactionType = "settlement"
	TxnWithdrawal     TransactionType = "withdrawal"
	TxnTaxDeduction   TransactionType = "tax_deduction"
	TxnRefund         TransactionType = "refund"
)

type TransactionStatus string

const (
	TxnStatusPending   TransactionStatus = "pending"
	TxnStatusCompleted TransactionStatus = "completed"
	TxnStatusFailed    TransactionStatus = "failed"
)

// Transaction is an append-only ledger entry. A completed entry is never
// mutated; corrections are made by appending an offsetting entry.
type Transaction struct {
	ID          string            `bson:"id" json:"id"`
	ProviderID  string            `bson:"providerId,omitempty" json:"providerId,omitempty"`
	CustomerID  string            `bson:"customerId,omitempty" json:"customerId,omitempty"`
	WorkerID    string            `bson:"workerId,omitempty" json:"workerId,omitempty"`
	BookingID   string            `bson:"bookingId,omitempty" json:"bookingId,omitempty"`
	Type        TransactionType   `bson:"type" json:"type"`
	Amount      int64             `bson:"amount" json:"amount"` // signed, minor units
	Status      TransactionStatus `bson:"status" json:"status"`
	Description string            `bson:"description,omitempty" json:"description,omitempty"`
	Metadata    map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt   time.Time         `bson:"createdAt" json:"createdAt"`
}
