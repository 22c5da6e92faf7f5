package models

import "time"

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// SettlementRequest is a provider-initiated payment to the platform that
// reduces dues once an operator approves it. At most one pending request may
// exist per provider.
type SettlementRequest struct {
	ID            string        `bson:"id" json:"id"`
	ProviderID    string        `bson:"providerId" json:"providerId"`
	Amount        int64         `bson:"amount" json:"amount"`
	BalanceBefore int64         `bson:"balanceBefore" json:"balanceBefore"`
	BalanceAfter  int64         `bson:"balanceAfter" json:"balanceAfter"`
	Status        RequestStatus `bson:"status" json:"status"`
	ProcessedBy   string        `bson:"processedBy,omitempty" json:"processedBy,omitempty"`
	ProcessedAt   *time.Time    `bson:"processedAt,omitempty" json:"processedAt,omitempty"`
	RejectReason  string        `bson:"rejectReason,omitempty" json:"rejectReason,omitempty"`
	CreatedAt     time.Time     `bson:"createdAt" json:"createdAt"`
}

// WithdrawalRequest is a provider-initiated payout of earnings, net of tax
// deducted at source. TDS fields are filled at approval time.
type WithdrawalRequest struct {
	ID            string        `bson:"id" json:"id"`
	ProviderID    string        `bson:"providerId" json:"providerId"`
	Amount        int64         `bson:"amount" json:"amount"` // gross
	TDSRate       float64       `bson:"tdsRate,omitempty" json:"tdsRate,omitempty"`
	TDSAmount     int64         `bson:"tdsAmount,omitempty" json:"tdsAmount,omitempty"`
	NetAmount     int64         `bson:"netAmount,omitempty" json:"netAmount,omitempty"`
	BalanceBefore int64         `bson:"balanceBefore" json:"balanceBefore"`
	BalanceAfter  int64         `bson:"balanceAfter" json:"balanceAfter"`
	Status        RequestStatus `bson:"status" json:"status"`
	ProcessedBy   string        `bson:"processedBy,omitempty" json:"processedBy,omitempty"`
	ProcessedAt   *time.Time    `bson:"processedAt,omitempty" json:"processedAt,omitempty"`
	RejectReason  string        `bson:"rejectReason,omitempty" json:"rejectReason,omitempty"`
	CreatedAt     time.Time     `bson:"createdAt" json:"createdAt"`
}
