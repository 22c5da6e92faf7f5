package models

import "time"

// ProviderWallet is the per-provider ledger record. Dues is money the
// provider holds on the platform's behalf (collected cash); Earnings is money
// the platform owes the provider. All amounts are in currency minor units.
type ProviderWallet struct {
	ProviderID  string     `bson:"providerId" json:"providerId"`
	Dues        int64      `bson:"dues" json:"dues"`
	Earnings    int64      `bson:"earnings" json:"earnings"`
	CashLimit   int64      `bson:"cashLimit" json:"cashLimit"`
	IsBlocked   bool       `bson:"isBlocked" json:"isBlocked"`
	BlockedAt   *time.Time `bson:"blockedAt,omitempty" json:"blockedAt,omitempty"`
	BlockReason string     `bson:"blockReason,omitempty" json:"blockReason,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// OverLimit reports whether dues exceed the cash ceiling.
func (w *ProviderWallet) OverLimit() bool {
	return w.Dues > w.CashLimit
}
