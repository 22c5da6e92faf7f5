package booking

import (
	"math"

	"fixserv/config"
	"fixserv/models"
)

// RateSnapshot is the platform rate configuration resolved once per
// calculation. It is never re-read mid-operation, so a rate change can never
// produce an inconsistent split within one booking.
type RateSnapshot struct {
	CommissionRate float64 // percent
	TDSRate        float64 // percent
}

// CurrentRates reads the configured rates.
func CurrentRates() RateSnapshot {
	return RateSnapshot{
		CommissionRate: config.AppConfig.CommissionRate,
		TDSRate:        config.AppConfig.TDSRate,
	}
}

// SplitEarnings divides a final amount into platform commission and provider
// earnings. Amounts are minor units; the commission is rounded to the nearest
// unit and the remainder goes to the provider, so the two always sum exactly
// to the final amount.
func SplitEarnings(finalAmount int64, commissionRate float64) (commission, earnings int64) {
	commission = RoundPercent(finalAmount, commissionRate)
	earnings = finalAmount - commission
	return commission, earnings
}

// RoundPercent computes round(amount * rate / 100) in minor units.
func RoundPercent(amount int64, rate float64) int64 {
	return int64(math.Round(float64(amount) * rate / 100))
}

// BuildPricing reconciles a client-supplied breakdown into a snapshot. The
// final amount is recomputed once from the components; a mismatched
// client-side total is corrected here rather than rejected.
func BuildPricing(basePrice, discount, tax, visitingCharge int64, rates RateSnapshot) (models.PricingSnapshot, error) {
	if basePrice <= 0 {
		return models.PricingSnapshot{}, &ValidationError{Field: "basePrice", Reason: "must be positive"}
	}
	if discount < 0 || tax < 0 || visitingCharge < 0 {
		return models.PricingSnapshot{}, &ValidationError{Field: "pricing", Reason: "components must not be negative"}
	}

	finalAmount := basePrice - discount + tax + visitingCharge
	if finalAmount <= 0 {
		return models.PricingSnapshot{}, &ValidationError{Field: "pricing", Reason: "final amount must be positive"}
	}

	commission, earnings := SplitEarnings(finalAmount, rates.CommissionRate)
	return models.PricingSnapshot{
		BasePrice:          basePrice,
		Discount:           discount,
		Tax:                tax,
		VisitingCharge:     visitingCharge,
		FinalAmount:        finalAmount,
		ProviderEarnings:   earnings,
		PlatformCommission: commission,
		CommissionRate:     rates.CommissionRate,
	}, nil
}
