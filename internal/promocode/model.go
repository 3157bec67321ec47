package promocode

import (
	"time"

	"promobank/internal/money"
)

const (
	// KindSingleUse codes are redeemable at most once per user.
	KindSingleUse = "single_use"
	// KindMultiUse codes may be redeemed repeatedly by the same user,
	// bounded only by the global usage limit.
	KindMultiUse = "multi_use"
)

type Promocode struct {
	ID               string     `db:"id" json:"id"`
	Code             string     `db:"code" json:"code"`
	AmountMinorUnits int64      `db:"amount_minor_units" json:"amount_minor_units"`
	Kind             string     `db:"kind" json:"kind"`
	ExpiresAt        *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	UsageLimit       *int       `db:"usage_limit" json:"usage_limit,omitempty"`
	UsageCount       int        `db:"usage_count" json:"usage_count"`
	IsActive         bool       `db:"is_active" json:"is_active"`
	Description      *string    `db:"description" json:"description,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

func (p *Promocode) Amount() money.Amount {
	return money.Amount(p.AmountMinorUnits)
}

// Redeemable reports whether the code can still be granted at the given
// moment. The checks run in a fixed order: inactive, then expired, then
// exhausted. An inactive code reports ErrCodeInactive even when it is also
// past its expiry, so callers see a stable reason.
func (p *Promocode) Redeemable(now time.Time) error {
	if !p.IsActive {
		return ErrCodeInactive
	}
	if p.ExpiresAt != nil && now.After(*p.ExpiresAt) {
		return ErrCodeExpired
	}
	if p.UsageLimit != nil && p.UsageCount >= *p.UsageLimit {
		return ErrUsageLimitReached
	}
	return nil
}

type Usage struct {
	ID                    string    `db:"id" json:"id"`
	UserID                string    `db:"user_id" json:"user_id"`
	PromocodeID           string    `db:"promocode_id" json:"promocode_id"`
	AmountAddedMinorUnits int64     `db:"amount_added_minor_units" json:"amount_added_minor_units"`
	UsedAt                time.Time `db:"used_at" json:"used_at"`
}

// ActivationResult is returned to the caller after a successful redemption.
type ActivationResult struct {
	PromocodeID           string `json:"promocode_id"`
	UsageID               string `json:"usage_id"`
	AmountAddedMinorUnits int64  `json:"amount_added_minor_units"`
	NewBalanceMinorUnits  int64  `json:"new_balance_minor_units"`
}
