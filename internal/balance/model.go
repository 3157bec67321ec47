package balance

import (
	"time"

	"promobank/internal/money"
)

// Balance — one ledger row per user. Amounts are stored as integer minor
// units and are never negative.
type Balance struct {
	ID               string    `db:"id" json:"id"`
	UserID           string    `db:"user_id" json:"user_id"`
	AmountMinorUnits int64     `db:"amount_minor_units" json:"amount_minor_units"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

func (b *Balance) Amount() money.Amount {
	return money.Amount(b.AmountMinorUnits)
}

func (b *Balance) FormattedAmount() string {
	return money.Format(b.Amount())
}

const (
	TxKindCredit         = "credit"
	TxKindDebit          = "debit"
	TxKindPromocodeGrant = "promocode_grant"
)

// Transaction is an append-only journal entry. AmountMinorUnits is signed:
// negative for debits.
type Transaction struct {
	ID               string    `db:"id" json:"id"`
	BalanceID        string    `db:"balance_id" json:"balance_id"`
	AmountMinorUnits int64     `db:"amount_minor_units" json:"amount_minor_units"`
	Kind             string    `db:"kind" json:"kind"`
	BalanceAfter     int64     `db:"balance_after" json:"balance_after"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}
