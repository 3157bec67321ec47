package balance

import (
	"context"

	"github.com/jmoiron/sqlx"

	"promobank/internal/money"
)

type Repository interface {
	Get(ctx context.Context, userID string) (*Balance, error)
	Create(ctx context.Context, userID string) (*Balance, error)
	Credit(ctx context.Context, userID string, amount money.Amount, kind string) (*Balance, error)
	Debit(ctx context.Context, userID string, amount money.Amount, kind string) (*Balance, error)
	CreditTx(ctx context.Context, tx *sqlx.Tx, userID string, amount money.Amount, kind string) (*Balance, error)
	DebitTx(ctx context.Context, tx *sqlx.Tx, userID string, amount money.Amount, kind string) (*Balance, error)
	Transactions(ctx context.Context, userID string, limit, offset int) ([]Transaction, error)
}
