package promocode

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type CreateParams struct {
	Code             string
	AmountMinorUnits int64
	Kind             string
	ExpiresAt        *time.Time
	UsageLimit       *int
	Description      *string
}

type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Promocode, error)
	GetByID(ctx context.Context, id string) (*Promocode, error)
	GetByCode(ctx context.Context, code string) (*Promocode, error)
	List(ctx context.Context) ([]Promocode, error)
	Deactivate(ctx context.Context, id string) (*Promocode, error)
	UserUsages(ctx context.Context, userID string) ([]Usage, error)
	PromocodeUsages(ctx context.Context, promocodeID string) ([]Usage, error)

	// Transaction-scoped operations used during redemption. The caller owns
	// the transaction; none of these commit or roll back.
	GetByCodeForUpdate(ctx context.Context, tx *sqlx.Tx, code string) (*Promocode, error)
	UsageExists(ctx context.Context, tx *sqlx.Tx, userID, promocodeID string) (bool, error)
	InsertUsage(ctx context.Context, tx *sqlx.Tx, userID, promocodeID string, amountMinorUnits int64) (*Usage, error)
	IncrementUsage(ctx context.Context, tx *sqlx.Tx, promocodeID string) error
}
