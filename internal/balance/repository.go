package balance

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"promobank/internal/money"
)

var (
	ErrNotFound      = errors.New("balance not found")
	ErrAlreadyExists = errors.New("balance already exists")
)

const uniqueViolation = "23505"

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, userID string) (*Balance, error) {
	b := &Balance{}
	err := r.db.GetContext(ctx, b,
		`SELECT id, user_id, amount_minor_units, created_at, updated_at
		 FROM balances
		 WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *repository) Create(ctx context.Context, userID string) (*Balance, error) {
	b := &Balance{}
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO balances (id, user_id)
		 VALUES ($1, $2)
		 RETURNING id, user_id, amount_minor_units, created_at, updated_at`,
		uuid.NewString(), userID,
	).StructScan(b)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return b, nil
}

// CreditTx adds amount to the user's balance inside the caller's transaction.
// The balance row is locked FOR UPDATE for the rest of the transaction; a
// missing row is created with a zero balance before the credit is applied.
func (r *repository) CreditTx(ctx context.Context, tx *sqlx.Tx, userID string, amount money.Amount, kind string) (*Balance, error) {
	b, err := lockRow(ctx, tx, userID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		b, err = createRowTx(ctx, tx, userID)
		if err != nil {
			return nil, err
		}
	}

	newAmount, err := money.Add(b.Amount(), amount)
	if err != nil {
		return nil, err
	}

	return applyTx(ctx, tx, b, newAmount, int64(amount), kind)
}

// DebitTx subtracts amount from the user's balance inside the caller's
// transaction. Unlike CreditTx, a missing row is an error; balances are never
// created by spending.
func (r *repository) DebitTx(ctx context.Context, tx *sqlx.Tx, userID string, amount money.Amount, kind string) (*Balance, error) {
	b, err := lockRow(ctx, tx, userID)
	if err != nil {
		return nil, err
	}

	newAmount, err := money.Subtract(b.Amount(), amount)
	if err != nil {
		return nil, err
	}

	return applyTx(ctx, tx, b, newAmount, -int64(amount), kind)
}

func (r *repository) Credit(ctx context.Context, userID string, amount money.Amount, kind string) (*Balance, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	b, err := r.CreditTx(ctx, tx, userID, amount, kind)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repository) Debit(ctx context.Context, userID string, amount money.Amount, kind string) (*Balance, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	b, err := r.DebitTx(ctx, tx, userID, amount, kind)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *repository) Transactions(ctx context.Context, userID string, limit, offset int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	var balanceID string
	err := r.db.GetContext(ctx, &balanceID, `SELECT id FROM balances WHERE user_id = $1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []Transaction{}, nil
		}
		return nil, err
	}

	txs := []Transaction{}
	err = r.db.SelectContext(ctx, &txs, `
		SELECT id, balance_id, amount_minor_units, kind, balance_after, created_at
		FROM balance_transactions
		WHERE balance_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, balanceID, limit, offset)
	if err != nil {
		return nil, err
	}

	return txs, nil
}

func lockRow(ctx context.Context, tx *sqlx.Tx, userID string) (*Balance, error) {
	b := &Balance{}
	err := tx.QueryRowxContext(ctx,
		`SELECT id, user_id, amount_minor_units, created_at, updated_at
		 FROM balances
		 WHERE user_id = $1
		 FOR UPDATE`,
		userID,
	).StructScan(b)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func createRowTx(ctx context.Context, tx *sqlx.Tx, userID string) (*Balance, error) {
	b := &Balance{}
	err := tx.QueryRowxContext(ctx,
		`INSERT INTO balances (id, user_id)
		 VALUES ($1, $2)
		 RETURNING id, user_id, amount_minor_units, created_at, updated_at`,
		uuid.NewString(), userID,
	).StructScan(b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func applyTx(ctx context.Context, tx *sqlx.Tx, b *Balance, newAmount money.Amount, delta int64, kind string) (*Balance, error) {
	err := tx.QueryRowxContext(ctx,
		`UPDATE balances
		 SET amount_minor_units = $1, updated_at = NOW()
		 WHERE id = $2
		 RETURNING updated_at`,
		int64(newAmount), b.ID,
	).Scan(&b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.AmountMinorUnits = int64(newAmount)

	_, err = tx.ExecContext(ctx,
		`INSERT INTO balance_transactions (id, balance_id, amount_minor_units, kind, balance_after)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), b.ID, delta, kind, int64(newAmount),
	)
	if err != nil {
		return nil, err
	}

	return b, nil
}
