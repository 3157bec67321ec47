package promocode

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrNotFound          = errors.New("promocode not found")
	ErrDuplicateCode     = errors.New("promocode code already exists")
	ErrCodeInactive      = errors.New("promocode is inactive")
	ErrCodeExpired       = errors.New("promocode has expired")
	ErrUsageLimitReached = errors.New("promocode usage limit reached")
	ErrAlreadyRedeemed   = errors.New("promocode already redeemed by this user")
)

const uniqueViolation = "23505"

const promocodeColumns = `id, code, amount_minor_units, kind, expires_at, usage_limit, usage_count, is_active, description, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, params CreateParams) (*Promocode, error) {
	p := &Promocode{}
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO promocodes (id, code, amount_minor_units, kind, expires_at, usage_limit, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+promocodeColumns,
		uuid.NewString(), params.Code, params.AmountMinorUnits, params.Kind,
		params.ExpiresAt, params.UsageLimit, params.Description,
	).StructScan(p)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}
	return p, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Promocode, error) {
	p := &Promocode{}
	err := r.db.GetContext(ctx, p,
		`SELECT `+promocodeColumns+` FROM promocodes WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *repository) GetByCode(ctx context.Context, code string) (*Promocode, error) {
	p := &Promocode{}
	err := r.db.GetContext(ctx, p,
		`SELECT `+promocodeColumns+` FROM promocodes WHERE code = $1`, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *repository) List(ctx context.Context) ([]Promocode, error) {
	codes := []Promocode{}
	err := r.db.SelectContext(ctx, &codes,
		`SELECT `+promocodeColumns+` FROM promocodes ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *repository) Deactivate(ctx context.Context, id string) (*Promocode, error) {
	p := &Promocode{}
	err := r.db.QueryRowxContext(ctx,
		`UPDATE promocodes
		 SET is_active = FALSE, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+promocodeColumns,
		id,
	).StructScan(p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *repository) UserUsages(ctx context.Context, userID string) ([]Usage, error) {
	usages := []Usage{}
	err := r.db.SelectContext(ctx, &usages,
		`SELECT id, user_id, promocode_id, amount_added_minor_units, used_at
		 FROM promocode_usages
		 WHERE user_id = $1
		 ORDER BY used_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	return usages, nil
}

func (r *repository) PromocodeUsages(ctx context.Context, promocodeID string) ([]Usage, error) {
	usages := []Usage{}
	err := r.db.SelectContext(ctx, &usages,
		`SELECT id, user_id, promocode_id, amount_added_minor_units, used_at
		 FROM promocode_usages
		 WHERE promocode_id = $1
		 ORDER BY used_at DESC`,
		promocodeID,
	)
	if err != nil {
		return nil, err
	}
	return usages, nil
}

// GetByCodeForUpdate locks the promocode row for the rest of the
// transaction. Concurrent redemptions of the same code serialize here, which
// keeps usage_count accurate against its limit.
func (r *repository) GetByCodeForUpdate(ctx context.Context, tx *sqlx.Tx, code string) (*Promocode, error) {
	p := &Promocode{}
	err := tx.QueryRowxContext(ctx,
		`SELECT `+promocodeColumns+` FROM promocodes WHERE code = $1 FOR UPDATE`,
		code,
	).StructScan(p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *repository) UsageExists(ctx context.Context, tx *sqlx.Tx, userID, promocodeID string) (bool, error) {
	var exists bool
	err := tx.QueryRowxContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM promocode_usages WHERE user_id = $1 AND promocode_id = $2)`,
		userID, promocodeID,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *repository) InsertUsage(ctx context.Context, tx *sqlx.Tx, userID, promocodeID string, amountMinorUnits int64) (*Usage, error) {
	u := &Usage{}
	err := tx.QueryRowxContext(ctx,
		`INSERT INTO promocode_usages (id, user_id, promocode_id, amount_added_minor_units)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, user_id, promocode_id, amount_added_minor_units, used_at`,
		uuid.NewString(), userID, promocodeID, amountMinorUnits,
	).StructScan(u)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *repository) IncrementUsage(ctx context.Context, tx *sqlx.Tx, promocodeID string) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE promocodes
		 SET usage_count = usage_count + 1, updated_at = NOW()
		 WHERE id = $1`,
		promocodeID,
	)
	return err
}
