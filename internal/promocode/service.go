package promocode

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"promobank/internal/balance"
	"promobank/internal/logger"
	"promobank/internal/metrics"
	"promobank/internal/money"
	"promobank/internal/notifier"
)

type Service interface {
	Create(ctx context.Context, params CreateParams) (*Promocode, error)
	Activate(ctx context.Context, userID, code string) (*ActivationResult, error)
	Deactivate(ctx context.Context, id string) (*Promocode, error)
	GetByCode(ctx context.Context, code string) (*Promocode, error)
	List(ctx context.Context) ([]Promocode, error)
	UserUsages(ctx context.Context, userID string) ([]Usage, error)
	PromocodeUsages(ctx context.Context, promocodeID string) ([]Usage, error)
}

type service struct {
	db          *sqlx.DB
	repo        Repository
	balanceRepo balance.Repository
	events      *notifier.Service
	now         func() time.Time
}

func NewService(db *sqlx.DB, repo Repository, balanceRepo balance.Repository, events *notifier.Service) Service {
	return &service{
		db:          db,
		repo:        repo,
		balanceRepo: balanceRepo,
		events:      events,
		now:         time.Now,
	}
}

func (s *service) Create(ctx context.Context, params CreateParams) (*Promocode, error) {
	if params.AmountMinorUnits <= 0 {
		return nil, money.ErrInvalidAmount
	}
	if params.Kind == "" {
		params.Kind = KindSingleUse
	}

	p, err := s.repo.Create(ctx, params)
	if err != nil {
		return nil, err
	}

	logger.Infof("Promocode created: %s (%s)", p.Code, p.Kind)
	return p, nil
}

// Activate redeems a code for a user. The whole redemption runs in one
// transaction: the promocode row is locked first, eligibility is evaluated
// against the locked row, the balance credit takes its own row lock, and the
// usage record and counter increment commit together with it. Any failure
// rolls everything back, so a grant is observed fully or not at all.
func (s *service) Activate(ctx context.Context, userID, code string) (*ActivationResult, error) {
	result, err := s.activate(ctx, userID, code)
	if err != nil {
		metrics.RecordRedemption(redemptionOutcome(err))
		return nil, err
	}

	metrics.RecordRedemption("success")
	s.publishGrant(ctx, userID, code, result)

	return result, nil
}

func (s *service) activate(ctx context.Context, userID, code string) (*ActivationResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	p, err := s.repo.GetByCodeForUpdate(ctx, tx, code)
	if err != nil {
		return nil, err
	}

	if err := p.Redeemable(s.now()); err != nil {
		return nil, err
	}

	// The per-user check runs under the promocode lock, inside the same
	// transaction that writes the usage record. Two concurrent activations
	// by the same user serialize on the lock, so the second one sees the
	// first one's record.
	if p.Kind == KindSingleUse {
		used, err := s.repo.UsageExists(ctx, tx, userID, p.ID)
		if err != nil {
			return nil, err
		}
		if used {
			return nil, ErrAlreadyRedeemed
		}
	}

	b, err := s.balanceRepo.CreditTx(ctx, tx, userID, p.Amount(), balance.TxKindPromocodeGrant)
	if err != nil {
		return nil, err
	}

	usage, err := s.repo.InsertUsage(ctx, tx, userID, p.ID, p.AmountMinorUnits)
	if err != nil {
		return nil, err
	}

	if err := s.repo.IncrementUsage(ctx, tx, p.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	logger.Infof("Promocode %s activated by user %s", code, userID)

	return &ActivationResult{
		PromocodeID:           p.ID,
		UsageID:               usage.ID,
		AmountAddedMinorUnits: p.AmountMinorUnits,
		NewBalanceMinorUnits:  b.AmountMinorUnits,
	}, nil
}

func (s *service) Deactivate(ctx context.Context, id string) (*Promocode, error) {
	p, err := s.repo.Deactivate(ctx, id)
	if err != nil {
		return nil, err
	}

	logger.Infof("Promocode deactivated: %s", p.Code)
	return p, nil
}

func (s *service) GetByCode(ctx context.Context, code string) (*Promocode, error) {
	return s.repo.GetByCode(ctx, code)
}

func (s *service) List(ctx context.Context) ([]Promocode, error) {
	return s.repo.List(ctx)
}

func (s *service) UserUsages(ctx context.Context, userID string) ([]Usage, error) {
	return s.repo.UserUsages(ctx, userID)
}

func (s *service) PromocodeUsages(ctx context.Context, promocodeID string) ([]Usage, error) {
	return s.repo.PromocodeUsages(ctx, promocodeID)
}

func (s *service) publishGrant(ctx context.Context, userID, code string, result *ActivationResult) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, notifier.Event{
		UserID:           userID,
		Kind:             notifier.EventRedemption,
		AmountMinorUnits: result.AmountAddedMinorUnits,
		BalanceAfter:     result.NewBalanceMinorUnits,
		Reference:        code,
	}); err != nil {
		logger.Errorf("Failed to publish redemption event for user %s: %v", userID, err)
	}
}

func redemptionOutcome(err error) string {
	switch err {
	case ErrNotFound:
		return "not_found"
	case ErrCodeInactive:
		return "inactive"
	case ErrCodeExpired:
		return "expired"
	case ErrUsageLimitReached:
		return "limit_reached"
	case ErrAlreadyRedeemed:
		return "already_redeemed"
	default:
		return "error"
	}
}
