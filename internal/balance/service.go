package balance

import (
	"context"

	"promobank/internal/logger"
	"promobank/internal/metrics"
	"promobank/internal/money"
	"promobank/internal/notifier"
)

type Service interface {
	GetBalance(ctx context.Context, userID string) (*Balance, error)
	CreateBalance(ctx context.Context, userID string) (*Balance, error)
	Credit(ctx context.Context, userID string, amountMajor float64) (*Balance, error)
	Debit(ctx context.Context, userID string, amountMajor float64) (*Balance, error)
	HasSufficientFunds(ctx context.Context, userID string, amountMajor float64) bool
	Transactions(ctx context.Context, userID string, limit, offset int) ([]Transaction, error)
}

type service struct {
	repo   Repository
	events *notifier.Service
}

func NewService(repo Repository, events *notifier.Service) Service {
	return &service{
		repo:   repo,
		events: events,
	}
}

func (s *service) GetBalance(ctx context.Context, userID string) (*Balance, error) {
	return s.repo.Get(ctx, userID)
}

func (s *service) CreateBalance(ctx context.Context, userID string) (*Balance, error) {
	return s.repo.Create(ctx, userID)
}

func (s *service) Credit(ctx context.Context, userID string, amountMajor float64) (*Balance, error) {
	// Validation happens before any transaction opens.
	amount, err := money.FromMajor(amountMajor)
	if err != nil {
		return nil, err
	}

	b, err := s.repo.Credit(ctx, userID, amount, TxKindCredit)
	if err != nil {
		return nil, err
	}

	metrics.CreditsTotal.Inc()
	s.publish(ctx, userID, notifier.EventCredit, int64(amount), b.AmountMinorUnits, "")

	return b, nil
}

func (s *service) Debit(ctx context.Context, userID string, amountMajor float64) (*Balance, error) {
	amount, err := money.FromMajor(amountMajor)
	if err != nil {
		return nil, err
	}

	b, err := s.repo.Debit(ctx, userID, amount, TxKindDebit)
	if err != nil {
		return nil, err
	}

	metrics.DebitsTotal.Inc()
	s.publish(ctx, userID, notifier.EventDebit, int64(amount), b.AmountMinorUnits, "")

	return b, nil
}

// HasSufficientFunds is a non-authoritative pre-flight check. Any lookup or
// validation failure reads as "no"; the locked Debit path is the real gate.
func (s *service) HasSufficientFunds(ctx context.Context, userID string, amountMajor float64) bool {
	required, err := money.FromMajor(amountMajor)
	if err != nil {
		return false
	}

	b, err := s.repo.Get(ctx, userID)
	if err != nil {
		return false
	}

	return b.Amount() >= required
}

func (s *service) Transactions(ctx context.Context, userID string, limit, offset int) ([]Transaction, error) {
	return s.repo.Transactions(ctx, userID, limit, offset)
}

func (s *service) publish(ctx context.Context, userID, kind string, amount, balanceAfter int64, reference string) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, notifier.Event{
		UserID:           userID,
		Kind:             kind,
		AmountMinorUnits: amount,
		BalanceAfter:     balanceAfter,
		Reference:        reference,
	}); err != nil {
		logger.Errorf("Failed to publish %s event for user %s: %v", kind, userID, err)
	}
}
