package integration_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"promobank/internal/balance"
	"promobank/internal/promocode"
)

func TestPromocodeActivate_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	cleanDatabase(t, db)

	balanceRepo := balance.NewRepository(db)
	svc := promocode.NewService(db, promocode.NewRepository(db), balanceRepo, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, promocode.CreateParams{
		Code:             "WELCOME100",
		AmountMinorUnits: 10000,
		Kind:             promocode.KindSingleUse,
	})
	require.NoError(t, err)

	result, err := svc.Activate(ctx, "user-1", "WELCOME100")
	require.NoError(t, err)
	require.Equal(t, int64(10000), result.AmountAddedMinorUnits)
	require.Equal(t, int64(10000), result.NewBalanceMinorUnits)

	// Second activation by the same user fails and changes nothing
	_, err = svc.Activate(ctx, "user-1", "WELCOME100")
	require.ErrorIs(t, err, promocode.ErrAlreadyRedeemed)

	b, err := balanceRepo.Get(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(10000), b.AmountMinorUnits)
}

func TestPromocodeExactlyOnce_Concurrent_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	cleanDatabase(t, db)

	balanceRepo := balance.NewRepository(db)
	svc := promocode.NewService(db, promocode.NewRepository(db), balanceRepo, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, promocode.CreateParams{
		Code:             "ONCE",
		AmountMinorUnits: 5000,
		Kind:             promocode.KindSingleUse,
	})
	require.NoError(t, err)

	const workers = 10

	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Activate(ctx, "racer", "ONCE")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, alreadyRedeemed int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, promocode.ErrAlreadyRedeemed):
			alreadyRedeemed++
		default:
			t.Fatalf("unexpected activation error: %v", err)
		}
	}

	require.Equal(t, 1, succeeded)
	require.Equal(t, workers-1, alreadyRedeemed)

	// Exactly one grant landed on the balance
	b, err := balanceRepo.Get(ctx, "racer")
	require.NoError(t, err)
	require.Equal(t, int64(5000), b.AmountMinorUnits)
}

func TestPromocodeUsageLimit_Concurrent_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	cleanDatabase(t, db)

	balanceRepo := balance.NewRepository(db)
	repo := promocode.NewRepository(db)
	svc := promocode.NewService(db, repo, balanceRepo, nil)
	ctx := context.Background()

	limit := 10
	created, err := svc.Create(ctx, promocode.CreateParams{
		Code:             "LIMITED",
		AmountMinorUnits: 1000,
		Kind:             promocode.KindSingleUse,
		UsageLimit:       &limit,
	})
	require.NoError(t, err)

	const users = 15

	var wg sync.WaitGroup
	results := make(chan error, users)
	for i := 0; i < users; i++ {
		userID := fmt.Sprintf("user-%d", i)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Activate(ctx, userID, "LIMITED")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, limited int
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, promocode.ErrUsageLimitReached):
			limited++
		default:
			t.Fatalf("unexpected activation error: %v", err)
		}
	}

	require.Equal(t, limit, succeeded)
	require.Equal(t, users-limit, limited)

	p, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, limit, p.UsageCount)
}

func TestPromocodeExpired_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	cleanDatabase(t, db)

	svc := promocode.NewService(db, promocode.NewRepository(db), balance.NewRepository(db), nil)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	_, err := svc.Create(ctx, promocode.CreateParams{
		Code:             "EXPIRED",
		AmountMinorUnits: 1000,
		Kind:             promocode.KindSingleUse,
		ExpiresAt:        &past,
	})
	require.NoError(t, err)

	_, err = svc.Activate(ctx, "user-1", "EXPIRED")
	require.ErrorIs(t, err, promocode.ErrCodeExpired)
}

func TestPromocodeDeactivate_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	cleanDatabase(t, db)

	svc := promocode.NewService(db, promocode.NewRepository(db), balance.NewRepository(db), nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, promocode.CreateParams{
		Code:             "SHORTLIVED",
		AmountMinorUnits: 1000,
		Kind:             promocode.KindMultiUse,
	})
	require.NoError(t, err)

	_, err = svc.Deactivate(ctx, created.ID)
	require.NoError(t, err)

	_, err = svc.Activate(ctx, "user-1", "SHORTLIVED")
	require.ErrorIs(t, err, promocode.ErrCodeInactive)
}

func TestPromocodeDuplicateCode_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	db := setupTestDB(t)
	defer db.Close()

	cleanDatabase(t, db)

	svc := promocode.NewService(db, promocode.NewRepository(db), balance.NewRepository(db), nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, promocode.CreateParams{
		Code:             "DUP",
		AmountMinorUnits: 1000,
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, promocode.CreateParams{
		Code:             "DUP",
		AmountMinorUnits: 2000,
	})
	require.ErrorIs(t, err, promocode.ErrDuplicateCode)
}
