// Package notifier queues balance events on a redis list and dispatches them
// to an optional downstream webhook from a background worker. Publishing is
// fire-and-forget: the ledger never waits on delivery.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"promobank/internal/logger"
	"promobank/internal/metrics"
)

const (
	queueKey  = "balance_events"
	failedKey = "balance_events:failed"

	maxTries = 3
)

const (
	EventCredit     = "credit"
	EventDebit      = "debit"
	EventRedemption = "promocode_redemption"
)

type Event struct {
	UserID           string    `json:"user_id"`
	Kind             string    `json:"kind"`
	AmountMinorUnits int64     `json:"amount_minor_units"`
	BalanceAfter     int64     `json:"balance_after"`
	Reference        string    `json:"reference,omitempty"`
	Tries            int       `json:"tries"`
	Created          time.Time `json:"created"`
}

type Service struct {
	redis      *redis.Client
	webhookURL string
	client     *http.Client
}

func New(redisAddr, webhookURL string) *Service {
	return &Service{
		redis: redis.NewClient(&redis.Options{
			Addr: redisAddr,
		}),
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// NewWithClient builds a service around an existing redis client. Used by tests.
func NewWithClient(client *redis.Client, webhookURL string) *Service {
	return &Service{
		redis:      client,
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *Service) Publish(ctx context.Context, event Event) error {
	event.Created = time.Now()
	event.Tries = 0

	data, err := json.Marshal(event)
	if err != nil {
		logger.Errorf("Failed to marshal event: %v", err)
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, data).Err(); err != nil {
		logger.Errorf("Failed to queue %s event for user %s: %v", event.Kind, event.UserID, err)
		return err
	}

	logger.Infof("Event queued: %s for user %s", event.Kind, event.UserID)
	return nil
}

func (s *Service) Start(ctx context.Context) {
	logger.Info("Notifier worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Notifier worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}

	metrics.NotifierQueueLength.Set(float64(s.QueueLength(ctx)))

	var event Event
	if err := json.Unmarshal([]byte(result[1]), &event); err != nil {
		logger.Errorf("Bad event data: %v", err)
		return
	}

	event.Tries++
	if err := s.dispatch(ctx, event); err != nil {
		logger.Errorf("Failed to dispatch %s event for user %s: %v", event.Kind, event.UserID, err)

		if event.Tries < maxTries {
			data, _ := json.Marshal(event)
			s.redis.LPush(context.Background(), queueKey, data)
			logger.Infof("Retrying %s event for user %s (attempt %d)", event.Kind, event.UserID, event.Tries+1)
		} else {
			s.saveFailed(event, err)
		}
		return
	}
}

func (s *Service) dispatch(ctx context.Context, event Event) error {
	if s.webhookURL == "" {
		logger.Info("Balance event",
			"user_id", event.UserID,
			"kind", event.Kind,
			"amount_minor_units", event.AmountMinorUnits,
			"balance_after", event.BalanceAfter,
		)
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &webhookError{status: resp.StatusCode}
	}
	return nil
}

func (s *Service) saveFailed(event Event, cause error) {
	failed := map[string]interface{}{
		"event": event,
		"error": cause.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedKey, data)
	logger.Errorf("Event moved to failed queue: %s for user %s", event.Kind, event.UserID)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}

type webhookError struct {
	status int
}

func (e *webhookError) Error() string {
	return http.StatusText(e.status)
}
