package ranking

import (
	"context"
	"time"

	"github.com/alem-hub/achievement-hub/internal/domain/achievement"
	"github.com/alem-hub/achievement-hub/internal/domain/shared"
	"github.com/alem-hub/achievement-hub/internal/domain/user"
	"github.com/alem-hub/achievement-hub/pkg/circuitbreaker"
	"github.com/alem-hub/achievement-hub/pkg/logger"
	"github.com/alem-hub/achievement-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADAPTER
// ══════════════════════════════════════════════════════════════════════════════

// AdapterConfig configures delivery to the store.
type AdapterConfig struct {
	Cohort         string
	MaxRetries     int
	RequestTimeout time.Duration

	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration
}

// DefaultAdapterConfig returns defaults matching config.RankingConfig.
func DefaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		Cohort:                  "default",
		MaxRetries:              3,
		RequestTimeout:          2 * time.Second,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   30 * time.Second,
	}
}

// Adapter sends users to a Store with retries behind a circuit breaker.
type Adapter struct {
	store    Store
	config   AdapterConfig
	retrier  *retry.Retrier
	breaker  *circuitbreaker.CircuitBreaker
	logger   *logger.Logger
	observer *unlockForwarder
}

// NewAdapter creates an Adapter. A nil store falls back to LogStore.
func NewAdapter(store Store, cfg AdapterConfig, log *logger.Logger) *Adapter {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With(logger.Component("ranking_adapter"))
	if store == nil {
		store = NewLogStore(log)
	}
	if cfg.Cohort == "" {
		cfg.Cohort = DefaultAdapterConfig().Cohort
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultAdapterConfig().RequestTimeout
	}

	a := &Adapter{
		store:   store,
		config:  cfg,
		retrier: retry.RankingRetrier(cfg.MaxRetries),
		logger:  log,
	}
	a.breaker = circuitbreaker.RankingBreaker(
		cfg.CircuitBreakerThreshold,
		cfg.CircuitBreakerTimeout,
		func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		},
	)
	a.observer = &unlockForwarder{adapter: a}
	return a
}

// WithRetrier replaces the retry policy.
func (a *Adapter) WithRetrier(r *retry.Retrier) *Adapter {
	a.retrier = r
	return a
}

// WithBreaker replaces the circuit breaker.
func (a *Adapter) WithBreaker(cb *circuitbreaker.CircuitBreaker) *Adapter {
	a.breaker = cb
	return a
}

// SendUser forwards u's current totals to the ranking.
func (a *Adapter) SendUser(ctx context.Context, u *user.User) error {
	return a.Send(ctx, EntryFromUser(u))
}

// Send forwards entry to the ranking. While the breaker is open the entry is
// logged and dropped, and ErrRankingUnavailable is returned.
func (a *Adapter) Send(ctx context.Context, entry Entry) error {
	start := time.Now()

	err := a.breaker.ExecuteWithFallback(ctx,
		func(ctx context.Context) error {
			return a.retrier.Do(ctx, func(ctx context.Context) error {
				callCtx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
				defer cancel()
				return retry.Retryable(a.store.Upsert(callCtx, a.config.Cohort, entry))
			})
		},
		func(cause error) error {
			a.logger.Warn("ranking unavailable, entry dropped",
				logger.UserID(entry.UserID),
				logger.Points(entry.Points),
				logger.Err(cause),
			)
			return shared.ErrRankingUnavailable.Detail("ranking unavailable for user %s", entry.UserID)
		},
	)
	if err != nil {
		if shared.IsServiceUnavailable(err) {
			return err
		}
		a.logger.Error("ranking upsert failed", logger.UserID(entry.UserID), logger.Err(err))
		return shared.WrapError("ranking", "Send", shared.ErrExternalService, "upsert ranking entry", err)
	}

	a.logger.Debug("ranking updated",
		logger.UserID(entry.UserID),
		logger.Points(entry.Points),
		logger.Latency(time.Since(start)),
	)
	return nil
}

// Observer returns an achievement observer that pushes the owner's totals on
// every unlock. The same value is returned on every call.
func (a *Adapter) Observer() achievement.Observer {
	return a.observer
}

type unlockForwarder struct {
	adapter *Adapter
}

func (f *unlockForwarder) ObserverName() string { return "ranking" }

func (f *unlockForwarder) OnUnlock(state *achievement.UserState, _ achievement.Item) error {
	ctx, cancel := context.WithTimeout(context.Background(), f.adapter.config.RequestTimeout*time.Duration(f.adapter.config.MaxRetries+1))
	defer cancel()
	return f.adapter.Send(ctx, EntryFromState(state))
}
