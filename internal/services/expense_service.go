package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/cache"
	"expensetracker/internal/core"
	"expensetracker/internal/store"
)

// DefaultStoreTimeout bounds every call into the store.
const DefaultStoreTimeout = 7 * time.Second

const listCacheKey = "expenses"

// EventPublisher announces mutations to downstream consumers.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, ev amqp.ExpenseEvent) error
	Close() error
}

// ExpenseService validates requests, persists them through the store,
// keeps the list cache coherent and publishes change events.
type ExpenseService struct {
	store        store.Store
	publisher    EventPublisher
	listCache    *cache.LRUCache[[]core.Expense]
	storeTimeout time.Duration

	// cacheMu orders cache fills against invalidations. cacheGen is bumped on
	// every invalidation; a fill whose read started in an older generation
	// is dropped.
	cacheMu  sync.Mutex
	cacheGen uint64
}

// NewExpenseService wires a service. publisher and listCache may be nil.
func NewExpenseService(st store.Store, publisher EventPublisher, listCache *cache.LRUCache[[]core.Expense]) *ExpenseService {
	return &ExpenseService{
		store:        st,
		publisher:    publisher,
		listCache:    listCache,
		storeTimeout: DefaultStoreTimeout,
	}
}

// List returns every expense, date descending.
func (s *ExpenseService) List(ctx context.Context) ([]core.Expense, error) {
	if s.listCache != nil {
		if cached, ok := s.listCache.Get(listCacheKey); ok {
			return append([]core.Expense(nil), cached...), nil
		}
	}

	gen := s.generation()

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	expenses, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", unavailable(err))
	}

	s.fillCache(gen, expenses)
	return expenses, nil
}

// Create validates the draft, stores it and returns the stored record.
func (s *ExpenseService) Create(ctx context.Context, d core.Draft) (core.Expense, error) {
	e, err := d.Expense()
	if err != nil {
		return core.Expense{}, err
	}

	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	created, err := s.store.Create(sctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.invalidate()

	slog.InfoContext(ctx, "Expense created",
		"id", created.ID,
		"category", created.Category,
		"amount", created.Amount.Fixed())

	s.publish(ctx, amqp.NewExpenseEvent(amqp.EventCreated, created))
	return created, nil
}

// Update validates the draft and replaces the record stored under id.
func (s *ExpenseService) Update(ctx context.Context, id string, d core.Draft) (core.Expense, error) {
	e, err := d.Expense()
	if err != nil {
		return core.Expense{}, err
	}

	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	updated, err := s.store.Update(sctx, id, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	s.invalidate()

	slog.InfoContext(ctx, "Expense updated", "id", updated.ID)

	s.publish(ctx, amqp.NewExpenseEvent(amqp.EventUpdated, updated))
	return updated, nil
}

// Delete removes id. Deleting an unknown id succeeds.
func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	sctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.store.Delete(sctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", unavailable(err))
	}
	s.invalidate()

	slog.InfoContext(ctx, "Expense deleted", "id", id)

	s.publish(ctx, amqp.NewDeletedEvent(id))
	return nil
}

// Ping checks that the store answers.
func (s *ExpenseService) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return s.store.Ping(ctx)
}

func (s *ExpenseService) generation() uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.cacheGen
}

// fillCache stores expenses unless a mutation committed since gen was read.
func (s *ExpenseService) fillCache(gen uint64, expenses []core.Expense) {
	if s.listCache == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.cacheGen != gen {
		return
	}
	s.listCache.Set(listCacheKey, append([]core.Expense(nil), expenses...))
}

func (s *ExpenseService) invalidate() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.cacheGen++
	if s.listCache != nil {
		s.listCache.Clear()
	}
}

// publish never fails the caller: the mutation is already stored.
func (s *ExpenseService) publish(ctx context.Context, ev amqp.ExpenseEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"type", ev.Type,
			"id", ev.ID,
			"error", err)
	}
}

// unavailable tags infrastructure errors that the store left untagged.
func unavailable(err error) error {
	if errors.Is(err, core.ErrStoreUnavailable) || core.IsValidation(err) || errors.Is(err, core.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %w", core.ErrStoreUnavailable, err)
}

// Close closes both the store and the publisher.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %w", errors.Join(errs...))
	}

	return nil
}
