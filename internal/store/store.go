// Package store keeps a local mirror of one remote collection and applies
// every mutation through the remote authority first.
//
// The mirror is only written when a request completes successfully. When
// two responses for the same id race, whichever completes last wins.
package store

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"taskdeck/internal/apperr"
	"taskdeck/internal/model"
)

// Remote is the CRUD surface of one collection.
type Remote[T model.Entity[T]] interface {
	List(ctx context.Context, token string) ([]T, error)
	Create(ctx context.Context, token string, draft T) (T, error)
	Replace(ctx context.Context, token string, id model.ID, entity T) (T, error)
	Delete(ctx context.Context, token string, id model.ID) error
}

// Credentials supplies the bearer token and is told when the remote
// authority stops accepting it.
type Credentials interface {
	Token() string
	Invalidate(reason string)
}

type Store[T model.Entity[T]] struct {
	remote Remote[T]
	creds  Credentials
	logger *slog.Logger
	loads  singleflight.Group

	mu      sync.RWMutex
	items   []T
	loadErr error
}

func New[T model.Entity[T]](remote Remote[T], creds Credentials, logger *slog.Logger) *Store[T] {
	if logger == nil {
		logger = slog.Default()
	}
	var zero T
	return &Store[T]{
		remote: remote,
		creds:  creds,
		logger: logger.With("component", "store", "resource", zero.Resource()),
	}
}

// Load replaces the mirror with the server's collection. On failure the
// mirror is emptied and the error is kept for LoadErr. Concurrent calls
// share one request.
func (s *Store[T]) Load(ctx context.Context) []T {
	v, _, _ := s.loads.Do("load", func() (any, error) {
		return s.load(ctx), nil
	})
	return slices.Clone(v.([]T))
}

func (s *Store[T]) load(ctx context.Context) []T {
	token := s.creds.Token()
	var (
		items []T
		err   error
	)
	if token == "" {
		err = apperr.ErrNoSession
	} else {
		items, err = s.remote.List(ctx, token)
	}
	if err != nil {
		s.observe(err)
		s.logger.Error("load failed", "err", err)
		s.mu.Lock()
		s.items = nil
		s.loadErr = err
		s.mu.Unlock()
		return []T{}
	}

	kept := make([]T, 0, len(items))
	for _, item := range items {
		if item.EntityID().IsZero() {
			s.logger.Warn("dropping entry without id")
			continue
		}
		kept = append(kept, item)
	}
	s.mu.Lock()
	s.items = kept
	s.loadErr = nil
	s.mu.Unlock()
	s.logger.Debug("loaded", "count", len(kept))
	return kept
}

// Add creates draft on the server and appends the stored entity. A response
// without an id is an error and leaves the mirror unchanged.
func (s *Store[T]) Add(ctx context.Context, draft T) (T, error) {
	var zero T
	if err := validate(draft); err != nil {
		return zero, err
	}
	token := s.creds.Token()
	if token == "" {
		return zero, apperr.ErrNoSession
	}
	created, err := s.remote.Create(ctx, token, draft)
	if err != nil {
		return zero, s.failed("add", err)
	}
	if created.EntityID().IsZero() {
		return zero, s.failed("add", &apperr.RemoteError{Op: "add", Msg: "response carried no id"})
	}
	s.mu.Lock()
	s.items = append(s.items, created)
	s.mu.Unlock()
	return created, nil
}

// Update applies patch to the mirrored entity and sends the full result.
func (s *Store[T]) Update(ctx context.Context, id model.ID, patch func(T) T) (T, error) {
	var zero T
	current, ok := s.Get(id)
	if !ok {
		return zero, apperr.ErrNotFound
	}
	next := patch(current)
	if err := validate(next); err != nil {
		return zero, err
	}
	return s.replace(ctx, id, next)
}

// Toggle flips a boolean field of the mirrored entity.
func (s *Store[T]) Toggle(ctx context.Context, id model.ID, field string) (T, error) {
	var zero T
	current, ok := s.Get(id)
	if !ok {
		return zero, apperr.ErrNotFound
	}
	next, err := current.Flip(field)
	if err != nil {
		return zero, err
	}
	return s.replace(ctx, id, next)
}

func (s *Store[T]) replace(ctx context.Context, id model.ID, next T) (T, error) {
	var zero T
	token := s.creds.Token()
	if token == "" {
		return zero, apperr.ErrNoSession
	}
	stored, err := s.remote.Replace(ctx, token, id, next)
	if err != nil {
		return zero, s.failed("update", err)
	}
	if stored.EntityID().IsZero() {
		stored = next
	}
	s.mu.Lock()
	if i := s.index(id); i >= 0 {
		s.items[i] = stored
	}
	s.mu.Unlock()
	return stored, nil
}

// Remove deletes id on the server and drops it from the mirror.
func (s *Store[T]) Remove(ctx context.Context, id model.ID) error {
	token := s.creds.Token()
	if token == "" {
		return apperr.ErrNoSession
	}
	if err := s.remote.Delete(ctx, token, id); err != nil {
		return s.failed("remove", err)
	}
	s.mu.Lock()
	if i := s.index(id); i >= 0 {
		s.items = slices.Delete(s.items, i, i+1)
	}
	s.mu.Unlock()
	return nil
}

// Items returns a copy of the mirror in server order.
func (s *Store[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

func (s *Store[T]) Get(id model.ID) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(id); i >= 0 {
		return s.items[i], true
	}
	var zero T
	return zero, false
}

func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// LoadErr returns the error of the last load, or nil if it succeeded.
func (s *Store[T]) LoadErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadErr
}

// Reset empties the mirror without contacting the server.
func (s *Store[T]) Reset() {
	s.mu.Lock()
	s.items = nil
	s.loadErr = nil
	s.mu.Unlock()
}

// index must be called with mu held.
func (s *Store[T]) index(id model.ID) int {
	return slices.IndexFunc(s.items, func(item T) bool { return item.EntityID() == id })
}

func (s *Store[T]) failed(op string, err error) error {
	s.observe(err)
	if !errors.Is(err, context.Canceled) {
		s.logger.Warn(op+" failed", "err", err)
	}
	return err
}

func (s *Store[T]) observe(err error) {
	if apperr.Unauthorized(err) {
		s.creds.Invalidate("remote rejected token")
	}
}

func validate[T model.Entity[T]](entity T) error {
	if strings.TrimSpace(entity.PrimaryText()) == "" {
		return apperr.Invalid(entity.PrimaryField(), "must not be empty")
	}
	return nil
}
