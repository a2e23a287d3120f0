// Package registry holds the in-memory authoritative list of secret
// metadata and keeps it consistent with the secure value store and the
// metadata file. The two stores cannot be updated in one transaction, so
// every mutation follows a write-then-persist-then-confirm protocol with
// a captured undo closure per side effect: if the durable metadata write
// fails, the value-store side effect and the in-memory mutation are both
// reverted before the error is surfaced.
package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	lberrors "github.com/systmms/lockbox/internal/errors"
	"github.com/systmms/lockbox/internal/keystore"
	"github.com/systmms/lockbox/internal/logging"
	"github.com/systmms/lockbox/internal/metrics"
	"github.com/systmms/lockbox/internal/secret"
)

// MetadataStore is the durable metadata file contract the registry
// persists through.
type MetadataStore interface {
	Load() ([]secret.Metadata, error)
	Save(entries []secret.Metadata) error
	Path() string
}

// Registry owns the ordered in-memory metadata sequence. After any
// operation completes, successfully or rolled back, the sequence equals
// the on-disk state. A single mutex serializes mutations; List serves
// from the in-memory snapshot.
type Registry struct {
	mu      sync.Mutex
	entries []secret.Metadata

	values  keystore.Store
	file    MetadataStore
	logger  *logging.Logger
	metrics *metrics.Recorder
	now     func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the registry clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		r.now = now
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(r *Registry) {
		r.metrics = rec
	}
}

// New creates a registry seeded from the metadata file.
func New(values keystore.Store, file MetadataStore, logger *logging.Logger, opts ...Option) (*Registry, error) {
	entries, err := file.Load()
	if err != nil {
		return nil, err
	}

	r := &Registry{
		entries: entries,
		values:  values,
		file:    file,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Update describes a partial update. A nil field preserves the existing
// value for that field; notes may be explicitly cleared to an empty
// string, the secret value may not.
type Update struct {
	Title    *string
	Value    *string
	Category *secret.Category
	Notes    *string
}

// List returns all secrets in insertion order, with values attached from
// the secure store. A value missing from the backend surfaces as an
// empty Value rather than failing the listing; the metadata file is the
// source of truth for which secrets exist.
func (r *Registry) List(ctx context.Context) ([]secret.Secret, error) {
	r.mu.Lock()
	entries := secret.CloneAll(r.entries)
	r.mu.Unlock()

	out := make([]secret.Secret, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.WithValue(r.lookupValue(ctx, entry.ID)))
	}
	return out, nil
}

// Get returns a single secret by id.
func (r *Registry) Get(ctx context.Context, id string) (secret.Secret, error) {
	r.mu.Lock()
	idx := r.indexOf(id)
	if idx < 0 {
		r.mu.Unlock()
		return secret.Secret{}, &lberrors.NotFoundError{ID: id}
	}
	entry := r.entries[idx]
	r.mu.Unlock()

	return entry.WithValue(r.lookupValue(ctx, id)), nil
}

// Create adds a new secret. The id must not already exist; a duplicate
// is rejected before any side effect. On success the value is in the
// secure store and the metadata file equals the in-memory state.
func (r *Registry) Create(ctx context.Context, s secret.Secret) (secret.Secret, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(s.ID) >= 0 {
		r.metrics.Operation("create", "conflict")
		return secret.Secret{}, &lberrors.ConflictError{ID: s.ID}
	}

	now := r.now()
	s.CreatedAt = now
	s.UpdatedAt = now

	if err := r.values.Set(ctx, s.ID, s.Value); err != nil {
		r.metrics.Operation("create", "error")
		return secret.Secret{}, err
	}
	undoValue := func() error {
		return r.values.Delete(ctx, s.ID)
	}

	prior := secret.CloneAll(r.entries)
	r.entries = append(r.entries, s.Meta())

	if err := r.file.Save(r.entries); err != nil {
		r.entries = prior
		r.rollbackValue("create", s.ID, undoValue)
		r.metrics.Operation("create", "error")
		return secret.Secret{}, err
	}

	r.metrics.Operation("create", "success")
	return s, nil
}

// UpdateSecret mutates an existing secret. Omitted fields are preserved.
func (r *Registry) UpdateSecret(ctx context.Context, id string, upd Update) (secret.Secret, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		r.metrics.Operation("update", "not-found")
		return secret.Secret{}, &lberrors.NotFoundError{ID: id}
	}

	if upd.Value != nil && *upd.Value == "" {
		return secret.Secret{}, &lberrors.ValidationError{Field: "value", Message: "secret value cannot be empty"}
	}

	// Value-store side effect first, capturing the prior value so the
	// overwrite can be undone.
	undoValue := func() error { return nil }
	if upd.Value != nil {
		prior, err := r.values.Get(ctx, id)
		hadPrior := err == nil
		if err != nil && !errors.Is(err, lberrors.ErrValueNotFound) {
			r.metrics.Operation("update", "error")
			return secret.Secret{}, err
		}

		if err := r.values.Set(ctx, id, *upd.Value); err != nil {
			r.metrics.Operation("update", "error")
			return secret.Secret{}, err
		}

		if hadPrior {
			undoValue = func() error { return r.values.Set(ctx, id, prior) }
		} else {
			undoValue = func() error { return r.values.Delete(ctx, id) }
		}
	}

	priorEntries := secret.CloneAll(r.entries)
	entry := r.entries[idx]
	if upd.Title != nil {
		entry.Title = *upd.Title
	}
	if upd.Category != nil {
		entry.Category = *upd.Category
	}
	if upd.Notes != nil {
		entry.Notes = *upd.Notes
	}
	entry.UpdatedAt = r.timestamp(entry.UpdatedAt)
	r.entries[idx] = entry

	if err := r.file.Save(r.entries); err != nil {
		r.entries = priorEntries
		r.rollbackValue("update", id, undoValue)
		r.metrics.Operation("update", "error")
		return secret.Secret{}, err
	}

	value := ""
	if upd.Value != nil {
		value = *upd.Value
	} else {
		value = r.lookupValue(ctx, id)
	}

	r.metrics.Operation("update", "success")
	return entry.WithValue(value), nil
}

// Delete removes a secret from both stores. Deleting an unknown id
// returns a NotFoundError and leaves the metadata file untouched.
func (r *Registry) Delete(ctx context.Context, id string) (secret.Secret, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		r.metrics.Operation("delete", "not-found")
		return secret.Secret{}, &lberrors.NotFoundError{ID: id}
	}

	// Capture the prior value before deleting so the deletion can be
	// undone if the metadata write fails.
	prior, err := r.values.Get(ctx, id)
	hadPrior := err == nil
	if err != nil && !errors.Is(err, lberrors.ErrValueNotFound) {
		r.metrics.Operation("delete", "error")
		return secret.Secret{}, err
	}

	if err := r.values.Delete(ctx, id); err != nil {
		r.metrics.Operation("delete", "error")
		return secret.Secret{}, err
	}
	undoValue := func() error { return nil }
	if hadPrior {
		undoValue = func() error { return r.values.Set(ctx, id, prior) }
	}

	priorEntries := secret.CloneAll(r.entries)
	removed := r.entries[idx]
	r.entries = append(r.entries[:idx:idx], r.entries[idx+1:]...)

	if err := r.file.Save(r.entries); err != nil {
		r.entries = priorEntries
		r.rollbackValue("delete", id, undoValue)
		r.metrics.Operation("delete", "error")
		return secret.Secret{}, err
	}

	r.metrics.Operation("delete", "success")
	return removed.WithValue(prior), nil
}

// Snapshot returns a copy of the in-memory metadata sequence, for tests
// and diagnostics.
func (r *Registry) Snapshot() []secret.Metadata {
	r.mu.Lock()
	defer r.mu.Unlock()
	return secret.CloneAll(r.entries)
}

// indexOf returns the position of id in the entries, or -1. Caller must
// hold the mutex.
func (r *Registry) indexOf(id string) int {
	for i, entry := range r.entries {
		if entry.ID == id {
			return i
		}
	}
	return -1
}

// rollbackValue runs a captured undo closure. A secondary failure during
// rollback is logged but never overrides the primary persistence error
// returned to the caller.
func (r *Registry) rollbackValue(op, id string, undo func() error) {
	if err := undo(); err != nil {
		rbErr := &lberrors.RollbackError{Op: op, ID: id, Err: err}
		r.logger.Error("%v", rbErr)
		r.metrics.Rollback(op, "failure")
		return
	}
	r.metrics.Rollback(op, "success")
}

// timestamp returns the current time, clamped so UpdatedAt never moves
// backwards if the wall clock steps back.
func (r *Registry) timestamp(prev time.Time) time.Time {
	now := r.now()
	if now.Before(prev) {
		return prev
	}
	return now
}

// lookupValue fetches a value from the secure store, mapping absence and
// backend read failures to an empty string for read paths.
func (r *Registry) lookupValue(ctx context.Context, id string) string {
	value, err := r.values.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, lberrors.ErrValueNotFound) {
			r.logger.Debug("could not read value for '%s': %v", id, err)
		}
		return ""
	}
	return value
}
