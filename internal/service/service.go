// Package service exposes the caller-facing secret operations. It
// validates the shape of caller-supplied fields before delegating to the
// registry and classifies outcomes into stable error categories for the
// API layer, without leaking internal representations.
package service

import (
	"context"
	"strings"

	lberrors "github.com/systmms/lockbox/internal/errors"
	"github.com/systmms/lockbox/internal/logging"
	"github.com/systmms/lockbox/internal/registry"
	"github.com/systmms/lockbox/internal/secret"
)

// SecretService is the thin façade over the registry.
type SecretService struct {
	registry *registry.Registry
	logger   *logging.Logger
}

// New creates a secret service.
func New(reg *registry.Registry, logger *logging.Logger) *SecretService {
	return &SecretService{registry: reg, logger: logger}
}

// CreateRequest carries the fields for a new secret.
type CreateRequest struct {
	ID       string
	Title    string
	Value    string
	Category string
	Notes    *string
}

// UpdateRequest carries a partial update. Nil fields are left unchanged.
type UpdateRequest struct {
	Title    *string
	Value    *string
	Category *string
	Notes    *string
}

// List returns all secrets in insertion order.
func (s *SecretService) List(ctx context.Context) ([]secret.Secret, error) {
	return s.registry.List(ctx)
}

// Get returns a single secret by id.
func (s *SecretService) Get(ctx context.Context, id string) (secret.Secret, error) {
	if id == "" {
		return secret.Secret{}, &lberrors.ValidationError{Field: "id", Message: "id is required"}
	}
	return s.registry.Get(ctx, id)
}

// Create validates the request and creates the secret. Validation fails
// fast: nothing is mutated when a field is rejected.
func (s *SecretService) Create(ctx context.Context, req CreateRequest) (secret.Secret, error) {
	if req.ID == "" {
		return secret.Secret{}, &lberrors.ValidationError{Field: "id", Message: "id is required"}
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return secret.Secret{}, &lberrors.ValidationError{Field: "title", Message: "title cannot be empty"}
	}

	if req.Value == "" {
		return secret.Secret{}, &lberrors.ValidationError{Field: "value", Message: "value cannot be empty"}
	}

	category := secret.Category(req.Category)
	if !category.Valid() {
		return secret.Secret{}, &lberrors.ValidationError{
			Field:   "category",
			Message: "unknown category '" + req.Category + "'",
		}
	}

	notes := ""
	if req.Notes != nil {
		notes = *req.Notes
	}

	s.logger.Debug("creating secret '%s' with value %s", req.ID, logging.Secret(req.Value))
	return s.registry.Create(ctx, secret.Secret{
		ID:       req.ID,
		Title:    title,
		Value:    req.Value,
		Category: category,
		Notes:    notes,
	})
}

// Update validates the supplied fields and applies a partial update.
// Omitted fields keep their current values; an explicitly empty value is
// rejected, while notes may be cleared to an empty string.
func (s *SecretService) Update(ctx context.Context, id string, req UpdateRequest) (secret.Secret, error) {
	if id == "" {
		return secret.Secret{}, &lberrors.ValidationError{Field: "id", Message: "id is required"}
	}

	upd := registry.Update{
		Value: req.Value,
		Notes: req.Notes,
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return secret.Secret{}, &lberrors.ValidationError{Field: "title", Message: "title cannot be empty"}
		}
		upd.Title = &title
	}

	if req.Value != nil && *req.Value == "" {
		return secret.Secret{}, &lberrors.ValidationError{Field: "value", Message: "value cannot be empty"}
	}

	if req.Category != nil {
		category := secret.Category(*req.Category)
		if !category.Valid() {
			return secret.Secret{}, &lberrors.ValidationError{
				Field:   "category",
				Message: "unknown category '" + *req.Category + "'",
			}
		}
		upd.Category = &category
	}

	return s.registry.UpdateSecret(ctx, id, upd)
}

// Delete removes a secret from both stores.
func (s *SecretService) Delete(ctx context.Context, id string) (secret.Secret, error) {
	if id == "" {
		return secret.Secret{}, &lberrors.ValidationError{Field: "id", Message: "id is required"}
	}
	return s.registry.Delete(ctx, id)
}

// Classify maps an error from any operation to its caller-facing
// category.
func (s *SecretService) Classify(err error) lberrors.Category {
	return lberrors.CategoryOf(err)
}
