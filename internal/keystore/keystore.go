// Package keystore implements the secure value store: a uniform interface
// over the platform credential backend (or a remote secrets manager), with
// a one-way fallback to an in-process table when the backend is
// unavailable at startup.
package keystore

import (
	"context"

	lberrors "github.com/systmms/lockbox/internal/errors"
	"github.com/systmms/lockbox/internal/logging"
)

// Mode identifies which backend a store is running against.
type Mode string

const (
	// ModeKeychain is the platform credential store (macOS Keychain,
	// Linux Secret Service, Windows Credential Manager).
	ModeKeychain Mode = "keychain"

	// ModeAWS is AWS Secrets Manager.
	ModeAWS Mode = "aws"

	// ModeMemory is the transient in-process table, either selected
	// explicitly or entered as fallback when the probe fails.
	ModeMemory Mode = "memory"
)

// probeID is the sentinel entry written and immediately deleted at
// construction to verify the backend works.
const probeID = "__lockbox_probe__"

// Store is the uniform secure value store interface. Get returns
// errors.ErrValueNotFound when the entry is absent. Set and Delete
// failures against a live backend are surfaced as *errors.BackendError;
// they are never silently swallowed because that could leave the value
// store and the metadata file inconsistent.
type Store interface {
	Set(ctx context.Context, id, value string) error
	Get(ctx context.Context, id string) (string, error)
	Delete(ctx context.Context, id string) error
	Mode() Mode
}

// Options selects and configures the backend.
type Options struct {
	// Backend is "keychain" (default), "aws", or "memory".
	Backend string

	// Service is the keychain service name under which values are stored.
	Service string

	// AWS configures the AWS Secrets Manager backend.
	AWS AWSOptions

	// Client overrides the AWS client, for tests.
	Client SecretsManagerAPI
}

// New constructs the secure value store for the process. The configured
// backend is probed once by writing and deleting a sentinel entry; if
// either operation fails the store permanently switches to the in-memory
// table for the remainder of the process lifetime. The switch is one-way
// and is not re-evaluated per call.
func New(opts Options, logger *logging.Logger) Store {
	candidate, err := build(opts)
	if err != nil {
		logger.Warn("secure backend unavailable (%v); values will be kept in memory for this process only", err)
		return NewMemory()
	}
	if candidate.Mode() == ModeMemory {
		logger.Info("secure value store: in-memory (transient)")
		return candidate
	}

	ctx := context.Background()
	if err := candidate.Set(ctx, probeID, "ok"); err != nil {
		logger.Warn("secure backend probe failed (%v); values will be kept in memory for this process only", err)
		return NewMemory()
	}
	if err := candidate.Delete(ctx, probeID); err != nil {
		logger.Warn("secure backend probe cleanup failed (%v); values will be kept in memory for this process only", err)
		return NewMemory()
	}

	logger.Info("secure value store: %s", candidate.Mode())
	return candidate
}

func build(opts Options) (Store, error) {
	switch opts.Backend {
	case "", string(ModeKeychain):
		return newKeychainStore(opts.Service), nil
	case string(ModeAWS):
		return newAWSStore(opts.AWS, opts.Client)
	case string(ModeMemory):
		return NewMemory(), nil
	default:
		return nil, &lberrors.ValidationError{
			Field:   "backend",
			Message: "unknown secure store backend: " + opts.Backend,
		}
	}
}
