// Package secret resolves named secrets for a run. Development stations use
// a literal override table; production stations read an encrypted keystore
package secret

import (
	"context"
	"errors"
)

// Store is the read-only secret lookup exposed to steps. Get fails with
// ErrSecretNotFound when the name is not declared for the current run
// context
type Store interface {
	Get(ctx context.Context, name string) (string, error)
}

var (
	// ErrSecretNotFound is returned when a requested secret is absent
	ErrSecretNotFound = errors.New("secret not found")

	// ErrSecretNameEmpty is returned for a blank secret name
	ErrSecretNameEmpty = errors.New("secret name empty")
)
