package store

import (
	"context"

	"github.com/rendis/flowscope/pkg/schema"
)

// RegistryStore is the persistence contract for the shared registries the
// editing layer owns: error codes, schema names and model names. Validators
// never touch the store; they receive an immutable Registries snapshot.
// All implementations must be safe for concurrent use.
type RegistryStore interface {
	LoadRegistries(ctx context.Context) (*schema.Registries, error)

	PutErrorCode(ctx context.Context, code, description string) error
	DeleteErrorCode(ctx context.Context, code string) error

	PutSchema(ctx context.Context, name string) error
	DeleteSchema(ctx context.Context, name string) error

	PutModel(ctx context.Context, name string) error
	DeleteModel(ctx context.Context, name string) error

	Close() error
}
