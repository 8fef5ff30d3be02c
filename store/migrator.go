package store

import (
	"context"

	"github.com/pkg/errors"
)

// Migrator is implemented by drivers that can apply their own schema.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// Migrate brings the backing database up to the latest schema.
func (s *Store) Migrate(ctx context.Context) error {
	migrator, ok := s.driver.(Migrator)
	if !ok {
		return errors.New("driver does not support migration")
	}
	if err := migrator.Migrate(ctx); err != nil {
		return errors.Wrap(err, "failed to migrate database")
	}
	return nil
}
