// Package repository owns the target relational store: existence checks,
// inserts, and bulk identifier listing per entity type. The store enforces
// FK and enum constraints as a backstop behind local validation.
package repository

import (
	"context"
	"errors"

	"hospicrm-migrator/internal/domain"
)

// ErrFatalStore: the target store is unreachable or failing at the
// connection level. The importer aborts the run immediately, because
// partial dependency-ordered state is unrecoverable mid-pass.
var ErrFatalStore = errors.New("target store unavailable")

// ErrConstraintViolation: the store rejected a single write despite local
// validation (schema drift). The importer records the failure for that
// record and continues.
var ErrConstraintViolation = errors.New("constraint violation")

// TargetStore is owned exclusively by the importer for a run's duration.
type TargetStore interface {
	// Exists checks a primary identifier. Used as a spot check; bulk
	// seeding of the registry goes through ListIDs.
	Exists(ctx context.Context, entity domain.EntityType, id string) (bool, error)

	// Insert writes one record. Inserting an identifier that already
	// exists is a no-op at the storage layer (idempotence backstop).
	Insert(ctx context.Context, rec domain.Record) error

	// ListIDs returns all currently-known identifiers for the entity type.
	ListIDs(ctx context.Context, entity domain.EntityType) ([]string, error)
}
