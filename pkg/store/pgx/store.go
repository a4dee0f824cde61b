// Package pgx implements store.OntologyStore on PostgreSQL, using
// pgvector for knowledge similarity search.
package pgx

import (
	"context"
	"errors"

	"github.com/trellishq/trellis/backend/pkg/embed"
	"github.com/trellishq/trellis/backend/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// querier is the subset of pgxIConn shared by pooled connections and
// open transactions. Store methods run their reads and writes against a
// querier so the same code serves both.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
}

// QuotaConfig caps per-group row counts, enforced on the create paths.
// A zero value disables the corresponding cap.
type QuotaConfig struct {
	MaxThings      int64
	MaxConnections int64
	MaxKnowledge   int64
	MaxChildGroups int64
}

// Store implements store.OntologyStore using PostgreSQL with pgvector
// for vector similarity search. Every mutation and its audit Event are
// written in one transaction, so the event log never diverges from
// state.
type Store struct {
	conn     pgxIConn
	embedder embed.Embedder
	quotas   QuotaConfig
}

var _ store.OntologyStore = (*Store)(nil)

type StoreOption func(*Store)

// WithEmbedder sets the embedding collaborator used by knowledge
// create, update, and search. Without one, operations that need an
// embedding fail with a ValidationError.
func WithEmbedder(e embed.Embedder) StoreOption {
	return func(s *Store) {
		s.embedder = e
	}
}

// WithQuotas sets the per-group row caps.
func WithQuotas(q QuotaConfig) StoreOption {
	return func(s *Store) {
		s.quotas = q
	}
}

// NewStore creates a Store on an existing database connection or pool.
func NewStore(conn pgxIConn, opts ...StoreOption) *Store {
	s := &Store{
		conn: conn,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

func newID() (string, error) {
	return gonanoid.New()
}

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23503"
}
