// Package postgres is the Record Store backed by PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/callpurity/callpurity-api/internal/domain"
	"github.com/callpurity/callpurity-api/internal/port"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("postgres")

// collation orders text like the English locale rather than by bytes.
const collation = `COLLATE "en-x-icu"`

// DB is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

// Pool is a DB that can be pinged and closed.
type Pool interface {
	DB
	Ping(ctx context.Context) error
	Close()
}

// PoolConfig tunes the connection pool.
type PoolConfig struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// NewPool opens and pings a connection pool.
func NewPool(ctx context.Context, dsn string, pc PoolConfig) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgxpool config: %w", err)
	}
	if pc.MaxConns > 0 {
		config.MaxConns = pc.MaxConns
	}
	if pc.MinConns > 0 {
		config.MinConns = pc.MinConns
	}
	if pc.MaxConnLifetime > 0 {
		config.MaxConnLifetime = pc.MaxConnLifetime
	}
	if pc.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = pc.MaxConnIdleTime
	}
	config.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Store implements port.Store.
type Store struct {
	pool   Pool
	logger *zap.Logger
}

// NewStore wraps a pool.
func NewStore(pool Pool, logger *zap.Logger) *Store {
	return &Store{pool: pool, logger: logger}
}

func (s *Store) Accounts() port.AccountStore { return &repo{db: s.pool} }
func (s *Store) Clients() port.ClientStore   { return &repo{db: s.pool} }
func (s *Store) Phones() port.PhoneStore     { return &repo{db: s.pool} }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// WithinTx runs fn in a database transaction. pgx rolls back when fn returns
// an error or panics.
func (s *Store) WithinTx(ctx context.Context, fn func(tx port.Repositories) error) error {
	ctx, span := tracer.Start(ctx, "postgres.WithinTx")
	defer span.End()

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(txRepos{r: &repo{db: tx}})
	})
	if err != nil {
		s.logger.Debug("transaction rolled back", zap.Error(err))
	}
	return err
}

type txRepos struct{ r *repo }

func (t txRepos) Accounts() port.AccountStore { return t.r }
func (t txRepos) Clients() port.ClientStore   { return t.r }
func (t txRepos) Phones() port.PhoneStore     { return t.r }

type repo struct {
	db DB
}

// mapError converts unique violations into conflicts.
func mapError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "accounts_email_key":
			return &domain.ErrConflict{Message: domain.MsgUserExists}
		case "clients_company_name_key":
			return &domain.ErrConflict{Message: domain.MsgCompanyExists}
		}
		return &domain.ErrConflict{Message: pgErr.Detail}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// likePattern builds a case-insensitive substring pattern with LIKE
// metacharacters escaped.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// where accumulates predicates and positional arguments.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(w.args))))
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func (w *where) page(win domain.Window) string {
	w.args = append(w.args, win.Limit, win.Offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(w.args)-1, len(w.args))
}

func direction(desc bool) string {
	if desc {
		return "DESC"
	}
	return "ASC"
}
