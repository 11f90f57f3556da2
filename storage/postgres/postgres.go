package postgres

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fahrerexpress/config"
	"fahrerexpress/pkg/logger"
	"fahrerexpress/storage"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so every repo
// runs unchanged inside or outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Store struct {
	pool *pgxpool.Pool
	db   querier
	log  logger.ILogger
}

func New(ctx context.Context, cfg config.Config, log logger.ILogger) (*Store, error) {
	url := cfg.PostgresURL()

	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		log.Error("error while parsing Postgres config", logger.Error(err))
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Error("failed to connect Postgres", logger.Error(err))
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		log.Error("failed to ping Postgres", logger.Error(err))
		pool.Close()
		return nil, err
	}

	if err := runMigrations(url, migrationsPath(cfg), log); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info("Postgres connected")

	return &Store{
		pool: pool,
		db:   pool,
		log:  log,
	}, nil
}

func migrationsPath(cfg config.Config) string {
	if cfg.MigrationsPath != "" {
		return cfg.MigrationsPath
	}
	cwd, _ := os.Getwd()
	return filepath.Join(cwd, "migrations", "postgres")
}

func runMigrations(url, path string, log logger.ILogger) error {
	m, err := migrate.New("file://"+path, url)
	if err != nil {
		log.Error("migration init error", logger.String("path", path), logger.Error(err))
		return err
	}
	defer m.Close()

	if err = m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("no migrations to apply")
			return nil
		}
		log.Error("migration up error", logger.Error(err))
		return err
	}
	return nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) WithTx(ctx context.Context, fn func(tx storage.IStorage) error) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return fn(&Store{db: tx, log: s.log})
	})
}

func (s *Store) Job() storage.IJobStorage                 { return NewJobRepo(s.db, s.log) }
func (s *Store) Driver() storage.IDriverStorage           { return NewDriverRepo(s.db, s.log) }
func (s *Store) Assignment() storage.IAssignmentStorage   { return NewAssignmentRepo(s.db, s.log) }
func (s *Store) Invite() storage.IInviteStorage           { return NewInviteRepo(s.db, s.log) }
func (s *Store) AdminAction() storage.IAdminActionStorage { return NewAdminActionRepo(s.db, s.log) }
func (s *Store) Role() storage.IRoleStorage               { return NewRoleRepo(s.db, s.log) }
func (s *Store) EmailLog() storage.IEmailLogStorage       { return NewEmailLogRepo(s.db, s.log) }
func (s *Store) Unsubscribe() storage.IUnsubscribeStorage { return NewUnsubscribeRepo(s.db, s.log) }

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isInvalidText reports a value Postgres could not parse for its column
// type, e.g. a client-supplied id that is not a UUID.
func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

// notFound maps a missing row, or a key that cannot exist because it is not
// a valid id, to storage.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) || isInvalidText(err) {
		return storage.ErrNotFound
	}
	return err
}
