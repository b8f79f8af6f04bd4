package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

type PostgresConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string
}

// PostgresStore keeps every tab's rows in one ledger_rows table with a jsonb
// fields column. UpdateIf is a real conditional UPDATE, so token redemption
// and status flips get store-level compare-and-set semantics here.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("ledger: failed to connect to database: %w", err)
	}

	if err := applyMigrations(cfg); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ledger: failed to apply migrations: %w", err)
	}

	log.Info().Msg("Connected to PostgreSQL ledger")
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
	log.Info().Msg("Ledger database connection closed")
}

func (s *PostgresStore) Append(ctx context.Context, tab string, fields map[string]string) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("ledger: failed to encode row fields: %w", err)
	}

	query := `INSERT INTO ledger_rows (tab, fields) VALUES ($1, $2::jsonb)`
	if _, err := s.pool.Exec(ctx, query, tab, raw); err != nil {
		return fmt.Errorf("ledger: failed to append row to %s: %w", tab, err)
	}
	return nil
}

func (s *PostgresStore) Rows(ctx context.Context, tab string) ([]Row, error) {
	query := `SELECT id, fields FROM ledger_rows WHERE tab = $1 ORDER BY id`

	rows, err := s.pool.Query(ctx, query, tab)
	if err != nil {
		return nil, fmt.Errorf("ledger: failed to query rows for %s: %w", tab, err)
	}
	defer rows.Close()

	out := make([]Row, 0)
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("ledger: failed to scan row for %s: %w", tab, err)
		}
		out = append(out, *row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: error iterating rows for %s: %w", tab, err)
	}
	return out, nil
}

func (s *PostgresStore) Find(ctx context.Context, tab, key, value string) (*Row, error) {
	query := `
		SELECT id, fields FROM ledger_rows
		WHERE tab = $1 AND fields->>$2 = $3
		ORDER BY id LIMIT 1
	`

	rows, err := s.pool.Query(ctx, query, tab, key, value)
	if err != nil {
		return nil, fmt.Errorf("ledger: failed to find row in %s: %w", tab, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("ledger: failed to find row in %s: %w", tab, err)
		}
		return nil, ErrRowNotFound
	}
	row, err := scanRow(rows)
	if err != nil {
		return nil, fmt.Errorf("ledger: failed to scan row in %s: %w", tab, err)
	}
	return row, nil
}

func (s *PostgresStore) Update(ctx context.Context, tab string, rowID int, key, value string) error {
	query := `
		UPDATE ledger_rows
		SET fields = jsonb_set(fields, ARRAY[$1], to_jsonb($2::text))
		WHERE tab = $3 AND id = $4
	`

	cmdTag, err := s.pool.Exec(ctx, query, key, value, tab, rowID)
	if err != nil {
		return fmt.Errorf("ledger: failed to update row %d in %s: %w", rowID, tab, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrRowNotFound
	}
	return nil
}

func (s *PostgresStore) UpdateIf(ctx context.Context, tab string, rowID int, key, expect, value string) (bool, error) {
	query := `
		UPDATE ledger_rows
		SET fields = jsonb_set(fields, ARRAY[$1], to_jsonb($2::text))
		WHERE tab = $3 AND id = $4 AND fields->>$1 = $5
	`

	cmdTag, err := s.pool.Exec(ctx, query, key, value, tab, rowID, expect)
	if err != nil {
		return false, fmt.Errorf("ledger: failed conditional update of row %d in %s: %w", rowID, tab, err)
	}
	return cmdTag.RowsAffected() == 1, nil
}

func scanRow(rows pgx.Rows) (*Row, error) {
	var (
		id  int
		raw []byte
	)
	if err := rows.Scan(&id, &raw); err != nil {
		return nil, err
	}

	fields := make(map[string]string)
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode fields of row %d: %w", id, err)
	}
	return &Row{ID: id, Fields: fields}, nil
}

func applyMigrations(cfg PostgresConfig) error {
	dsn := fmt.Sprintf("pgx5://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName, cfg.SSLMode)

	m, err := migrate.New("file://"+cfg.MigrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize migration instance: %w", err)
	}

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info().Msg("No new migrations to apply")
		return nil
	}
	if err != nil {
		return err
	}
	log.Info().Msg("New migrations applied successfully")
	return nil
}
