// pkg/loader/postgres.go
package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/sales-etl/pkg/converter"
	"github.com/David-Botos/sales-etl/pkg/model"
	"github.com/David-Botos/sales-etl/pkg/storage"
	"github.com/David-Botos/sales-etl/pkg/transfer"
)

const defaultLoadTimeout = 5 * time.Minute

// PostgresLoader copies the staged tables into PostgreSQL. It replaces the
// contents of every table in one transaction so a failed load leaves the
// previous data in place.
type PostgresLoader struct {
	db        *sqlx.DB
	store     storage.ObjectStore
	converter *converter.Converter
	schema    string
	timeout   time.Duration
	logger    *zap.Logger
}

// stagedTable is a table read back from the object store
type stagedTable struct {
	meta model.TableMetadata
	rows [][]string
}

// NewPostgresLoader creates a loader reading from store and writing to db
func NewPostgresLoader(db *sqlx.DB, store storage.ObjectStore, logger *zap.Logger) (*PostgresLoader, error) {
	if db == nil {
		return nil, errors.New("database connection cannot be nil")
	}
	if store == nil {
		return nil, errors.New("object store cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresLoader{
		db:        db,
		store:     store,
		converter: converter.NewConverter(logger),
		schema:    "public",
		timeout:   defaultLoadTimeout,
		logger:    logger.Named("postgres-loader"),
	}, nil
}

// Name implements Trigger
func (l *PostgresLoader) Name() string {
	return "postgres"
}

// Trigger loads the four transformed tables and verifies the row counts
func (l *PostgresLoader) Trigger(ctx context.Context) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	tables := make([]stagedTable, 0, len(model.ModelTables))
	for _, meta := range model.ModelTables {
		staged, err := l.readStaged(ctx, meta)
		if err != nil {
			return nil, err
		}
		tables = append(tables, staged)
	}

	if err := l.load(ctx, tables); err != nil {
		return nil, err
	}

	resp := &Response{
		Target:     l.schema,
		StatusCode: 200,
		Rows:       make(map[string]int64, len(tables)),
	}
	for _, t := range tables {
		count, err := l.VerifyRowCount(ctx, t.meta.Name, int64(len(t.rows)))
		if err != nil {
			return resp, err
		}
		resp.Rows[t.meta.Name] = count
	}

	l.logger.Info("Loaded staged tables", zap.Any("rows", resp.Rows))
	return resp, nil
}

// readStaged fetches one staged file and checks its header
func (l *PostgresLoader) readStaged(ctx context.Context, meta model.TableMetadata) (stagedTable, error) {
	key, err := transfer.DestinationKey(meta.Name)
	if err != nil {
		return stagedTable{}, err
	}

	body, err := l.store.Get(ctx, key)
	if err != nil {
		return stagedTable{}, fmt.Errorf("failed to read staged %s: %w", key, err)
	}

	raw, err := l.converter.ReadRawTable(bytes.NewReader(body))
	if err != nil {
		return stagedTable{}, fmt.Errorf("failed to parse staged %s: %w", key, err)
	}

	if !slices.Equal(raw.Columns, meta.ColumnNames()) {
		return stagedTable{}, &model.SchemaError{
			Table:  meta.Name,
			Reason: fmt.Sprintf("staged header %v does not match %v", raw.Columns, meta.ColumnNames()),
		}
	}

	return stagedTable{meta: meta, rows: raw.Rows}, nil
}

// load creates, truncates and copies every table inside one transaction
func (l *PostgresLoader) load(ctx context.Context, tables []stagedTable) (err error) {
	tx, err := l.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				l.logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.NamedError("cause", err))
			}
		}
	}()

	names := make([]string, len(tables))
	for i, t := range tables {
		if _, err = tx.ExecContext(ctx, createTableQuery(l.schema, t.meta)); err != nil {
			return fmt.Errorf("failed to create table %s: %w", t.meta.Name, err)
		}
		names[i] = l.qualified(t.meta.Name)
	}

	if _, err = tx.ExecContext(ctx, "TRUNCATE TABLE "+strings.Join(names, ", ")); err != nil {
		return fmt.Errorf("failed to truncate tables: %w", err)
	}

	for _, t := range tables {
		if err = l.copyTable(ctx, tx, t); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (l *PostgresLoader) copyTable(ctx context.Context, tx *sqlx.Tx, t stagedTable) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyInSchema(l.schema, t.meta.Name, t.meta.ColumnNames()...))
	if err != nil {
		return fmt.Errorf("failed to prepare copy into %s: %w", t.meta.Name, err)
	}
	defer stmt.Close()

	for i, row := range t.rows {
		if _, err := stmt.ExecContext(ctx, copyValues(row)...); err != nil {
			return fmt.Errorf("failed to copy row %d into %s: %w", i+1, t.meta.Name, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		return fmt.Errorf("failed to flush copy into %s: %w", t.meta.Name, err)
	}

	l.logger.Debug("Copied table",
		zap.String("table", t.meta.Name),
		zap.Int("rows", len(t.rows)))
	return nil
}

// VerifyRowCount checks that table holds exactly expected rows
func (l *PostgresLoader) VerifyRowCount(ctx context.Context, table string, expected int64) (int64, error) {
	var count int64
	if err := l.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM "+l.qualified(table)); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", table, err)
	}
	if count != expected {
		return count, fmt.Errorf("row count mismatch for %s: expected %d, found %d", table, expected, count)
	}
	return count, nil
}

func (l *PostgresLoader) qualified(table string) string {
	return pq.QuoteIdentifier(l.schema) + "." + pq.QuoteIdentifier(table)
}

// createTableQuery renders the CREATE TABLE statement for a modelled table
func createTableQuery(schema string, meta model.TableMetadata) string {
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.%s (%s)",
		pq.QuoteIdentifier(schema),
		pq.QuoteIdentifier(meta.Name),
		strings.Join(converter.GenerateColumnDefinitions(meta), ", "))
}

// copyValues maps empty cells to NULL
func copyValues(row []string) []interface{} {
	values := make([]interface{}, len(row))
	for i, cell := range row {
		if cell != "" {
			values[i] = cell
		}
	}
	return values
}
