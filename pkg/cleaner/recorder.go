// pkg/cleaner/recorder.go
package cleaner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/David-Botos/sales-etl/pkg/model"
)

// Recorder persists the audit trail of a cleaning run
type Recorder interface {
	RecordCleaningOperations(ctx context.Context, operations []model.CleaningOperation) error
}

// NopRecorder discards operations
type NopRecorder struct{}

// RecordCleaningOperations does nothing
func (NopRecorder) RecordCleaningOperations(context.Context, []model.CleaningOperation) error {
	return nil
}

// PostgresRecorder writes cleaning operations to public.cleaned_on_ingress
type PostgresRecorder struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// auditRow is the database shape of a CleaningOperation
type auditRow struct {
	RunID             string    `db:"run_id"`
	Step              string    `db:"step"`
	TableName         string    `db:"table_name"`
	ColumnName        string    `db:"column_name"`
	OriginalValue     *string   `db:"original_value"`
	NewValue          string    `db:"new_value"`
	RowIdentifier     string    `db:"row_identifier"`
	CleaningOperation string    `db:"cleaning_operation"`
	CleaningReason    string    `db:"cleaning_reason"`
	CleanedAt         time.Time `db:"cleaned_at"`
}

const insertAuditRowSQL = `
	INSERT INTO public.cleaned_on_ingress
	(run_id, step, table_name, column_name, original_value, new_value,
	 row_identifier, cleaning_operation, cleaning_reason, cleaned_at)
	VALUES (:run_id, :step, :table_name, :column_name, :original_value, :new_value,
	 :row_identifier, :cleaning_operation, :cleaning_reason, :cleaned_at)
`

func toAuditRow(op model.CleaningOperation) auditRow {
	return auditRow{
		RunID:             op.RunID,
		Step:              op.Step,
		TableName:         model.RawSalesTable.Name,
		ColumnName:        op.ColumnName,
		OriginalValue:     op.OriginalValue,
		NewValue:          op.NewValue,
		RowIdentifier:     op.RowIdentifier,
		CleaningOperation: op.CleaningOperation,
		CleaningReason:    op.CleaningReason,
		CleanedAt:         op.CleanedAt,
	}
}

// NewPostgresRecorder creates a recorder and ensures the tracking table exists
func NewPostgresRecorder(ctx context.Context, db *sqlx.DB, logger *zap.Logger) (*PostgresRecorder, error) {
	if db == nil {
		return nil, errors.New("database connection cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	recorder := &PostgresRecorder{
		db:     db,
		logger: logger,
	}

	if err := recorder.setupCleaningTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to setup cleaning table: %w", err)
	}

	return recorder, nil
}

// setupCleaningTable ensures the cleaned_on_ingress tracking table exists
func (r *PostgresRecorder) setupCleaningTable(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS public.cleaned_on_ingress (
			id SERIAL PRIMARY KEY,
			run_id TEXT NOT NULL,
			step TEXT NOT NULL,
			table_name TEXT NOT NULL,
			column_name TEXT NOT NULL,
			original_value TEXT,
			new_value TEXT NOT NULL,
			row_identifier TEXT NOT NULL,
			cleaning_operation TEXT NOT NULL,
			cleaning_reason TEXT NOT NULL,
			cleaned_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := r.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to create tracking table: %w", err)
	}

	r.logger.Info("Ensured cleaned_on_ingress table exists")
	return nil
}

// RecordCleaningOperations inserts the operations in a single transaction
func (r *PostgresRecorder) RecordCleaningOperations(ctx context.Context, operations []model.CleaningOperation) (err error) {
	if len(operations) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error("Failed to rollback transaction",
					zap.Error(rbErr),
					zap.NamedError("cause", err))
			}
		}
	}()

	stmt, err := tx.PrepareNamedContext(ctx, insertAuditRowSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, op := range operations {
		if _, err = stmt.ExecContext(ctx, toAuditRow(op)); err != nil {
			return fmt.Errorf("failed to insert cleaning operation: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info("Recorded cleaning operations", zap.Int("count", len(operations)))
	return nil
}
