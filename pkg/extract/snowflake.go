// pkg/extract/snowflake.go
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"github.com/David-Botos/sales-etl/pkg/config"
	"github.com/David-Botos/sales-etl/pkg/model"
)

// BatchQuerier pages through a query result
type BatchQuerier interface {
	BatchQuery(ctx context.Context, query string, batchSize int, processor func(*sqlx.Rows) error) error
}

// SnowflakeSource reads the raw sales columns from a Snowflake table
type SnowflakeSource struct {
	db        BatchQuerier
	table     string
	batchSize int
	logger    *zap.Logger
}

// NewSnowflakeSource creates a source reading table through db
func NewSnowflakeSource(db BatchQuerier, table string, logger *zap.Logger) *SnowflakeSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnowflakeSource{
		db:        db,
		table:     table,
		batchSize: 10000,
		logger:    logger.Named("snowflake-source"),
	}
}

// Name implements Source
func (s *SnowflakeSource) Name() string {
	return config.SourceSnowflake
}

// query selects the nine raw columns in schema order
func (s *SnowflakeSource) query() string {
	columns := make([]string, len(model.RecordColumns))
	for i, col := range model.RecordColumns {
		columns[i] = strings.ToUpper(col)
	}
	return fmt.Sprintf("SELECT %s FROM %s ORDER BY TRANSACTION_ID",
		strings.Join(columns, ", "), s.table)
}

// Extract implements Source. NULLs become empty cells.
func (s *SnowflakeSource) Extract(ctx context.Context) (*model.RawTable, error) {
	table := &model.RawTable{
		Columns: append([]string(nil), model.RecordColumns...),
		Rows:    make([][]string, 0),
	}

	err := s.db.BatchQuery(ctx, s.query(), s.batchSize, func(rows *sqlx.Rows) error {
		values, err := rows.SliceScan()
		if err != nil {
			return err
		}
		table.Rows = append(table.Rows, cells(values))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.table, err)
	}

	s.logger.Info("Read sales data", zap.String("table", s.table), zap.Int("rows", table.Len()))
	return table, nil
}

// cells renders scanned values as text
func cells(values []interface{}) []string {
	row := make([]string, len(values))
	for i, v := range values {
		row[i] = cast.ToString(v)
	}
	return row
}
