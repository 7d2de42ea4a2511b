// pkg/converter/converter.go
package converter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/sales-etl/pkg/model"
)

// Converter reads and writes the delimited-text form of record sets and tables
type Converter struct {
	logger *zap.Logger
	// Configuration options
	config Config
}

// Config provides configuration options for the delimited-text codec
type Config struct {
	// Field delimiter for both reading and writing
	Delimiter rune
	// Cell values (after trimming) that are read as missing
	NullTokens []string
	// Allow rows with a different field count than the header
	AllowRaggedRows bool
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Delimiter:       ',',
		NullTokens:      defaultNullTokens,
		AllowRaggedRows: true,
	}
}

// NewConverter creates a new Converter with default configuration
func NewConverter(logger *zap.Logger) *Converter {
	return NewConverterWithConfig(logger, DefaultConfig())
}

// NewConverterWithConfig creates a Converter with custom configuration
func NewConverterWithConfig(logger *zap.Logger, config Config) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Delimiter == 0 {
		config.Delimiter = ','
	}
	return &Converter{
		logger: logger,
		config: config,
	}
}

// ReadRawTable parses a header row followed by data rows. Cell text is kept
// verbatim; interpretation happens during cleaning.
func (c *Converter) ReadRawTable(r io.Reader) (*model.RawTable, error) {
	reader := csv.NewReader(r)
	reader.Comma = c.config.Delimiter
	reader.LazyQuotes = true
	if c.config.AllowRaggedRows {
		reader.FieldsPerRecord = -1
	}

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &model.SchemaError{Table: model.RawSalesTable.Name, Reason: "input has no header row"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		columns[i] = strings.TrimSpace(name)
	}

	table := &model.RawTable{Columns: columns, Rows: make([][]string, 0)}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(table.Rows)+1, err)
		}
		table.Rows = append(table.Rows, row)
	}

	c.logger.Debug("Parsed delimited input",
		zap.Int("columns", len(columns)),
		zap.Int("rows", len(table.Rows)))

	return table, nil
}

// WriteTable writes a header row followed by one line per row
func (c *Converter) WriteTable(w io.Writer, columns []string, rows [][]string) error {
	writer := csv.NewWriter(w)
	writer.Comma = c.config.Delimiter

	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := writer.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}

// EncodeTable renders a table to bytes
func (c *Converter) EncodeTable(columns []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.WriteTable(&buf, columns, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
