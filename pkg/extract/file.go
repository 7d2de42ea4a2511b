// pkg/extract/file.go
package extract

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/David-Botos/sales-etl/pkg/config"
	"github.com/David-Botos/sales-etl/pkg/converter"
	"github.com/David-Botos/sales-etl/pkg/model"
)

// FileSource reads a CSV file from the local filesystem
type FileSource struct {
	path      string
	converter *converter.Converter
	logger    *zap.Logger
}

// NewFileSource creates a source for the file at path
func NewFileSource(path string, logger *zap.Logger) *FileSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSource{
		path:      path,
		converter: converter.NewConverter(logger),
		logger:    logger.Named("file-source"),
	}
}

// Name implements Source
func (s *FileSource) Name() string {
	return config.SourceFile
}

// Extract implements Source
func (s *FileSource) Extract(ctx context.Context) (*model.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", s.path, err)
	}
	defer f.Close()

	table, err := s.converter.ReadRawTable(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.path, err)
	}

	s.logger.Info("Read sales data", zap.String("path", s.path), zap.Int("rows", table.Len()))
	return table, nil
}
