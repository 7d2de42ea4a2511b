// pkg/converter/mapping.go
package converter

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/David-Botos/sales-etl/pkg/model"
)

// EncodedTable is a table rendered to delimited text, ready for staging
type EncodedTable struct {
	Table string
	Rows  int
	Body  []byte
}

// EncodeTables renders the four modelled tables and the raw archive, in
// that order
func (c *Converter) EncodeTables(tables *model.Tables) ([]EncodedTable, error) {
	if tables == nil {
		return nil, fmt.Errorf("tables cannot be nil")
	}

	type source struct {
		meta    model.TableMetadata
		columns []string
		rows    [][]string
	}

	sources := []source{
		{model.CustomersTable, model.CustomersTable.ColumnNames(), CustomerRows(tables.Customers)},
		{model.ProductsTable, model.ProductsTable.ColumnNames(), ProductRows(tables.Products)},
		{model.StoresTable, model.StoresTable.ColumnNames(), StoreRows(tables.Stores)},
		{model.SalesTable, model.SalesTable.ColumnNames(), SaleRows(tables.Sales)},
	}
	if tables.Raw != nil {
		sources = append(sources, source{model.RawSalesTable, tables.Raw.Columns, tables.Raw.Rows})
	}

	encoded := make([]EncodedTable, 0, len(sources))
	for _, src := range sources {
		body, err := c.EncodeTable(src.columns, src.rows)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", src.meta.Name, err)
		}
		encoded = append(encoded, EncodedTable{
			Table: src.meta.Name,
			Rows:  len(src.rows),
			Body:  body,
		})

		c.logger.Debug("Encoded table",
			zap.String("table", src.meta.Name),
			zap.Int("rows", len(src.rows)),
			zap.Int("bytes", len(body)))
	}

	return encoded, nil
}

// CustomerRows renders customers in CustomersTable column order
func CustomerRows(customers []model.Customer) [][]string {
	rows := make([][]string, len(customers))
	for i, c := range customers {
		rows[i] = []string{FormatInt(c.CustomerID), c.CustomerName}
	}
	return rows
}

// ProductRows renders products in ProductsTable column order
func ProductRows(products []model.Product) [][]string {
	rows := make([][]string, len(products))
	for i, p := range products {
		rows[i] = []string{FormatInt(p.ProductID), p.ProductName, p.ProductCategory}
	}
	return rows
}

// StoreRows renders stores in StoresTable column order
func StoreRows(stores []model.Store) [][]string {
	rows := make([][]string, len(stores))
	for i, s := range stores {
		rows[i] = []string{FormatInt(s.StoreID), s.StoreLocation}
	}
	return rows
}

// SaleRows renders sales in SalesTable column order
func SaleRows(sales []model.Sale) [][]string {
	rows := make([][]string, len(sales))
	for i, s := range sales {
		rows[i] = []string{
			FormatInt(s.TransactionID),
			s.DayOfWeek,
			FormatInt(s.CustomerID),
			FormatInt(s.ProductID),
			FormatInt(s.StoreID),
			FormatInt(s.QuantitySold),
			model.FormatFloat(s.TotalSale),
			model.FormatFloat(s.Price),
		}
	}
	return rows
}

// GenerateColumnDefinitions creates PostgreSQL column definitions
func GenerateColumnDefinitions(metadata model.TableMetadata) []string {
	definitions := make([]string, 0, len(metadata.Columns)+1)

	for _, col := range metadata.Columns {
		pgType := col.PgType
		if pgType == "" {
			pgType = "TEXT"
		}

		nullability := "NULL"
		if col.IsPrimaryKey || !col.Nullable {
			nullability = "NOT NULL"
		}

		definitions = append(definitions, fmt.Sprintf("%s %s %s",
			QuoteIdentifier(col.Name),
			pgType,
			nullability))
	}

	if len(metadata.PrimaryKeys) > 0 {
		keys := make([]string, len(metadata.PrimaryKeys))
		for i, k := range metadata.PrimaryKeys {
			keys[i] = QuoteIdentifier(k)
		}
		definitions = append(definitions, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(keys, ", ")))
	}

	return definitions
}

// QuoteIdentifier properly quotes and escapes a PostgreSQL identifier
func QuoteIdentifier(name string) string {
	// Handle case sensitivity by quoting lowercase table/column names
	return fmt.Sprintf("\"%s\"", strings.ToLower(strings.ReplaceAll(name, "\"", "\"\"")))
}
