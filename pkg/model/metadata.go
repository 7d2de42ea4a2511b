// pkg/model/metadata.go
package model

// TableMetadata contains the structure information for an output table
type TableMetadata struct {
	Name        string   // Table name
	Columns     []Column // Column definitions, in serialization order
	PrimaryKeys []string // List of primary key column names
}

// Column represents metadata about a table column
type Column struct {
	Name         string // Column name
	PgType       string // PostgreSQL type used by the loader
	Nullable     bool   // Whether column allows NULL values
	IsPrimaryKey bool   // Whether column is part of primary key
}

// Output tables. Column order here is the header order of the staged files.
var (
	CustomersTable = TableMetadata{
		Name: "customers",
		Columns: []Column{
			{Name: "customer_id", PgType: "BIGINT", IsPrimaryKey: true},
			{Name: ColCustomerName, PgType: "TEXT"},
		},
		PrimaryKeys: []string{"customer_id"},
	}

	ProductsTable = TableMetadata{
		Name: "products",
		Columns: []Column{
			{Name: "product_id", PgType: "BIGINT", IsPrimaryKey: true},
			{Name: ColProductName, PgType: "TEXT"},
			{Name: ColProductCategory, PgType: "TEXT"},
		},
		PrimaryKeys: []string{"product_id"},
	}

	StoresTable = TableMetadata{
		Name: "stores",
		Columns: []Column{
			{Name: "store_id", PgType: "BIGINT", IsPrimaryKey: true},
			{Name: ColStoreLocation, PgType: "TEXT"},
		},
		PrimaryKeys: []string{"store_id"},
	}

	SalesTable = TableMetadata{
		Name: "sales",
		Columns: []Column{
			{Name: ColTransactionID, PgType: "BIGINT"},
			{Name: ColDayOfWeek, PgType: "TEXT"},
			{Name: "customer_id", PgType: "BIGINT"},
			{Name: "product_id", PgType: "BIGINT"},
			{Name: "store_id", PgType: "BIGINT"},
			{Name: ColQuantitySold, PgType: "BIGINT"},
			{Name: ColTotalSale, PgType: "NUMERIC(12,2)"},
			{Name: ColPrice, PgType: "NUMERIC(12,2)"},
		},
	}

	// RawSalesTable has no fixed columns; the archive keeps whatever header was extracted
	RawSalesTable = TableMetadata{Name: "raw_sales_data"}
)

// ModelTables lists the normalized tables in load order (dimensions before facts)
var ModelTables = []TableMetadata{CustomersTable, ProductsTable, StoresTable, SalesTable}

// ColumnNames returns the column names in serialization order
func (tm TableMetadata) ColumnNames() []string {
	names := make([]string, len(tm.Columns))
	for i, col := range tm.Columns {
		names[i] = col.Name
	}
	return names
}
