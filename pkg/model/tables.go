package model

// Customer is one distinct customer_name with its surrogate key
type Customer struct {
	CustomerID   int64
	CustomerName string
}

// Product is one distinct product_name with its surrogate key and category
type Product struct {
	ProductID       int64
	ProductName     string
	ProductCategory string
}

// Store is one distinct store_location with its surrogate key
type Store struct {
	StoreID       int64
	StoreLocation string
}

// Sale is the fact row of a surviving transaction
type Sale struct {
	TransactionID int64
	DayOfWeek     string
	CustomerID    int64
	ProductID     int64
	StoreID       int64
	QuantitySold  int64
	TotalSale     float64
	Price         float64
}

// Tables holds the modelled output plus the untouched raw record set
type Tables struct {
	Customers []Customer
	Products  []Product
	Stores    []Store
	Sales     []Sale
	Raw       *RawTable
}

// RowCounts returns the row count per output table name
func (t *Tables) RowCounts() map[string]int {
	return map[string]int{
		CustomersTable.Name: len(t.Customers),
		ProductsTable.Name:  len(t.Products),
		StoresTable.Name:    len(t.Stores),
		SalesTable.Name:     len(t.Sales),
		RawSalesTable.Name:  t.Raw.Len(),
	}
}
