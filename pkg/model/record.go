// pkg/model/record.go
package model

import (
	"strconv"
	"strings"
)

// Column names of the raw sales schema
const (
	ColTransactionID   = "transaction_id"
	ColDayOfWeek       = "day_of_week"
	ColProductName     = "product_name"
	ColProductCategory = "product_category"
	ColPrice           = "price"
	ColQuantitySold    = "quantity_sold"
	ColTotalSale       = "total_sale"
	ColStoreLocation   = "store_location"
	ColCustomerName    = "customer_name"
)

// RecordColumns lists the nine semantic fields in raw schema order
var RecordColumns = []string{
	ColTransactionID,
	ColDayOfWeek,
	ColProductName,
	ColProductCategory,
	ColPrice,
	ColQuantitySold,
	ColTotalSale,
	ColStoreLocation,
	ColCustomerName,
}

// Record is one sales transaction. A nil field is a missing value.
type Record struct {
	TransactionID   *int64
	DayOfWeek       *string
	ProductName     *string
	ProductCategory *string
	Price           *float64
	QuantitySold    *int64
	TotalSale       *float64
	StoreLocation   *string
	CustomerName    *string
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}

// IsNull reports whether the named column is missing in the record.
// Unknown column names are reported as missing.
func (r *Record) IsNull(column string) bool {
	switch column {
	case ColTransactionID:
		return r.TransactionID == nil
	case ColDayOfWeek:
		return r.DayOfWeek == nil
	case ColProductName:
		return r.ProductName == nil
	case ColProductCategory:
		return r.ProductCategory == nil
	case ColPrice:
		return r.Price == nil
	case ColQuantitySold:
		return r.QuantitySold == nil
	case ColTotalSale:
		return r.TotalSale == nil
	case ColStoreLocation:
		return r.StoreLocation == nil
	case ColCustomerName:
		return r.CustomerName == nil
	default:
		return true
	}
}

// Value returns the text form of a column value and whether it is present
func (r *Record) Value(column string) (string, bool) {
	if r.IsNull(column) {
		return "", false
	}

	switch column {
	case ColTransactionID:
		return strconv.FormatInt(*r.TransactionID, 10), true
	case ColDayOfWeek:
		return *r.DayOfWeek, true
	case ColProductName:
		return *r.ProductName, true
	case ColProductCategory:
		return *r.ProductCategory, true
	case ColPrice:
		return FormatFloat(*r.Price), true
	case ColQuantitySold:
		return strconv.FormatInt(*r.QuantitySold, 10), true
	case ColTotalSale:
		return FormatFloat(*r.TotalSale), true
	case ColStoreLocation:
		return *r.StoreLocation, true
	case ColCustomerName:
		return *r.CustomerName, true
	}
	return "", false
}

// MissingColumns returns the names of all missing fields in schema order
func (r *Record) MissingColumns() []string {
	var missing []string
	for _, col := range RecordColumns {
		if r.IsNull(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// Complete reports whether none of the nine fields is missing
func (r *Record) Complete() bool {
	return len(r.MissingColumns()) == 0
}

// Identifier returns a stable identifier for audit records: the transaction
// id when known, otherwise the row position.
func (r *Record) Identifier(position int) string {
	if r.TransactionID != nil {
		return strconv.FormatInt(*r.TransactionID, 10)
	}
	return "row:" + strconv.Itoa(position)
}

// key joins every field into a single comparable string
func (r *Record) key() string {
	parts := make([]string, len(RecordColumns))
	for i, col := range RecordColumns {
		if v, ok := r.Value(col); ok {
			parts[i] = "v:" + v
		} else {
			parts[i] = "null"
		}
	}
	return strings.Join(parts, "\x1f")
}

// RecordSet is an ordered sequence of records
type RecordSet []Record

// Clone returns a copy of the record set that shares no field storage with the original
func (rs RecordSet) Clone() RecordSet {
	if rs == nil {
		return nil
	}

	out := make(RecordSet, len(rs))
	for i, r := range rs {
		out[i] = Record{
			TransactionID:   clonePtr(r.TransactionID),
			DayOfWeek:       clonePtr(r.DayOfWeek),
			ProductName:     clonePtr(r.ProductName),
			ProductCategory: clonePtr(r.ProductCategory),
			Price:           clonePtr(r.Price),
			QuantitySold:    clonePtr(r.QuantitySold),
			TotalSale:       clonePtr(r.TotalSale),
			StoreLocation:   clonePtr(r.StoreLocation),
			CustomerName:    clonePtr(r.CustomerName),
		}
	}
	return out
}

// MissingCount returns the number of records missing the named column
func (rs RecordSet) MissingCount(column string) int {
	count := 0
	for i := range rs {
		if rs[i].IsNull(column) {
			count++
		}
	}
	return count
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// FormatFloat renders a decimal with the shortest exact representation
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
