package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() Record {
	return Record{
		TransactionID:   Ptr(int64(7)),
		DayOfWeek:       Ptr("Monday"),
		ProductName:     Ptr("Widget"),
		ProductCategory: Ptr("Tools"),
		Price:           Ptr(10.5),
		QuantitySold:    Ptr(int64(2)),
		TotalSale:       Ptr(21.0),
		StoreLocation:   Ptr("Pretoria"),
		CustomerName:    Ptr("Debby"),
	}
}

func TestRecord_ValueAndMissing(t *testing.T) {
	r := sampleRecord()
	assert.True(t, r.Complete())

	v, ok := r.Value(ColPrice)
	require.True(t, ok)
	assert.Equal(t, "10.5", v)

	v, ok = r.Value(ColTotalSale)
	require.True(t, ok)
	assert.Equal(t, "21", v)

	r.StoreLocation = nil
	r.Price = nil
	assert.Equal(t, []string{ColPrice, ColStoreLocation}, r.MissingColumns())
	_, ok = r.Value(ColPrice)
	assert.False(t, ok)
}

func TestRecord_Identifier(t *testing.T) {
	r := sampleRecord()
	assert.Equal(t, "7", r.Identifier(3))

	r.TransactionID = nil
	assert.Equal(t, "row:3", r.Identifier(3))
}

func TestRecordSet_CloneIsDeep(t *testing.T) {
	rs := RecordSet{sampleRecord()}
	cp := rs.Clone()
	*cp[0].ProductName = "Gadget"

	assert.Equal(t, "Widget", *rs[0].ProductName)
	assert.Nil(t, RecordSet(nil).Clone())
}

func TestRecordSet_Profile(t *testing.T) {
	missing := sampleRecord()
	missing.DayOfWeek = nil
	rs := RecordSet{sampleRecord(), sampleRecord(), missing}

	p := rs.Profile()
	assert.Equal(t, 3, p.Rows)
	assert.Equal(t, 9, p.Columns)
	assert.Equal(t, 1, p.Duplicates)
	assert.Equal(t, 1, p.Missing[ColDayOfWeek])
	assert.Equal(t, 1, p.TotalMissing())
}

func TestRawTable(t *testing.T) {
	raw := &RawTable{
		Columns: []string{"a", "b"},
		Rows:    [][]string{{"1", " "}, {"1", " "}, {"2"}},
	}

	assert.Equal(t, 3, raw.Len())
	assert.Equal(t, 1, raw.ColumnIndex("b"))
	assert.Equal(t, -1, raw.ColumnIndex("c"))
	assert.Equal(t, "", raw.Cell(2, 1))

	p := raw.Profile()
	assert.Equal(t, 3, p.Missing["b"])
	assert.Equal(t, 1, p.Duplicates)

	cp := raw.Clone()
	cp.Rows[0][0] = "x"
	assert.Equal(t, "1", raw.Rows[0][0])

	var empty *RawTable
	assert.Zero(t, empty.Len())
	assert.Nil(t, empty.Clone())
}

func TestSchemaError(t *testing.T) {
	err := fmt.Errorf("model: %w", &SchemaError{Table: "sales", Column: "price", Reason: "missing value in record 7"})
	assert.True(t, errors.Is(err, ErrSchema))
	assert.Contains(t, err.Error(), "sales.price")

	noColumn := &SchemaError{Table: "stores", Reason: "bad header"}
	assert.Equal(t, "schema violation in stores: bad header", noColumn.Error())
}

func TestTableMetadata(t *testing.T) {
	assert.Equal(t, []string{
		"transaction_id", "day_of_week", "customer_id", "product_id", "store_id",
		"quantity_sold", "total_sale", "price",
	}, SalesTable.ColumnNames())

	tables := &Tables{Sales: make([]Sale, 2)}
	assert.Equal(t, 2, tables.RowCounts()["sales"])
	assert.Equal(t, 0, tables.RowCounts()["raw_sales_data"])
}
