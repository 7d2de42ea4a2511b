package converter

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/sales-etl/pkg/model"
)

func TestReadRawTable(t *testing.T) {
	input := "\ufefftransaction_id, price ,customer_name\n1,799.99,Debby\n2,,\"Smith, Alan\"\n3\n"

	table, err := NewConverter(zap.NewNop()).ReadRawTable(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"transaction_id", "price", "customer_name"}, table.Columns)
	require.Equal(t, 3, table.Len())
	assert.Equal(t, "Smith, Alan", table.Cell(1, 2))
	assert.Equal(t, "", table.Cell(2, 1), "short rows read as blank cells")
}

func TestReadRawTable_Empty(t *testing.T) {
	_, err := NewConverter(nil).ReadRawTable(strings.NewReader(""))
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrSchema))
}

func TestReadRawTable_HeaderOnly(t *testing.T) {
	table, err := NewConverter(nil).ReadRawTable(strings.NewReader("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
	assert.NotNil(t, table.Rows)
}

func TestEncodeTable_RoundTrip(t *testing.T) {
	c := NewConverter(nil)
	columns := []string{"id", "name"}
	rows := [][]string{{"1", "Pretoria"}, {"2", "Cape Town, WC"}}

	body, err := c.EncodeTable(columns, rows)
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,Pretoria\n2,\"Cape Town, WC\"\n", string(body))

	table, err := c.ReadRawTable(strings.NewReader(string(body)))
	require.NoError(t, err)
	assert.Equal(t, columns, table.Columns)
	assert.Equal(t, rows, table.Rows)
}

func TestIsNull(t *testing.T) {
	c := NewConverter(nil)
	for _, v := range []string{"", "   ", "NA", "N/A", "null", "NULL", "NaN", "nan", "None", " NA "} {
		assert.True(t, c.IsNull(v), "%q should be null", v)
	}
	for _, v := range []string{"0", "Monday", "none", "n"} {
		assert.False(t, c.IsNull(v), "%q should not be null", v)
	}
}

func TestParseDecimal(t *testing.T) {
	c := NewConverter(nil)
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"799.99", 799.99, true},
		{" 12 ", 12, true},
		{"-3.5", -3.5, true},
		{"1e3", 1000, true},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"$5", 0, false},
	}

	for _, tt := range tests {
		got, ok := c.ParseDecimal(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestParseInteger(t *testing.T) {
	c := NewConverter(nil)
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"42", 42, true},
		{"2.0", 2, true},
		{" 9007199254740993 ", 9007199254740993, true},
		{"9223372036854775807", 9223372036854775807, true},
		{"-17", -17, true},
		{"2.5", 0, false},
		{"x", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		got, ok := c.ParseInteger(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestEncodeTables(t *testing.T) {
	tables := &model.Tables{
		Customers: []model.Customer{{CustomerID: 1, CustomerName: "Debby"}},
		Products:  []model.Product{{ProductID: 1, ProductName: "Widget", ProductCategory: "Tools"}},
		Stores:    []model.Store{{StoreID: 1, StoreLocation: "Pretoria"}},
		Sales: []model.Sale{{
			TransactionID: 7, DayOfWeek: "Monday", CustomerID: 1, ProductID: 1, StoreID: 1,
			QuantitySold: 2, TotalSale: 1599.98, Price: 799.99,
		}},
		Raw: &model.RawTable{Columns: []string{"transaction_id"}, Rows: [][]string{{" 7 "}}},
	}

	encoded, err := NewConverter(nil).EncodeTables(tables)
	require.NoError(t, err)
	require.Len(t, encoded, 5)

	names := make([]string, len(encoded))
	for i, e := range encoded {
		names[i] = e.Table
	}
	assert.Equal(t, []string{"customers", "products", "stores", "sales", "raw_sales_data"}, names)

	assert.Equal(t,
		"transaction_id,day_of_week,customer_id,product_id,store_id,quantity_sold,total_sale,price\n"+
			"7,Monday,1,1,1,2,1599.98,799.99\n",
		string(encoded[3].Body))
	assert.Equal(t, "transaction_id\n\" 7 \"\n", string(encoded[4].Body))
	assert.Equal(t, 1, encoded[4].Rows)
}

func TestGenerateColumnDefinitions(t *testing.T) {
	defs := GenerateColumnDefinitions(model.ProductsTable)
	assert.Equal(t, []string{
		`"product_id" BIGINT NOT NULL`,
		`"product_name" TEXT NOT NULL`,
		`"product_category" TEXT NOT NULL`,
		`PRIMARY KEY ("product_id")`,
	}, defs)
}
