package cleaner

import (
	"errors"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/sales-etl/pkg/model"
)

var header = []string{
	"transaction_id", "day_of_week", "product_name", "product_category", "price",
	"quantity_sold", "total_sale", "store_location", "customer_name",
}

func rawTable(rows ...[]string) *model.RawTable {
	return &model.RawTable{Columns: append([]string(nil), header...), Rows: rows}
}

func newTestCleaner() *Cleaner {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return NewCleaner(zap.NewNop()).
		WithRunID("test-run").
		WithClock(func() time.Time { return fixed })
}

func byTransaction(rs model.RecordSet) map[int64]model.Record {
	out := make(map[int64]model.Record, len(rs))
	for _, r := range rs {
		out[*r.TransactionID] = r
	}
	return out
}

// messyTable exercises every repair rule at least once
func messyTable() *model.RawTable {
	return rawTable(
		[]string{"1", "Monday", "Widget", "Tools", "10.5", "2", "21", "Pretoria", "Debby"},
		[]string{"2", "", "Widget", "", "", "1", "", "Pretoria", "Alan"},
		[]string{"3", "Monday", " Gadget ", "Electronics", "99.99", "", "", "", "Debby"},
		[]string{"4", "Tuesday", "Gadget", "Electronics", "abc", "2", "199.98", "Cape Town", "Zoe"},
		[]string{"", "Friday", "Widget", "Tools", "10.5", "1", "10.5", "Pretoria", "Nobody"},
		[]string{"6", "Friday", "", "", "5", "1", "5", "Durban", "Sam"},
		[]string{"7", "Monday", "Orphan", "", "3", "1", "3", "Durban", "Sam"},
		[]string{"8", "Monday", "Lonely", "Misc", "", "1", "", "Durban", "Sam"},
		[]string{"9", "Sunday", "Widget", "Tools", "10.5", "2.0", "", "Durban", "  "},
	)
}

func TestClean_HappyPath(t *testing.T) {
	raw := rawTable(
		[]string{"1", "Monday", "Apple Watch Ultra", "Smartwatch", "799.99", "2", "1599.98", "Pretoria", "Debby"},
		[]string{"2", "Tuesday", "Galaxy Buds", "Audio", "149.5", "1", "149.5", "Durban", "Alan"},
	)

	cleaned, report, err := newTestCleaner().Clean(raw)
	require.NoError(t, err)

	require.Len(t, cleaned, 2)
	assert.Equal(t, 0, report.Dropped())
	assert.Equal(t, 2, report.RowsIn)
	assert.Equal(t, 2, report.RowsOut)
	assert.Empty(t, report.Operations)
	assert.Equal(t, "Apple Watch Ultra", *cleaned[0].ProductName)
	assert.InDelta(t, 1599.98, *cleaned[0].TotalSale, 1e-9)
	assert.Equal(t, StepNames(), stepNames(report))
}

func stepNames(r *Report) []string {
	names := make([]string, len(r.Steps))
	for i, s := range r.Steps {
		names[i] = s.Name
	}
	return names
}

func TestClean_CategoryInference(t *testing.T) {
	raw := rawTable(
		[]string{"1", "Monday", "Widget", "Tools", "5", "1", "5", "Pretoria", "Debby"},
		[]string{"2", "Monday", "Widget", "", "5", "1", "5", "Pretoria", "Alan"},
	)

	cleaned, report, err := newTestCleaner().Clean(raw)
	require.NoError(t, err)

	require.Len(t, cleaned, 2)
	for _, r := range cleaned {
		assert.Equal(t, "Tools", *r.ProductCategory)
	}
	assert.Equal(t, 1, report.FilledByColumn()[model.ColProductCategory])
}

func TestClean_DropsRowMissingNameAndCategory(t *testing.T) {
	raw := rawTable(
		[]string{"1", "Monday", "Widget", "Tools", "5", "1", "5", "Pretoria", "Debby"},
		[]string{"2", "Monday", "", "", "5", "1", "5", "Pretoria", "Alan"},
	)

	cleaned, report, err := newTestCleaner().Clean(raw)
	require.NoError(t, err)

	require.Len(t, cleaned, 1)
	assert.Equal(t, int64(1), *cleaned[0].TransactionID)

	var drops []model.CleaningOperation
	for _, op := range report.Operations {
		if op.IsDrop() {
			drops = append(drops, op)
		}
	}
	require.Len(t, drops, 1)
	assert.Equal(t, StepDropInvalidRows, drops[0].Step)
	assert.Equal(t, "2", drops[0].RowIdentifier)
	assert.Equal(t, "missing_product_name_and_category", drops[0].CleaningReason)
}

func TestClean_PriceInferenceFailureDropsRow(t *testing.T) {
	raw := rawTable(
		[]string{"1", "Monday", "Widget", "Tools", "5", "1", "5", "Pretoria", "Debby"},
		[]string{"2", "Monday", "Sprocket", "Tools", "", "1", "", "Pretoria", "Alan"},
	)

	cleaned, report, err := newTestCleaner().Clean(raw)
	require.NoError(t, err)

	require.Len(t, cleaned, 1)
	assert.Equal(t, "Widget", *cleaned[0].ProductName)

	priceStep := report.Steps[4]
	assert.Equal(t, StepInferPrice, priceStep.Name)
	assert.Equal(t, 1, priceStep.Dropped)
}

func TestClean_QuantityFillUsesRoundedMean(t *testing.T) {
	raw := rawTable(
		[]string{"1", "Monday", "Widget", "Tools", "5", "2", "10", "Pretoria", "Debby"},
		[]string{"2", "Monday", "Widget", "Tools", "5", "1", "5", "Pretoria", "Debby"},
		[]string{"3", "Monday", "Widget", "Tools", "5", "", "", "Pretoria", "Debby"},
		[]string{"4", "Monday", "Widget", "Tools", "5", "2", "10", "Pretoria", "Debby"},
	)

	cleaned, _, err := newTestCleaner().Clean(raw)
	require.NoError(t, err)

	rows := byTransaction(cleaned)
	assert.Equal(t, int64(2), *rows[3].QuantitySold)
	assert.InDelta(t, 10.0, *rows[3].TotalSale, 1e-6)
}

func TestClean_MessyDataset(t *testing.T) {
	raw := messyTable()
	snapshot := raw.Clone()

	cleaned, report, err := newTestCleaner().Clean(raw)
	require.NoError(t, err)

	assert.Equal(t, snapshot, raw, "raw input must not be modified")
	assert.LessOrEqual(t, len(cleaned), raw.Len())

	for _, r := range cleaned {
		assert.True(t, r.Complete(), "row %d has missing fields %v", *r.TransactionID, r.MissingColumns())
	}

	rows := byTransaction(cleaned)
	assert.ElementsMatch(t, []int64{1, 2, 3, 4}, keys(rows))

	// day_of_week mode is Monday
	assert.Equal(t, "Monday", *rows[2].DayOfWeek)
	// category and price inferred from the other Widget rows
	assert.Equal(t, "Tools", *rows[2].ProductCategory)
	assert.Equal(t, 10.5, *rows[2].Price)
	assert.InDelta(t, 10.5, *rows[2].TotalSale, 1e-6)
	// trimmed product name joins its group and lends its price to row 4
	assert.Equal(t, "Gadget", *rows[3].ProductName)
	assert.Equal(t, 99.99, *rows[4].Price)
	// a present total is kept even when it disagrees
	assert.Equal(t, 199.98, *rows[4].TotalSale)
	// the Durban rows were dropped before the store fill
	assert.Equal(t, "Pretoria", *rows[3].StoreLocation)

	assert.Equal(t, raw.Len()-len(cleaned), report.Dropped())

	var coerced bool
	for _, op := range report.Operations {
		if op.CleaningOperation == model.OpTypeCoercion && op.ColumnName == model.ColPrice {
			coerced = true
			require.NotNil(t, op.OriginalValue)
			assert.Equal(t, "abc", *op.OriginalValue)
		}
		assert.Equal(t, "test-run", op.RunID)
	}
	assert.True(t, coerced)
}

func keys(m map[int64]model.Record) []int64 {
	out := make([]int64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestCleanRecords_Idempotent(t *testing.T) {
	c := newTestCleaner()

	once, _, err := c.Clean(messyTable())
	require.NoError(t, err)

	twice, report, err := c.CleanRecords(once)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
	assert.Empty(t, report.Operations)
	assert.Equal(t, 0, report.Dropped())
}

func TestClean_OrderIndependent(t *testing.T) {
	forward := messyTable()
	reversed := messyTable()
	for i, j := 0, len(reversed.Rows)-1; i < j; i, j = i+1, j-1 {
		reversed.Rows[i], reversed.Rows[j] = reversed.Rows[j], reversed.Rows[i]
	}

	a, _, err := newTestCleaner().Clean(forward)
	require.NoError(t, err)
	b, _, err := newTestCleaner().Clean(reversed)
	require.NoError(t, err)

	assert.Equal(t, byTransaction(a), byTransaction(b))
}

func TestClean_DerivedTotalMatchesPriceTimesQuantity(t *testing.T) {
	cleaned, report, err := newTestCleaner().Clean(messyTable())
	require.NoError(t, err)

	rows := byTransaction(cleaned)
	derived := 0
	for _, op := range report.Operations {
		if op.CleaningOperation != model.OpDerived {
			continue
		}
		derived++
		r := rows[mustParseID(t, op.RowIdentifier)]
		assert.InDelta(t, *r.Price*float64(*r.QuantitySold), *r.TotalSale, 1e-6)
	}
	assert.Positive(t, derived)
}

func mustParseID(t *testing.T, s string) int64 {
	t.Helper()
	id, err := strconv.ParseInt(s, 10, 64)
	require.NoError(t, err, "identifier %q is not a transaction id", s)
	return id
}

func TestClean_MissingColumnIsSchemaError(t *testing.T) {
	raw := &model.RawTable{
		Columns: []string{"transaction_id", "day_of_week"},
		Rows:    [][]string{{"1", "Monday"}},
	}

	_, _, err := newTestCleaner().Clean(raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrSchema))

	var schemaErr *model.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, model.ColProductName, schemaErr.Column)
}

func TestClean_EmptyDistribution(t *testing.T) {
	tests := []struct {
		name   string
		raw    *model.RawTable
		column string
	}{
		{
			name:   "no rows",
			raw:    rawTable(),
			column: model.ColDayOfWeek,
		},
		{
			name: "all day_of_week missing",
			raw: rawTable(
				[]string{"1", "", "Widget", "Tools", "5", "1", "5", "Pretoria", "Debby"},
			),
			column: model.ColDayOfWeek,
		},
		{
			name: "all quantity missing",
			raw: rawTable(
				[]string{"1", "Monday", "Widget", "Tools", "5", "", "5", "Pretoria", "Debby"},
			),
			column: model.ColQuantitySold,
		},
		{
			name: "all store missing",
			raw: rawTable(
				[]string{"1", "Monday", "Widget", "Tools", "5", "1", "5", "NA", "Debby"},
			),
			column: model.ColStoreLocation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := newTestCleaner().Clean(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrEmptyDistribution))

			var distErr *EmptyDistributionError
			require.True(t, errors.As(err, &distErr))
			assert.Equal(t, tt.column, distErr.Column)
		})
	}
}

func TestCleanRecords_TrimsAndNullsBlankStrings(t *testing.T) {
	rs := model.RecordSet{
		{
			TransactionID:   model.Ptr(int64(1)),
			DayOfWeek:       model.Ptr(" Monday "),
			ProductName:     model.Ptr("Widget"),
			ProductCategory: model.Ptr("Tools"),
			Price:           model.Ptr(5.0),
			QuantitySold:    model.Ptr(int64(1)),
			TotalSale:       model.Ptr(math.Inf(1)),
			StoreLocation:   model.Ptr("Pretoria"),
			CustomerName:    model.Ptr("   "),
		},
		{
			TransactionID:   model.Ptr(int64(2)),
			DayOfWeek:       model.Ptr("Monday"),
			ProductName:     model.Ptr("Widget"),
			ProductCategory: model.Ptr("Tools"),
			Price:           model.Ptr(5.0),
			QuantitySold:    model.Ptr(int64(3)),
			StoreLocation:   model.Ptr("Pretoria"),
			CustomerName:    model.Ptr("Debby"),
		},
	}
	input := rs.Clone()

	cleaned, _, err := newTestCleaner().CleanRecords(rs)
	require.NoError(t, err)

	assert.Equal(t, input, rs, "input must not be modified")
	require.Len(t, cleaned, 1)
	assert.Equal(t, int64(2), *cleaned[0].TransactionID)
	assert.InDelta(t, 15.0, *cleaned[0].TotalSale, 1e-9)
}
