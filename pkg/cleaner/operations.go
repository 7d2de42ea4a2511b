// pkg/cleaner/operations.go
package cleaner

import (
	"math"
	"time"

	"github.com/David-Botos/sales-etl/pkg/converter"
	"github.com/David-Botos/sales-etl/pkg/model"
)

// Step names, in the order the cleaner applies them
const (
	StepNormalizeTypes       = "normalize_types"
	StepDropInvalidRows      = "drop_invalid_rows"
	StepFillDayOfWeek        = "fill_day_of_week"
	StepInferProductCategory = "infer_product_category"
	StepInferPrice           = "infer_price"
	StepFillQuantitySold     = "fill_quantity_sold"
	StepDeriveTotalSale      = "derive_total_sale"
	StepFillStoreLocation    = "fill_store_location"
)

// repairStep takes a record set and returns a new one; the input is never modified
type repairStep struct {
	name  string
	apply func(rs model.RecordSet, log *opLog) (model.RecordSet, error)
}

// repairSteps are the steps that follow type normalization
var repairSteps = []repairStep{
	{StepDropInvalidRows, dropInvalidRows},
	{StepFillDayOfWeek, fillDayOfWeek},
	{StepInferProductCategory, inferProductCategory.step},
	{StepInferPrice, inferPrice.step},
	{StepFillQuantitySold, fillQuantitySold},
	{StepDeriveTotalSale, deriveTotalSale},
	{StepFillStoreLocation, fillStoreLocation},
}

// StepNames lists every step in application order
func StepNames() []string {
	names := []string{StepNormalizeTypes}
	for _, s := range repairSteps {
		names = append(names, s.name)
	}
	return names
}

// opLog collects the audit trail of one step
type opLog struct {
	runID   string
	step    string
	now     func() time.Time
	ops     []model.CleaningOperation
	filled  map[string]int
	dropped int
}

func newOpLog(runID, step string, now func() time.Time) *opLog {
	return &opLog{runID: runID, step: step, now: now, filled: make(map[string]int)}
}

func (l *opLog) add(column string, original *string, newValue, rowID, operation, reason string) {
	l.ops = append(l.ops, model.CleaningOperation{
		RunID:             l.runID,
		Step:              l.step,
		ColumnName:        column,
		OriginalValue:     original,
		NewValue:          newValue,
		RowIdentifier:     rowID,
		CleaningOperation: operation,
		CleaningReason:    reason,
		CleanedAt:         l.now(),
	})
}

func (l *opLog) fill(r *model.Record, pos int, column, newValue, operation, reason string) {
	l.filled[column]++
	l.add(column, nil, newValue, r.Identifier(pos), operation, reason)
}

func (l *opLog) drop(r *model.Record, pos int, column, reason string) {
	l.dropped++
	var original *string
	if v, ok := r.Value(column); ok {
		original = &v
	}
	l.add(column, original, "", r.Identifier(pos), model.OpRowDrop, reason)
}

// normalizeRaw builds typed records from the extracted table. Strings are
// trimmed; numeric cells that do not parse become missing.
func normalizeRaw(conv *converter.Converter, raw *model.RawTable, log *opLog) (model.RecordSet, error) {
	if raw == nil {
		return nil, &model.SchemaError{Table: model.RawSalesTable.Name, Reason: "no input table"}
	}

	idx := make(map[string]int, len(model.RecordColumns))
	for _, col := range model.RecordColumns {
		i := raw.ColumnIndex(col)
		if i < 0 {
			return nil, &model.SchemaError{Table: model.RawSalesTable.Name, Column: col, Reason: "column not found"}
		}
		idx[col] = i
	}

	out := make(model.RecordSet, len(raw.Rows))
	for pos := range raw.Rows {
		rowID := "row:" + converter.FormatInt(int64(pos))
		cell := func(col string) string { return raw.Cell(pos, idx[col]) }

		str := func(col string) *string {
			original := cell(col)
			v, ok := conv.NormalizeString(original)
			if !ok {
				return nil
			}
			if v != original {
				log.add(col, &original, v, rowID, model.OpTrim, "surrounding_whitespace")
			}
			return &v
		}
		integer := func(col string) *int64 {
			original := cell(col)
			if conv.IsNull(original) {
				return nil
			}
			v, ok := conv.ParseInteger(original)
			if !ok {
				log.add(col, &original, "", rowID, model.OpTypeCoercion, "not_an_integer")
				return nil
			}
			return &v
		}
		decimal := func(col string) *float64 {
			original := cell(col)
			if conv.IsNull(original) {
				return nil
			}
			v, ok := conv.ParseDecimal(original)
			if !ok {
				log.add(col, &original, "", rowID, model.OpTypeCoercion, "not_a_number")
				return nil
			}
			return &v
		}

		out[pos] = model.Record{
			TransactionID:   integer(model.ColTransactionID),
			DayOfWeek:       str(model.ColDayOfWeek),
			ProductName:     str(model.ColProductName),
			ProductCategory: str(model.ColProductCategory),
			Price:           decimal(model.ColPrice),
			QuantitySold:    integer(model.ColQuantitySold),
			TotalSale:       decimal(model.ColTotalSale),
			StoreLocation:   str(model.ColStoreLocation),
			CustomerName:    str(model.ColCustomerName),
		}
	}

	return out, nil
}

// normalizeRecords is type normalization for records that are already typed:
// strings are trimmed and blank or null-token strings become missing
func normalizeRecords(conv *converter.Converter, rs model.RecordSet, log *opLog) model.RecordSet {
	out := rs.Clone()
	for pos := range out {
		r := &out[pos]
		for _, f := range []struct {
			col   string
			field **string
		}{
			{model.ColDayOfWeek, &r.DayOfWeek},
			{model.ColProductName, &r.ProductName},
			{model.ColProductCategory, &r.ProductCategory},
			{model.ColStoreLocation, &r.StoreLocation},
			{model.ColCustomerName, &r.CustomerName},
		} {
			if *f.field == nil {
				continue
			}
			original := **f.field
			v, ok := conv.NormalizeString(original)
			switch {
			case !ok:
				*f.field = nil
				log.add(f.col, &original, "", r.Identifier(pos), model.OpTrim, "blank_value")
			case v != original:
				*f.field = &v
				log.add(f.col, &original, v, r.Identifier(pos), model.OpTrim, "surrounding_whitespace")
			}
		}

		for _, f := range []struct {
			col   string
			field **float64
		}{
			{model.ColPrice, &r.Price},
			{model.ColTotalSale, &r.TotalSale},
		} {
			if *f.field != nil && (math.IsNaN(**f.field) || math.IsInf(**f.field, 0)) {
				original := model.FormatFloat(**f.field)
				*f.field = nil
				log.add(f.col, &original, "", r.Identifier(pos), model.OpTypeCoercion, "not_a_number")
			}
		}
	}
	return out
}

// dropInvalidRows discards rows whose identifiers cannot be recovered
func dropInvalidRows(rs model.RecordSet, log *opLog) (model.RecordSet, error) {
	out := make(model.RecordSet, 0, len(rs))
	for pos, r := range rs.Clone() {
		switch {
		case r.ProductName == nil && r.ProductCategory == nil:
			log.drop(&r, pos, model.ColProductName, "missing_product_name_and_category")
		case r.TransactionID == nil:
			log.drop(&r, pos, model.ColTransactionID, "missing_transaction_id")
		case r.CustomerName == nil:
			log.drop(&r, pos, model.ColCustomerName, "missing_customer_name")
		case r.ProductName == nil:
			log.drop(&r, pos, model.ColProductName, "missing_product_name")
		default:
			out = append(out, r)
		}
	}
	return out, nil
}

// globalModeFill replaces missing values with the column mode
func globalModeFill(
	column string,
	get func(*model.Record) *string,
	set func(*model.Record, string),
) func(model.RecordSet, *opLog) (model.RecordSet, error) {
	return func(rs model.RecordSet, log *opLog) (model.RecordSet, error) {
		value, ok := mode(present(rs, get))
		if !ok {
			return nil, &EmptyDistributionError{Column: column}
		}

		out := rs.Clone()
		for pos := range out {
			if get(&out[pos]) == nil {
				set(&out[pos], value)
				log.fill(&out[pos], pos, column, value, model.OpModeFill, "missing_"+column)
			}
		}
		return out, nil
	}
}

var fillDayOfWeek = globalModeFill(model.ColDayOfWeek,
	func(r *model.Record) *string { return r.DayOfWeek },
	func(r *model.Record, v string) { r.DayOfWeek = &v },
)

var fillStoreLocation = globalModeFill(model.ColStoreLocation,
	func(r *model.Record) *string { return r.StoreLocation },
	func(r *model.Record, v string) { r.StoreLocation = &v },
)

func productNameKey(r *model.Record) *string { return r.ProductName }

var inferProductCategory = groupedFill[string]{
	column:    model.ColProductCategory,
	keyColumn: model.ColProductName,
	key:       productNameKey,
	get:       func(r *model.Record) *string { return r.ProductCategory },
	set:       func(r *model.Record, v string) { r.ProductCategory = &v },
	format:    func(v string) string { return v },
	aggregate: mode[string],
	policy:    DropOnNoMatch,
}

var inferPrice = groupedFill[float64]{
	column:    model.ColPrice,
	keyColumn: model.ColProductName,
	key:       productNameKey,
	get:       func(r *model.Record) *float64 { return r.Price },
	set:       func(r *model.Record, v float64) { r.Price = &v },
	format:    model.FormatFloat,
	aggregate: mode[float64],
	policy:    DropOnNoMatch,
}

// fillQuantitySold replaces missing quantities with the rounded global mean
func fillQuantitySold(rs model.RecordSet, log *opLog) (model.RecordSet, error) {
	value, ok := roundedMean(present(rs, func(r *model.Record) *int64 { return r.QuantitySold }))
	if !ok {
		return nil, &EmptyDistributionError{Column: model.ColQuantitySold}
	}

	out := rs.Clone()
	for pos := range out {
		if out[pos].QuantitySold == nil {
			out[pos].QuantitySold = model.Ptr(value)
			log.fill(&out[pos], pos, model.ColQuantitySold, converter.FormatInt(value), model.OpMeanFill, "missing_quantity_sold")
		}
	}
	return out, nil
}

// deriveTotalSale computes price * quantity where the total is missing.
// Present totals are kept even when they disagree.
func deriveTotalSale(rs model.RecordSet, log *opLog) (model.RecordSet, error) {
	out := rs.Clone()
	for pos := range out {
		r := &out[pos]
		if r.TotalSale != nil || r.Price == nil || r.QuantitySold == nil {
			continue
		}
		total := *r.Price * float64(*r.QuantitySold)
		r.TotalSale = &total
		log.fill(r, pos, model.ColTotalSale, model.FormatFloat(total), model.OpDerived, "price_times_quantity")
	}
	return out, nil
}
