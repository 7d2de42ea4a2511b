// pkg/model/cleaning.go
package model

import (
	"time"
)

// Cleaning operation kinds
const (
	OpTypeCoercion  = "type_coercion"
	OpTrim          = "trim"
	OpRowDrop       = "row_drop"
	OpModeFill      = "mode_fill"
	OpGroupModeFill = "grouped_mode_fill"
	OpMeanFill      = "mean_fill"
	OpDerived       = "derived"
)

// CleaningOperation represents a single repair or discard decision
type CleaningOperation struct {
	RunID             string    // Pipeline run that produced the operation
	Step              string    // Cleaning step that made the decision
	ColumnName        string    // Column that was cleaned (or that caused a drop)
	OriginalValue     *string   // Original value (nil when missing)
	NewValue          string    // New value after cleaning, empty for drops
	RowIdentifier     string    // transaction_id, or row position when unknown
	CleaningOperation string    // Type of cleaning performed (e.g., "grouped_mode_fill")
	CleaningReason    string    // Reason for cleaning (e.g., "missing_product_category")
	CleanedAt         time.Time // When the cleaning occurred
}

// IsDrop reports whether the operation discarded its row
func (op CleaningOperation) IsDrop() bool {
	return op.CleaningOperation == OpRowDrop
}

// IsFill reports whether the operation filled a missing value
func (op CleaningOperation) IsFill() bool {
	switch op.CleaningOperation {
	case OpModeFill, OpGroupModeFill, OpMeanFill, OpDerived:
		return true
	}
	return false
}
