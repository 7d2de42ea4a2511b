package transfer

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/David-Botos/sales-etl/pkg/model"
)

// Issue types reported by the verifier
const (
	IssuePrimaryKeyViolation = "PRIMARY_KEY_VIOLATION"
	IssueForeignKeyViolation = "FOREIGN_KEY_VIOLATION"
	IssueNullViolation       = "NULL_CONSTRAINT_VIOLATION"
	IssueDuplicateNaturalKey = "DUPLICATE_NATURAL_KEY"
)

// IntegrityIssue represents a data integrity issue
type IntegrityIssue struct {
	IssueType    string
	Table        string
	ColumnName   string
	Description  string
	AffectedRows int64
}

// VerificationReport contains the results of verifying the modelled tables
type VerificationReport struct {
	VerificationTime time.Time
	RowCounts        map[string]int
	Issues           []IntegrityIssue // violations; staging must not proceed
	Warnings         []IntegrityIssue // suspicious but loadable
	Duration         time.Duration
}

// Passed reports whether no violation was found
func (r *VerificationReport) Passed() bool {
	return len(r.Issues) == 0
}

// Err returns a schema error describing the first violation, or nil
func (r *VerificationReport) Err() error {
	if r.Passed() {
		return nil
	}
	first := r.Issues[0]
	return fmt.Errorf("verification found %d issue(s): %w", len(r.Issues), &model.SchemaError{
		Table:  first.Table,
		Column: first.ColumnName,
		Reason: first.Description,
	})
}

// Verifier checks the modelled tables before anything is staged
type Verifier struct {
	logger *zap.Logger
}

// NewVerifier creates a new verifier
func NewVerifier(logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{logger: logger}
}

// Verify checks key uniqueness, referential integrity and required values
func (v *Verifier) Verify(tables *model.Tables) *VerificationReport {
	start := time.Now()
	report := &VerificationReport{
		VerificationTime: start,
		RowCounts:        tables.RowCounts(),
	}

	customerIDs := make([]int64, len(tables.Customers))
	customerNames := make([]string, len(tables.Customers))
	for i, c := range tables.Customers {
		customerIDs[i], customerNames[i] = c.CustomerID, c.CustomerName
	}
	productIDs := make([]int64, len(tables.Products))
	productNames := make([]string, len(tables.Products))
	productCategories := make([]string, len(tables.Products))
	for i, p := range tables.Products {
		productIDs[i], productNames[i], productCategories[i] = p.ProductID, p.ProductName, p.ProductCategory
	}
	storeIDs := make([]int64, len(tables.Stores))
	storeLocations := make([]string, len(tables.Stores))
	for i, s := range tables.Stores {
		storeIDs[i], storeLocations[i] = s.StoreID, s.StoreLocation
	}

	customers := v.checkPrimaryKeyUniqueness(report, model.CustomersTable, customerIDs)
	products := v.checkPrimaryKeyUniqueness(report, model.ProductsTable, productIDs)
	stores := v.checkPrimaryKeyUniqueness(report, model.StoresTable, storeIDs)

	v.checkNullConstraints(report, model.CustomersTable, model.ColCustomerName, customerNames)
	v.checkNullConstraints(report, model.ProductsTable, model.ColProductName, productNames)
	v.checkNullConstraints(report, model.ProductsTable, model.ColProductCategory, productCategories)
	v.checkNullConstraints(report, model.StoresTable, model.ColStoreLocation, storeLocations)

	saleCustomers := make([]int64, len(tables.Sales))
	saleProducts := make([]int64, len(tables.Sales))
	saleStores := make([]int64, len(tables.Sales))
	days := make([]string, len(tables.Sales))
	transactions := make(map[int64]int, len(tables.Sales))
	for i, s := range tables.Sales {
		saleCustomers[i], saleProducts[i], saleStores[i], days[i] = s.CustomerID, s.ProductID, s.StoreID, s.DayOfWeek
		transactions[s.TransactionID]++
	}

	v.checkReferences(report, "customer_id", model.CustomersTable, saleCustomers, customers)
	v.checkReferences(report, "product_id", model.ProductsTable, saleProducts, products)
	v.checkReferences(report, "store_id", model.StoresTable, saleStores, stores)
	v.checkNullConstraints(report, model.SalesTable, model.ColDayOfWeek, days)

	var duplicated int64
	for _, n := range transactions {
		if n > 1 {
			duplicated += int64(n - 1)
		}
	}
	if duplicated > 0 {
		report.Warnings = append(report.Warnings, IntegrityIssue{
			IssueType:    IssueDuplicateNaturalKey,
			Table:        model.SalesTable.Name,
			ColumnName:   model.ColTransactionID,
			Description:  "transaction_id appears on more than one sale",
			AffectedRows: duplicated,
		})
		v.logger.Warn("Duplicate transaction ids",
			zap.Int64("affectedRows", duplicated))
	}

	report.Duration = time.Since(start)
	if report.Passed() {
		v.logger.Info("Modelled tables verified",
			zap.Any("rowCounts", report.RowCounts),
			zap.Int("warnings", len(report.Warnings)))
	}
	return report
}

// checkPrimaryKeyUniqueness verifies that surrogate keys are positive and
// unique, and returns the set of keys seen
func (v *Verifier) checkPrimaryKeyUniqueness(report *VerificationReport, table model.TableMetadata, ids []int64) map[int64]struct{} {
	seen := make(map[int64]struct{}, len(ids))
	var duplicates, invalid int64
	for _, id := range ids {
		if id <= 0 {
			invalid++
		}
		if _, dup := seen[id]; dup {
			duplicates++
			continue
		}
		seen[id] = struct{}{}
	}

	pk := strings.Join(table.PrimaryKeys, ",")
	if duplicates > 0 {
		report.Issues = append(report.Issues, IntegrityIssue{
			IssueType:    IssuePrimaryKeyViolation,
			Table:        table.Name,
			ColumnName:   pk,
			Description:  fmt.Sprintf("Duplicate values found for primary key (%s)", pk),
			AffectedRows: duplicates,
		})
		v.logger.Warn("Primary key uniqueness violation",
			zap.String("table", table.Name),
			zap.Int64("affectedRows", duplicates))
	}
	if invalid > 0 {
		report.Issues = append(report.Issues, IntegrityIssue{
			IssueType:    IssuePrimaryKeyViolation,
			Table:        table.Name,
			ColumnName:   pk,
			Description:  "Primary key must be a positive integer",
			AffectedRows: invalid,
		})
	}
	return seen
}

// checkReferences verifies that every foreign key resolves to a dimension row
func (v *Verifier) checkReferences(report *VerificationReport, column string, target model.TableMetadata, refs []int64, keys map[int64]struct{}) {
	var dangling int64
	for _, ref := range refs {
		if _, ok := keys[ref]; !ok {
			dangling++
		}
	}
	if dangling == 0 {
		return
	}

	report.Issues = append(report.Issues, IntegrityIssue{
		IssueType:    IssueForeignKeyViolation,
		Table:        model.SalesTable.Name,
		ColumnName:   column,
		Description:  fmt.Sprintf("References missing from %s", target.Name),
		AffectedRows: dangling,
	})
	v.logger.Warn("Referential integrity violation",
		zap.String("column", column),
		zap.String("target", target.Name),
		zap.Int64("affectedRows", dangling))
}

// checkNullConstraints verifies that a required text column has no blank values
func (v *Verifier) checkNullConstraints(report *VerificationReport, table model.TableMetadata, column string, values []string) {
	var blank int64
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			blank++
		}
	}
	if blank == 0 {
		return
	}

	report.Issues = append(report.Issues, IntegrityIssue{
		IssueType:    IssueNullViolation,
		Table:        table.Name,
		ColumnName:   column,
		Description:  "Non-nullable column contains empty values",
		AffectedRows: blank,
	})
	v.logger.Warn("NULL constraint violation",
		zap.String("table", table.Name),
		zap.String("column", column),
		zap.Int64("nullCount", blank))
}
