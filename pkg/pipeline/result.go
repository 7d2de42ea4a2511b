package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/David-Botos/sales-etl/pkg/loader"
	"github.com/David-Botos/sales-etl/pkg/transfer"
)

// Stage names, in execution order
const (
	StageExtract = "extract"
	StageClean   = "clean"
	StageModel   = "model"
	StageVerify  = "verify"
	StageUpload  = "stage"
	StageTrigger = "trigger"
	StageAudit   = "audit"
)

var stageOrder = []string{StageExtract, StageClean, StageModel, StageVerify, StageUpload, StageTrigger, StageAudit}

// Result is the single outcome of a run. A run either succeeds as a whole
// or fails; FailedStage and Err say where and why.
type Result struct {
	RunID          string
	Success        bool
	Message        string
	Elapsed        time.Duration
	StageDurations map[string]time.Duration
	RowsExtracted  int
	RowsCleaned    int
	RowsDropped    int
	TableRows      map[string]int
	LandedKeys     []string
	LoaderResponse *loader.Response
	FailedStage    string
	Err            error
}

func newResult(runID string) *Result {
	return &Result{
		RunID:          runID,
		StageDurations: make(map[string]time.Duration, len(stageOrder)),
	}
}

// Category classifies the failure, or ErrorCategoryNone on success
func (r *Result) Category() transfer.ErrorCategory {
	return transfer.Categorize(r.Err)
}

// Summary renders a human readable account of the run
func (r *Result) Summary() string {
	var sb strings.Builder

	if r.Success {
		fmt.Fprintf(&sb, "Run %s succeeded in %s\n", r.RunID, transfer.FormatDuration(r.Elapsed))
	} else {
		fmt.Fprintf(&sb, "Run %s failed at %s after %s (%s): %v\n",
			r.RunID, r.FailedStage, transfer.FormatDuration(r.Elapsed), r.Category(), r.Err)
	}

	fmt.Fprintf(&sb, "Rows: %d extracted, %d cleaned, %d dropped\n",
		r.RowsExtracted, r.RowsCleaned, r.RowsDropped)

	if len(r.TableRows) > 0 {
		sb.WriteString("Tables:")
		for _, name := range []string{"customers", "products", "stores", "sales", "raw_sales_data"} {
			if n, ok := r.TableRows[name]; ok {
				fmt.Fprintf(&sb, " %s=%d", name, n)
			}
		}
		sb.WriteString("\n")
	}

	if len(r.LandedKeys) > 0 {
		fmt.Fprintf(&sb, "Staged: %s\n", strings.Join(r.LandedKeys, ", "))
	}

	if r.LoaderResponse != nil {
		fmt.Fprintf(&sb, "Loader: %s (status %d)\n", r.LoaderResponse.Target, r.LoaderResponse.StatusCode)
	}

	sb.WriteString("Stages:")
	for _, stage := range stageOrder {
		if d, ok := r.StageDurations[stage]; ok {
			fmt.Fprintf(&sb, " %s=%s", stage, transfer.FormatDuration(d))
		}
	}
	sb.WriteString("\n")

	return sb.String()
}
