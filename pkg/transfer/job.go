package transfer

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/David-Botos/sales-etl/pkg/model"
)

// Fixed staging destinations per output table
var destinations = map[string]string{
	model.CustomersTable.Name: "transformed_data/customers.csv",
	model.ProductsTable.Name:  "transformed_data/products.csv",
	model.StoresTable.Name:    "transformed_data/stores.csv",
	model.SalesTable.Name:     "transformed_data/sales.csv",
	model.RawSalesTable.Name:  "raw_data/raw_sales_data.csv",
}

// DestinationKey returns the object key a table is staged under
func DestinationKey(table string) (string, error) {
	key, ok := destinations[table]
	if !ok {
		return "", fmt.Errorf("no staging destination for table %q", table)
	}
	return key, nil
}

// UploadJob stages one encoded table
type UploadJob struct {
	ID          string    // Unique job identifier
	Table       string    // Output table name
	Key         string    // Destination object key
	ContentType string    // MIME type of the body
	Body        []byte    // Encoded table
	Rows        int       // Data rows in Body
	CreatedAt   time.Time // Job creation timestamp
}

// NewUploadJob creates a job for table with defaults
func NewUploadJob(table, key string, body []byte, rows int) UploadJob {
	return UploadJob{
		ID:          uuid.New().String(),
		Table:       table,
		Key:         key,
		ContentType: "text/csv",
		Body:        body,
		Rows:        rows,
		CreatedAt:   time.Now(),
	}
}

// WithContentType sets the content type and returns the modified job
func (j UploadJob) WithContentType(contentType string) UploadJob {
	j.ContentType = contentType
	return j
}

// UploadResult represents the outcome of one upload job
type UploadResult struct {
	JobID     string
	Table     string
	Key       string
	Location  string
	Success   bool
	Rows      int
	Bytes     int64
	Attempts  int
	Err       error
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// NewUploadResult initializes a result for a job
func NewUploadResult(job UploadJob) *UploadResult {
	return &UploadResult{
		JobID:     job.ID,
		Table:     job.Table,
		Key:       job.Key,
		Rows:      job.Rows,
		Bytes:     int64(len(job.Body)),
		StartTime: time.Now(),
	}
}

// Complete marks the upload as finished and calculates duration
func (r *UploadResult) Complete(err error) {
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
	r.Err = err
	r.Success = err == nil
}

// StageResult represents the outcome of staging every table
type StageResult struct {
	Uploads   []UploadResult
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Complete marks staging as finished and calculates duration
func (s *StageResult) Complete() {
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
}

// LandedKeys returns the keys of successful uploads in job order
func (s *StageResult) LandedKeys() []string {
	keys := make([]string, 0, len(s.Uploads))
	for _, u := range s.Uploads {
		if u.Success {
			keys = append(keys, u.Key)
		}
	}
	return keys
}

// TotalBytes returns the number of bytes uploaded successfully
func (s *StageResult) TotalBytes() int64 {
	var total int64
	for _, u := range s.Uploads {
		if u.Success {
			total += u.Bytes
		}
	}
	return total
}

// Failed returns the uploads that did not land
func (s *StageResult) Failed() []UploadResult {
	var failed []UploadResult
	for _, u := range s.Uploads {
		if !u.Success {
			failed = append(failed, u)
		}
	}
	return failed
}
