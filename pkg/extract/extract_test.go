package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/sales-etl/pkg/config"
	"github.com/David-Botos/sales-etl/pkg/model"
)

const sampleCSV = "transaction_id,day_of_week,product_name,product_category,price,quantity_sold,total_sale,store_location,customer_name\n" +
	"1,Monday,Apple Watch Ultra,Smartwatch,799.99,2,1599.98,Pretoria,Debby\n" +
	"2,,Widget,,,1,,Durban,Alan\n"

func mockarooConfig(url string) config.MockarooConfig {
	return config.MockarooConfig{
		URL:      url,
		APIKey:   "test-key",
		SchemaID: "0935e020",
		RowCount: 2,
		Timeout:  5 * time.Second,
	}
}

func TestMockarooSource_Extract(t *testing.T) {
	var gotPath, gotKey, gotCount string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		gotCount = r.URL.Query().Get("count")
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer server.Close()

	src := NewMockarooSource(mockarooConfig(server.URL+"/api/"), zap.NewNop())
	table, err := src.Extract(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/api/0935e020", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "2", gotCount)
	assert.Equal(t, model.RecordColumns, table.Columns)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, "Debby", table.Rows[0][8])
	assert.Equal(t, "", table.Rows[1][1])
	assert.Equal(t, config.SourceMockaroo, src.Name())
}

func TestMockarooSource_StatusError(t *testing.T) {
	tests := []struct {
		status    int
		temporary bool
	}{
		{http.StatusUnauthorized, false},
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer server.Close()

			_, err := NewMockarooSource(mockarooConfig(server.URL), nil).Extract(context.Background())
			require.Error(t, err)

			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, "nope", statusErr.Body)
			assert.Equal(t, tt.temporary, statusErr.Temporary())
		})
	}
}

func TestMockarooSource_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleCSV))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMockarooSource(mockarooConfig(server.URL), nil).Extract(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFileSource_Extract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	table, err := NewFileSource(path, nil).Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())

	_, err = NewFileSource(filepath.Join(t.TempDir(), "missing.csv"), nil).Extract(context.Background())
	assert.Error(t, err)
}

type fakeQuerier struct {
	query string
	err   error
}

func (f *fakeQuerier) BatchQuery(_ context.Context, query string, _ int, _ func(*sqlx.Rows) error) error {
	f.query = query
	return f.err
}

func TestSnowflakeSource(t *testing.T) {
	q := &fakeQuerier{}
	src := NewSnowflakeSource(q, "SALES.PUBLIC.RAW_SALES_DATA", nil)

	table, err := src.Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.RecordColumns, table.Columns)
	assert.Equal(t, 0, table.Len())
	assert.Equal(t,
		"SELECT TRANSACTION_ID, DAY_OF_WEEK, PRODUCT_NAME, PRODUCT_CATEGORY, PRICE, QUANTITY_SOLD, TOTAL_SALE, STORE_LOCATION, CUSTOMER_NAME "+
			"FROM SALES.PUBLIC.RAW_SALES_DATA ORDER BY TRANSACTION_ID",
		q.query)

	q.err = errors.New("warehouse suspended")
	_, err = src.Extract(context.Background())
	assert.ErrorContains(t, err, "warehouse suspended")
}

func TestCells(t *testing.T) {
	assert.Equal(t,
		[]string{"1", "", "Widget", "9.5"},
		cells([]interface{}{int64(1), nil, []byte("Widget"), 9.5}))
}
