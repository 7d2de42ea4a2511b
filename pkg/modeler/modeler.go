// pkg/modeler/modeler.go
package modeler

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/sales-etl/pkg/model"
)

// Modeler splits cleaned records into customer, product and store dimensions
// and a sales fact table
type Modeler struct {
	logger *zap.Logger
}

// NewModeler creates a Modeler
func NewModeler(logger *zap.Logger) *Modeler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Modeler{logger: logger}
}

// keyIndex hands out sequential surrogate keys from 1 in first-seen order
type keyIndex struct {
	ids   map[string]int64
	order []string
}

func newKeyIndex() *keyIndex {
	return &keyIndex{ids: make(map[string]int64)}
}

func (k *keyIndex) assign(value string) int64 {
	if id, ok := k.ids[value]; ok {
		return id
	}
	id := int64(len(k.order) + 1)
	k.ids[value] = id
	k.order = append(k.order, value)
	return id
}

// Model builds the output tables. Every record must be complete; a missing
// value is a schema error. The raw table is copied, never modified.
func (m *Modeler) Model(cleaned model.RecordSet, raw *model.RawTable) (*model.Tables, error) {
	if err := validate(cleaned); err != nil {
		return nil, err
	}

	customers := newKeyIndex()
	products := newKeyIndex()
	stores := newKeyIndex()
	categories := make(map[string]string)

	sales := make([]model.Sale, 0, len(cleaned))
	for _, r := range cleaned {
		productName, category := *r.ProductName, *r.ProductCategory
		if current, seen := categories[productName]; !seen || category < current {
			categories[productName] = category
		}

		sales = append(sales, model.Sale{
			TransactionID: *r.TransactionID,
			DayOfWeek:     *r.DayOfWeek,
			CustomerID:    customers.assign(*r.CustomerName),
			ProductID:     products.assign(productName),
			StoreID:       stores.assign(*r.StoreLocation),
			QuantitySold:  *r.QuantitySold,
			TotalSale:     *r.TotalSale,
			Price:         *r.Price,
		})
	}

	tables := &model.Tables{
		Customers: make([]model.Customer, len(customers.order)),
		Products:  make([]model.Product, len(products.order)),
		Stores:    make([]model.Store, len(stores.order)),
		Sales:     sales,
		Raw:       raw.Clone(),
	}
	for i, name := range customers.order {
		tables.Customers[i] = model.Customer{CustomerID: int64(i + 1), CustomerName: name}
	}
	for i, name := range products.order {
		tables.Products[i] = model.Product{ProductID: int64(i + 1), ProductName: name, ProductCategory: categories[name]}
	}
	for i, location := range stores.order {
		tables.Stores[i] = model.Store{StoreID: int64(i + 1), StoreLocation: location}
	}

	m.logger.Info("Modelled sales data",
		zap.Int("customers", len(tables.Customers)),
		zap.Int("products", len(tables.Products)),
		zap.Int("stores", len(tables.Stores)),
		zap.Int("sales", len(tables.Sales)),
		zap.Int("raw_rows", tables.Raw.Len()))

	return tables, nil
}

// validate rejects records missing any field the tables are built from
func validate(rs model.RecordSet) error {
	for i := range rs {
		if missing := rs[i].MissingColumns(); len(missing) > 0 {
			return &model.SchemaError{
				Table:  model.SalesTable.Name,
				Column: missing[0],
				Reason: fmt.Sprintf("missing value in record %s", rs[i].Identifier(i)),
			}
		}
	}
	return nil
}
