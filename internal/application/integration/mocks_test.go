package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/erp/bridge/internal/domain/integration"
)

// MockERP is a mock implementation of integration.ERP
type MockERP struct {
	mock.Mock
}

func (m *MockERP) Search(ctx context.Context, model string, domain integration.Domain, limit int) ([]int64, error) {
	args := m.Called(ctx, model, domain, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockERP) SearchRead(ctx context.Context, model string, domain integration.Domain, fields []string, limit int) ([]integration.Record, error) {
	args := m.Called(ctx, model, domain, fields, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.Record), args.Error(1)
}

func (m *MockERP) Read(ctx context.Context, model string, ids []int64, fields []string) ([]integration.Record, error) {
	args := m.Called(ctx, model, ids, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.Record), args.Error(1)
}

func (m *MockERP) Create(ctx context.Context, model string, values integration.Values) (int64, error) {
	args := m.Called(ctx, model, values)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockERP) Write(ctx context.Context, model string, ids []int64, values integration.Values) error {
	args := m.Called(ctx, model, ids, values)
	return args.Error(0)
}

func (m *MockERP) FieldsGet(ctx context.Context, model string, fields []string) (map[string]integration.Record, error) {
	args := m.Called(ctx, model, fields)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]integration.Record), args.Error(1)
}

func (m *MockERP) ActionConfirm(ctx context.Context, model string, ids []int64) error {
	args := m.Called(ctx, model, ids)
	return args.Error(0)
}

// MockStorefront is a mock implementation of integration.Storefront
type MockStorefront struct {
	mock.Mock
}

func (m *MockStorefront) FindProductsBySKU(ctx context.Context, sku string) ([]integration.StorefrontProduct, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.StorefrontProduct), args.Error(1)
}

func (m *MockStorefront) UpdateProductStock(ctx context.Context, productID int64, quantity int64) error {
	args := m.Called(ctx, productID, quantity)
	return args.Error(0)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// memoryJournal is an in-memory integration.OrderSyncRecordRepository
type memoryJournal struct {
	mu      sync.Mutex
	records []integration.OrderSyncRecord
}

func (j *memoryJournal) Save(_ context.Context, record *integration.OrderSyncRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, *record)
	return nil
}

func (j *memoryJournal) FindLatestByExternalRef(_ context.Context, ref string) (*integration.OrderSyncRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := len(j.records) - 1; i >= 0; i-- {
		if j.records[i].ExternalRef == ref {
			r := j.records[i]
			return &r, nil
		}
	}
	return nil, integration.ErrSyncRecordNotFound
}

func (j *memoryJournal) List(_ context.Context, _ integration.OrderSyncRecordFilter) ([]integration.OrderSyncRecord, int64, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := append([]integration.OrderSyncRecord(nil), j.records...)
	return out, int64(len(out)), nil
}

func (j *memoryJournal) statuses() []integration.SyncStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]integration.SyncStatus, len(j.records))
	for i, r := range j.records {
		out[i] = r.Status
	}
	return out
}

// fakeERP is a small in-memory ERP. Search matches equality conditions,
// creating a product.template also creates its variant, and every call is
// counted per "model.method".
type fakeERP struct {
	mu          sync.Mutex
	nextID      int64
	rows        map[string]map[int64]integration.Values
	calls       map[string]int
	stockFields map[string]integration.Record
	// beforeCreate, when set, runs before every create
	beforeCreate func(model string)
}

func newFakeERP() *fakeERP {
	return &fakeERP{
		nextID:      100,
		rows:        make(map[string]map[int64]integration.Values),
		calls:       make(map[string]int),
		stockFields: map[string]integration.Record{"type": {"type": "selection"}},
	}
}

func (f *fakeERP) count(model, method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[model+"."+method]
}

func (f *fakeERP) row(model string, id int64) integration.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[model][id]
}

func (f *fakeERP) insert(model string, values integration.Values) int64 {
	if f.rows[model] == nil {
		f.rows[model] = make(map[int64]integration.Values)
	}
	f.nextID++
	copied := integration.Values{}
	for k, v := range values {
		copied[k] = v
	}
	f.rows[model][f.nextID] = copied
	return f.nextID
}

func (f *fakeERP) match(model string, domain integration.Domain) []int64 {
	var ids []int64
	for id := int64(0); id <= f.nextID; id++ {
		row, ok := f.rows[model][id]
		if !ok {
			continue
		}
		matched := true
		for _, c := range domain {
			if row[c.Field] != c.Value {
				matched = false
				break
			}
		}
		if matched {
			ids = append(ids, id)
		}
	}
	return ids
}

func (f *fakeERP) Search(_ context.Context, model string, domain integration.Domain, limit int) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[model+".search"]++
	ids := f.match(model, domain)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (f *fakeERP) SearchRead(_ context.Context, model string, domain integration.Domain, fields []string, limit int) ([]integration.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[model+".search_read"]++
	var out []integration.Record
	for _, id := range f.match(model, domain) {
		rec := integration.Record{"id": float64(id)}
		for _, field := range fields {
			if v, ok := f.rows[model][id][field]; ok {
				rec[field] = v
			}
		}
		out = append(out, rec)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeERP) Read(_ context.Context, model string, ids []int64, fields []string) ([]integration.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[model+".read"]++
	var out []integration.Record
	for _, id := range ids {
		row, ok := f.rows[model][id]
		if !ok {
			continue
		}
		rec := integration.Record{"id": float64(id)}
		for _, field := range fields {
			rec[field] = row[field]
		}
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeERP) Create(_ context.Context, model string, values integration.Values) (int64, error) {
	if f.beforeCreate != nil {
		f.beforeCreate(model)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[model+".create"]++
	id := f.insert(model, values)
	if model == integration.ModelProductTemplate {
		variant := f.insert(integration.ModelProduct, integration.Values{
			"default_code": values["default_code"],
			"sale_ok":      values["sale_ok"],
		})
		f.rows[model][id]["product_variant_id"] = []any{float64(variant), values["name"]}
	}
	return id, nil
}

func (f *fakeERP) Write(_ context.Context, model string, ids []int64, values integration.Values) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[model+".write"]++
	for _, id := range ids {
		row, ok := f.rows[model][id]
		if !ok {
			return fmt.Errorf("%s %d does not exist", model, id)
		}
		for k, v := range values {
			row[k] = v
		}
	}
	return nil
}

func (f *fakeERP) FieldsGet(_ context.Context, model string, fields []string) (map[string]integration.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[model+".fields_get"]++
	out := make(map[string]integration.Record)
	for _, name := range fields {
		if desc, ok := f.stockFields[name]; ok {
			out[name] = desc
		}
	}
	return out, nil
}

func (f *fakeERP) ActionConfirm(_ context.Context, model string, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[model+".action_confirm"]++
	for _, id := range ids {
		if row, ok := f.rows[model][id]; ok {
			row["state"] = "sale"
		}
	}
	return nil
}

var (
	_ integration.ERP                       = (*MockERP)(nil)
	_ integration.ERP                       = (*fakeERP)(nil)
	_ integration.Storefront                = (*MockStorefront)(nil)
	_ integration.OrderSyncRecordRepository = (*memoryJournal)(nil)
)
