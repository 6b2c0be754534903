package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/erp/bridge/internal/domain/integration"
)

func strPtr(s string) *string { return &s }

func byEmail(email string) integration.Domain {
	return integration.Domain{integration.Eq("email", email)}
}

func TestPartnerResolver_ExistingPartnerIsReused(t *testing.T) {
	erp := new(MockERP)
	erp.On("Search", mock.Anything, integration.ModelPartner, byEmail("a@b.com"), 1).
		Return([]int64{9}, nil)

	resolver := NewPartnerResolver(erp, nil, zap.NewNop())
	id, err := resolver.EnsurePartner(context.Background(), &integration.OrderPayload{
		ID:      "42",
		Billing: &integration.Billing{Email: "a@b.com", FirstName: "Changed"},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(9), id)
	erp.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	erp.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPartnerResolver_CreatesWithBillingFields(t *testing.T) {
	erp := new(MockERP)
	erp.On("Search", mock.Anything, integration.ModelPartner, byEmail("a@b.com"), 1).
		Return([]int64{}, nil)
	erp.On("Create", mock.Anything, integration.ModelPartner, integration.Values{
		"name":    "Ada Lovelace",
		"email":   "a@b.com",
		"phone":   "555",
		"street":  "1 Main St",
		"street2": "",
		"city":    nil,
		"zip":     nil,
	}).Return(int64(12), nil)

	resolver := NewPartnerResolver(erp, nil, zap.NewNop())
	id, err := resolver.EnsurePartner(context.Background(), &integration.OrderPayload{
		ID: "42",
		Billing: &integration.Billing{
			FirstName: " Ada",
			LastName:  "Lovelace ",
			Email:     "a@b.com",
			Phone:     strPtr("555"),
			Address1:  strPtr("1 Main St"),
			Address2:  strPtr(""),
		},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(12), id)
	erp.AssertExpectations(t)
}

func TestPartnerResolver_GuestEmail(t *testing.T) {
	tests := []struct {
		name    string
		billing *integration.Billing
	}{
		{"no billing block", nil},
		{"empty email", &integration.Billing{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			erp := new(MockERP)
			email := "guest+77@example.com"
			erp.On("Search", mock.Anything, integration.ModelPartner, byEmail(email), 1).
				Return([]int64{}, nil).Once()
			erp.On("Create", mock.Anything, integration.ModelPartner, mock.MatchedBy(func(v integration.Values) bool {
				return v["email"] == email && v["name"] == email && v["phone"] == nil
			})).Return(int64(3), nil).Once()

			resolver := NewPartnerResolver(erp, nil, zap.NewNop())
			id, err := resolver.EnsurePartner(context.Background(), &integration.OrderPayload{ID: "77", Billing: tt.billing})

			require.NoError(t, err)
			assert.Equal(t, int64(3), id)
			erp.AssertExpectations(t)
		})
	}
}

func TestPartnerResolver_SearchFailurePropagates(t *testing.T) {
	erp := new(MockERP)
	erp.On("Search", mock.Anything, integration.ModelPartner, mock.Anything, 1).
		Return(nil, integration.ErrERPUnavailable)

	resolver := NewPartnerResolver(erp, nil, zap.NewNop())
	_, err := resolver.EnsurePartner(context.Background(), &integration.OrderPayload{ID: "1"})

	assert.ErrorIs(t, err, integration.ErrERPUnavailable)
}

func byCode(field, sku string) integration.Domain {
	return integration.Domain{integration.Eq(field, sku)}
}

func TestProductResolver_CodeHitSkipsBarcode(t *testing.T) {
	erp := new(MockERP)
	erp.On("Search", mock.Anything, integration.ModelProduct, byCode("default_code", "X1"), 1).
		Return([]int64{5}, nil)

	resolver := NewProductResolver(erp, nil, zap.NewNop())
	id, err := resolver.EnsureProduct(context.Background(), integration.LineItem{SKU: "X1"})

	require.NoError(t, err)
	assert.Equal(t, int64(5), id)
	erp.AssertNumberOfCalls(t, "Search", 1)
	erp.AssertNotCalled(t, "Search", mock.Anything, integration.ModelProduct, byCode("barcode", "X1"), 1)
}

func TestProductResolver_BarcodeFallback(t *testing.T) {
	erp := new(MockERP)
	erp.On("Search", mock.Anything, integration.ModelProduct, byCode("default_code", "400123"), 1).
		Return([]int64{}, nil)
	erp.On("Search", mock.Anything, integration.ModelProduct, byCode("barcode", "400123"), 1).
		Return([]int64{8}, nil)

	resolver := NewProductResolver(erp, nil, zap.NewNop())
	id, err := resolver.EnsureProduct(context.Background(), integration.LineItem{SKU: "400123"})

	require.NoError(t, err)
	assert.Equal(t, int64(8), id)
	erp.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func expectProductMiss(erp *MockERP, sku string) {
	erp.On("Search", mock.Anything, integration.ModelProduct, byCode("default_code", sku), 1).Return([]int64{}, nil)
	erp.On("Search", mock.Anything, integration.ModelProduct, byCode("barcode", sku), 1).Return([]int64{}, nil)
}

func expectVariantRead(erp *MockERP, templateID, variantID int64) {
	erp.On("Read", mock.Anything, integration.ModelProductTemplate, []int64{templateID}, []string{"product_variant_id"}).
		Return([]integration.Record{{"id": float64(templateID), "product_variant_id": []any{float64(variantID), "Widget"}}}, nil)
}

func TestProductResolver_CreatesTemplate(t *testing.T) {
	erp := new(MockERP)
	expectProductMiss(erp, "X1")
	erp.On("Create", mock.Anything, integration.ModelProductTemplate, integration.Values{
		"name":         "Widget",
		"default_code": "X1",
		"list_price":   9.5,
		"sale_ok":      true,
		"purchase_ok":  false,
	}).Return(int64(30), nil)
	erp.On("FieldsGet", mock.Anything, integration.ModelProductTemplate, []string{"type", "detailed_type"}).
		Return(map[string]integration.Record{
			"detailed_type": {"type": "selection"},
			"type":          {"type": "selection"},
		}, nil)
	erp.On("Write", mock.Anything, integration.ModelProductTemplate, []int64{30}, integration.Values{"type": "product"}).
		Return(nil)
	expectVariantRead(erp, 30, 31)

	resolver := NewProductResolver(erp, nil, zap.NewNop())
	id, err := resolver.EnsureProduct(context.Background(), integration.LineItem{
		SKU:   "X1",
		Name:  "Widget",
		Price: integration.RawNumeric("9.5"),
	})

	require.NoError(t, err)
	assert.Equal(t, int64(31), id)
	erp.AssertExpectations(t)
}

func TestProductResolver_FallbackNameAndDetailedType(t *testing.T) {
	erp := new(MockERP)
	expectProductMiss(erp, "55")
	erp.On("Create", mock.Anything, integration.ModelProductTemplate, mock.MatchedBy(func(v integration.Values) bool {
		return v["name"] == "Woo product 55" && v["default_code"] == "55" && v["list_price"] == 0.0
	})).Return(int64(40), nil)
	erp.On("FieldsGet", mock.Anything, integration.ModelProductTemplate, mock.Anything).
		Return(map[string]integration.Record{"detailed_type": {"type": "selection"}}, nil)
	erp.On("Write", mock.Anything, integration.ModelProductTemplate, []int64{40}, integration.Values{"detailed_type": "product"}).
		Return(nil)
	expectVariantRead(erp, 40, 41)

	resolver := NewProductResolver(erp, nil, zap.NewNop())
	id, err := resolver.EnsureProduct(context.Background(), integration.LineItem{ProductID: "55"})

	require.NoError(t, err)
	assert.Equal(t, int64(41), id)
	erp.AssertExpectations(t)
}

func TestProductResolver_ProbeFailureIsSwallowed(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	erp := new(MockERP)
	expectProductMiss(erp, "X2")
	erp.On("Create", mock.Anything, integration.ModelProductTemplate, mock.Anything).Return(int64(50), nil)
	erp.On("FieldsGet", mock.Anything, integration.ModelProductTemplate, mock.Anything).
		Return(nil, errors.New("access denied on fields_get"))
	expectVariantRead(erp, 50, 51)

	resolver := NewProductResolver(erp, nil, zap.New(core))
	id, err := resolver.EnsureProduct(context.Background(), integration.LineItem{SKU: "X2"})

	require.NoError(t, err)
	assert.Equal(t, int64(51), id)
	erp.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, 1, logs.FilterMessage("Stock type probe failed").Len())
}

func TestProductResolver_StockTypeWriteFailureIsSwallowed(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	erp := new(MockERP)
	expectProductMiss(erp, "X3")
	erp.On("Create", mock.Anything, integration.ModelProductTemplate, mock.Anything).Return(int64(60), nil)
	erp.On("FieldsGet", mock.Anything, integration.ModelProductTemplate, mock.Anything).
		Return(map[string]integration.Record{"type": {}}, nil)
	erp.On("Write", mock.Anything, integration.ModelProductTemplate, []int64{60}, mock.Anything).
		Return(errors.New("wrong value for type"))
	expectVariantRead(erp, 60, 61)

	resolver := NewProductResolver(erp, nil, zap.New(core))
	id, err := resolver.EnsureProduct(context.Background(), integration.LineItem{SKU: "X3"})

	require.NoError(t, err)
	assert.Equal(t, int64(61), id)
	assert.Equal(t, 1, logs.FilterMessage("Failed to set product stock type").Len())
}

func TestProductResolver_NoStockTypeFieldSkipsWrite(t *testing.T) {
	erp := new(MockERP)
	expectProductMiss(erp, "X4")
	erp.On("Create", mock.Anything, integration.ModelProductTemplate, mock.Anything).Return(int64(70), nil)
	erp.On("FieldsGet", mock.Anything, integration.ModelProductTemplate, mock.Anything).
		Return(map[string]integration.Record{}, nil)
	expectVariantRead(erp, 70, 71)

	resolver := NewProductResolver(erp, nil, zap.NewNop())
	_, err := resolver.EnsureProduct(context.Background(), integration.LineItem{SKU: "X4"})

	require.NoError(t, err)
	erp.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProductResolver_MissingVariant(t *testing.T) {
	erp := new(MockERP)
	expectProductMiss(erp, "X5")
	erp.On("Create", mock.Anything, integration.ModelProductTemplate, mock.Anything).Return(int64(80), nil)
	erp.On("FieldsGet", mock.Anything, integration.ModelProductTemplate, mock.Anything).
		Return(map[string]integration.Record{}, nil)
	erp.On("Read", mock.Anything, integration.ModelProductTemplate, []int64{80}, mock.Anything).
		Return([]integration.Record{{"id": float64(80), "product_variant_id": false}}, nil)

	resolver := NewProductResolver(erp, nil, zap.NewNop())
	_, err := resolver.EnsureProduct(context.Background(), integration.LineItem{SKU: "X5"})

	assert.ErrorIs(t, err, integration.ErrProductVariantNotFound)
}

func TestStockTypeProbe_Detect(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]integration.Record
		want   string
		wantOK bool
	}{
		{"prefers type", map[string]integration.Record{"type": {}, "detailed_type": {}}, "type", true},
		{"detailed type only", map[string]integration.Record{"detailed_type": {}}, "detailed_type", true},
		{"neither", map[string]integration.Record{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			erp := new(MockERP)
			erp.On("FieldsGet", mock.Anything, integration.ModelProductTemplate, []string{"type", "detailed_type"}).
				Return(tt.fields, nil)

			field, ok, err := NewStockTypeProbe(erp).Detect(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, field)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}
