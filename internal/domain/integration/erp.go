package integration

import (
	"context"
	"encoding/json"
	"strconv"
)

// ERP model names used by the bridge.
const (
	ModelPartner         = "res.partner"
	ModelProduct         = "product.product"
	ModelProductTemplate = "product.template"
	ModelSaleOrder       = "sale.order"
)

// ERP is the port to the back-office ERP object API. Implementations own
// authentication and session handling.
type ERP interface {
	Search(ctx context.Context, model string, domain Domain, limit int) ([]int64, error)
	SearchRead(ctx context.Context, model string, domain Domain, fields []string, limit int) ([]Record, error)
	Read(ctx context.Context, model string, ids []int64, fields []string) ([]Record, error)
	Create(ctx context.Context, model string, values Values) (int64, error)
	Write(ctx context.Context, model string, ids []int64, values Values) error
	// FieldsGet returns the field descriptors of model, restricted to fields.
	// Unknown field names are simply absent from the result.
	FieldsGet(ctx context.Context, model string, fields []string) (map[string]Record, error)
	ActionConfirm(ctx context.Context, model string, ids []int64) error
}

// ---------------------------------------------------------------------------
// Domain filters
// ---------------------------------------------------------------------------

// Condition is one (field, operator, value) term of a search domain.
type Condition struct {
	Field    string
	Operator string
	Value    any
}

// Eq builds an equality condition.
func Eq(field string, value any) Condition {
	return Condition{Field: field, Operator: "=", Value: value}
}

// MarshalJSON encodes the condition as a 3-element array.
func (c Condition) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.Field, c.Operator, c.Value})
}

// Domain is a conjunction of conditions.
type Domain []Condition

// MarshalJSON encodes a nil domain as an empty list.
func (d Domain) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Condition(d))
}

// Values is a field map for create/write.
type Values map[string]any

// LineCommand is an x2many "create" command: (0, 0, values).
type LineCommand struct {
	Values Values
}

// MarshalJSON implements json.Marshaler.
func (c LineCommand) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{0, 0, c.Values})
}

// ---------------------------------------------------------------------------
// Records
// ---------------------------------------------------------------------------

// Record is a row returned by read/search_read. The ERP encodes empty values
// as false, so accessors treat false as absent.
type Record map[string]any

// ID returns the "id" field.
func (r Record) ID() int64 {
	id, _ := r.Int64("id")
	return id
}

// Int64 returns a numeric field as int64.
func (r Record) Int64(field string) (int64, bool) {
	return toInt64(r[field])
}

// Float returns a numeric field, or 0.
func (r Record) Float(field string) float64 {
	switch v := r[field].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case json.Number:
		f, _ := v.Float64()
		return f
	}
	return 0
}

// String returns a text field, or "" when it is false or missing.
func (r Record) String(field string) string {
	if s, ok := r[field].(string); ok {
		return s
	}
	return ""
}

// Many2OneID returns the id half of a many2one [id, display_name] pair.
func (r Record) Many2OneID(field string) (int64, bool) {
	pair, ok := r[field].([]any)
	if !ok || len(pair) == 0 {
		return 0, false
	}
	return toInt64(pair[0])
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return i, true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	}
	return 0, false
}
