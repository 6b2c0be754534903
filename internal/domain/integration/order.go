package integration

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	// ExternalRefPrefix prefixes storefront order ids in the ERP's
	// client_order_ref field.
	ExternalRefPrefix = "WOO-"
	// OrderOrigin is written to the ERP sale order origin field.
	OrderOrigin = "WooCommerce"
)

// OrderPayload is an order delivered by the storefront webhook.
type OrderPayload struct {
	ID        ExternalID `json:"id"`
	Billing   *Billing   `json:"billing"`
	LineItems []LineItem `json:"line_items"`
}

// UnmarshalJSON treats any non-object billing value as absent. PHP encodes an
// empty associative array as [], so "billing":[] means a guest order.
func (o *OrderPayload) UnmarshalJSON(data []byte) error {
	type plain OrderPayload
	aux := struct {
		*plain
		Billing json.RawMessage `json:"billing"`
	}{plain: (*plain)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	o.Billing = nil
	raw := bytes.TrimSpace(aux.Billing)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var billing Billing
	if err := json.Unmarshal(raw, &billing); err != nil {
		return err
	}
	o.Billing = &billing
	return nil
}

// ExternalRef returns the reference used to find the order in the ERP.
func (o *OrderPayload) ExternalRef() string {
	return ExternalRefPrefix + o.ID.String()
}

// Validate checks the minimum the sync needs: an order id.
func (o *OrderPayload) Validate() error {
	if o.ID.IsZero() {
		return ErrOrderSyncInvalidOrder
	}
	return nil
}

// Billing is the optional billing block of an order. Pointer fields are
// copied to the ERP verbatim, so absence is kept distinct from "".
type Billing struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone"`
	Address1  *string `json:"address_1"`
	Address2  *string `json:"address_2"`
	City      *string `json:"city"`
	Postcode  *string `json:"postcode"`
}

// FullName joins first and last name, trimmed.
func (b *Billing) FullName() string {
	if b == nil {
		return ""
	}
	return strings.TrimSpace(b.FirstName + " " + b.LastName)
}

// LineItem is one line of an order.
type LineItem struct {
	SKU       string     `json:"sku"`
	ProductID ExternalID `json:"product_id"`
	Name      string     `json:"name"`
	Quantity  Numeric    `json:"quantity"`
	Price     Numeric    `json:"price"`
}

// ---------------------------------------------------------------------------
// Lenient scalar types
// ---------------------------------------------------------------------------

// ExternalID is an identifier the storefront may send either as a JSON number
// or a JSON string. It keeps the literal text of either form.
type ExternalID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ExternalID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte("false")):
		*id = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ExternalID(strings.TrimSpace(s))
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*id = ExternalID(n.String())
		return nil
	}
}

func (id ExternalID) String() string { return string(id) }

// IsZero reports whether no identifier was supplied.
func (id ExternalID) IsZero() bool { return id == "" }

// Numeric holds a raw JSON value that should be a number. Decoding never
// fails; interpretation happens in Decimal so malformed values can fall back
// to defaults.
type Numeric struct {
	raw json.RawMessage
}

// RawNumeric wraps a JSON literal, e.g. RawNumeric(`2`) or RawNumeric(`"9.50"`).
func RawNumeric(literal string) Numeric {
	return Numeric{raw: json.RawMessage(literal)}
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Numeric) UnmarshalJSON(data []byte) error {
	n.raw = append(n.raw[:0], data...)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (n Numeric) MarshalJSON() ([]byte, error) {
	if len(n.raw) == 0 {
		return []byte("null"), nil
	}
	return n.raw, nil
}

// Decimal parses the value. ok is false when the value is missing, null,
// boolean, non-numeric, zero, or has no finite non-zero float64 form.
func (n Numeric) Decimal() (d decimal.Decimal, ok bool) {
	raw := bytes.TrimSpace(n.raw)
	if len(raw) == 0 {
		return decimal.Zero, false
	}

	text := string(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return decimal.Zero, false
		}
		text = strings.TrimSpace(s)
	}

	d, err := decimal.NewFromString(text)
	if err != nil || d.IsZero() {
		return decimal.Zero, false
	}
	if f := d.InexactFloat64(); f == 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return decimal.Zero, false
	}
	return d, true
}
