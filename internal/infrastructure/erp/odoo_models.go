package erp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/erp/bridge/internal/domain/integration"
)

var _ integration.ERP = (*OdooClient)(nil)

// Search implements integration.ERP
func (c *OdooClient) Search(ctx context.Context, model string, domain integration.Domain, limit int) ([]int64, error) {
	var ids []int64
	if err := c.executeInto(ctx, &ids, model, "search", []any{domain}, limitKwargs(limit)); err != nil {
		return nil, err
	}
	return ids, nil
}

// SearchRead implements integration.ERP
func (c *OdooClient) SearchRead(ctx context.Context, model string, domain integration.Domain, fields []string, limit int) ([]integration.Record, error) {
	kwargs := limitKwargs(limit)
	kwargs["fields"] = fields

	var records []integration.Record
	if err := c.executeInto(ctx, &records, model, "search_read", []any{domain}, kwargs); err != nil {
		return nil, err
	}
	return records, nil
}

// Read implements integration.ERP
func (c *OdooClient) Read(ctx context.Context, model string, ids []int64, fields []string) ([]integration.Record, error) {
	var records []integration.Record
	if err := c.executeInto(ctx, &records, model, "read", []any{ids, fields}, nil); err != nil {
		return nil, err
	}
	return records, nil
}

// Create implements integration.ERP. Servers that answer a single create with
// a one-element id list are handled too.
func (c *OdooClient) Create(ctx context.Context, model string, values integration.Values) (int64, error) {
	raw, err := c.ExecuteKW(ctx, model, "create", []any{values}, nil)
	if err != nil {
		return 0, err
	}

	var id int64
	if err := json.Unmarshal(raw, &id); err == nil && id != 0 {
		return id, nil
	}
	var ids []int64
	if err := json.Unmarshal(raw, &ids); err == nil && len(ids) > 0 {
		return ids[0], nil
	}
	return 0, fmt.Errorf("%w: create %s returned %s", integration.ErrERPInvalidResponse, model, string(raw))
}

// Write implements integration.ERP
func (c *OdooClient) Write(ctx context.Context, model string, ids []int64, values integration.Values) error {
	_, err := c.ExecuteKW(ctx, model, "write", []any{ids, values}, nil)
	return err
}

// FieldsGet implements integration.ERP
func (c *OdooClient) FieldsGet(ctx context.Context, model string, fields []string) (map[string]integration.Record, error) {
	var descriptors map[string]integration.Record
	if err := c.executeInto(ctx, &descriptors, model, "fields_get", []any{fields}, nil); err != nil {
		return nil, err
	}
	return descriptors, nil
}

// ActionConfirm implements integration.ERP
func (c *OdooClient) ActionConfirm(ctx context.Context, model string, ids []int64) error {
	_, err := c.ExecuteKW(ctx, model, "action_confirm", []any{ids}, nil)
	return err
}

func (c *OdooClient) executeInto(ctx context.Context, out any, model, method string, args []any, kwargs map[string]any) error {
	raw, err := c.ExecuteKW(ctx, model, method, args, kwargs)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s.%s: %v", integration.ErrERPInvalidResponse, model, method, err)
	}
	return nil
}

func limitKwargs(limit int) map[string]any {
	kwargs := map[string]any{}
	if limit > 0 {
		kwargs["limit"] = limit
	}
	return kwargs
}
