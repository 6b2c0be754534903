package erp

import (
	"errors"
	"strings"
)

// OdooConfig holds connection settings for the Odoo external API.
type OdooConfig struct {
	// URL is the server root, e.g. https://mycompany.odoo.com
	URL string
	// Database is the Odoo database name
	Database string
	// Login is the user the API key belongs to
	Login string
	// APIKey is used as the password for authenticate and execute_kw
	APIKey string
	// TimeoutSeconds bounds every RPC round trip
	TimeoutSeconds int
}

// DefaultOdooTimeoutSeconds is applied when TimeoutSeconds is unset.
const DefaultOdooTimeoutSeconds = 60

// Errors for Odoo configuration
var (
	ErrOdooConfigMissingURL      = errors.New("odoo: url is required")
	ErrOdooConfigMissingDatabase = errors.New("odoo: database is required")
	ErrOdooConfigMissingLogin    = errors.New("odoo: login is required")
	ErrOdooConfigMissingAPIKey   = errors.New("odoo: api key is required")
)

// Validate checks required fields and fills defaults. Surrounding whitespace
// in values copied from the environment is stripped.
func (c *OdooConfig) Validate() error {
	c.URL = strings.TrimRight(strings.TrimSpace(c.URL), "/")
	c.Database = strings.TrimSpace(c.Database)
	c.Login = strings.TrimSpace(c.Login)
	c.APIKey = strings.TrimSpace(c.APIKey)

	if c.URL == "" {
		return ErrOdooConfigMissingURL
	}
	if c.Database == "" {
		return ErrOdooConfigMissingDatabase
	}
	if c.Login == "" {
		return ErrOdooConfigMissingLogin
	}
	if c.APIKey == "" {
		return ErrOdooConfigMissingAPIKey
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = DefaultOdooTimeoutSeconds
	}
	return nil
}

// Endpoint returns the JSON-RPC endpoint.
func (c *OdooConfig) Endpoint() string {
	return c.URL + "/jsonrpc"
}
