// Package integration contains the storefront/ERP integration bounded context.
//
// Key concepts:
//   - OrderPayload: an order as delivered by the storefront webhook
//   - MapSaleLine: pure normalization of one line item into sale-line fields
//   - ERP: port for the back-office ERP object API (search/create/write/read)
//   - Storefront: port for the storefront catalog API used by stock sync
//   - OrderSyncRecord: journal entry describing one order sync attempt
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) live in the infrastructure layer
package integration
