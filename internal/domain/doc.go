// Package domain defines the core business types for the phishing campaign
// metrics service.
//
// Types in this package are pure value objects with no behavior, no I/O and no
// HTTP concerns. They are the shared language between the Gophish client, the
// normalizer, the filter and KPI packages, and the API.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON/CSV tags are allowed (they're metadata, not behavior)
//   - Validation methods are allowed (they're pure functions on the type)
//   - Constants and enums belong here
package domain
