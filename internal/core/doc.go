// Package core builds traceability event contexts from spreadsheet records.
//
// This package holds all domain logic independent of file formats and the
// command line. It can be used by the CLI, other tools, or tests without
// modification.
//
// # Simple events
//
// [Service.Simple] turns every record into its own [Context]: the event time
// is read from the Date and Time fields, items and locations are resolved to
// identifier strings, and order numbers become business transaction URNs.
//
// # Transformation events
//
// [Service.Transform] synthesizes one context per purchase order from two
// record sets:
//
//  1. "To" records (e.g. production completions) are grouped by purchase order.
//  2. [Service.BuildIntervals] gives every order the time span (prev, end],
//     where end is its latest to-timestamp and prev the previous order's end.
//     The first span is open in the past, the last open in the future.
//  3. [Service.AssignRows] places every "from" record (e.g. material
//     consumption, usually untagged) in the order whose span holds its time.
//  4. [Service.Merge] folds each group into one context: items and locations
//     accumulate, shelf-life dates keep the earliest value, and categorical
//     fields must agree across the group.
//
// # Error Handling
//
// Nothing in this package fails a batch. Unknown codes, missing times,
// conflicting values and unplaceable rows are logged and counted in the
// metrics registry; the affected value is simply null, or the row dropped.
package core
