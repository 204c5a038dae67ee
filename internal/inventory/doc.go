// Package inventory models the central canon inventory and loads it from disk.
//
// Loader accepts JSON (or YAML) catalogs, validates their structure against an
// embedded CUE schema, and decodes them into CanonRecord values. Failures are
// reported through the faults taxonomy so callers can abort before reconciling.
package inventory
