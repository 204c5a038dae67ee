// Package schema validates decoded JSON and YAML documents against embedded CUE
// definitions and reports violations with the dotted path of the offending field.
package schema
