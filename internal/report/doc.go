// Package report persists compliance snapshots and renders them for operators.
package report
