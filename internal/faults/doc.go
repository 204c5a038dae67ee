// Package faults defines the input failure taxonomy shared by the catalog loader,
// the local scanner, and the fingerprinting helpers: NotFound, Malformed, and IOFailure.
package faults
