// Package scanner enumerates the canon documents present in a repository and fingerprints them.
package scanner
