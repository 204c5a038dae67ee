// Package drift compares a canonical file with a local copy by content fingerprint.
package drift
