// Package fingerprint computes SHA-256 content fingerprints of canon documents.
//
// Hasher streams files in fixed 4096-byte blocks and truncates digests to the
// twelve-character prefix shared by the central inventory and local scans. The
// package also exposes the canon-hash command.
package fingerprint
