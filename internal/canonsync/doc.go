// Package canonsync implements the canon-sync command.
//
// Service loads the central canon inventory, scans the local canon directory, reconciles
// both into a compliance snapshot, persists it and prints the compliance report. The
// CommandBuilder resolves flags and configuration into Service options.
package canonsync
