package report

import (
	"math"
	"strconv"
	"strings"

	"github.com/temirov/canonsync/internal/reconcile"
)

const (
	// DefaultSnapshotFileNameConstant names the compliance snapshot written to a repository root.
	DefaultSnapshotFileNameConstant = "GOVERNANCE_ALIGNMENT_INVENTORY.json"
	// SyncDateLayoutConstant renders the sync date of a snapshot.
	SyncDateLayoutConstant = "2006-01-02"

	percentageFormatConstant      = 'f'
	percentageBitSizeConstant     = 64
	percentageShortestPrecision   = -1
	decimalSeparatorConstant      = "."
	wholePercentageSuffixConstant = ".0"
	nonFiniteReplacementConstant  = "0.0"
)

// Percentage is a coverage value that always renders with a fractional part.
type Percentage float64

// String renders the percentage as it appears in reports, for example 100.0 or 66.67.
func (percentage Percentage) String() string {
	value := float64(percentage)
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nonFiniteReplacementConstant
	}
	rendered := strconv.FormatFloat(value, percentageFormatConstant, percentageShortestPrecision, percentageBitSizeConstant)
	if !strings.Contains(rendered, decimalSeparatorConstant) {
		rendered += wholePercentageSuffixConstant
	}
	return rendered
}

// MarshalJSON encodes the percentage as a JSON number with a fractional part.
func (percentage Percentage) MarshalJSON() ([]byte, error) {
	return []byte(percentage.String()), nil
}

// Metadata identifies the repository and inventory a snapshot belongs to.
type Metadata struct {
	Repository       string
	SyncDate         string
	GovernanceSource string
	InventoryVersion string
}

// LayeredDownEntry is the persisted form of a present canon.
type LayeredDownEntry struct {
	ID              string `json:"id"`
	Path            string `json:"path"`
	SourceVersion   string `json:"source_version"`
	LayeredDownDate string `json:"layered_down_date"`
	Fingerprint     string `json:"sha256"`
	Status          string `json:"status"`
}

// MissingEntry is the persisted form of a missing canon.
type MissingEntry struct {
	ID             string `json:"id"`
	Classification string `json:"classification"`
	Mandatory      bool   `json:"mandatory"`
	Priority       string `json:"priority"`
}

// Document is the persisted governance alignment inventory of a repository.
type Document struct {
	Repository                string             `json:"repository"`
	LastSync                  string             `json:"last_sync"`
	GovernanceSource          string             `json:"governance_source"`
	CanonicalInventoryVersion string             `json:"canonical_inventory_version"`
	TotalCanonsRequired       int                `json:"total_canons_required"`
	CanonsPresent             int                `json:"canons_present"`
	CoveragePercentage        Percentage         `json:"coverage_percentage"`
	LayeredDown               []LayeredDownEntry `json:"layered_down"`
	Missing                   []MissingEntry     `json:"missing"`
}

// NewDocument copies a compliance snapshot into its persisted form without altering any value.
func NewDocument(metadata Metadata, snapshot reconcile.ComplianceSnapshot) Document {
	layeredDown := make([]LayeredDownEntry, 0, len(snapshot.Present))
	for _, presentEntry := range snapshot.Present {
		layeredDown = append(layeredDown, LayeredDownEntry{
			ID:              presentEntry.ID,
			Path:            presentEntry.Path,
			SourceVersion:   presentEntry.SourceVersion,
			LayeredDownDate: presentEntry.ObservedAt,
			Fingerprint:     presentEntry.Fingerprint,
			Status:          string(presentEntry.Status),
		})
	}

	missing := make([]MissingEntry, 0, len(snapshot.Missing))
	for _, missingEntry := range snapshot.Missing {
		missing = append(missing, MissingEntry{
			ID:             missingEntry.ID,
			Classification: string(missingEntry.Classification),
			Mandatory:      missingEntry.Mandatory,
			Priority:       string(missingEntry.Priority),
		})
	}

	return Document{
		Repository:                metadata.Repository,
		LastSync:                  metadata.SyncDate,
		GovernanceSource:          metadata.GovernanceSource,
		CanonicalInventoryVersion: metadata.InventoryVersion,
		TotalCanonsRequired:       snapshot.TotalRequired,
		CanonsPresent:             snapshot.PresentCount,
		CoveragePercentage:        Percentage(snapshot.CoveragePercentage),
		LayeredDown:               layeredDown,
		Missing:                   missing,
	}
}

// StatusTally counts layered-down entries per status.
func (document Document) StatusTally() (upToDate int, modified int) {
	for _, entry := range document.LayeredDown {
		switch reconcile.Status(entry.Status) {
		case reconcile.StatusUpToDate:
			upToDate++
		case reconcile.StatusModified:
			modified++
		}
	}
	return upToDate, modified
}
