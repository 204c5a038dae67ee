package reconcile

import (
	"strconv"

	"github.com/temirov/canonsync/internal/inventory"
	"github.com/temirov/canonsync/internal/scanner"
)

const (
	fullCoverageConstant          = 100.0
	coverageDecimalPlacesConstant = 2
	coverageFloatFormatConstant   = 'f'
	coverageBitSizeConstant       = 64
)

// Status reports whether a present canon matches the central fingerprint.
type Status string

// Supported statuses.
const (
	StatusUpToDate Status = Status("UP_TO_DATE")
	StatusModified Status = Status("MODIFIED")
)

// Classification is the repository-facing label derived from a layering classification.
type Classification string

// Supported classifications.
const (
	ClassificationPublicAPI    Classification = Classification("PUBLIC_API")
	ClassificationRepoSpecific Classification = Classification("REPO_SPECIFIC")
	ClassificationOptional     Classification = Classification("OPTIONAL")
)

// Classify maps PUBLIC_API to PUBLIC_API, INTERNAL to REPO_SPECIFIC, and anything else to OPTIONAL.
func Classify(classification inventory.LayeringClassification) Classification {
	switch classification {
	case inventory.LayeringPublicAPI:
		return ClassificationPublicAPI
	case inventory.LayeringInternal:
		return ClassificationRepoSpecific
	default:
		return ClassificationOptional
	}
}

// PresentEntry describes a canon found locally.
type PresentEntry struct {
	ID            string
	Path          string
	SourceVersion string
	ObservedAt    string
	Fingerprint   string
	Status        Status
}

// MissingEntry describes a canon that should be present locally but is not.
type MissingEntry struct {
	ID             string
	Classification Classification
	Mandatory      bool
	Priority       Priority
}

// ComplianceSnapshot is the outcome of one reconciliation run.
type ComplianceSnapshot struct {
	TotalRequired      int
	PresentCount       int
	CoveragePercentage float64
	Present            []PresentEntry
	Missing            []MissingEntry
}

// Complete reports whether every mandatory canon is present. A snapshot with no mandatory
// canons has zero coverage and is not complete.
func (snapshot ComplianceSnapshot) Complete() bool {
	return snapshot.CoveragePercentage >= fullCoverageConstant
}

// Reconcile joins central canon records with local observations. Records are processed in
// inventory order; entries that are not canons are ignored. A nil policy selects ApplicationPolicy.
func Reconcile(records []inventory.CanonRecord, observations scanner.Observations, policy MandatoryPolicy) ComplianceSnapshot {
	if policy == nil {
		policy = ApplicationPolicy
	}

	snapshot := ComplianceSnapshot{
		Present: []PresentEntry{},
		Missing: []MissingEntry{},
	}

	for _, record := range records {
		if record.EntryType != inventory.EntryTypeCanon {
			continue
		}

		decision := policy(record.LayeringClassification)
		if decision.Mandatory {
			snapshot.TotalRequired++
		}

		observation, found := observations[record.Filename]
		if found {
			snapshot.Present = append(snapshot.Present, PresentEntry{
				ID:            record.Filename,
				Path:          observation.RelativePath,
				SourceVersion: record.Version,
				ObservedAt:    observation.ObservedAt,
				Fingerprint:   observation.Fingerprint,
				Status:        compareFingerprints(observation.Fingerprint, record.TruncatedFingerprint),
			})
			if decision.Mandatory {
				snapshot.PresentCount++
			}
			continue
		}

		if decision.Mandatory || record.LayeringClassification == inventory.LayeringPublicAPI {
			snapshot.Missing = append(snapshot.Missing, MissingEntry{
				ID:             record.Filename,
				Classification: Classify(record.LayeringClassification),
				Mandatory:      decision.Mandatory,
				Priority:       decision.Priority,
			})
		}
	}

	snapshot.CoveragePercentage = CoveragePercentage(snapshot.PresentCount, snapshot.TotalRequired)
	return snapshot
}

// CoveragePercentage rounds present/required*100 to two decimals, resolving exact binary ties to the
// even digit; zero required yields 0.
func CoveragePercentage(presentCount int, totalRequired int) float64 {
	if totalRequired <= 0 {
		return 0
	}
	ratio := float64(presentCount) / float64(totalRequired) * 100
	rendered := strconv.FormatFloat(ratio, coverageFloatFormatConstant, coverageDecimalPlacesConstant, coverageBitSizeConstant)
	rounded, _ := strconv.ParseFloat(rendered, coverageBitSizeConstant)
	return rounded
}

func compareFingerprints(localFingerprint string, centralFingerprint string) Status {
	if localFingerprint == centralFingerprint {
		return StatusUpToDate
	}
	return StatusModified
}
