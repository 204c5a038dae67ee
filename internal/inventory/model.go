package inventory

import "strings"

const (
	// DefaultInventoryVersionConstant is reported when a central inventory omits its version.
	DefaultInventoryVersionConstant = "1.0.0"
	// UnknownVersionConstant is reported when a canon entry omits its version.
	UnknownVersionConstant = "unknown"
)

// LayeringClassification governs whether a downstream repository must carry a canon.
type LayeringClassification string

// Supported layering classifications.
const (
	LayeringPublicAPI LayeringClassification = LayeringClassification("PUBLIC_API")
	LayeringInternal  LayeringClassification = LayeringClassification("INTERNAL")
	LayeringOptional  LayeringClassification = LayeringClassification("OPTIONAL")
)

// ParseLayeringClassification normalizes a textual classification and reports whether it is one of the supported values.
func ParseLayeringClassification(raw string) (LayeringClassification, bool) {
	candidate := LayeringClassification(strings.ToUpper(strings.TrimSpace(raw)))
	switch candidate {
	case LayeringPublicAPI, LayeringInternal, LayeringOptional:
		return candidate, true
	default:
		return "", false
	}
}

// EntryType distinguishes canons from policies in the central inventory.
type EntryType string

// Supported entry types.
const (
	EntryTypeCanon  EntryType = EntryType("canon")
	EntryTypePolicy EntryType = EntryType("policy")
)

// CanonRecord is one entry of the central canon inventory.
type CanonRecord struct {
	Filename               string                 `mapstructure:"filename" json:"filename"`
	Version                string                 `mapstructure:"version" json:"version"`
	TruncatedFingerprint   string                 `mapstructure:"file_hash" json:"file_hash"`
	EffectiveDate          string                 `mapstructure:"effective_date" json:"effective_date"`
	Description            string                 `mapstructure:"description" json:"description"`
	EntryType              EntryType              `mapstructure:"type" json:"type"`
	Path                   string                 `mapstructure:"path" json:"path"`
	LayeringClassification LayeringClassification `mapstructure:"layer_down_status" json:"layer_down_status"`
	FullFingerprint        string                 `mapstructure:"file_hash_sha256" json:"file_hash_sha256"`
}

// CentralInventory is the canonical catalog of canons and policies.
type CentralInventory struct {
	Version             string        `mapstructure:"version" json:"version"`
	LastUpdated         string        `mapstructure:"last_updated" json:"last_updated"`
	TotalCanons         int           `mapstructure:"total_canons" json:"total_canons"`
	GenerationTimestamp string        `mapstructure:"generation_timestamp" json:"generation_timestamp"`
	Canons              []CanonRecord `mapstructure:"canons" json:"canons"`
}

// CanonEntries returns the canon-type records in inventory order.
func (inventory CentralInventory) CanonEntries() []CanonRecord {
	canonEntries := make([]CanonRecord, 0, len(inventory.Canons))
	for _, record := range inventory.Canons {
		if record.EntryType != EntryTypeCanon {
			continue
		}
		canonEntries = append(canonEntries, record)
	}
	return canonEntries
}

// VersionOrDefault returns the inventory version, falling back to the default version label.
func (inventory CentralInventory) VersionOrDefault() string {
	trimmedVersion := strings.TrimSpace(inventory.Version)
	if len(trimmedVersion) == 0 {
		return DefaultInventoryVersionConstant
	}
	return trimmedVersion
}
