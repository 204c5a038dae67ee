package generator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/temirov/canonsync/internal/faults"
	"github.com/temirov/canonsync/internal/fingerprint"
	"github.com/temirov/canonsync/internal/inventory"
)

const (
	// CanonSourceRelativePathConstant holds canon documents below the governance repository root.
	CanonSourceRelativePathConstant = "governance/canon"
	// PolicySourceRelativePathConstant holds policy documents below the governance repository root.
	PolicySourceRelativePathConstant = "governance/policy"
	// GeneratedInventoryVersionConstant is written as the version of every regenerated inventory.
	GeneratedInventoryVersionConstant = "1.0.0"

	lastUpdatedLayoutConstant         = "2006-01-02"
	generationTimestampLayoutConstant = "2006-01-02T15:04:05Z"
	hiddenFilePrefixConstant          = "."
	inventoryFilePermissionsConstant  = 0o644
	jsonIndentConstant                = "  "

	encodeInventoryTemplateConstant     = "unable to encode canon inventory: %w"
	duplicateCanonTemplateConstant      = "canon filename %q is also used by %s"
	filenameFieldConstant               = "filename"
	priorInventoryIgnoredMessage        = "Existing inventory could not be read; layering classifications will come from document headers"
	priorInventoryLoadedMessage         = "Loaded existing inventory"
	documentProcessedMessage            = "Processing governance document"
	undecodableHeaderMessageConstant    = "Could not extract metadata; document is not valid UTF-8"
	logFieldPathConstant                = "path"
	logFieldCanonCountConstant          = "total_canons"
	logFieldClassificationCountConstant = "recorded_classifications"
)

// PriorClassificationReader reads the classifications recorded in the inventory being replaced,
// keyed by document path.
type PriorClassificationReader interface {
	ReadClassifications(inventoryPath string) (map[string]inventory.LayeringClassification, error)
}

// Clock abstracts time-dependent functionality for deterministic testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the standard library.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// LayeringTally counts generated records per layering classification.
type LayeringTally struct {
	PublicAPI int
	Internal  int
	Optional  int
}

// Generator rebuilds the central canon inventory from the governance documents on disk.
type Generator struct {
	hasher      fingerprint.Hasher
	priorReader PriorClassificationReader
	clock       Clock
	logger      *zap.Logger
}

// NewGenerator constructs a Generator. A nil priorReader disables merging of prior classifications.
func NewGenerator(priorReader PriorClassificationReader, clock Clock, logger *zap.Logger) *Generator {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{hasher: fingerprint.NewHasher(), priorReader: priorReader, clock: clock, logger: logger}
}

// Generate scans governance/canon and governance/policy below root. Classifications recorded in
// the inventory at priorInventoryPath override those declared in document headers. Two canons
// sharing a filename anywhere below governance/canon fail generation with faults.ErrMalformed.
func (generator *Generator) Generate(root string, priorInventoryPath string) (inventory.CentralInventory, error) {
	classificationOverlay := generator.loadClassificationOverlay(priorInventoryPath)

	records := make([]inventory.CanonRecord, 0)
	sources := []struct {
		relativePath string
		entryType    inventory.EntryType
	}{
		{relativePath: CanonSourceRelativePathConstant, entryType: inventory.EntryTypeCanon},
		{relativePath: PolicySourceRelativePathConstant, entryType: inventory.EntryTypePolicy},
	}
	for _, source := range sources {
		sourceRecords, scanError := generator.scanSource(root, source.relativePath, source.entryType, classificationOverlay)
		if scanError != nil {
			return inventory.CentralInventory{}, scanError
		}
		records = append(records, sourceRecords...)
	}
	if duplicateError := detectDuplicateCanonFilenames(root, records); duplicateError != nil {
		return inventory.CentralInventory{}, duplicateError
	}

	now := generator.clock.Now()
	return inventory.CentralInventory{
		Version:             GeneratedInventoryVersionConstant,
		LastUpdated:         now.Format(lastUpdatedLayoutConstant),
		TotalCanons:         len(records),
		GenerationTimestamp: now.UTC().Format(generationTimestampLayoutConstant),
		Canons:              records,
	}, nil
}

func (generator *Generator) loadClassificationOverlay(priorInventoryPath string) map[string]inventory.LayeringClassification {
	overlay := make(map[string]inventory.LayeringClassification)
	if generator.priorReader == nil || len(priorInventoryPath) == 0 {
		return overlay
	}

	priorClassifications, readError := generator.priorReader.ReadClassifications(priorInventoryPath)
	if readError != nil {
		if !errors.Is(readError, faults.ErrNotFound) {
			generator.logger.Warn(priorInventoryIgnoredMessage, zap.String(logFieldPathConstant, priorInventoryPath), zap.Error(readError))
		}
		return overlay
	}

	for path, classification := range priorClassifications {
		overlay[path] = classification
	}
	generator.logger.Info(priorInventoryLoadedMessage,
		zap.String(logFieldPathConstant, priorInventoryPath),
		zap.Int(logFieldClassificationCountConstant, len(overlay)),
	)
	return overlay
}

func (generator *Generator) scanSource(root string, relativeSource string, entryType inventory.EntryType, overlay map[string]inventory.LayeringClassification) ([]inventory.CanonRecord, error) {
	sourceDirectory := filepath.Join(root, filepath.FromSlash(relativeSource))
	if _, statError := os.Stat(sourceDirectory); statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, faults.IOFailure(sourceDirectory, statError)
	}

	var records []inventory.CanonRecord
	walkError := filepath.WalkDir(sourceDirectory, func(currentPath string, entry fs.DirEntry, entryError error) error {
		if entryError != nil {
			return faults.IOFailure(currentPath, entryError)
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), markdownExtensionConstant) || strings.HasPrefix(entry.Name(), hiddenFilePrefixConstant) {
			return nil
		}
		record, recordError := generator.buildRecord(root, currentPath, entryType, overlay)
		if recordError != nil {
			return recordError
		}
		records = append(records, record)
		return nil
	})
	if walkError != nil {
		return nil, walkError
	}
	return records, nil
}

func (generator *Generator) buildRecord(root string, documentPath string, entryType inventory.EntryType, overlay map[string]inventory.LayeringClassification) (inventory.CanonRecord, error) {
	relativePath, relativeError := filepath.Rel(root, documentPath)
	if relativeError != nil {
		return inventory.CanonRecord{}, faults.IOFailure(documentPath, relativeError)
	}
	relativePath = filepath.ToSlash(relativePath)
	generator.logger.Debug(documentProcessedMessage, zap.String(logFieldPathConstant, relativePath))

	documentFingerprint, digestError := generator.hasher.DigestFile(documentPath)
	if digestError != nil {
		return inventory.CanonRecord{}, digestError
	}

	contentBytes, readError := os.ReadFile(documentPath)
	if readError != nil {
		return inventory.CanonRecord{}, faults.IOFailure(documentPath, readError)
	}
	metadata := DefaultHeaderMetadata()
	if utf8.Valid(contentBytes) {
		metadata = ExtractHeaderMetadata(string(contentBytes))
	} else {
		generator.logger.Warn(undecodableHeaderMessageConstant, zap.String(logFieldPathConstant, relativePath))
	}

	filename := filepath.Base(documentPath)
	description := metadata.Description
	if len(description) == 0 {
		description = FallbackDescription(filename)
	}
	classification := metadata.LayeringClassification
	if priorClassification, known := overlay[relativePath]; known {
		classification = priorClassification
	}

	return inventory.CanonRecord{
		Filename:               filename,
		Version:                metadata.Version,
		TruncatedFingerprint:   documentFingerprint.Truncated,
		EffectiveDate:          metadata.EffectiveDate,
		Description:            description,
		EntryType:              entryType,
		Path:                   relativePath,
		LayeringClassification: classification,
		FullFingerprint:        documentFingerprint.Full,
	}, nil
}

func detectDuplicateCanonFilenames(root string, records []inventory.CanonRecord) error {
	firstPathByFilename := make(map[string]string, len(records))
	for _, record := range records {
		if record.EntryType != inventory.EntryTypeCanon {
			continue
		}
		if firstPath, exists := firstPathByFilename[record.Filename]; exists {
			return faults.Malformed(
				filepath.Join(root, filepath.FromSlash(record.Path)),
				filenameFieldConstant,
				fmt.Errorf(duplicateCanonTemplateConstant, record.Filename, firstPath),
			)
		}
		firstPathByFilename[record.Filename] = record.Path
	}
	return nil
}

// Tally counts the records of centralInventory by layering classification.
func Tally(centralInventory inventory.CentralInventory) LayeringTally {
	var tally LayeringTally
	for _, record := range centralInventory.Canons {
		switch record.LayeringClassification {
		case inventory.LayeringPublicAPI:
			tally.PublicAPI++
		case inventory.LayeringInternal:
			tally.Internal++
		case inventory.LayeringOptional:
			tally.Optional++
		}
	}
	return tally
}

// WriteInventory persists centralInventory as indented JSON at outputPath.
func WriteInventory(outputPath string, centralInventory inventory.CentralInventory) error {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", jsonIndentConstant)
	if encodeError := encoder.Encode(centralInventory); encodeError != nil {
		return fmt.Errorf(encodeInventoryTemplateConstant, encodeError)
	}
	if writeError := os.WriteFile(outputPath, buffer.Bytes(), inventoryFilePermissionsConstant); writeError != nil {
		return faults.IOFailure(outputPath, writeError)
	}
	return nil
}
