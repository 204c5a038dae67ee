package inventory

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/temirov/canonsync/internal/faults"
	"github.com/temirov/canonsync/internal/schema"
)

const (
	// InventoryRelativePathConstant locates the central inventory below a governance source root.
	InventoryRelativePathConstant = "governance/CANON_INVENTORY.json"

	inventoryDefinitionNameConstant       = "#Inventory"
	documentFieldConstant                 = "<document>"
	canonFilenameFieldTemplateConstant    = "canons.%d.filename"
	emptyDocumentMessageConstant          = "document is empty"
	duplicateFilenameTemplateConstant     = "duplicate canon filename %q (first declared at canons.%d)"
	decodeErrorTemplateConstant           = "unable to decode inventory: %w"
	validatorConstructionTemplateConstant = "unable to prepare inventory schema: %w"
	mapstructureTagNameConstant           = "mapstructure"
)

// recordedClassification is the part of an inventory entry that survives regeneration.
type recordedClassification struct {
	Path                   string `yaml:"path"`
	LayeringClassification string `yaml:"layer_down_status"`
}

type recordedClassifications struct {
	Canons []recordedClassification `yaml:"canons"`
}

//go:embed inventory_schema.cue
var inventorySchemaSource string

// Loader parses persisted central inventories into CanonRecords.
type Loader struct {
	validator *schema.Validator
}

// NewLoader constructs a Loader backed by the embedded inventory schema.
func NewLoader() (*Loader, error) {
	validator, validatorError := schema.NewValidator(inventorySchemaSource, inventoryDefinitionNameConstant)
	if validatorError != nil {
		return nil, fmt.Errorf(validatorConstructionTemplateConstant, validatorError)
	}
	return &Loader{validator: validator}, nil
}

// InventoryPath returns the central inventory location for a governance source root.
func InventoryPath(governanceSourceRoot string) string {
	return filepath.Join(governanceSourceRoot, filepath.FromSlash(InventoryRelativePathConstant))
}

// Load reads the catalog at inventoryPath. It fails with faults.ErrNotFound when the file is
// absent and faults.ErrMalformed when the content is not a structurally valid inventory.
func (loader *Loader) Load(inventoryPath string) (CentralInventory, error) {
	contentBytes, readError := os.ReadFile(inventoryPath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return CentralInventory{}, faults.NotFound(inventoryPath, readError)
		}
		return CentralInventory{}, faults.IOFailure(inventoryPath, readError)
	}

	return loader.Parse(inventoryPath, contentBytes)
}

// Parse decodes inventory content; inventoryPath only labels diagnostics.
func (loader *Loader) Parse(inventoryPath string, contentBytes []byte) (CentralInventory, error) {
	var document any
	if unmarshalError := yaml.Unmarshal(contentBytes, &document); unmarshalError != nil {
		return CentralInventory{}, faults.Malformed(inventoryPath, documentFieldConstant, unmarshalError)
	}
	if document == nil {
		return CentralInventory{}, faults.Malformed(inventoryPath, documentFieldConstant, errors.New(emptyDocumentMessageConstant))
	}

	if validationError := loader.validator.Validate(document); validationError != nil {
		field := documentFieldConstant
		var violations schema.ValidationError
		if errors.As(validationError, &violations) {
			field = violations.FirstField()
		}
		return CentralInventory{}, faults.Malformed(inventoryPath, field, validationError)
	}

	var centralInventory CentralInventory
	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: mapstructureTagNameConstant,
		Result:  &centralInventory,
	})
	if decoderError != nil {
		return CentralInventory{}, fmt.Errorf(decodeErrorTemplateConstant, decoderError)
	}
	if decodeError := decoder.Decode(document); decodeError != nil {
		return CentralInventory{}, faults.Malformed(inventoryPath, documentFieldConstant, fmt.Errorf(decodeErrorTemplateConstant, decodeError))
	}

	if duplicateError := detectDuplicateCanons(inventoryPath, centralInventory.Canons); duplicateError != nil {
		return CentralInventory{}, duplicateError
	}

	applyRecordDefaults(centralInventory.Canons)
	return centralInventory, nil
}

func detectDuplicateCanons(inventoryPath string, records []CanonRecord) error {
	firstIndexByFilename := make(map[string]int, len(records))
	for recordIndex, record := range records {
		if record.EntryType != EntryTypeCanon {
			continue
		}
		if firstIndex, exists := firstIndexByFilename[record.Filename]; exists {
			return faults.Malformed(
				inventoryPath,
				fmt.Sprintf(canonFilenameFieldTemplateConstant, recordIndex),
				fmt.Errorf(duplicateFilenameTemplateConstant, record.Filename, firstIndex),
			)
		}
		firstIndexByFilename[record.Filename] = recordIndex
	}
	return nil
}

// applyRecordDefaults fills values the schema leaves optional: an absent classification is OPTIONAL
// and an absent version is reported as unknown.
func applyRecordDefaults(records []CanonRecord) {
	for recordIndex := range records {
		if len(records[recordIndex].LayeringClassification) == 0 {
			records[recordIndex].LayeringClassification = LayeringOptional
		}
		if len(records[recordIndex].Version) == 0 {
			records[recordIndex].Version = UnknownVersionConstant
		}
	}
}

// ReadClassifications returns the layering classification explicitly recorded for each entry of the
// inventory at inventoryPath, keyed by path. Entries without a path or a classification are left out.
// Neither the schema nor filename uniqueness is enforced, so an inventory Load rejects can still be
// read back.
func (loader *Loader) ReadClassifications(inventoryPath string) (map[string]LayeringClassification, error) {
	contentBytes, readError := os.ReadFile(inventoryPath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return nil, faults.NotFound(inventoryPath, readError)
		}
		return nil, faults.IOFailure(inventoryPath, readError)
	}

	var document recordedClassifications
	if unmarshalError := yaml.Unmarshal(contentBytes, &document); unmarshalError != nil {
		return nil, faults.Malformed(inventoryPath, documentFieldConstant, unmarshalError)
	}

	classifications := make(map[string]LayeringClassification, len(document.Canons))
	for _, entry := range document.Canons {
		path := strings.TrimSpace(entry.Path)
		classification := strings.TrimSpace(entry.LayeringClassification)
		if len(path) == 0 || len(classification) == 0 {
			continue
		}
		classifications[path] = LayeringClassification(classification)
	}
	return classifications, nil
}
