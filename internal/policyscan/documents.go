package policyscan

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/temirov/canonsync/internal/faults"
	"github.com/temirov/canonsync/internal/schema"
)

const (
	rcaDefinitionNameConstant            = "#RCA"
	gateResultsDefinitionNameConstant    = "#GateResults"
	patternCatalogDefinitionNameConstant = "#PatternCatalog"
	documentFieldConstant                = "<document>"
	emptyDocumentMessageConstant         = "document is empty"
	decodeDocumentTemplateConstant       = "unable to decode document: %w"
	mapstructureTagNameConstant          = "mapstructure"
	gateStatusFailConstant               = "FAIL"
	textBlobPartSeparatorConstant        = "\n"
	textBlobItemSeparatorConstant        = " "
)

//go:embed policy_schema.cue
var policySchemaSource string

// IncidentReport is a structured root cause analysis.
type IncidentReport struct {
	SchemaVersion       string   `mapstructure:"schema_version"`
	ReportedAt          any      `mapstructure:"reported_at"`
	IncidentSummary     string   `mapstructure:"incident_summary"`
	RootCauses          []string `mapstructure:"root_causes"`
	CorrectiveActions   []string `mapstructure:"corrective_actions"`
	PreventativeActions []string `mapstructure:"preventative_actions"`
}

// NarrativeText joins the free-text sections that are screened for minimizing language.
func (report IncidentReport) NarrativeText() string {
	return strings.Join([]string{
		report.IncidentSummary,
		strings.Join(report.RootCauses, textBlobItemSeparatorConstant),
		strings.Join(report.CorrectiveActions, textBlobItemSeparatorConstant),
		strings.Join(report.PreventativeActions, textBlobItemSeparatorConstant),
	}, textBlobPartSeparatorConstant)
}

// StopAndFix carries the explicit stop-and-fix directive of a gate run.
type StopAndFix struct {
	Required bool `mapstructure:"required"`
}

// GateResult is the outcome of a single merge gate.
type GateResult struct {
	Name   string `mapstructure:"name"`
	Status string `mapstructure:"status"`
}

// GateResults summarizes a merge gate run.
type GateResults struct {
	StopAndFix StopAndFix   `mapstructure:"stop_and_fix"`
	Gates      []GateResult `mapstructure:"gates"`
}

// RequiresIncidentReport reports whether the gate run demands a root cause analysis.
func (results GateResults) RequiresIncidentReport() bool {
	if results.StopAndFix.Required {
		return true
	}
	for _, gate := range results.Gates {
		if gate.Status == gateStatusFailConstant {
			return true
		}
	}
	return false
}

type documentDecoder struct {
	validator *schema.Validator
}

func newDocumentDecoder(definitionName string) (documentDecoder, error) {
	validator, validatorError := schema.NewValidator(policySchemaSource, definitionName)
	if validatorError != nil {
		return documentDecoder{}, validatorError
	}
	return documentDecoder{validator: validator}, nil
}

// decodeFile reads, validates and decodes the document at documentPath into target.
func (decoder documentDecoder) decodeFile(documentPath string, target any) error {
	document, readError := decoder.readFile(documentPath)
	if readError != nil {
		return readError
	}
	if decodeError := decodeInto(document, target); decodeError != nil {
		return faults.Malformed(documentPath, documentFieldConstant, decodeError)
	}
	return nil
}

// readFile parses the JSON or YAML document at documentPath and validates it against the schema.
func (decoder documentDecoder) readFile(documentPath string) (any, error) {
	contentBytes, readError := os.ReadFile(documentPath)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return nil, faults.NotFound(documentPath, readError)
		}
		return nil, faults.IOFailure(documentPath, readError)
	}

	var document any
	if unmarshalError := yaml.Unmarshal(contentBytes, &document); unmarshalError != nil {
		return nil, faults.Malformed(documentPath, documentFieldConstant, unmarshalError)
	}
	if document == nil {
		return nil, faults.Malformed(documentPath, documentFieldConstant, errors.New(emptyDocumentMessageConstant))
	}

	if validationError := decoder.validator.Validate(document); validationError != nil {
		field := documentFieldConstant
		var violations schema.ValidationError
		if errors.As(validationError, &violations) {
			field = violations.FirstField()
		}
		return nil, faults.Malformed(documentPath, field, validationError)
	}
	return document, nil
}

func decodeInto(document any, target any) error {
	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: mapstructureTagNameConstant,
		Result:  target,
	})
	if decoderError != nil {
		return fmt.Errorf(decodeDocumentTemplateConstant, decoderError)
	}
	if decodeError := decoder.Decode(document); decodeError != nil {
		return fmt.Errorf(decodeDocumentTemplateConstant, decodeError)
	}
	return nil
}
