package policyscan

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/canonsync/internal/faults"
)

const (
	// PassExitCodeConstant reports a valid or legitimately absent RCA.
	PassExitCodeConstant = 0
	// RejectedExitCodeConstant reports a required but missing RCA or minimizing language.
	RejectedExitCodeConstant = 1
	// InvalidInputExitCodeConstant reports unreadable gate results, an invalid RCA or a bad pattern catalog.
	InvalidInputExitCodeConstant = 2

	gateResultsInvalidMessageConstant = "ERROR: Gate results JSON invalid; cannot determine RCA requirement."
	rcaMissingTemplateConstant        = "ERROR: RCA required but missing: %s"
	rcaNotRequiredMessageConstant     = "PASS: RCA not required and file missing."
	rcaInvalidTemplateConstant        = "ERROR: RCA invalid: %v"
	catalogFailureTemplateConstant    = "ERROR: %v"
	minimizingLanguageMessageConstant = "ERROR: Minimizing language detected in RCA."
	rcaValidatedMessageConstant       = "PASS: RCA validated."

	validatorSchemaTemplateConstant  = "unable to prepare RCA schemas: %w"
	gateResultsRejectedLogMessage    = "Gate results rejected"
	minimizingLanguageLogMessage     = "Minimizing language matched"
	logFieldPathConstant             = "path"
	logFieldPatternsConstant         = "patterns"
	logFieldRequiredConstant         = "rca_required"
	requirementResolvedLogMessage    = "RCA requirement resolved"
	logFieldCatalogPathConstant      = "catalog_path"
	catalogResolvedLogMessage        = "Minimizing language catalog loaded"
	rcaPathRequiredMessageConstant   = "RCA path must be provided"
	nilCatalogMessageConstant        = "pattern catalog not configured"
	patternListSeparatorForLogFields = ", "
)

// Verdict is the outcome of validating one RCA.
type Verdict struct {
	ExitCode int
	Message  string
	Matches  []string
}

// RCAValidator checks RCA evidence against gate results and the minimizing-language catalog.
type RCAValidator struct {
	rcaDecoder         documentDecoder
	gateResultsDecoder documentDecoder
	catalog            *PatternCatalog
	logger             *zap.Logger
}

// NewRCAValidator constructs an RCAValidator that screens narratives with catalog.
func NewRCAValidator(catalog *PatternCatalog, logger *zap.Logger) (*RCAValidator, error) {
	if catalog == nil {
		return nil, errors.New(nilCatalogMessageConstant)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	rcaDecoder, rcaDecoderError := newDocumentDecoder(rcaDefinitionNameConstant)
	if rcaDecoderError != nil {
		return nil, fmt.Errorf(validatorSchemaTemplateConstant, rcaDecoderError)
	}
	gateResultsDecoder, gateDecoderError := newDocumentDecoder(gateResultsDefinitionNameConstant)
	if gateDecoderError != nil {
		return nil, fmt.Errorf(validatorSchemaTemplateConstant, gateDecoderError)
	}
	return &RCAValidator{rcaDecoder: rcaDecoder, gateResultsDecoder: gateResultsDecoder, catalog: catalog, logger: logger}, nil
}

// Validate evaluates the RCA at rcaPath. gateResultsPath is optional; an absent gate results file
// means no RCA is required.
func (validator *RCAValidator) Validate(rcaPath string, gateResultsPath string) (Verdict, error) {
	if len(strings.TrimSpace(rcaPath)) == 0 {
		return Verdict{}, errors.New(rcaPathRequiredMessageConstant)
	}

	required, requirementVerdict, requirementKnown := validator.resolveRequirement(gateResultsPath)
	if !requirementKnown {
		return requirementVerdict, nil
	}
	validator.logger.Debug(requirementResolvedLogMessage, zap.Bool(logFieldRequiredConstant, required))

	var incidentReport IncidentReport
	if decodeError := validator.rcaDecoder.decodeFile(rcaPath, &incidentReport); decodeError != nil {
		if errors.Is(decodeError, faults.ErrNotFound) {
			if required {
				return Verdict{ExitCode: RejectedExitCodeConstant, Message: fmt.Sprintf(rcaMissingTemplateConstant, rcaPath)}, nil
			}
			return Verdict{ExitCode: PassExitCodeConstant, Message: rcaNotRequiredMessageConstant}, nil
		}
		return Verdict{ExitCode: InvalidInputExitCodeConstant, Message: fmt.Sprintf(rcaInvalidTemplateConstant, decodeError)}, nil
	}

	matches, detectError := validator.catalog.Detect(incidentReport.NarrativeText())
	if detectError != nil {
		return Verdict{ExitCode: InvalidInputExitCodeConstant, Message: fmt.Sprintf(catalogFailureTemplateConstant, detectError)}, nil
	}
	validator.logger.Debug(catalogResolvedLogMessage, zap.String(logFieldCatalogPathConstant, validator.catalog.Path()))

	if len(matches) > 0 {
		validator.logger.Info(minimizingLanguageLogMessage,
			zap.String(logFieldPathConstant, rcaPath),
			zap.String(logFieldPatternsConstant, strings.Join(matches, patternListSeparatorForLogFields)),
		)
		return Verdict{ExitCode: RejectedExitCodeConstant, Message: minimizingLanguageMessageConstant, Matches: matches}, nil
	}
	return Verdict{ExitCode: PassExitCodeConstant, Message: rcaValidatedMessageConstant}, nil
}

// resolveRequirement reports whether an RCA is required. The boolean result is false when the
// gate results exist but cannot be interpreted, in which case the returned verdict is final.
func (validator *RCAValidator) resolveRequirement(gateResultsPath string) (bool, Verdict, bool) {
	if len(strings.TrimSpace(gateResultsPath)) == 0 {
		return false, Verdict{}, true
	}

	var gateResults GateResults
	decodeError := validator.gateResultsDecoder.decodeFile(gateResultsPath, &gateResults)
	if decodeError == nil {
		return gateResults.RequiresIncidentReport(), Verdict{}, true
	}
	if errors.Is(decodeError, faults.ErrNotFound) {
		return false, Verdict{}, true
	}

	validator.logger.Warn(gateResultsRejectedLogMessage, zap.String(logFieldPathConstant, gateResultsPath), zap.Error(decodeError))
	return false, Verdict{ExitCode: InvalidInputExitCodeConstant, Message: gateResultsInvalidMessageConstant}, false
}
