package policyscan_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/canonsync/internal/policyscan"
	"github.com/temirov/canonsync/internal/utils"
)

const (
	validRCAContent = `{
  "schema_version": "1.0.0",
  "reported_at": "2026-03-04T10:00:00Z",
  "incident_summary": "Merge gate failed on missing canon layer-down.",
  "root_causes": ["Inventory sync skipped"],
  "corrective_actions": ["Re-ran sync"],
  "preventative_actions": ["Added strict mode to CI"]
}`
	minimizingRCAContent = `{
  "schema_version": "1.0.0",
  "reported_at": "2026-03-04T10:00:00Z",
  "incident_summary": "Merge gate failed on missing canon layer-down.",
  "root_causes": ["It was just a typo"],
  "corrective_actions": ["Fixed"],
  "preventative_actions": ["None needed"]
}`
	shortSummaryRCAContent = `{
  "schema_version": "1.0.0",
  "reported_at": "2026-03-04T10:00:00Z",
  "incident_summary": "short",
  "root_causes": ["x"],
  "corrective_actions": ["y"],
  "preventative_actions": ["z"]
}`
	wrongVersionRCAContent = `{
  "schema_version": "2.0.0",
  "reported_at": "2026-03-04T10:00:00Z",
  "incident_summary": "Merge gate failed on missing canon layer-down.",
  "root_causes": ["x"],
  "corrective_actions": ["y"],
  "preventative_actions": ["z"]
}`
	emptyCausesRCAContent = `{
  "schema_version": "1.0.0",
  "reported_at": "2026-03-04T10:00:00Z",
  "incident_summary": "Merge gate failed on missing canon layer-down.",
  "root_causes": [],
  "corrective_actions": ["y"],
  "preventative_actions": ["z"]
}`
	failedGateResultsContent = `{"stop_and_fix": {"required": false}, "gates": [{"name": "canon-sync", "status": "FAIL"}]}`
	stopAndFixContent        = `{"stop_and_fix": {"required": true}, "gates": [{"name": "canon-sync", "status": "PASS"}]}`
	passingGateResults       = `{"stop_and_fix": {"required": false}, "gates": [{"name": "canon-sync", "status": "PASS"}]}`
	mistypedGateResults      = `{"stop_and_fix": {"required": "yes"}}`
)

func TestRCAValidatorValidate(testInstance *testing.T) {
	directory := testInstance.TempDir()
	catalogPath := writeFile(testInstance, filepath.Join(directory, "catalog.json"), validCatalogContent)
	missingPath := filepath.Join(directory, "absent.json")

	testCases := []struct {
		name             string
		rcaContent       string
		gateContent      string
		omitRCA          bool
		omitGates        bool
		expectedExitCode int
		expectedMessage  string
	}{
		{name: "valid_rca", rcaContent: validRCAContent, gateContent: failedGateResultsContent, expectedExitCode: 0, expectedMessage: "PASS: RCA validated."},
		{name: "missing_rca_required_by_failed_gate", omitRCA: true, gateContent: failedGateResultsContent, expectedExitCode: 1},
		{name: "missing_rca_required_by_stop_and_fix", omitRCA: true, gateContent: stopAndFixContent, expectedExitCode: 1},
		{name: "missing_rca_not_required", omitRCA: true, gateContent: passingGateResults, expectedExitCode: 0, expectedMessage: "PASS: RCA not required and file missing."},
		{name: "missing_rca_without_gate_results", omitRCA: true, omitGates: true, expectedExitCode: 0, expectedMessage: "PASS: RCA not required and file missing."},
		{name: "invalid_gate_results", rcaContent: validRCAContent, gateContent: `{"gates": [`, expectedExitCode: 2, expectedMessage: "ERROR: Gate results JSON invalid; cannot determine RCA requirement."},
		{name: "mistyped_gate_results", rcaContent: validRCAContent, gateContent: mistypedGateResults, expectedExitCode: 2, expectedMessage: "ERROR: Gate results JSON invalid; cannot determine RCA requirement."},
		{name: "short_summary", rcaContent: shortSummaryRCAContent, gateContent: passingGateResults, expectedExitCode: 2},
		{name: "wrong_schema_version", rcaContent: wrongVersionRCAContent, gateContent: passingGateResults, expectedExitCode: 2},
		{name: "empty_root_causes", rcaContent: emptyCausesRCAContent, gateContent: passingGateResults, expectedExitCode: 2},
		{name: "minimizing_language", rcaContent: minimizingRCAContent, gateContent: failedGateResultsContent, expectedExitCode: 1, expectedMessage: "ERROR: Minimizing language detected in RCA."},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			caseDirectory := filepath.Join(directory, testCase.name)
			rcaPath := filepath.Join(caseDirectory, "rca.json")
			gateResultsPath := missingPath
			if !testCase.omitRCA {
				writeFile(testInstance, rcaPath, testCase.rcaContent)
			}
			if !testCase.omitGates {
				gateResultsPath = writeFile(testInstance, filepath.Join(caseDirectory, "gate_results.json"), testCase.gateContent)
			}

			validator, validatorError := policyscan.NewRCAValidator(policyscan.NewPatternCatalog(catalogPath, noEnvironment, nil), zap.NewNop())
			require.NoError(testInstance, validatorError)

			verdict, validateError := validator.Validate(rcaPath, gateResultsPath)
			require.NoError(testInstance, validateError)
			require.Equal(testInstance, testCase.expectedExitCode, verdict.ExitCode)
			if len(testCase.expectedMessage) > 0 {
				require.Equal(testInstance, testCase.expectedMessage, verdict.Message)
			}
		})
	}
}

func TestRCAValidatorCatalogFailureIsInvalidInput(testInstance *testing.T) {
	directory := testInstance.TempDir()
	rcaPath := writeFile(testInstance, filepath.Join(directory, "rca.json"), validRCAContent)
	catalog := policyscan.NewPatternCatalog(filepath.Join(directory, "missing_catalog.json"), noEnvironment, nil)

	validator, validatorError := policyscan.NewRCAValidator(catalog, nil)
	require.NoError(testInstance, validatorError)
	verdict, validateError := validator.Validate(rcaPath, "")
	require.NoError(testInstance, validateError)
	require.Equal(testInstance, policyscan.InvalidInputExitCodeConstant, verdict.ExitCode)
	require.Contains(testInstance, verdict.Message, "ERROR: Missing minimizing language patterns file: ")
}

func TestRCAValidateCommand(testInstance *testing.T) {
	directory := testInstance.TempDir()
	catalogPath := writeFile(testInstance, filepath.Join(directory, "catalog.json"), validCatalogContent)
	rcaPath := writeFile(testInstance, filepath.Join(directory, "rca.json"), minimizingRCAContent)
	gateResultsPath := writeFile(testInstance, filepath.Join(directory, "gate_results.json"), failedGateResultsContent)

	builder := policyscan.CommandBuilder{EnvironmentLookup: noEnvironment}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	var outputBuffer bytes.Buffer
	command.SetOut(&outputBuffer)
	command.SetArgs([]string{"--rca", rcaPath, "--gate-results", gateResultsPath, "--patterns", catalogPath})
	command.SilenceUsage = true
	command.SilenceErrors = true

	executionError := command.Execute()
	require.Equal(testInstance, policyscan.RejectedExitCodeConstant, utils.ExitCodeFor(executionError))
	require.False(testInstance, utils.ShouldReport(executionError))
	require.Equal(testInstance, "ERROR: Minimizing language detected in RCA.\n", outputBuffer.String())
}
