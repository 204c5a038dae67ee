package drift_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/canonsync/internal/drift"
	"github.com/temirov/canonsync/internal/utils"
)

const (
	abcDigestConstant = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	xyzDigestConstant = "3608bca1e44ea6c4d268eb6db02260269892c0b42b86bbf1e77a6fa16c3c9282"
)

func writeFile(testInstance *testing.T, directory string, name string, content string) string {
	testInstance.Helper()
	filePath := filepath.Join(directory, name)
	require.NoError(testInstance, os.WriteFile(filePath, []byte(content), 0o644))
	return filePath
}

func TestComparatorCompare(testInstance *testing.T) {
	directory := testInstance.TempDir()
	expectedPath := writeFile(testInstance, directory, "expected.md", "abc")
	identicalPath := writeFile(testInstance, directory, "identical.md", "abc")
	differentPath := writeFile(testInstance, directory, "different.md", "xyz")
	missingPath := filepath.Join(directory, "missing.md")

	testCases := []struct {
		name               string
		truncate           int
		expectedPath       string
		actualPath         string
		expectedComparison drift.Comparison
		expectMissing      bool
		expectExpectedSide bool
	}{
		{
			name:               "identical_bytes",
			expectedPath:       expectedPath,
			actualPath:         identicalPath,
			expectedComparison: drift.Comparison{Verdict: drift.VerdictAligned, ExpectedDigest: abcDigestConstant, ActualDigest: abcDigestConstant},
		},
		{
			name:               "different_bytes",
			expectedPath:       expectedPath,
			actualPath:         differentPath,
			expectedComparison: drift.Comparison{Verdict: drift.VerdictDrift, ExpectedDigest: abcDigestConstant, ActualDigest: xyzDigestConstant},
		},
		{
			name:               "truncated_digests",
			truncate:           12,
			expectedPath:       expectedPath,
			actualPath:         identicalPath,
			expectedComparison: drift.Comparison{Verdict: drift.VerdictAligned, ExpectedDigest: abcDigestConstant[:12], ActualDigest: abcDigestConstant[:12]},
		},
		{name: "missing_expected", expectedPath: missingPath, actualPath: identicalPath, expectMissing: true, expectExpectedSide: true},
		{name: "missing_actual", expectedPath: expectedPath, actualPath: missingPath, expectMissing: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			comparison, compareError := drift.NewComparator(testCase.truncate).Compare(testCase.expectedPath, testCase.actualPath)
			if testCase.expectMissing {
				var missingError drift.MissingFileError
				require.True(testInstance, errors.As(compareError, &missingError))
				require.Equal(testInstance, testCase.expectExpectedSide, missingError.Expected)
				require.Equal(testInstance, missingPath, missingError.Path)
				return
			}
			require.NoError(testInstance, compareError)
			require.Equal(testInstance, testCase.expectedComparison, comparison)
		})
	}
}

func TestCanonDriftCommand(testInstance *testing.T) {
	directory := testInstance.TempDir()
	expectedPath := writeFile(testInstance, directory, "expected.md", "abc")
	identicalPath := writeFile(testInstance, directory, "identical.md", "abc")
	differentPath := writeFile(testInstance, directory, "different.md", "xyz")
	missingPath := filepath.Join(directory, "missing.md")

	testCases := []struct {
		name             string
		arguments        []string
		expectedExitCode int
		expectedOutput   string
	}{
		{
			name:             "aligned",
			arguments:        []string{"--expected-file", expectedPath, "--actual-file", identicalPath},
			expectedExitCode: 0,
			expectedOutput:   "ALIGNED: " + abcDigestConstant + "\n",
		},
		{
			name:             "drift_truncated",
			arguments:        []string{"--expected-file", expectedPath, "--actual-file", differentPath, "--truncate", "12"},
			expectedExitCode: drift.DriftExitCodeConstant,
			expectedOutput:   "DRIFT: expected " + abcDigestConstant[:12] + " but found " + xyzDigestConstant[:12] + "\n",
		},
		{
			name:             "missing_actual",
			arguments:        []string{"--expected-file", expectedPath, "--actual-file", missingPath},
			expectedExitCode: drift.MissingFileExitCodeConstant,
			expectedOutput:   "ERROR: Actual file missing: " + missingPath + "\n",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			builder := drift.CommandBuilder{}
			command, buildError := builder.Build()
			require.NoError(testInstance, buildError)

			var outputBuffer bytes.Buffer
			command.SetOut(&outputBuffer)
			command.SetArgs(testCase.arguments)
			command.SilenceUsage = true
			command.SilenceErrors = true

			executionError := command.Execute()
			require.Equal(testInstance, testCase.expectedExitCode, utils.ExitCodeFor(executionError))
			require.False(testInstance, utils.ShouldReport(executionError))
			require.Equal(testInstance, testCase.expectedOutput, outputBuffer.String())
		})
	}
}

func TestCanonDriftCommandUsageErrors(testInstance *testing.T) {
	testCases := []struct {
		name      string
		arguments []string
	}{
		{name: "missing_actual_file", arguments: []string{}},
		{name: "negative_truncation", arguments: []string{"--actual-file", "actual.md", "--truncate", "-1"}},
		{name: "unknown_flag", arguments: []string{"--actual", "actual.md"}},
		{name: "positional_argument", arguments: []string{"actual.md"}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			builder := drift.CommandBuilder{
				ConfigurationProvider: func() drift.CommandConfiguration {
					return drift.CommandConfiguration{ExpectedFile: "expected.md"}
				},
			}
			command, buildError := builder.Build()
			require.NoError(testInstance, buildError)
			command.SetArgs(testCase.arguments)
			command.SetOut(&bytes.Buffer{})
			command.SetErr(&bytes.Buffer{})
			command.SilenceUsage = true
			command.SilenceErrors = true

			executionError := command.Execute()
			require.Error(testInstance, executionError)
			require.True(testInstance, utils.ShouldReport(executionError))
			require.Equal(testInstance, utils.UsageExitCodeConstant, utils.ExitCodeFor(executionError))
			require.NotEqual(testInstance, drift.DriftExitCodeConstant, utils.ExitCodeFor(executionError))
		})
	}
}
