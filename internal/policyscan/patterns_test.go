package policyscan_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/canonsync/internal/policyscan"
)

const validCatalogContent = `{"patterns": ["just a", {"pattern": "minor\\s+issue", "rationale": "downplays impact"}]}`

func writeFile(testInstance *testing.T, filePath string, content string) string {
	testInstance.Helper()
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(filePath), 0o755))
	require.NoError(testInstance, os.WriteFile(filePath, []byte(content), 0o644))
	return filePath
}

func noEnvironment(string) (string, bool) {
	return "", false
}

func TestPatternCatalogResolution(testInstance *testing.T) {
	root := testInstance.TempDir()
	explicitPath := writeFile(testInstance, filepath.Join(root, "explicit.json"), `{"patterns": ["explicit"]}`)
	environmentPath := writeFile(testInstance, filepath.Join(root, "environment.json"), `{"patterns": ["environment"]}`)
	discoveredPath := writeFile(testInstance, filepath.Join(root, "policy", "minimizing_language_patterns.json"), `{"patterns": ["discovered"]}`)
	nestedDirectory := filepath.Join(root, "a", "b")
	require.NoError(testInstance, os.MkdirAll(nestedDirectory, 0o755))

	environment := func(name string) (string, bool) {
		if name == policyscan.PatternsPathEnvironmentVariableConstant {
			return environmentPath, true
		}
		return "", false
	}
	workingDirectory := func() (string, error) {
		return nestedDirectory, nil
	}

	testCases := []struct {
		name             string
		explicitPath     string
		environment      policyscan.EnvironmentLookup
		expectedPath     string
		expectedPatterns []string
	}{
		{name: "explicit_path", explicitPath: explicitPath, environment: environment, expectedPath: explicitPath, expectedPatterns: []string{"explicit"}},
		{name: "environment_variable", environment: environment, expectedPath: environmentPath, expectedPatterns: []string{"environment"}},
		{name: "parent_search", environment: noEnvironment, expectedPath: discoveredPath, expectedPatterns: []string{"discovered"}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			catalog := policyscan.NewPatternCatalog(testCase.explicitPath, testCase.environment, workingDirectory)
			patterns, patternsError := catalog.Patterns()
			require.NoError(testInstance, patternsError)
			require.Equal(testInstance, testCase.expectedPatterns, patterns)
			require.Equal(testInstance, testCase.expectedPath, catalog.Path())
		})
	}
}

func TestPatternCatalogFailures(testInstance *testing.T) {
	root := testInstance.TempDir()

	testCases := []struct {
		name            string
		content         string
		skipFile        bool
		expectedMessage string
	}{
		{name: "missing_file", skipFile: true, expectedMessage: "Missing minimizing language patterns file: "},
		{name: "invalid_json", content: `{"patterns": [`, expectedMessage: "Invalid minimizing language patterns JSON"},
		{name: "empty_list", content: `{"patterns": []}`, expectedMessage: "Minimizing language patterns list missing or empty"},
		{name: "missing_list", content: `{"other": true}`, expectedMessage: "Minimizing language patterns list missing or empty"},
		{name: "invalid_entry", content: `{"patterns": [42]}`, expectedMessage: "Invalid minimizing language pattern entry"},
		{name: "uncompilable_expression", content: `{"patterns": ["(unclosed"]}`, expectedMessage: "Invalid minimizing language pattern \"(unclosed\""},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			catalogPath := filepath.Join(root, testCase.name+".json")
			if !testCase.skipFile {
				writeFile(testInstance, catalogPath, testCase.content)
			}
			catalog := policyscan.NewPatternCatalog(catalogPath, noEnvironment, nil)
			_, detectError := catalog.Detect("anything")
			require.Error(testInstance, detectError)
			require.Contains(testInstance, detectError.Error(), testCase.expectedMessage)
		})
	}
}

func TestPatternCatalogUnresolved(testInstance *testing.T) {
	isolatedDirectory := testInstance.TempDir()
	catalog := policyscan.NewPatternCatalog("", noEnvironment, func() (string, error) {
		return isolatedDirectory, nil
	})
	_, patternsError := catalog.Patterns()
	require.EqualError(testInstance, patternsError, "Missing minimizing language patterns file. Set MINIMIZING_LANGUAGE_PATTERNS_PATH to override.")
}

func TestPatternCatalogDetectIgnoresCaseAndMemoizes(testInstance *testing.T) {
	catalogPath := writeFile(testInstance, filepath.Join(testInstance.TempDir(), "catalog.json"), validCatalogContent)
	catalog := policyscan.NewPatternCatalog(catalogPath, noEnvironment, nil)

	matches, detectError := catalog.Detect("It was JUST A Minor   Issue.")
	require.NoError(testInstance, detectError)
	require.Equal(testInstance, []string{"just a", `minor\s+issue`}, matches)

	require.NoError(testInstance, os.Remove(catalogPath))
	cleanMatches, cleanError := catalog.Detect("The deployment failed because of a missing migration.")
	require.NoError(testInstance, cleanError)
	require.Empty(testInstance, cleanMatches)
}
