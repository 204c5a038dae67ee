package pathutils_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pathutils "github.com/temirov/canonsync/internal/utils/path"
)

func TestPathResolverResolve(testInstance *testing.T) {
	homeDirectory := filepath.Join(string(filepath.Separator), "home", "operator")
	workingDirectory := filepath.Join(string(filepath.Separator), "work", "widgets")

	testCases := []struct {
		name         string
		candidate    string
		fallback     string
		homeError    error
		expectedPath string
	}{
		{name: "absolute", candidate: filepath.Join(workingDirectory, "..", "governance"), expectedPath: filepath.Join(string(filepath.Separator), "work", "governance")},
		{name: "relative", candidate: "governance", expectedPath: filepath.Join(workingDirectory, "governance")},
		{name: "fallback", candidate: "  ", fallback: ".", expectedPath: workingDirectory},
		{name: "tilde_only", candidate: "~", expectedPath: homeDirectory},
		{name: "tilde_prefix", candidate: "~/governance", expectedPath: filepath.Join(homeDirectory, "governance")},
		{name: "tilde_without_home", candidate: "~/governance", homeError: errors.New("no home"), expectedPath: filepath.Join(workingDirectory, "~", "governance")},
		{name: "empty", candidate: "", fallback: "", expectedPath: ""},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			resolver := pathutils.NewPathResolverWithProviders(
				func() (string, error) { return homeDirectory, testCase.homeError },
				func() (string, error) { return workingDirectory, nil },
			)
			require.Equal(testInstance, testCase.expectedPath, resolver.Resolve(testCase.candidate, testCase.fallback))
		})
	}
}
