package utils_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/canonsync/internal/utils"
)

type recordingProcessRunner struct {
	executable string
	options    utils.CommandOptions
	result     utils.CommandResult
	err        error
}

func (runner *recordingProcessRunner) Run(_ context.Context, executable string, options utils.CommandOptions) (utils.CommandResult, error) {
	runner.executable = executable
	runner.options = options
	return runner.result, runner.err
}

func TestCommandExecutorRunsGit(testInstance *testing.T) {
	runner := &recordingProcessRunner{result: utils.CommandResult{StandardOutput: "git@github.com:acme/service.git\n"}}
	executor := utils.NewCommandExecutor(runner)

	result, executionError := executor.ExecuteGitCommand(context.Background(), utils.CommandOptions{
		Arguments:        []string{"remote", "get-url", "origin"},
		WorkingDirectory: "/srv/service",
	})
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, "git", runner.executable)
	require.Equal(testInstance, []string{"remote", "get-url", "origin"}, runner.options.Arguments)
	require.Equal(testInstance, "/srv/service", runner.options.WorkingDirectory)
	require.Equal(testInstance, "git@github.com:acme/service.git\n", result.StandardOutput)
}

func TestCommandExecutorFailures(testInstance *testing.T) {
	testCases := []struct {
		name     string
		executor *utils.CommandExecutor
	}{
		{name: "nil_runner", executor: utils.NewCommandExecutor(nil)},
		{name: "runner_error", executor: utils.NewCommandExecutor(&recordingProcessRunner{err: errors.New("exec: \"git\": executable file not found in $PATH")})},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			_, executionError := testCase.executor.ExecuteGitCommand(context.Background(), utils.CommandOptions{})
			require.Error(testInstance, executionError)
		})
	}
}

func TestOSProcessRunnerReportsMissingExecutable(testInstance *testing.T) {
	_, runError := utils.NewOSProcessRunner().Run(context.Background(), "canonsync-missing-executable", utils.CommandOptions{Arguments: []string{"--help"}})
	require.Error(testInstance, runError)
	require.Contains(testInstance, runError.Error(), "canonsync-missing-executable --help")
}
