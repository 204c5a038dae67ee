package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

const (
	gitExecutableNameConstant              = "git"
	processRunnerNotConfiguredMessageConst = "process runner not configured"
	commandDescriptionSeparatorConstant    = " "
	commandFailureTemplateConstant         = "%s: %w"
)

// CommandOptions describes a git invocation.
type CommandOptions struct {
	Arguments        []string
	WorkingDirectory string
}

// CommandResult captures the observable results of executing a command.
// A non-zero ExitCode is reported through the result rather than as an error.
type CommandResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// ProcessRunner runs an executable with the provided options.
type ProcessRunner interface {
	Run(executionContext context.Context, executable string, options CommandOptions) (CommandResult, error)
}

// CommandExecutor runs git through a ProcessRunner.
type CommandExecutor struct {
	processRunner ProcessRunner
}

// NewCommandExecutor builds a CommandExecutor around the provided runner.
func NewCommandExecutor(processRunner ProcessRunner) *CommandExecutor {
	return &CommandExecutor{processRunner: processRunner}
}

// ExecuteGitCommand runs git with the provided options.
func (executor *CommandExecutor) ExecuteGitCommand(executionContext context.Context, options CommandOptions) (CommandResult, error) {
	if executor == nil || executor.processRunner == nil {
		return CommandResult{}, errors.New(processRunnerNotConfiguredMessageConst)
	}
	return executor.processRunner.Run(executionContext, gitExecutableNameConstant, options)
}

// OSProcessRunner executes commands through os/exec.
type OSProcessRunner struct{}

// NewOSProcessRunner creates a runner backed by os/exec.
func NewOSProcessRunner() OSProcessRunner {
	return OSProcessRunner{}
}

// Run starts the executable and waits for it. Failures to start, including a missing
// executable or a cancelled context, are returned as errors.
func (OSProcessRunner) Run(executionContext context.Context, executable string, options CommandOptions) (CommandResult, error) {
	process := exec.CommandContext(executionContext, executable, options.Arguments...)
	process.Dir = options.WorkingDirectory

	var standardOutput bytes.Buffer
	var standardError bytes.Buffer
	process.Stdout = &standardOutput
	process.Stderr = &standardError

	result := CommandResult{}
	runError := process.Run()
	result.StandardOutput = standardOutput.String()
	result.StandardError = standardError.String()
	if runError == nil {
		return result, nil
	}

	var exitError *exec.ExitError
	if errors.As(runError, &exitError) && executionContext.Err() == nil {
		result.ExitCode = exitError.ExitCode()
		return result, nil
	}
	commandDescription := strings.Join(append([]string{executable}, options.Arguments...), commandDescriptionSeparatorConstant)
	return CommandResult{}, fmt.Errorf(commandFailureTemplateConstant, commandDescription, runError)
}
