package utils

import "github.com/spf13/cobra"

// UsageExitCodeConstant is returned for invalid flags, arguments or configuration. It stays apart
// from exit status 1, which commands reserve for compliance outcomes such as drift.
const UsageExitCodeConstant = 2

// NewUsageError marks cause as a usage failure.
func NewUsageError(cause error) ExitStatusError {
	return NewExitStatusError(UsageExitCodeConstant, cause)
}

// FlagUsageError adapts NewUsageError to cobra's flag error hook.
func FlagUsageError(_ *cobra.Command, flagError error) error {
	return NewUsageError(flagError)
}

// UsageArguments wraps an argument validator so that its failures carry the usage exit status.
func UsageArguments(validator cobra.PositionalArgs) cobra.PositionalArgs {
	return func(command *cobra.Command, arguments []string) error {
		if validationError := validator(command, arguments); validationError != nil {
			return NewUsageError(validationError)
		}
		return nil
	}
}
