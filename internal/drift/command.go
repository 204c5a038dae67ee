package drift

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/canonsync/internal/utils"
)

const (
	commandUseConstant              = "canon-drift"
	commandShortDescriptionConstant = "Compare two files by SHA-256 to detect drift"
	commandLongDescriptionConstant  = "canon-drift fingerprints a canonical file and a local copy and reports ALIGNED (exit 0), DRIFT (exit 1) or a missing file (exit 2)."

	expectedFileFlagNameConstant  = "expected-file"
	expectedFileFlagUsageConstant = "Canonical file."
	actualFileFlagNameConstant    = "actual-file"
	actualFileFlagUsageConstant   = "Local file."
	truncateFlagNameConstant      = "truncate"
	truncateFlagUsageConstant     = "Truncate hashes to N characters (0 compares full digests)."

	alignedOutputTemplateConstant      = "ALIGNED: %s\n"
	driftOutputTemplateConstant        = "DRIFT: expected %s but found %s\n"
	missingFileOutputTemplateConstant  = "ERROR: %s\n"
	missingPathsMessageConstant        = "both --expected-file and --actual-file are required"
	negativeTruncationMessageConstant  = "truncate must not be negative"
	comparisonCompletedMessageConstant = "Drift comparison completed"
	logFieldExpectedPathConstant       = "expected_file"
	logFieldActualPathConstant         = "actual_file"
	logFieldVerdictConstant            = "verdict"

	// DriftExitCodeConstant is returned when the fingerprints differ.
	DriftExitCodeConstant = 1
	// MissingFileExitCodeConstant is returned when either file is absent.
	MissingFileExitCodeConstant = 2
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies persisted settings for the drift command.
type ConfigurationProvider func() CommandConfiguration

// CommandConfiguration captures persistent settings for the drift command.
type CommandConfiguration struct {
	ExpectedFile string `mapstructure:"expected_file"`
	ActualFile   string `mapstructure:"actual_file"`
	Truncate     int    `mapstructure:"truncate"`
}

// DefaultConfigurationValues returns viper defaults for the drift command rooted at the provided key.
func DefaultConfigurationValues(configurationKey string) map[string]any {
	return map[string]any{
		configurationKey + ".expected_file": "",
		configurationKey + ".actual_file":   "",
		configurationKey + ".truncate":      0,
	}
}

// CommandBuilder assembles the canon-drift cobra command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
}

// Build constructs the cobra command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  utils.UsageArguments(cobra.NoArgs),
		RunE:  builder.run,
	}
	command.SetFlagErrorFunc(utils.FlagUsageError)
	command.Flags().String(expectedFileFlagNameConstant, "", expectedFileFlagUsageConstant)
	command.Flags().String(actualFileFlagNameConstant, "", actualFileFlagUsageConstant)
	command.Flags().Int(truncateFlagNameConstant, 0, truncateFlagUsageConstant)
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration(command)
	if len(configuration.ExpectedFile) == 0 || len(configuration.ActualFile) == 0 {
		return utils.NewUsageError(errors.New(missingPathsMessageConstant))
	}
	if configuration.Truncate < 0 {
		return utils.NewUsageError(errors.New(negativeTruncationMessageConstant))
	}

	comparison, comparisonError := NewComparator(configuration.Truncate).Compare(configuration.ExpectedFile, configuration.ActualFile)
	if comparisonError != nil {
		var missingError MissingFileError
		if errors.As(comparisonError, &missingError) {
			fmt.Fprintf(command.OutOrStdout(), missingFileOutputTemplateConstant, missingError.Error())
			return utils.NewExitStatusError(MissingFileExitCodeConstant, nil)
		}
		return comparisonError
	}

	builder.resolveLogger().Debug(comparisonCompletedMessageConstant,
		zap.String(logFieldExpectedPathConstant, configuration.ExpectedFile),
		zap.String(logFieldActualPathConstant, configuration.ActualFile),
		zap.String(logFieldVerdictConstant, string(comparison.Verdict)),
	)

	if comparison.Verdict == VerdictAligned {
		fmt.Fprintf(command.OutOrStdout(), alignedOutputTemplateConstant, comparison.ExpectedDigest)
		return nil
	}
	fmt.Fprintf(command.OutOrStdout(), driftOutputTemplateConstant, comparison.ExpectedDigest, comparison.ActualDigest)
	return utils.NewExitStatusError(DriftExitCodeConstant, nil)
}

func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) CommandConfiguration {
	configuration := CommandConfiguration{}
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	flags := command.Flags()
	if flags.Changed(expectedFileFlagNameConstant) {
		configuration.ExpectedFile, _ = flags.GetString(expectedFileFlagNameConstant)
	}
	if flags.Changed(actualFileFlagNameConstant) {
		configuration.ActualFile, _ = flags.GetString(actualFileFlagNameConstant)
	}
	if flags.Changed(truncateFlagNameConstant) {
		configuration.Truncate, _ = flags.GetInt(truncateFlagNameConstant)
	}

	configuration.ExpectedFile = strings.TrimSpace(configuration.ExpectedFile)
	configuration.ActualFile = strings.TrimSpace(configuration.ActualFile)
	return configuration
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
