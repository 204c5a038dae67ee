package policyscan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/canonsync/internal/utils"
)

const (
	commandUseConstant              = "rca-validate"
	commandShortDescriptionConstant = "Validate structured RCA evidence"
	commandLongDescriptionConstant  = "rca-validate checks an RCA document for required fields and minimizing language. Gate results decide whether the RCA is required: a stop-and-fix directive or any failed gate makes it mandatory."

	rcaFlagNameConstant          = "rca"
	rcaFlagUsageConstant         = "Path to the RCA JSON."
	gateResultsFlagNameConstant  = "gate-results"
	gateResultsFlagUsageConstant = "Optional gate results JSON used to determine whether an RCA is required."
	patternsFlagNameConstant     = "patterns"
	patternsFlagUsageConstant    = "Minimizing language pattern catalog (default: $MINIMIZING_LANGUAGE_PATTERNS_PATH, else policy/minimizing_language_patterns.json in the working directory or a parent)."

	configurationKeySeparatorConstant = "."
	configurationRCAKeyConstant       = "rca"
	configurationGateResultsKey       = "gate_results"
	configurationPatternsKeyConstant  = "patterns"
	rcaFlagRequiredMessageConstant    = "--rca is required"
	verdictOutputTemplateConstant     = "%s\n"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies persisted settings for the RCA command.
type ConfigurationProvider func() CommandConfiguration

// CommandConfiguration captures persistent settings for the RCA command.
type CommandConfiguration struct {
	RCA         string `mapstructure:"rca"`
	GateResults string `mapstructure:"gate_results"`
	Patterns    string `mapstructure:"patterns"`
}

// DefaultConfigurationValues returns viper defaults for the RCA command rooted at the provided key.
func DefaultConfigurationValues(configurationKey string) map[string]any {
	prefix := configurationKey + configurationKeySeparatorConstant
	return map[string]any{
		prefix + configurationRCAKeyConstant:      "",
		prefix + configurationGateResultsKey:      "",
		prefix + configurationPatternsKeyConstant: "",
	}
}

// CommandBuilder assembles the rca-validate cobra command.
type CommandBuilder struct {
	LoggerProvider           LoggerProvider
	ConfigurationProvider    ConfigurationProvider
	EnvironmentLookup        EnvironmentLookup
	WorkingDirectoryProvider WorkingDirectoryProvider
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
	command.Flags().String(rcaFlagNameConstant, "", rcaFlagUsageConstant)
	command.Flags().String(gateResultsFlagNameConstant, "", gateResultsFlagUsageConstant)
	command.Flags().String(patternsFlagNameConstant, "", patternsFlagUsageConstant)
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration(command)
	if len(configuration.RCA) == 0 {
		return utils.NewUsageError(errors.New(rcaFlagRequiredMessageConstant))
	}

	catalog := NewPatternCatalog(configuration.Patterns, builder.EnvironmentLookup, builder.WorkingDirectoryProvider)
	validator, validatorError := NewRCAValidator(catalog, builder.resolveLogger())
	if validatorError != nil {
		return validatorError
	}

	verdict, validationError := validator.Validate(configuration.RCA, configuration.GateResults)
	if validationError != nil {
		return validationError
	}

	fmt.Fprintf(command.OutOrStdout(), verdictOutputTemplateConstant, verdict.Message)
	if verdict.ExitCode != PassExitCodeConstant {
		return utils.NewExitStatusError(verdict.ExitCode, nil)
	}
	return nil
}

func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) CommandConfiguration {
	configuration := CommandConfiguration{}
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}
	flags := command.Flags()
	if flags.Changed(rcaFlagNameConstant) {
		configuration.RCA, _ = flags.GetString(rcaFlagNameConstant)
	}
	if flags.Changed(gateResultsFlagNameConstant) {
		configuration.GateResults, _ = flags.GetString(gateResultsFlagNameConstant)
	}
	if flags.Changed(patternsFlagNameConstant) {
		configuration.Patterns, _ = flags.GetString(patternsFlagNameConstant)
	}
	configuration.RCA = strings.TrimSpace(configuration.RCA)
	configuration.GateResults = strings.TrimSpace(configuration.GateResults)
	configuration.Patterns = strings.TrimSpace(configuration.Patterns)
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
