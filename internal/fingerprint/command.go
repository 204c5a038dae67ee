package fingerprint

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/canonsync/internal/faults"
	"github.com/temirov/canonsync/internal/utils"
)

const (
	commandUseConstant                = "canon-hash <path>"
	commandShortDescriptionConstant   = "Print the SHA-256 fingerprint of a file"
	commandLongDescriptionConstant    = "canon-hash streams a file through SHA-256 and prints the hex digest, optionally truncated to the inventory prefix length."
	truncateFlagNameConstant          = "truncate"
	truncateFlagUsageConstant         = "Truncate the digest to N characters (0 keeps the full digest)."
	fileNotFoundTemplateConstant      = "file not found: %s"
	digestOutputTemplateConstant      = "%s\n"
	fingerprintComputedMessage        = "fingerprint computed"
	logFieldPathConstant              = "path"
	logFieldDigestConstant            = "digest"
	missingFileExitCodeConstant       = 2
	commandArgumentCountConstant      = 1
	negativeTruncationMessageConstant = "truncate must not be negative"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies persisted settings for the hash command.
type ConfigurationProvider func() CommandConfiguration

// CommandConfiguration captures persistent settings for the hash command.
type CommandConfiguration struct {
	Truncate int `mapstructure:"truncate"`
}

// DefaultConfigurationValues returns viper defaults for the hash command rooted at the provided key.
func DefaultConfigurationValues(configurationKey string) map[string]any {
	return map[string]any{
		configurationKey + "." + truncateFlagNameConstant: 0,
	}
}

// CommandBuilder assembles the canon-hash cobra command.
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
		Args:  utils.UsageArguments(cobra.ExactArgs(commandArgumentCountConstant)),
		RunE:  builder.run,
	}
	command.SetFlagErrorFunc(utils.FlagUsageError)
	command.Flags().Int(truncateFlagNameConstant, 0, truncateFlagUsageConstant)
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()
	truncatedLength := configuration.Truncate
	if command.Flags().Changed(truncateFlagNameConstant) {
		truncatedLength, _ = command.Flags().GetInt(truncateFlagNameConstant)
	}
	if truncatedLength < 0 {
		return utils.NewUsageError(errors.New(negativeTruncationMessageConstant))
	}

	targetPath := arguments[0]
	hasher := NewHasherWithTruncation(truncatedLength)
	fingerprint, digestError := hasher.DigestFile(targetPath)
	if digestError != nil {
		if errors.Is(digestError, faults.ErrNotFound) {
			return utils.NewExitStatusError(missingFileExitCodeConstant, fmt.Errorf(fileNotFoundTemplateConstant, targetPath))
		}
		return digestError
	}

	builder.resolveLogger().Debug(
		fingerprintComputedMessage,
		zap.String(logFieldPathConstant, targetPath),
		zap.String(logFieldDigestConstant, fingerprint.Full),
	)

	fmt.Fprintf(command.OutOrStdout(), digestOutputTemplateConstant, fingerprint.Truncated)
	return nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return CommandConfiguration{}
	}
	return builder.ConfigurationProvider()
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
