package generator

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/canonsync/internal/inventory"
	"github.com/temirov/canonsync/internal/utils"
	pathutils "github.com/temirov/canonsync/internal/utils/path"
)

// FailureExitCodeConstant is returned when the documents cannot be read or the inventory cannot be written.
const FailureExitCodeConstant = 2

const (
	commandUseConstant              = "canon-inventory-regenerate"
	commandShortDescriptionConstant = "Regenerate governance/CANON_INVENTORY.json from governance documents"
	commandLongDescriptionConstant  = "canon-inventory-regenerate fingerprints every document under governance/canon and governance/policy, reads header metadata and rewrites the central inventory, keeping layering classifications recorded in the previous inventory."

	rootFlagNameConstant    = "root"
	rootFlagUsageConstant   = "Root of the governance repository (default: current directory)."
	outputFlagNameConstant  = "output"
	outputFlagUsageConstant = "Output path (default: <root>/governance/CANON_INVENTORY.json)."

	defaultRootConstant               = "."
	summaryRuleWidthConstant          = 70
	summaryRuleCharacterConstant      = "="
	titleConstant                     = "CANON_INVENTORY.json Regeneration"
	basePathTemplateConstant          = "Base path: %s\n"
	outputPathTemplateConstant        = "Output: %s\n"
	savedTemplateConstant             = "✓ Inventory saved to %s\n"
	summaryTitleConstant              = "SUMMARY"
	totalCanonsTemplateConstant       = "Total canons: %d\n"
	lastUpdatedTemplateConstant       = "Last updated: %s\n"
	generationTimestampTemplate       = "Generation timestamp: %s\n"
	layeringHeaderConstant            = "\nBy layer_down_status:\n"
	publicAPITallyTemplateConstant    = "  PUBLIC_API: %d\n"
	internalTallyTemplateConstant     = "  INTERNAL:   %d\n"
	optionalTallyTemplateConstant     = "  OPTIONAL:   %d\n"
	inventoryWrittenMessageConstant   = "Canon inventory regenerated"
	logFieldOutputPathConstant        = "output_path"
	loaderConstructionTemplateConst   = "unable to prepare inventory loader: %w"
	configurationRootKeyConstant      = "root"
	configurationOutputKeyConstant    = "output"
	configurationKeySeparatorConstant = "."
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies persisted settings for the regenerate command.
type ConfigurationProvider func() CommandConfiguration

// CommandConfiguration captures persistent settings for the regenerate command.
type CommandConfiguration struct {
	Root   string `mapstructure:"root"`
	Output string `mapstructure:"output"`
}

// DefaultConfigurationValues returns viper defaults for the regenerate command rooted at the provided key.
func DefaultConfigurationValues(configurationKey string) map[string]any {
	prefix := configurationKey + configurationKeySeparatorConstant
	return map[string]any{
		prefix + configurationRootKeyConstant:   defaultRootConstant,
		prefix + configurationOutputKeyConstant: "",
	}
}

// CommandBuilder assembles the canon-inventory-regenerate cobra command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	Clock                 Clock
	PathResolver          *pathutils.PathResolver
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
	command.Flags().String(rootFlagNameConstant, "", rootFlagUsageConstant)
	command.Flags().String(outputFlagNameConstant, "", outputFlagUsageConstant)
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration(command)
	pathResolver := builder.PathResolver
	if pathResolver == nil {
		pathResolver = pathutils.NewPathResolver()
	}
	root := pathResolver.Resolve(configuration.Root, defaultRootConstant)
	priorInventoryPath := inventory.InventoryPath(root)
	outputPath := pathResolver.Resolve(configuration.Output, priorInventoryPath)

	logger := builder.resolveLogger()
	loader, loaderError := inventory.NewLoader()
	if loaderError != nil {
		return fmt.Errorf(loaderConstructionTemplateConst, loaderError)
	}

	writer := command.OutOrStdout()
	heavyRule := strings.Repeat(summaryRuleCharacterConstant, summaryRuleWidthConstant)
	fmt.Fprintln(writer, heavyRule)
	fmt.Fprintln(writer, titleConstant)
	fmt.Fprintln(writer, heavyRule)
	fmt.Fprintf(writer, basePathTemplateConstant, root)
	fmt.Fprintf(writer, outputPathTemplateConstant, outputPath)
	fmt.Fprintln(writer)

	centralInventory, generateError := NewGenerator(loader, builder.Clock, logger).Generate(root, priorInventoryPath)
	if generateError != nil {
		return utils.NewExitStatusError(FailureExitCodeConstant, generateError)
	}
	if writeError := WriteInventory(outputPath, centralInventory); writeError != nil {
		return utils.NewExitStatusError(FailureExitCodeConstant, writeError)
	}
	logger.Info(inventoryWrittenMessageConstant,
		zap.String(logFieldOutputPathConstant, outputPath),
		zap.Int(logFieldCanonCountConstant, centralInventory.TotalCanons),
	)

	fmt.Fprintf(writer, savedTemplateConstant, outputPath)
	renderSummary(writer, heavyRule, centralInventory)
	return nil
}

func renderSummary(writer io.Writer, heavyRule string, centralInventory inventory.CentralInventory) {
	tally := Tally(centralInventory)
	fmt.Fprintln(writer)
	fmt.Fprintln(writer, heavyRule)
	fmt.Fprintln(writer, summaryTitleConstant)
	fmt.Fprintln(writer, heavyRule)
	fmt.Fprintf(writer, totalCanonsTemplateConstant, centralInventory.TotalCanons)
	fmt.Fprintf(writer, lastUpdatedTemplateConstant, centralInventory.LastUpdated)
	fmt.Fprintf(writer, generationTimestampTemplate, centralInventory.GenerationTimestamp)
	fmt.Fprint(writer, layeringHeaderConstant)
	fmt.Fprintf(writer, publicAPITallyTemplateConstant, tally.PublicAPI)
	fmt.Fprintf(writer, internalTallyTemplateConstant, tally.Internal)
	fmt.Fprintf(writer, optionalTallyTemplateConstant, tally.Optional)
	fmt.Fprintln(writer, heavyRule)
}

func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) CommandConfiguration {
	configuration := CommandConfiguration{Root: defaultRootConstant}
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}
	flags := command.Flags()
	if flags.Changed(rootFlagNameConstant) {
		configuration.Root, _ = flags.GetString(rootFlagNameConstant)
	}
	if flags.Changed(outputFlagNameConstant) {
		configuration.Output, _ = flags.GetString(outputFlagNameConstant)
	}
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
