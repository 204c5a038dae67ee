package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/canonsync/internal/canonsync"
	"github.com/temirov/canonsync/internal/drift"
	"github.com/temirov/canonsync/internal/fingerprint"
	"github.com/temirov/canonsync/internal/generator"
	"github.com/temirov/canonsync/internal/policyscan"
	"github.com/temirov/canonsync/internal/utils"
	"github.com/temirov/canonsync/internal/utils/flags"
)

const (
	applicationNameConstant                 = "canonsync"
	applicationShortDescriptionConstant     = "Governance canon inventory sync and compliance tooling"
	applicationLongDescriptionConstant      = "canonsync compares the governance canons layered down into a repository with the central canon inventory, records a compliance snapshot and ships the supporting fingerprint, drift, inventory and RCA tools."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level (debug, info, warn, error)."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format."
	versionFlagNameConstant                 = "version"
	versionFlagUsageConstant                = "Print the canonsync version and exit."
	versionOutputTemplateConstant           = "%s version: %s\n"
	developmentVersionConstant              = "dev"
	buildInfoDevelopmentVersionConstant     = "(devel)"
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	environmentPrefixConstant               = "CANONSYNC"
	configurationSearchPathEnvironmentName  = "CANONSYNC_CONFIG_SEARCH_PATH"
	dotEnvFileNameConstant                  = ".env"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationDotEnvFieldConstant        = "dotenv_files"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	commandBuildErrorTemplateConstant       = "unable to build %s command: %w"
	unknownCommandTemplateConstant          = "unknown command %q"
	toolsConfigurationKeyConstant           = "tools"
	syncConfigurationKeyConstant            = toolsConfigurationKeyConstant + ".sync"
	driftConfigurationKeyConstant           = toolsConfigurationKeyConstant + ".drift"
	hashConfigurationKeyConstant            = toolsConfigurationKeyConstant + ".hash"
	regenerateConfigurationKeyConstant      = toolsConfigurationKeyConstant + ".regenerate"
	rcaConfigurationKeyConstant             = toolsConfigurationKeyConstant + ".rca"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Tools  ApplicationToolsConfiguration  `mapstructure:"tools"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationToolsConfiguration holds configuration for each subcommand.
type ApplicationToolsConfiguration struct {
	Sync       canonsync.CommandConfiguration   `mapstructure:"sync"`
	Drift      drift.CommandConfiguration       `mapstructure:"drift"`
	Hash       fingerprint.CommandConfiguration `mapstructure:"hash"`
	Regenerate generator.CommandConfiguration   `mapstructure:"regenerate"`
	RCA        policyscan.CommandConfiguration  `mapstructure:"rca"`
}

type commandBuilder interface {
	Build() (*cobra.Command, error)
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	versionFlagValue      bool
	versionResolver       func(context.Context) string
	exitFunction          func(int)
	buildErrors           []error
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		configurationSearchPaths(),
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())
	configurationLoader.SetDotEnvFiles(dotEnvFileNameConstant)

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		logger:              zap.NewNop(),
		versionResolver:     resolveBuildVersion,
		exitFunction:        os.Exit,
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          utils.UsageArguments(cobra.NoArgs),
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			if initializationError := application.initializeConfiguration(command); initializationError != nil {
				return utils.NewUsageError(initializationError)
			}
			return nil
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			if application.versionFlagValue {
				return application.printVersion(command.Context(), command.OutOrStdout())
			}
			return command.Help()
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.SetFlagErrorFunc(utils.FlagUsageError)
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", flags.FormatChoiceUsage(string(utils.LogFormatConsole), utils.SupportedLogFormats(), logFormatFlagUsageConstant))
	cobraCommand.Flags().BoolVar(&application.versionFlagValue, versionFlagNameConstant, false, versionFlagUsageConstant)

	loggerProvider := func() *zap.Logger {
		return application.logger
	}

	builders := []commandBuilder{
		&canonsync.CommandBuilder{
			LoggerProvider: loggerProvider,
			ConfigurationProvider: func() canonsync.CommandConfiguration {
				return application.configuration.Tools.Sync
			},
		},
		&drift.CommandBuilder{
			LoggerProvider: loggerProvider,
			ConfigurationProvider: func() drift.CommandConfiguration {
				return application.configuration.Tools.Drift
			},
		},
		&fingerprint.CommandBuilder{
			LoggerProvider: loggerProvider,
			ConfigurationProvider: func() fingerprint.CommandConfiguration {
				return application.configuration.Tools.Hash
			},
		},
		&generator.CommandBuilder{
			LoggerProvider: loggerProvider,
			ConfigurationProvider: func() generator.CommandConfiguration {
				return application.configuration.Tools.Regenerate
			},
		},
		&policyscan.CommandBuilder{
			LoggerProvider: loggerProvider,
			ConfigurationProvider: func() policyscan.CommandConfiguration {
				return application.configuration.Tools.RCA
			},
		},
	}
	for _, builder := range builders {
		subcommand, buildError := builder.Build()
		if buildError != nil {
			application.buildErrors = append(application.buildErrors, fmt.Errorf(commandBuildErrorTemplateConstant, fmt.Sprintf("%T", builder), buildError))
			continue
		}
		cobraCommand.AddCommand(subcommand)
	}

	application.rootCommand = cobraCommand
	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	if buildError := errors.Join(application.buildErrors...); buildError != nil {
		return buildError
	}
	if versionRequested(os.Args[1:]) {
		if printError := application.printVersion(application.rootCommand.Context(), os.Stdout); printError != nil {
			return printError
		}
		application.exitFunction(0)
		return nil
	}

	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// InitializeForCommand loads configuration and logging as they would be prepared for the named subcommand.
func (application *Application) InitializeForCommand(commandUse string) error {
	for _, subcommand := range application.rootCommand.Commands() {
		if subcommand.Name() == commandUse {
			return application.initializeConfiguration(subcommand)
		}
	}
	return fmt.Errorf(unknownCommandTemplateConstant, commandUse)
}

// Configuration returns the most recently loaded configuration.
func (application *Application) Configuration() ApplicationConfiguration {
	return application.configuration
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelWarn),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatConsole),
	}
	defaultSources := []map[string]any{
		canonsync.DefaultConfigurationValues(syncConfigurationKeyConstant),
		drift.DefaultConfigurationValues(driftConfigurationKeyConstant),
		fingerprint.DefaultConfigurationValues(hashConfigurationKeyConstant),
		generator.DefaultConfigurationValues(regenerateConfigurationKeyConstant),
		policyscan.DefaultConfigurationValues(rcaConfigurationKeyConstant),
	}
	for _, defaultSource := range defaultSources {
		for configurationKey, configurationValue := range defaultSource {
			defaultValues[configurationKey] = configurationValue
		}
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = logger

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.Strings(configurationDotEnvFieldConstant, application.configurationMetadata.DotEnvFilesLoaded),
	)
	return nil
}

func (application *Application) printVersion(executionContext context.Context, writer io.Writer) error {
	_, printError := fmt.Fprintf(writer, versionOutputTemplateConstant, applicationNameConstant, application.versionResolver(executionContext))
	return printError
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}
	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}
	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}
	if rootCommand := command.Root(); rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}
	for _, flagSet := range flagSetsToInspect {
		if flagSet != nil && flagSet.Changed(flagName) {
			return true
		}
	}
	return false
}

func configurationSearchPaths() []string {
	if overridePath := strings.TrimSpace(os.Getenv(configurationSearchPathEnvironmentName)); len(overridePath) > 0 {
		return filepath.SplitList(overridePath)
	}
	return utils.DefaultSearchPaths(applicationNameConstant)
}

func versionRequested(arguments []string) bool {
	for _, argument := range arguments {
		if argument == "--"+versionFlagNameConstant {
			return true
		}
	}
	return false
}

func resolveBuildVersion(context.Context) string {
	buildInfo, available := debug.ReadBuildInfo()
	if !available || len(buildInfo.Main.Version) == 0 || buildInfo.Main.Version == buildInfoDevelopmentVersionConstant {
		return developmentVersionConstant
	}
	return buildInfo.Main.Version
}
