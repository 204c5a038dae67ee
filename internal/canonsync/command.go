package canonsync

import (
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/canonsync/internal/fingerprint"
	"github.com/temirov/canonsync/internal/gitrepo"
	"github.com/temirov/canonsync/internal/inventory"
	"github.com/temirov/canonsync/internal/reconcile"
	"github.com/temirov/canonsync/internal/report"
	"github.com/temirov/canonsync/internal/scanner"
	"github.com/temirov/canonsync/internal/utils"
	"github.com/temirov/canonsync/internal/utils/flags"
	pathutils "github.com/temirov/canonsync/internal/utils/path"
)

const (
	commandUseConstant              = "canon-sync"
	commandShortDescriptionConstant = "Synchronize the governance alignment inventory of a repository"
	commandLongDescriptionConstant  = "canon-sync compares the local governance/canon directory with the central canon inventory, writes GOVERNANCE_ALIGNMENT_INVENTORY.json and prints a compliance report."

	repositoryRootFlagNameConstant    = "repo-root"
	repositoryRootFlagUsageConstant   = "Root directory of the repository (default: current directory)."
	governanceSourceFlagNameConstant  = "governance-source"
	governanceSourceFlagUsageConstant = "Path to the governance repository holding governance/CANON_INVENTORY.json (default: repository root)."
	repositoryNameFlagNameConstant    = "repo-name"
	repositoryNameFlagUsageConstant   = "Repository name in owner/repo format (default: derived from the origin remote, else a placeholder)."
	outputFlagNameConstant            = "output"
	outputFlagUsageConstant           = "Output path for the inventory (default: <repo-root>/GOVERNANCE_ALIGNMENT_INVENTORY.json)."
	strictFlagNameConstant            = "strict"
	strictFlagUsageConstant           = "Fail with exit code 1 when coverage is below 100%."
	repositoryTypeFlagNameConstant    = "repository-type"
	repositoryTypeFlagUsageConstant   = "Repository archetype deciding which canons are mandatory."

	syncRunIdentifierLogFieldConstant = "sync_run_id"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies persisted settings for the canon-sync command.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the canon-sync cobra command with configurable dependencies.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	Loader                InventoryLoader
	Scanner               CanonScanner
	IdentityResolver      IdentityResolver
	GitExecutor           gitrepo.GitExecutor
	Clock                 Clock
	PathResolver          *pathutils.PathResolver
}

// Build constructs the cobra command for canon synchronization.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  utils.UsageArguments(cobra.NoArgs),
		RunE:  builder.run,
	}

	command.SetFlagErrorFunc(utils.FlagUsageError)
	command.Flags().String(repositoryRootFlagNameConstant, "", repositoryRootFlagUsageConstant)
	command.Flags().String(governanceSourceFlagNameConstant, "", governanceSourceFlagUsageConstant)
	command.Flags().String(repositoryNameFlagNameConstant, "", repositoryNameFlagUsageConstant)
	command.Flags().String(outputFlagNameConstant, "", outputFlagUsageConstant)
	command.Flags().Bool(strictFlagNameConstant, false, strictFlagUsageConstant)
	command.Flags().String(repositoryTypeFlagNameConstant, "", flags.FormatChoiceUsage(string(reconcile.RepositoryTypeApplication), reconcile.SupportedRepositoryTypeNames(), repositoryTypeFlagUsageConstant))

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration(command)
	policy, policyError := reconcile.PolicyForRepositoryType(configuration.RepositoryType)
	if policyError != nil {
		return utils.NewUsageError(policyError)
	}

	logger := builder.resolveLogger().With(zap.String(syncRunIdentifierLogFieldConstant, uuid.Must(uuid.NewV7()).String()))

	loader, loaderError := builder.resolveLoader()
	if loaderError != nil {
		return loaderError
	}

	service, serviceError := NewService(Dependencies{
		Loader:           loader,
		Scanner:          builder.resolveScanner(logger, configuration.ScanConcurrency),
		IdentityResolver: builder.resolveIdentityResolver(logger),
		Clock:            builder.Clock,
		OutputWriter:     command.OutOrStdout(),
		Logger:           logger,
	})
	if serviceError != nil {
		return serviceError
	}

	pathResolver := builder.resolvePathResolver()
	repositoryRoot := pathResolver.Resolve(configuration.RepositoryRoot, defaultRepositoryRootConstant)
	governanceSource := pathResolver.Resolve(configuration.GovernanceSource, repositoryRoot)
	outputPath := pathResolver.Resolve(configuration.Output, filepath.Join(repositoryRoot, report.DefaultSnapshotFileNameConstant))

	_, runError := service.Run(command.Context(), Options{
		RepositoryRoot:       repositoryRoot,
		GovernanceSource:     governanceSource,
		GovernanceSourceName: configuration.GovernanceSourceName,
		RepositoryName:       configuration.RepositoryName,
		OutputPath:           outputPath,
		Strict:               configuration.Strict,
		Policy:               policy,
	})
	return runError
}

func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) CommandConfiguration {
	configuration := DefaultCommandConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	flagSet := command.Flags()
	if flagSet.Changed(repositoryRootFlagNameConstant) {
		configuration.RepositoryRoot, _ = flagSet.GetString(repositoryRootFlagNameConstant)
	}
	if flagSet.Changed(governanceSourceFlagNameConstant) {
		configuration.GovernanceSource, _ = flagSet.GetString(governanceSourceFlagNameConstant)
	}
	if flagSet.Changed(repositoryNameFlagNameConstant) {
		configuration.RepositoryName, _ = flagSet.GetString(repositoryNameFlagNameConstant)
	}
	if flagSet.Changed(outputFlagNameConstant) {
		configuration.Output, _ = flagSet.GetString(outputFlagNameConstant)
	}
	if flagSet.Changed(strictFlagNameConstant) {
		configuration.Strict, _ = flagSet.GetBool(strictFlagNameConstant)
	}
	if flagSet.Changed(repositoryTypeFlagNameConstant) {
		configuration.RepositoryType, _ = flagSet.GetString(repositoryTypeFlagNameConstant)
	}

	return configuration.sanitize()
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

func (builder *CommandBuilder) resolveLoader() (InventoryLoader, error) {
	if builder.Loader != nil {
		return builder.Loader, nil
	}
	return inventory.NewLoader()
}

func (builder *CommandBuilder) resolveScanner(logger *zap.Logger, concurrency int) CanonScanner {
	if builder.Scanner != nil {
		return builder.Scanner
	}
	return scanner.NewScanner(fingerprint.NewHasher(), logger, concurrency)
}

func (builder *CommandBuilder) resolveIdentityResolver(logger *zap.Logger) IdentityResolver {
	if builder.IdentityResolver != nil {
		return builder.IdentityResolver
	}
	gitExecutor := builder.GitExecutor
	if gitExecutor == nil {
		gitExecutor = utils.NewCommandExecutor(utils.NewOSProcessRunner())
	}
	return gitrepo.NewIdentityResolver(gitExecutor, logger, gitrepo.DefaultRemoteLookupTimeout)
}

func (builder *CommandBuilder) resolvePathResolver() *pathutils.PathResolver {
	if builder.PathResolver != nil {
		return builder.PathResolver
	}
	return pathutils.NewPathResolver()
}
