package canonsync

import (
	"strings"

	"github.com/temirov/canonsync/internal/reconcile"
)

const (
	configurationRepositoryRootKeyConstant       = "repo_root"
	configurationGovernanceSourceKeyConstant     = "governance_source"
	configurationGovernanceSourceNameKeyConstant = "governance_source_name"
	configurationRepositoryNameKeyConstant       = "repo_name"
	configurationOutputKeyConstant               = "output"
	configurationStrictKeyConstant               = "strict"
	configurationRepositoryTypeKeyConstant       = "repository_type"
	configurationScanConcurrencyKeyConstant      = "scan_concurrency"
	configurationKeySeparatorConstant            = "."
	defaultRepositoryRootConstant                = "."
)

// CommandConfiguration captures persistent settings for the canon-sync command.
type CommandConfiguration struct {
	RepositoryRoot       string `mapstructure:"repo_root"`
	GovernanceSource     string `mapstructure:"governance_source"`
	GovernanceSourceName string `mapstructure:"governance_source_name"`
	RepositoryName       string `mapstructure:"repo_name"`
	Output               string `mapstructure:"output"`
	Strict               bool   `mapstructure:"strict"`
	RepositoryType       string `mapstructure:"repository_type"`
	ScanConcurrency      int    `mapstructure:"scan_concurrency"`
}

// DefaultCommandConfiguration returns baseline configuration values for the canon-sync command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		RepositoryRoot: defaultRepositoryRootConstant,
		RepositoryType: string(reconcile.RepositoryTypeApplication),
	}
}

// DefaultConfigurationValues returns viper defaults for the canon-sync command rooted at the provided key.
func DefaultConfigurationValues(configurationKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	prefix := configurationKey + configurationKeySeparatorConstant
	return map[string]any{
		prefix + configurationRepositoryRootKeyConstant:       defaults.RepositoryRoot,
		prefix + configurationGovernanceSourceKeyConstant:     defaults.GovernanceSource,
		prefix + configurationGovernanceSourceNameKeyConstant: defaults.GovernanceSourceName,
		prefix + configurationRepositoryNameKeyConstant:       defaults.RepositoryName,
		prefix + configurationOutputKeyConstant:               defaults.Output,
		prefix + configurationStrictKeyConstant:               defaults.Strict,
		prefix + configurationRepositoryTypeKeyConstant:       defaults.RepositoryType,
		prefix + configurationScanConcurrencyKeyConstant:      defaults.ScanConcurrency,
	}
}

// sanitize trims whitespace and applies defaults to unset configuration values.
func (configuration CommandConfiguration) sanitize() CommandConfiguration {
	sanitized := configuration
	sanitized.RepositoryRoot = strings.TrimSpace(configuration.RepositoryRoot)
	sanitized.GovernanceSource = strings.TrimSpace(configuration.GovernanceSource)
	sanitized.GovernanceSourceName = strings.TrimSpace(configuration.GovernanceSourceName)
	sanitized.RepositoryName = strings.TrimSpace(configuration.RepositoryName)
	sanitized.Output = strings.TrimSpace(configuration.Output)
	sanitized.RepositoryType = strings.TrimSpace(configuration.RepositoryType)

	if len(sanitized.RepositoryRoot) == 0 {
		sanitized.RepositoryRoot = defaultRepositoryRootConstant
	}
	if len(sanitized.RepositoryType) == 0 {
		sanitized.RepositoryType = string(reconcile.RepositoryTypeApplication)
	}
	if sanitized.ScanConcurrency < 0 {
		sanitized.ScanConcurrency = 0
	}
	return sanitized
}
