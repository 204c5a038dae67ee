// Package utils exposes reusable helpers consumed by multiple commands.
//
// It houses the viper-backed ConfigurationLoader, the zap LoggerFactory, the git CommandExecutor
// and the ExitStatusError used to map command outcomes onto process exit codes.
package utils
