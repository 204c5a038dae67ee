package gitrepo

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/canonsync/internal/utils"
)

const (
	// PlaceholderIdentityConstant stands in for a repository whose identity cannot be determined.
	PlaceholderIdentityConstant = "<owner>/<repo>"
	// DefaultRemoteLookupTimeout bounds the origin remote lookup.
	DefaultRemoteLookupTimeout = 5 * time.Second

	gitRemoteSubcommandConstant       = "remote"
	gitGetURLSubcommandConstant       = "get-url"
	originRemoteNameConstant          = "origin"
	remoteLookupFailedMessageConstant = "Unable to read origin remote"
	remoteUnparsableMessageConstant   = "Origin remote is not a recognizable repository URL"
	repositoryPathLogFieldConstant    = "repository_path"
	remoteURLLogFieldConstant         = "remote_url"
	exitCodeLogFieldConstant          = "exit_code"
	resolvedIdentityLogFieldConstant  = "repository_identity"
	identityResolvedMessageConstant   = "Resolved repository identity from origin remote"
)

// GitExecutor runs git commands.
type GitExecutor interface {
	ExecuteGitCommand(executionContext context.Context, options utils.CommandOptions) (utils.CommandResult, error)
}

// IdentityResolver derives owner/repository identities from the origin remote of a working tree.
type IdentityResolver struct {
	gitExecutor GitExecutor
	logger      *zap.Logger
	timeout     time.Duration
}

// NewIdentityResolver constructs an IdentityResolver. A non-positive timeout selects DefaultRemoteLookupTimeout.
func NewIdentityResolver(gitExecutor GitExecutor, logger *zap.Logger, timeout time.Duration) *IdentityResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultRemoteLookupTimeout
	}
	return &IdentityResolver{gitExecutor: gitExecutor, logger: logger, timeout: timeout}
}

// ResolveOriginIdentity reports the owner/repository of the origin remote of repositoryPath.
// Any failure, including a missing git binary, yields false.
func (resolver *IdentityResolver) ResolveOriginIdentity(executionContext context.Context, repositoryPath string) (string, bool) {
	if resolver == nil || resolver.gitExecutor == nil {
		return "", false
	}

	lookupContext, cancel := context.WithTimeout(executionContext, resolver.timeout)
	defer cancel()

	result, executionError := resolver.gitExecutor.ExecuteGitCommand(lookupContext, utils.CommandOptions{
		Arguments:        []string{gitRemoteSubcommandConstant, gitGetURLSubcommandConstant, originRemoteNameConstant},
		WorkingDirectory: repositoryPath,
	})
	if executionError != nil {
		resolver.logger.Debug(remoteLookupFailedMessageConstant, zap.String(repositoryPathLogFieldConstant, repositoryPath), zap.Error(executionError))
		return "", false
	}
	if result.ExitCode != 0 {
		resolver.logger.Debug(remoteLookupFailedMessageConstant, zap.String(repositoryPathLogFieldConstant, repositoryPath), zap.Int(exitCodeLogFieldConstant, result.ExitCode))
		return "", false
	}

	remoteURL := strings.TrimSpace(result.StandardOutput)
	parsedRemote, parseError := ParseRemoteURL(remoteURL)
	if parseError != nil {
		resolver.logger.Debug(remoteUnparsableMessageConstant, zap.String(remoteURLLogFieldConstant, remoteURL), zap.Error(parseError))
		return "", false
	}

	identity := parsedRemote.OwnerRepository()
	resolver.logger.Debug(identityResolvedMessageConstant, zap.String(repositoryPathLogFieldConstant, repositoryPath), zap.String(resolvedIdentityLogFieldConstant, identity))
	return identity, true
}

// ResolveIdentity returns the first non-empty explicit value, then the origin identity of
// repositoryPath, then PlaceholderIdentityConstant.
func (resolver *IdentityResolver) ResolveIdentity(executionContext context.Context, explicitIdentity string, repositoryPath string) string {
	if trimmedIdentity := strings.TrimSpace(explicitIdentity); len(trimmedIdentity) > 0 {
		return trimmedIdentity
	}
	if identity, resolved := resolver.ResolveOriginIdentity(executionContext, repositoryPath); resolved {
		return identity
	}
	return PlaceholderIdentityConstant
}
