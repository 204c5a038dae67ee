package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	tildeSymbolConstant             = "~"
	tildeForwardSlashPrefixConstant = "~/"
)

var tildeWithPathSeparatorPrefix = tildeSymbolConstant + string(os.PathSeparator)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// WorkingDirectoryProvider resolves the directory relative paths are anchored to.
type WorkingDirectoryProvider func() (string, error)

// PathResolver turns user-supplied locations into absolute, cleaned paths.
type PathResolver struct {
	homeDirectoryProvider    HomeDirectoryProvider
	workingDirectoryProvider WorkingDirectoryProvider
	homeDirectory            string
	homeDirectoryError       error
	initializationGuard      sync.Once
}

// NewPathResolver constructs a PathResolver backed by the operating system.
func NewPathResolver() *PathResolver {
	return NewPathResolverWithProviders(os.UserHomeDir, os.Getwd)
}

// NewPathResolverWithProviders constructs a PathResolver with custom lookups.
func NewPathResolverWithProviders(homeDirectoryProvider HomeDirectoryProvider, workingDirectoryProvider WorkingDirectoryProvider) *PathResolver {
	if homeDirectoryProvider == nil {
		homeDirectoryProvider = os.UserHomeDir
	}
	if workingDirectoryProvider == nil {
		workingDirectoryProvider = os.Getwd
	}
	return &PathResolver{homeDirectoryProvider: homeDirectoryProvider, workingDirectoryProvider: workingDirectoryProvider}
}

// Resolve trims the candidate, substitutes fallback when it is empty, expands a leading tilde,
// and anchors relative paths at the working directory. An empty result stays empty.
func (resolver *PathResolver) Resolve(candidatePath string, fallbackPath string) string {
	resolvedPath := strings.TrimSpace(candidatePath)
	if len(resolvedPath) == 0 {
		resolvedPath = strings.TrimSpace(fallbackPath)
	}
	if len(resolvedPath) == 0 {
		return ""
	}

	resolvedPath = resolver.expandHome(resolvedPath)
	if filepath.IsAbs(resolvedPath) {
		return filepath.Clean(resolvedPath)
	}

	workingDirectory, workingDirectoryError := resolver.workingDirectoryProvider()
	if workingDirectoryError != nil {
		return filepath.Clean(resolvedPath)
	}
	return filepath.Join(workingDirectory, resolvedPath)
}

func (resolver *PathResolver) expandHome(candidatePath string) string {
	if !strings.HasPrefix(candidatePath, tildeSymbolConstant) {
		return candidatePath
	}

	homeDirectory := resolver.resolveHomeDirectory()
	if len(homeDirectory) == 0 {
		return candidatePath
	}

	switch {
	case candidatePath == tildeSymbolConstant:
		return homeDirectory
	case strings.HasPrefix(candidatePath, tildeForwardSlashPrefixConstant):
		return filepath.Join(homeDirectory, strings.TrimPrefix(candidatePath, tildeForwardSlashPrefixConstant))
	case strings.HasPrefix(candidatePath, tildeWithPathSeparatorPrefix):
		return filepath.Join(homeDirectory, strings.TrimPrefix(candidatePath, tildeWithPathSeparatorPrefix))
	default:
		return candidatePath
	}
}

func (resolver *PathResolver) resolveHomeDirectory() string {
	resolver.initializationGuard.Do(func() {
		resolver.homeDirectory, resolver.homeDirectoryError = resolver.homeDirectoryProvider()
	})
	if resolver.homeDirectoryError != nil {
		return ""
	}
	return resolver.homeDirectory
}
