package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/canonsync/internal/faults"
	"github.com/temirov/canonsync/internal/fingerprint"
)

const (
	// CanonDirectoryRelativePathConstant locates local canons below a repository root.
	CanonDirectoryRelativePathConstant = "governance/canon"
	// CanonFileExtensionConstant is the naming convention for canon documents.
	CanonFileExtensionConstant = ".md"
	// ObservationDateLayoutConstant renders observation dates.
	ObservationDateLayoutConstant = "2006-01-02"

	missingCanonDirectoryMessageConstant = "Local canon directory not found"
	canonDirectoryNotDirectoryMessage    = "canon path is not a directory"
	canonDirectoryLogFieldConstant       = "canon_directory"
	observedCountLogFieldConstant        = "observed_canons"
	scanCompletedMessageConstant         = "Local canon scan completed"
	unresolvedLinkMessageConstant        = "Skipping canon link that does not resolve"
	canonPathLogFieldConstant            = "canon_path"
)

// LocalObservation describes one canon file found in a repository.
type LocalObservation struct {
	Filename     string
	RelativePath string
	Fingerprint  string
	ObservedAt   string
}

// Observations maps canon filenames to their local observation.
type Observations map[string]LocalObservation

// SortedFilenames returns the observed filenames in lexical order.
func (observations Observations) SortedFilenames() []string {
	filenames := make([]string, 0, len(observations))
	for filename := range observations {
		filenames = append(filenames, filename)
	}
	sort.Strings(filenames)
	return filenames
}

// FileHasher fingerprints a single file.
type FileHasher interface {
	DigestFile(path string) (fingerprint.Fingerprint, error)
}

// Scanner enumerates local canon files and fingerprints them.
type Scanner struct {
	hasher      FileHasher
	logger      *zap.Logger
	concurrency int
}

// NewScanner constructs a Scanner. A nil logger discards diagnostics; a non-positive
// concurrency uses the number of available CPUs.
func NewScanner(hasher FileHasher, logger *zap.Logger, concurrency int) *Scanner {
	if hasher == nil {
		hasher = fingerprint.NewHasher()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &Scanner{hasher: hasher, logger: logger, concurrency: concurrency}
}

// CanonDirectory returns the local canon directory for a repository root.
func CanonDirectory(repositoryRoot string) string {
	return filepath.Join(repositoryRoot, filepath.FromSlash(CanonDirectoryRelativePathConstant))
}

// Scan fingerprints every immediate *.md file of the canon directory below repositoryRoot.
// A missing canon directory yields an empty result.
func (scanner *Scanner) Scan(executionContext context.Context, repositoryRoot string) (Observations, error) {
	canonDirectory := CanonDirectory(repositoryRoot)

	directoryInfo, statError := os.Stat(canonDirectory)
	if statError != nil {
		if errors.Is(statError, fs.ErrNotExist) {
			scanner.logger.Warn(missingCanonDirectoryMessageConstant, zap.String(canonDirectoryLogFieldConstant, canonDirectory))
			return Observations{}, nil
		}
		return nil, faults.IOFailure(canonDirectory, statError)
	}
	if !directoryInfo.IsDir() {
		return nil, faults.IOFailure(canonDirectory, errors.New(canonDirectoryNotDirectoryMessage))
	}

	directoryEntries, readError := os.ReadDir(canonDirectory)
	if readError != nil {
		return nil, faults.IOFailure(canonDirectory, readError)
	}

	observations := make(Observations, len(directoryEntries))
	var observationsMutex sync.Mutex

	scanGroup, groupContext := errgroup.WithContext(executionContext)
	scanGroup.SetLimit(scanner.concurrency)

	for _, directoryEntry := range directoryEntries {
		if !scanner.isCanonFile(canonDirectory, directoryEntry) {
			continue
		}
		filename := directoryEntry.Name()
		scanGroup.Go(func() error {
			if contextError := groupContext.Err(); contextError != nil {
				return contextError
			}
			observation, observationError := scanner.observe(repositoryRoot, canonDirectory, filename)
			if observationError != nil {
				return observationError
			}
			observationsMutex.Lock()
			observations[filename] = observation
			observationsMutex.Unlock()
			return nil
		})
	}

	if waitError := scanGroup.Wait(); waitError != nil {
		return nil, waitError
	}

	scanner.logger.Debug(scanCompletedMessageConstant,
		zap.String(canonDirectoryLogFieldConstant, canonDirectory),
		zap.Int(observedCountLogFieldConstant, len(observations)),
	)
	return observations, nil
}

func (scanner *Scanner) observe(repositoryRoot string, canonDirectory string, filename string) (LocalObservation, error) {
	absolutePath := filepath.Join(canonDirectory, filename)

	fileInfo, statError := os.Stat(absolutePath)
	if statError != nil {
		return LocalObservation{}, faults.IOFailure(absolutePath, statError)
	}

	digest, digestError := scanner.hasher.DigestFile(absolutePath)
	if digestError != nil {
		return LocalObservation{}, digestError
	}

	relativePath, relativeError := filepath.Rel(repositoryRoot, absolutePath)
	if relativeError != nil {
		relativePath = absolutePath
	}

	return LocalObservation{
		Filename:     filename,
		RelativePath: filepath.ToSlash(relativePath),
		Fingerprint:  digest.Truncated,
		ObservedAt:   fileInfo.ModTime().Local().Format(ObservationDateLayoutConstant),
	}, nil
}

// isCanonFile accepts *.md entries that are regular files or symbolic links resolving to one.
func (scanner *Scanner) isCanonFile(canonDirectory string, directoryEntry fs.DirEntry) bool {
	if !strings.HasSuffix(directoryEntry.Name(), CanonFileExtensionConstant) {
		return false
	}
	entryType := directoryEntry.Type()
	if entryType.IsRegular() {
		return true
	}
	if entryType&fs.ModeSymlink == 0 {
		return false
	}
	linkedPath := filepath.Join(canonDirectory, directoryEntry.Name())
	targetInfo, statError := os.Stat(linkedPath)
	if statError != nil {
		scanner.logger.Warn(unresolvedLinkMessageConstant, zap.String(canonPathLogFieldConstant, linkedPath), zap.Error(statError))
		return false
	}
	return targetInfo.Mode().IsRegular()
}
