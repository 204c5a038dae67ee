package drift

import (
	"errors"
	"fmt"

	"github.com/temirov/canonsync/internal/faults"
	"github.com/temirov/canonsync/internal/fingerprint"
)

const (
	expectedFileMissingTemplateConstant = "Expected file missing: %s"
	actualFileMissingTemplateConstant   = "Actual file missing: %s"
)

// Verdict labels the outcome of a comparison.
type Verdict string

// Supported verdicts.
const (
	VerdictAligned Verdict = Verdict("ALIGNED")
	VerdictDrift   Verdict = Verdict("DRIFT")
)

// Comparison is the result of fingerprinting an expected and an actual file.
type Comparison struct {
	Verdict        Verdict
	ExpectedDigest string
	ActualDigest   string
}

// MissingFileError reports which side of the comparison is absent.
type MissingFileError struct {
	Path     string
	Expected bool
	Cause    error
}

// Error describes the missing file.
func (missingError MissingFileError) Error() string {
	if missingError.Expected {
		return fmt.Sprintf(expectedFileMissingTemplateConstant, missingError.Path)
	}
	return fmt.Sprintf(actualFileMissingTemplateConstant, missingError.Path)
}

// Unwrap exposes the underlying cause.
func (missingError MissingFileError) Unwrap() error {
	return missingError.Cause
}

// Comparator fingerprints two files with the same hashing and truncation contract.
type Comparator struct {
	hasher fingerprint.Hasher
}

// NewComparator constructs a Comparator. A non-positive truncatedLength compares full digests.
func NewComparator(truncatedLength int) Comparator {
	return Comparator{hasher: fingerprint.NewHasherWithTruncation(truncatedLength)}
}

// Compare fingerprints both files. Either file being absent yields a MissingFileError; the
// expected file is checked first.
func (comparator Comparator) Compare(expectedPath string, actualPath string) (Comparison, error) {
	expectedFingerprint, expectedError := comparator.hasher.DigestFile(expectedPath)
	if expectedError != nil {
		return Comparison{}, classifyFailure(expectedPath, true, expectedError)
	}
	actualFingerprint, actualError := comparator.hasher.DigestFile(actualPath)
	if actualError != nil {
		return Comparison{}, classifyFailure(actualPath, false, actualError)
	}

	comparison := Comparison{
		Verdict:        VerdictAligned,
		ExpectedDigest: expectedFingerprint.Truncated,
		ActualDigest:   actualFingerprint.Truncated,
	}
	if comparison.ExpectedDigest != comparison.ActualDigest {
		comparison.Verdict = VerdictDrift
	}
	return comparison, nil
}

func classifyFailure(path string, expected bool, failure error) error {
	if errors.Is(failure, faults.ErrNotFound) {
		return MissingFileError{Path: path, Expected: expected, Cause: failure}
	}
	return failure
}
