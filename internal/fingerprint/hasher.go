package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/temirov/canonsync/internal/faults"
)

const (
	// BlockSizeConstant is the read block size used when streaming file content into the digest.
	BlockSizeConstant = 4096
	// TruncatedLengthConstant is the digest prefix length shared by the inventory generator and the local scanner.
	TruncatedLengthConstant = 12
)

// Fingerprint holds the full hex digest of a file together with its truncated prefix.
type Fingerprint struct {
	Full      string
	Truncated string
}

// Hasher computes SHA-256 content fingerprints in fixed-size blocks.
type Hasher struct {
	truncatedLength int
}

// NewHasher constructs a Hasher that truncates digests to the shared inventory convention.
func NewHasher() Hasher {
	return Hasher{truncatedLength: TruncatedLengthConstant}
}

// NewHasherWithTruncation constructs a Hasher with a caller-specified prefix length; zero or negative disables truncation.
func NewHasherWithTruncation(truncatedLength int) Hasher {
	return Hasher{truncatedLength: truncatedLength}
}

// TruncatedLength reports the prefix length applied by Truncate.
func (hasher Hasher) TruncatedLength() int {
	return hasher.truncatedLength
}

// DigestReader streams the reader through SHA-256 and returns the full hex digest.
func (hasher Hasher) DigestReader(reader io.Reader) (string, error) {
	digest := sha256.New()
	buffer := make([]byte, BlockSizeConstant)
	if _, copyError := io.CopyBuffer(digest, onlyReader{reader: reader}, buffer); copyError != nil {
		return "", copyError
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}

// DigestFile returns the full and truncated fingerprint of the file at the provided path.
func (hasher Hasher) DigestFile(filePath string) (Fingerprint, error) {
	fileHandle, openError := os.Open(filePath)
	if openError != nil {
		if errors.Is(openError, fs.ErrNotExist) {
			return Fingerprint{}, faults.NotFound(filePath, openError)
		}
		return Fingerprint{}, faults.IOFailure(filePath, openError)
	}
	defer fileHandle.Close()

	fullDigest, digestError := hasher.DigestReader(fileHandle)
	if digestError != nil {
		return Fingerprint{}, faults.IOFailure(filePath, digestError)
	}

	return Fingerprint{Full: fullDigest, Truncated: hasher.Truncate(fullDigest)}, nil
}

// Truncate returns the configured digest prefix, or the full digest when truncation is disabled or longer than the digest.
func (hasher Hasher) Truncate(digest string) string {
	return TruncateDigest(digest, hasher.truncatedLength)
}

// TruncateDigest returns the first length characters of digest; non-positive lengths keep the full digest.
func TruncateDigest(digest string, length int) string {
	if length <= 0 || length >= len(digest) {
		return digest
	}
	return digest[:length]
}

// onlyReader hides WriterTo/ReaderFrom implementations so io.CopyBuffer honors the fixed block size.
type onlyReader struct {
	reader io.Reader
}

func (wrapper onlyReader) Read(data []byte) (int, error) {
	return wrapper.reader.Read(data)
}
