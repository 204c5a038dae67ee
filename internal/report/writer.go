package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/temirov/canonsync/internal/faults"
)

const (
	jsonIndentConstant             = "  "
	jsonPrefixConstant             = ""
	snapshotFilePermissionsConst   = 0o644
	encodeSnapshotTemplateConstant = "unable to encode compliance snapshot: %w"
)

// Encode writes the document as indented JSON. HTML characters are kept verbatim so
// placeholders such as <owner>/<repo> survive unchanged.
func Encode(writer io.Writer, document Document) error {
	encoder := json.NewEncoder(writer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent(jsonPrefixConstant, jsonIndentConstant)
	if encodeError := encoder.Encode(document); encodeError != nil {
		return fmt.Errorf(encodeSnapshotTemplateConstant, encodeError)
	}
	return nil
}

// WriteFile persists the document at outputPath, replacing any previous snapshot.
func WriteFile(outputPath string, document Document) error {
	var buffer bytes.Buffer
	if encodeError := Encode(&buffer, document); encodeError != nil {
		return encodeError
	}
	if writeError := os.WriteFile(outputPath, buffer.Bytes(), snapshotFilePermissionsConst); writeError != nil {
		return faults.IOFailure(outputPath, writeError)
	}
	return nil
}
