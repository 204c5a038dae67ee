package policyscan

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/temirov/canonsync/internal/faults"
	"github.com/temirov/canonsync/internal/schema"
)

const (
	// PatternsPathEnvironmentVariableConstant overrides the pattern catalog location.
	PatternsPathEnvironmentVariableConstant = "MINIMIZING_LANGUAGE_PATTERNS_PATH"
	// PatternsRelativePathConstant is searched for in the working directory and each of its parents.
	PatternsRelativePathConstant = "policy/minimizing_language_patterns.json"

	patternsFieldConstant                 = "patterns"
	patternsFieldEntryPrefixConstant      = "patterns."
	patternObjectKeyConstant              = "pattern"
	caseInsensitivePrefixConstant         = "(?i)"
	catalogUnresolvedMessageConstant      = "Missing minimizing language patterns file. Set MINIMIZING_LANGUAGE_PATTERNS_PATH to override."
	catalogMissingTemplateConstant        = "Missing minimizing language patterns file: %s"
	catalogInvalidJSONTemplateConstant    = "Invalid minimizing language patterns JSON: %w"
	catalogEmptyTemplateConstant          = "Minimizing language patterns list missing or empty: %w"
	catalogInvalidEntryTemplateConstant   = "Invalid minimizing language pattern entry; expected string or object with 'pattern': %w"
	catalogInvalidPatternTemplateConstant = "Invalid minimizing language pattern %q: %w"
	catalogSchemaTemplateConstant         = "unable to prepare pattern catalog schema: %w"
)

// EnvironmentLookup reads an environment variable.
type EnvironmentLookup func(name string) (string, bool)

// WorkingDirectoryProvider resolves the directory the catalog search starts from.
type WorkingDirectoryProvider func() (string, error)

// PatternCatalog holds the minimizing-language expressions. The catalog is read and compiled on
// first use and memoized for the lifetime of the instance.
type PatternCatalog struct {
	explicitPath             string
	environmentLookup        EnvironmentLookup
	workingDirectoryProvider WorkingDirectoryProvider

	loadGuard    sync.Once
	resolvedPath string
	expressions  []string
	compiled     []*regexp.Regexp
	loadError    error
}

// NewPatternCatalog constructs a catalog. explicitPath wins over the environment variable, which
// wins over searching upward from the working directory.
func NewPatternCatalog(explicitPath string, environmentLookup EnvironmentLookup, workingDirectoryProvider WorkingDirectoryProvider) *PatternCatalog {
	if environmentLookup == nil {
		environmentLookup = os.LookupEnv
	}
	if workingDirectoryProvider == nil {
		workingDirectoryProvider = os.Getwd
	}
	return &PatternCatalog{
		explicitPath:             strings.TrimSpace(explicitPath),
		environmentLookup:        environmentLookup,
		workingDirectoryProvider: workingDirectoryProvider,
	}
}

// Patterns returns the catalog expressions in declaration order.
func (catalog *PatternCatalog) Patterns() ([]string, error) {
	catalog.loadGuard.Do(catalog.load)
	if catalog.loadError != nil {
		return nil, catalog.loadError
	}
	return append([]string(nil), catalog.expressions...), nil
}

// Path reports the catalog file in use, or an empty string before a successful load.
func (catalog *PatternCatalog) Path() string {
	catalog.loadGuard.Do(catalog.load)
	return catalog.resolvedPath
}

// Detect returns the expressions that match text, ignoring case.
func (catalog *PatternCatalog) Detect(text string) ([]string, error) {
	catalog.loadGuard.Do(catalog.load)
	if catalog.loadError != nil {
		return nil, catalog.loadError
	}
	matches := make([]string, 0)
	for expressionIndex, expression := range catalog.compiled {
		if expression.MatchString(text) {
			matches = append(matches, catalog.expressions[expressionIndex])
		}
	}
	return matches, nil
}

func (catalog *PatternCatalog) load() {
	catalogPath, resolveError := catalog.resolvePath()
	if resolveError != nil {
		catalog.loadError = resolveError
		return
	}

	decoder, decoderError := newDocumentDecoder(patternCatalogDefinitionNameConstant)
	if decoderError != nil {
		catalog.loadError = fmt.Errorf(catalogSchemaTemplateConstant, decoderError)
		return
	}

	document, readError := decoder.readFile(catalogPath)
	if readError != nil {
		catalog.loadError = describeCatalogFailure(catalogPath, readError)
		return
	}

	expressions := extractExpressions(document)
	compiled := make([]*regexp.Regexp, 0, len(expressions))
	for _, expression := range expressions {
		compiledExpression, compileError := regexp.Compile(caseInsensitivePrefixConstant + expression)
		if compileError != nil {
			catalog.loadError = fmt.Errorf(catalogInvalidPatternTemplateConstant, expression, compileError)
			return
		}
		compiled = append(compiled, compiledExpression)
	}

	catalog.resolvedPath = catalogPath
	catalog.expressions = expressions
	catalog.compiled = compiled
}

func (catalog *PatternCatalog) resolvePath() (string, error) {
	if len(catalog.explicitPath) > 0 {
		return catalog.explicitPath, nil
	}
	if environmentPath, present := catalog.environmentLookup(PatternsPathEnvironmentVariableConstant); present && len(strings.TrimSpace(environmentPath)) > 0 {
		return strings.TrimSpace(environmentPath), nil
	}

	workingDirectory, workingDirectoryError := catalog.workingDirectoryProvider()
	if workingDirectoryError != nil {
		return "", errors.New(catalogUnresolvedMessageConstant)
	}
	currentDirectory := filepath.Clean(workingDirectory)
	for {
		candidatePath := filepath.Join(currentDirectory, filepath.FromSlash(PatternsRelativePathConstant))
		if _, statError := os.Stat(candidatePath); statError == nil {
			return candidatePath, nil
		}
		parentDirectory := filepath.Dir(currentDirectory)
		if parentDirectory == currentDirectory {
			return "", errors.New(catalogUnresolvedMessageConstant)
		}
		currentDirectory = parentDirectory
	}
}

func describeCatalogFailure(catalogPath string, failure error) error {
	if errors.Is(failure, faults.ErrNotFound) {
		return fmt.Errorf(catalogMissingTemplateConstant, catalogPath)
	}
	var fault faults.Error
	if !errors.As(failure, &fault) || fault.Kind != faults.KindMalformed {
		return failure
	}
	var violations schema.ValidationError
	if !errors.As(failure, &violations) {
		return fmt.Errorf(catalogInvalidJSONTemplateConstant, failure)
	}
	if strings.HasPrefix(violations.FirstField(), patternsFieldEntryPrefixConstant) {
		return fmt.Errorf(catalogInvalidEntryTemplateConstant, failure)
	}
	return fmt.Errorf(catalogEmptyTemplateConstant, failure)
}

func extractExpressions(document any) []string {
	documentMap, isMap := document.(map[string]any)
	if !isMap {
		return nil
	}
	entries, isList := documentMap[patternsFieldConstant].([]any)
	if !isList {
		return nil
	}
	expressions := make([]string, 0, len(entries))
	for _, entry := range entries {
		switch typedEntry := entry.(type) {
		case string:
			expressions = append(expressions, typedEntry)
		case map[string]any:
			if expression, isString := typedEntry[patternObjectKeyConstant].(string); isString {
				expressions = append(expressions, expression)
			}
		}
	}
	return expressions
}
