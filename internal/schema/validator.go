package schema

import (
	"errors"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

const (
	schemaCompileErrorTemplateConstant    = "unable to compile schema: %w"
	schemaDefinitionMissingTemplate       = "schema definition %s not found: %w"
	documentEncodeErrorTemplateConstant   = "unable to encode document: %w"
	fieldPathSeparatorConstant            = "."
	documentRootFieldConstant             = "<document>"
	violationTemplateConstant             = "%s: %s"
	violationsJoinSeparatorConstant       = "; "
	emptyDefinitionNameMessageConstant    = "schema definition name must be provided"
	nilValidatorMessageConstant           = "schema validator not initialized"
	definitionPrefixConstant              = "#"
	invalidDefinitionNameTemplateConstant = "schema definition %q must start with %s"
)

// Violation pinpoints a single field that failed validation.
type Violation struct {
	Field   string
	Message string
}

// ValidationError aggregates every violation reported for a document.
type ValidationError struct {
	Violations []Violation
}

// Error lists the violations in document order.
func (validationError ValidationError) Error() string {
	renderedViolations := make([]string, 0, len(validationError.Violations))
	for _, violation := range validationError.Violations {
		renderedViolations = append(renderedViolations, fmt.Sprintf(violationTemplateConstant, violation.Field, violation.Message))
	}
	return strings.Join(renderedViolations, violationsJoinSeparatorConstant)
}

// FirstField returns the field path of the first violation.
func (validationError ValidationError) FirstField() string {
	if len(validationError.Violations) == 0 {
		return documentRootFieldConstant
	}
	return validationError.Violations[0].Field
}

// Validator checks decoded documents against a CUE definition.
type Validator struct {
	context    *cue.Context
	definition cue.Value
}

// NewValidator compiles the CUE source and selects the named definition, for example "#Inventory".
func NewValidator(schemaSource string, definitionName string) (*Validator, error) {
	trimmedDefinitionName := strings.TrimSpace(definitionName)
	if len(trimmedDefinitionName) == 0 {
		return nil, errors.New(emptyDefinitionNameMessageConstant)
	}
	if !strings.HasPrefix(trimmedDefinitionName, definitionPrefixConstant) {
		return nil, fmt.Errorf(invalidDefinitionNameTemplateConstant, trimmedDefinitionName, definitionPrefixConstant)
	}

	cueContext := cuecontext.New()
	compiledSchema := cueContext.CompileString(schemaSource)
	if compileError := compiledSchema.Err(); compileError != nil {
		return nil, fmt.Errorf(schemaCompileErrorTemplateConstant, compileError)
	}

	definition := compiledSchema.LookupPath(cue.ParsePath(trimmedDefinitionName))
	if lookupError := definition.Err(); lookupError != nil {
		return nil, fmt.Errorf(schemaDefinitionMissingTemplate, trimmedDefinitionName, lookupError)
	}

	return &Validator{context: cueContext, definition: definition}, nil
}

// Validate unifies the decoded document with the definition and reports every concrete violation.
// A nil return means the document satisfies the schema.
func (validator *Validator) Validate(document any) error {
	if validator == nil || validator.context == nil {
		return errors.New(nilValidatorMessageConstant)
	}

	encodedDocument := validator.context.Encode(document)
	if encodeError := encodedDocument.Err(); encodeError != nil {
		return fmt.Errorf(documentEncodeErrorTemplateConstant, encodeError)
	}

	unifiedDocument := validator.definition.Unify(encodedDocument)
	validationError := unifiedDocument.Validate(cue.Concrete(true))
	if validationError == nil {
		return nil
	}

	return ValidationError{Violations: collectViolations(validationError)}
}

func collectViolations(validationError error) []Violation {
	cueViolations := cueerrors.Errors(validationError)
	if len(cueViolations) == 0 {
		return []Violation{{Field: documentRootFieldConstant, Message: validationError.Error()}}
	}

	violations := make([]Violation, 0, len(cueViolations))
	seen := make(map[Violation]struct{}, len(cueViolations))
	for _, cueViolation := range cueViolations {
		fieldPath := strings.Join(cueViolation.Path(), fieldPathSeparatorConstant)
		if len(fieldPath) == 0 {
			fieldPath = documentRootFieldConstant
		}
		format, arguments := cueViolation.Msg()
		violation := Violation{Field: fieldPath, Message: fmt.Sprintf(format, arguments...)}
		if _, duplicate := seen[violation]; duplicate {
			continue
		}
		seen[violation] = struct{}{}
		violations = append(violations, violation)
	}
	return violations
}
