package schema_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/canonsync/internal/schema"
)

const testSchemaSourceConstant = `
#Entry: {
	name:   string & !=""
	count?: int & >=0
	kind:   "alpha" | "beta"
	...
}
#Document: {
	entries: [...#Entry]
	...
}
`

func TestValidatorValidate(testInstance *testing.T) {
	validator, constructionError := schema.NewValidator(testSchemaSourceConstant, "#Document")
	require.NoError(testInstance, constructionError)

	testCases := []struct {
		name          string
		document      any
		expectValid   bool
		expectedField string
	}{
		{
			name: "valid_document_with_extra_fields",
			document: map[string]any{
				"entries": []any{
					map[string]any{"name": "first", "kind": "alpha", "extra": true},
					map[string]any{"name": "second", "kind": "beta", "count": 3},
				},
				"version": "1.0.0",
			},
			expectValid: true,
		},
		{
			name: "missing_required_field",
			document: map[string]any{
				"entries": []any{
					map[string]any{"kind": "alpha"},
				},
			},
			expectValid:   false,
			expectedField: "entries.0.name",
		},
		{
			name: "mismatched_type",
			document: map[string]any{
				"entries": []any{
					map[string]any{"name": "first", "kind": "alpha"},
					map[string]any{"name": 7, "kind": "beta"},
				},
			},
			expectValid:   false,
			expectedField: "entries.1.name",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			validationError := validator.Validate(testCase.document)
			if testCase.expectValid {
				require.NoError(testInstance, validationError)
				return
			}

			require.Error(testInstance, validationError)
			var violations schema.ValidationError
			require.True(testInstance, errors.As(validationError, &violations))
			require.NotEmpty(testInstance, violations.Violations)
			require.Contains(testInstance, validationError.Error(), testCase.expectedField)
		})
	}
}

func TestNewValidatorRejectsInvalidDefinitions(testInstance *testing.T) {
	testCases := []struct {
		name           string
		schemaSource   string
		definitionName string
	}{
		{name: "empty_definition_name", schemaSource: testSchemaSourceConstant, definitionName: " "},
		{name: "definition_without_prefix", schemaSource: testSchemaSourceConstant, definitionName: "Document"},
		{name: "unknown_definition", schemaSource: testSchemaSourceConstant, definitionName: "#Unknown"},
		{name: "invalid_source", schemaSource: "#Document: {", definitionName: "#Document"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			validator, constructionError := schema.NewValidator(testCase.schemaSource, testCase.definitionName)
			require.Error(testInstance, constructionError)
			require.Nil(testInstance, validator)
		})
	}
}
