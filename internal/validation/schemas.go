package validation

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/xeipuuv/gojsonschema"
)

const (
	CompareRequestSchema          = "compare-request"
	DirectoryCompareRequestSchema = "directory-compare-request"
	AuthRequestSchema             = "auth-request"
)

//go:embed schemas/*.json
var embeddedSchemas embed.FS

var schemaFiles = map[string]string{
	CompareRequestSchema:          "compare-request.json",
	DirectoryCompareRequestSchema: "directory-compare-request.json",
	AuthRequestSchema:             "auth-request.json",
}

// SchemaValidator handles JSON schema validation for API requests
type SchemaValidator struct {
	schemas map[string]*gojsonschema.Schema
}

// NewSchemaValidator creates a new schema validator instance
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{
		schemas: make(map[string]*gojsonschema.Schema),
	}
}

// NewEmbeddedSchemaValidator returns a validator with the built-in request
// schemas loaded.
func NewEmbeddedSchemaValidator() (*SchemaValidator, error) {
	sv := NewSchemaValidator()
	if err := sv.LoadSchemaFromFS(embeddedSchemas, "schemas"); err != nil {
		return nil, err
	}
	return sv, nil
}

// LoadSchemaFromFS loads schemas from a filesystem
func (sv *SchemaValidator) LoadSchemaFromFS(fsys fs.FS, schemaDir string) error {
	for name, filename := range schemaFiles {
		schemaPath := path.Join(schemaDir, filename)

		schemaBytes, err := fs.ReadFile(fsys, schemaPath)
		if err != nil {
			return fmt.Errorf("failed to read schema file %s: %w", schemaPath, err)
		}

		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaBytes))
		if err != nil {
			return fmt.Errorf("failed to load schema %s: %w", name, err)
		}

		sv.schemas[name] = schema
	}

	return nil
}

// SchemaDocument returns the raw embedded schema with the given name.
func SchemaDocument(name string) ([]byte, bool) {
	filename, ok := schemaFiles[name]
	if !ok {
		return nil, false
	}
	data, err := embeddedSchemas.ReadFile(path.Join("schemas", filename))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (sv *SchemaValidator) ValidateCompareRequest(data interface{}) *ValidationResult {
	return sv.validate(CompareRequestSchema, data)
}

func (sv *SchemaValidator) ValidateDirectoryCompareRequest(data interface{}) *ValidationResult {
	return sv.validate(DirectoryCompareRequestSchema, data)
}

// ValidateJSON validates raw JSON against a named schema
func (sv *SchemaValidator) ValidateJSON(schemaName string, document []byte) *ValidationResult {
	return sv.validate(schemaName, document)
}

func (sv *SchemaValidator) validate(schemaName string, data interface{}) *ValidationResult {
	schema, exists := sv.schemas[schemaName]
	if !exists {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "schema",
				Message: fmt.Sprintf("Schema '%s' not found", schemaName),
				Code:    "SCHEMA_NOT_FOUND",
			}},
		}
	}

	var documentLoader gojsonschema.JSONLoader
	switch v := data.(type) {
	case string:
		documentLoader = gojsonschema.NewStringLoader(v)
	case []byte:
		documentLoader = gojsonschema.NewBytesLoader(v)
	default:
		jsonBytes, err := json.Marshal(data)
		if err != nil {
			return &ValidationResult{
				Valid: false,
				Errors: []ValidationError{{
					Field:   "data",
					Message: fmt.Sprintf("Failed to marshal data to JSON: %v", err),
					Code:    "JSON_MARSHAL_ERROR",
				}},
			}
		}
		documentLoader = gojsonschema.NewBytesLoader(jsonBytes)
	}

	result, err := schema.Validate(documentLoader)
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "body",
				Message: fmt.Sprintf("Request body must be valid JSON: %v", err),
				Code:    "INVALID_JSON",
			}},
		}
	}

	validationResult := &ValidationResult{
		Valid:  result.Valid(),
		Errors: make([]ValidationError, 0),
	}

	for _, err := range result.Errors() {
		validationResult.Errors = append(validationResult.Errors, ValidationError{
			Field:   err.Field(),
			Message: err.Description(),
			Code:    "VALIDATION_ERROR",
			Value:   err.Value(),
			Context: err.Context().String(),
		})
	}

	return validationResult
}

// ValidationResult represents the result of a validation operation
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Value   interface{} `json:"value,omitempty"`
	Context string      `json:"context,omitempty"`
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation error in field '%s': %s", ve.Field, ve.Message)
}

// Code returns the API error code for a failed result.
func (vr *ValidationResult) Code() string {
	for _, e := range vr.Errors {
		if e.Code == "INVALID_JSON" {
			return e.Code
		}
	}
	return "VALIDATION_ERROR"
}

// ToAPIError converts validation errors to API error format
func (vr *ValidationResult) ToAPIError() map[string]interface{} {
	if vr.Valid {
		return nil
	}

	message := "Request validation failed"
	if len(vr.Errors) > 0 {
		message = vr.Errors[0].Field + ": " + vr.Errors[0].Message
	}

	// Extract field-specific errors for easier client handling
	fieldErrors := make(map[string][]string)
	for _, err := range vr.Errors {
		if err.Field != "" {
			fieldErrors[err.Field] = append(fieldErrors[err.Field], err.Message)
		}
	}

	errorDetails := map[string]interface{}{
		"validationErrors": vr.Errors,
	}
	if len(fieldErrors) > 0 {
		errorDetails["fieldErrors"] = fieldErrors
	}

	apiError := map[string]interface{}{
		"code":    vr.Code(),
		"message": message,
		"details": errorDetails,
	}
	if len(vr.Errors) > 0 {
		apiError["field"] = vr.Errors[0].Field
	}

	return map[string]interface{}{"error": apiError}
}

// GetAvailableSchemas returns the loaded schema names, sorted
func (sv *SchemaValidator) GetAvailableSchemas() []string {
	schemas := make([]string, 0, len(sv.schemas))
	for name := range sv.schemas {
		schemas = append(schemas, name)
	}
	sort.Strings(schemas)
	return schemas
}

// SchemaExists checks if a schema with the given name is loaded
func (sv *SchemaValidator) SchemaExists(name string) bool {
	_, exists := sv.schemas[name]
	return exists
}
