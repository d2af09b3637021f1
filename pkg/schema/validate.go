package schema

import "sort"

// Schema is a map of field names to their expected types.
// Example: {"name": String(), "qty": Int(), "tags": Slice(String())}
type Schema map[string]Type

// Validate checks if data conforms to the schema. Every field is required unless its
// type is Optional. Fields not named by the schema are allowed.
// Failures are reported together, ordered by field name.
func Validate(schema Schema, data map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	fields := make([]string, 0, len(schema))
	for name := range schema {
		fields = append(fields, name)
	}
	sort.Strings(fields)

	var errs []error
	for _, fieldName := range fields {
		fieldType := schema[fieldName]
		value, exists := data[fieldName]
		if !exists {
			if isOptional(fieldType) {
				continue
			}
			errs = append(errs, &ValidationError{Key: fieldName, Reason: "required"})
			continue
		}

		if err := fieldType.Validate(value); err != nil {
			errs = append(errs, &ValidationError{
				Key:    fieldName,
				Reason: err.Error(),
				Value:  value,
			})
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// ValidateValue checks a value that should be an object against the schema.
func ValidateValue(schema Schema, value any) error {
	if len(schema) == 0 {
		return nil
	}
	data, ok := value.(map[string]any)
	if !ok {
		return &ValidationError{Key: "payload", Reason: "expected object", Value: value}
	}
	return Validate(schema, data)
}
