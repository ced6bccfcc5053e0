package analysis

import "fmt"

// ValidationError rejects user input before any model call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ResponseParseError is returned when the model reply is not JSON at all.
// Raw keeps the untouched reply for diagnostic logging only.
type ResponseParseError struct {
	Raw string
	Err error
}

func (e *ResponseParseError) Error() string {
	return fmt.Sprintf("failed to parse model response as JSON: %v", e.Err)
}

func (e *ResponseParseError) Unwrap() error {
	return e.Err
}

// ResponseSchemaError is returned when the reply is JSON but does not match the
// expected shape.
type ResponseSchemaError struct {
	Raw     string
	Field   string
	Problem string
}

func (e *ResponseSchemaError) Error() string {
	return fmt.Sprintf("model response failed schema validation: %s: %s", e.Field, e.Problem)
}
