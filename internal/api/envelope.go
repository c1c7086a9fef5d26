package api

// Envelope wraps every response. Message is always set; Data is null on
// errors and Error is null on success.
type Envelope[T any] struct {
	Message string     `json:"message"`
	Data    *T         `json:"data"`
	Meta    Meta       `json:"meta"`
	Error   *ErrorBody `json:"error"`
}

// Meta holds cross-cutting metadata.
type Meta struct {
	TraceID *string `json:"traceId,omitempty"`
}

// ErrorBody describes an error in a predictable structured format.
type ErrorBody struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []FieldIssue `json:"details,omitempty"`
}

// FieldIssue gives field-level or contextual error information.
type FieldIssue struct {
	Field string `json:"field,omitempty"`
	Issue string `json:"issue"`
}

// NewSuccessEnvelope constructs a success envelope.
func NewSuccessEnvelope[T any](traceID *string, message string, data T) Envelope[T] {
	d := data
	return Envelope[T]{
		Message: message,
		Data:    &d,
		Meta:    Meta{TraceID: traceID},
	}
}

// NewErrorEnvelope constructs an error envelope with no data.
func NewErrorEnvelope[T any](traceID *string, code, msg string, details []FieldIssue) Envelope[T] {
	var cloned []FieldIssue
	if len(details) > 0 {
		cloned = make([]FieldIssue, len(details))
		copy(cloned, details)
	}
	return Envelope[T]{
		Message: msg,
		Meta:    Meta{TraceID: traceID},
		Error: &ErrorBody{
			Code:    code,
			Message: msg,
			Details: cloned,
		},
	}
}
