package model

// FieldError is one field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return e.Field + ": " + e.Message
}

// RowError is the failure detail for one rejected import row.
type RowError struct {
	Row    int               `json:"row"`    // 1-based position in the normalized sequence
	Data   map[string]string `json:"data"`   // the offending raw field-mapping
	Errors []string          `json:"errors"` // validator messages
}

// ImportSummary is the ephemeral aggregate produced by one bulk-import
// call. Total always equals Successful + Failed.
type ImportSummary struct {
	Total      int        `json:"total"`
	Successful int        `json:"successful"`
	Failed     int        `json:"failed"`
	Errors     []RowError `json:"errors,omitempty"`
}
