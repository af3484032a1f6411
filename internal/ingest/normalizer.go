package ingest

import (
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
)

// Format identifies a supported import wire format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXML  Format = "xml"
)

// ErrUnsupportedFormat is returned when a declared content type or file
// extension maps to no known normalizer.
var ErrUnsupportedFormat = errors.New("unsupported import format")

// NormalizationError reports a payload that could not be parsed as its
// declared format. It is batch-fatal for imports, unlike per-row
// validation failures, so callers distinguish it with errors.As.
type NormalizationError struct {
	Format Format
	Err    error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize %s: %v", e.Format, e.Err)
}

func (e *NormalizationError) Unwrap() error {
	return e.Err
}

// Normalizer converts raw bytes of one wire format into an ordered
// sequence of flat field-mappings. Implementations never panic; every
// failure is a returned *NormalizationError carrying the parser's message.
//
// Nested record structure is flattened: a metadata object/element becomes
// "metadata.<key>" entries in the mapping.
type Normalizer interface {
	// Format returns the wire format this normalizer handles.
	Format() Format

	// Normalize parses the payload into field-mappings in payload order.
	// A structurally valid payload with zero records is a success.
	Normalize(data []byte) ([]map[string]string, error)
}

// Registry dispatches payloads to the normalizer for their format.
type Registry struct {
	normalizers map[Format]Normalizer
}

// NewRegistry creates a registry with the built-in CSV, JSON, and XML
// normalizers registered.
func NewRegistry() *Registry {
	r := &Registry{normalizers: make(map[Format]Normalizer)}
	r.Register(NewCSVNormalizer())
	r.Register(NewJSONNormalizer())
	r.Register(NewXMLNormalizer())
	return r
}

// Register adds a normalizer, replacing any previous one for its format.
func (r *Registry) Register(n Normalizer) {
	r.normalizers[n.Format()] = n
}

// ForFormat returns the normalizer for the given format.
func (r *Registry) ForFormat(f Format) (Normalizer, error) {
	if n, ok := r.normalizers[f]; ok {
		return n, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// ParseFormat converts an explicit format name ("csv", "json", "xml")
// into a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatXML:
		return FormatXML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// DetectFormat resolves a format from a declared content type, falling
// back to the payload path's extension. Media type parameters (charset
// and friends) are ignored.
func DetectFormat(contentType, path string) (Format, error) {
	if contentType != "" {
		mediaType := contentType
		if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
			mediaType = parsed
		}
		switch strings.ToLower(mediaType) {
		case "text/csv", "application/csv":
			return FormatCSV, nil
		case "application/json", "text/json":
			return FormatJSON, nil
		case "application/xml", "text/xml":
			return FormatXML, nil
		}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".xml":
		return FormatXML, nil
	}

	if contentType != "" {
		return "", fmt.Errorf("%w: content type %q", ErrUnsupportedFormat, contentType)
	}
	return "", fmt.Errorf("%w: cannot detect format of %q", ErrUnsupportedFormat, path)
}
