package ingest

import (
	"errors"
	"testing"
)

func TestParseFormat_KnownFormats(t *testing.T) {
	cases := map[string]Format{
		"csv":   FormatCSV,
		"JSON":  FormatJSON,
		" xml ": FormatXML,
	}
	for input, expected := range cases {
		got, err := ParseFormat(input)
		if err != nil {
			t.Errorf("Expected no error for %q, got %v", input, err)
		}
		if got != expected {
			t.Errorf("Expected %q for %q, got %q", expected, input, got)
		}
	}
}

func TestParseFormat_Unknown(t *testing.T) {
	_, err := ParseFormat("yaml")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestDetectFormat_ContentType(t *testing.T) {
	cases := map[string]Format{
		"text/csv":                        FormatCSV,
		"application/csv":                 FormatCSV,
		"application/json":                FormatJSON,
		"application/json; charset=utf-8": FormatJSON,
		"application/xml":                 FormatXML,
		"text/xml":                        FormatXML,
	}
	for ct, expected := range cases {
		got, err := DetectFormat(ct, "")
		if err != nil {
			t.Errorf("Expected no error for %q, got %v", ct, err)
		}
		if got != expected {
			t.Errorf("Expected %q for %q, got %q", expected, ct, got)
		}
	}
}

func TestDetectFormat_ExtensionFallback(t *testing.T) {
	got, err := DetectFormat("", "/tmp/export/tickets.JSON")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != FormatJSON {
		t.Errorf("Expected json from extension, got %q", got)
	}

	got, err = DetectFormat("application/octet-stream", "backlog.csv")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if got != FormatCSV {
		t.Errorf("Expected csv fallback for opaque content type, got %q", got)
	}
}

func TestDetectFormat_Unknown(t *testing.T) {
	_, err := DetectFormat("application/pdf", "tickets.pdf")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestRegistry_ForFormat(t *testing.T) {
	reg := NewRegistry()
	for _, f := range []Format{FormatCSV, FormatJSON, FormatXML} {
		n, err := reg.ForFormat(f)
		if err != nil {
			t.Fatalf("Expected normalizer for %q, got error %v", f, err)
		}
		if n.Format() != f {
			t.Errorf("Expected format %q, got %q", f, n.Format())
		}
	}

	_, err := reg.ForFormat("parquet")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestNormalizationError_Unwrap(t *testing.T) {
	inner := errors.New("bad syntax")
	err := &NormalizationError{Format: FormatJSON, Err: inner}

	if !errors.Is(err, inner) {
		t.Error("Expected wrapped error to match with errors.Is")
	}

	var nerr *NormalizationError
	if !errors.As(error(err), &nerr) {
		t.Error("Expected errors.As to find NormalizationError")
	}
	if nerr.Format != FormatJSON {
		t.Errorf("Expected format json, got %q", nerr.Format)
	}
}
