package ingest

import (
	"errors"
	"testing"
)

func TestJSONNormalizer_Normalize_SingleObjectWrapped(t *testing.T) {
	payload := `{"customer_id":"C-1","subject":"Cannot log in"}`

	records, err := NewJSONNormalizer().Normalize([]byte(payload))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected single object wrapped as 1 record, got %d", len(records))
	}
	if records[0]["subject"] != "Cannot log in" {
		t.Errorf("Expected subject preserved, got %q", records[0]["subject"])
	}
}

func TestJSONNormalizer_Normalize_ArrayUsedAsIs(t *testing.T) {
	payload := `[{"subject":"first"},{"subject":"second"},{"subject":"third"}]`

	records, err := NewJSONNormalizer().Normalize([]byte(payload))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	for i, expected := range []string{"first", "second", "third"} {
		if records[i]["subject"] != expected {
			t.Errorf("Expected record %d subject %q, got %q", i, expected, records[i]["subject"])
		}
	}
}

func TestJSONNormalizer_Normalize_EmptyArray(t *testing.T) {
	records, err := NewJSONNormalizer().Normalize([]byte(`[]`))
	if err != nil {
		t.Fatalf("Expected empty array to succeed, got %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected 0 records, got %d", len(records))
	}
}

func TestJSONNormalizer_Normalize_ScalarValues(t *testing.T) {
	payload := `{"customer_id":1042,"urgent":true,"resolved":false,"score":3.5}`

	records, err := NewJSONNormalizer().Normalize([]byte(payload))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	r := records[0]
	if r["customer_id"] != "1042" {
		t.Errorf("Expected number kept as source text, got %q", r["customer_id"])
	}
	if r["urgent"] != "true" || r["resolved"] != "false" {
		t.Errorf("Expected booleans stringified, got %q / %q", r["urgent"], r["resolved"])
	}
	if r["score"] != "3.5" {
		t.Errorf("Expected 3.5, got %q", r["score"])
	}
}

func TestJSONNormalizer_Normalize_NullDropped(t *testing.T) {
	payload := `{"subject":"hi","category":null}`

	records, err := NewJSONNormalizer().Normalize([]byte(payload))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, ok := records[0]["category"]; ok {
		t.Error("Expected null field to be dropped from the mapping")
	}
}

func TestJSONNormalizer_Normalize_MetadataFlattened(t *testing.T) {
	payload := `{"subject":"hi","metadata":{"source":"portal","sla":"gold"}}`

	records, err := NewJSONNormalizer().Normalize([]byte(payload))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if records[0]["metadata.source"] != "portal" {
		t.Errorf("Expected metadata.source=portal, got %q", records[0]["metadata.source"])
	}
	if records[0]["metadata.sla"] != "gold" {
		t.Errorf("Expected metadata.sla=gold, got %q", records[0]["metadata.sla"])
	}
	if _, ok := records[0]["metadata"]; ok {
		t.Error("Expected metadata object itself to be flattened away")
	}
}

func TestJSONNormalizer_Normalize_MalformedSyntax(t *testing.T) {
	_, err := NewJSONNormalizer().Normalize([]byte(`{"subject": "unterminated`))
	var nerr *NormalizationError
	if !errors.As(err, &nerr) {
		t.Fatalf("Expected NormalizationError, got %v", err)
	}
	if nerr.Format != FormatJSON {
		t.Errorf("Expected json format in error, got %q", nerr.Format)
	}
}

func TestJSONNormalizer_Normalize_ScalarPayload(t *testing.T) {
	_, err := NewJSONNormalizer().Normalize([]byte(`"just a string"`))
	var nerr *NormalizationError
	if !errors.As(err, &nerr) {
		t.Errorf("Expected NormalizationError for scalar payload, got %v", err)
	}
}

func TestJSONNormalizer_Normalize_ArrayElementNotObject(t *testing.T) {
	_, err := NewJSONNormalizer().Normalize([]byte(`[{"subject":"ok"}, 42]`))
	var nerr *NormalizationError
	if !errors.As(err, &nerr) {
		t.Fatalf("Expected NormalizationError, got %v", err)
	}
}

func TestJSONNormalizer_Normalize_EmptyPayload(t *testing.T) {
	_, err := NewJSONNormalizer().Normalize([]byte("  \n"))
	var nerr *NormalizationError
	if !errors.As(err, &nerr) {
		t.Errorf("Expected NormalizationError for empty payload, got %v", err)
	}
}
