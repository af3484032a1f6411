package ingest

import (
	"errors"
	"testing"
)

func TestXMLNormalizer_Normalize_TicketChildren(t *testing.T) {
	payload := `<tickets>
		<ticket><customer_id>C-1</customer_id><subject>Login broken</subject></ticket>
		<ticket><customer_id>C-2</customer_id><subject>Refund please</subject></ticket>
	</tickets>`

	records, err := NewXMLNormalizer().Normalize([]byte(payload))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0]["customer_id"] != "C-1" {
		t.Errorf("Expected first record customer_id C-1, got %q", records[0]["customer_id"])
	}
	if records[1]["subject"] != "Refund please" {
		t.Errorf("Expected second record subject, got %q", records[1]["subject"])
	}
}

func TestXMLNormalizer_Normalize_SingleTicketPromoted(t *testing.T) {
	payload := `<export><ticket><subject>Only one</subject></ticket><generated>2026-01-01</generated></export>`

	records, err := NewXMLNormalizer().Normalize([]byte(payload))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected single ticket child promoted to 1 record, got %d", len(records))
	}
	if records[0]["subject"] != "Only one" {
		t.Errorf("Expected subject from ticket child, got %q", records[0]["subject"])
	}
}

func TestXMLNormalizer_Normalize_ItemChildren(t *testing.T) {
	payload := `<feed><title>Queue</title><item><subject>A</subject></item><item><subject>B</subject></item></feed>`

	records, err := NewXMLNormalizer().Normalize([]byte(payload))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 item records, got %d", len(records))
	}
	if records[0]["subject"] != "A" || records[1]["subject"] != "B" {
		t.Errorf("Expected item subjects A and B, got %q and %q", records[0]["subject"], records[1]["subject"])
	}
}

func TestXMLNormalizer_Normalize_UniformChildren(t *testing.T) {
	payload := `<rows><row><subject>one</subject></row><row><subject>two</subject></row></rows>`

	records, err := NewXMLNormalizer().Normalize([]byte(payload))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Expected repeated children treated as records, got %d", len(records))
	}
	if records[1]["subject"] != "two" {
		t.Errorf("Expected second row subject, got %q", records[1]["subject"])
	}
}

func TestXMLNormalizer_Normalize_RootAsSingleRecord(t *testing.T) {
	payload := `<ticket><customer_id>C-7</customer_id><subject>Standalone</subject><description>Body text</description></ticket>`

	records, err := NewXMLNormalizer().Normalize([]byte(payload))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected whole root as 1 record, got %d", len(records))
	}
	if records[0]["description"] != "Body text" {
		t.Errorf("Expected description from root children, got %q", records[0]["description"])
	}
}

func TestXMLNormalizer_Normalize_MetadataFlattened(t *testing.T) {
	payload := `<ticket><subject>hi</subject><metadata><source>email</source><region>eu</region></metadata></ticket>`

	records, err := NewXMLNormalizer().Normalize([]byte(payload))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if records[0]["metadata.source"] != "email" {
		t.Errorf("Expected metadata.source=email, got %q", records[0]["metadata.source"])
	}
	if records[0]["metadata.region"] != "eu" {
		t.Errorf("Expected metadata.region=eu, got %q", records[0]["metadata.region"])
	}
}

func TestXMLNormalizer_Normalize_TrimsText(t *testing.T) {
	payload := "<ticket><subject>\n\t  spaced out  \n</subject></ticket>"

	records, err := NewXMLNormalizer().Normalize([]byte(payload))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if records[0]["subject"] != "spaced out" {
		t.Errorf("Expected trimmed text, got %q", records[0]["subject"])
	}
}

func TestXMLNormalizer_Normalize_MixedContent(t *testing.T) {
	payload := `<ticket><description>Server down <b>now</b></description></ticket>`

	records, err := NewXMLNormalizer().Normalize([]byte(payload))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if records[0]["description"] != "Server down now" {
		t.Errorf("Expected element text kept alongside child text, got %q", records[0]["description"])
	}
}

func TestXMLNormalizer_Normalize_Malformed(t *testing.T) {
	_, err := NewXMLNormalizer().Normalize([]byte(`<ticket><subject>unclosed</ticket>`))
	var nerr *NormalizationError
	if !errors.As(err, &nerr) {
		t.Fatalf("Expected NormalizationError, got %v", err)
	}
	if nerr.Format != FormatXML {
		t.Errorf("Expected xml format in error, got %q", nerr.Format)
	}
}

func TestXMLNormalizer_Normalize_MultipleRoots(t *testing.T) {
	_, err := NewXMLNormalizer().Normalize([]byte(`<ticket/><ticket/>`))
	var nerr *NormalizationError
	if !errors.As(err, &nerr) {
		t.Errorf("Expected NormalizationError for second root, got %v", err)
	}
}

func TestXMLNormalizer_Normalize_EmptyDocument(t *testing.T) {
	_, err := NewXMLNormalizer().Normalize([]byte(""))
	var nerr *NormalizationError
	if !errors.As(err, &nerr) {
		t.Errorf("Expected NormalizationError for empty document, got %v", err)
	}
}
