package ingest

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// XMLNormalizer parses XML payloads. The document must have exactly one
// root element; records are located by inspecting the root's children:
//
//  1. if the root's children are a uniform repeated element, each child
//     is one record;
//  2. else if the root has <ticket> children, those are the records (a
//     single child is promoted to a one-record sequence);
//  3. else if the root has <item> children, likewise;
//  4. otherwise the root itself is a single record.
type XMLNormalizer struct{}

func NewXMLNormalizer() *XMLNormalizer {
	return &XMLNormalizer{}
}

func (n *XMLNormalizer) Format() Format {
	return FormatXML
}

type xmlNode struct {
	XMLName xml.Name
	Nodes   []xmlNode `xml:",any"`
	Text    string    `xml:",chardata"`
}

func (n *XMLNormalizer) Normalize(data []byte) ([]map[string]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var root xmlNode
	if err := dec.Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty document")
		}
		return nil, &NormalizationError{Format: FormatXML, Err: err}
	}
	if err := requireSingleRoot(dec); err != nil {
		return nil, &NormalizationError{Format: FormatXML, Err: err}
	}

	for _, elems := range [][]xmlNode{
		uniformChildren(&root),
		childrenNamed(&root, "ticket"),
		childrenNamed(&root, "item"),
	} {
		if len(elems) > 0 {
			records := make([]map[string]string, 0, len(elems))
			for i := range elems {
				records = append(records, xmlRecord(&elems[i]))
			}
			return records, nil
		}
	}
	return []map[string]string{xmlRecord(&root)}, nil
}

// requireSingleRoot consumes the remaining token stream and rejects any
// second root element or trailing text.
func requireSingleRoot(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return fmt.Errorf("document has more than one root element (<%s>)", t.Name.Local)
		case xml.CharData:
			if strings.TrimSpace(string(t)) != "" {
				return errors.New("trailing content after root element")
			}
		}
	}
}

// uniformChildren returns the root's children when they form a repeated
// collection of one element name, which marks the root as an array.
func uniformChildren(root *xmlNode) []xmlNode {
	if len(root.Nodes) < 2 {
		return nil
	}
	name := root.Nodes[0].XMLName.Local
	for i := range root.Nodes {
		if root.Nodes[i].XMLName.Local != name {
			return nil
		}
	}
	return root.Nodes
}

func childrenNamed(root *xmlNode, name string) []xmlNode {
	var out []xmlNode
	for i := range root.Nodes {
		if root.Nodes[i].XMLName.Local == name {
			out = append(out, root.Nodes[i])
		}
	}
	return out
}

// xmlRecord flattens one record element into a field-mapping. A
// <metadata> child contributes "metadata.<key>" entries; any other child
// maps its tag name to its collected text.
func xmlRecord(elem *xmlNode) map[string]string {
	record := make(map[string]string, len(elem.Nodes))
	for i := range elem.Nodes {
		child := &elem.Nodes[i]
		if child.XMLName.Local == "metadata" && len(child.Nodes) > 0 {
			for j := range child.Nodes {
				meta := &child.Nodes[j]
				record["metadata."+meta.XMLName.Local] = collectText(meta)
			}
			continue
		}
		record[child.XMLName.Local] = collectText(child)
	}
	return record
}

// collectText flattens an element to its visible text. Mixed content
// keeps the element's own character data ahead of its children's.
func collectText(n *xmlNode) string {
	if len(n.Nodes) == 0 {
		return strings.TrimSpace(n.Text)
	}
	parts := make([]string, 0, len(n.Nodes)+1)
	if own := strings.TrimSpace(n.Text); own != "" {
		parts = append(parts, own)
	}
	for i := range n.Nodes {
		if t := collectText(&n.Nodes[i]); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
