package common

import (
	"bytes"
	"encoding/xml"
	"io"
)

// RawXMLValue is a raw XML value. It implements xml.Unmarshaler and
// xml.Marshaler and can be used to delay XML decoding or precompute an XML
// encoding.
type RawXMLValue struct {
	tok      xml.Token // guaranteed not to be xml.EndElement
	children []RawXMLValue
}

// UnmarshalXML implements xml.Unmarshaler.
func (val *RawXMLValue) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	val.tok = start
	val.children = nil

	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch tok := tok.(type) {
		case xml.StartElement:
			child := RawXMLValue{}
			if err := child.UnmarshalXML(d, tok); err != nil {
				return err
			}
			val.children = append(val.children, child)
		case xml.EndElement:
			return nil
		default:
			val.children = append(val.children, RawXMLValue{tok: xml.CopyToken(tok)})
		}
	}
}

// MarshalXML implements xml.Marshaler.
func (val *RawXMLValue) MarshalXML(e *xml.Encoder, _ xml.StartElement) error {
	switch tok := val.tok.(type) {
	case xml.StartElement:
		if err := e.EncodeToken(tok); err != nil {
			return err
		}
		for _, child := range val.children {
			if err := child.MarshalXML(e, xml.StartElement{}); err != nil {
				return err
			}
		}
		return e.EncodeToken(tok.End())
	case xml.EndElement:
		panic("common: unexpected end element")
	default:
		return e.EncodeToken(tok)
	}
}

var (
	_ xml.Marshaler   = (*RawXMLValue)(nil)
	_ xml.Unmarshaler = (*RawXMLValue)(nil)
)

// XMLName returns the name of the root element, if the value is an element.
func (val *RawXMLValue) XMLName() (xml.Name, bool) {
	if start, ok := val.tok.(xml.StartElement); ok {
		return start.Name, true
	}
	return xml.Name{}, false
}

// EncodeRawXMLElement marshals v and re-parses it as a RawXMLValue, so that
// arbitrary prop structs can be collected under a single DAV:prop element.
func EncodeRawXMLElement(v interface{}) (*RawXMLValue, error) {
	var buf bytes.Buffer
	if err := xml.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	var raw RawXMLValue
	if err := xml.NewDecoder(&buf).Decode(&raw); err != nil && err != io.EOF {
		return nil, err
	}
	return &raw, nil
}
