package vcard

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	govcard "github.com/emersion/go-vcard"
	"github.com/google/uuid"
)

// Validate performs the structural checks a PUT body must pass before it is
// stored: BEGIN/END framing, a parseable card, VERSION and FN present.
func Validate(raw []byte) error {
	if len(raw) == 0 {
		return errors.New("empty vCard data")
	}

	content := string(raw)
	if !strings.Contains(content, "BEGIN:VCARD") {
		return errors.New("vCard data missing BEGIN:VCARD")
	}
	if !strings.Contains(content, "END:VCARD") {
		return errors.New("vCard data missing END:VCARD")
	}

	cards, err := parseAll(raw)
	if err != nil {
		return fmt.Errorf("vCard parsing failed: %w", err)
	}
	if len(cards) == 0 {
		return errors.New("no valid vCard found after parsing")
	}

	for i, c := range cards {
		if c.Value(govcard.FieldVersion) == "" {
			return fmt.Errorf("vCard %d missing VERSION", i)
		}
		if c.Value(govcard.FieldFormattedName) == "" {
			return fmt.Errorf("vCard %d missing FN", i)
		}
	}
	return nil
}

// Normalize re-encodes the payload with CRLF line endings, a VERSION default,
// an FN generated from N when absent, and a UID backfilled when missing.
// fallbackUID fills a missing UID property; a fresh random one is generated
// only when no fallback is supplied. With a stable fallback, identical input
// bytes always normalize to identical output bytes, which is what makes
// retried writes converge on one change tag.
func Normalize(raw []byte, fallbackUID string) ([]byte, error) {
	cards, err := parseAll(raw)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, errors.New("no vcard found")
	}

	for _, c := range cards {
		if c.Value(govcard.FieldVersion) == "" {
			c.SetValue(govcard.FieldVersion, "3.0")
		}

		if c.Value(govcard.FieldFormattedName) == "" {
			if name := c.Name(); name != nil {
				fn := strings.TrimSpace(strings.Join([]string{
					name.GivenName, name.AdditionalName, name.FamilyName,
				}, " "))
				if fn != "" {
					c.SetValue(govcard.FieldFormattedName, fn)
				}
			}
			if c.Value(govcard.FieldFormattedName) == "" {
				return nil, errors.New("vcard missing FN and cannot generate from N")
			}
		}

		if c.Value(govcard.FieldUID) == "" {
			if fallbackUID != "" {
				c.SetValue(govcard.FieldUID, fallbackUID)
			} else {
				c.SetValue(govcard.FieldUID, uuid.NewString())
			}
		}
	}

	var buf bytes.Buffer
	enc := govcard.NewEncoder(&buf)
	for _, c := range cards {
		if err := enc.Encode(c); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Parse decodes the first card of a stored payload, for filter evaluation.
func Parse(raw []byte) (govcard.Card, error) {
	cards, err := parseAll(raw)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, errors.New("no vcard found")
	}
	return cards[0], nil
}

func parseAll(b []byte) ([]govcard.Card, error) {
	// Normalize line endings to CRLF as required by RFC 6350
	content := strings.ReplaceAll(string(b), "\n", "\r\n")
	content = strings.ReplaceAll(content, "\r\r\n", "\r\n")

	dec := govcard.NewDecoder(strings.NewReader(content))
	var out []govcard.Card
	for {
		c, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode vCard: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}
