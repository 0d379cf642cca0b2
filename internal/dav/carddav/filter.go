package carddav

import (
	"fmt"
	"strings"

	govcard "github.com/emersion/go-vcard"

	"github.com/ebalder/contactdav/internal/dav/common"
	"github.com/ebalder/contactdav/internal/storage"
	"github.com/ebalder/contactdav/pkg/vcard"
)

// filterContacts keeps the contacts whose vCard content satisfies the
// filter. A nil filter, or one with no prop-filter children, matches
// everything. Contacts whose stored payload no longer parses are
// included rather than silently dropped.
func (h *Handlers) filterContacts(contacts []*storage.Contact, f *common.QueryFilter) []*storage.Contact {
	if f == nil || len(f.PropFilters) == 0 {
		return contacts
	}
	out := make([]*storage.Contact, 0, len(contacts))
	for _, c := range contacts {
		card, err := vcard.Parse([]byte(c.Data))
		if err != nil {
			h.logger.Debug().Err(err).
				Str("uid", c.UID).
				Msg("stored contact no longer parses, including in query result")
			out = append(out, c)
			continue
		}
		match, err := matchFilter(card, f)
		if err != nil {
			h.logger.Debug().Err(err).
				Str("uid", c.UID).
				Msg("filter evaluation failed, including contact")
			out = append(out, c)
			continue
		}
		if match {
			out = append(out, c)
		}
	}
	return out
}

func matchFilter(card govcard.Card, f *common.QueryFilter) (bool, error) {
	allOf := strings.EqualFold(f.Test, "allof")
	for _, pf := range f.PropFilters {
		ok, err := matchPropFilter(card, pf)
		if err != nil {
			return false, err
		}
		if allOf && !ok {
			return false, nil
		}
		if !allOf && ok {
			return true, nil
		}
	}
	return allOf, nil
}

func matchPropFilter(card govcard.Card, pf common.PropFilter) (bool, error) {
	if pf.Name == "" {
		return false, fmt.Errorf("prop-filter without name attribute")
	}
	fields := card[strings.ToUpper(pf.Name)]
	if pf.IsNotDefined != nil {
		return len(fields) == 0, nil
	}
	if len(fields) == 0 {
		return false, nil
	}
	if len(pf.TextMatches) == 0 {
		return true, nil
	}

	allOf := strings.EqualFold(pf.Test, "allof")
	for _, tm := range pf.TextMatches {
		ok := false
		for _, field := range fields {
			if matchText(tm, field.Value) {
				ok = true
				break
			}
		}
		if allOf && !ok {
			return false, nil
		}
		if !allOf && ok {
			return true, nil
		}
	}
	return allOf, nil
}

func matchText(tm common.TextMatch, value string) bool {
	haystack := strings.ToLower(value)
	needle := strings.ToLower(tm.Text)

	var ok bool
	switch tm.MatchType {
	case "", "contains":
		ok = strings.Contains(haystack, needle)
	case "equals":
		ok = haystack == needle
	case "starts-with":
		ok = strings.HasPrefix(haystack, needle)
	case "ends-with":
		ok = strings.HasSuffix(haystack, needle)
	default:
		ok = strings.Contains(haystack, needle)
	}
	if tm.NegateCondition == "yes" {
		ok = !ok
	}
	return ok
}
