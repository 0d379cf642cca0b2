package common

import "encoding/xml"

// PropRequest is the digested form of a request's DAV:prop element.
type PropRequest struct {
	GetETag     bool
	AddressData bool
}

type PropContainer struct {
	XMLName xml.Name      `xml:"DAV: prop"`
	Raw     []RawXMLValue `xml:",any"`
}

// ParsePropRequest inspects the requested property names. An empty or absent
// prop element asks for etag and address-data, which keeps older clients that
// omit the element working.
func ParsePropRequest(pc PropContainer) PropRequest {
	if len(pc.Raw) == 0 {
		return PropRequest{GetETag: true, AddressData: true}
	}
	var req PropRequest
	for i := range pc.Raw {
		name, ok := pc.Raw[i].XMLName()
		if !ok {
			continue
		}
		switch {
		case name.Space == NSDAV && name.Local == "getetag":
			req.GetETag = true
		case name.Space == NSCardDAV && name.Local == "address-data":
			req.AddressData = true
		}
	}
	return req
}

type AddressbookQuery struct {
	XMLName xml.Name       `xml:"urn:ietf:params:xml:ns:carddav addressbook-query"`
	Prop    PropContainer  `xml:"DAV: prop"`
	Filter  *QueryFilter   `xml:"urn:ietf:params:xml:ns:carddav filter"`
	Limit   *SyncLimit     `xml:"DAV: limit,omitempty"`
}

type QueryFilter struct {
	Test        string       `xml:"test,attr"`
	PropFilters []PropFilter `xml:"urn:ietf:params:xml:ns:carddav prop-filter"`
}

type PropFilter struct {
	Name         string      `xml:"name,attr"`
	Test         string      `xml:"test,attr"`
	IsNotDefined *struct{}   `xml:"urn:ietf:params:xml:ns:carddav is-not-defined,omitempty"`
	TextMatches  []TextMatch `xml:"urn:ietf:params:xml:ns:carddav text-match"`
}

type TextMatch struct {
	Text            string `xml:",chardata"`
	MatchType       string `xml:"match-type,attr"`
	NegateCondition string `xml:"negate-condition,attr"`
}

type AddressbookMultiget struct {
	XMLName xml.Name      `xml:"urn:ietf:params:xml:ns:carddav addressbook-multiget"`
	Prop    PropContainer `xml:"DAV: prop"`
	Hrefs   []string      `xml:"DAV: href"`
}

type SyncCollection struct {
	XMLName   xml.Name      `xml:"DAV: sync-collection"`
	SyncToken string        `xml:"sync-token"`
	Limit     *SyncLimit    `xml:"limit,omitempty"`
	Prop      PropContainer `xml:"DAV: prop"`
}

type SyncLimit struct {
	NResults int `xml:"nresults"`
}
