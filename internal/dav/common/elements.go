package common

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	NSDAV     = "DAV:"
	NSCardDAV = "urn:ietf:params:xml:ns:carddav"
)

type Href struct {
	XMLName xml.Name `xml:"DAV: href"`
	Value   string   `xml:",chardata"`
}

// Status is a DAV:status element carrying an HTTP status line
// ("HTTP/1.1 404 Not Found").
type Status struct {
	Code int
}

func (s *Status) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	text := fmt.Sprintf("HTTP/1.1 %d %s", s.Code, http.StatusText(s.Code))
	return e.EncodeElement(text, start)
}

func (s *Status) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var text string
	if err := d.DecodeElement(&text, &start); err != nil {
		return err
	}
	parts := strings.SplitN(strings.TrimSpace(text), " ", 3)
	if len(parts) < 2 {
		return fmt.Errorf("common: malformed status line %q", text)
	}
	code, err := strconv.Atoi(parts[1])
	if err != nil {
		return fmt.Errorf("common: malformed status code in %q", text)
	}
	s.Code = code
	return nil
}

type Prop struct {
	XMLName xml.Name      `xml:"DAV: prop"`
	Raw     []RawXMLValue `xml:",any"`
}

type Propstat struct {
	XMLName xml.Name `xml:"DAV: propstat"`
	Prop    Prop     `xml:"DAV: prop"`
	Status  Status   `xml:"DAV: status"`
}

// Response is one per-resource entry of a multistatus body. A resource either
// carries propstats (per-property statuses) or a single bare status; one
// resource's failure never affects its siblings.
type Response struct {
	XMLName   xml.Name   `xml:"DAV: response"`
	Hrefs     []Href     `xml:"DAV: href"`
	Propstats []Propstat `xml:"DAV: propstat,omitempty"`
	Status    *Status    `xml:"DAV: status,omitempty"`
}

// EncodeProp marshals v and files it under the propstat matching code,
// creating the propstat on first use.
func (resp *Response) EncodeProp(code int, v interface{}) error {
	raw, err := EncodeRawXMLElement(v)
	if err != nil {
		return err
	}
	for i := range resp.Propstats {
		if resp.Propstats[i].Status.Code == code {
			resp.Propstats[i].Prop.Raw = append(resp.Propstats[i].Prop.Raw, *raw)
			return nil
		}
	}
	resp.Propstats = append(resp.Propstats, Propstat{
		Prop:   Prop{Raw: []RawXMLValue{*raw}},
		Status: Status{Code: code},
	})
	return nil
}

type MultiStatus struct {
	XMLName                     xml.Name   `xml:"DAV: multistatus"`
	Responses                   []Response `xml:"DAV: response"`
	SyncToken                   string     `xml:"DAV: sync-token,omitempty"`
	NumberOfMatchesWithinLimits string     `xml:"DAV: number-of-matches-within-limits,omitempty"`
}

func NewMultiStatus(resps ...Response) *MultiStatus {
	return &MultiStatus{Responses: resps}
}

// ServeMultiStatus writes ms as a 207 Multi-Status response.
func ServeMultiStatus(w http.ResponseWriter, ms *MultiStatus) error {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(ms); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusMultiStatus)
	_, err := w.Write(buf.Bytes())
	return err
}

// Property elements served in PROPFIND/REPORT responses.

type ResourceType struct {
	XMLName     xml.Name  `xml:"DAV: resourcetype"`
	Collection  *struct{} `xml:"DAV: collection,omitempty"`
	Principal   *struct{} `xml:"DAV: principal,omitempty"`
	Addressbook *struct{} `xml:"urn:ietf:params:xml:ns:carddav addressbook,omitempty"`
}

type DisplayName struct {
	XMLName xml.Name `xml:"DAV: displayname"`
	Name    string   `xml:",chardata"`
}

type GetETag struct {
	XMLName xml.Name `xml:"DAV: getetag"`
	ETag    string   `xml:",chardata"`
}

// GetETagProp wraps a change tag in the quoting the protocol expects.
func GetETagProp(etag string) GetETag {
	return GetETag{ETag: `"` + etag + `"`}
}

type GetContentType struct {
	XMLName xml.Name `xml:"DAV: getcontenttype"`
	Type    string   `xml:",chardata"`
}

type GetLastModified struct {
	XMLName      xml.Name `xml:"DAV: getlastmodified"`
	LastModified string   `xml:",chardata"`
}

// TimeText formats a timestamp the way getlastmodified and Last-Modified want.
func TimeText(t time.Time) string {
	return t.UTC().Format(http.TimeFormat)
}

type Owner struct {
	XMLName xml.Name `xml:"DAV: owner"`
	Href    *Href
}

type CurrentUserPrincipal struct {
	XMLName xml.Name `xml:"DAV: current-user-principal"`
	Href    *Href
}

type PrincipalCollectionSet struct {
	XMLName xml.Name `xml:"DAV: principal-collection-set"`
	Hrefs   []Href
}

type PrincipalURLProp struct {
	XMLName xml.Name `xml:"DAV: principal-URL"`
	Href    Href
}

type AddressbookHomeSet struct {
	XMLName xml.Name `xml:"urn:ietf:params:xml:ns:carddav addressbook-home-set"`
	Hrefs   []Href
}

type AddressData struct {
	XMLName xml.Name `xml:"urn:ietf:params:xml:ns:carddav address-data"`
	Text    string   `xml:",chardata"`
}

type AddressDataType struct {
	XMLName     xml.Name `xml:"urn:ietf:params:xml:ns:carddav address-data-type"`
	ContentType string   `xml:"content-type,attr"`
	Version     string   `xml:"version,attr"`
}

type SupportedAddressData struct {
	XMLName         xml.Name          `xml:"urn:ietf:params:xml:ns:carddav supported-address-data"`
	AddressDataType []AddressDataType `xml:"urn:ietf:params:xml:ns:carddav address-data-type"`
}

type MaxResourceSize struct {
	XMLName xml.Name `xml:"urn:ietf:params:xml:ns:carddav max-resource-size"`
	Size    int64    `xml:",chardata"`
}

type SyncTokenProp struct {
	XMLName xml.Name `xml:"DAV: sync-token"`
	Text    string   `xml:",chardata"`
}

type GetCTag struct {
	XMLName xml.Name `xml:"http://calendarserver.org/ns/ getctag"`
	Text    string   `xml:",chardata"`
}

type ReportType struct {
	XMLName             xml.Name  `xml:"DAV: report"`
	AddressbookQuery    *struct{} `xml:"urn:ietf:params:xml:ns:carddav addressbook-query,omitempty"`
	AddressbookMultiget *struct{} `xml:"urn:ietf:params:xml:ns:carddav addressbook-multiget,omitempty"`
	SyncCollection      *struct{} `xml:"DAV: sync-collection,omitempty"`
}

type SupportedReport struct {
	XMLName xml.Name `xml:"DAV: supported-report"`
	Report  ReportType
}

type SupportedReportSet struct {
	XMLName         xml.Name          `xml:"DAV: supported-report-set"`
	SupportedReport []SupportedReport `xml:"DAV: supported-report"`
}
