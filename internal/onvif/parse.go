package onvif

import (
	"encoding/xml"
	"net/url"
	"regexp"
	"strings"
)

// extractFirst returns the first submatch of pattern in text, or "" if the
// pattern does not match. Patterns used throughout this package are
// namespace-tolerant: they match the local element name regardless of the
// namespace prefix a device chose to use.
func extractFirst(pattern, text string) string {
	re := regexp.MustCompile(pattern)
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

var profileTokenPattern = regexp.MustCompile(`<[^:]*:Profiles[^>]*token="([^"]+)"`)

// extractFirstProfileToken returns the token attribute of the first
// *:Profiles element in a GetProfiles response.
func extractFirstProfileToken(text string) string {
	m := profileTokenPattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

var uriPattern = regexp.MustCompile(`<[^:]*:Uri>([^<]+)</[^:]*:Uri>`)

// extractFirstURI returns the text content of the first *:Uri element.
func extractFirstURI(text string) string {
	m := uriPattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

var ptzXAddrPattern = regexp.MustCompile(`(?s)<[^:]*:PTZ>.*?<[^:]*:XAddr>(.*?)</[^:]*:XAddr>`)

// extractPTZXAddr returns the XAddr nested under the PTZ capability
// element of a GetCapabilities response.
func extractPTZXAddr(text string) string {
	m := ptzXAddrPattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

var utcDateTimePattern = regexp.MustCompile(`(?s)<[^:]*:UTCDateTime>.*?<[^:]*:Date>.*?<[^:]*:Year>(\d+)</[^:]*:Year>.*?<[^:]*:Month>(\d+)</[^:]*:Month>.*?<[^:]*:Day>(\d+)</[^:]*:Day>.*?</[^:]*:Date>.*?<[^:]*:Time>.*?<[^:]*:Hour>(\d+)</[^:]*:Hour>.*?<[^:]*:Minute>(\d+)</[^:]*:Minute>.*?<[^:]*:Second>(\d+)</[^:]*:Second>`)

// extractUTCDateTime returns the (year, month, day, hour, minute, second)
// tuple from a GetSystemDateAndTime response's UTCDateTime element.
func extractUTCDateTime(text string) (y, mo, d, h, mi, s int, ok bool) {
	m := utcDateTimePattern.FindStringSubmatch(text)
	if len(m) < 7 {
		return 0, 0, 0, 0, 0, 0, false
	}
	return atoi(m[1]), atoi(m[2]), atoi(m[3]), atoi(m[4]), atoi(m[5]), atoi(m[6]), true
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return n
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// xmlNode is a generic, namespace-agnostic DOM node used to walk
// WS-Discovery ProbeMatch replies descendant-first.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Content  string     `xml:",chardata"`
	Children []xmlNode  `xml:",any"`
}

// localName strips any namespace prefix, matching by local name only.
func localName(n xml.Name) string {
	return n.Local
}

// findDescendantFirst performs a depth-first, descendant-first search for
// the first node whose local name equals name, returning that node.
func findDescendantFirst(n xmlNode, name string) (xmlNode, bool) {
	for _, child := range n.Children {
		if found, ok := findDescendantFirst(child, name); ok {
			return found, true
		}
	}
	if localName(n.XMLName) == name {
		return n, true
	}
	return xmlNode{}, false
}

// findAllDescendants collects every node with the given local name,
// descendant-first (deepest matches appended before their ancestors are
// even visited at this level, since children are walked before the
// current node is considered).
func findAllDescendants(n xmlNode, name string, out *[]xmlNode) {
	for _, child := range n.Children {
		findAllDescendants(child, name, out)
	}
	if localName(n.XMLName) == name {
		*out = append(*out, n)
	}
}

// parseScopes splits a WS-Discovery Scopes value (a whitespace-separated
// list of URIs) and extracts the name and hardware scope values,
// URL-decoding their path segments.
func parseScopes(scopesText string) (name, hardware string) {
	for _, scope := range strings.Fields(scopesText) {
		u, err := url.Parse(scope)
		if err != nil {
			continue
		}
		switch {
		case strings.HasPrefix(u.Path, "/name/"):
			if decoded, err := url.QueryUnescape(strings.TrimPrefix(u.Path, "/name/")); err == nil {
				name = decoded
			}
		case strings.HasPrefix(u.Path, "/hardware/"):
			if decoded, err := url.QueryUnescape(strings.TrimPrefix(u.Path, "/hardware/")); err == nil {
				hardware = decoded
			}
		}
	}
	return name, hardware
}
