// Package text implements the content-analysis helpers behind the rule
// matchers: URL and invite extraction, custom emoji parsing, combining-mark
// ("zalgo") detection, and unicode normalization.
package text

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// based on: https://stackoverflow.com/a/48769624, with no trailing period allowed
var urlRegex = regexp.MustCompile(`(?:(?:https?|ftp):\/\/)?[\w/\-?=%.]+\.[\w/\-&?=%.]*[\w/\-&?=%]+`)

func ExtractURLs(raw string) []string {
	return urlRegex.FindAllString(raw, -1)
}

// Hostname returns the lower-cased host of a URL-ish string, tolerating a
// missing scheme. Returns empty string when the input has no parseable host.
func Hostname(raw string) string {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
}

// RegisteredDomain returns the eTLD+1 of a URL-ish string, lower-cased.
// Returns empty string when the input has no parseable host.
func RegisteredDomain(raw string) string {
	host := Hostname(raw)
	if host == "" {
		return ""
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// bare TLDs, IP addresses, etc
		return host
	}
	return domain
}

// DomainMatches reports whether host falls under domain: an exact match or
// any subdomain of it.
func DomainMatches(host, domain string) bool {
	host = strings.ToLower(host)
	domain = strings.ToLower(domain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}
