package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractURLs(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		text string
		out  []string
	}{
		{text: "no links here", out: nil},
		{text: "see https://example.com/page for details", out: []string{"https://example.com/page"}},
		{text: "bare domain example.org and www.test.org too", out: []string{"example.org", "www.test.org"}},
		{text: "ftp://files.example.com/pub", out: []string{"ftp://files.example.com/pub"}},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.out, ExtractURLs(fix.text), "text: %q", fix.text)
	}
}

func TestHostname(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("example.com", Hostname("https://Example.COM/path?x=1"))
	assert.Equal("sub.test.org", Hostname("sub.test.org/x"))
	assert.Equal("example.com", Hostname("example.com."))
}

func TestRegisteredDomain(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("example.com", RegisteredDomain("https://cdn.static.example.com/a.png"))
	assert.Equal("example.co.uk", RegisteredDomain("a.b.example.co.uk/x"))
	// unparseable suffix falls back to the bare host
	assert.Equal("localhost.localdomain", RegisteredDomain("localhost.localdomain"))
}

func TestDomainMatches(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		host   string
		domain string
		out    bool
	}{
		{host: "example.com", domain: "example.com", out: true},
		{host: "cdn.example.com", domain: "example.com", out: true},
		{host: "Example.COM", domain: "example.com", out: true},
		{host: "evilexample.com", domain: "example.com", out: false},
		{host: "example.com.evil.net", domain: "example.com", out: false},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.out, DomainMatches(fix.host, fix.domain), "%s vs %s", fix.host, fix.domain)
	}
}
