package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsZalgo(t *testing.T) {
	assert := assert.New(t)

	fixtures := []struct {
		text string
		out  bool
	}{
		{text: "", out: false},
		{text: "hello world", out: false},
		{text: "héllo wörld", out: false},
		// five marks stacked on one base character
		{text: "h́̂̃̄̅e", out: true},
		// a mark on every other character: ratio 0.5 over 8 code points
		{text: "áááá", out: true},
		// too short for the ratio check, under the per-cluster cap
		{text: "áb", out: false},
		// long text with sparse marks stays under the ratio
		{text: "náive cooperation résumé but mostly plain text", out: false},
	}

	for _, fix := range fixtures {
		assert.Equal(fix.out, IsZalgo(fix.text), "text: %q", fix.text)
	}
}
