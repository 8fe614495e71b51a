package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/dshills/natan/internal/config/loader"
	"github.com/dshills/natan/internal/config/tree"
)

func parseTree(t *testing.T, src string) *tree.Map {
	t.Helper()
	m, err := loader.JSONParser{}.Parse("test.json", []byte(src))
	require.NoError(t, err)
	return m
}

func TestScanString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Occurrence
	}{
		{
			name: "single key",
			in:   "k{ a.b }",
			want: []Occurrence{{Tag: TagKey, Body: "a.b", Raw: "k{ a.b }", Start: 0, End: 8}},
		},
		{
			name: "mixed text",
			in:   "http://h:k{port}/p{x}",
			want: []Occurrence{
				{Tag: TagKey, Body: "port", Raw: "k{port}", Start: 9, End: 16},
				{Tag: TagPath, Body: "x", Raw: "p{x}", Start: 17, End: 21},
			},
		},
		{
			name: "escaped brace",
			in:   `r{ ^a\}b$ }`,
			want: []Occurrence{{Tag: TagRegex, Body: "^a}b$", Raw: `r{ ^a\}b$ }`, Start: 0, End: 11}},
		},
		{
			name: "every tag",
			in:   "k{a} t{1s} p{.} r{x} f{1}",
			want: []Occurrence{
				{Tag: TagKey, Body: "a", Raw: "k{a}", Start: 0, End: 4},
				{Tag: TagDuration, Body: "1s", Raw: "t{1s}", Start: 5, End: 10},
				{Tag: TagPath, Body: ".", Raw: "p{.}", Start: 11, End: 15},
				{Tag: TagRegex, Body: "x", Raw: "r{x}", Start: 16, End: 20},
				{Tag: TagSnippet, Body: "1", Raw: "f{1}", Start: 21, End: 25},
			},
		},
		{
			name: "tag after word characters",
			in:   "port_k{o} v1k{o}",
			want: []Occurrence{
				{Tag: TagKey, Body: "o", Raw: "k{o}", Start: 5, End: 9},
				{Tag: TagKey, Body: "o", Raw: "k{o}", Start: 12, End: 16},
			},
		},
		{
			name: "unknown letter",
			in:   "x{y} {z}",
		},
		{
			name: "unterminated",
			in:   "k{a.b",
		},
		{
			name: "terminated then unterminated",
			in:   "k{a} and k{b",
			want: []Occurrence{{Tag: TagKey, Body: "a", Raw: "k{a}", Start: 0, End: 4}},
		},
		{
			name: "empty body",
			in:   "p{}",
			want: []Occurrence{{Tag: TagPath, Body: "", Raw: "p{}", Start: 0, End: 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScanString(nil, tt.in)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScan_Order(t *testing.T) {
	root := parseTree(t, `{
		"b": "k{x}",
		"a": { "z": "t{1s}", "y": ["p{.}", 3, "r{x} f{1}"] },
		"plain": "nothing here",
		"k{key}": "keys are not scanned"
	}`)

	occs := Scan(root)
	require.Len(t, occs, 5)

	var got []string
	for _, o := range occs {
		got = append(got, o.Path.String()+" "+o.Raw)
	}
	assert.Equal(t, []string{
		"b k{x}",
		"a.z t{1s}",
		"a.y.0 p{.}",
		"a.y.2 r{x}",
		"a.y.2 f{1}",
	}, got)
}

func TestTag_String(t *testing.T) {
	for _, tag := range []Tag{TagKey, TagDuration, TagPath, TagRegex, TagSnippet} {
		got, ok := tagForLetter(tag.Letter())
		assert.True(t, ok)
		assert.Equal(t, tag, got)
		assert.NotEqual(t, "unknown", tag.String())
	}
	assert.Equal(t, "unknown", Tag(99).String())
}

func TestScanString_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.StringMatching(`[kf{} a\\.]{0,24}`).Draw(t, "s")

		first := ScanString(nil, s)
		second := ScanString(nil, s)
		if len(first) != len(second) {
			t.Fatalf("scan not deterministic for %q", s)
		}

		last := 0
		for _, o := range first {
			if o.Start < last || o.End <= o.Start || o.End > len(s) {
				t.Fatalf("bad bounds %d..%d in %q", o.Start, o.End, s)
			}
			if s[o.Start:o.End] != o.Raw {
				t.Fatalf("raw %q does not match source %q", o.Raw, s[o.Start:o.End])
			}
			if o.Raw[len(o.Raw)-1] != '}' {
				t.Fatalf("raw %q not closed", o.Raw)
			}
			last = o.End
		}
	})
}
