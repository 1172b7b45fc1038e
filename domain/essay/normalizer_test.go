package essay

import (
	"testing"

	"github.com/helixml/careerpath/domain/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	n := NewNormalizer(0)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain english",
			in:   "I love designing software and solving logic puzzles.",
			want: "I love designing software and solving logic puzzles.",
		},
		{
			name: "collapses whitespace",
			in:   "  I   love\tcoding\n\nevery   day  ",
			want: "I love coding every day",
		},
		{
			name: "strips zero width",
			in:   "soft\u200bware engi\ufeffneer\u2060ing",
			want: "software engineering",
		},
		{
			name: "strips urls",
			in:   "See https://example.com/a?b=c and www.example.org for my portfolio",
			want: "See and for my portfolio",
		},
		{
			name: "composes decomposed vietnamese",
			in:   "To\u0302i thi\u0301ch la\u0300m vie\u0323\u0302c",
			want: "Tôi thích làm việc",
		},
		{
			name: "drops emoji and symbols but keeps punctuation",
			in:   "Math & art (50%) 🚀 are my passions #1!",
			want: "Math & art (50%) are my passions 1!",
		},
		{
			name: "drops non latin scripts",
			in:   "I enjoy 数学 and physics a lot",
			want: "I enjoy and physics a lot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_TooShort(t *testing.T) {
	n := NewNormalizer(10)

	for _, in := range []string{"", "   ", "short", "🚀🚀🚀🚀🚀🚀🚀🚀🚀🚀🚀", "https://example.com/long/url"} {
		_, err := n.Normalize(in)
		assert.ErrorIs(t, err, errs.ErrValidation, "input %q", in)
	}
}

func TestNormalize_CountsCharactersNotBytes(t *testing.T) {
	n := NewNormalizer(10)

	got, err := n.Normalize("tôi thích ư")
	require.NoError(t, err)
	assert.Equal(t, "tôi thích ư", got)
}

func TestNewNormalizer_Default(t *testing.T) {
	assert.Equal(t, DefaultMinLength, NewNormalizer(-1).MinLength())
	assert.Equal(t, 25, NewNormalizer(25).MinLength())
}
