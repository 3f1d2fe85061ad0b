// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mutation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNew(t *testing.T, pos int, wt, mut string) PointMutation {
	t.Helper()
	m, err := New(pos, wt, mut)
	require.NoError(t, err)
	return m
}

func TestNew_NormalizesResidues(t *testing.T) {
	want := mustNew(t, 42, "A", "C")
	for _, pair := range [][2]string{
		{"Ala", "Cys"},
		{"ALA", "CYS"},
		{"alanine", "cysteine"},
		{"a", "c"},
		{"Alanine", "C"},
	} {
		got, err := New(42, pair[0], pair[1])
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.True(t, want.Equal(got))
	}
	assert.Equal(t, 42, want.Position())
	assert.Equal(t, byte('A'), want.Wildtype())
	assert.Equal(t, byte('C'), want.Mutant())
	assert.Equal(t, "A42C", want.String())
}

func TestNew_Invalid(t *testing.T) {
	tests := []struct {
		name string
		pos  int
		wt   string
		mut  string
	}{
		{"zero position", 0, "A", "C"},
		{"negative position", -42, "A", "C"},
		{"unknown wild type", 42, "O", "C"},
		{"unknown mutant", 42, "A", "O"},
		{"digit mutant", 42, "A", "5"},
		{"ambiguous wild type", 42, "Xaa", "C"},
		{"empty mutant", 42, "A", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.pos, tt.wt, tt.mut)
			assert.ErrorIs(t, err, ErrInvalidMutation)
		})
	}
}

func TestFromText(t *testing.T) {
	got, err := FromText(" 42 ", "Ser", "thr")
	require.NoError(t, err)
	assert.Equal(t, "S42T", got.String())

	for _, in := range []string{"hello", "+5", "-5", "4 2", "", "4.2", "0x1F"} {
		_, err = FromText(in, "A", "C")
		assert.ErrorIs(t, err, ErrInvalidMutation, "position %q", in)
	}

	_, err = FromText("99999999999999999999999", "A", "C")
	assert.ErrorIs(t, err, ErrInvalidMutation)
}

func TestParseCompact_Valid(t *testing.T) {
	tests := []struct {
		in  string
		pos int
	}{
		{"A5T", 5},
		{"A56T", 56},
		{"A568T", 568},
		{"A5699T", 5699},
		{"A56990T", 56990},
	}
	for _, tt := range tests {
		got, err := ParseCompact(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, mustNew(t, tt.pos, "A", "T"), got)
	}
}

func TestParseCompact_Invalid(t *testing.T) {
	for _, in := range []string{"", "T", "AT", "65T", "AGT", "A65", "A65O", "Ala65Lys", "A0T", " A65T"} {
		_, err := ParseCompact(in)
		assert.ErrorIs(t, err, ErrInvalidMutation, "input %q", in)
	}
}

func TestEqual(t *testing.T) {
	a := mustNew(t, 42, "A", "C")
	b := mustNew(t, 42, "A", "C")
	assert.True(t, a.Equal(b))
	assert.True(t, a.Equal(&b))
	assert.False(t, a.Equal(mustNew(t, 43, "A", "C")))
	assert.False(t, a.Equal(mustNew(t, 42, "G", "C")))
	assert.False(t, a.Equal(mustNew(t, 42, "A", "G")))
	assert.False(t, a.Equal(nil))

	var nilPtr *PointMutation
	assert.False(t, a.Equal(nilPtr))
}

func TestMapKeyIdentity(t *testing.T) {
	counts := Counts{}
	counts[mustNew(t, 42, "Ala", "Cys")]++
	counts[mustNew(t, 42, "A", "C")]++
	assert.Len(t, counts, 1)
	assert.Equal(t, 2, counts[mustNew(t, 42, "alanine", "cysteine")])
}

func TestIsNoOp(t *testing.T) {
	assert.True(t, mustNew(t, 460, "W", "Trp").IsNoOp())
	assert.False(t, mustNew(t, 460, "W", "G").IsNoOp())
}

func TestMentions_CountsAndSorted(t *testing.T) {
	w36y := mustNew(t, 36, "W", "Y")
	s42t := mustNew(t, 42, "S", "T")
	m := Mentions{
		w36y: {{6, 10}, {26, 30}, {12, 20}},
		s42t: {{0, 4}},
	}
	counts := m.Counts()
	assert.Equal(t, Counts{w36y: 3, s42t: 1}, counts)
	assert.Equal(t, 4, counts.Total())

	assert.Equal(t, []PointMutation{s42t, w36y}, Sorted(m))
	assert.Equal(t, []PointMutation{s42t, w36y}, Sorted(counts))
}

func TestSpan(t *testing.T) {
	s := Span{Start: 4, End: 15}
	assert.Equal(t, 11, s.Len())
	assert.Equal(t, "4,15", s.String())
}
