package eleve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func flatten(segments []Ngram) Ngram {
	var out Ngram
	for _, s := range segments {
		out = append(out, s...)
	}
	return out
}

func TestSegmentEmptyInput(t *testing.T) {
	ix := newTestIndex(t, 3)
	segments, err := ix.Segment(nil)
	require.NoError(t, err)
	require.Empty(t, segments)
}

// TestScenarioS4 follows spec.md §8 scenario S4: a trie trained only on
// [the, cat] groups [the, cat] together and emits [sat] alone.
func TestScenarioS4(t *testing.T) {
	ix := newTestIndex(t, 3)
	for i := 0; i < 20; i++ {
		require.NoError(t, ix.AddSentence(Ngram{"the", "cat"}, 0, 1))
	}
	require.NoError(t, ix.UpdateStats())

	segments, err := ix.Segment(Ngram{"the", "cat", "sat"})
	require.NoError(t, err)
	require.Len(t, segments, 2)
	require.Equal(t, Ngram{"the", "cat"}, segments[0])
	require.Equal(t, Ngram{"sat"}, segments[1])
}

// TestScenarioS7Completeness is spec.md §8 property 7: concatenating the returned
// segments (sentinels stripped) reproduces the input exactly.
func TestScenarioS7Completeness(t *testing.T) {
	ix := newTestIndex(t, 3)
	for i := 0; i < 10; i++ {
		require.NoError(t, ix.AddSentence(Ngram{"a", "b", "c"}, 0, 1))
	}
	require.NoError(t, ix.UpdateStats())

	input := Ngram{"a", "b", "c", "d", "e"}
	segments, err := ix.Segment(input)
	require.NoError(t, err)
	require.Equal(t, input, flatten(segments))
}

func TestSegmentNoEmptySegments(t *testing.T) {
	ix := newTestIndex(t, 3)
	segments, err := ix.Segment(Ngram{"z"})
	require.NoError(t, err)
	for _, s := range segments {
		require.NotEmpty(t, s)
	}
	require.Equal(t, Ngram{"z"}, flatten(segments))
}

func TestSegmentRespectsOrderBound(t *testing.T) {
	ix := newTestIndex(t, 2)
	for i := 0; i < 5; i++ {
		require.NoError(t, ix.AddSentence(Ngram{"a", "b", "c", "d"}, 0, 1))
	}
	require.NoError(t, ix.UpdateStats())

	segments, err := ix.Segment(Ngram{"a", "b", "c", "d"})
	require.NoError(t, err)
	for _, s := range segments {
		require.LessOrEqual(t, len(s), 2)
	}
	require.Equal(t, Ngram{"a", "b", "c", "d"}, flatten(segments))
}
