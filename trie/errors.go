package trie

// InputError reports an ngram that violates the trie's length contract,
// or a token that cannot be safely encoded.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string {
	return "trie: invalid input: " + e.Msg
}

// CorruptionError reports an invariant violation detected while
// recomputing entropy: children counts that don't sum to their parent's,
// or a negative entropy value. The trie does not attempt repair.
type CorruptionError struct {
	Msg string
}

func (e *CorruptionError) Error() string {
	return "trie: corruption detected: " + e.Msg
}
