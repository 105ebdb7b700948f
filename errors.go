package eleve

// ConfigError reports an invalid Options value: order <= 1, inconsistent
// terminals, or an invalid path.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return "eleve: config error: " + e.Msg
}

// InputError reports an ngram outside the valid length range for the
// operation, or an empty ngram where one is disallowed (autonomy on the
// root).
type InputError struct {
	Msg string
}

func (e *InputError) Error() string {
	return "eleve: invalid input: " + e.Msg
}

// Store-layer failures bubble up unchanged as *store.Error (see package
// store); this package does not re-wrap them, per the design's "C1
// errors bubble through C2 unchanged" rule. Callers that want to
// distinguish a store failure should use errors.As with *store.Error.

// Invariant violations detected while recomputing entropy likewise bubble
// up unchanged as *trie.CorruptionError; this package defines no separate
// corruption error type.
