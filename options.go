package eleve

import "github.com/xy-liao/eleve/store"

// StorageKind selects the backend an Index's two tries are opened with.
type StorageKind int

const (
	// StorageMemory keeps both tries in an in-memory goleveldb instance;
	// nothing is persisted.
	StorageMemory StorageKind = iota
	// StoragePersistent opens both tries as on-disk goleveldb databases
	// under Options.PathPrefix.
	StoragePersistent
)

// DefaultTerminals are the sentence-boundary tokens used when
// Options.Terminals is left empty.
var DefaultTerminals = Ngram{"^", "$"}

// Options configures a new Index.
type Options struct {
	// Order (D) is the maximum segment length the segmenter will
	// consider, and bounds the ngram length accepted by the query
	// methods. Must be > 1. The two underlying tries store ngrams up to
	// length D+1, so entropy at depth D can be computed from its
	// children.
	Order int

	// Terminals are the tokens treated as sentence boundaries by entropy
	// computation. Defaults to DefaultTerminals.
	Terminals Ngram

	// Storage selects the backend kind. Defaults to StorageMemory.
	Storage StorageKind

	// PathPrefix is the base path for a persistent backend: the two
	// tries are opened at PathPrefix+"_fwd" and PathPrefix+"_bwd".
	// Required when Storage is StoragePersistent.
	PathPrefix string

	// EnablePostings turns on the optional forward-only docid->frequency
	// posting list (QueryPostings). Off by default.
	EnablePostings bool
}

func (o Options) withDefaults() Options {
	if len(o.Terminals) == 0 {
		o.Terminals = DefaultTerminals
	}
	return o
}

// Validate reports a ConfigError if o is not usable to construct an
// Index.
func (o Options) Validate() error {
	if o.Order <= 1 {
		return &ConfigError{Msg: "order must be > 1"}
	}
	if len(o.Terminals) > 0 {
		seen := make(map[Token]struct{}, len(o.Terminals))
		for _, t := range o.Terminals {
			if _, dup := seen[t]; dup {
				return &ConfigError{Msg: "terminals must not contain duplicates"}
			}
			seen[t] = struct{}{}
			if err := store.ValidateToken([]byte(t)); err != nil {
				return &ConfigError{Msg: "terminal token invalid: " + err.Error()}
			}
		}
	}
	if o.Storage == StoragePersistent && o.PathPrefix == "" {
		return &ConfigError{Msg: "path_prefix is required for persistent storage"}
	}
	return nil
}
