package eleve

import (
	"github.com/xy-liao/eleve/store"
	"github.com/xy-liao/eleve/trie"
)

// Index is the bidirectional index (component C3): it owns a forward and
// a backward entropy trie, opened at <PathPrefix>_fwd/_bwd for a
// persistent backend, and answers combined queries by averaging the two
// directions' statistics. Branching entropy to the right (fwd) captures
// right-context cohesion; to the left (bwd), left-context cohesion.
type Index struct {
	opts   Options
	fwd    *trie.Trie
	bwd    *trie.Trie
	fwdStr store.Store
	bwdStr store.Store
}

// New creates an Index per opts, opening (or creating) its two
// underlying stores. opts.Order must be > 1.
func New(opts Options) (*Index, error) {
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	fwdStore, bwdStore, err := openStores(opts)
	if err != nil {
		return nil, err
	}

	terminals := opts.Terminals.strings()
	fwd, err := trie.Open(fwdStore, trie.Options{
		MaxDepth:  opts.Order + 1,
		Terminals: terminals,
		Postings:  opts.EnablePostings,
	})
	if err != nil {
		_ = fwdStore.Close()
		_ = bwdStore.Close()
		return nil, err
	}
	bwd, err := trie.Open(bwdStore, trie.Options{
		MaxDepth:  opts.Order + 1,
		Terminals: terminals,
		Postings:  false,
	})
	if err != nil {
		_ = fwdStore.Close()
		_ = bwdStore.Close()
		return nil, err
	}

	return &Index{opts: opts, fwd: fwd, bwd: bwd, fwdStr: fwdStore, bwdStr: bwdStore}, nil
}

func openStores(opts Options) (fwd, bwd store.Store, err error) {
	switch opts.Storage {
	case StorageMemory:
		if fwd, err = store.OpenMemory(); err != nil {
			return nil, nil, err
		}
		if bwd, err = store.OpenMemory(); err != nil {
			_ = fwd.Close()
			return nil, nil, err
		}
		return fwd, bwd, nil
	case StoragePersistent:
		if fwd, err = store.OpenFile(opts.PathPrefix + "_fwd"); err != nil {
			return nil, nil, err
		}
		if bwd, err = store.OpenFile(opts.PathPrefix + "_bwd"); err != nil {
			_ = fwd.Close()
			return nil, nil, err
		}
		return fwd, bwd, nil
	default:
		return nil, nil, &ConfigError{Msg: "unknown storage kind"}
	}
}

// Close releases the underlying stores' resources.
func (ix *Index) Close() error {
	err1 := ix.fwdStr.Close()
	err2 := ix.bwdStr.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// Order returns the configured segmenter order D.
func (ix *Index) Order() int {
	return ix.opts.Order
}

// Clear empties both tries.
func (ix *Index) Clear() error {
	if err := ix.fwd.Clear(); err != nil {
		return err
	}
	return ix.bwd.Clear()
}

// AddSentence ingests a tokenized sentence: it is bracketed with the
// configured start/end terminals, and every prefix of every window of
// length up to Order+1 starting at every position is counted in the
// forward trie (symmetrically, on the reversal, in the backward trie).
// Since the trie's own AddNgram already walks every prefix of the ngram
// it is given, this resolves to one AddNgram call per window position in
// each direction, not one call per prefix length. freq may be negative to
// remove a sentence previously added with the same tokens (spec.md §8
// scenario S1).
func (ix *Index) AddSentence(tokens Ngram, docid uint32, freq int32) error {
	if freq == 0 {
		freq = 1
	}
	T := bracket(tokens, ix.opts.Terminals)

	if err := addWindows(ix.fwd, T, ix.opts.Order+1, freq, docid); err != nil {
		return err
	}
	if err := addWindows(ix.bwd, T.Reverse(), ix.opts.Order+1, freq, 1); err != nil {
		return err
	}
	metricNgramsAdded.Add(float64(2 * len(T)))
	return nil
}

func bracket(tokens Ngram, terminals Ngram) Ngram {
	start, end := Token("^"), Token("$")
	if len(terminals) >= 2 {
		start, end = terminals[0], terminals[1]
	}
	out := make(Ngram, 0, len(tokens)+2)
	out = append(out, start)
	out = append(out, tokens...)
	out = append(out, end)
	return out
}

func addWindows(tr *trie.Trie, T Ngram, maxWindow int, freq int32, docid uint32) error {
	for i := 0; i < len(T); i++ {
		l := maxWindow
		if rem := len(T) - i; rem < l {
			l = rem
		}
		if l == 0 {
			break
		}
		if err := tr.AddNgram(T[i:i+l].strings(), freq, docid); err != nil {
			return err
		}
	}
	return nil
}

// UpdateStats recomputes entropy and the normalization table on both
// tries, if dirty.
func (ix *Index) UpdateStats() error {
	dirty := ix.fwd.IsDirty() || ix.bwd.IsDirty()
	if err := ix.fwd.UpdateStats(); err != nil {
		return err
	}
	if err := ix.bwd.UpdateStats(); err != nil {
		return err
	}
	if dirty {
		metricUpdateStatsTotal.Inc()
	}
	return nil
}

func (ix *Index) validateQueryLen(ngram Ngram) error {
	if len(ngram) == 0 || len(ngram) > ix.opts.Order {
		return &InputError{Msg: "ngram length must be in [1, order]"}
	}
	return nil
}

// QueryAutonomy returns the z-score of ngram's entropy variation,
// averaged between the forward and backward tries. ngram must have
// length in [1, Order].
func (ix *Index) QueryAutonomy(ngram Ngram) (Score, error) {
	if err := ix.validateQueryLen(ngram); err != nil {
		return Score{}, err
	}
	fwdA, err := ix.fwd.QueryAutonomy(ngram.strings())
	if err != nil {
		return Score{}, err
	}
	bwdA, err := ix.bwd.QueryAutonomy(ngram.Reverse().strings())
	if err != nil {
		return Score{}, err
	}
	return combine(scoreFromFloat(fwdA), scoreFromFloat(bwdA)), nil
}

// QueryEV returns the entropy variation of ngram, averaged between the
// forward and backward tries. ngram must have length in [1, Order].
func (ix *Index) QueryEV(ngram Ngram) (Score, error) {
	if err := ix.validateQueryLen(ngram); err != nil {
		return Score{}, err
	}
	fwdE, err := ix.fwd.QueryEV(ngram.strings())
	if err != nil {
		return Score{}, err
	}
	bwdE, err := ix.bwd.QueryEV(ngram.Reverse().strings())
	if err != nil {
		return Score{}, err
	}
	return combine(scoreFromFloat(fwdE), scoreFromFloat(bwdE)), nil
}

// QueryNode returns the combined (count, entropy) of ngram. Counts are
// averaged unconditionally; entropy is averaged only when both sides are
// defined (Entropy.Valid is false otherwise), matching the original api.py
// semantics.
func (ix *Index) QueryNode(ngram Ngram) (NodeStats, error) {
	if len(ngram) > ix.opts.Order+1 {
		return NodeStats{}, &InputError{Msg: "ngram longer than order+1"}
	}
	countF, entF, err := ix.fwd.QueryNode(ngram.strings())
	if err != nil {
		return NodeStats{}, err
	}
	countB, entB, err := ix.bwd.QueryNode(ngram.Reverse().strings())
	if err != nil {
		return NodeStats{}, err
	}

	stats := NodeStats{Count: (float64(countF) + float64(countB)) / 2}
	sf, sb := scoreFromFloat(entF), scoreFromFloat(entB)
	if sf.Valid && sb.Valid {
		stats.Entropy = Score{Value: (sf.Value + sb.Value) / 2, Valid: true}
	}
	return stats, nil
}

// QueryPostings returns the forward trie's docid->frequency postings for
// ngram. Returns an empty slice if postings were not enabled via
// Options.EnablePostings.
func (ix *Index) QueryPostings(ngram Ngram) ([]Posting, error) {
	ps, err := ix.fwd.QueryPostings(ngram.strings())
	if err != nil {
		return nil, err
	}
	out := make([]Posting, len(ps))
	for i, p := range ps {
		out[i] = Posting{DocID: p.DocID, Freq: p.Freq}
	}
	return out, nil
}
