// Package trie implements the entropy trie (component C2): it wraps an
// ordered store.Store, accepts n-gram insertions, and on demand recomputes
// branching entropy at every node plus a per-depth normalization table,
// following the algorithm in the original eleve Python package
// (eleve/leveldb.py), adapted onto the store.Store contract.
package trie

import (
	"log"
	"math"

	"github.com/xy-liao/eleve/store"
)

// Posting is one docid's occurrence count for an ngram, from the optional
// forward-only posting list (store.PostingKey/PostingRange).
type Posting struct {
	DocID uint32
	Freq  uint32
}

// Trie is the entropy trie. It owns no goroutines and is not safe for
// concurrent mutation; concurrent reads are safe only when no mutation is
// in flight and IsDirty() is false.
type Trie struct {
	s         store.Store
	maxDepth  int // D+1: longest ngram a node key may encode
	terminals map[string]struct{}
	postings  bool

	dirty bool
	norm  []norm // in-memory mirror of the persisted normalization table
}

type norm struct {
	mean, stdev float32
}

// welford accumulates a numerically stable single-pass mean/variance over
// the entropy-variation values observed at one depth during update_stats.
type welford struct {
	mean  float64
	m2    float64
	count int
}

func (w *welford) add(x float64) {
	w.count++
	delta := x - w.mean
	w.mean += delta / float64(w.count)
	w.m2 += delta * (x - w.mean)
}

// Options configures a Trie.
type Options struct {
	// MaxDepth is the longest ngram the trie will be asked to store (D+1
	// for a segmenter of order D).
	MaxDepth int
	// Terminals are the tokens treated as sentence boundaries by the
	// entropy computation (typically {"^", "$"}).
	Terminals []string
	// Postings enables the optional docid->frequency posting list. Only
	// the forward trie in a bidirectional index sets this.
	Postings bool
}

// Open wraps s as an entropy trie, restoring the dirty flag and
// normalization table from whatever was last persisted (or marking the
// trie dirty if no normalization table is present, matching
// LevelTrie.__init__'s re-check-on-open behavior in the original source).
func Open(s store.Store, opts Options) (*Trie, error) {
	if opts.MaxDepth < 1 {
		return nil, &InputError{Msg: "trie: MaxDepth must be >= 1"}
	}
	terminals := make(map[string]struct{}, len(opts.Terminals))
	for _, t := range opts.Terminals {
		terminals[t] = struct{}{}
	}

	t := &Trie{
		s:         s,
		maxDepth:  opts.MaxDepth,
		terminals: terminals,
		postings:  opts.Postings,
	}

	if err := t.loadNormalization(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Trie) loadNormalization() error {
	t.norm = nil
	for d := 0; ; d++ {
		v, ok, err := t.s.Get(store.NormKey(d))
		if err != nil {
			return err
		}
		if !ok {
			t.dirty = d == 0
			return nil
		}
		mean, stdev := store.DecodeNorm(v)
		t.norm = append(t.norm, norm{mean: mean, stdev: stdev})
	}
}

// IsDirty reports whether entropy/normalization statistics are stale with
// respect to the most recent insertions.
func (t *Trie) IsDirty() bool {
	return t.dirty
}

// Clear empties the underlying store and marks the trie dirty.
func (t *Trie) Clear() error {
	if err := t.s.DeleteAll(); err != nil {
		return err
	}
	t.norm = nil
	t.dirty = true
	return nil
}

func encodeTokens(tokens []string) ([][]byte, error) {
	out := make([][]byte, len(tokens))
	for i, tok := range tokens {
		b := []byte(tok)
		if err := store.ValidateToken(b); err != nil {
			return nil, &InputError{Msg: "trie: " + err.Error()}
		}
		out[i] = b
	}
	return out, nil
}

// AddNgram adjusts counts along the root-to-leaf path for ngram (including
// the root), each by freq, in a single batched write. freq may be negative
// to remove previously added occurrences (spec.md §8 scenario S1); the
// resulting count at every touched node is validated to stay within
// ℕ (spec.md §3) before the batch is written. ngram must have length in
// [1, MaxDepth]. If docid is non-zero and postings are enabled, it also
// adjusts freq occurrences of docid at every node along the path.
func (t *Trie) AddNgram(ngram []string, freq int32, docid uint32) error {
	if len(ngram) < 1 || len(ngram) > t.maxDepth {
		return &InputError{Msg: "trie: ngram length out of range [1, MaxDepth]"}
	}
	tokens, err := encodeTokens(ngram)
	if err != nil {
		return err
	}

	if !t.dirty {
		t.dirty = true
		b := t.s.NewBatch()
		b.Delete(store.DirtySentinelKey())
		if err := t.s.Write(b); err != nil {
			return err
		}
	}

	batch := t.s.NewBatch()

	// Once a node with prior count 0 is reached, every descendant along
	// this path is new and can be created without a pre-read. This only
	// holds for a positive freq: a negative freq can never apply to a node
	// that does not already exist, so its count must always be read back.
	create := false

	bumpNode := func(key []byte) error {
		var count uint32
		entropy := float32(math.NaN())
		if !create {
			v, ok, err := t.s.Get(key)
			if err != nil {
				return err
			}
			if ok {
				count, entropy = store.DecodeValue(v)
			} else if freq > 0 {
				create = true
			}
		}
		newCount := int64(count) + int64(freq)
		if newCount < 0 {
			return &InputError{Msg: "trie: ngram count would go negative"}
		}
		// entropy is left as-is (stale) until the next update_stats pass;
		// it is not reset to NaN here.
		batch.Put(key, store.EncodeValue(uint32(newCount), entropy))
		return nil
	}

	if err := bumpNode(store.RootKey()); err != nil {
		return err
	}
	for i := 1; i <= len(tokens); i++ {
		if err := bumpNode(store.EncodeKey(tokens[:i])); err != nil {
			return err
		}
		if t.postings && docid != 0 {
			pkey := store.PostingKey(tokens[:i], docid)
			pv, ok, err := t.s.Get(pkey)
			var pfreq uint32
			if err != nil {
				return err
			}
			if ok {
				pfreq = store.DecodePostingValue(pv)
			}
			newPFreq := int64(pfreq) + int64(freq)
			if newPFreq < 0 {
				return &InputError{Msg: "trie: posting frequency would go negative"}
			}
			batch.Put(pkey, store.EncodePostingValue(uint32(newPFreq)))
		}
	}

	return t.s.Write(batch)
}

// QueryCount returns the number of times ngram (or any ngram having it as
// a prefix) was added. It never triggers update_stats and never errors on
// an unseen ngram (returns 0).
func (t *Trie) QueryCount(ngram []string) (uint32, error) {
	if len(ngram) > t.maxDepth {
		return 0, &InputError{Msg: "trie: ngram longer than MaxDepth"}
	}
	tokens, err := encodeTokens(ngram)
	if err != nil {
		return 0, err
	}
	count, _, err := t.readNode(store.EncodeKey(tokens))
	return count, err
}

func (t *Trie) readNode(key []byte) (count uint32, entropy float32, err error) {
	v, ok, err := t.s.Get(key)
	if err != nil {
		return 0, float32(math.NaN()), err
	}
	if !ok {
		return 0, float32(math.NaN()), nil
	}
	count, entropy = store.DecodeValue(v)
	return count, entropy, nil
}

// QueryEntropy returns the branching entropy of ngram's children, or NaN
// if undefined. It triggers update_stats if the trie is dirty.
func (t *Trie) QueryEntropy(ngram []string) (float64, error) {
	if len(ngram) > t.maxDepth {
		return math.NaN(), &InputError{Msg: "trie: ngram longer than MaxDepth"}
	}
	if t.dirty {
		if err := t.UpdateStats(); err != nil {
			return math.NaN(), err
		}
	}
	tokens, err := encodeTokens(ngram)
	if err != nil {
		return math.NaN(), err
	}
	_, entropy, err := t.readNode(store.EncodeKey(tokens))
	return float64(entropy), err
}

// QueryEV returns the entropy variation of ngram (its entropy minus its
// parent's), or NaN if undefined. ngram must be non-empty.
func (t *Trie) QueryEV(ngram []string) (float64, error) {
	if len(ngram) == 0 {
		return math.NaN(), nil
	}
	entropy, err := t.QueryEntropy(ngram)
	if err != nil {
		return math.NaN(), err
	}
	if math.IsNaN(entropy) {
		return math.NaN(), nil
	}
	parentEntropy, err := t.QueryEntropy(ngram[:len(ngram)-1])
	if err != nil {
		return math.NaN(), err
	}
	if entropy != 0 || parentEntropy != 0 {
		return entropy - parentEntropy, nil
	}
	return math.NaN(), nil
}

// QueryAutonomy returns the z-score of ngram's entropy variation within
// its depth's normalization distribution, or NaN if undefined.
func (t *Trie) QueryAutonomy(ngram []string) (float64, error) {
	ev, err := t.QueryEV(ngram)
	if err != nil {
		return math.NaN(), err
	}
	if math.IsNaN(ev) {
		return math.NaN(), nil
	}
	d := len(ngram)
	if d >= len(t.norm) {
		return math.NaN(), nil
	}
	mean, stdev := t.norm[d].mean, t.norm[d].stdev
	if stdev == 0 {
		return math.NaN(), nil
	}
	return (ev - float64(mean)) / float64(stdev), nil
}

// QueryNode returns ngram's (count, entropy). entropy is NaN if undefined.
func (t *Trie) QueryNode(ngram []string) (count uint32, entropy float64, err error) {
	if len(ngram) > t.maxDepth {
		return 0, math.NaN(), &InputError{Msg: "trie: ngram longer than MaxDepth"}
	}
	if t.dirty {
		if err := t.UpdateStats(); err != nil {
			return 0, math.NaN(), err
		}
	}
	tokens, err := encodeTokens(ngram)
	if err != nil {
		return 0, math.NaN(), err
	}
	c, e, err := t.readNode(store.EncodeKey(tokens))
	return c, float64(e), err
}

// QueryPostings returns every docid's occurrence count recorded for ngram.
// It returns an empty slice when postings are disabled or none exist.
func (t *Trie) QueryPostings(ngram []string) ([]Posting, error) {
	if !t.postings {
		return nil, nil
	}
	tokens, err := encodeTokens(ngram)
	if err != nil {
		return nil, err
	}
	start, stop := store.PostingRange(tokens)
	var out []Posting
	err = t.s.Range(start, stop, func(key, value []byte) error {
		out = append(out, Posting{
			DocID: store.DocIDFromPostingKey(key),
			Freq:  store.DecodePostingValue(value),
		})
		return nil
	})
	return out, err
}

func (t *Trie) isTerminalEdge(key []byte) bool {
	last := store.LastToken(key)
	if last == nil {
		return false
	}
	_, ok := t.terminals[string(last)]
	return ok
}

// updateEntropy recomputes the branching entropy of the node at key from
// its children's counts. Returns NaN if the node or all of its children
// have zero count.
func (t *Trie) updateEntropy(key []byte, count uint32) (float32, error) {
	if count == 0 {
		return float32(math.NaN()), nil
	}

	var h float64
	var sum uint64
	start, stop := store.ChildRange(key)
	err := t.s.Range(start, stop, func(childKey, childValue []byte) error {
		childCount, _ := store.DecodeValue(childValue)
		if childCount == 0 {
			return nil
		}
		sum += uint64(childCount)
		p := float64(childCount) / float64(count)
		if t.isTerminalEdge(childKey) {
			h += p * math.Log2(float64(count))
		} else {
			h -= p * math.Log2(p)
		}
		return nil
	})
	if err != nil {
		return float32(math.NaN()), err
	}
	if sum == 0 {
		return float32(math.NaN()), nil
	}
	if sum != uint64(count) {
		log.Printf("trie: corruption detected at %v: children counts %d do not sum to parent count %d", key, sum, count)
		return 0, &CorruptionError{Msg: "trie: children counts do not sum to parent count"}
	}
	if h < 0 {
		log.Printf("trie: corruption detected at %v: computed negative entropy %v", key, h)
		return 0, &CorruptionError{Msg: "trie: computed negative entropy"}
	}
	return float32(h), nil
}

type walkFrame struct {
	key           []byte
	depth         int
	parentEntropy float32
}

// UpdateStats recomputes entropy at every node and rebuilds the
// normalization table, if the trie is dirty. It is idempotent when clean
// and restartable: running it again from a partially updated state
// produces the same final result, since each node's recomputation depends
// only on its own children's persisted counts.
//
// The traversal is iterative (an explicit work stack) rather than
// recursive, so it does not hit Go's goroutine stack limits on very deep
// or wide tries built from long sentences.
func (t *Trie) UpdateStats() error {
	if !t.dirty {
		return nil
	}

	accum := make([]welford, 0, t.maxDepth+1)

	stack := []walkFrame{{key: store.RootKey(), depth: 0, parentEntropy: float32(math.NaN())}}
	batch := t.s.NewBatch()
	batched := 0

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		count, oldEntropy, err := t.readNode(f.key)
		if err != nil {
			return err
		}
		newEntropy, err := t.updateEntropy(f.key, count)
		if err != nil {
			return err
		}

		changed := oldEntropy != newEntropy && !(math.IsNaN(float64(oldEntropy)) && math.IsNaN(float64(newEntropy)))
		if changed {
			batch.Put(append([]byte{}, f.key...), store.EncodeValue(count, newEntropy))
			batched++
			if batched >= 1000 {
				if err := t.s.Write(batch); err != nil {
					return err
				}
				batch = t.s.NewBatch()
				batched = 0
			}
		}

		if f.depth >= 1 && !math.IsNaN(float64(newEntropy)) && (newEntropy != 0 || f.parentEntropy != 0) {
			ev := float64(newEntropy) - float64(f.parentEntropy)
			for len(accum) <= f.depth {
				accum = append(accum, welford{})
			}
			accum[f.depth].add(ev)
		}

		start, stop := store.ChildRange(f.key)
		err = t.s.Range(start, stop, func(childKey, _ []byte) error {
			stack = append(stack, walkFrame{
				key:           append([]byte{}, childKey...),
				depth:         f.depth + 1,
				parentEntropy: newEntropy,
			})
			return nil
		})
		if err != nil {
			return err
		}
	}

	if batched > 0 {
		if err := t.s.Write(batch); err != nil {
			return err
		}
	}

	// The depth-0 normalization record doubles as the persistent "stats
	// valid" sentinel (store.DirtySentinelKey); it must be written even
	// when no node ever produced a qualifying entropy variation.
	if len(accum) == 0 {
		accum = append(accum, welford{})
	}

	normBatch := t.s.NewBatch()
	t.norm = make([]norm, len(accum))
	for d, a := range accum {
		stdev := math.Sqrt(a.m2 / float64(max(a.count, 1)))
		t.norm[d] = norm{mean: float32(a.mean), stdev: float32(stdev)}
		normBatch.Put(store.NormKey(d), store.EncodeNorm(float32(a.mean), float32(stdev)))
	}
	if err := t.s.Write(normBatch); err != nil {
		return err
	}

	if err := t.s.Compact(); err != nil {
		return err
	}

	t.dirty = false
	return nil
}
