package store

import (
	"bytes"
	"testing"
)

func TestEncodeKeyRoot(t *testing.T) {
	if got := EncodeKey(nil); !bytes.Equal(got, RootKey()) {
		t.Fatalf("EncodeKey(nil) = %v, want root key %v", got, RootKey())
	}
}

func TestChildRangeOrdering(t *testing.T) {
	parent := EncodeKey([][]byte{[]byte("le")})
	childA := EncodeKey([][]byte{[]byte("le"), []byte("gros")})
	childB := EncodeKey([][]byte{[]byte("le"), []byte("petit")})
	grandchild := EncodeKey([][]byte{[]byte("le"), []byte("petit"), []byte("chat")})

	start, stop := ChildRange(parent)

	for _, c := range [][]byte{childA, childB} {
		if bytes.Compare(c, start) < 0 || bytes.Compare(c, stop) >= 0 {
			t.Fatalf("child %v not within range [%v, %v)", c, start, stop)
		}
	}
	if bytes.Compare(grandchild, start) >= 0 && bytes.Compare(grandchild, stop) < 0 {
		t.Fatalf("grandchild %v incorrectly within direct child range", grandchild)
	}
}

func TestValueRoundTrip(t *testing.T) {
	v := EncodeValue(42, 1.5)
	count, entropy := DecodeValue(v)
	if count != 42 || entropy != 1.5 {
		t.Fatalf("got (%d, %v), want (42, 1.5)", count, entropy)
	}
}

func TestNormRoundTrip(t *testing.T) {
	v := EncodeNorm(0.25, 0.75)
	mean, stdev := DecodeNorm(v)
	if mean != 0.25 || stdev != 0.75 {
		t.Fatalf("got (%v, %v), want (0.25, 0.75)", mean, stdev)
	}
}

func TestValidateToken(t *testing.T) {
	if err := ValidateToken([]byte("chat")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateToken([]byte{'a', Sep, 'b'}); err != ErrTokenHasSep {
		t.Fatalf("got %v, want ErrTokenHasSep", err)
	}
}

func TestPostingKeyRange(t *testing.T) {
	tokens := [][]byte{[]byte("le"), []byte("chat")}
	k1 := PostingKey(tokens, 1)
	k2 := PostingKey(tokens, 2)
	other := PostingKey([][]byte{[]byte("le"), []byte("chien")}, 1)

	start, stop := PostingRange(tokens)
	for _, k := range [][]byte{k1, k2} {
		if bytes.Compare(k, start) < 0 || bytes.Compare(k, stop) >= 0 {
			t.Fatalf("posting key %v not within range [%v, %v)", k, start, stop)
		}
	}
	if bytes.Compare(other, start) >= 0 && bytes.Compare(other, stop) < 0 {
		t.Fatalf("unrelated ngram's posting incorrectly within range")
	}
}
