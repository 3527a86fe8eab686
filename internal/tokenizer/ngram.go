package tokenizer

// FrequentDict classifies term hashes as "frequent" (common, worth pairing)
// or "rare". It is read-only once loaded (spec.md §9, "Cycles": "the
// frequent-word dictionary is read-only once loaded").
type FrequentDict struct {
	frequent map[uint64]struct{}
}

func NewFrequentDict(terms []string) *FrequentDict {
	d := &FrequentDict{frequent: make(map[uint64]struct{}, len(terms))}
	for _, t := range terms {
		d.frequent[Hash(t, Unigram)] = struct{}{}
	}
	return d
}

func (d *FrequentDict) IsFrequent(unigramHash uint64) bool {
	if d == nil {
		return false
	}
	_, ok := d.frequent[unigramHash]
	return ok
}

// KindMask enables a subset of the bigram/trigram kinds described in
// spec.md §3. Unigrams are always emitted regardless of mask.
type KindMask uint8

const (
	EnableBigramFF KindMask = 1 << iota
	EnableBigramFR
	EnableBigramRF
	EnableTrigramFFF
	EnableTrigramRFF
	EnableTrigramFFR
	EnableTrigramFRF

	EnableAllBigrams  = EnableBigramFF | EnableBigramFR | EnableBigramRF
	EnableAllTrigrams = EnableTrigramFFF | EnableTrigramRFF | EnableTrigramFFR | EnableTrigramFRF
	EnableAllNgrams   = EnableAllBigrams | EnableAllTrigrams
)

// NgramExtractor composes consecutive tokens into synthetic n-gram tokens
// whose frequent/rare pattern is enabled, per spec.md §4.1 and the
// namespace tagging of spec.md §3.
type NgramExtractor struct {
	Dict *FrequentDict
	Mask KindMask
}

type class struct {
	frequent bool
}

func (n *NgramExtractor) classify(t Token) class {
	return class{frequent: n.Dict.IsFrequent(t.Hash)}
}

// Extend returns a new slice holding the single-term tokens followed by
// the synthesized n-gram tokens; tokens itself is not modified (a nil
// extractor or an empty input returns tokens as is). Single-term tokens are always kept
// (spec.md §4.1: "the single-term tokens are emitted in addition").
func (n *NgramExtractor) Extend(tokens []Token) []Token {
	if n == nil || len(tokens) == 0 {
		return tokens
	}
	out := make([]Token, len(tokens), len(tokens)*2)
	copy(out, tokens)

	for i := 0; i+1 < len(tokens); i++ {
		a, b := n.classify(tokens[i]), n.classify(tokens[i+1])
		if kind, ok := bigramKind(a, b, n.Mask); ok {
			out = append(out, synth(tokens[i], tokens[i+1], kind))
		}
	}
	for i := 0; i+2 < len(tokens); i++ {
		a, b, c := n.classify(tokens[i]), n.classify(tokens[i+1]), n.classify(tokens[i+2])
		if kind, ok := trigramKind(a, b, c, n.Mask); ok {
			out = append(out, synth3(tokens[i], tokens[i+1], tokens[i+2], kind))
		}
	}
	return out
}

func bigramKind(a, b class, mask KindMask) (NgramKind, bool) {
	switch {
	case a.frequent && b.frequent && mask&EnableBigramFF != 0:
		return BigramFF, true
	case a.frequent && !b.frequent && mask&EnableBigramFR != 0:
		return BigramFR, true
	case !a.frequent && b.frequent && mask&EnableBigramRF != 0:
		return BigramRF, true
	}
	return 0, false
}

func trigramKind(a, b, c class, mask KindMask) (NgramKind, bool) {
	switch {
	case a.frequent && b.frequent && c.frequent && mask&EnableTrigramFFF != 0:
		return TrigramFFF, true
	case !a.frequent && b.frequent && c.frequent && mask&EnableTrigramRFF != 0:
		return TrigramRFF, true
	case a.frequent && b.frequent && !c.frequent && mask&EnableTrigramFFR != 0:
		return TrigramFFR, true
	case a.frequent && !b.frequent && c.frequent && mask&EnableTrigramFRF != 0:
		return TrigramFRF, true
	}
	return 0, false
}

func synth(a, b Token, kind NgramKind) Token {
	term := a.Term + " " + b.Term
	return Token{Hash: Hash(term, kind), Position: a.Position, Term: term}
}

func synth3(a, b, c Token, kind NgramKind) Token {
	term := a.Term + " " + b.Term + " " + c.Term
	return Token{Hash: Hash(term, kind), Position: a.Position, Term: term}
}
