package query

import "github.com/faithsearch/litsearch/internal/tokenizer"

// Exists reports whether a term hash occurs anywhere in the index being
// queried (typically backed by a level's compactindex lookup), used to
// decide whether a candidate super-token is worth rewriting to.
type Exists func(hash uint64) bool

// RewriteNgrams greedily collapses an ordered run of single-term tokens
// into the fewest super-tokens, preferring trigrams over bigrams over
// unigrams, per spec.md §4.5. classify mirrors the indexing-side
// frequent/rare classification so the same n-gram kind (FF, FR, RF, ...)
// is produced at query time as was produced at index time.
func RewriteNgrams(terms []Term, dict *tokenizer.FrequentDict, mask tokenizer.KindMask, exists Exists) []Term {
	if len(terms) == 0 {
		return terms
	}
	var out []Term
	i := 0
	for i < len(terms) {
		if i+2 < len(terms) {
			if t, ok := tryTrigram(terms[i], terms[i+1], terms[i+2], dict, mask, exists); ok {
				out = append(out, t)
				i += 3
				continue
			}
		}
		if i+1 < len(terms) {
			if t, ok := tryBigram(terms[i], terms[i+1], dict, mask, exists); ok {
				out = append(out, t)
				i += 2
				continue
			}
		}
		out = append(out, terms[i])
		i++
	}
	return out
}

func freq(dict *tokenizer.FrequentDict, t Term) bool {
	return dict.IsFrequent(tokenizer.Hash(t.Text, tokenizer.Unigram))
}

func tryBigram(a, b Term, dict *tokenizer.FrequentDict, mask tokenizer.KindMask, exists Exists) (Term, bool) {
	kind, ok := bigramKind(freq(dict, a), freq(dict, b), mask)
	if !ok {
		return Term{}, false
	}
	text := a.Text + " " + b.Text
	hash := tokenizer.Hash(text, kind)
	if !exists(hash) {
		return Term{}, false
	}
	return Term{Text: text, Hash: hash}, true
}

func tryTrigram(a, b, c Term, dict *tokenizer.FrequentDict, mask tokenizer.KindMask, exists Exists) (Term, bool) {
	kind, ok := trigramKind(freq(dict, a), freq(dict, b), freq(dict, c), mask)
	if !ok {
		return Term{}, false
	}
	text := a.Text + " " + b.Text + " " + c.Text
	hash := tokenizer.Hash(text, kind)
	if !exists(hash) {
		return Term{}, false
	}
	return Term{Text: text, Hash: hash}, true
}

func bigramKind(aFreq, bFreq bool, mask tokenizer.KindMask) (tokenizer.NgramKind, bool) {
	switch {
	case aFreq && bFreq && mask&tokenizer.EnableBigramFF != 0:
		return tokenizer.BigramFF, true
	case aFreq && !bFreq && mask&tokenizer.EnableBigramFR != 0:
		return tokenizer.BigramFR, true
	case !aFreq && bFreq && mask&tokenizer.EnableBigramRF != 0:
		return tokenizer.BigramRF, true
	}
	return 0, false
}

func trigramKind(aFreq, bFreq, cFreq bool, mask tokenizer.KindMask) (tokenizer.NgramKind, bool) {
	switch {
	case aFreq && bFreq && cFreq && mask&tokenizer.EnableTrigramFFF != 0:
		return tokenizer.TrigramFFF, true
	case !aFreq && bFreq && cFreq && mask&tokenizer.EnableTrigramRFF != 0:
		return tokenizer.TrigramRFF, true
	case aFreq && bFreq && !cFreq && mask&tokenizer.EnableTrigramFFR != 0:
		return tokenizer.TrigramFFR, true
	case aFreq && !bFreq && cFreq && mask&tokenizer.EnableTrigramFRF != 0:
		return tokenizer.TrigramFRF, true
	}
	return 0, false
}
