package tokenizer

import "unicode"

// cjkSegmented applies a maximum-matching word segmentation pass over Han
// runs and falls back to unicodeAlphanumeric rules for Latin runs
// (spec.md §4.1). The tokenizer ForVariant(CJKSegmented) returns has no
// dictionary and emits one token per Han rune; WithDictionary builds one
// that segments Han runs by maximum matching against the given words.
type cjkSegmented struct {
	dict map[string]struct{}
}

// WithDictionary returns a CJK tokenizer that prefers the longest dictionary
// match at each position (maximum matching), falling back to single-rune
// tokens when no entry matches.
func WithDictionary(words []string) Tokenizer {
	d := make(map[string]struct{}, len(words))
	for _, w := range words {
		d[w] = struct{}{}
	}
	return cjkSegmented{dict: d}
}

func isHan(r rune) bool {
	return unicode.Is(unicode.Han, r)
}

const maxWordRunes = 8

func (c cjkSegmented) Tokenize(dst []Token, s string) []Token {
	runes := []rune(s)
	pos := 0
	latin := unicodeAlphanumeric{fold: false}
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case isHan(r):
			j := i
			matched := false
			if c.dict != nil {
				maxLen := maxWordRunes
				if len(runes)-i < maxLen {
					maxLen = len(runes) - i
				}
				for l := maxLen; l >= 2; l-- {
					cand := string(runes[i : i+l])
					if _, ok := c.dict[cand]; ok {
						dst = append(dst, Token{Hash: Hash(cand, Unigram), Position: pos, Term: cand})
						pos++
						i += l
						matched = true
						break
					}
				}
			}
			if !matched {
				term := string(runes[j])
				dst = append(dst, Token{Hash: Hash(term, Unigram), Position: pos, Term: term})
				pos++
				i++
			}
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			j := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i])) && !isHan(runes[i]) {
				i++
			}
			sub := latin.Tokenize(nil, string(runes[j:i]))
			for _, t := range sub {
				t.Position = pos
				dst = append(dst, t)
				pos++
			}
		default:
			i++
		}
	}
	return dst
}
