package tokenizer

// asciiAlphabetic splits on any non-[A-Za-z] boundary and lowercases ASCII.
type asciiAlphabetic struct{}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func (asciiAlphabetic) Tokenize(dst []Token, s string) []Token {
	pos := 0
	start := -1
	emit := func(end int) {
		if start < 0 {
			return
		}
		term := lowerASCII(s[start:end])
		dst = append(dst, Token{Hash: Hash(term, Unigram), Position: pos, Term: term})
		pos++
		start = -1
	}
	for i := 0; i < len(s); i++ {
		if isASCIILetter(s[i]) {
			if start < 0 {
				start = i
			}
			continue
		}
		emit(i)
	}
	emit(len(s))
	return dst
}

func lowerASCII(s string) string {
	b := []byte(s)
	changed := false
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
			changed = true
		}
	}
	if !changed {
		return s
	}
	return string(b)
}
