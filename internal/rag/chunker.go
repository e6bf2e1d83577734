package rag

import "strings"

// SplitText cuts text into chunks of at most size runes with the given
// overlap between consecutive chunks. Cuts prefer paragraph, then line,
// then word boundaries near the limit so chunks stay readable.
func SplitText(text string, size, overlap int) []string {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= size {
		return []string{string(runes)}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = cutPoint(runes, start, end)
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
		next := end - overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks
}

// cutPoint searches backward from the hard limit for a natural boundary.
// The search window is the last quarter of the chunk; a cut earlier than
// that loses too much content per chunk.
func cutPoint(runes []rune, start, limit int) int {
	minCut := start + (limit-start)*3/4

	for _, sep := range []string{"\n\n", "\n", " "} {
		for i := limit; i > minCut; i-- {
			if matchesAt(runes, i-len([]rune(sep)), sep) {
				return i
			}
		}
	}
	return limit
}

func matchesAt(runes []rune, pos int, sep string) bool {
	sepRunes := []rune(sep)
	if pos < 0 || pos+len(sepRunes) > len(runes) {
		return false
	}
	for i, r := range sepRunes {
		if runes[pos+i] != r {
			return false
		}
	}
	return true
}
