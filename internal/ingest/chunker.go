package ingest

import "strings"

const (
	defaultChunkSize    = 800
	defaultChunkOverlap = 100
)

// chunkText splits text into chunks of at most size characters on
// sentence boundaries, with roughly overlap characters of trailing
// context repeated at the start of the next chunk. A single sentence
// longer than size becomes its own chunk rather than being split
// mid-sentence.
func chunkText(text string, size, overlap int) []string {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = defaultChunkOverlap
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	i := 0
	for i < len(sentences) {
		var (
			length int
			j      = i
		)
		for j < len(sentences) {
			next := len(sentences[j])
			if length > 0 {
				next++ // joining space
			}
			if length+next > size && length > 0 {
				break
			}
			length += next
			j++
		}
		chunks = append(chunks, strings.Join(sentences[i:j], " "))
		if j >= len(sentences) {
			break
		}

		// Step back over trailing sentences worth ~overlap characters.
		back := j
		carried := 0
		for back > i+1 && carried+len(sentences[back-1]) <= overlap {
			carried += len(sentences[back-1]) + 1
			back--
		}
		i = back
	}
	return chunks
}

// splitSentences breaks text on sentence-ending punctuation followed by
// whitespace. Whitespace runs (including newlines) collapse to single
// spaces first, so transcripts chunk the same regardless of wrapping.
func splitSentences(text string) []string {
	normalized := strings.Join(strings.Fields(text), " ")
	if normalized == "" {
		return nil
	}

	var (
		sentences []string
		start     int
	)
	runes := []rune(normalized)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '.', '!', '?':
			if i+1 >= len(runes) || runes[i+1] == ' ' {
				s := strings.TrimSpace(string(runes[start : i+1]))
				if s != "" {
					sentences = append(sentences, s)
				}
				start = i + 1
			}
		}
	}
	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}
