package textproc

import "strings"

// ChunkWords splits text into word windows of size words, each window
// starting overlap words before the previous one ended. Overlap exists so
// a relevant sentence split across a boundary is not lost to both chunks.
func ChunkWords(text string, size, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if size <= 0 {
		return []string{strings.Join(words, " ")}
	}
	step := size - overlap
	if step <= 0 {
		step = size
	}

	var chunks []string
	for i := 0; i < len(words); i += step {
		end := i + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}

// Truncate keeps at most maxWords whitespace-separated words.
func Truncate(text string, maxWords int) string {
	words := strings.Fields(text)
	if len(words) <= maxWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:maxWords], " ")
}
