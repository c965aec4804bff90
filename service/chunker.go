package service

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidChunking is returned when the chunking parameters cannot produce
// a valid window sequence. Violations are errors, never silent truncation.
var ErrInvalidChunking = errors.New("invalid chunking parameters")

// Separators tried, most to least preferred, when looking for a natural
// break near the end of a window.
var chunkSeparators = []string{"\n\n", "\n", ". ", " "}

// SplitText splits text into ordered windows of at most chunkSize characters
// where each window after the first repeats the last overlap characters of
// its predecessor, so information straddling a cut point survives in at
// least one chunk. A window prefers to end just after a natural separator
// found in its tail tolerance and falls back to a hard cut otherwise.
// Splitting is deterministic: the same inputs always yield the same chunks,
// and dropping each chunk's first overlap characters and concatenating
// reproduces the input exactly.
func SplitText(text string, chunkSize, overlap int) ([]string, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d must be positive", ErrInvalidChunking, chunkSize)
	}
	if overlap < 0 || overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be in [0, %d)", ErrInvalidChunking, overlap, chunkSize)
	}
	if text == "" {
		return nil, nil
	}

	runes := []rune(text)
	var chunks []string
	start := 0
	for {
		end := start + chunkSize
		if end >= len(runes) {
			chunks = append(chunks, string(runes[start:]))
			return chunks, nil
		}
		if cut := softCut(runes, start, end, overlap); cut > 0 {
			end = cut
		}
		chunks = append(chunks, string(runes[start:end]))
		start = end - overlap
	}
}

// softCut returns the position just after the last separator found in the
// tail tolerance of the window [start, end), or 0 when a hard cut is
// required. A cut that would not advance the next window past the overlap is
// rejected so splitting always makes progress.
func softCut(runes []rune, start, end, overlap int) int {
	tolerance := (end - start) / 5
	if tolerance == 0 {
		return 0
	}
	floor := end - tolerance
	tail := string(runes[floor:end])
	for _, sep := range chunkSeparators {
		i := strings.LastIndex(tail, sep)
		if i < 0 {
			continue
		}
		cut := floor + len([]rune(tail[:i])) + len([]rune(sep))
		if cut-start > overlap {
			return cut
		}
	}
	return 0
}
