package chunker

import "strings"

// defaultSeparators order chunk boundaries from most to least natural:
// paragraph, line, sentence-ending punctuation, clause punctuation, space,
// and finally a hard character split.
var defaultSeparators = []string{"\n\n", "\n", "。", "！", "？", "；", "，", " ", ""}

// RecursiveChunker splits text into size-bounded chunks that prefer natural
// boundaries. Consecutive chunks overlap by a fixed number of characters to
// preserve context across a cut; stripping each chunk's overlap prefix and
// concatenating the remainders reconstructs the original text exactly.
type RecursiveChunker struct {
	chunkSize  int
	overlap    int
	separators []string
}

// New creates a chunker with the given character budget and overlap.
func New(chunkSize, overlap int) *RecursiveChunker {
	if chunkSize <= 0 {
		chunkSize = 300
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}
	return &RecursiveChunker{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: defaultSeparators,
	}
}

// Split breaks text into chunks of at most chunkSize runes each.
func (c *RecursiveChunker) Split(text string) []string {
	units := c.breakDown(text, c.separators)
	if len(units) == 0 {
		return nil
	}

	var chunks []string
	cur := ""
	for _, u := range units {
		if cur != "" && runeLen(cur)+runeLen(u) > c.chunkSize {
			chunks = append(chunks, cur)
			ov := tail(cur, c.overlap)
			if runeLen(ov)+runeLen(u) > c.chunkSize {
				ov = ""
			}
			cur = ov
		}
		cur += u
	}
	if cur != "" {
		chunks = append(chunks, cur)
	}
	return chunks
}

// breakDown reduces text to ordered units no longer than chunkSize whose
// concatenation is exactly text. Separators stay attached to the piece they
// terminate so no characters are dropped.
func (c *RecursiveChunker) breakDown(text string, separators []string) []string {
	if text == "" {
		return nil
	}
	if runeLen(text) <= c.chunkSize {
		return []string{text}
	}

	sep := ""
	rest := separators
	for i, s := range separators {
		if s == "" {
			sep, rest = "", nil
			break
		}
		if strings.Contains(text, s) {
			sep, rest = s, separators[i+1:]
			break
		}
	}
	if sep == "" {
		return splitEvery(text, c.chunkSize)
	}

	var units []string
	for _, piece := range strings.SplitAfter(text, sep) {
		if piece == "" {
			continue
		}
		if runeLen(piece) <= c.chunkSize {
			units = append(units, piece)
			continue
		}
		units = append(units, c.breakDown(piece, rest)...)
	}
	return units
}

func runeLen(s string) int { return len([]rune(s)) }

func tail(s string, n int) string {
	r := []rune(s)
	if n >= len(r) {
		return s
	}
	return string(r[len(r)-n:])
}

func splitEvery(s string, n int) []string {
	r := []rune(s)
	var out []string
	for len(r) > n {
		out = append(out, string(r[:n]))
		r = r[n:]
	}
	if len(r) > 0 {
		out = append(out, string(r))
	}
	return out
}
