package text

// Document is a source unit ready for chunking.
type Document struct {
	ID   string
	Name string
	Text string
}

// Chunk is a contiguous span of one document's text plus its provenance.
// StartOffset is the rune offset of the span in the document text. Chunks are
// never mutated after creation; both the indexer and the knowledge extractor
// consume them.
type Chunk struct {
	DocumentID  string
	Index       int
	Content     string
	StartOffset int
}

// DefaultSeparators is the separator hierarchy, coarsest first. Sentence
// punctuation covers both ASCII and ideographic scripts so the splitter works
// on text that did not pass through Normalize.
var DefaultSeparators = []string{"\n\n", "\n", ".", "。", "!", "?", "？", "！", "；", ";"}

// Splitter splits document text into overlapping, position-tagged chunks
// sized for embedding. Identical input and parameters always yield identical
// boundaries.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	separators   []string
}

func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 800
	}
	if chunkOverlap < 0 {
		chunkOverlap = 150
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 5
	}
	return &Splitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		separators:   DefaultSeparators,
	}
}

// WithSeparators sets a custom separator hierarchy.
func (s *Splitter) WithSeparators(seps []string) *Splitter {
	s.separators = seps
	return s
}

// span is an intermediate piece: a rune slice plus its rune offset.
type span struct {
	runes []rune
	start int
}

// Split chunks every document and returns the chunks in document order.
func (s *Splitter) Split(docs []Document) []Chunk {
	var out []Chunk
	for _, doc := range docs {
		runes := []rune(doc.Text)
		if len(runes) == 0 {
			continue
		}

		pieces := s.splitSpans(runes, 0, s.separators)
		merged := s.mergeSpans(pieces)
		chunks := s.applyOverlap(merged)

		for i, c := range chunks {
			out = append(out, Chunk{
				DocumentID:  doc.ID,
				Index:       i,
				Content:     string(c.runes),
				StartOffset: c.start,
			})
		}
	}
	return out
}

// splitSpans recursively splits text on the coarsest separator present,
// recursing into any piece still over ChunkSize with the next separator.
// When no separator remains the oversized leaf is kept rather than dropped.
func (s *Splitter) splitSpans(text []rune, start int, seps []string) []span {
	if len(text) <= s.ChunkSize {
		return []span{{runes: text, start: start}}
	}
	if len(seps) == 0 {
		return []span{{runes: text, start: start}}
	}

	sep := []rune(seps[0])
	if indexRunes(text, sep) < 0 {
		return s.splitSpans(text, start, seps[1:])
	}

	// The separator stays attached to the piece it terminates, so every piece
	// is an exact substring of the document and offsets line up.
	var out []span
	offset := start
	rest := text
	for {
		idx := indexRunes(rest, sep)
		if idx < 0 {
			if len(rest) > 0 {
				out = append(out, s.splitSpans(rest, offset, seps[1:])...)
			}
			break
		}
		piece := rest[:idx+len(sep)]
		if len(piece) > s.ChunkSize {
			out = append(out, s.splitSpans(piece, offset, seps[1:])...)
		} else {
			out = append(out, span{runes: piece, start: offset})
		}
		offset += len(piece)
		rest = rest[idx+len(sep):]
	}
	return out
}

// mergeSpans greedily packs consecutive pieces into chunks up to ChunkSize.
// Pieces are contiguous, so a merged chunk is still an exact document span.
func (s *Splitter) mergeSpans(pieces []span) []span {
	var out []span
	var cur []rune
	curStart := 0

	flush := func() {
		if len(cur) > 0 {
			out = append(out, span{runes: cur, start: curStart})
			cur = nil
		}
	}

	for _, p := range pieces {
		if len(cur) == 0 {
			cur = p.runes
			curStart = p.start
			continue
		}
		if len(cur)+len(p.runes) <= s.ChunkSize {
			cur = append(append([]rune{}, cur...), p.runes...)
			continue
		}
		flush()
		cur = p.runes
		curStart = p.start
	}
	flush()
	return out
}

// applyOverlap prefixes each chunk after the first with the last ChunkOverlap
// runes of the preceding chunk, moving the start offset back accordingly.
func (s *Splitter) applyOverlap(chunks []span) []span {
	if len(chunks) <= 1 || s.ChunkOverlap <= 0 {
		return chunks
	}

	out := make([]span, len(chunks))
	out[0] = chunks[0]
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].runes
		overlap := s.ChunkOverlap
		if overlap > len(prev) {
			overlap = len(prev)
		}
		tail := prev[len(prev)-overlap:]
		merged := append(append([]rune{}, tail...), chunks[i].runes...)
		out[i] = span{runes: merged, start: chunks[i].start - overlap}
	}
	return out
}

func indexRunes(haystack, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
