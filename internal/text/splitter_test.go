package text

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitter_ShortDocumentSingleChunk(t *testing.T) {
	s := NewSplitter(800, 150)
	chunks := s.Split([]Document{{ID: "d1", Text: "这是一部很短的电影简介。"}})

	require.Len(t, chunks, 1)
	assert.Equal(t, "d1", chunks[0].DocumentID)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, 0, chunks[0].StartOffset)
	assert.Equal(t, "这是一部很短的电影简介。", chunks[0].Content)
}

func TestSplitter_EmptyDocumentSkipped(t *testing.T) {
	s := NewSplitter(800, 150)
	chunks := s.Split([]Document{{ID: "d1", Text: ""}, {ID: "d2", Text: "有内容。"}})

	require.Len(t, chunks, 1)
	assert.Equal(t, "d2", chunks[0].DocumentID)
}

func TestSplitter_ChunkSizeAndOverlapBounds(t *testing.T) {
	sentence := "主角在梦境中穿行寻找真相。"
	doc := Document{ID: "d1", Text: strings.Repeat(sentence, 140)}

	s := NewSplitter(800, 150)
	chunks := s.Split([]Document{doc})
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks {
		// overlap prefix may push a chunk past ChunkSize, but never by more
		// than ChunkOverlap
		assert.LessOrEqual(t, len([]rune(c.Content)), 800+150)
	}
}

func TestSplitter_OffsetsMatchDocumentText(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 60; i++ {
		sb.WriteString("星际穿越讲述了一组宇航员穿越虫洞为人类寻找新家园的冒险故事！")
		sb.WriteString("影片由克里斯托弗·诺兰执导；马修·麦康纳主演。")
	}
	doc := Document{ID: "d1", Text: sb.String()}
	docRunes := []rune(doc.Text)

	s := NewSplitter(400, 80)
	chunks := s.Split([]Document{doc})
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks {
		content := []rune(c.Content)
		require.GreaterOrEqual(t, c.StartOffset, 0)
		require.LessOrEqual(t, c.StartOffset+len(content), len(docRunes))
		assert.Equal(t, string(docRunes[c.StartOffset:c.StartOffset+len(content)]), c.Content)
	}
}

func TestSplitter_ConsecutiveChunksOverlap(t *testing.T) {
	sentence := "这是一句用于测试重叠行为的句子。"
	doc := Document{ID: "d1", Text: strings.Repeat(sentence, 120)}

	s := NewSplitter(400, 80)
	chunks := s.Split([]Document{doc})
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Content)
		cur := []rune(chunks[i].Content)
		overlap := 80
		if overlap > len(prev) {
			overlap = len(prev)
		}
		// the start of each chunk repeats the tail of its predecessor
		assert.Equal(t, string(prev[len(prev)-overlap:]), string(cur[:overlap]),
			"chunk %d should start with tail of chunk %d", i, i-1)
	}
}

func TestSplitter_Deterministic(t *testing.T) {
	doc := Document{ID: "d1", Text: strings.Repeat("肖申克的救赎是一部经典电影。", 150)}
	s := NewSplitter(800, 150)

	first := s.Split([]Document{doc})
	second := s.Split([]Document{doc})
	assert.Equal(t, first, second)
}

func TestSplitter_OversizedLeafKept(t *testing.T) {
	// no separator at all, longer than the chunk size
	doc := Document{ID: "d1", Text: strings.Repeat("啊", 1000)}
	s := NewSplitter(800, 150)

	chunks := s.Split([]Document{doc})
	require.Len(t, chunks, 1)
	assert.Equal(t, 1000, len([]rune(chunks[0].Content)))
}

func TestNewSplitter_Defaults(t *testing.T) {
	s := NewSplitter(0, -1)
	assert.Equal(t, 800, s.ChunkSize)
	assert.Equal(t, 150, s.ChunkOverlap)

	// an overlap at or above the size collapses to size/5
	s = NewSplitter(100, 100)
	assert.Equal(t, 20, s.ChunkOverlap)
}
