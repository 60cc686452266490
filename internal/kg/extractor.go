package kg

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// maxPromptRunes bounds the chunk prefix sent for extraction so long chunks
// stay inside the model's context budget.
const maxPromptRunes = 4000

const extractionTemperature = 0.1

// extractPrompt instructs the model to emit a literal list of quoted triples
// and nothing else. Only factual relations are wanted; review sentiment and
// other subjective statements are excluded outright.
const extractPrompt = `你是一个影视知识抽取助手。请从下面的文本中抽取事实型三元组，格式严格为：
[("实体1", "关系", "实体2"), ("实体1", "关系", "实体2")]

只抽取以下类型的事实关系：导演、主演、编剧、上映日期、类型、评分、改编自、饰演。
不要抽取主观评价、情感倾向或观点类关系。
每个字段必须用英文双引号包裹，除列表外不要输出任何其他内容。

文本：
%s`

var tripleRe = regexp.MustCompile(`\(\s*"([^"]+)"\s*,\s*"([^"]+)"\s*,\s*"([^"]+)"\s*\)`)

// Extractor asks the LLM for triples and parses its reply. Extraction never
// fails the caller: an LLM error or unparseable reply yields an empty list.
type Extractor struct {
	llm Completer
}

func NewExtractor(llm Completer) *Extractor {
	return &Extractor{llm: llm}
}

// Extract pulls factual triples out of one chunk. Text not matching the
// literal quoted-triple pattern is silently discarded; there is no
// partial-triple recovery.
func (e *Extractor) Extract(ctx context.Context, chunkText, documentID string) []Triple {
	trimmed := strings.TrimSpace(chunkText)
	if trimmed == "" {
		return nil
	}
	if runes := []rune(trimmed); len(runes) > maxPromptRunes {
		trimmed = string(runes[:maxPromptRunes])
	}

	reply, err := e.llm.Complete(ctx, fmt.Sprintf(extractPrompt, trimmed), extractionTemperature)
	if err != nil {
		slog.WarnContext(ctx, "triple extraction call failed", "error", err, "document_id", documentID)
		return nil
	}

	return ParseTriples(reply, documentID)
}

// ParseTriples matches every ("e1", "rel", "e2") group in the reply.
// Malformed output parses to an empty list, never an error.
func ParseTriples(reply, documentID string) []Triple {
	matches := tripleRe.FindAllStringSubmatch(reply, -1)
	if len(matches) == 0 {
		return nil
	}

	triples := make([]Triple, 0, len(matches))
	for _, m := range matches {
		subject := strings.TrimSpace(m[1])
		predicate := strings.TrimSpace(m[2])
		object := strings.TrimSpace(m[3])
		if subject == "" || predicate == "" || object == "" {
			continue
		}
		triples = append(triples, Triple{
			Subject:    subject,
			Predicate:  predicate,
			Object:     object,
			DocumentID: documentID,
		})
	}
	return triples
}
