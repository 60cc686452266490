package queryplan

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

const planTemperature = 0.1

const entityPrompt = `从下面的问题中提取一个最核心的影视作品名或人名，只输出这个名称本身，不要输出任何解释或标点。如果问题中没有明确的实体，输出空字符串。

问题：%s`

const rewritePrompt = `将下面的问题压缩为适合向量检索的关键词查询，去掉口语化的客套和填充词，保留影视作品名、人名和要查询的属性。只输出压缩后的查询。

问题：%s`

// Completer is the non-streaming LLM call used for both rewrites.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float32) (string, error)
}

// Planner derives, per question, a search-optimized query string and a core
// entity keyword via LLM-assisted rewriting. Both rewrites are best-effort
// and never block retrieval.
type Planner struct {
	llm Completer
}

func NewPlanner(llm Completer) *Planner {
	return &Planner{llm: llm}
}

// ExtractEntity returns the single core named entity in the question. An LLM
// failure or an empty reply yields ""; the caller then skips the graph
// lookup.
func (p *Planner) ExtractEntity(ctx context.Context, question string) (string, error) {
	reply, err := p.llm.Complete(ctx, fmt.Sprintf(entityPrompt, question), planTemperature)
	if err != nil {
		slog.WarnContext(ctx, "entity extraction failed", "error", err)
		return "", nil
	}
	return firstLine(reply), nil
}

// RewriteForSearch compresses the question into a keyword query. On LLM
// failure the original question is returned verbatim.
func (p *Planner) RewriteForSearch(ctx context.Context, question string) (string, error) {
	reply, err := p.llm.Complete(ctx, fmt.Sprintf(rewritePrompt, question), planTemperature)
	if err != nil {
		slog.WarnContext(ctx, "search rewrite failed, using question verbatim", "error", err)
		return question, nil
	}
	if rewritten := firstLine(reply); rewritten != "" {
		return rewritten, nil
	}
	return question, nil
}

// firstLine strips the reply down to one trimmed line without wrapping
// quotes; models occasionally pad the answer with both.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	s = strings.Trim(s, `"“”'`)
	return strings.TrimSpace(s)
}
