package answer

import (
	"context"
	"errors"
	"fmt"

	"cineqa/internal/fusion"
)

// ErrAnswerGeneration marks an LLM failure during prompting or streaming.
// It is surfaced to the caller as a failed answer; the chain itself does not
// retry.
var ErrAnswerGeneration = errors.New("answer generation failed")

const answerTemperature = 0.1

// systemTemplate carries the persona, the fused context and the explicit
// instruction to refuse rather than fabricate. The fusion engine guarantees
// the context slot is never empty.
const systemTemplate = `你是一位专业的电影和剧集信息问答助手，具备强大的知识检索与理解能力，能够帮助用户准确、高效地查询电影与电视剧的各种信息。

你可以基于提供的检索内容，回答演职员信息、剧情简介、评分评论、相似作品推荐、按类型或年代筛选等问题。

你始终依赖检索到的内容进行回答，不可凭空编造。当检索内容中没有足够信息支撑回答时，你应回复："抱歉，暂时没有相关信息。"

你服务于希望获取影视信息的普通用户，回答应通俗易懂、条理清晰。

检索结果内容如下：
%s`

// ContextAssembler produces the fused retrieval context for one question.
type ContextAssembler interface {
	Assemble(ctx context.Context, question string) *fusion.Result
}

// StreamLLM is the streaming completion call: system instructions, prior
// turns, then the question as the final user turn. The token sequence is
// finite and not restartable.
type StreamLLM interface {
	StreamComplete(ctx context.Context, system string, history []Turn, question string, temperature float32, onToken func(string) error) (string, error)
}

// Chain produces one streamed answer per question: assemble context, render
// the prompt, stream the completion. Context assembly and history conversion
// are independent of each other; any collaborator error after assembly
// surfaces as ErrAnswerGeneration.
type Chain struct {
	fusion ContextAssembler
	llm    StreamLLM
}

func NewChain(fusion ContextAssembler, llm StreamLLM) *Chain {
	return &Chain{fusion: fusion, llm: llm}
}

// Ask streams the answer tokens through onToken and returns the concatenated
// answer text. Cancelling ctx stops token forwarding and releases the
// stream; ingestion-time state needs no rollback.
func (c *Chain) Ask(ctx context.Context, question string, records []Turn, onToken func(string) error) (string, error) {
	fused := c.fusion.Assemble(ctx, question)
	system := fmt.Sprintf(systemTemplate, fused.Merged())
	history := BuildHistory(records)

	text, err := c.llm.StreamComplete(ctx, system, history, question, answerTemperature, onToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAnswerGeneration, err)
	}
	return text, nil
}
