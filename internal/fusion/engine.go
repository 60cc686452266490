package fusion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Retrieval parameters. Three final excerpts are drawn from a pool of twenty
// candidates; lambda 0.5 balances relevance against diversity.
const (
	TopK       = 3
	FetchK     = 20
	MMRLambda  = 0.5
	GraphLimit = 10
	WebLimit   = 5
)

// EmptyContext is the literal the merged context collapses to when neither
// the graph nor the documents produced anything, so the prompt template never
// renders an empty context slot.
const EmptyContext = "未找到相关知识图谱或文档信息。"

const (
	graphHeading = "以下是我通过知识图谱推理的内容："
	docHeading   = "补充文档信息："
	webHeading   = "网络搜索结果："
)

// Result is one request's fused context: each section is already rendered
// with its source label, and Merged produces the final prioritized block.
type Result struct {
	Entity       string
	Query        string
	GraphSection string
	DocSection   string
	WebSection   string
}

// Merged concatenates sections in fixed priority order: graph statements
// first, document excerpts second, web results last. When the graph and
// document sections are both empty, the web section stands alone if present,
// otherwise the literal placeholder is returned.
func (r *Result) Merged() string {
	var sections []string
	if r.GraphSection != "" {
		sections = append(sections, r.GraphSection)
	}
	if r.DocSection != "" {
		sections = append(sections, r.DocSection)
	}
	if len(sections) == 0 {
		if r.WebSection != "" {
			return r.WebSection
		}
		return EmptyContext
	}
	if r.WebSection != "" {
		sections = append(sections, r.WebSection)
	}
	return strings.Join(sections, "\n\n")
}

// Engine assembles the answer context from the vector store, the knowledge
// graph and web search. Every lookup is best-effort: provider errors and
// timeouts degrade to an empty contribution and never fail the request.
type Engine struct {
	planner  Planner
	embedder Embedder
	vectors  VectorSearcher
	graph    GraphSearcher
	web      WebSearcher

	sourceTimeout time.Duration
}

func NewEngine(planner Planner, embedder Embedder, vectors VectorSearcher, graph GraphSearcher, web WebSearcher, sourceTimeout time.Duration) *Engine {
	if sourceTimeout <= 0 {
		sourceTimeout = 10 * time.Second
	}
	return &Engine{
		planner:       planner,
		embedder:      embedder,
		vectors:       vectors,
		graph:         graph,
		web:           web,
		sourceTimeout: sourceTimeout,
	}
}

// Assemble runs the three lookups concurrently and waits for all of them
// (or their timeouts) before merging.
func (e *Engine) Assemble(ctx context.Context, question string) *Result {
	res := &Result{}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		res.Query, res.DocSection = e.lookupDocuments(ctx, question)
	}()
	go func() {
		defer wg.Done()
		res.Entity, res.GraphSection = e.lookupGraph(ctx, question)
	}()
	go func() {
		defer wg.Done()
		res.WebSection = e.lookupWeb(ctx, question)
	}()

	wg.Wait()
	return res
}

// lookupDocuments rewrites the question, embeds it and runs MMR retrieval.
// Hits are numbered in retrieval-rank order and labeled with their source
// document.
func (e *Engine) lookupDocuments(ctx context.Context, question string) (query, section string) {
	ctx, cancel := context.WithTimeout(ctx, e.sourceTimeout)
	defer cancel()

	query, _ = e.planner.RewriteForSearch(ctx, question)
	if query == "" {
		query = question
	}

	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		slog.WarnContext(ctx, "query embedding failed, skipping vector retrieval", "error", err)
		return query, ""
	}

	candidates, err := e.vectors.SearchNearVector(ctx, vec, FetchK)
	if err != nil {
		slog.WarnContext(ctx, "vector search failed", "error", err)
		return query, ""
	}
	hits := maximalMarginalRelevance(vec, candidates, TopK, MMRLambda)
	if len(hits) == 0 {
		return query, ""
	}

	var b strings.Builder
	b.WriteString(docHeading)
	for i, h := range hits {
		fmt.Fprintf(&b, "\n%d. [文档:%s] %s", i+1, h.DocumentID, h.Content)
	}
	return query, b.String()
}

// lookupGraph resolves the core entity and pattern-matches edges whose
// endpoint names contain it. No entity means no graph contribution.
func (e *Engine) lookupGraph(ctx context.Context, question string) (entity, section string) {
	ctx, cancel := context.WithTimeout(ctx, e.sourceTimeout)
	defer cancel()

	entity, _ = e.planner.ExtractEntity(ctx, question)
	if entity == "" {
		return "", ""
	}

	triples, err := e.graph.Match(ctx, entity, GraphLimit)
	if err != nil {
		slog.WarnContext(ctx, "graph lookup failed", "error", err, "entity", entity)
		return entity, ""
	}
	if len(triples) == 0 {
		return entity, ""
	}

	var b strings.Builder
	b.WriteString(graphHeading)
	for _, t := range triples {
		fmt.Fprintf(&b, "\n（%s，%s，%s）", t.Subject, t.Predicate, t.Object)
	}
	return entity, b.String()
}

// lookupWeb queries the search provider with the raw question. A provider
// error yields an empty contribution rather than propagating.
func (e *Engine) lookupWeb(ctx context.Context, question string) string {
	ctx, cancel := context.WithTimeout(ctx, e.sourceTimeout)
	defer cancel()

	results, err := e.web.Search(ctx, question, WebLimit)
	if err != nil {
		slog.WarnContext(ctx, "web search failed", "error", err)
		return ""
	}
	if len(results) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(webHeading)
	for i, r := range results {
		fmt.Fprintf(&b, "\n%d. %s（%s）：%s", i+1, r.Title, r.URL, r.Snippet)
	}
	return b.String()
}
