package fusion

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockPlanner struct {
	mock.Mock
}

func (m *MockPlanner) ExtractEntity(ctx context.Context, question string) (string, error) {
	args := m.Called(ctx, question)
	return args.String(0), args.Error(1)
}

func (m *MockPlanner) RewriteForSearch(ctx context.Context, question string) (string, error) {
	args := m.Called(ctx, question)
	return args.String(0), args.Error(1)
}

type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type MockVectorSearcher struct {
	mock.Mock
}

func (m *MockVectorSearcher) SearchNearVector(ctx context.Context, vector []float32, limit int) ([]DocHit, error) {
	args := m.Called(ctx, vector, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]DocHit), args.Error(1)
}

type MockGraphSearcher struct {
	mock.Mock
}

func (m *MockGraphSearcher) Match(ctx context.Context, keyword string, limit int) ([]Triple, error) {
	args := m.Called(ctx, keyword, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Triple), args.Error(1)
}

type MockWebSearcher struct {
	mock.Mock
}

func (m *MockWebSearcher) Search(ctx context.Context, query string, maxResults int) ([]WebResult, error) {
	args := m.Called(ctx, query, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]WebResult), args.Error(1)
}

func newTestEngine(planner *MockPlanner, embedder *MockEmbedder, vectors *MockVectorSearcher, graph *MockGraphSearcher, web *MockWebSearcher) *Engine {
	return NewEngine(planner, embedder, vectors, graph, web, 2*time.Second)
}

func TestAssemble_AllSourcesContribute(t *testing.T) {
	planner := new(MockPlanner)
	embedder := new(MockEmbedder)
	vectors := new(MockVectorSearcher)
	graph := new(MockGraphSearcher)
	web := new(MockWebSearcher)

	planner.On("RewriteForSearch", mock.Anything, "星际穿越的导演是谁？").Return("星际穿越 导演", nil)
	planner.On("ExtractEntity", mock.Anything, "星际穿越的导演是谁？").Return("星际穿越", nil)
	embedder.On("Embed", mock.Anything, "星际穿越 导演").Return([]float32{0.1, 0.2}, nil)
	vectors.On("SearchNearVector", mock.Anything, mock.Anything, FetchK).Return([]DocHit{
		{Content: "星际穿越是一部科幻电影", DocumentID: "d1", Vector: []float32{0.1, 0.2}},
	}, nil)
	graph.On("Match", mock.Anything, "星际穿越", GraphLimit).Return([]Triple{
		{Subject: "星际穿越", Predicate: "导演", Object: "克里斯托弗·诺兰"},
	}, nil)
	web.On("Search", mock.Anything, "星际穿越的导演是谁？", WebLimit).Return([]WebResult{
		{Title: "星际穿越", URL: "https://example.com", Snippet: "诺兰执导"},
	}, nil)

	engine := newTestEngine(planner, embedder, vectors, graph, web)
	res := engine.Assemble(context.Background(), "星际穿越的导演是谁？")

	assert.Equal(t, "星际穿越", res.Entity)
	assert.Equal(t, "星际穿越 导演", res.Query)
	assert.Contains(t, res.GraphSection, "（星际穿越，导演，克里斯托弗·诺兰）")
	assert.Contains(t, res.DocSection, "[文档:d1]")
	assert.Contains(t, res.WebSection, "https://example.com")

	merged := res.Merged()
	graphIdx := strings.Index(merged, "以下是我通过知识图谱推理的内容：")
	docIdx := strings.Index(merged, "补充文档信息：")
	webIdx := strings.Index(merged, "网络搜索结果：")
	assert.True(t, graphIdx >= 0 && docIdx > graphIdx && webIdx > docIdx,
		"sections must appear in graph, doc, web order: %s", merged)
}

func TestAssemble_AllSourcesEmptyYieldsPlaceholder(t *testing.T) {
	planner := new(MockPlanner)
	embedder := new(MockEmbedder)
	vectors := new(MockVectorSearcher)
	graph := new(MockGraphSearcher)
	web := new(MockWebSearcher)

	planner.On("RewriteForSearch", mock.Anything, mock.Anything).Return("改写查询", nil)
	planner.On("ExtractEntity", mock.Anything, mock.Anything).Return("未知实体", nil)
	embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)
	vectors.On("SearchNearVector", mock.Anything, mock.Anything, mock.Anything).Return([]DocHit{}, nil)
	graph.On("Match", mock.Anything, mock.Anything, mock.Anything).Return([]Triple{}, nil)
	web.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("search unavailable"))

	engine := newTestEngine(planner, embedder, vectors, graph, web)
	res := engine.Assemble(context.Background(), "一个没有任何命中的问题")

	assert.Equal(t, EmptyContext, res.Merged())
}

func TestAssemble_WebAloneWhenOthersEmpty(t *testing.T) {
	planner := new(MockPlanner)
	embedder := new(MockEmbedder)
	vectors := new(MockVectorSearcher)
	graph := new(MockGraphSearcher)
	web := new(MockWebSearcher)

	planner.On("RewriteForSearch", mock.Anything, mock.Anything).Return("", nil)
	planner.On("ExtractEntity", mock.Anything, mock.Anything).Return("", nil)
	embedder.On("Embed", mock.Anything, mock.Anything).Return(nil, errors.New("embed failed"))
	web.On("Search", mock.Anything, mock.Anything, mock.Anything).Return([]WebResult{
		{Title: "新片速递", URL: "https://example.com/news", Snippet: "最新电影资讯"},
	}, nil)

	engine := newTestEngine(planner, embedder, vectors, graph, web)
	res := engine.Assemble(context.Background(), "最近有什么新电影？")

	// no entity means the graph is never queried
	graph.AssertNotCalled(t, "Match")
	merged := res.Merged()
	assert.Contains(t, merged, "网络搜索结果：")
	assert.NotContains(t, merged, EmptyContext)
}

func TestAssemble_ProviderErrorsDegrade(t *testing.T) {
	planner := new(MockPlanner)
	embedder := new(MockEmbedder)
	vectors := new(MockVectorSearcher)
	graph := new(MockGraphSearcher)
	web := new(MockWebSearcher)

	planner.On("RewriteForSearch", mock.Anything, mock.Anything).Return("查询", nil)
	planner.On("ExtractEntity", mock.Anything, mock.Anything).Return("实体", nil)
	embedder.On("Embed", mock.Anything, mock.Anything).Return([]float32{0.1}, nil)
	vectors.On("SearchNearVector", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("weaviate down"))
	graph.On("Match", mock.Anything, "实体", mock.Anything).Return([]Triple{
		{Subject: "实体", Predicate: "类型", Object: "剧情"},
	}, nil)
	web.On("Search", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

	engine := newTestEngine(planner, embedder, vectors, graph, web)
	res := engine.Assemble(context.Background(), "问题")

	// the surviving source still contributes
	assert.NotEmpty(t, res.GraphSection)
	assert.Empty(t, res.DocSection)
	assert.Empty(t, res.WebSection)
	assert.Contains(t, res.Merged(), "（实体，类型，剧情）")
}

func TestMerged_GraphBeforeDocs(t *testing.T) {
	r := &Result{GraphSection: "图谱部分", DocSection: "文档部分", WebSection: "网络部分"}
	assert.Equal(t, "图谱部分\n\n文档部分\n\n网络部分", r.Merged())

	r = &Result{DocSection: "文档部分"}
	assert.Equal(t, "文档部分", r.Merged())

	r = &Result{}
	assert.Equal(t, EmptyContext, r.Merged())
}
