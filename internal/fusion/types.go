package fusion

import "context"

// DocHit is one vector-store candidate: chunk text, provenance, the stored
// vector (needed for the diversity re-rank) and the store's distance.
type DocHit struct {
	Content    string
	DocumentID string
	Vector     []float32
	Distance   float32
}

// Triple is one statement from the knowledge graph.
type Triple struct {
	Subject   string
	Predicate string
	Object    string
}

// WebResult is one ranked web-search hit.
type WebResult struct {
	Title   string
	URL     string
	Snippet string
}

// VectorSearcher returns raw nearest-neighbour candidates; the engine applies
// maximal marginal relevance on top.
type VectorSearcher interface {
	SearchNearVector(ctx context.Context, vector []float32, limit int) ([]DocHit, error)
}

// GraphSearcher pattern-matches edges where either endpoint name contains the
// keyword as a substring.
type GraphSearcher interface {
	Match(ctx context.Context, keyword string, limit int) ([]Triple, error)
}

// WebSearcher queries the external search provider.
type WebSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]WebResult, error)
}

// Embedder embeds the rewritten query for vector search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Planner is the query planner: both rewrites are best-effort.
type Planner interface {
	ExtractEntity(ctx context.Context, question string) (string, error)
	RewriteForSearch(ctx context.Context, question string) (string, error)
}
