package config

// NSQ topics used by the ingestion pipeline.
const (
	// TopicKGExtract carries one chunk per message; consumers run triple
	// extraction and commit to the graph store.
	TopicKGExtract = "kg.extract"
)
