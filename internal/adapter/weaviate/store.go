package weaviate

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"cineqa/internal/fusion"
	"cineqa/internal/indexer"
)

// ClassName is the single logical collection holding every catalog chunk.
const ClassName = "CatalogChunk"

const listPageSize = 100

type Store struct {
	client *weaviate.Client
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client}
}

// EnsureSchema creates the chunk class if missing. Vectors are supplied
// externally, so the vectorizer stays off.
func (s *Store) EnsureSchema(ctx context.Context) error {
	exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(ClassName).Do(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	class := &models.Class{
		Class:      ClassName,
		Vectorizer: "none",
		Properties: []*models.Property{
			{Name: "content", DataType: []string{"text"}},
			{Name: "documentId", DataType: []string{"text"}},
			{Name: "chunkIndex", DataType: []string{"int"}},
			{Name: "startOffset", DataType: []string{"int"}},
		},
	}
	return s.client.Schema().ClassCreator().WithClass(class).Do(ctx)
}

func (s *Store) Upsert(ctx context.Context, records []indexer.Record) error {
	for _, rec := range records {
		creator := s.client.Data().Creator().
			WithClassName(ClassName).
			WithProperties(map[string]interface{}{
				"content":     rec.Content,
				"documentId":  rec.DocumentID,
				"chunkIndex":  rec.ChunkIndex,
				"startOffset": rec.StartOffset,
			}).
			WithVector(rec.Vector)
		if rec.ID != "" {
			creator = creator.WithID(rec.ID)
		}
		if _, err := creator.Do(ctx); err != nil {
			return err
		}
	}
	return nil
}

// ListIDs enumerates every object id in the collection, paging until a short
// page comes back.
func (s *Store) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	offset := 0
	for {
		res, err := s.client.GraphQL().Get().
			WithClassName(ClassName).
			WithFields(graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "id"}}}).
			WithLimit(listPageSize).
			WithOffset(offset).
			Do(ctx)
		if err != nil {
			return nil, err
		}
		if len(res.Errors) > 0 {
			return nil, fmt.Errorf("graphql error: %v", res.Errors)
		}

		page := 0
		if data, ok := res.Data["Get"].(map[string]interface{}); ok {
			if objs, ok := data[ClassName].([]interface{}); ok {
				page = len(objs)
				for _, o := range objs {
					props, ok := o.(map[string]interface{})
					if !ok {
						continue
					}
					if add, ok := props["_additional"].(map[string]interface{}); ok {
						if id, ok := add["id"].(string); ok {
							ids = append(ids, id)
						}
					}
				}
			}
		}

		if page < listPageSize {
			return ids, nil
		}
		offset += page
	}
}

func (s *Store) Delete(ctx context.Context, ids []string) error {
	for _, id := range ids {
		err := s.client.Data().Deleter().
			WithClassName(ClassName).
			WithID(id).
			Do(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	ids, err := s.ListIDs(ctx)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// SearchNearVector returns the raw candidate pool for MMR: content,
// provenance, stored vector and distance, in store rank order.
func (s *Store) SearchNearVector(ctx context.Context, vector []float32, limit int) ([]fusion.DocHit, error) {
	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vector)

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "documentId"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "distance"}, {Name: "vector"}}},
	}

	res, err := s.client.GraphQL().Get().
		WithClassName(ClassName).
		WithNearVector(nearVector).
		WithLimit(limit).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors)
	}

	var hits []fusion.DocHit
	data, ok := res.Data["Get"].(map[string]interface{})
	if !ok {
		return hits, nil
	}
	objs, ok := data[ClassName].([]interface{})
	if !ok {
		return hits, nil
	}
	for _, o := range objs {
		props, ok := o.(map[string]interface{})
		if !ok {
			continue
		}
		hit := fusion.DocHit{}
		if content, ok := props["content"].(string); ok {
			hit.Content = content
		}
		if docID, ok := props["documentId"].(string); ok {
			hit.DocumentID = docID
		}
		if add, ok := props["_additional"].(map[string]interface{}); ok {
			if dist, ok := add["distance"].(float64); ok {
				hit.Distance = float32(dist)
			}
			if raw, ok := add["vector"].([]interface{}); ok {
				vec := make([]float32, 0, len(raw))
				for _, v := range raw {
					if f, ok := v.(float64); ok {
						vec = append(vec, float32(f))
					}
				}
				hit.Vector = vec
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
