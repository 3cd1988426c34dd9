package vectorstore

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"

	"github.com/Gopikaa27/Rag-Agent/internal/apperr"
)

// QdrantStore keeps chunks in a single Qdrant collection with the owner in
// the point payload. The owner condition goes into the query filter itself,
// so Qdrant ranks only that owner's points; filtering is never applied to
// an already-ranked result set.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
	maxK       int
}

// QdrantOptions configures the gRPC connection and collection.
type QdrantOptions struct {
	Host       string
	Port       int
	Collection string
	VectorSize int
	UseTLS     bool
	MaxK       int
}

// NewQdrantStore connects and ensures the collection exists with cosine
// distance.
func NewQdrantStore(ctx context.Context, opts QdrantOptions) (*QdrantStore, error) {
	if opts.Collection == "" || opts.VectorSize <= 0 {
		return nil, fmt.Errorf("%w: qdrant collection and vector size are required", apperr.ErrInvalidConfiguration)
	}
	if opts.MaxK <= 0 {
		opts.MaxK = DefaultMaxK
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   opts.Host,
		Port:   opts.Port,
		UseTLS: opts.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connect qdrant failed: %v", apperr.ErrStorageUnavailable, err)
	}

	exists, err := client.CollectionExists(ctx, opts.Collection)
	if err != nil {
		return nil, fmt.Errorf("%w: check collection failed: %v", apperr.ErrStorageUnavailable, err)
	}
	if !exists {
		err := client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: opts.Collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(opts.VectorSize),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: create collection failed: %v", apperr.ErrStorageUnavailable, err)
		}
	}

	return &QdrantStore{
		client:     client,
		collection: opts.Collection,
		maxK:       opts.MaxK,
	}, nil
}

func (s *QdrantStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := validateRecords(records); err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, len(records))
	for i, rec := range records {
		payload := map[string]*qdrant.Value{
			"owner_id":    intValue(int64(rec.OwnerID)),
			"document_id": intValue(int64(rec.DocumentID)),
			"seq":         intValue(int64(rec.SequenceIndex)),
			"text":        stringValue(rec.Text),
		}
		for k, v := range rec.Metadata {
			payload["meta_"+k] = stringValue(v)
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(rec.ChunkID),
			Vectors: qdrant.NewVectors(rec.Vector...),
			Payload: payload,
		}
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("%w: upsert points failed: %v", apperr.ErrStorageUnavailable, err)
	}
	return nil
}

func (s *QdrantStore) Query(ctx context.Context, vector []float32, ownerID uint, topK int, filter Filter) ([]Result, error) {
	if ownerID == 0 {
		return nil, fmt.Errorf("%w: missing owner", apperr.ErrInvalidArgument)
	}
	if err := checkTopK(topK, s.maxK); err != nil {
		return nil, err
	}

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		Filter:         s.ownerFilter(ownerID, filter),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: query points failed: %v", apperr.ErrStorageUnavailable, err)
	}

	results := make([]Result, 0, len(points))
	for _, point := range points {
		results = append(results, Result{
			ChunkID:    pointID(point.GetId()),
			Text:       point.GetPayload()["text"].GetStringValue(),
			Metadata:   payloadMetadata(point.GetPayload()),
			Similarity: point.GetScore(),
		})
	}
	return results, nil
}

func (s *QdrantStore) Delete(ctx context.Context, ownerID, documentID uint) error {
	if ownerID == 0 {
		return fmt.Errorf("%w: missing owner", apperr.ErrInvalidArgument)
	}

	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			matchInt("owner_id", int64(ownerID)),
			matchInt("document_id", int64(documentID)),
		},
	}

	count, err := s.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: s.collection,
		Filter:         filter,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("%w: count points failed: %v", apperr.ErrStorageUnavailable, err)
	}
	if count == 0 {
		return fmt.Errorf("%w: document %d for owner %d", apperr.ErrNotFound, documentID, ownerID)
	}

	_, err = s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{Filter: filter},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: delete points failed: %v", apperr.ErrStorageUnavailable, err)
	}
	return nil
}

// ownerFilter builds the must-conditions: the owner always, metadata
// equality predicates when present.
func (s *QdrantStore) ownerFilter(ownerID uint, filter Filter) *qdrant.Filter {
	conditions := []*qdrant.Condition{matchInt("owner_id", int64(ownerID))}
	for k, v := range filter {
		conditions = append(conditions, matchKeyword("meta_"+k, v))
	}
	return &qdrant.Filter{Must: conditions}
}

func matchInt(field string, value int64) *qdrant.Condition {
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{
				Key: field,
				Match: &qdrant.Match{
					MatchValue: &qdrant.Match_Integer{Integer: value},
				},
			},
		},
	}
}

func matchKeyword(field, value string) *qdrant.Condition {
	return &qdrant.Condition{
		ConditionOneOf: &qdrant.Condition_Field{
			Field: &qdrant.FieldCondition{
				Key: field,
				Match: &qdrant.Match{
					MatchValue: &qdrant.Match_Keyword{Keyword: value},
				},
			},
		},
	}
}

func intValue(v int64) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: v}}
}

func stringValue(v string) *qdrant.Value {
	return &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
}

func pointID(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	return id.GetUuid()
}

func payloadMetadata(payload map[string]*qdrant.Value) map[string]string {
	var meta map[string]string
	for k, v := range payload {
		if len(k) <= 5 || k[:5] != "meta_" {
			continue
		}
		if meta == nil {
			meta = make(map[string]string)
		}
		meta[k[5:]] = v.GetStringValue()
	}
	return meta
}
