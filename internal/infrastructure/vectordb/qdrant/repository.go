// Package qdrant provides a VectorDB implementation using Qdrant.
package qdrant

import (
	"context"
	"fmt"
	"time"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
	"github.com/bobibcgroup/qadim/internal/infrastructure/config"
)

// Repository implements the VectorDB interface using Qdrant. Source metadata
// is denormalized into each document point's payload so a single search
// returns everything scoring needs.
type Repository struct {
	client     pb.CollectionsClient
	points     pb.PointsClient
	collection string
	conn       *grpc.ClientConn
}

// NewRepository creates a new Qdrant repository.
func NewRepository(cfg config.QdrantConfig) (*Repository, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if cfg.APIKey != "" {
		opts = append(opts, grpc.WithUnaryInterceptor(apiKeyInterceptor(cfg.APIKey)))
	}

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	return &Repository{
		client:     pb.NewCollectionsClient(conn),
		points:     pb.NewPointsClient(conn),
		collection: cfg.Collection,
		conn:       conn,
	}, nil
}

// apiKeyInterceptor attaches the Qdrant api-key header to every call. All of
// the client's RPCs are unary, so a unary interceptor covers them.
func apiKeyInterceptor(key string) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = metadata.AppendToOutgoingContext(ctx, "api-key", key)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// Close closes the gRPC connection.
func (r *Repository) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// EnsureCollection creates the collection if it doesn't exist.
func (r *Repository) EnsureCollection(ctx context.Context, vectorSize uint64) error {
	_, err := r.client.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err == nil {
		return nil
	}

	_, err = r.client.Create(ctx, &pb.CreateCollection{
		CollectionName: r.collection,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     vectorSize,
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}

	return nil
}

// SaveDocument stores a document with its embedding.
func (r *Repository) SaveDocument(ctx context.Context, doc entities.Document, source entities.Source) error {
	return r.SaveDocumentBatch(ctx, []entities.Document{doc}, source)
}

// SaveDocumentBatch stores multiple documents owned by the same source.
// Points are upserted by document ID, so re-ingesting a document replaces its
// previous point instead of duplicating it.
func (r *Repository) SaveDocumentBatch(ctx context.Context, docs []entities.Document, source entities.Source) error {
	points := make([]*pb.PointStruct, 0, len(docs))

	for _, doc := range docs {
		publishedAt := ""
		if !doc.PublishedAt.IsZero() {
			publishedAt = doc.PublishedAt.Format(time.RFC3339)
		}

		point := &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{
					Uuid: doc.ID,
				},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{
						Data: doc.Embedding,
					},
				},
			},
			Payload: map[string]*pb.Value{
				"source_id":       {Kind: &pb.Value_StringValue{StringValue: source.ID}},
				"source_title":    {Kind: &pb.Value_StringValue{StringValue: source.Title}},
				"publisher":       {Kind: &pb.Value_StringValue{StringValue: source.Publisher}},
				"authority_level": {Kind: &pb.Value_StringValue{StringValue: string(source.AuthorityLevel)}},
				"status":          {Kind: &pb.Value_StringValue{StringValue: string(source.Status)}},
				"credibility":     {Kind: &pb.Value_IntegerValue{IntegerValue: int64(source.Credibility)}},
				"year":            {Kind: &pb.Value_IntegerValue{IntegerValue: int64(source.Year)}},
				"title":           {Kind: &pb.Value_StringValue{StringValue: doc.Title}},
				"content":         {Kind: &pb.Value_StringValue{StringValue: doc.Content}},
				"language":        {Kind: &pb.Value_StringValue{StringValue: string(doc.Language)}},
				"published_at":    {Kind: &pb.Value_StringValue{StringValue: publishedAt}},
			},
		}
		points = append(points, point)
	}

	_, err := r.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: r.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	return nil
}

// SearchVerified performs a similarity search restricted to documents whose
// source status is VERIFIED. Results come back ordered by descending cosine
// similarity.
func (r *Repository) SearchVerified(ctx context.Context, embedding []float32, limit int) ([]entities.Candidate, error) {
	resp, err := r.points.Search(ctx, &pb.SearchPoints{
		CollectionName: r.collection,
		Vector:         embedding,
		Limit:          uint64(limit),
		Filter: &pb.Filter{
			Must: []*pb.Condition{
				{
					ConditionOneOf: &pb.Condition_Field{
						Field: &pb.FieldCondition{
							Key: "status",
							Match: &pb.Match{
								MatchValue: &pb.Match_Keyword{
									Keyword: string(entities.SourceVerified),
								},
							},
						},
					},
				},
			},
		},
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("searching points: %w", err)
	}

	candidates := make([]entities.Candidate, 0, len(resp.Result))
	for _, point := range resp.Result {
		candidates = append(candidates, scoredPointToCandidate(point))
	}
	return candidates, nil
}

// UpdateSourceStatus rewrites the denormalized status payload on every point
// owned by the source. Demoting a source this way drops its documents out of
// verified retrieval immediately, without deleting the points.
func (r *Repository) UpdateSourceStatus(ctx context.Context, sourceID string, status entities.SourceStatus) error {
	_, err := r.points.SetPayload(ctx, &pb.SetPayloadPoints{
		CollectionName: r.collection,
		Payload: map[string]*pb.Value{
			"status": {Kind: &pb.Value_StringValue{StringValue: string(status)}},
		},
		PointsSelector: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{
				Filter: sourceFilter(sourceID),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("updating source status payload: %w", err)
	}

	return nil
}

// DeleteBySource removes all documents owned by a source.
func (r *Repository) DeleteBySource(ctx context.Context, sourceID string) error {
	_, err := r.points.Delete(ctx, &pb.DeletePoints{
		CollectionName: r.collection,
		Points: &pb.PointsSelector{
			PointsSelectorOneOf: &pb.PointsSelector_Filter{
				Filter: sourceFilter(sourceID),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("deleting points by source: %w", err)
	}

	return nil
}

// sourceFilter matches every point whose payload carries the given source ID.
func sourceFilter(sourceID string) *pb.Filter {
	return &pb.Filter{
		Must: []*pb.Condition{
			{
				ConditionOneOf: &pb.Condition_Field{
					Field: &pb.FieldCondition{
						Key: "source_id",
						Match: &pb.Match{
							MatchValue: &pb.Match_Keyword{
								Keyword: sourceID,
							},
						},
					},
				},
			},
		},
	}
}

// Count returns the total number of documents.
func (r *Repository) Count(ctx context.Context) (uint64, error) {
	resp, err := r.client.Get(ctx, &pb.GetCollectionInfoRequest{
		CollectionName: r.collection,
	})
	if err != nil {
		return 0, fmt.Errorf("getting collection info: %w", err)
	}

	if resp.Result.PointsCount == nil {
		return 0, nil
	}

	return *resp.Result.PointsCount, nil
}

// scoredPointToCandidate converts a scored Qdrant point to a Candidate.
func scoredPointToCandidate(point *pb.ScoredPoint) entities.Candidate {
	id := ""
	if uuid := point.Id.GetUuid(); uuid != "" {
		id = uuid
	}

	payload := point.Payload

	var publishedAt time.Time
	if raw := getStringValue(payload, "published_at"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			publishedAt = t
		}
	}

	// Cosine similarity from Qdrant lands in [-1, 1]; clamp to [0, 1] so
	// downstream scoring sees the documented range.
	score := float64(point.Score)
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return entities.Candidate{
		Document: entities.Document{
			ID:          id,
			SourceID:    getStringValue(payload, "source_id"),
			Title:       getStringValue(payload, "title"),
			Content:     getStringValue(payload, "content"),
			Language:    entities.Language(getStringValue(payload, "language")),
			PublishedAt: publishedAt,
		},
		SourceTitle:     getStringValue(payload, "source_title"),
		Publisher:       getStringValue(payload, "publisher"),
		AuthorityLevel:  entities.AuthorityLevel(getStringValue(payload, "authority_level")),
		Status:          entities.SourceStatus(getStringValue(payload, "status")),
		Credibility:     int(getIntValue(payload, "credibility")),
		Year:            int(getIntValue(payload, "year")),
		SimilarityScore: score,
	}
}

// Helper functions for payload extraction.
func getStringValue(payload map[string]*pb.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

func getIntValue(payload map[string]*pb.Value, key string) int64 {
	if v, ok := payload[key]; ok {
		return v.GetIntegerValue()
	}
	return 0
}
