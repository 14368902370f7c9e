package qdrant

import (
	"context"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
)

func TestAPIKeyInterceptor(t *testing.T) {
	var got []string
	invoker := func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, ok := metadata.FromOutgoingContext(ctx)
		require.True(t, ok, "outgoing metadata must be set")
		got = md.Get("api-key")
		return nil
	}

	err := apiKeyInterceptor("secret")(context.Background(), "/qdrant.Points/Search", nil, nil, nil, invoker)
	require.NoError(t, err)
	assert.Equal(t, []string{"secret"}, got)
}

func scoredPoint(score float32) *pb.ScoredPoint {
	return &pb.ScoredPoint{
		Id:    &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: "doc-1"}},
		Score: score,
		Payload: map[string]*pb.Value{
			"source_id":       {Kind: &pb.Value_StringValue{StringValue: "s1"}},
			"source_title":    {Kind: &pb.Value_StringValue{StringValue: "Lebanese National Archives"}},
			"authority_level": {Kind: &pb.Value_StringValue{StringValue: "OFFICIAL"}},
			"status":          {Kind: &pb.Value_StringValue{StringValue: "VERIFIED"}},
			"credibility":     {Kind: &pb.Value_IntegerValue{IntegerValue: 95}},
			"year":            {Kind: &pb.Value_IntegerValue{IntegerValue: 1920}},
			"content":         {Kind: &pb.Value_StringValue{StringValue: "the mandate census"}},
			"language":        {Kind: &pb.Value_StringValue{StringValue: "AR"}},
		},
	}
}

func TestScoredPointToCandidate(t *testing.T) {
	c := scoredPointToCandidate(scoredPoint(0.87))

	assert.Equal(t, "doc-1", c.Document.ID)
	assert.Equal(t, "s1", c.Document.SourceID)
	assert.Equal(t, "the mandate census", c.Document.Content)
	assert.Equal(t, entities.AuthorityOfficial, c.AuthorityLevel)
	assert.Equal(t, entities.SourceVerified, c.Status)
	assert.Equal(t, 95, c.Credibility)
	assert.Equal(t, 1920, c.Year)
	assert.InDelta(t, 0.87, c.SimilarityScore, 1e-6)
}

func TestScoredPointToCandidate_ClampsScore(t *testing.T) {
	assert.Zero(t, scoredPointToCandidate(scoredPoint(-0.2)).SimilarityScore)
	assert.Equal(t, 1.0, scoredPointToCandidate(scoredPoint(1.3)).SimilarityScore)
}
