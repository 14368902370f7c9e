package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobibcgroup/qadim/internal/domain/entities"
	"github.com/bobibcgroup/qadim/internal/domain/mocks"
)

func newSourceDB() *mocks.RelationalDB {
	return &mocks.RelationalDB{
		Sources: map[string]entities.Source{
			"s1": {
				ID:             "s1",
				Title:          "An-Nahar Historical Archive",
				AuthorityLevel: entities.AuthorityPress,
				Status:         entities.SourceVerified,
				Credibility:    70,
			},
		},
	}
}

func TestSourceService_SetStatus_PropagatesToBothStores(t *testing.T) {
	db := newSourceDB()
	vectorDB := &mocks.VectorDB{}
	svc := NewSourceService(db, vectorDB)

	err := svc.SetStatus(context.Background(), "s1", entities.SourceContested)
	require.NoError(t, err)

	source, err := db.FindSourceByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, entities.SourceContested, source.Status)

	// The denormalized payload changes too; otherwise already-ingested
	// documents would keep surfacing as verified evidence.
	assert.Equal(t, entities.SourceContested, vectorDB.StatusUpdates["s1"])

	audit, err := db.FindAuditLog(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, "source.status", audit[0].Action)
}

func TestSourceService_SetStatus_UnknownSource(t *testing.T) {
	vectorDB := &mocks.VectorDB{}
	svc := NewSourceService(&mocks.RelationalDB{}, vectorDB)

	err := svc.SetStatus(context.Background(), "missing", entities.SourceContested)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source not found")
	assert.Empty(t, vectorDB.StatusUpdates)
}

func TestSourceService_SetStatus_InvalidStatus(t *testing.T) {
	vectorDB := &mocks.VectorDB{}
	svc := NewSourceService(newSourceDB(), vectorDB)

	err := svc.SetStatus(context.Background(), "s1", entities.SourceStatus("ARCHIVED"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid source status")
	assert.Empty(t, vectorDB.StatusUpdates)
}

func TestSourceService_SetStatus_VectorWriteFailure(t *testing.T) {
	svc := NewSourceService(newSourceDB(), &mocks.VectorDB{Err: errors.New("qdrant unavailable")})

	err := svc.SetStatus(context.Background(), "s1", entities.SourceUnverified)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "updating document payloads")
}
