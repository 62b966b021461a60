package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/entities"
	"github.com/mattyyyyyyy/JDO-AISPEECH/domain/repositories"
)

func TestTranscriptionRepository_CreateAndGet(t *testing.T) {
	repo := NewTranscriptionRepository()
	ctx := context.Background()

	record := entities.NewTranscriptionRecord("owner-1", "今天天气不错。", 2*time.Second)
	require.NoError(t, repo.Create(ctx, record))

	got, err := repo.GetByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.Text, got.Text)

	// returned values are copies
	got.Text = "changed"
	again, err := repo.GetByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, "今天天气不错。", again.Text)

	assert.Error(t, repo.Create(ctx, record), "duplicate ID")

	_, err = repo.GetByID(ctx, "missing")
	assert.True(t, errors.Is(err, repositories.ErrTranscriptionNotFound))
}

func TestTranscriptionRepository_CreateInvalid(t *testing.T) {
	repo := NewTranscriptionRepository()
	ctx := context.Background()

	assert.Error(t, repo.Create(ctx, nil))
	assert.Error(t, repo.Create(ctx, &entities.TranscriptionRecord{Status: entities.TranscriptionStatusCompleted, Text: "x"}), "missing owner")
}

func TestTranscriptionRepository_ListRecent(t *testing.T) {
	repo := NewTranscriptionRepository()
	ctx := context.Background()
	base := time.Now()

	for i, text := range []string{"a", "b", "c"} {
		r := entities.NewTranscriptionRecord("owner-1", text, time.Second)
		r.CreatedAt = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, repo.Create(ctx, r))
	}
	require.NoError(t, repo.Create(ctx, entities.NewTranscriptionRecord("owner-2", "other", time.Second)))

	records, err := repo.ListRecent(ctx, "owner-1", 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "c", records[0].Text)
	assert.Equal(t, "b", records[1].Text)

	all, err := repo.ListRecent(ctx, "owner-1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	none, err := repo.ListRecent(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = repo.ListRecent(ctx, "", 10)
	assert.Error(t, err)
}

func TestTranscriptionRepository_DeleteOlderThan(t *testing.T) {
	repo := NewTranscriptionRepository()
	ctx := context.Background()

	old := entities.NewTranscriptionRecord("owner-1", "old", time.Second)
	old.CreatedAt = time.Now().Add(-48 * time.Hour)
	fresh := entities.NewTranscriptionRecord("owner-1", "fresh", time.Second)
	require.NoError(t, repo.Create(ctx, old))
	require.NoError(t, repo.Create(ctx, fresh))

	deleted, err := repo.DeleteOlderThan(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	records, err := repo.ListRecent(ctx, "owner-1", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "fresh", records[0].Text)

	deleted, err = repo.DeleteOlderThan(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, deleted)
}

func TestTranscriptionRepository_Concurrent(t *testing.T) {
	repo := NewTranscriptionRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = repo.Create(ctx, entities.NewTranscriptionRecord("owner-1", "x", time.Second))
			_, _ = repo.ListRecent(ctx, "owner-1", 5)
		}()
	}
	wg.Wait()

	records, err := repo.ListRecent(ctx, "owner-1", 0)
	require.NoError(t, err)
	assert.Len(t, records, 50)
}

func TestClientRepository(t *testing.T) {
	repo := NewClientRepository(map[string]string{
		"web":   "s3cret",
		"empty": "",
	})

	assert.Equal(t, 1, repo.Len(), "blank secrets are ignored")
	assert.NoError(t, repo.ValidateClient("web", "s3cret"))
	assert.ErrorIs(t, repo.ValidateClient("web", "wrong"), ErrInvalidCredentials)
	assert.ErrorIs(t, repo.ValidateClient("nobody", "s3cret"), ErrClientNotFound)
	assert.ErrorIs(t, repo.ValidateClient("empty", ""), ErrClientNotFound)
}
