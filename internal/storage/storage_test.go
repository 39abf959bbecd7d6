package storage_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier-ai/maestro/internal/knowledge"
	"github.com/atelier-ai/maestro/internal/model"
	"github.com/atelier-ai/maestro/internal/storage"
	"github.com/atelier-ai/maestro/internal/testutil"
)

// testDB holds a shared test database connection for all tests in this package.
var testDB *storage.DB

func TestMain(m *testing.M) {
	ctx := context.Background()

	tc := testutil.MustStartPostgres()

	db, err := tc.NewTestDB(ctx, testutil.TestLogger())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up test database: %v\n", err)
		tc.Terminate()
		os.Exit(1)
	}
	testDB = db

	code := m.Run()

	db.Close()
	tc.Terminate()
	os.Exit(code)
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()

	sess := model.NewSession("sess-rt-1", "user-rt")
	sess.Turns = append(sess.Turns,
		model.Turn{Speaker: model.SpeakerUser, Text: "What are the VEPT pillars?", Timestamp: time.Now().UTC()},
		model.Turn{Speaker: model.SpeakerFor(model.PersonaCHRO), Text: "Vision, Entrepreneurship, Passion, Trust.", Timestamp: time.Now().UTC()},
	)
	sess.TurnCount = 1
	sess.PreviousSpeaker = model.PersonaCHRO
	sess.SentimentScore = 0.6
	sess.TaskProgress[model.TaskCHROConsulted] = true
	em := sess.AgentEmotions[model.PersonaCHRO]
	em.RelationshipScore = 0.55
	em.LastTopic = "competency pillars"
	sess.AgentEmotions[model.PersonaCHRO] = em

	require.NoError(t, testDB.SaveSession(ctx, sess))

	got, err := testDB.LoadSession(ctx, "sess-rt-1")
	require.NoError(t, err)
	assert.Equal(t, "user-rt", got.UserID)
	assert.Equal(t, 1, got.TurnCount)
	assert.Equal(t, model.PersonaCHRO, got.PreviousSpeaker)
	assert.InDelta(t, 0.6, got.SentimentScore, 1e-9)
	assert.True(t, got.TaskProgress[model.TaskCHROConsulted])
	require.Len(t, got.Turns, 2)
	assert.Equal(t, "What are the VEPT pillars?", got.Turns[0].Text)
	assert.InDelta(t, 0.55, got.AgentEmotions[model.PersonaCHRO].RelationshipScore, 1e-9)
	assert.Equal(t, "competency pillars", got.AgentEmotions[model.PersonaCHRO].LastTopic)
}

func TestSessionUpsertOverwrites(t *testing.T) {
	ctx := context.Background()

	sess := model.NewSession("sess-up-1", "user-up")
	require.NoError(t, testDB.SaveSession(ctx, sess))

	sess.TurnCount = 7
	sess.SentimentScore = 0.25
	require.NoError(t, testDB.SaveSession(ctx, sess))

	got, err := testDB.LoadSession(ctx, "sess-up-1")
	require.NoError(t, err)
	assert.Equal(t, 7, got.TurnCount)
	assert.InDelta(t, 0.25, got.SentimentScore, 1e-9)
}

func TestLoadSessionNotFound(t *testing.T) {
	_, err := testDB.LoadSession(context.Background(), "no-such-session")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteSession(t *testing.T) {
	ctx := context.Background()

	sess := model.NewSession("sess-del-1", "user-del")
	require.NoError(t, testDB.SaveSession(ctx, sess))
	require.NoError(t, testDB.DeleteSession(ctx, "sess-del-1"))

	_, err := testDB.LoadSession(ctx, "sess-del-1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Deleting again is not an error.
	assert.NoError(t, testDB.DeleteSession(ctx, "sess-del-1"))
}

func TestListSessionsOrder(t *testing.T) {
	ctx := context.Background()

	for i, id := range []string{"sess-list-a", "sess-list-b", "sess-list-c"} {
		sess := model.NewSession(id, "user-list")
		sess.UpdatedAt = time.Now().UTC().Add(time.Duration(i) * time.Minute)
		require.NoError(t, testDB.SaveSession(ctx, sess))
	}

	got, err := testDB.ListSessions(ctx, "user-list", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "sess-list-c", got[0].ID)
	assert.Equal(t, "sess-list-a", got[2].ID)
}

func TestUserUpsert(t *testing.T) {
	ctx := context.Background()

	require.NoError(t, testDB.UpsertUser(ctx, "learner-1"))
	first, err := testDB.GetUser(ctx, "learner-1")
	require.NoError(t, err)

	require.NoError(t, testDB.UpsertUser(ctx, "learner-1"))
	second, err := testDB.GetUser(ctx, "learner-1")
	require.NoError(t, err)

	assert.Equal(t, first.FirstSeenAt, second.FirstSeenAt)
	assert.False(t, second.LastSeenAt.Before(first.LastSeenAt))

	_, err = testDB.GetUser(ctx, "nobody")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestInteractionLog(t *testing.T) {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, testDB.LogInteraction(ctx, storage.Interaction{
			SessionID: "sess-int-1",
			UserID:    "user-int",
			Persona:   model.PersonaCEO,
			Message:   fmt.Sprintf("question %d", i),
			Response:  fmt.Sprintf("answer %d", i),
			CacheHit:  i == 2,
			LatencyMS: float64(100 + i),
		}))
	}

	got, err := testDB.RecentInteractions(ctx, "sess-int-1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "question 2", got[0].Message)
	assert.True(t, got[0].CacheHit)
	assert.Equal(t, "question 1", got[1].Message)

	all, err := testDB.RecentInteractions(ctx, "sess-int-1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestChunkStoreRoundTrip(t *testing.T) {
	ctx := context.Background()

	dims := 1024
	mkVec := func(seed float32) pgvector.Vector {
		v := make([]float32, dims)
		v[0] = seed
		v[1] = 1 - seed
		return pgvector.NewVector(v)
	}

	chunks := []knowledge.Chunk{
		{ID: uuid.New(), Roles: []string{"CEO", "shared"}, Topic: "group_dna", Text: "Maison autonomy is non-negotiable."},
		{ID: uuid.New(), Roles: []string{"CHRO"}, Topic: "360_coaching", Text: "Feedback is delivered through certified coaches."},
		{ID: uuid.New(), Roles: []string{"shared"}, Topic: "simulation_tasks", Text: "Consult each leader before proposing."},
	}
	embeddings := []pgvector.Vector{mkVec(0.9), mkVec(0.1), mkVec(0.8)}
	require.NoError(t, testDB.InsertChunks(ctx, chunks, embeddings))

	got, err := testDB.GetChunks(ctx, []uuid.UUID{chunks[0].ID, chunks[2].ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// Role overlap filter: CHRO sees its own chunk plus shared ones, never CEO-only.
	found, err := testDB.SearchChunks(ctx, mkVec(0.1), []string{"CHRO", "shared"}, 10)
	require.NoError(t, err)
	require.NotEmpty(t, found)
	topics := make(map[string]bool)
	for _, c := range found {
		topics[c.Topic] = true
	}
	assert.True(t, topics["360_coaching"])
	assert.False(t, topics["group_dna"])

	// Nearest neighbor ordering: the 0.1-seeded chunk is closest to itself.
	assert.Equal(t, "360_coaching", found[0].Topic)
}

func TestInsertChunksIdempotent(t *testing.T) {
	ctx := context.Background()

	id := uuid.New()
	vec := pgvector.NewVector(make([]float32, 1024))
	chunk := knowledge.Chunk{ID: id, Roles: []string{"shared"}, Topic: "t1", Text: "original"}
	require.NoError(t, testDB.InsertChunks(ctx, []knowledge.Chunk{chunk}, []pgvector.Vector{vec}))

	chunk.Text = "revised"
	require.NoError(t, testDB.InsertChunks(ctx, []knowledge.Chunk{chunk}, []pgvector.Vector{vec}))

	got, err := testDB.GetChunks(ctx, []uuid.UUID{id})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "revised", got[0].Text)
}

func TestInsertChunksCountMismatch(t *testing.T) {
	err := testDB.InsertChunks(context.Background(),
		[]knowledge.Chunk{{ID: uuid.New()}}, nil)
	assert.Error(t, err)
}
