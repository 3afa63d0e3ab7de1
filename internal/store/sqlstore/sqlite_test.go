package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/messagely/internal/core"
	"github.com/vovakirdan/messagely/internal/store"
)

// newTestStore opens an in-memory SQLite store with the schema migrated.
func newTestStore(t *testing.T) *SQLStore {
	t.Helper()

	ctx := context.Background()
	st, err := Open(ctx, DialectSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	applied, err := st.Migrate(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, applied)

	return st
}

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, st *SQLStore, username string) *store.User {
	t.Helper()

	u := &store.User{
		Username:  username,
		FirstName: "First " + username,
		LastName:  "Last " + username,
		Phone:     "+1555" + username,
		JoinAt:    baseTime,
	}
	require.NoError(t, st.CreateUser(context.Background(), u, "hash-"+username))
	return u
}

func TestMigrateIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	applied, err := st.Migrate(ctx)
	require.NoError(t, err)
	assert.Zero(t, applied)

	version, err := st.MigrationVersion(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, version)
}

func TestCreateAndGetUser(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	seedUser(t, st, "alice")

	got, err := st.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "First alice", got.FirstName)
	assert.Equal(t, "Last alice", got.LastName)
	assert.Equal(t, "+1555alice", got.Phone)
	assert.True(t, got.JoinAt.Equal(baseTime), "join_at %v", got.JoinAt)
	assert.Nil(t, got.LastLoginAt)

	hash, err := st.GetPasswordHash(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "hash-alice", hash)
}

func TestCreateUser_DuplicateIsConflict(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	seedUser(t, st, "alice")

	err := st.CreateUser(ctx, &store.User{Username: "alice", FirstName: "Eve", JoinAt: baseTime}, "other")
	require.ErrorIs(t, err, core.ErrConflict)
	assert.Equal(t, "username already taken", core.MessageOf(err))

	got, err := st.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "First alice", got.FirstName)
}

func TestGetUser_NotFound(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.GetUser(ctx, "ghost")
	require.ErrorIs(t, err, core.ErrNotFound)

	_, err = st.GetPasswordHash(ctx, "ghost")
	require.ErrorIs(t, err, core.ErrNotFound)

	exists, err := st.UserExists(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUpdateLastLogin(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	seedUser(t, st, "alice")

	at := baseTime.Add(90 * time.Minute)
	require.NoError(t, st.UpdateLastLogin(ctx, "alice", at))

	got, err := st.GetUser(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
	assert.True(t, got.LastLoginAt.Equal(at))

	err = st.UpdateLastLogin(ctx, "ghost", at)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestListUsers(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	users, err := st.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.NotNil(t, users)

	seedUser(t, st, "alice")
	seedUser(t, st, "bob")

	users, err = st.ListUsers(ctx)
	require.NoError(t, err)

	var names []string
	for _, u := range users {
		names = append(names, u.Username)
	}
	assert.ElementsMatch(t, []string{"alice", "bob"}, names)
}

func TestCreateAndGetMessage(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	seedUser(t, st, "a")
	seedUser(t, st, "b")

	msg := &store.Message{FromUsername: "a", ToUsername: "b", Body: "hi", SentAt: baseTime}
	require.NoError(t, st.CreateMessage(ctx, msg))
	require.NotZero(t, msg.ID)

	got, err := st.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, got.ID)
	assert.Equal(t, "hi", got.Body)
	assert.True(t, got.SentAt.Equal(baseTime))
	assert.Nil(t, got.ReadAt)
	assert.Equal(t, store.UserSummary{Username: "a", FirstName: "First a", LastName: "Last a", Phone: "+1555a"}, got.FromUser)
	assert.Equal(t, "b", got.ToUser.Username)
}

func TestCreateMessage_UnknownRecipientIsValidation(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	seedUser(t, st, "a")

	err := st.CreateMessage(ctx, &store.Message{FromUsername: "a", ToUsername: "ghost", Body: "hi", SentAt: baseTime})
	require.ErrorIs(t, err, core.ErrValidation)

	out, err := st.ListMessagesFrom(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGetMessage_NotFound(t *testing.T) {
	st := newTestStore(t)

	_, err := st.GetMessage(context.Background(), 404)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestMarkRead(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	seedUser(t, st, "a")
	seedUser(t, st, "b")
	msg := &store.Message{FromUsername: "a", ToUsername: "b", Body: "hi", SentAt: baseTime}
	require.NoError(t, st.CreateMessage(ctx, msg))

	first := baseTime.Add(time.Minute)
	receipt, err := st.MarkRead(ctx, msg.ID, first)
	require.NoError(t, err)
	assert.Equal(t, msg.ID, receipt.ID)
	assert.True(t, receipt.ReadAt.Equal(first))

	_, err = st.MarkRead(ctx, msg.ID, first.Add(time.Minute))
	require.ErrorIs(t, err, core.ErrConflict)

	got, err := st.GetMessage(ctx, msg.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ReadAt)
	assert.True(t, got.ReadAt.Equal(first), "read_at must keep its first value")

	_, err = st.MarkRead(ctx, 999, first)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestMailboxes(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	seedUser(t, st, "a")
	seedUser(t, st, "b")
	seedUser(t, st, "c")

	send := func(from, to, body string, offset time.Duration) int64 {
		m := &store.Message{FromUsername: from, ToUsername: to, Body: body, SentAt: baseTime.Add(offset)}
		require.NoError(t, st.CreateMessage(ctx, m))
		return m.ID
	}
	send("a", "b", "second", 2*time.Second)
	send("a", "c", "first", time.Second)
	send("b", "a", "reply", 3*time.Second)

	out, err := st.ListMessagesFrom(ctx, "a")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].Body)
	assert.Equal(t, "c", out[0].Peer.Username)
	assert.Equal(t, "second", out[1].Body)
	assert.Equal(t, "b", out[1].Peer.Username)

	in, err := st.ListMessagesTo(ctx, "a")
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, "reply", in[0].Body)
	assert.Equal(t, "b", in[0].Peer.Username)
	assert.Equal(t, "First b", in[0].Peer.FirstName)
	assert.Nil(t, in[0].ReadAt)

	cInbox, err := st.ListMessagesTo(ctx, "c")
	require.NoError(t, err)
	require.Len(t, cInbox, 1)

	none, err := st.ListMessagesFrom(ctx, "c")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestWithTx_RollsBackAllWrites(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := st.WithTx(ctx, func(ctx context.Context, q store.Queries) error {
		if err := q.CreateUser(ctx, &store.User{Username: "alice", JoinAt: baseTime}, "hash"); err != nil {
			return err
		}
		if err := q.UpdateLastLogin(ctx, "alice", baseTime); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	exists, err := st.UserExists(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestWithTx_Commits(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	err := st.WithTx(ctx, func(ctx context.Context, q store.Queries) error {
		if err := q.CreateUser(ctx, &store.User{Username: "alice", JoinAt: baseTime}, "hash"); err != nil {
			return err
		}
		return q.UpdateLastLogin(ctx, "alice", baseTime)
	})
	require.NoError(t, err)

	got, err := st.GetUser(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
}

func TestPing(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Ping(context.Background()))
}

func TestOpen_UnsupportedDialect(t *testing.T) {
	_, err := Open(context.Background(), Dialect("oracle"), "x")
	require.Error(t, err)
}
