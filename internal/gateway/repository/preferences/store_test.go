package preferences

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStoreSets(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, id := range []int{30, 10, 20, 10} {
				require.NoError(t, store.AddToSet(ctx, "alice", SetSaved, id))
			}
			require.NoError(t, store.AddToSet(ctx, "alice", SetHidden, 99))
			require.NoError(t, store.AddToSet(ctx, "bob", SetSaved, 1))

			saved, err := store.Set(ctx, "alice", SetSaved)
			require.NoError(t, err)
			assert.Equal(t, []int{30, 10, 20}, saved, "insertion order, duplicates ignored")

			require.NoError(t, store.RemoveFromSet(ctx, "alice", SetSaved, 10))
			require.NoError(t, store.RemoveFromSet(ctx, "alice", SetSaved, 12345))
			saved, err = store.Set(ctx, "alice", SetSaved)
			require.NoError(t, err)
			assert.Equal(t, []int{30, 20}, saved)

			hidden, err := store.Set(ctx, "alice", SetHidden)
			require.NoError(t, err)
			assert.Equal(t, []int{99}, hidden)

			empty, err := store.Set(ctx, "carol", SetSaved)
			require.NoError(t, err)
			assert.NotNil(t, empty)
			assert.Empty(t, empty)

			assert.ErrorIs(t, store.AddToSet(ctx, "alice", SetKind("starred"), 1), ErrInvalidSet)
		})
	}
}

func TestStoreReadingLists(t *testing.T) {
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
			require.NoError(t, store.CreateList(ctx, ReadingList{ID: "l1", Owner: "alice", Name: "Rust", CreatedAt: created}))
			require.NoError(t, store.CreateList(ctx, ReadingList{ID: "l2", Owner: "alice", Name: "Go", CreatedAt: created.Add(time.Hour)}))
			require.NoError(t, store.CreateList(ctx, ReadingList{ID: "l3", Owner: "bob", Name: "Other", CreatedAt: created}))

			lists, err := store.Lists(ctx, "alice")
			require.NoError(t, err)
			require.Len(t, lists, 2)
			assert.Equal(t, "l1", lists[0].ID)
			assert.Equal(t, "Go", lists[1].Name)
			assert.True(t, created.Equal(lists[0].CreatedAt))

			for _, id := range []int{5, 3, 5, 9} {
				require.NoError(t, store.AddToList(ctx, "alice", "l1", id))
			}
			items, err := store.ListItems(ctx, "alice", "l1")
			require.NoError(t, err)
			assert.Equal(t, []int{5, 3, 9}, items)

			require.NoError(t, store.RemoveFromList(ctx, "alice", "l1", 3))
			items, err = store.ListItems(ctx, "alice", "l1")
			require.NoError(t, err)
			assert.Equal(t, []int{5, 9}, items)

			assert.ErrorIs(t, store.AddToList(ctx, "bob", "l1", 1), ErrListNotFound, "lists are owner scoped")
			_, err = store.GetList(ctx, "alice", "l3")
			assert.ErrorIs(t, err, ErrListNotFound)

			require.NoError(t, store.DeleteList(ctx, "alice", "l1"))
			assert.ErrorIs(t, store.DeleteList(ctx, "alice", "l1"), ErrListNotFound)
			_, err = store.ListItems(ctx, "alice", "l1")
			assert.ErrorIs(t, err, ErrListNotFound)
		})
	}
}
