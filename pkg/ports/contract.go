package ports

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/studiobridge/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSubmissionStoreContract runs a suite of tests to verify that a SubmissionStore implementation
// adheres to the defined interface contract.
func RunSubmissionStoreContract(t *testing.T, store SubmissionStore) {
	ctx := context.Background()
	studentID := "contract-student-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		sub := &domain.Submission{
			StudentID: studentID,
			TicketID:  "t1",
			Answers:   map[string]any{"q1": "42"},
			Status:    domain.StatusSubmittedToAI,
			Timestamp: time.Now().UTC().Truncate(time.Millisecond),
		}

		require.NoError(t, store.Save(ctx, sub), "Save should not return error")

		loaded, err := store.Load(ctx, studentID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, studentID, loaded.StudentID)
		assert.Equal(t, "t1", loaded.TicketID)
		assert.Equal(t, domain.StatusSubmittedToAI, loaded.Status)
		assert.True(t, sub.Timestamp.Equal(loaded.Timestamp), "timestamp should survive a round trip")

		answers, ok := loaded.Answers.(map[string]any)
		require.True(t, ok, "answers should decode to a map")
		assert.Equal(t, "42", answers["q1"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+studentID)
		assert.ErrorIs(t, err, domain.ErrSubmissionNotFound)
	})

	t.Run("Overwrite", func(t *testing.T) {
		id := studentID + "-overwrite"
		require.NoError(t, store.Save(ctx, &domain.Submission{
			StudentID: id, TicketID: "t1", Answers: map[string]any{"q1": "a"},
			Status: domain.StatusSubmittedToAI, Timestamp: time.Now(),
		}))
		require.NoError(t, store.Save(ctx, &domain.Submission{
			StudentID: id, TicketID: "t2", Answers: map[string]any{"q1": "b"},
			Status: domain.StatusSubmittedToAI, Timestamp: time.Now(),
		}))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "t2", loaded.TicketID)
		assert.Equal(t, "b", loaded.Answers.(map[string]any)["q1"])

		all, err := store.List(ctx)
		require.NoError(t, err)
		count := 0
		for key := range all {
			if key == id {
				count++
			}
		}
		assert.Equal(t, 1, count, "exactly one record per student")
	})

	t.Run("Null Ticket", func(t *testing.T) {
		id := studentID + "-noticket"
		require.NoError(t, store.Save(ctx, &domain.Submission{
			StudentID: id, Status: domain.StatusSubmittedToAI, Timestamp: time.Now(),
		}))
		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, loaded.TicketID)
		assert.Nil(t, loaded.Answers)
	})

	t.Run("Numeric Ticket", func(t *testing.T) {
		id := studentID + "-numticket"
		require.NoError(t, store.Save(ctx, &domain.Submission{
			StudentID: id, TicketID: 7.0, Status: domain.StatusSubmittedToAI, Timestamp: time.Now(),
		}))
		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 7.0, loaded.TicketID, "ticket ids keep their JSON type")
	})

	t.Run("List", func(t *testing.T) {
		id1 := studentID + "-1"
		id2 := studentID + "-2"
		_ = store.Save(ctx, &domain.Submission{StudentID: id1, Status: domain.StatusSubmittedToAI, Timestamp: time.Now()})
		_ = store.Save(ctx, &domain.Submission{StudentID: id2, Status: domain.StatusSubmittedToAI, Timestamp: time.Now()})

		all, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, all, id1)
		assert.Contains(t, all, id2)
		assert.Equal(t, id1, all[id1].StudentID)
	})

	t.Run("Concurrent Saves", func(t *testing.T) {
		id := studentID + "-race"
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = store.Save(ctx, &domain.Submission{StudentID: id, Status: domain.StatusSubmittedToAI, Timestamp: time.Now()})
			}()
		}
		wg.Wait()

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, loaded.StudentID)
	})
}
