package businessflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanImageReconciliation(t *testing.T) {
	t.Run("NoProposalNoExclusionsIsEmpty", func(t *testing.T) {
		plan := planImageReconciliation([]string{"uploads/a/x/1.jpg"}, nil, nil)
		assert.True(t, plan.empty())
	})

	t.Run("ProposalReplacesWholeSet", func(t *testing.T) {
		existing := []string{"uploads/a/x/old1.jpg", "uploads/a/x/old2.jpg"}
		proposed := []string{"uploads/a/x/new1.jpg", "uploads/a/x/new2.jpg"}

		plan := planImageReconciliation(existing, proposed, nil)
		require.True(t, plan.replaceAll)
		assert.Equal(t, proposed, plan.insertURLs)
		assert.ElementsMatch(t, existing, plan.filesToDelete)
	})

	t.Run("SurvivorsKeepTheirFiles", func(t *testing.T) {
		existing := []string{"uploads/a/x/keep.jpg", "uploads/a/x/drop.jpg"}
		proposed := []string{"uploads/a/x/keep.jpg", "uploads/a/x/new.jpg"}

		plan := planImageReconciliation(existing, proposed, nil)
		require.True(t, plan.replaceAll)
		assert.Equal(t, proposed, plan.insertURLs)
		// keep.jpg survives into the final set, only drop.jpg is orphaned
		assert.Equal(t, []string{"uploads/a/x/drop.jpg"}, plan.filesToDelete)
	})

	t.Run("ExclusionsFilterTheProposal", func(t *testing.T) {
		existing := []string{"uploads/a/x/old.jpg"}
		proposed := []string{"uploads/a/x/new1.jpg", "uploads/a/x/new2.jpg"}
		exclusions := []string{"uploads/a/x/new2.jpg"}

		plan := planImageReconciliation(existing, proposed, exclusions)
		require.True(t, plan.replaceAll)
		assert.Equal(t, []string{"uploads/a/x/new1.jpg"}, plan.insertURLs)
		// the excluded proposal and the replaced original are both orphaned
		assert.ElementsMatch(t, []string{"uploads/a/x/old.jpg", "uploads/a/x/new2.jpg"}, plan.filesToDelete)
	})

	t.Run("DuplicateProposalsCollapse", func(t *testing.T) {
		proposed := []string{"uploads/a/x/new.jpg", "uploads/a/x/new.jpg"}

		plan := planImageReconciliation(nil, proposed, nil)
		require.True(t, plan.replaceAll)
		assert.Equal(t, []string{"uploads/a/x/new.jpg"}, plan.insertURLs)
		assert.Empty(t, plan.filesToDelete)
	})

	t.Run("ExclusionsAloneDeleteSelectively", func(t *testing.T) {
		existing := []string{"uploads/a/x/1.jpg", "uploads/a/x/2.jpg", "uploads/a/x/3.jpg"}
		exclusions := []string{"uploads/a/x/2.jpg", "uploads/a/x/not-there.jpg"}

		plan := planImageReconciliation(existing, nil, exclusions)
		assert.False(t, plan.replaceAll)
		assert.Equal(t, []string{"uploads/a/x/2.jpg"}, plan.deleteURLs)
		assert.Equal(t, []string{"uploads/a/x/2.jpg"}, plan.filesToDelete)
		assert.Empty(t, plan.insertURLs)
	})
}

func TestSideEffectQueue(t *testing.T) {
	t.Run("DrainRunsInOrder", func(t *testing.T) {
		queue := &sideEffectQueue{}
		var order []string
		queue.add("first", func() error { order = append(order, "first"); return nil })
		queue.add("second", func() error { order = append(order, "second"); return nil })

		queue.drain(nil)
		assert.Equal(t, []string{"first", "second"}, order)
		assert.Empty(t, queue.effects)
	})

	t.Run("FailuresAreReportedNotPropagated", func(t *testing.T) {
		queue := &sideEffectQueue{}
		queue.add("ok", func() error { return nil })
		queue.add("broken", func() error { return assert.AnError })
		queue.add("after", func() error { return nil })

		var failed []string
		queue.drain(func(name string, err error) {
			failed = append(failed, name)
			assert.ErrorIs(t, err, assert.AnError)
		})
		assert.Equal(t, []string{"broken"}, failed)
	})
}
