package businessflow

import (
	"context"
	"fmt"

	"github.com/meidesaqua/meidesaqua-api/models"
	"github.com/meidesaqua/meidesaqua-api/repository"
)

// reconcilePlan describes how the portfolio image set changes: which rows to
// remove, which rows to insert, and which files become orphaned. File
// deletions are executed after commit, row changes inside the transaction.
type reconcilePlan struct {
	replaceAll    bool
	deleteURLs    []string
	insertURLs    []string
	filesToDelete []string
}

func (p reconcilePlan) empty() bool {
	return !p.replaceAll && len(p.deleteURLs) == 0 && len(p.insertURLs) == 0 && len(p.filesToDelete) == 0
}

// planImageReconciliation computes the portfolio change set.
//
// A non-empty proposed list replaces the whole set: every existing row is
// dropped and the proposed URLs, minus the exclusions, are inserted. A file
// is only deleted when it does not survive into the final set, so an image
// kept across the replacement is never unlinked. With no proposed list, a
// non-empty exclusion list selectively deletes matching existing images.
func planImageReconciliation(existing, proposed, exclusions []string) reconcilePlan {
	excluded := make(map[string]bool, len(exclusions))
	for _, url := range exclusions {
		excluded[url] = true
	}

	if len(proposed) > 0 {
		final := make([]string, 0, len(proposed))
		finalSet := make(map[string]bool, len(proposed))
		for _, url := range proposed {
			if excluded[url] || finalSet[url] {
				continue
			}
			final = append(final, url)
			finalSet[url] = true
		}

		var files []string
		seen := make(map[string]bool)
		for _, url := range append(append([]string{}, existing...), proposed...) {
			if finalSet[url] || seen[url] {
				continue
			}
			seen[url] = true
			files = append(files, url)
		}

		return reconcilePlan{
			replaceAll:    true,
			insertURLs:    final,
			filesToDelete: files,
		}
	}

	if len(exclusions) > 0 {
		var toDelete []string
		for _, url := range existing {
			if excluded[url] {
				toDelete = append(toDelete, url)
			}
		}
		return reconcilePlan{
			deleteURLs:    toDelete,
			filesToDelete: toDelete,
		}
	}

	return reconcilePlan{}
}

// applyImagePlan executes the row changes of a plan inside the current
// transaction and queues the orphaned file deletions for after commit.
func applyImagePlan(ctx context.Context, imageRepo repository.EstablishmentImageRepository, storage fileDeleter, establishmentID uint, plan reconcilePlan, queue *sideEffectQueue) error {
	if plan.empty() {
		return nil
	}

	if plan.replaceAll {
		if err := imageRepo.DeleteByEstablishment(ctx, establishmentID); err != nil {
			return fmt.Errorf("failed to clear portfolio: %w", err)
		}
		rows := make([]*models.EstablishmentImage, 0, len(plan.insertURLs))
		for _, url := range plan.insertURLs {
			rows = append(rows, &models.EstablishmentImage{
				EstablishmentID: establishmentID,
				ImageURL:        url,
			})
		}
		if err := imageRepo.SaveBatch(ctx, rows); err != nil {
			return fmt.Errorf("failed to insert portfolio: %w", err)
		}
	} else if len(plan.deleteURLs) > 0 {
		if err := imageRepo.DeleteByURLs(ctx, establishmentID, plan.deleteURLs); err != nil {
			return fmt.Errorf("failed to delete portfolio images: %w", err)
		}
	}

	for _, url := range plan.filesToDelete {
		fileURL := url
		queue.add("delete image file "+fileURL, func() error {
			return storage.DeleteFile(fileURL)
		})
	}

	return nil
}

// fileDeleter is the slice of FileStorage the reconciler needs.
type fileDeleter interface {
	DeleteFile(url string) error
}
