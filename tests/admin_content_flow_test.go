package tests

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meidesaqua/meidesaqua-api/app/dto"
	"github.com/meidesaqua/meidesaqua-api/app/services"
	businessflow "github.com/meidesaqua/meidesaqua-api/business_flow"
	"github.com/meidesaqua/meidesaqua-api/models"
	"github.com/meidesaqua/meidesaqua-api/repository"
	testingutil "github.com/meidesaqua/meidesaqua-api/testing"
	"github.com/meidesaqua/meidesaqua-api/utils"
)

func TestCourseFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		courseRepo := repository.NewCourseRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)

		root := t.TempDir()
		storage, err := services.NewLocalFileStorage(root)
		require.NoError(t, err)

		flow := businessflow.NewCourseFlow(testDB.DB, courseRepo, auditRepo, storage)
		metadata := businessflow.NewClientMetadata("127.0.0.1", "course-test")
		ctx := context.Background()

		var courseID uint

		t.Run("CreateStoresTheStagedImage", func(t *testing.T) {
			staged, err := storage.Stage(strings.NewReader("capa"), "capa.png")
			require.NoError(t, err)

			course, err := flow.Create(ctx, &dto.CreateCourseRequest{
				Name:        "Gestão Financeira",
				Institution: "SEBRAE",
				Description: "Fluxo de caixa para MEI",
				Modality:    "online",
			}, staged, metadata)
			require.NoError(t, err)
			courseID = course.ID

			require.NotNil(t, course.ImageURL)
			assert.True(t, strings.HasPrefix(*course.ImageURL, "uploads/cursos/gest_o_financeira/"))
			assert.True(t, fileExists(root, *course.ImageURL))
		})

		t.Run("UpdateReplacesFieldsAndImage", func(t *testing.T) {
			current, err := courseRepo.ByID(ctx, courseID)
			require.NoError(t, err)
			oldImage := *current.ImageURL

			staged, err := storage.Stage(strings.NewReader("nova capa"), "capa.jpg")
			require.NoError(t, err)

			course, err := flow.Update(ctx, courseID, &dto.UpdateCourseRequest{
				Description: utils.ToPtr("Atualizado"),
			}, staged, metadata)
			require.NoError(t, err)
			assert.Equal(t, "Atualizado", course.Description)
			assert.Equal(t, "Gestão Financeira", course.Name)

			require.NotNil(t, course.ImageURL)
			assert.NotEqual(t, oldImage, *course.ImageURL)
			assert.True(t, fileExists(root, *course.ImageURL))
			assert.False(t, fileExists(root, oldImage))
		})

		t.Run("UpdateMissingCourse", func(t *testing.T) {
			_, err := flow.Update(ctx, 99999, &dto.UpdateCourseRequest{}, "", metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsCourseNotFound(err))
		})

		t.Run("DeleteRemovesRowAndUploadTree", func(t *testing.T) {
			current, err := courseRepo.ByID(ctx, courseID)
			require.NoError(t, err)
			image := *current.ImageURL

			require.NoError(t, flow.Delete(ctx, courseID, metadata))

			gone, err := courseRepo.ByID(ctx, courseID)
			require.NoError(t, err)
			assert.Nil(t, gone)
			assert.False(t, fileExists(root, image))
		})

		t.Run("ListReturnsRemainingCourses", func(t *testing.T) {
			_, err := flow.Create(ctx, &dto.CreateCourseRequest{
				Name:        "Marketing Digital",
				Institution: "SENAC",
			}, "", metadata)
			require.NoError(t, err)

			courses, err := flow.List(ctx)
			require.NoError(t, err)
			require.Len(t, courses, 1)
			assert.Equal(t, "Marketing Digital", courses[0].Name)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestUserAdminFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		userRepo := repository.NewUserRepository(testDB.DB)
		reviewRepo := repository.NewReviewRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)

		flow := businessflow.NewUserAdminFlow(testDB.DB, userRepo, reviewRepo, auditRepo)
		metadata := businessflow.NewClientMetadata("127.0.0.1", "user-admin-test")
		ctx := context.Background()

		est, err := fixtures.CreateTestEstablishment(models.StatusActive)
		require.NoError(t, err)
		user, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		official, err := fixtures.CreateTestUser()
		require.NoError(t, err)
		review, err := fixtures.CreateTestReview(user.ID, est.ID, 5, "Atendimento ótimo")
		require.NoError(t, err)

		t.Run("ListUsersIncludesReviewCounts", func(t *testing.T) {
			users, err := flow.ListUsers(ctx)
			require.NoError(t, err)
			require.Len(t, users, 2)

			byID := make(map[uint]dto.UserDTO, len(users))
			for _, u := range users {
				byID[u.ID] = u
			}
			assert.Equal(t, 1, byID[user.ID].ReviewCount)
			assert.Equal(t, 0, byID[official.ID].ReviewCount)
		})

		t.Run("GetUserMissing", func(t *testing.T) {
			_, err := flow.GetUser(ctx, 99999)
			require.Error(t, err)
			assert.True(t, businessflow.IsUserNotFound(err))
		})

		t.Run("ReplyThreadsUnderTheReview", func(t *testing.T) {
			reply, err := flow.ReplyToReview(ctx, review.ID, official.ID, &dto.ReviewReplyRequest{
				Comment: "Obrigada pela avaliação!",
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, official.ID, reply.UserID)
			assert.Equal(t, est.ID, reply.EstablishmentID)

			reviews, err := flow.ListEstablishmentReviews(ctx, est.ID)
			require.NoError(t, err)
			require.Len(t, reviews, 1)
			require.Len(t, reviews[0].Replies, 1)
			assert.Equal(t, "Obrigada pela avaliação!", reviews[0].Replies[0].Comment)
		})

		t.Run("ReplyToMissingReview", func(t *testing.T) {
			_, err := flow.ReplyToReview(ctx, 99999, official.ID, &dto.ReviewReplyRequest{
				Comment: "oi",
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsReviewNotFound(err))
		})

		t.Run("DeleteReviewRemovesTheWholeThread", func(t *testing.T) {
			require.NoError(t, flow.DeleteReview(ctx, review.ID, metadata))

			reviews, err := flow.ListEstablishmentReviews(ctx, est.ID)
			require.NoError(t, err)
			assert.Empty(t, reviews)

			count, err := reviewRepo.Count(ctx, models.ReviewFilter{})
			require.NoError(t, err)
			assert.Zero(t, count)

			logs, err := auditRepo.ByFilter(ctx, models.AuditLogFilter{
				Action: utils.ToPtr(models.AuditActionReviewDeleted),
			}, "", 0, 0)
			require.NoError(t, err)
			assert.Len(t, logs, 1)
		})

		t.Run("DeleteMissingReview", func(t *testing.T) {
			err := flow.DeleteReview(ctx, review.ID, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsReviewNotFound(err))
		})

		return nil
	})
	require.NoError(t, err)
}
