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

// countingCache tracks invalidations so tests can assert that request flows
// drop the public listing snapshot after commit.
type countingCache struct {
	invalidations int
}

func (c *countingCache) GetActiveListings(ctx context.Context) ([]dto.EstablishmentDTO, bool) {
	return nil, false
}

func (c *countingCache) SetActiveListings(ctx context.Context, listings []dto.EstablishmentDTO) error {
	return nil
}

func (c *countingCache) InvalidateActiveListings(ctx context.Context) error {
	c.invalidations++
	return nil
}

func (c *countingCache) GetStatsSnapshot(ctx context.Context) (*dto.DashboardStats, bool) {
	return nil, false
}

func (c *countingCache) SetStatsSnapshot(ctx context.Context, stats *dto.DashboardStats) error {
	return nil
}

func TestEstablishmentFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		estRepo := repository.NewEstablishmentRepository(testDB.DB)
		imageRepo := repository.NewEstablishmentImageRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)

		root := t.TempDir()
		storage, err := services.NewLocalFileStorage(root)
		require.NoError(t, err)

		cache := &countingCache{}
		flow := businessflow.NewEstablishmentFlow(testDB.DB, estRepo, imageRepo, auditRepo, storage, cache)
		metadata := businessflow.NewClientMetadata("127.0.0.1", "establishment-test")
		ctx := context.Background()

		registerReq := func(cnpj, email string) *dto.RegisterEstablishmentRequest {
			return &dto.RegisterEstablishmentRequest{
				TradeName:    "Doceria da Ana",
				CNPJ:         cnpj,
				Category:     "Alimentação",
				OwnerName:    "Ana Souza",
				Email:        email,
				ContactPhone: "(22) 99999-0000",
				Description:  "Doces artesanais",
			}
		}

		t.Run("RegisterCreatesPendingListing", func(t *testing.T) {
			staged, err := storage.Stage(strings.NewReader("logo"), "logo.png")
			require.NoError(t, err)
			stagedImg, err := storage.Stage(strings.NewReader("img"), "1.jpg")
			require.NoError(t, err)

			result, err := flow.Register(ctx, registerReq("11.111.111/0001-11", "ana@example.com"), businessflow.StagedUploads{
				Logo:   staged,
				Images: []string{stagedImg},
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, models.StatusPendingApproval, result.Status)
			assert.False(t, result.Active)
			require.NotNil(t, result.LogoURL)
			assert.True(t, strings.HasPrefix(*result.LogoURL, "uploads/alimenta__o/doceria_da_ana/"))
			require.Len(t, result.ImageURLs, 1)
			assert.True(t, fileExists(root, *result.LogoURL))
			assert.True(t, fileExists(root, result.ImageURLs[0]))

			logs, err := auditRepo.ByFilter(ctx, models.AuditLogFilter{
				EstablishmentID: &result.ID,
				Action:          utils.ToPtr(models.AuditActionEstablishmentRegistered),
			}, "", 0, 0)
			require.NoError(t, err)
			assert.Len(t, logs, 1)
		})

		t.Run("RegisterRejectsDuplicateCNPJ", func(t *testing.T) {
			_, err := flow.Register(ctx, registerReq("11.111.111/0001-11", "outra@example.com"), businessflow.StagedUploads{}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsCNPJAlreadyExists(err))
		})

		t.Run("RegisterRejectsDuplicateEmail", func(t *testing.T) {
			_, err := flow.Register(ctx, registerReq("22.222.222/0001-22", "ana@example.com"), businessflow.StagedUploads{}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsEmailAlreadyExists(err))
		})

		t.Run("RequestUpdateStagesDiff", func(t *testing.T) {
			est, err := fixtures.CreateTestEstablishment(models.StatusActive)
			require.NoError(t, err)

			staged, err := storage.Stage(strings.NewReader("new logo"), "logo.png")
			require.NoError(t, err)

			req := &dto.UpdateEstablishmentRequest{
				CNPJ:        est.CNPJ,
				Description: utils.ToPtr("Nova descrição"),
			}
			result, err := flow.RequestUpdate(ctx, req, businessflow.StagedUploads{Logo: staged}, metadata)
			require.NoError(t, err)
			assert.Equal(t, models.StatusPendingUpdate, result.Status)
			assert.True(t, result.HasPendingChanges)

			reloaded, err := estRepo.ByID(ctx, est.ID)
			require.NoError(t, err)
			require.NotNil(t, reloaded.PendingChanges)
			require.NotNil(t, reloaded.PendingChanges.Description)
			assert.Equal(t, "Nova descrição", *reloaded.PendingChanges.Description)
			require.NotNil(t, reloaded.PendingChanges.Logo)
			assert.True(t, fileExists(root, *reloaded.PendingChanges.Logo))
			// The live record is untouched until approval
			assert.NotEqual(t, "Nova descrição", reloaded.Description)
		})

		t.Run("RequestUpdateRejectsPendingListing", func(t *testing.T) {
			est, err := fixtures.CreateTestEstablishment(models.StatusPendingUpdate)
			require.NoError(t, err)

			req := &dto.UpdateEstablishmentRequest{CNPJ: est.CNPJ}
			_, err = flow.RequestUpdate(ctx, req, businessflow.StagedUploads{}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsRequestAlreadyPending(err))
		})

		t.Run("RequestDeletionChecksOwnership", func(t *testing.T) {
			est, err := fixtures.CreateTestEstablishment(models.StatusActive)
			require.NoError(t, err)

			err = flow.RequestDeletion(ctx, &dto.DeletionRequest{
				CNPJ:  est.CNPJ,
				Email: "intruso@example.com",
			}, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsOwnershipMismatch(err))

			// Case-insensitive match on the registered email succeeds
			err = flow.RequestDeletion(ctx, &dto.DeletionRequest{
				CNPJ:  est.CNPJ,
				Email: strings.ToUpper(est.Email),
			}, metadata)
			require.NoError(t, err)

			reloaded, err := estRepo.ByID(ctx, est.ID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusPendingDeletion, reloaded.Status)
			// The listing stays publicly visible while the request is reviewed
			assert.True(t, reloaded.Active)
		})

		t.Run("RequestsInvalidateTheListingCache", func(t *testing.T) {
			est, err := fixtures.CreateTestEstablishment(models.StatusActive)
			require.NoError(t, err)

			before := cache.invalidations
			_, err = flow.RequestUpdate(ctx, &dto.UpdateEstablishmentRequest{
				CNPJ:        est.CNPJ,
				Description: utils.ToPtr("Nova fase"),
			}, businessflow.StagedUploads{}, metadata)
			require.NoError(t, err)
			assert.Equal(t, before+1, cache.invalidations)

			other, err := fixtures.CreateTestEstablishment(models.StatusActive)
			require.NoError(t, err)
			err = flow.RequestDeletion(ctx, &dto.DeletionRequest{
				CNPJ:  other.CNPJ,
				Email: other.Email,
			}, metadata)
			require.NoError(t, err)
			assert.Equal(t, before+2, cache.invalidations)
		})

		t.Run("GetByIDHidesInactiveListings", func(t *testing.T) {
			est, err := fixtures.CreateTestEstablishment(models.StatusPendingApproval)
			require.NoError(t, err)

			_, err = flow.GetByID(ctx, est.ID)
			require.Error(t, err)
			assert.True(t, businessflow.IsEstablishmentNotFound(err))
		})

		t.Run("ListActiveFiltersByFlag", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			_, err := fixtures.CreateTestEstablishment(models.StatusActive)
			require.NoError(t, err)
			_, err = fixtures.CreateTestEstablishment(models.StatusPendingApproval)
			require.NoError(t, err)
			// A listing awaiting moderation of an update or deletion request
			// stays publicly visible
			pendingUpdate, err := fixtures.CreateTestEstablishment(models.StatusPendingUpdate)
			require.NoError(t, err)
			_, err = fixtures.CreateTestEstablishment(models.StatusPendingDeletion)
			require.NoError(t, err)

			active, err := flow.ListActive(ctx)
			require.NoError(t, err)
			require.Len(t, active, 3)
			for _, listing := range active {
				assert.True(t, listing.Active)
			}

			found := false
			for _, listing := range active {
				if listing.ID == pendingUpdate.ID {
					found = true
				}
			}
			assert.True(t, found)
		})

		return nil
	})
	require.NoError(t, err)
}
