package tests

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
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

type sentEmail struct {
	To      string
	Subject string
	Body    string
}

// recordingNotifier captures outbound mail for assertions.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentEmail
}

func (n *recordingNotifier) SendEmail(email, subject, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentEmail{To: email, Subject: subject, Body: message})
	return nil
}

func (n *recordingNotifier) last() *sentEmail {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return nil
	}
	return &n.sent[len(n.sent)-1]
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

// uploadFile places a file in the establishment's upload tree and returns
// its stored URL.
func uploadFile(t *testing.T, storage services.FileStorage, category, name, content string) string {
	t.Helper()
	staged, err := storage.Stage(strings.NewReader(content), "img.jpg")
	require.NoError(t, err)
	url, err := storage.Relocate(staged, category, name)
	require.NoError(t, err)
	return url
}

func fileExists(root, url string) bool {
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(url)))
	return err == nil
}

func TestModerationFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		estRepo := repository.NewEstablishmentRepository(testDB.DB)
		imageRepo := repository.NewEstablishmentImageRepository(testDB.DB)
		auditRepo := repository.NewAuditLogRepository(testDB.DB)

		root := t.TempDir()
		storage, err := services.NewLocalFileStorage(root)
		require.NoError(t, err)

		notifier := &recordingNotifier{}

		flow := businessflow.NewModerationFlow(testDB.DB, estRepo, imageRepo, auditRepo, storage, notifier, nil)
		metadata := businessflow.NewClientMetadata("127.0.0.1", "moderation-test")
		ctx := context.Background()

		t.Run("ApproveSignupActivates", func(t *testing.T) {
			est, err := fixtures.CreateTestEstablishment(models.StatusPendingApproval)
			require.NoError(t, err)

			result, err := flow.Approve(ctx, est.ID, metadata)
			require.NoError(t, err)
			assert.Equal(t, models.StatusActive, result.Status)

			reloaded, err := estRepo.ByID(ctx, est.ID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusActive, reloaded.Status)
			assert.True(t, reloaded.Active)
			assert.Nil(t, reloaded.PendingChanges)

			mail := notifier.last()
			require.NotNil(t, mail)
			assert.Equal(t, est.Email, mail.To)
			assert.Contains(t, mail.Subject, "Cadastro aprovado")

			logs, err := auditRepo.ByFilter(ctx, models.AuditLogFilter{
				EstablishmentID: &est.ID,
				Action:          utils.ToPtr(models.AuditActionEstablishmentApproved),
			}, "", 0, 0)
			require.NoError(t, err)
			require.Len(t, logs, 1)
			assert.True(t, *logs[0].Success)
		})

		t.Run("ApproveStagedUpdateAppliesDiff", func(t *testing.T) {
			est, err := fixtures.CreateTestEstablishment(models.StatusActive)
			require.NoError(t, err)

			oldLogo := uploadFile(t, storage, est.Category, est.TradeName, "old logo")
			dropped := uploadFile(t, storage, est.Category, est.TradeName, "dropped")
			kept := uploadFile(t, storage, est.Category, est.TradeName, "kept")
			newLogo := uploadFile(t, storage, est.Category, est.TradeName, "new logo")
			added := uploadFile(t, storage, est.Category, est.TradeName, "added")

			require.NoError(t, testDB.DB.Model(est).Updates(map[string]any{
				"status":   models.StatusPendingUpdate,
				"logo_url": oldLogo,
			}).Error)
			for _, url := range []string{dropped, kept} {
				require.NoError(t, testDB.DB.Create(&models.EstablishmentImage{
					EstablishmentID: est.ID, ImageURL: url,
				}).Error)
			}
			pc := &models.PendingChanges{
				TradeName: utils.ToPtr("Doceria Renovada"),
				Logo:      &newLogo,
				Images:    []string{kept, added},
			}
			require.NoError(t, testDB.DB.Model(est).Update("pending_changes", pc).Error)

			result, err := flow.Approve(ctx, est.ID, metadata)
			require.NoError(t, err)
			assert.Equal(t, models.StatusActive, result.Status)

			reloaded, err := estRepo.ByIDWithImages(ctx, est.ID)
			require.NoError(t, err)
			assert.Equal(t, "Doceria Renovada", reloaded.TradeName)
			require.NotNil(t, reloaded.LogoURL)
			assert.Equal(t, newLogo, *reloaded.LogoURL)
			assert.Nil(t, reloaded.PendingChanges)

			var urls []string
			for _, img := range reloaded.Images {
				urls = append(urls, img.ImageURL)
			}
			assert.ElementsMatch(t, []string{kept, added}, urls)

			// Files: survivors stay, replaced ones go
			assert.True(t, fileExists(root, kept))
			assert.True(t, fileExists(root, added))
			assert.True(t, fileExists(root, newLogo))
			assert.False(t, fileExists(root, dropped))
			assert.False(t, fileExists(root, oldLogo))

			mail := notifier.last()
			require.NotNil(t, mail)
			assert.Contains(t, mail.Subject, "Atualização aprovada")
		})

		t.Run("ApproveReplacesPortfolioWithoutResurrectingOldRows", func(t *testing.T) {
			est, err := fixtures.CreateTestEstablishment(models.StatusActive)
			require.NoError(t, err)

			imgA := uploadFile(t, storage, est.Category, est.TradeName, "A")
			imgB := uploadFile(t, storage, est.Category, est.TradeName, "B")
			imgC := uploadFile(t, storage, est.Category, est.TradeName, "C")
			for _, url := range []string{imgA, imgB} {
				require.NoError(t, testDB.DB.Create(&models.EstablishmentImage{
					EstablishmentID: est.ID, ImageURL: url,
				}).Error)
			}
			require.NoError(t, testDB.DB.Model(est).Updates(map[string]any{
				"status":          models.StatusPendingUpdate,
				"pending_changes": &models.PendingChanges{Images: []string{imgB, imgC}},
			}).Error)

			_, err = flow.Approve(ctx, est.ID, metadata)
			require.NoError(t, err)

			// The image rows deleted during reconciliation must stay deleted
			// when the parent record itself is persisted afterwards.
			rows, err := imageRepo.ListByEstablishment(ctx, est.ID)
			require.NoError(t, err)
			require.Len(t, rows, 2)
			var urls []string
			for _, row := range rows {
				urls = append(urls, row.ImageURL)
			}
			assert.ElementsMatch(t, []string{imgB, imgC}, urls)
			assert.False(t, fileExists(root, imgA))
		})

		t.Run("ApproveStagedDeletionRemovesEverything", func(t *testing.T) {
			est, err := fixtures.CreateTestEstablishment(models.StatusPendingDeletion)
			require.NoError(t, err)
			img := uploadFile(t, storage, est.Category, est.TradeName, "portfolio")
			require.NoError(t, testDB.DB.Create(&models.EstablishmentImage{
				EstablishmentID: est.ID, ImageURL: img,
			}).Error)

			_, err = flow.Approve(ctx, est.ID, metadata)
			require.NoError(t, err)

			reloaded, err := estRepo.ByID(ctx, est.ID)
			require.NoError(t, err)
			assert.Nil(t, reloaded)
			assert.False(t, fileExists(root, img))

			mail := notifier.last()
			require.NotNil(t, mail)
			assert.Contains(t, mail.Subject, "Estabelecimento removido")
		})

		t.Run("ApproveActiveIsNoOp", func(t *testing.T) {
			est, err := fixtures.CreateTestEstablishment(models.StatusActive)
			require.NoError(t, err)
			before := notifier.count()

			result, err := flow.Approve(ctx, est.ID, metadata)
			require.NoError(t, err)
			assert.Equal(t, "Nothing to approve", result.Message)
			assert.Equal(t, before, notifier.count())
		})

		t.Run("ApproveMissingEstablishment", func(t *testing.T) {
			_, err := flow.Approve(ctx, 999999, metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsEstablishmentNotFound(err))
		})

		t.Run("RejectSignupDeletesRecord", func(t *testing.T) {
			est, err := fixtures.CreateTestEstablishment(models.StatusPendingApproval)
			require.NoError(t, err)
			logo := uploadFile(t, storage, est.Category, est.TradeName, "logo")
			require.NoError(t, testDB.DB.Model(est).Update("logo_url", logo).Error)

			_, err = flow.Reject(ctx, est.ID, "dados incompletos", metadata)
			require.NoError(t, err)

			reloaded, err := estRepo.ByID(ctx, est.ID)
			require.NoError(t, err)
			assert.Nil(t, reloaded)
			assert.False(t, fileExists(root, logo))

			mail := notifier.last()
			require.NotNil(t, mail)
			assert.Contains(t, mail.Subject, "Cadastro não aprovado")
			assert.Contains(t, mail.Body, "dados incompletos")
		})

		t.Run("RejectStagedUpdateKeepsListingActive", func(t *testing.T) {
			est, err := fixtures.CreateTestEstablishment(models.StatusActive)
			require.NoError(t, err)

			current := uploadFile(t, storage, est.Category, est.TradeName, "current")
			proposed := uploadFile(t, storage, est.Category, est.TradeName, "proposed")
			require.NoError(t, testDB.DB.Create(&models.EstablishmentImage{
				EstablishmentID: est.ID, ImageURL: current,
			}).Error)
			pc := &models.PendingChanges{
				TradeName: utils.ToPtr("Nome Recusado"),
				Images:    []string{proposed},
			}
			require.NoError(t, testDB.DB.Model(est).Updates(map[string]any{
				"status":          models.StatusPendingUpdate,
				"pending_changes": pc,
			}).Error)

			originalName := est.TradeName
			result, err := flow.Reject(ctx, est.ID, "", metadata)
			require.NoError(t, err)
			assert.Equal(t, models.StatusActive, result.Status)

			reloaded, err := estRepo.ByIDWithImages(ctx, est.ID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusActive, reloaded.Status)
			assert.True(t, reloaded.Active)
			assert.Equal(t, originalName, reloaded.TradeName)
			assert.Nil(t, reloaded.PendingChanges)
			require.Len(t, reloaded.Images, 1)
			assert.Equal(t, current, reloaded.Images[0].ImageURL)

			// The discarded proposal file is gone, the live one stays
			assert.False(t, fileExists(root, proposed))
			assert.True(t, fileExists(root, current))

			mail := notifier.last()
			require.NotNil(t, mail)
			assert.Contains(t, mail.Subject, "Atualização não aprovada")
		})

		t.Run("RejectStagedDeletionKeepsListing", func(t *testing.T) {
			est, err := fixtures.CreateTestEstablishment(models.StatusPendingDeletion)
			require.NoError(t, err)

			_, err = flow.Reject(ctx, est.ID, "pedido inválido", metadata)
			require.NoError(t, err)

			reloaded, err := estRepo.ByID(ctx, est.ID)
			require.NoError(t, err)
			assert.Equal(t, models.StatusActive, reloaded.Status)

			mail := notifier.last()
			require.NotNil(t, mail)
			assert.Contains(t, mail.Subject, "Exclusão não aprovada")
			assert.Contains(t, mail.Body, "pedido inválido")
		})

		t.Run("RejectActiveIsInvalid", func(t *testing.T) {
			est, err := fixtures.CreateTestEstablishment(models.StatusActive)
			require.NoError(t, err)

			_, err = flow.Reject(ctx, est.ID, "", metadata)
			require.Error(t, err)
			assert.True(t, businessflow.IsNotPending(err))
		})

		t.Run("EditAndApproveOverridesStagedValues", func(t *testing.T) {
			est, err := fixtures.CreateTestEstablishment(models.StatusPendingUpdate)
			require.NoError(t, err)
			pc := &models.PendingChanges{
				TradeName:   utils.ToPtr("Nome do Dono"),
				Description: utils.ToPtr("Descrição do dono"),
			}
			require.NoError(t, testDB.DB.Model(est).Update("pending_changes", pc).Error)

			req := &dto.EstablishmentEditRequest{
				TradeName: utils.ToPtr("Nome do Admin"),
			}
			result, err := flow.EditAndApprove(ctx, est.ID, req, metadata)
			require.NoError(t, err)
			assert.Equal(t, models.StatusActive, result.Status)

			reloaded, err := estRepo.ByID(ctx, est.ID)
			require.NoError(t, err)
			// Admin override wins over staged value, untouched staged fields apply
			assert.Equal(t, "Nome do Admin", reloaded.TradeName)
			assert.Equal(t, "Descrição do dono", reloaded.Description)
			assert.Nil(t, reloaded.PendingChanges)
		})

		t.Run("EditAndApproveLogoSetRequiresURL", func(t *testing.T) {
			est, err := fixtures.CreateTestEstablishment(models.StatusPendingApproval)
			require.NoError(t, err)

			req := &dto.EstablishmentEditRequest{LogoAction: dto.LogoActionSet}
			_, err = flow.EditAndApprove(ctx, est.ID, req, metadata)
			require.Error(t, err)
			businessErr, ok := err.(*businessflow.BusinessError)
			require.True(t, ok)
			assert.Equal(t, "VALIDATION_ERROR", businessErr.Code)
		})

		t.Run("EditAndApproveLogoClearDeletesFile", func(t *testing.T) {
			est, err := fixtures.CreateTestEstablishment(models.StatusPendingApproval)
			require.NoError(t, err)
			logo := uploadFile(t, storage, est.Category, est.TradeName, "logo to clear")
			require.NoError(t, testDB.DB.Model(est).Update("logo_url", logo).Error)

			req := &dto.EstablishmentEditRequest{LogoAction: dto.LogoActionClear}
			_, err = flow.EditAndApprove(ctx, est.ID, req, metadata)
			require.NoError(t, err)

			reloaded, err := estRepo.ByID(ctx, est.ID)
			require.NoError(t, err)
			assert.Nil(t, reloaded.LogoURL)
			assert.False(t, fileExists(root, logo))
		})

		t.Run("DirectUpdateOnActiveIsSilent", func(t *testing.T) {
			est, err := fixtures.CreateTestEstablishment(models.StatusActive)
			require.NoError(t, err)
			before := notifier.count()

			req := &dto.EstablishmentEditRequest{
				Description: utils.ToPtr("Ajuste administrativo"),
			}
			result, err := flow.AdminDirectUpdate(ctx, est.ID, req, metadata)
			require.NoError(t, err)
			assert.Equal(t, models.StatusActive, result.Status)

			reloaded, err := estRepo.ByID(ctx, est.ID)
			require.NoError(t, err)
			assert.Equal(t, "Ajuste administrativo", reloaded.Description)
			// No notification on a silent edit
			assert.Equal(t, before, notifier.count())
		})

		t.Run("DirectUpdateOnPendingActivatesAndNotifies", func(t *testing.T) {
			est, err := fixtures.CreateTestEstablishment(models.StatusPendingApproval)
			require.NoError(t, err)
			before := notifier.count()

			req := &dto.EstablishmentEditRequest{
				Description: utils.ToPtr("Aprovado com ajuste"),
			}
			result, err := flow.AdminDirectUpdate(ctx, est.ID, req, metadata)
			require.NoError(t, err)
			assert.Equal(t, models.StatusActive, result.Status)

			reloaded, err := estRepo.ByID(ctx, est.ID)
			require.NoError(t, err)
			assert.True(t, reloaded.Active)
			assert.Equal(t, before+1, notifier.count())
			assert.Contains(t, notifier.last().Subject, "Cadastro aprovado")
		})

		t.Run("ListPendingReturnsAllPendingStates", func(t *testing.T) {
			require.NoError(t, testDB.ClearAllTables())
			_, err := fixtures.CreateTestEstablishment(models.StatusPendingApproval)
			require.NoError(t, err)
			_, err = fixtures.CreateTestEstablishment(models.StatusPendingUpdate)
			require.NoError(t, err)
			_, err = fixtures.CreateTestEstablishment(models.StatusPendingDeletion)
			require.NoError(t, err)
			_, err = fixtures.CreateTestEstablishment(models.StatusActive)
			require.NoError(t, err)

			pending, err := flow.ListPending(ctx)
			require.NoError(t, err)
			assert.Len(t, pending, 3)
		})

		return nil
	})
	require.NoError(t, err)
}
