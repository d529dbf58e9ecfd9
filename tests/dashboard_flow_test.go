package tests

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	businessflow "github.com/meidesaqua/meidesaqua-api/business_flow"
	"github.com/meidesaqua/meidesaqua-api/models"
	"github.com/meidesaqua/meidesaqua-api/repository"
	testingutil "github.com/meidesaqua/meidesaqua-api/testing"
)

func TestViewCounterFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		counterRepo := repository.NewViewCounterRepository(testDB.DB)
		flow := businessflow.NewViewCounterFlow(counterRepo)
		ctx := context.Background()

		t.Run("RecordHitNormalizesAndUpserts", func(t *testing.T) {
			identifier, err := flow.RecordHit(ctx, "Alimentação")
			require.NoError(t, err)
			assert.Equal(t, "CAT_ALIMENTACAO", identifier)

			// A second hit on the same page increments the same row
			_, err = flow.RecordHit(ctx, "alimentação")
			require.NoError(t, err)

			counter, err := counterRepo.ByIdentifier(ctx, "CAT_ALIMENTACAO")
			require.NoError(t, err)
			require.NotNil(t, counter)
			assert.Equal(t, int64(2), counter.Count)
		})

		t.Run("RecordHitKeepsKnownPageLiterals", func(t *testing.T) {
			identifier, err := flow.RecordHit(ctx, "home")
			require.NoError(t, err)
			assert.Equal(t, "HOME", identifier)
		})

		t.Run("BlankIdentifierIsRejected", func(t *testing.T) {
			_, err := flow.RecordHit(ctx, "   ")
			require.Error(t, err)
			assert.True(t, businessflow.IsIdentifierRequired(err))
		})

		t.Run("ListCountersReturnsAllRows", func(t *testing.T) {
			counters, err := flow.ListCounters(ctx)
			require.NoError(t, err)
			assert.Len(t, counters, 2)
		})

		return nil
	})
	require.NoError(t, err)
}

func TestDashboardFlow(t *testing.T) {
	err := testingutil.TestWithDB(func(testDB *testingutil.TestDB) error {
		fixtures := testingutil.NewTestFixtures(testDB)

		estRepo := repository.NewEstablishmentRepository(testDB.DB)
		courseRepo := repository.NewCourseRepository(testDB.DB)
		userRepo := repository.NewUserRepository(testDB.DB)
		counterRepo := repository.NewViewCounterRepository(testDB.DB)

		flow := businessflow.NewDashboardFlow(estRepo, courseRepo, userRepo, counterRepo, nil)
		ctx := context.Background()

		_, err := fixtures.CreateTestEstablishment(models.StatusActive)
		require.NoError(t, err)
		_, err = fixtures.CreateTestEstablishment(models.StatusActive)
		require.NoError(t, err)
		_, err = fixtures.CreateTestEstablishment(models.StatusPendingApproval)
		require.NoError(t, err)
		_, err = fixtures.CreateTestEstablishment(models.StatusPendingDeletion)
		require.NoError(t, err)
		_, err = fixtures.CreateTestCourse("Gestão Financeira")
		require.NoError(t, err)
		_, err = fixtures.CreateTestUser()
		require.NoError(t, err)

		require.NoError(t, counterRepo.IncrementHit(ctx, "HOME"))
		require.NoError(t, counterRepo.IncrementHit(ctx, "HOME"))
		require.NoError(t, counterRepo.IncrementHit(ctx, "CAT_ALIMENTACAO"))
		require.NoError(t, counterRepo.IncrementHit(ctx, "CURSO_GESTAO"))

		t.Run("ComputeStatsAggregatesEverything", func(t *testing.T) {
			stats, err := flow.ComputeStats(ctx)
			require.NoError(t, err)

			assert.Equal(t, int64(2), stats.ActiveEstablishments)
			assert.Equal(t, int64(1), stats.PendingApproval)
			assert.Equal(t, int64(0), stats.PendingUpdate)
			assert.Equal(t, int64(1), stats.PendingDeletion)
			assert.Equal(t, int64(1), stats.Courses)
			assert.Equal(t, int64(1), stats.Users)
			assert.Equal(t, int64(2), stats.HomeViews)
			assert.Equal(t, int64(1), stats.CategoryViews["CAT_ALIMENTACAO"])
			assert.Equal(t, int64(1), stats.CourseViews["CURSO_GESTAO"])
			assert.NotEmpty(t, stats.GeneratedAt)
		})

		t.Run("StatsWithoutCacheComputesDirectly", func(t *testing.T) {
			stats, err := flow.Stats(ctx)
			require.NoError(t, err)
			assert.Equal(t, int64(2), stats.ActiveEstablishments)
		})

		t.Run("ExportCSVUsesSemicolonsAndCountOrder", func(t *testing.T) {
			filename, data, err := flow.ExportCountersCSV(ctx)
			require.NoError(t, err)
			assert.Contains(t, filename, "visualizacoes_")
			assert.Contains(t, filename, ".csv")

			r := csv.NewReader(bytes.NewReader(data))
			r.Comma = ';'
			rows, err := r.ReadAll()
			require.NoError(t, err)
			require.Len(t, rows, 4)
			assert.Equal(t, []string{"identificador", "visualizacoes", "atualizado_em"}, rows[0])
			// HOME has the highest count, the ties follow alphabetically
			assert.Equal(t, "HOME", rows[1][0])
			assert.Equal(t, "2", rows[1][1])
			assert.Equal(t, "CAT_ALIMENTACAO", rows[2][0])
			assert.Equal(t, "CURSO_GESTAO", rows[3][0])
		})

		t.Run("ExportXLSXContainsTheCounters", func(t *testing.T) {
			filename, data, err := flow.ExportCountersXLSX(ctx)
			require.NoError(t, err)
			assert.Contains(t, filename, ".xlsx")

			xl, err := excelize.OpenReader(bytes.NewReader(data))
			require.NoError(t, err)
			defer func() { _ = xl.Close() }()

			rows, err := xl.GetRows("Visualizacoes")
			require.NoError(t, err)
			require.Len(t, rows, 4)
			assert.Equal(t, "identificador", rows[0][0])
			assert.Equal(t, "HOME", rows[1][0])
		})

		return nil
	})
	require.NoError(t, err)
}
