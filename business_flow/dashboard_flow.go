package businessflow

import (
	"bytes"
	"context"
	"encoding/csv"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/meidesaqua/meidesaqua-api/app/dto"
	"github.com/meidesaqua/meidesaqua-api/app/services"
	"github.com/meidesaqua/meidesaqua-api/models"
	"github.com/meidesaqua/meidesaqua-api/repository"
	"github.com/meidesaqua/meidesaqua-api/utils"
	"github.com/xuri/excelize/v2"
)

// DashboardFlow aggregates the admin dashboard numbers and exports the view
// counters as CSV or XLSX reports.
type DashboardFlow interface {
	Stats(ctx context.Context) (*dto.DashboardStats, error)
	ComputeStats(ctx context.Context) (*dto.DashboardStats, error)
	ExportCountersCSV(ctx context.Context) (filename string, data []byte, err error)
	ExportCountersXLSX(ctx context.Context) (filename string, data []byte, err error)
}

// DashboardFlowImpl implements DashboardFlow
type DashboardFlowImpl struct {
	estRepo     repository.EstablishmentRepository
	courseRepo  repository.CourseRepository
	userRepo    repository.UserRepository
	counterRepo repository.ViewCounterRepository
	cache       services.ListingCache
}

func NewDashboardFlow(
	estRepo repository.EstablishmentRepository,
	courseRepo repository.CourseRepository,
	userRepo repository.UserRepository,
	counterRepo repository.ViewCounterRepository,
	cache services.ListingCache,
) DashboardFlow {
	return &DashboardFlowImpl{
		estRepo:     estRepo,
		courseRepo:  courseRepo,
		userRepo:    userRepo,
		counterRepo: counterRepo,
		cache:       cache,
	}
}

func (f *DashboardFlowImpl) Stats(ctx context.Context) (*dto.DashboardStats, error) {
	if f.cache != nil {
		if snapshot, ok := f.cache.GetStatsSnapshot(ctx); ok {
			return snapshot, nil
		}
	}

	stats, err := f.ComputeStats(ctx)
	if err != nil {
		return nil, err
	}

	if f.cache != nil {
		_ = f.cache.SetStatsSnapshot(ctx, stats)
	}
	return stats, nil
}

// ComputeStats builds a fresh snapshot from the database, bypassing the
// cache. The scheduler calls this periodically to keep the snapshot warm.
func (f *DashboardFlowImpl) ComputeStats(ctx context.Context) (*dto.DashboardStats, error) {
	stats := &dto.DashboardStats{
		CategoryViews: make(map[string]int64),
		CourseViews:   make(map[string]int64),
		GeneratedAt:   utils.UTCNowRFC3339(),
	}

	counts := []struct {
		status string
		dest   *int64
	}{
		{models.StatusActive, &stats.ActiveEstablishments},
		{models.StatusPendingApproval, &stats.PendingApproval},
		{models.StatusPendingUpdate, &stats.PendingUpdate},
		{models.StatusPendingDeletion, &stats.PendingDeletion},
	}
	for _, c := range counts {
		status := c.status
		n, err := f.estRepo.Count(ctx, models.EstablishmentFilter{Status: &status})
		if err != nil {
			return nil, NewBusinessError("DASHBOARD_STATS_FAILED", "Failed to count establishments", err)
		}
		*c.dest = n
	}

	courses, err := f.courseRepo.Count(ctx, models.CourseFilter{})
	if err != nil {
		return nil, NewBusinessError("DASHBOARD_STATS_FAILED", "Failed to count courses", err)
	}
	stats.Courses = courses

	users, err := f.userRepo.Count(ctx, models.UserFilter{})
	if err != nil {
		return nil, NewBusinessError("DASHBOARD_STATS_FAILED", "Failed to count users", err)
	}
	stats.Users = users

	counters, err := f.counterRepo.ListAll(ctx)
	if err != nil {
		return nil, NewBusinessError("DASHBOARD_STATS_FAILED", "Failed to list counters", err)
	}
	for _, counter := range counters {
		switch counter.Identifier {
		case utils.CounterHome:
			stats.HomeViews = counter.Count
		case utils.CounterEspacoMEI:
			stats.EspacoMeiViews = counter.Count
		case utils.CounterProfileShare:
			stats.ProfileShares = counter.Count
		case utils.CounterRedirect:
			stats.Redirects = counter.Count
		default:
			if strings.HasPrefix(counter.Identifier, utils.CounterCategoryPrefix) {
				stats.CategoryViews[counter.Identifier] = counter.Count
			} else if strings.HasPrefix(counter.Identifier, utils.CounterCoursePrefix) {
				stats.CourseViews[counter.Identifier] = counter.Count
			}
		}
	}

	return stats, nil
}

// ExportCountersCSV writes the counters as a semicolon-separated file, the
// dialect spreadsheets in pt-BR locales open without an import wizard.
func (f *DashboardFlowImpl) ExportCountersCSV(ctx context.Context) (string, []byte, error) {
	counters, err := f.sortedCounters(ctx)
	if err != nil {
		return "", nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'

	if err := w.Write([]string{"identificador", "visualizacoes", "atualizado_em"}); err != nil {
		return "", nil, NewBusinessError("CSV_WRITE_ERROR", "Failed to write CSV", err)
	}
	for _, counter := range counters {
		record := []string{
			counter.Identifier,
			strconv.FormatInt(counter.Count, 10),
			counter.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return "", nil, NewBusinessError("CSV_WRITE_ERROR", "Failed to write CSV", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", nil, NewBusinessError("CSV_WRITE_ERROR", "Failed to write CSV", err)
	}

	return exportFilename("csv"), buf.Bytes(), nil
}

func (f *DashboardFlowImpl) ExportCountersXLSX(ctx context.Context) (string, []byte, error) {
	counters, err := f.sortedCounters(ctx)
	if err != nil {
		return "", nil, err
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "Visualizacoes"
	xl.SetSheetName(xl.GetSheetName(0), sheet)

	header := []string{"identificador", "visualizacoes", "atualizado_em"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for ri, counter := range counters {
		record := []any{
			counter.Identifier,
			counter.Count,
			counter.UpdatedAt.UTC().Format(time.RFC3339),
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	return exportFilename("xlsx"), buf.Bytes(), nil
}

func (f *DashboardFlowImpl) sortedCounters(ctx context.Context) ([]*models.ViewCounter, error) {
	counters, err := f.counterRepo.ListAll(ctx)
	if err != nil {
		return nil, NewBusinessError("EXPORT_COUNTERS_FAILED", "Failed to list counters", err)
	}
	sort.Slice(counters, func(i, j int) bool {
		if counters[i].Count != counters[j].Count {
			return counters[i].Count > counters[j].Count
		}
		return counters[i].Identifier < counters[j].Identifier
	})
	return counters, nil
}

func exportFilename(ext string) string {
	return "visualizacoes_" + utils.UTCNowFormat("2006-01-02") + "." + ext
}
