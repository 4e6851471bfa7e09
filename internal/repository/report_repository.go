package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"

	"histotrek/internal/domain"
	dbpool "histotrek/pkg/database"
	"histotrek/pkg/logger"
)

const reportTable = "report"

var reportColumns = []interface{}{"id", "type", "generated_at", "content"}

type ReportRepository struct {
	base
}

func NewReportRepository(cm *dbpool.ConnectionManager, logger logger.Logger) domain.ReportRepository {
	return &ReportRepository{base: newBase(cm, logger, "report")}
}

func scanReport(row interface{ Scan(...interface{}) error }) (*domain.Report, error) {
	var rp domain.Report
	var reportType string
	if err := row.Scan(&rp.ID, &reportType, &rp.GeneratedAt, &rp.Content); err != nil {
		return nil, err
	}
	rp.Type = domain.ReportType(reportType)
	rp.GeneratedAt = rp.GeneratedAt.UTC()
	return &rp, nil
}

// Create stores report as is; GeneratedAt is set by the caller.
func (r *ReportRepository) Create(ctx context.Context, report *domain.Report) error {
	start := time.Now()
	ds := r.builder().Insert(reportTable).Rows(goqu.Record{
		"type":         string(report.Type),
		"generated_at": report.GeneratedAt,
		"content":      report.Content,
	})

	id, err := r.insert(ctx, ds)
	if err := r.finish(ctx, "create", start, err, "Report could not be created", map[string]interface{}{"type": report.Type}); err != nil {
		return err
	}

	report.ID = id
	return nil
}

func (r *ReportRepository) FindByID(ctx context.Context, id int64) (*domain.Report, error) {
	start := time.Now()
	ds := r.builder().From(reportTable).Select(reportColumns...).Where(goqu.C("id").Eq(id))

	var report *domain.Report
	err := r.query(ctx, ds, func(rows *sql.Rows) error {
		var err error
		report, err = scanReport(rows)
		return err
	})
	if err == nil && report == nil {
		err = sql.ErrNoRows
	}

	if err := r.finish(ctx, "find_by_id", start, err, "Report lookup failed", map[string]interface{}{"id": id}); err != nil {
		return nil, err
	}
	return report, nil
}

func (r *ReportRepository) FindAll(ctx context.Context) ([]*domain.Report, error) {
	start := time.Now()
	ds := r.builder().From(reportTable).Select(reportColumns...).
		Order(goqu.C("generated_at").Desc(), goqu.C("id").Desc())

	reports := make([]*domain.Report, 0)
	err := r.query(ctx, ds, func(rows *sql.Rows) error {
		rp, err := scanReport(rows)
		if err != nil {
			return err
		}
		reports = append(reports, rp)
		return nil
	})

	if err := r.finish(ctx, "find_all", start, err, "Reports could not be listed", nil); err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *ReportRepository) Delete(ctx context.Context, id int64) error {
	start := time.Now()
	err := r.execOne(ctx, r.builder().Delete(reportTable).Where(goqu.C("id").Eq(id)))
	return r.finish(ctx, "delete", start, err, "Report could not be deleted", map[string]interface{}{"id": id})
}
