package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"histotrek/internal/domain"
	"histotrek/internal/session"
	"histotrek/pkg/clock"
	"histotrek/pkg/logger"
)

type ReportService struct {
	reports domain.ReportRepository
	users   domain.UserRepository
	places  domain.PlaceRepository
	reviews domain.ReviewRepository
	session *session.Context
	logger  logger.Logger
}

func NewReportService(
	reports domain.ReportRepository,
	users domain.UserRepository,
	places domain.PlaceRepository,
	reviews domain.ReviewRepository,
	sc *session.Context,
	logger logger.Logger,
) *ReportService {
	return &ReportService{
		reports: reports,
		users:   users,
		places:  places,
		reviews: reviews,
		session: sc,
		logger:  logger.WithFields(map[string]interface{}{"service": "report"}),
	}
}

// Generate stores a text snapshot of the users, the places or both.
func (s *ReportService) Generate(ctx context.Context, reportType domain.ReportType) (*domain.Report, error) {
	if _, err := s.session.RequireAdmin(); err != nil {
		return nil, err
	}
	if !reportType.Valid() {
		return nil, domain.ErrInvalidReport
	}

	report := &domain.Report{
		Type:        reportType,
		GeneratedAt: clock.Now(ctx),
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Histotrek %s report\n", reportType)
	fmt.Fprintf(&b, "Generated at %s\n", report.GeneratedAt.Format(time.RFC3339))

	if reportType == domain.ReportTypeUsers || reportType == domain.ReportTypeFull {
		if err := s.writeUsers(ctx, &b); err != nil {
			return nil, err
		}
	}
	if reportType == domain.ReportTypePlaces || reportType == domain.ReportTypeFull {
		if err := s.writePlaces(ctx, &b); err != nil {
			return nil, err
		}
	}

	report.Content = b.String()
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, err
	}

	s.logger.InfoContext(s.session.Annotate(ctx), "Report generated", map[string]interface{}{"report_id": report.ID, "type": reportType})
	return report, nil
}

func (s *ReportService) writeUsers(ctx context.Context, b *strings.Builder) error {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return err
	}

	admins := 0
	for _, u := range users {
		if u.IsAdmin() {
			admins++
		}
	}

	fmt.Fprintf(b, "\nUsers: %d (administrators: %d)\n", len(users), admins)
	for _, u := range users {
		fmt.Fprintf(b, "  #%d %s <%s> %s\n", u.ID, u.Username, u.Email, u.Role)
	}
	return nil
}

func (s *ReportService) writePlaces(ctx context.Context, b *strings.Builder) error {
	places, err := s.places.FindAll(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(b, "\nPlaces: %d\n", len(places))
	for _, p := range places {
		summary, err := s.reviews.RatingSummary(ctx, p.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "  #%d %s | %s | %s | rating %.2f (%d reviews)\n",
			p.ID, p.Name, p.Country, p.Era, summary.Average, summary.Count)
	}
	return nil
}

func (s *ReportService) List(ctx context.Context) ([]*domain.Report, error) {
	if _, err := s.session.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.reports.FindAll(ctx)
}

func (s *ReportService) Get(ctx context.Context, id int64) (*domain.Report, error) {
	if _, err := s.session.RequireAdmin(); err != nil {
		return nil, err
	}
	return s.reports.FindByID(ctx, id)
}

func (s *ReportService) Delete(ctx context.Context, id int64) error {
	if _, err := s.session.RequireAdmin(); err != nil {
		return err
	}
	if err := s.reports.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(s.session.Annotate(ctx), "Report deleted", map[string]interface{}{"report_id": id})
	return nil
}
