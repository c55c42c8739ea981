package analytics

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

const (
	// aggregation windows
	TrendWindow      = 30 * 24 * time.Hour
	EngagementWindow = 7 * 24 * time.Hour
	RiskWindow       = 30 * 24 * time.Hour

	// RiskThreshold is the attendance percentage below which a student is
	// considered at risk. The boundary is strict: exactly 75% is not at risk.
	RiskThreshold = 75.0
)

type (
	Repository interface {
		// QueryTrends returns per-date session counts and attendance rates
		// for sessions on or after `since`, ordered by date ascending.
		QueryTrends(ctx context.Context, since time.Time) ([]TrendPoint, error)
		// QueryEngagement returns per-section confidence aggregates over
		// records joined through sessions on or after `since`.
		QueryEngagement(ctx context.Context, since time.Time) ([]SectionEngagement, error)
		// QueryRiskStudents returns students with at least one record since
		// `since` whose attendance percentage is strictly below `threshold`,
		// ordered ascending (most at-risk first).
		QueryRiskStudents(ctx context.Context, since time.Time, threshold float64) ([]RiskStudent, error)
	}

	Service interface {
		Overview(ctx context.Context) (Overview, error)
		SendRiskDigest(ctx context.Context) error
	}

	service struct {
		repo    Repository
		usrSvc  user.Service
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrSvc user.Service, mailSvc core.EmailService, conf *core.Config) Service {
	return &service{
		repo:    repo,
		usrSvc:  usrSvc,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

// Overview runs the three analytics queries over their respective windows.
// No partial analytics: the first failure fails the whole call.
func (svc *service) Overview(ctx context.Context) (Overview, error) {
	now := time.Now().UTC()

	trends, err := svc.repo.QueryTrends(ctx, now.Add(-TrendWindow))
	if err != nil {
		return Overview{}, errors.Wrap(err, "querying trends")
	}
	engagement, err := svc.repo.QueryEngagement(ctx, now.Add(-EngagementWindow))
	if err != nil {
		return Overview{}, errors.Wrap(err, "querying engagement")
	}
	risk, err := svc.repo.QueryRiskStudents(ctx, now.Add(-RiskWindow), RiskThreshold)
	if err != nil {
		return Overview{}, errors.Wrap(err, "querying risk students")
	}

	return Overview{
		Trends:       trends,
		Engagement:   engagement,
		RiskStudents: risk,
	}, nil
}

// SendRiskDigest emails the current at-risk list to every active teacher.
// Nothing is sent when no student is at risk.
func (svc *service) SendRiskDigest(ctx context.Context) error {
	now := time.Now().UTC()
	risk, err := svc.repo.QueryRiskStudents(ctx, now.Add(-RiskWindow), RiskThreshold)
	if err != nil {
		return errors.Wrap(err, "querying risk students")
	}
	if len(risk) == 0 {
		return nil
	}

	teachers, err := svc.usrSvc.QueryActiveTeachers(ctx)
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}

	to := make([]mail.Address, 0, len(teachers))
	for _, t := range teachers {
		if t.Email == "" {
			continue
		}
		to = append(to, mail.Address{Name: t.Name, Address: t.Email})
	}
	if len(to) == 0 {
		return nil
	}

	msg := &core.EmailMessage{
		To:      to,
		Subject: fmt.Sprintf("[%s] At-risk students digest", svc.conf.AppName),
		Body:    riskDigestBody(risk),
	}
	svc.mailSvc.SendMessages(msg)
	return nil
}

func riskDigestBody(risk []RiskStudent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d student(s) fell below %.0f%% attendance over the last %d days:\n\n",
		len(risk), RiskThreshold, int(RiskWindow.Hours()/24))
	for _, rs := range risk {
		fmt.Fprintf(&b, "- %s (%s, section %s): %.2f%% (%d/%d present)\n",
			rs.Name, rs.StudentID, rs.Section, rs.AttendancePercent, rs.PresentCount, rs.TotalCount)
	}
	return b.String()
}
