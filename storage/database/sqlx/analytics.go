package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/analytics"
)

type analyticsRepository struct {
	db *sqlx.DB
}

func NewAnalyticsRepository(db *sqlx.DB) analytics.Repository {
	return &analyticsRepository{db: db}
}

// QueryTrends groups sessions by date. attendance_rate averages 100 for
// present records and 0 for everything else; partial counts as 0 here.
// Sessions with no records count toward total_sessions but contribute no
// rows to the average; a date with only such sessions reports rate 0.
func (repo analyticsRepository) QueryTrends(ctx context.Context, since time.Time) ([]analytics.TrendPoint, error) {
	query := `
	SELECT s.session_date,
	       COUNT(DISTINCT s.id) AS total_sessions,
	       COALESCE(ROUND(
	           AVG(CASE WHEN r.status = 'present' THEN 100 ELSE 0 END)
	               FILTER (WHERE r.id IS NOT NULL)::numeric, 2), 0) AS attendance_rate
	FROM sessions s
	LEFT JOIN records r ON r.session_id = s.id
	WHERE s.session_date >= $1::date
	GROUP BY s.session_date
	ORDER BY s.session_date`

	trends := make([]analytics.TrendPoint, 0)
	if err := repo.db.SelectContext(ctx, &trends, query, since); err != nil {
		return nil, core.NewPersistenceError("analytics.QueryTrends", err)
	}
	return trends, nil
}

func (repo analyticsRepository) QueryEngagement(ctx context.Context, since time.Time) ([]analytics.SectionEngagement, error) {
	query := `
	SELECT s.section,
	       COALESCE(ROUND(AVG(r.confidence_score), 3), 0) AS avg_confidence,
	       COUNT(*) FILTER (WHERE r.status = 'present') AS present_count,
	       COUNT(*) AS total_count
	FROM records r
	JOIN sessions s ON s.id = r.session_id
	WHERE s.session_date >= $1::date
	GROUP BY s.section
	ORDER BY s.section`

	engagement := make([]analytics.SectionEngagement, 0)
	if err := repo.db.SelectContext(ctx, &engagement, query, since); err != nil {
		return nil, core.NewPersistenceError("analytics.QueryEngagement", err)
	}
	return engagement, nil
}

// QueryRiskStudents only considers students with at least one record in the
// window; the inner join guards the division by zero.
func (repo analyticsRepository) QueryRiskStudents(ctx context.Context, since time.Time, threshold float64) ([]analytics.RiskStudent, error) {
	query := `
	SELECT st.id AS student_id,
	       st.name AS full_name,
	       st.section,
	       COUNT(*) FILTER (WHERE r.status = 'present') AS present_count,
	       COUNT(*) AS total_count,
	       ROUND(100.0 * COUNT(*) FILTER (WHERE r.status = 'present') / COUNT(*), 2) AS attendance_percentage
	FROM students st
	JOIN records r ON r.student_id = st.id
	JOIN sessions s ON s.id = r.session_id
	WHERE s.session_date >= $1::date
	GROUP BY st.id, st.name, st.section
	HAVING 100.0 * COUNT(*) FILTER (WHERE r.status = 'present') / COUNT(*) < $2
	ORDER BY attendance_percentage, st.id`

	risk := make([]analytics.RiskStudent, 0)
	if err := repo.db.SelectContext(ctx, &risk, query, since, threshold); err != nil {
		return nil, core.NewPersistenceError("analytics.QueryRiskStudents", err)
	}
	return risk, nil
}
