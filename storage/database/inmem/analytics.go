package inmemdb

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/trezcool/darasa/core/analytics"
	"github.com/trezcool/darasa/core/attendance"
)

type analyticsRepository struct {
	db *DB
}

func NewAnalyticsRepository(db *DB) analytics.Repository {
	return &analyticsRepository{db: db}
}

func round(x float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(x*shift) / shift
}

// dateOf truncates t to its UTC date, matching the session_date column.
func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// sessionsSince returns sessions whose session_date falls on or after the
// date of `since`, keyed by id.
func (repo *analyticsRepository) sessionsSince(since time.Time) map[string]*attendance.Session {
	sinceDate := dateOf(since)
	sessions := make(map[string]*attendance.Session)
	for id, sess := range repo.db.sessions.table {
		if !sess.SessionDate.Before(sinceDate) {
			sessions[id] = sess
		}
	}
	return sessions
}

func (repo *analyticsRepository) QueryTrends(_ context.Context, since time.Time) ([]analytics.TrendPoint, error) {
	repo.db.sessions.mutex.RLock()
	defer repo.db.sessions.mutex.RUnlock()
	repo.db.records.mutex.RLock()
	defer repo.db.records.mutex.RUnlock()

	sessions := repo.sessionsSince(since)

	type bucket struct {
		sessions     map[string]bool
		presentRecs  int
		totalRecs    int
	}
	buckets := make(map[time.Time]*bucket)
	getBucket := func(date time.Time) *bucket {
		b, ok := buckets[date]
		if !ok {
			b = &bucket{sessions: make(map[string]bool)}
			buckets[date] = b
		}
		return b
	}

	for id, sess := range sessions {
		getBucket(sess.SessionDate).sessions[id] = true
	}
	for _, rec := range repo.db.records.table {
		sess, ok := sessions[rec.SessionID]
		if !ok {
			continue
		}
		b := getBucket(sess.SessionDate)
		b.totalRecs++
		if rec.Status == attendance.StatusPresent {
			b.presentRecs++
		}
	}

	trends := make([]analytics.TrendPoint, 0, len(buckets))
	for date, b := range buckets {
		var rate float64
		if b.totalRecs > 0 {
			// partial counts as 0 toward the rate
			rate = round(100*float64(b.presentRecs)/float64(b.totalRecs), 2)
		}
		trends = append(trends, analytics.TrendPoint{
			Date:           date,
			TotalSessions:  len(b.sessions),
			AttendanceRate: rate,
		})
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].Date.Before(trends[j].Date) })
	return trends, nil
}

func (repo *analyticsRepository) QueryEngagement(_ context.Context, since time.Time) ([]analytics.SectionEngagement, error) {
	repo.db.sessions.mutex.RLock()
	defer repo.db.sessions.mutex.RUnlock()
	repo.db.records.mutex.RLock()
	defer repo.db.records.mutex.RUnlock()

	sessions := repo.sessionsSince(since)

	type bucket struct {
		confidenceSum float64
		presentCount  int
		totalCount    int
	}
	buckets := make(map[string]*bucket)

	for _, rec := range repo.db.records.table {
		sess, ok := sessions[rec.SessionID]
		if !ok {
			continue
		}
		b, ok := buckets[sess.Section]
		if !ok {
			b = &bucket{}
			buckets[sess.Section] = b
		}
		b.confidenceSum += rec.Confidence
		b.totalCount++
		if rec.Status == attendance.StatusPresent {
			b.presentCount++
		}
	}

	engagement := make([]analytics.SectionEngagement, 0, len(buckets))
	for section, b := range buckets {
		engagement = append(engagement, analytics.SectionEngagement{
			Section:       section,
			AvgConfidence: round(b.confidenceSum/float64(b.totalCount), 3),
			PresentCount:  b.presentCount,
			TotalCount:    b.totalCount,
		})
	}
	sort.Slice(engagement, func(i, j int) bool { return engagement[i].Section < engagement[j].Section })
	return engagement, nil
}

func (repo *analyticsRepository) QueryRiskStudents(_ context.Context, since time.Time, threshold float64) ([]analytics.RiskStudent, error) {
	repo.db.students.mutex.RLock()
	defer repo.db.students.mutex.RUnlock()
	repo.db.sessions.mutex.RLock()
	defer repo.db.sessions.mutex.RUnlock()
	repo.db.records.mutex.RLock()
	defer repo.db.records.mutex.RUnlock()

	sessions := repo.sessionsSince(since)

	type bucket struct {
		presentCount int
		totalCount   int
	}
	buckets := make(map[string]*bucket)

	for _, rec := range repo.db.records.table {
		if _, ok := sessions[rec.SessionID]; !ok {
			continue
		}
		b, ok := buckets[rec.StudentID]
		if !ok {
			b = &bucket{}
			buckets[rec.StudentID] = b
		}
		b.totalCount++
		if rec.Status == attendance.StatusPresent {
			b.presentCount++
		}
	}

	risk := make([]analytics.RiskStudent, 0)
	for studentID, b := range buckets {
		// compare unrounded: the boundary is strict, exactly threshold is not at risk
		pct := 100 * float64(b.presentCount) / float64(b.totalCount)
		if pct >= threshold {
			continue
		}
		std, ok := repo.db.students.table[studentID]
		if !ok {
			continue
		}
		risk = append(risk, analytics.RiskStudent{
			StudentID:         studentID,
			Name:              std.Name,
			Section:           std.Section,
			PresentCount:      b.presentCount,
			TotalCount:        b.totalCount,
			AttendancePercent: round(pct, 2),
		})
	}
	sort.Slice(risk, func(i, j int) bool {
		if risk[i].AttendancePercent != risk[j].AttendancePercent {
			return risk[i].AttendancePercent < risk[j].AttendancePercent
		}
		return risk[i].StudentID < risk[j].StudentID
	})
	return risk, nil
}
