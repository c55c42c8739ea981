package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/analytics"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

type fixture struct {
	svc      analytics.Service
	sessRepo attendance.Repository
	teacher  user.User
}

func setup(t *testing.T, studentIDs ...string) *fixture {
	t.Helper()

	db, err := inmemdb.Open()
	require.NoError(t, err)
	ctx := context.Background()

	usrRepo := inmemdb.NewUserRepository(db)
	teacher, err := usrRepo.CreateUser(ctx, user.User{
		ID:       uuid.New().String(),
		Name:     "Jane Poe",
		Username: "jpoe",
		Email:    "jpoe@test.cd",
		IsActive: true,
		Role:     user.RoleTeacher,
	})
	require.NoError(t, err)

	stdRepo := inmemdb.NewStudentRepository(db)
	sections := []string{"S33", "S33", "S34", "S34", "S35", "S35"}
	for i, id := range studentIDs {
		_, err = stdRepo.CreateStudent(ctx, student.Student{
			ID:      id,
			Name:    "Student " + id,
			Section: sections[i%len(sections)],
		})
		require.NoError(t, err)
	}

	mailSvc := emailsvc.NewConsoleServiceMock()
	conf := &core.Config{AppName: "Darasa", TestMode: true}
	return &fixture{
		svc:      analytics.NewService(inmemdb.NewAnalyticsRepository(db), user.NewService(usrRepo), mailSvc, conf),
		sessRepo: inmemdb.NewSessionRepository(db),
		teacher:  teacher,
	}
}

func day(daysAgo int) time.Time {
	t := time.Now().UTC().AddDate(0, 0, -daysAgo)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

type rec struct {
	studentID  string
	status     attendance.Status
	confidence float64
}

func (f *fixture) addSession(t *testing.T, daysAgo int, section string, recs ...rec) {
	t.Helper()

	sess := attendance.Session{
		ID:            uuid.New().String(),
		TeacherID:     f.teacher.ID,
		Subject:       "Mathematics",
		Section:       section,
		SessionDate:   day(daysAgo),
		SessionType:   attendance.TypeOffline,
		StartedAt:     day(daysAgo).Add(8 * time.Hour),
		EndedAt:       day(daysAgo).Add(9 * time.Hour),
		DurationMin:   60,
		TotalStudents: len(recs),
	}
	records := make([]attendance.Record, 0, len(recs))
	for _, r := range recs {
		records = append(records, attendance.Record{
			SessionID:  sess.ID,
			StudentID:  r.studentID,
			Status:     r.status,
			Confidence: r.confidence,
		})
	}
	_, err := f.sessRepo.CreateSession(context.Background(), sess, records)
	require.NoError(t, err)
}

func Test_service_Overview(t *testing.T) {
	f := setup(t, "STU001", "STU002", "STU003", "STU004")
	ctx := context.Background()

	// outside every window
	f.addSession(t, 40, "S33", rec{"STU001", attendance.StatusAbsent, 0})

	// in the 30-day windows only
	f.addSession(t, 10, "S33",
		rec{"STU001", attendance.StatusPresent, 0.9},
		rec{"STU002", attendance.StatusAbsent, 0},
	)

	// in every window
	f.addSession(t, 3, "S33",
		rec{"STU001", attendance.StatusPresent, 0.9},
		rec{"STU002", attendance.StatusPresent, 0.8},
	)
	f.addSession(t, 3, "S34",
		rec{"STU003", attendance.StatusPartial, 0.5},
		rec{"STU004", attendance.StatusPresent, 0.7},
	)

	// zero-attendee session
	f.addSession(t, 1, "S34")

	ovw, err := f.svc.Overview(ctx)
	require.NoError(t, err)

	// trends: ordered by date ascending; partial counts as 0 toward the rate;
	// a session without records still counts with rate 0
	require.Len(t, ovw.Trends, 3)
	assert.Equal(t,
		analytics.TrendPoint{Date: day(10), TotalSessions: 1, AttendanceRate: 50},
		ovw.Trends[0],
	)
	assert.Equal(t,
		analytics.TrendPoint{Date: day(3), TotalSessions: 2, AttendanceRate: 75},
		ovw.Trends[1],
	)
	assert.Equal(t,
		analytics.TrendPoint{Date: day(1), TotalSessions: 1, AttendanceRate: 0},
		ovw.Trends[2],
	)

	// engagement: 7-day window excludes the day-10 session
	require.Len(t, ovw.Engagement, 2)
	assert.Equal(t,
		analytics.SectionEngagement{Section: "S33", AvgConfidence: 0.85, PresentCount: 2, TotalCount: 2},
		ovw.Engagement[0],
	)
	assert.Equal(t,
		analytics.SectionEngagement{Section: "S34", AvgConfidence: 0.6, PresentCount: 1, TotalCount: 2},
		ovw.Engagement[1],
	)

	// risk: most at-risk first
	require.Len(t, ovw.RiskStudents, 2)
	assert.Equal(t,
		analytics.RiskStudent{
			StudentID: "STU003", Name: "Student STU003", Section: "S34",
			PresentCount: 0, TotalCount: 1, AttendancePercent: 0,
		},
		ovw.RiskStudents[0],
	)
	assert.Equal(t,
		analytics.RiskStudent{
			StudentID: "STU002", Name: "Student STU002", Section: "S33",
			PresentCount: 1, TotalCount: 2, AttendancePercent: 50,
		},
		ovw.RiskStudents[1],
	)
}

func Test_service_Overview_trendMixedEmptySession(t *testing.T) {
	f := setup(t, "STU001")

	// a record-less session on a date that also has records must not
	// dilute that date's attendance rate
	f.addSession(t, 2, "S33", rec{"STU001", attendance.StatusPresent, 0.9})
	f.addSession(t, 2, "S33")

	ovw, err := f.svc.Overview(context.Background())
	require.NoError(t, err)

	require.Len(t, ovw.Trends, 1)
	assert.Equal(t,
		analytics.TrendPoint{Date: day(2), TotalSessions: 2, AttendanceRate: 100},
		ovw.Trends[0],
	)
}

func Test_service_Overview_emptyDB(t *testing.T) {
	f := setup(t)

	ovw, err := f.svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ovw.Trends)
	assert.Empty(t, ovw.Engagement)
	assert.Empty(t, ovw.RiskStudents)
}

func Test_service_Overview_riskBoundary(t *testing.T) {
	f := setup(t, "STU005", "STU006")

	// STU005 sits exactly on 75%; STU006 falls just below
	for i := 0; i < 4; i++ {
		status5 := attendance.StatusPresent
		if i == 0 {
			status5 = attendance.StatusAbsent
		}
		f.addSession(t, i+1, "S35", rec{"STU005", status5, 0.8})
	}
	for i := 0; i < 3; i++ {
		status6 := attendance.StatusPresent
		if i == 0 {
			status6 = attendance.StatusAbsent
		}
		f.addSession(t, i+1, "S35", rec{"STU006", status6, 0.8})
	}

	ovw, err := f.svc.Overview(context.Background())
	require.NoError(t, err)

	require.Len(t, ovw.RiskStudents, 1)
	assert.Equal(t, "STU006", ovw.RiskStudents[0].StudentID)
	assert.Equal(t, 66.67, ovw.RiskStudents[0].AttendancePercent)
}

func Test_service_Overview_riskComparesUnrounded(t *testing.T) {
	f := setup(t, "STU007")

	// 14999/20000 = 74.995%: displays as 75.00 but is still strictly below
	// the threshold, so the student must be flagged
	recs := make([]rec, 0, 20000)
	for i := 0; i < 20000; i++ {
		status := attendance.StatusPresent
		if i < 5001 {
			status = attendance.StatusAbsent
		}
		recs = append(recs, rec{"STU007", status, 0.8})
	}
	f.addSession(t, 1, "S35", recs...)

	ovw, err := f.svc.Overview(context.Background())
	require.NoError(t, err)

	require.Len(t, ovw.RiskStudents, 1)
	assert.Equal(t, "STU007", ovw.RiskStudents[0].StudentID)
	assert.Equal(t, 14999, ovw.RiskStudents[0].PresentCount)
	assert.Equal(t, 20000, ovw.RiskStudents[0].TotalCount)
	assert.Equal(t, 75.0, ovw.RiskStudents[0].AttendancePercent)
}

func Test_service_SendRiskDigest(t *testing.T) {
	f := setup(t, "STU001", "STU002")
	ctx := context.Background()

	// no one at risk: nothing is sent
	emailsvc.ClearSentMessages()
	f.addSession(t, 2, "S33",
		rec{"STU001", attendance.StatusPresent, 0.9},
		rec{"STU002", attendance.StatusPresent, 0.8},
	)
	require.NoError(t, f.svc.SendRiskDigest(ctx))
	assert.Empty(t, emailsvc.SentMessages)

	// STU002 drops below the threshold
	f.addSession(t, 1, "S33",
		rec{"STU001", attendance.StatusPresent, 0.9},
		rec{"STU002", attendance.StatusAbsent, 0},
	)
	f.addSession(t, 1, "S33",
		rec{"STU002", attendance.StatusAbsent, 0},
	)
	require.NoError(t, f.svc.SendRiskDigest(ctx))

	require.Len(t, emailsvc.SentMessages, 1)
	msg := emailsvc.SentMessages[0]
	require.Len(t, msg.To, 1)
	assert.Equal(t, f.teacher.Email, msg.To[0].Address)
	assert.Contains(t, msg.Subject, "At-risk students digest")
	assert.Contains(t, msg.Body, "Student STU002")
	assert.NotContains(t, msg.Body, "Student STU001")
}
