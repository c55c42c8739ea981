package echoapi_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core/analytics"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/user"
)

func Test_userAPI_login(t *testing.T) {
	createUser(t, "Jane Poe", "jpoe", "jpoe@test.cd", "G0od.Pa$$wd", user.RoleTeacher, true)
	createUser(t, "Idle Hands", "idlehands", "idle@test.cd", "G0od.Pa$$wd", user.RoleTeacher, false)

	tests := []httpTest{
		{
			name: "empty payload", body: echoapi.LoginRequest{},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown user", body: echoapi.LoginRequest{Username: "ghost", Password: "G0od.Pa$$wd"},
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "wrong password", body: echoapi.LoginRequest{Username: "jpoe", Password: "nope"},
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "inactive account", body: echoapi.LoginRequest{Username: "idlehands", Password: "G0od.Pa$$wd"},
			wantCode: http.StatusUnauthorized,
		},
		{
			name: "login with username", body: echoapi.LoginRequest{Username: "jpoe", Password: "G0od.Pa$$wd"},
			wantCode: http.StatusOK,
		},
		{
			name: "login with email", body: echoapi.LoginRequest{Username: "JPOE@test.cd", Password: "G0od.Pa$$wd"},
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users/login"

		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, tt)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			if tt.wantCode == http.StatusOK {
				var res echoapi.LoginResponse
				decodeBody(t, rec, &res)
				require.NotEmpty(t, res.Token)

				// the token grants access to protected routes
				rec = doRequest(t, httpTest{method: http.MethodGet, path: "/v1/students", token: res.Token})
				assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			}
		})
	}
}

func Test_userAPI_create(t *testing.T) {
	teacher := createUser(t, "Ms Teach", "msteach", "msteach@test.cd", "G0od.Pa$$wd", user.RoleTeacher, true)
	admin := createUser(t, "Head Master", "headmaster", "head@test.cd", "G0od.Pa$$wd", user.RoleAdmin, true)

	nu := user.NewUser{
		Name:            "New Teacher",
		Username:        "newteach",
		Email:           "newteach@test.cd",
		Password:        "G0od.Pa$$wd",
		PasswordConfirm: "G0od.Pa$$wd",
		Role:            user.RoleTeacher,
	}

	tests := []httpTest{
		{name: "auth required", body: nu, wantCode: http.StatusUnauthorized},
		{name: "admin required", body: nu, token: getToken(t, teacher), wantCode: http.StatusForbidden},
		{name: "create ok", body: nu, token: getToken(t, admin), wantCode: http.StatusCreated},
		{name: "duplicate username", body: nu, token: getToken(t, admin), wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/users"

		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, tt)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			if tt.wantCode == http.StatusCreated {
				var usr user.User
				decodeBody(t, rec, &usr)
				assert.Equal(t, "newteach", usr.Username)
				assert.True(t, usr.IsActive)
			}
		})
	}
}

func Test_studentAPI(t *testing.T) {
	teacher := createUser(t, "Mr Chalk", "mrchalk", "chalk@test.cd", "G0od.Pa$$wd", user.RoleTeacher, true)
	token := getToken(t, teacher)

	ns := student.NewStudent{ID: "API001", Name: "Alice Kalala", Section: "S33"}

	tests := []httpTest{
		{name: "auth required", method: http.MethodPost, body: ns, wantCode: http.StatusUnauthorized},
		{name: "list auth required", method: http.MethodGet, wantCode: http.StatusUnauthorized},
		{name: "enroll ok", method: http.MethodPost, body: ns, token: token, wantCode: http.StatusCreated},
		{name: "re-enroll fails", method: http.MethodPost, body: ns, token: token, wantCode: http.StatusBadRequest},
		{
			name: "enroll invalid", method: http.MethodPost,
			body:  student.NewStudent{ID: "API002"},
			token: token, wantCode: http.StatusBadRequest,
		},
		{name: "list", method: http.MethodGet, token: token, wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.path = "/v1/students"

		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, tt)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			if tt.name == "list" {
				var students []student.Student
				decodeBody(t, rec, &students)
				ids := make([]string, 0, len(students))
				for _, std := range students {
					ids = append(ids, std.ID)
				}
				assert.Contains(t, ids, "API001")
			}
		})
	}
}

func Test_attendanceAPI_recordSession(t *testing.T) {
	teacher := createUser(t, "Mrs Board", "mrsboard", "board@test.cd", "G0od.Pa$$wd", user.RoleTeacher, true)
	token := getToken(t, teacher)

	for _, id := range []string{"ATT001", "ATT002"} {
		_, err := stdSvc.Enroll(context.Background(), student.NewStudent{ID: id, Name: "Student " + id, Section: "S33"})
		require.NoError(t, err)
	}

	start := time.Now().UTC().Add(-time.Hour)
	meta := &attendance.SessionMeta{StartTime: start, EndTime: start.Add(45 * time.Minute), DurationMin: 45}
	first := start.Add(time.Minute)
	last := start.Add(40 * time.Minute)

	valid := attendance.NewSession{
		Subject: "Mathematics",
		Meta:    meta,
		Records: []attendance.NewRecord{
			{
				StudentID: "ATT001", Status: attendance.StatusPresent,
				DetectionCount: 10, Confidence: 0.95,
				FirstDetectionTime: &first, LastDetectionTime: &last,
			},
			{StudentID: "ATT002", Status: attendance.StatusAbsent},
		},
	}

	noRecords := valid
	noRecords.Records = nil

	emptyRecords := valid
	emptyRecords.Records = make([]attendance.NewRecord, 0)

	unknownStudent := valid
	unknownStudent.Records = []attendance.NewRecord{
		{
			StudentID: "GHOST", Status: attendance.StatusPresent,
			DetectionCount: 1, Confidence: 0.5,
			FirstDetectionTime: &first, LastDetectionTime: &last,
		},
	}

	badStatus := valid
	badStatus.Records = []attendance.NewRecord{{StudentID: "ATT001", Status: "late"}}

	tests := []httpTest{
		{name: "auth required", body: valid, wantCode: http.StatusUnauthorized},
		{name: "missing records", body: noRecords, wantCode: http.StatusBadRequest, token: token},
		{name: "unknown status", body: badStatus, wantCode: http.StatusBadRequest, token: token},
		{name: "unknown student", body: unknownStudent, wantCode: http.StatusBadRequest, token: token},
		{name: "record ok", body: valid, wantCode: http.StatusCreated, token: token},
		{name: "empty records ok", body: emptyRecords, wantCode: http.StatusCreated, token: token},
		{name: "resubmission creates a new session", body: valid, wantCode: http.StatusCreated, token: token},
	}

	sessionIDs := make(map[string]bool)
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/attendance/sessions"

		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, tt)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			if tt.wantCode == http.StatusCreated {
				var res echoapi.SessionCreatedResponse
				decodeBody(t, rec, &res)
				require.NotEmpty(t, res.SessionID)
				assert.False(t, sessionIDs[res.SessionID], "session id reused")
				sessionIDs[res.SessionID] = true
			}
		})
	}
}

func Test_attendanceAPI_analyticsOverview(t *testing.T) {
	teacher := createUser(t, "Dr Data", "drdata", "data@test.cd", "G0od.Pa$$wd", user.RoleTeacher, true)
	token := getToken(t, teacher)

	rec := doRequest(t, httpTest{method: http.MethodGet, path: "/v1/attendance/analytics", wantCode: http.StatusOK})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(t, httpTest{method: http.MethodGet, path: "/v1/attendance/analytics", token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var ovw analytics.Overview
	decodeBody(t, rec, &ovw)
	assert.NotNil(t, ovw.Trends)
	assert.NotNil(t, ovw.Engagement)
	assert.NotNil(t, ovw.RiskStudents)
}
