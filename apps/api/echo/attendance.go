package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/analytics"
	"github.com/trezcool/darasa/core/attendance"
)

type (
	SessionCreatedResponse struct {
		SessionID string `json:"session_id"`
	}

	attendanceAPI struct {
		svc          attendance.Service
		analyticsSvc analytics.Service
	}
)

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc attendance.Service, analyticsSvc analytics.Service) {
	api := attendanceAPI{svc: svc, analyticsSvc: analyticsSvc}

	ag := g.Group("/attendance", jwt, teacherMiddleware())
	ag.POST("/sessions", api.recordSession)
	ag.GET("/analytics", api.analyticsOverview)
}

func (api attendanceAPI) recordSession(ctx echo.Context) error {
	var data attendance.NewSession
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	sess, err := api.svc.RecordSession(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, SessionCreatedResponse{SessionID: sess.ID})
}

func (api attendanceAPI) analyticsOverview(ctx echo.Context) error {
	ovw, err := api.analyticsSvc.Overview(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ovw)
}
