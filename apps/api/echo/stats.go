package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/eduenglish/backend/core"
	"github.com/eduenglish/backend/core/result"
	"github.com/eduenglish/backend/core/stats"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	learnersSheet   = "Learners"
)

var learnersHeader = []interface{}{
	"Username", "Email", "Course", "Level", "Overall %", "Vocabulary %", "Exercises %",
	"Study time (min)", "Streak (days)", "Sessions", "Exam attempts", "Status", "Started at", "Completed at",
}

type statsApi struct {
	svc stats.Service
}

func registerStatsAPI(g *echo.Group, protect echo.MiddlewareFunc, deps *Deps) {
	api := statsApi{svc: deps.StatsSvc}

	sg := g.Group("/stats", protect, adminMiddleware())
	sg.GET("/overview", api.overview)
	sg.GET("/users", api.learners)
	sg.GET("/users/export", api.exportLearners)
	sg.GET("/users/:userId", api.learnerDetail)
	sg.GET("/courses", api.courses)
	sg.GET("/activities", api.activities)
	sg.GET("/timeseries", api.timeSeries)
}

func (api *statsApi) overview(ctx echo.Context) error {
	overview, err := api.svc.Overview(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing overview stats")
	}
	return ctx.JSON(http.StatusOK, DataResponse{Success: true, Data: overview})
}

func (api *statsApi) learners(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	page, err := api.svc.Learners(ctx.Request().Context(), bindPagination(ctx), ordering.Ascending(result.OrderOverall))
	if err != nil {
		return errors.Wrap(err, "listing learners")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"data":       page.Learners,
		"pagination": page.Pagination,
	})
}

func (api *statsApi) exportLearners(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	learners, err := api.svc.AllLearners(ctx.Request().Context(), ordering.Ascending(result.OrderOverall))
	if err != nil {
		return errors.Wrap(err, "listing learners")
	}
	f, err := learnersWorkbook(learners)
	if err != nil {
		return errors.Wrap(err, "building learners workbook")
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return errors.Wrap(err, "writing learners workbook")
	}
	filename := "learners-" + core.Now().Format("20060102") + ".xlsx"
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return ctx.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (api *statsApi) learnerDetail(ctx echo.Context) error {
	detail, err := api.svc.LearnerDetail(ctx.Request().Context(), ctx.Param("userId"))
	if err != nil {
		return errors.Wrap(err, "getting learner detail")
	}
	return ctx.JSON(http.StatusOK, DataResponse{Success: true, Data: detail})
}

func (api *statsApi) courses(ctx echo.Context) error {
	courses, err := api.svc.Courses(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing course stats")
	}
	return ctx.JSON(http.StatusOK, DataResponse{Success: true, Data: courses})
}

func (api *statsApi) activities(ctx echo.Context) error {
	limit := queryInt(ctx, "limit", stats.DefaultActivityLimit)
	activities, err := api.svc.Activities(ctx.Request().Context(), limit)
	if err != nil {
		return errors.Wrap(err, "listing activities")
	}
	return ctx.JSON(http.StatusOK, DataResponse{Success: true, Data: activities})
}

func (api *statsApi) timeSeries(ctx echo.Context) error {
	days := queryInt(ctx, "days", stats.DefaultDays)
	series, err := api.svc.TimeSeries(ctx.Request().Context(), days)
	if err != nil {
		return errors.Wrap(err, "computing time series")
	}
	return ctx.JSON(http.StatusOK, DataResponse{Success: true, Data: series})
}

// learnersWorkbook writes one row per learner result, below a header row.
func learnersWorkbook(learners []stats.Learner) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", learnersSheet); err != nil {
		_ = f.Close()
		return nil, err
	}

	if err := f.SetSheetRow(learnersSheet, "A1", &learnersHeader); err != nil {
		_ = f.Close()
		return nil, err
	}
	for i, l := range learners {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		row := []interface{}{
			l.Username, l.Email, l.CourseName, l.CourseLevel,
			l.Progress.Overall, l.Progress.Vocabulary, l.Progress.Exercises,
			l.Stats.TotalStudyTime, l.Stats.StreakDays, l.Stats.TotalSessions,
			l.ExamResults, l.Status, formatTime(l.StartedAt), formatTime(l.CompletedAt),
		}
		if err = f.SetSheetRow(learnersSheet, cell, &row); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
