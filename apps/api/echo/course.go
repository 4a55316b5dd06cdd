package echoapi

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/eduenglish/backend/core/course"
)

type courseApi struct {
	svc      course.Service
	validate *validator.Validate
}

func registerCourseAPI(g *echo.Group, protect echo.MiddlewareFunc, deps *Deps) {
	api := courseApi{
		svc:      deps.CourseSvc,
		validate: deps.Validate,
	}

	cg := g.Group("/courses")
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)
	cg.GET("/:id/fresh", api.retrieve)
	cg.GET("/:id/raw", api.retrieveRaw)

	// admin endpoints
	admin := []echo.MiddlewareFunc{protect, adminMiddleware()}
	cg.POST("", api.create, admin...)
	cg.PUT("/:id", api.update, admin...)
	cg.DELETE("/:id", api.destroy, admin...)
	cg.POST("/:id/generate-exercises", api.generateExercises, admin...)
}

func (api *courseApi) query(ctx echo.Context) error {
	filter := course.QueryFilter{
		Level:       ctx.QueryParam("level"),
		IsPublished: queryBool(ctx, "isPublished"),
	}
	courses, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"count":   len(courses),
		"courses": courses,
	})
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	detail, err := api.svc.GetDetail(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting course detail")
	}
	return ctx.JSON(http.StatusOK, CourseResponse{Success: true, Course: detail})
}

func (api *courseApi) retrieveRaw(ctx echo.Context) error {
	c, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course by ID")
	}
	return ctx.JSON(http.StatusOK, CourseResponse{Success: true, Course: c})
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	caller, err := mustContextUser(ctx)
	if err != nil {
		return err
	}

	detail, err := api.svc.Create(ctx.Request().Context(), data, caller)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, CourseResponse{Success: true, Message: "Course created successfully", Course: detail})
}

func (api *courseApi) update(ctx echo.Context) error {
	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	detail, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, CourseResponse{Success: true, Message: "Course updated successfully", Course: detail})
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Course deleted successfully"})
}

func (api *courseApi) generateExercises(ctx echo.Context) error {
	detail, n, err := api.svc.GenerateExercises(ctx.Request().Context(), ctx.Param("id"), strings.ToLower(strings.TrimSpace(ctx.QueryParam("source"))))
	if err != nil {
		return errors.Wrap(err, "generating exercises")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"generated": n,
		"course":    detail,
	})
}

type CourseResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Course  interface{} `json:"course"`
}
