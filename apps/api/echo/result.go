package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/eduenglish/backend/core/result"
)

type resultApi struct {
	svc      result.Service
	validate *validator.Validate
}

func registerResultAPI(g *echo.Group, protect echo.MiddlewareFunc, deps *Deps) {
	api := resultApi{
		svc:      deps.ResultSvc,
		validate: deps.Validate,
	}

	rg := g.Group("/results", protect)
	self := selfOrAdminMiddleware("userId")

	rg.GET("/progress/:userId/:courseId", api.progress, self)
	rg.PUT("/progress/:userId/:courseId/exercises", api.updateExercises, self)
	rg.PUT("/progress/:userId/:courseId/vocabulary", api.updateVocabulary, self)
	rg.PUT("/progress/:userId/:courseId/grammar", api.updateGrammar, self)
	rg.POST("/progress/:userId/:courseId/session", api.recordSession, self)

	rg.POST("/exam/:userId/:courseId", api.submitExam, self)
	rg.GET("/exam/:courseId/questions", api.examQuestions)
	rg.POST("/exam/:courseId/check", api.checkExam)

	rg.GET("/study/:userId/:courseId/vocabulary", api.studyVocabulary, self)
	rg.GET("/study/:userId/:courseId/grammar", api.studyGrammar, self)
}

func (api *resultApi) progress(ctx echo.Context) error {
	r, err := api.svc.GetProgress(ctx.Request().Context(), ctx.Param("userId"), ctx.Param("courseId"))
	if err != nil {
		return errors.Wrap(err, "getting progress")
	}
	return ctx.JSON(http.StatusOK, ResultResponse{Success: true, Result: r})
}

func (api *resultApi) updateExercises(ctx echo.Context) error {
	var data result.UpdateExerciseProgress
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateExerciseProgress")
	}
	r, err := api.svc.UpdateExerciseProgress(ctx.Request().Context(), ctx.Param("userId"), ctx.Param("courseId"), data)
	if err != nil {
		return errors.Wrap(err, "updating exercise progress")
	}
	return ctx.JSON(http.StatusOK, ResultResponse{Success: true, Result: r})
}

func (api *resultApi) updateVocabulary(ctx echo.Context) error {
	var data result.UpdateVocabularyProgress
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateVocabularyProgress")
	}
	r, err := api.svc.UpdateVocabularyProgress(ctx.Request().Context(), ctx.Param("userId"), ctx.Param("courseId"), data)
	if err != nil {
		return errors.Wrap(err, "updating vocabulary progress")
	}
	return ctx.JSON(http.StatusOK, ResultResponse{Success: true, Result: r})
}

func (api *resultApi) updateGrammar(ctx echo.Context) error {
	var data result.UpdateGrammarProgress
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGrammarProgress")
	}
	r, err := api.svc.UpdateGrammarProgress(ctx.Request().Context(), ctx.Param("userId"), ctx.Param("courseId"), data)
	if err != nil {
		return errors.Wrap(err, "updating grammar progress")
	}
	return ctx.JSON(http.StatusOK, ResultResponse{Success: true, Result: r})
}

func (api *resultApi) recordSession(ctx echo.Context) error {
	var data result.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	r, err := api.svc.RecordSession(ctx.Request().Context(), ctx.Param("userId"), ctx.Param("courseId"), data)
	if err != nil {
		return errors.Wrap(err, "recording study session")
	}
	return ctx.JSON(http.StatusOK, ResultResponse{Success: true, Result: r})
}

func (api *resultApi) submitExam(ctx echo.Context) error {
	var data result.NewExamResult
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewExamResult")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	r, err := api.svc.SubmitExam(ctx.Request().Context(), ctx.Param("userId"), ctx.Param("courseId"), data)
	if err != nil {
		return errors.Wrap(err, "submitting exam")
	}
	return ctx.JSON(http.StatusOK, ResultResponse{Success: true, Result: r})
}

func (api *resultApi) examQuestions(ctx echo.Context) error {
	count := queryInt(ctx, "count", result.DefaultQuestionCount)
	questions, err := api.svc.ExamQuestions(ctx.Request().Context(), ctx.Param("courseId"), count)
	if err != nil {
		return errors.Wrap(err, "picking exam questions")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"questions": questions,
		"total":     len(questions),
	})
}

func (api *resultApi) checkExam(ctx echo.Context) error {
	var data result.CheckExam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckExam")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	check, err := api.svc.CheckExam(ctx.Request().Context(), ctx.Param("courseId"), data)
	if err != nil {
		return errors.Wrap(err, "checking exam")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"results": check.Results,
		"score":   check.Score,
	})
}

func (api *resultApi) studyVocabulary(ctx echo.Context) error {
	study, err := api.svc.StudyVocabulary(ctx.Request().Context(), ctx.Param("userId"), ctx.Param("courseId"))
	if err != nil {
		return errors.Wrap(err, "getting vocabulary study")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"data":     study.Data,
		"progress": study.Progress,
	})
}

func (api *resultApi) studyGrammar(ctx echo.Context) error {
	study, err := api.svc.StudyGrammar(ctx.Request().Context(), ctx.Param("userId"), ctx.Param("courseId"))
	if err != nil {
		return errors.Wrap(err, "getting grammar study")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"data":     study.Data,
		"progress": study.Progress,
	})
}

type ResultResponse struct {
	Success bool          `json:"success"`
	Result  result.Result `json:"result"`
}
