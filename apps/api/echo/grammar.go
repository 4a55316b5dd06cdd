package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/eduenglish/backend/core/grammar"
)

type grammarApi struct {
	svc      grammar.Service
	validate *validator.Validate
}

func registerGrammarAPI(g *echo.Group, protect echo.MiddlewareFunc, deps *Deps) {
	api := grammarApi{
		svc:      deps.GrammarSvc,
		validate: deps.Validate,
	}

	gg := g.Group("/grammar", protect)
	gg.POST("/check", api.check)
	gg.POST("/check-ai", api.check)
	gg.GET("/history", api.history)
}

func (api *grammarApi) check(ctx echo.Context) error {
	var data grammar.CheckText
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CheckText")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	caller, err := mustContextUser(ctx)
	if err != nil {
		return err
	}

	res, err := api.svc.Check(ctx.Request().Context(), data.Text, caller)
	if err != nil {
		return errors.Wrap(err, "checking grammar")
	}
	return ctx.JSON(http.StatusOK, DataResponse{Success: true, Data: res})
}

func (api *grammarApi) history(ctx echo.Context) error {
	caller, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	checks, err := api.svc.History(ctx.Request().Context(), caller, queryInt(ctx, "limit", grammar.DefaultHistoryLimit))
	if err != nil {
		return errors.Wrap(err, "listing grammar checks")
	}
	return ctx.JSON(http.StatusOK, DataResponse{Success: true, Data: checks})
}
