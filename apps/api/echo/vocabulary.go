package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/eduenglish/backend/core/user"
	"github.com/eduenglish/backend/core/vocabulary"
)

type vocabularyApi struct {
	svc      vocabulary.Service
	validate *validator.Validate
}

func registerVocabularyAPI(g *echo.Group, protect, optional echo.MiddlewareFunc, deps *Deps) {
	api := vocabularyApi{
		svc:      deps.VocabularySvc,
		validate: deps.Validate,
	}

	vg := g.Group("/vocabularies")
	vg.GET("", api.query)
	vg.GET("/favourites", api.favourites, optional)
	vg.GET("/:id", api.retrieve)

	vg.POST("", api.create, protect)
	vg.PUT("/:id", api.update, protect)
	vg.PATCH("/:id/favourite", api.toggleFavourite, protect)
	vg.DELETE("/:id", api.destroy, protect)
}

func bindVocabularyFilter(ctx echo.Context) vocabulary.QueryFilter {
	fav := queryBool(ctx, "favourite")
	return vocabulary.QueryFilter{
		Search:       ctx.QueryParam("search"),
		PartOfSpeech: ctx.QueryParam("partOfSpeech"),
		Favourite:    fav != nil && *fav,
		UserID:       ctx.QueryParam("userId"),
	}
}

func (api *vocabularyApi) query(ctx echo.Context) error {
	vocabs, err := api.svc.Query(ctx.Request().Context(), bindVocabularyFilter(ctx))
	if err != nil {
		return errors.Wrap(err, "querying vocabularies")
	}
	return ctx.JSON(http.StatusOK, ListResponse{Success: true, Count: len(vocabs), Data: vocabs})
}

func (api *vocabularyApi) favourites(ctx echo.Context) error {
	var caller *user.User
	if usr, ok := getContextUser(ctx); ok {
		caller = &usr
	}
	vocabs, err := api.svc.Favourites(ctx.Request().Context(), bindVocabularyFilter(ctx), caller)
	if err != nil {
		return errors.Wrap(err, "querying favourite vocabularies")
	}
	return ctx.JSON(http.StatusOK, ListResponse{Success: true, Count: len(vocabs), Data: vocabs})
}

func (api *vocabularyApi) retrieve(ctx echo.Context) error {
	v, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding vocabulary by ID")
	}
	return ctx.JSON(http.StatusOK, DataResponse{Success: true, Data: v})
}

func (api *vocabularyApi) create(ctx echo.Context) error {
	var data vocabulary.NewVocabulary
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewVocabulary")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	caller, err := mustContextUser(ctx)
	if err != nil {
		return err
	}

	v, err := api.svc.Create(ctx.Request().Context(), data, caller)
	if err != nil {
		return errors.Wrap(err, "creating vocabulary")
	}
	return ctx.JSON(http.StatusCreated, DataResponse{Success: true, Data: v})
}

func (api *vocabularyApi) update(ctx echo.Context) error {
	var data vocabulary.UpdateVocabulary
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateVocabulary")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	caller, err := mustContextUser(ctx)
	if err != nil {
		return err
	}

	v, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data, caller)
	if err != nil {
		return errors.Wrap(err, "updating vocabulary")
	}
	return ctx.JSON(http.StatusOK, DataResponse{Success: true, Data: v})
}

func (api *vocabularyApi) toggleFavourite(ctx echo.Context) error {
	caller, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	v, err := api.svc.ToggleFavourite(ctx.Request().Context(), ctx.Param("id"), caller)
	if err != nil {
		return errors.Wrap(err, "toggling favourite")
	}
	return ctx.JSON(http.StatusOK, DataResponse{Success: true, Data: v})
}

func (api *vocabularyApi) destroy(ctx echo.Context) error {
	caller, err := mustContextUser(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), ctx.Param("id"), caller); err != nil {
		return errors.Wrap(err, "deleting vocabulary")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Vocabulary deleted successfully"})
}

type ListResponse struct {
	Success bool        `json:"success"`
	Count   int         `json:"count"`
	Data    interface{} `json:"data"`
}
