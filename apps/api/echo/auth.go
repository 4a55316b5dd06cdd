package echoapi

import (
	"context"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/eduenglish/backend/core"
	"github.com/eduenglish/backend/core/user"
)

const (
	contextTokenKey = "userToken"
	contextUserKey  = "user"
	tokenAudience   = "EduEnglish"
	bearerScheme    = "Bearer"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	Username     string `json:"username,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
}

func GetUserClaims(conf *core.Config, usr user.User, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			Audience:  tokenAudience,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Username:     usr.Username,
		Email:        usr.Email,
		Role:         usr.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func jwtConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
		AuthScheme:    bearerScheme,
		ErrorHandler:  jwtError,
	}
}

// jwtError turns token extraction and parsing errors into 401 responses.
func jwtError(err error) error {
	if err == middleware.ErrJWTMissing {
		return errNoToken
	}
	if vErr, ok := err.(*jwt.ValidationError); ok && vErr.Errors&jwt.ValidationErrorExpired != 0 {
		return errTokenExpired
	}
	return errInvalidToken
}

func parseToken(conf *core.Config, raw string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != middleware.AlgorithmHS256 {
			return nil, errInvalidToken
		}
		return []byte(conf.SecretKey), nil
	})
	if err != nil {
		return nil, jwtError(err)
	}
	if !token.Valid {
		return nil, errInvalidToken
	}
	return claims, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errInvalidToken
}

// getContextUser returns the user loaded by protectMiddleware (or optionalAuthMiddleware).
func getContextUser(ctx echo.Context) (user.User, bool) {
	usr, ok := ctx.Get(contextUserKey).(user.User)
	return usr, ok
}

func mustContextUser(ctx echo.Context) (user.User, error) {
	if usr, ok := getContextUser(ctx); ok {
		return usr, nil
	}
	return user.User{}, errUserNotFound
}

// lookupUser returns the active user with the given id.
func lookupUser(ctx context.Context, svc user.Service, id string) (user.User, error) {
	usr, err := svc.Lookup(ctx, id)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errUserNotFound
		}
		return user.User{}, errors.Wrap(err, "looking up user")
	}
	if !usr.IsActive {
		return user.User{}, errAccountDeactivated
	}
	return usr, nil
}

// protectMiddleware requires a valid token of an active user and stores that user in the context.
func protectMiddleware(conf *core.Config, svc user.Service) echo.MiddlewareFunc {
	jwtMw := middleware.JWTWithConfig(jwtConfig(conf))
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return jwtMw(func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			usr, err := lookupUser(ctx.Request().Context(), svc, claims.Subject)
			if err != nil {
				return err
			}
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		})
	}
}

// optionalAuthMiddleware stores the user in the context when the request carries a valid token.
// Requests without one, or with a bad one, go through anonymously.
func optionalAuthMiddleware(conf *core.Config, svc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			auth := ctx.Request().Header.Get(echo.HeaderAuthorization)
			prefix := bearerScheme + " "
			if !strings.HasPrefix(auth, prefix) {
				return next(ctx)
			}
			claims, err := parseToken(conf, auth[len(prefix):])
			if err != nil {
				return next(ctx)
			}
			usr, err := lookupUser(ctx.Request().Context(), svc, claims.Subject)
			if err == nil {
				ctx.Set(contextUserKey, usr)
			} else if _, ok := errors.Cause(err).(*echo.HTTPError); !ok {
				return err
			}
			return next(ctx)
		}
	}
}

func refreshToken(ctx echo.Context, conf *core.Config) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}
	usr, err := mustContextUser(ctx)
	if err != nil {
		return "", err
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := GenerateToken(conf, GetUserClaims(conf, usr, claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}
