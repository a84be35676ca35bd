package handler

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stepbuddy/backend/src/domain"
)

const identityContextKey = "callerIdentity"

func SetMiddlewares(ctx context.Context, ginRouter *gin.Engine) {
	ginRouter.Use(LoggerMiddleware(ctx))
}

func LoggerMiddleware(ctx context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {

		zlog := zerolog.Ctx(ctx).With().
			Str("path", c.FullPath()).
			Str("method", c.Request.Method).
			Logger()
		ctx = zlog.WithContext(ctx)
		c.Request = c.Request.WithContext(zlog.WithContext(ctx))
		c.Next()
	}
}

// SharedSecretMiddleware validates the X-API-Secret header. The secret
// proves the request came through the authenticating gateway, which is the
// only component allowed to assert caller identities.
func SharedSecretMiddleware(apiSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedSecret := c.GetHeader("X-API-Secret")

		if providedSecret == "" {
			err := domain.NewError(
				domain.ErrorCodeAuthNotAuthenticated,
				errors.New("missing API secret header"),
				domain.WithMsg("Missing API secret"),
			)
			respondWithError(c, err)
			return
		}

		if providedSecret != apiSecret {
			err := domain.NewError(
				domain.ErrorCodeAuthNotAuthenticated,
				errors.New("invalid API secret provided"),
				domain.WithMsg("Invalid API secret"),
			)
			respondWithError(c, err)
			return
		}

		c.Next()
	}
}

// IdentityMiddleware extracts the caller identity asserted by the gateway
// in the X-Identity header. The cryptographic authentication of that
// identity happened upstream; here it is only parsed and carried forward.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := c.GetHeader("X-Identity")

		if !common.IsHexAddress(identity) {
			err := domain.NewError(
				domain.ErrorCodeAuthNotAuthenticated,
				errors.New("missing or malformed X-Identity header"),
				domain.WithMsg("Missing caller identity"),
			)
			respondWithError(c, err)
			return
		}

		c.Set(identityContextKey, common.HexToAddress(identity))
		c.Next()
	}
}

// callerIdentity returns the authenticated caller address set by
// IdentityMiddleware. Handlers using it must be registered behind that
// middleware.
func callerIdentity(c *gin.Context) (common.Address, bool) {
	value, ok := c.Get(identityContextKey)
	if !ok {
		err := domain.NewError(
			domain.ErrorCodeAuthNotAuthenticated,
			errors.New("caller identity not set on request context"),
			domain.WithMsg("Missing caller identity"),
		)
		respondWithError(c, err)
		return common.Address{}, false
	}
	return value.(common.Address), true
}
