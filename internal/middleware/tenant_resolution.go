package middleware

import (
	"fmt"
	"net/http"
	"net/textproto"

	"edusuite/internal/common"
	"edusuite/internal/logger"
	"edusuite/internal/metrics"
	"edusuite/internal/tenant"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// DefaultTenantHeader carries the tenant code, not the tenant id.
	DefaultTenantHeader = "X-Tenant-Code"

	TenantIDKey   = "tenant_id"
	TenantCodeKey = "tenant_code"

	msgTenantFault    = "An error occurred processing the tenant"
	msgUninitialized  = "Tenant context is not initialized"
	missingHeaderTmpl = "Missing required header: %s"
)

// ResolverFactory returns a fresh Resolver for one request.
type ResolverFactory func() *tenant.Resolver

// TenantResolutionMiddleware resolves the tenant named by headerName and binds
// the Resolver to the request context for the rest of the chain. The Resolver
// is reset when the request leaves this middleware on every path, including
// panics further down the chain.
//
//	missing header          -> 400
//	empty tenant code       -> 400
//	unknown or inactive     -> 404 with the resolver message
//	any other failure       -> 500, details logged only
func TenantResolutionMiddleware(headerName string, newResolver ResolverFactory, log *zap.Logger) gin.HandlerFunc {
	if headerName == "" {
		headerName = DefaultTenantHeader
	}
	canonical := textproto.CanonicalMIMEHeaderKey(headerName)
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		r := newResolver()
		defer r.Reset()

		values, present := c.Request.Header[canonical]
		if !present || len(values) == 0 {
			metrics.TenantResolutionsTotal.WithLabelValues("missing_header").Inc()
			common.AbortWithError(c, http.StatusBadRequest, fmt.Sprintf(missingHeaderTmpl, headerName))
			return
		}

		ctx := tenant.WithResolver(c.Request.Context(), r)
		if err := r.Initialize(ctx, values[0]); err != nil {
			switch tenant.KindOf(err) {
			case tenant.KindTenantCodeEmpty:
				metrics.TenantResolutionsTotal.WithLabelValues("empty_code").Inc()
				common.AbortWithError(c, http.StatusBadRequest, err.Error())
			case tenant.KindTenantNotFound:
				metrics.TenantResolutionsTotal.WithLabelValues("not_found").Inc()
				common.AbortWithError(c, http.StatusNotFound, err.Error())
			default:
				metrics.TenantResolutionsTotal.WithLabelValues("error").Inc()
				logger.WithContext(ctx, log).Error("tenant resolution failed",
					zap.String("path", c.Request.URL.Path),
					zap.Error(err),
				)
				common.AbortWithError(c, http.StatusInternalServerError, msgTenantFault)
			}
			return
		}

		metrics.TenantResolutionsTotal.WithLabelValues("ok").Inc()
		c.Set(TenantIDKey, r.TenantID())
		c.Set(TenantCodeKey, r.TenantCode())
		c.Request = c.Request.WithContext(logger.WithTenantCode(ctx, r.TenantCode()))

		c.Next()
	}
}

// RequireTenant rejects the request with 401 unless an initialized Resolver is
// bound to the request context. It guards routes that could be mounted
// without TenantResolutionMiddleware.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := tenant.RequireInitialized(c.Request.Context()); err != nil {
			common.AbortWithError(c, http.StatusUnauthorized, msgUninitialized)
			return
		}
		c.Next()
	}
}
