package middleware

import (
	"time"

	"pms/constants"
	"pms/response"
	"pms/services"
	"pms/types"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PropertyOptions struct {
	Settings     services.SettingsProvider
	BaseCurrency string
	// Now is the wall clock used when no business date is configured.
	Now func() time.Time
}

// PropertyMiddleware builds the request's PropertyContext once; handlers only read it.
// The business date comes from X-Business-Date, then the business_date setting, then the clock.
func PropertyMiddleware(opts PropertyOptions) gin.HandlerFunc {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	baseCurrency := opts.BaseCurrency
	if baseCurrency == "" {
		baseCurrency = constants.DefaultBaseCurrency
	}

	return func(c *gin.Context) {
		requestID := c.GetHeader(constants.HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(constants.ContextKeyRequest, requestID)
		c.Writer.Header().Set(constants.HeaderRequestID, requestID)

		prop := types.PropertyContext{
			PropertyID:   c.GetHeader(constants.HeaderPropertyID),
			BaseCurrency: c.GetHeader(constants.HeaderBaseCurrency),
			RequestID:    requestID,
		}
		if prop.PropertyID == "" {
			prop.PropertyID = "default"
		}
		if prop.BaseCurrency == "" {
			prop.BaseCurrency = baseCurrency
		}
		if actor, ok := ActorFrom(c); ok {
			prop.Actor = actor.Label()
		}

		if raw := c.GetHeader(constants.HeaderBusinessDate); raw != "" {
			d, err := time.Parse(constants.DateLayout, raw)
			if err != nil {
				response.BadRequest(c, "X-Business-Date must be YYYY-MM-DD")
				c.Abort()
				return
			}
			prop.BusinessDate = d
		} else {
			prop.BusinessDate = businessDateSetting(c, opts.Settings, prop, now)
		}
		prop.BusinessDate = types.DateOnly(prop.BusinessDate)

		c.Set(constants.ContextKeyProperty, prop)
		c.Next()
	}
}

func businessDateSetting(c *gin.Context, settings services.SettingsProvider, prop types.PropertyContext, now func() time.Time) time.Time {
	if settings != nil {
		if raw := settings.Get(c.Request.Context(), prop, constants.SettingBusinessDate, ""); raw != "" {
			if d, err := time.Parse(constants.DateLayout, raw); err == nil {
				return d
			}
		}
	}
	return now()
}

// PropertyFrom returns the context built by PropertyMiddleware.
func PropertyFrom(c *gin.Context) types.PropertyContext {
	if v, ok := c.Get(constants.ContextKeyProperty); ok {
		if prop, ok := v.(types.PropertyContext); ok {
			return prop
		}
	}
	return types.PropertyContext{BusinessDate: types.DateOnly(time.Now()), BaseCurrency: constants.DefaultBaseCurrency}
}
