package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/vivahsetu/vivahsetu-backend/internal/common"
	"github.com/vivahsetu/vivahsetu-backend/pkg/i18n"
)

// I18n negotiates the response language. An explicit ?lang= wins over
// Accept-Language so clients can switch language without changing headers.
func I18n() gin.HandlerFunc {
	return func(c *gin.Context) {
		locale, ok := i18n.ParseLocale(c.Query("lang"))
		if !ok {
			locale = i18n.ParseAcceptLanguage(c.GetHeader("Accept-Language"))
		}
		c.Set(common.LocaleKey, locale)
		c.Header("Content-Language", string(locale))
		c.Writer.Header().Add("Vary", "Accept-Language")
		c.Next()
	}
}
