package middleware

import (
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/iqengi/site/internal/domain"
)

// TimezoneCookie carries the browser's IANA timezone, written by the layout script.
const TimezoneCookie = "iq_tz"

var validTimezone = regexp.MustCompile(`^[A-Za-z_]+(/[A-Za-z0-9_+\-]+){0,2}$`)

// CurrencyHints collects what the request says about the visitor's
// location: the timezone (tz query, X-Timezone header or TimezoneCookie,
// in that order) and the client IP.
func CurrencyHints(c *gin.Context) domain.CurrencyHints {
	tz := c.Query("tz")
	if tz == "" {
		tz = c.GetHeader("X-Timezone")
	}
	if tz == "" {
		tz, _ = c.Cookie(TimezoneCookie)
	}
	tz = strings.TrimSpace(tz)
	if len(tz) > 64 || !validTimezone.MatchString(tz) {
		tz = ""
	}
	return domain.CurrencyHints{Timezone: tz, IP: c.ClientIP()}
}
