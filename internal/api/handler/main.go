package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/do"
)

type Config struct {
	Container *do.Injector
	Mode      string
	Origins   []string
}

func New(cfg *Config) (http.Handler, error) {
	r := echo.New()
	r.Pre(middleware.RemoveTrailingSlash())
	if cfg.Mode == "debug" {
		r.Debug = true
		pprof.Register(r)
	}

	r.JSONSerializer = httpx.SegmentJSONSerializer{}
	r.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339}\t${method}\t${uri}\t${status}\t${latency_human}\n",
	}))
	r.Use(middleware.Recover())

	r.GET("", func(c echo.Context) error {
		return c.String(http.StatusOK, "🗺️")
	})

	routesAPIv1 := r.Group("/api/v1")
	{
		cors := middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.Origins,
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
			AllowCredentials: true,
			MaxAge:           60 * 60,
		})
		routesAPIv1.Use(cors)

		ch := groupChest{cfg.Container}
		routesAPIv1.GET("/chests/nearby", ch.Nearby)
		routesAPIv1.POST("/chests/:id/collect", ch.Collect)
		routesAPIv1.POST("/chests/spawn", ch.Spawn)
		routesAPIv1.GET("/collections", ch.Collections)

		rw := groupReward{cfg.Container}
		routesAPIv1.GET("/rewards/pending", rw.Pending)
		routesAPIv1.POST("/rewards/redeem", rw.Redeem)

		n := groupNavigation{cfg.Container}
		routesAPIv1.POST("/navigation/select", n.Select)
		routesAPIv1.POST("/navigation/guidance", n.Guide)
		routesAPIv1.POST("/navigation/override", n.Override)
		routesAPIv1.DELETE("/navigation", n.Clear)

		w := groupWebhook{cfg.Container}
		routesAPIv1.POST("/webhooks/bitrefill", w.Bitrefill)
	}

	return r, nil
}

// queryUserID reads the caller's Farcaster id from the query string. Both
// `fid` and the legacy `userId` spelling are accepted.
func queryUserID(c echo.Context) (int64, error) {
	raw := c.QueryParam("fid")
	if raw == "" {
		raw = c.QueryParam("userId")
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errorx.Wrap(errors.New("missing or invalid fid"), errorx.Validation)
	}

	return id, nil
}

// optionalUserID is queryUserID for routes that serve anonymous callers.
// An absent id resolves to 0; a present but malformed one is still rejected.
func optionalUserID(c echo.Context) (int64, error) {
	if c.QueryParam("fid") == "" && c.QueryParam("userId") == "" {
		return 0, nil
	}
	return queryUserID(c)
}

func requireUserID(fid int64) (int64, error) {
	if fid <= 0 {
		return 0, errorx.Wrap(errors.New("missing or invalid fid"), errorx.Validation)
	}
	return fid, nil
}
