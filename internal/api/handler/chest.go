package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"

	"bitquest/internal/geo"
	"bitquest/internal/services"
)

type groupChest struct {
	container *do.Injector
}

func (gr *groupChest) Nearby(c echo.Context) error {
	serviceChest, err := do.Invoke[*services.ServiceChest](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	userID, err := optionalUserID(c)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	rawLng := c.QueryParam("lng")
	if rawLng == "" {
		rawLng = c.QueryParam("lon")
	}

	lat, errLat := strconv.ParseFloat(c.QueryParam("lat"), 64)
	lng, errLng := strconv.ParseFloat(rawLng, 64)
	if errLat != nil || errLng != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("missing or invalid coordinates"), errorx.Validation))
	}

	radius := -1.0
	if raw := c.QueryParam("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("invalid radius"), errorx.Validation))
		}
	}

	views, err := serviceChest.FindNearby(c.Request().Context(), userID, geo.Coordinate{Latitude: lat, Longitude: lng}, radius)
	return httpx.RestAbort(c, views, err)
}

type collectRequest struct {
	Fid int64 `json:"fid"`
}

func (gr *groupChest) Collect(c echo.Context) error {
	serviceChest, err := do.Invoke[*services.ServiceChest](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var req collectRequest
	if err := c.Bind(&req); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("malformed request body"), errorx.Validation))
	}

	userID, err := requireUserID(req.Fid)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	collection, err := serviceChest.Collect(c.Request().Context(), userID, c.Param("id"))
	if errors.Is(err, services.ErrAlreadyCollected) {
		//nolint:errcheck
		httpx.Abort(c, err, http.StatusConflict)
		return nil
	}

	return httpx.RestAbort(c, collection, err)
}

type spawnRequest struct {
	Fid     int64    `json:"fid"`
	Lat     float64  `json:"lat"`
	Lon     float64  `json:"lon"`
	Heading *float64 `json:"heading"`
}

func (gr *groupChest) Spawn(c echo.Context) error {
	serviceChest, err := do.Invoke[*services.ServiceChest](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var req spawnRequest
	if err := c.Bind(&req); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("malformed request body"), errorx.Validation))
	}

	userID, err := requireUserID(req.Fid)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	// no heading means spawn due north
	heading := 0.0
	if req.Heading != nil {
		heading = *req.Heading
	}

	chest, err := serviceChest.SpawnAhead(c.Request().Context(), userID, geo.Coordinate{Latitude: req.Lat, Longitude: req.Lon}, heading)
	return httpx.RestAbort(c, chest, err)
}

func (gr *groupChest) Collections(c echo.Context) error {
	serviceChest, err := do.Invoke[*services.ServiceChest](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	userID, err := queryUserID(c)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	collections, err := serviceChest.GetCollectionHistory(c.Request().Context(), userID)
	return httpx.RestAbort(c, collections, err)
}
