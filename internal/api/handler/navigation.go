package handler

import (
	"errors"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"

	"bitquest/internal/geo"
	"bitquest/internal/navigation"
	"bitquest/internal/services"
)

type groupNavigation struct {
	container *do.Injector
}

type selectTargetRequest struct {
	Fid     int64          `json:"fid"`
	ChestID string         `json:"chestId"`
	Target  geo.Coordinate `json:"target"`
}

func (gr *groupNavigation) Select(c echo.Context) error {
	serviceNavigation, err := do.Invoke[*services.ServiceNavigation](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var req selectTargetRequest
	if err := c.Bind(&req); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("malformed request body"), errorx.Validation))
	}

	userID, err := requireUserID(req.Fid)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}
	if req.ChestID == "" {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("missing chest id"), errorx.Validation))
	}

	if err := serviceNavigation.SelectTarget(c.Request().Context(), userID, req.ChestID, req.Target); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, map[string]bool{"ok": true}, nil)
}

type guidanceRequest struct {
	Fid        int64               `json:"fid"`
	Location   geo.Coordinate      `json:"location"`
	Heading    *float64            `json:"heading"`
	Candidates []navigation.Target `json:"candidates"`
}

func (gr *groupNavigation) Guide(c echo.Context) error {
	serviceNavigation, err := do.Invoke[*services.ServiceNavigation](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var req guidanceRequest
	if err := c.Bind(&req); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("malformed request body"), errorx.Validation))
	}

	userID, err := requireUserID(req.Fid)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	update, err := serviceNavigation.Guide(c.Request().Context(), userID, navigation.Sample{
		Location: req.Location,
		Heading:  req.Heading,
	}, req.Candidates)

	return httpx.RestAbort(c, update, err)
}

type overrideRequest struct {
	Fid int64 `json:"fid"`
}

func (gr *groupNavigation) Override(c echo.Context) error {
	serviceNavigation, err := do.Invoke[*services.ServiceNavigation](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var req overrideRequest
	if err := c.Bind(&req); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("malformed request body"), errorx.Validation))
	}

	userID, err := requireUserID(req.Fid)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	if err := serviceNavigation.Override(c.Request().Context(), userID); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, map[string]bool{"ok": true}, nil)
}

func (gr *groupNavigation) Clear(c echo.Context) error {
	serviceNavigation, err := do.Invoke[*services.ServiceNavigation](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	userID, err := queryUserID(c)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	if err := serviceNavigation.Clear(c.Request().Context(), userID); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, map[string]bool{"ok": true}, nil)
}
