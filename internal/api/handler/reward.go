package handler

import (
	"errors"
	"net/http"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"

	"bitquest/internal/services"
)

type groupReward struct {
	container *do.Injector
}

func (gr *groupReward) Pending(c echo.Context) error {
	serviceReward, err := do.Invoke[*services.ServiceReward](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	userID, err := queryUserID(c)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	rewards, err := serviceReward.GetPendingRewards(c.Request().Context(), userID)
	return httpx.RestAbort(c, rewards, err)
}

type redeemRequest struct {
	Fid   int64  `json:"fid"`
	Email string `json:"email"`
}

func (gr *groupReward) Redeem(c echo.Context) error {
	serviceReward, err := do.Invoke[*services.ServiceReward](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var req redeemRequest
	if err := c.Bind(&req); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("malformed request body"), errorx.Validation))
	}

	userID, err := requireUserID(req.Fid)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	order, err := serviceReward.Redeem(c.Request().Context(), userID, req.Email)
	if errors.Is(err, services.ErrRedemptionLocked) {
		//nolint:errcheck
		httpx.Abort(c, err, http.StatusConflict)
		return nil
	}

	return httpx.RestAbort(c, order, err)
}
