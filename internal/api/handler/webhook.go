package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"

	"bitquest/internal/services"
)

type groupWebhook struct {
	container *do.Injector
}

func (gr *groupWebhook) Bitrefill(c echo.Context) error {
	serviceWebhook, err := do.Invoke[*services.ServiceWebhook](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(errors.New("unreadable request body"), errorx.Validation))
	}

	order, err := serviceWebhook.HandleBitrefill(c.Request().Context(), c.Request().Header, body)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	// duplicate delivery; acknowledged so the provider stops retrying
	if order == nil {
		return c.JSON(http.StatusOK, map[string]bool{"ok": true, "duplicate": true})
	}

	return httpx.RestAbort(c, order, nil)
}
