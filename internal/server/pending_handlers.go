package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/travellog/internal/server/serializer"
	"github.com/mdouchement/travellog/internal/service"
)

// pending contains all pending stories handlers.
type pending struct {
	stories    *service.Stories
	reconciler *service.Reconciler
}

// List lists the stories waiting to be pushed.
func (h *pending) List(c echo.Context) error {
	pendings, err := h.stories.Pendings()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, serializer.Global("Pending stories fetched", echo.Map{
		"listPending": serializer.Pendings(pendings),
	}))
}

// Discard deletes a pending story without pushing it.
func (h *pending) Discard(c echo.Context) error {
	if err := h.stories.DeletePending(c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// SyncAll reconciles all the pending stories.
func (h *pending) SyncAll(c echo.Context) error {
	outcomes, err := h.reconciler.Reconcile(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, serializer.Global("Reconciliation done", echo.Map{
		"outcomes": outcomes,
	}))
}

// SyncOne reconciles the given pending story.
func (h *pending) SyncOne(c echo.Context) error {
	outcome, err := h.reconciler.ReconcileOne(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, serializer.Global("Reconciliation done", echo.Map{
		"outcomes": []service.Outcome{outcome},
	}))
}
