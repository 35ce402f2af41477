package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mdouchement/travellog/internal/server/serializer"
	"github.com/mdouchement/travellog/internal/service"
	"github.com/mdouchement/travellog/internal/tlerror"
)

// bookmark contains all bookmark handlers.
type bookmark struct {
	stories *service.Stories
}

// List returns all the bookmarks.
func (h *bookmark) List(c echo.Context) error {
	bookmarks, err := h.stories.Bookmarks()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, serializer.Global("Bookmarks fetched", echo.Map{
		"listBookmark": bookmarks,
	}))
}

// Create bookmarks a cached story.
func (h *bookmark) Create(c echo.Context) error {
	var params struct {
		ID string `json:"id"`
	}
	if err := c.Bind(&params); err != nil {
		return err
	}
	if params.ID == "" {
		return tlerror.New(tlerror.Validation, `"id" is required`)
	}

	bookmark, err := h.stories.Bookmark(params.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, serializer.Global("Story bookmarked", echo.Map{
		"bookmark": bookmark,
	}))
}

// Delete removes a bookmark.
func (h *bookmark) Delete(c echo.Context) error {
	if err := h.stories.Unbookmark(c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
