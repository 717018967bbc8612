package admin

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Roroz7/Miky-Vinted-discord-bot/internal/store"
	domain "github.com/Roroz7/Miky-Vinted-discord-bot/pkg/types"
)

// Handler exposes the admin service over HTTP for operators and for the
// external chat command runtime.
type Handler struct {
	svc *Service
}

// NewHandler wraps svc for HTTP use.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the admin routes on g.
func (h *Handler) Register(g *echo.Group) {
	g.POST("/searches", h.addSearch)
	g.DELETE("/searches/:id", h.removeSearch)
	g.PATCH("/searches/:id/enabled", h.setEnabled)
	g.POST("/searches/:id/test", h.testSearch)
	g.GET("/users/:user/searches", h.userSearches)
	g.PUT("/users/:user/language", h.setUserLanguage)
	g.PUT("/settings/interval", h.setInterval)
	g.PUT("/settings/channel", h.setChannel)
	g.GET("/stats", h.stats)
}

func (h *Handler) addSearch(c echo.Context) error {
	var search domain.Search
	if err := c.Bind(&search); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	created, err := h.svc.AddSearch(c.Request().Context(), search)
	if err != nil {
		if errors.Is(err, ErrKeywordRequired) || errors.Is(err, ErrOwnerRequired) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) removeSearch(c echo.Context) error {
	id, err := searchID(c)
	if err != nil {
		return err
	}

	removed, err := h.svc.RemoveSearch(c.Request().Context(), id, c.QueryParam("owner"))
	if err != nil {
		return err
	}
	if !removed {
		return echo.NewHTTPError(http.StatusNotFound, "search not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) setEnabled(c echo.Context) error {
	id, err := searchID(c)
	if err != nil {
		return err
	}

	var body struct {
		Owner   string `json:"owner"`
		Enabled bool   `json:"enabled"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.SetEnabled(c.Request().Context(), id, body.Owner, body.Enabled); err != nil {
		if errors.Is(err, store.ErrSearchNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "search not found")
		}
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) testSearch(c echo.Context) error {
	id, err := searchID(c)
	if err != nil {
		return err
	}

	listings, err := h.svc.TestSearch(c.Request().Context(), id, c.QueryParam("owner"))
	if err != nil {
		if errors.Is(err, store.ErrSearchNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "search not found")
		}
		return err
	}
	return c.JSON(http.StatusOK, listings)
}

func (h *Handler) userSearches(c echo.Context) error {
	searches, err := h.svc.UserSearches(c.Request().Context(), c.Param("user"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, searches)
}

func (h *Handler) setUserLanguage(c echo.Context) error {
	var body struct {
		Language string `json:"language"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.SetUserLanguage(c.Request().Context(), c.Param("user"), body.Language); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) setInterval(c echo.Context) error {
	var body struct {
		Seconds int `json:"seconds"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err := h.svc.SetPollInterval(c.Request().Context(), time.Duration(body.Seconds)*time.Second)
	if err != nil {
		if errors.Is(err, ErrIntervalTooShort) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) setChannel(c echo.Context) error {
	var body struct {
		ChannelID string `json:"channel_id"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.svc.SetNotificationChannel(c.Request().Context(), body.ChannelID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) stats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Stats())
}

func searchID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid search id")
	}
	return id, nil
}
