package core

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Handlers interface {
	GetEvents(gctx *gin.Context)
	PostEvents(gctx *gin.Context)
	PruneEvents(gctx *gin.Context)
	GetCalendar(gctx *gin.Context)
	GetHealth(gctx *gin.Context)
}

type Page struct {
	Order  SortOrder `json:"order"`
	Lines  []string  `json:"lines"`
	Events []Event   `json:"events"`
}

type handlers struct {
	listing *Listing
}

func NewHandlers(listing *Listing) Handlers {
	return &handlers{listing: listing}
}

func (h *handlers) GetEvents(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	// sort is the dropdown of the listing page: empty or "none" keeps insertion order
	order := SortOrder(gctx.Query("sort"))
	switch order {
	case "", "none", OrderUnsorted, OrderByAddress:
	default:
		err := fmt.Errorf("unknown sort order %q", order)
		log.Ctx(ctx).Info().Err(err).Msg("invalid sort order")
		gctx.AbortWithStatusJSON(http.StatusBadRequest, NewError("invalid sort order", err))

		return
	}

	presenter, err := h.listing.Open(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("loading events failed")
		gctx.AbortWithStatusJSON(http.StatusInternalServerError, NewError("loading events failed", err))

		return
	}

	if order == OrderByAddress {
		presenter.OnSortChange()
	}

	gctx.JSON(http.StatusOK, Page{
		Order:  presenter.Order(),
		Lines:  presenter.Lines(),
		Events: presenter.Events(),
	})
}

func (h *handlers) PostEvents(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var event Event

	err := gctx.ShouldBindJSON(&event)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("failed to bind JSON")
		gctx.AbortWithStatusJSON(http.StatusBadRequest, NewError("failed to bind JSON", err))

		return
	}

	err = h.listing.Submit(ctx, event)
	if err != nil {
		if errors.Is(err, ErrInvalidEvent) {
			log.Ctx(ctx).Info().Err(err).Msg("event validation failed")
			gctx.AbortWithStatusJSON(http.StatusBadRequest, NewError("event validation failed", err))

			return
		}

		log.Ctx(ctx).Error().Err(err).Msg("saving event failed")
		gctx.AbortWithStatusJSON(http.StatusInternalServerError, NewError("saving event failed", err))

		return
	}

	gctx.JSON(http.StatusCreated, event)
}

func (h *handlers) PruneEvents(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	result, err := h.listing.Prune(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("pruning events failed")
		gctx.AbortWithStatusJSON(http.StatusInternalServerError, NewError("pruning events failed", err))

		return
	}

	gctx.JSON(http.StatusOK, result)
}

func (h *handlers) GetCalendar(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	presenter, err := h.listing.Open(ctx)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("loading events failed")
		gctx.AbortWithStatusJSON(http.StatusInternalServerError, NewError("loading events failed", err))

		return
	}

	body := BuildCalendar(presenter.Events(), h.listing.Location(), h.listing.Now())

	gctx.Header("Content-Disposition", "attachment; filename=eventmappr.ics")
	gctx.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}

func (h *handlers) GetHealth(gctx *gin.Context) {
	gctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RegisterRoutes mounts the listing routes. guard protects the write routes.
func RegisterRoutes(router gin.IRouter, h Handlers, guard gin.HandlerFunc) {
	router.GET("/health", h.GetHealth)
	router.GET("/events", h.GetEvents)
	router.GET("/events/calendar.ics", h.GetCalendar)

	writes := router.Group("/events", guard)
	writes.POST("", h.PostEvents)
	writes.POST("/prune", h.PruneEvents)
}
