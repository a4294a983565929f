package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lsiproject/propertyhub/internal/domain"
	"github.com/lsiproject/propertyhub/internal/present/rest/middleware"
	"github.com/lsiproject/propertyhub/internal/present/rest/presenter"
	"github.com/lsiproject/propertyhub/internal/service"
	"github.com/lsiproject/propertyhub/internal/usecase"
)

const maxImageSize = 10 << 20

type Handler struct {
	property       *usecase.PropertyUsecase
	recommendation *usecase.RecommendationUsecase
	market         *usecase.MarketUsecase
	signal         *service.SignalService
	gatherer       prometheus.Gatherer
}

func NewHandler(
	property *usecase.PropertyUsecase,
	recommendation *usecase.RecommendationUsecase,
	market *usecase.MarketUsecase,
	signal *service.SignalService,
	gatherer prometheus.Gatherer,
) *Handler {
	return &Handler{
		property:       property,
		recommendation: recommendation,
		market:         market,
		signal:         signal,
		gatherer:       gatherer,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.handleHealth)
	if h.gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}
	e.GET("/realtime", h.handleRealtime)

	authed := middleware.RequireAuth()

	p := e.Group("/api/properties")
	p.GET("", h.handleList)
	p.GET("/search", h.handleSearch)
	p.GET("/recent", h.handleRecent)
	p.GET("/recommended", h.handleRecommended, authed)
	p.GET("/mine", h.handleMine, authed)
	p.GET("/owner/:ownerId", h.handleByOwner)
	p.GET("/:id", h.handleGet)
	p.GET("/:id/available", h.handleIsAvailable)
	p.GET("/:id/rental-type", h.handleRentalType)
	p.POST("", h.handleCreate, authed)
	p.PATCH("/:id", h.handleUpdate, authed)
	p.DELETE("/:id", h.handleDelete, authed)
	p.PUT("/:id/availability/false", h.handleAvailability(false), authed)
	p.PUT("/:id/availability/true", h.handleAvailability(true), authed)
	p.POST("/:id/images", h.handleAddImage, authed)

	m := e.Group("/api/market")
	m.GET("/heatmap", h.handleHeatmap)
	m.POST("/predict/monthly", h.handlePredict(domain.RentalMonthly), authed)
	m.POST("/predict/daily", h.handlePredict(domain.RentalDaily), authed)
}

func (h *Handler) handleHealth(c echo.Context) error {
	return presenter.OK(c, echo.Map{"status": "ok"})
}

func (h *Handler) handleList(c echo.Context) error {
	properties, err := h.property.List(c.Request().Context())
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, properties)
}

func (h *Handler) handleSearch(c echo.Context) error {
	filter, err := parseFilter(c)
	if err != nil {
		return presenter.BadRequest(c, err)
	}
	properties, err := h.property.Search(c.Request().Context(), filter)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, properties)
}

func (h *Handler) handleRecent(c echo.Context) error {
	properties, err := h.property.MostRecent(c.Request().Context())
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, properties)
}

func (h *Handler) handleRecommended(c echo.Context) error {
	ctx := c.Request().Context()
	principal, _ := domain.PrincipalFromContext(ctx)
	return presenter.OK(c, h.recommendation.Recommend(ctx, principal))
}

func (h *Handler) handleMine(c echo.Context) error {
	ctx := c.Request().Context()
	principal, _ := domain.PrincipalFromContext(ctx)
	properties, err := h.property.ListByOwner(ctx, principal.UserID())
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, properties)
}

func (h *Handler) handleByOwner(c echo.Context) error {
	ownerID, err := strconv.ParseInt(c.Param("ownerId"), 10, 64)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid owner id")
	}
	properties, err := h.property.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, properties)
}

func (h *Handler) handleGet(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid property id")
	}
	property, err := h.property.Get(c.Request().Context(), id)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, property)
}

func (h *Handler) handleIsAvailable(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid property id")
	}
	available, err := h.property.IsAvailable(c.Request().Context(), id)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, available)
}

func (h *Handler) handleRentalType(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid property id")
	}
	rentalType, err := h.property.TypeOfRental(c.Request().Context(), id)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, rentalType)
}

func (h *Handler) handleCreate(c echo.Context) error {
	ctx := c.Request().Context()
	principal, _ := domain.PrincipalFromContext(ctx)

	var input domain.PropertyInput
	err := c.Bind(&input)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	property, err := h.property.Create(ctx, principal, input)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, property)
}

func (h *Handler) handleUpdate(c echo.Context) error {
	ctx := c.Request().Context()
	principal, _ := domain.PrincipalFromContext(ctx)

	id, err := pathID(c)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid property id")
	}

	var update domain.PropertyUpdate
	err = c.Bind(&update)
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	property, err := h.property.Update(ctx, id, update, principal.WalletAddress())
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, property)
}

func (h *Handler) handleDelete(c echo.Context) error {
	ctx := c.Request().Context()
	principal, _ := domain.PrincipalFromContext(ctx)

	id, err := pathID(c)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid property id")
	}

	err = h.property.Delete(ctx, id, principal.WalletAddress())
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.NoContent(c)
}

func (h *Handler) handleAvailability(available bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := pathID(c)
		if err != nil {
			return presenter.BadRequestMessage(c, "invalid property id")
		}
		err = h.property.SetAvailability(c.Request().Context(), id, available)
		if err != nil {
			return presenter.Error(c, err)
		}
		return presenter.NoContent(c)
	}
}

func (h *Handler) handleAddImage(c echo.Context) error {
	ctx := c.Request().Context()
	principal, _ := domain.PrincipalFromContext(ctx)

	id, err := pathID(c)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid property id")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return presenter.BadRequestMessage(c, "missing file")
	}
	if file.Size > maxImageSize {
		return presenter.BadRequestMessage(c, "file too large")
	}
	src, err := file.Open()
	if err != nil {
		return presenter.BadRequest(c, err)
	}
	defer src.Close()

	content, err := io.ReadAll(io.LimitReader(src, maxImageSize))
	if err != nil {
		return presenter.BadRequest(c, err)
	}

	property, err := h.property.AddImage(ctx, id, principal.WalletAddress(), file.Filename, file.Header.Get(echo.HeaderContentType), content)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, property)
}

func (h *Handler) handleHeatmap(c echo.Context) error {
	rentalType := domain.TypeOfRental(c.QueryParam("type"))
	if rentalType == "" {
		rentalType = domain.RentalMonthly
	}
	heatmap, err := h.market.Heatmap(c.Request().Context(), rentalType)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, heatmap)
}

func (h *Handler) handlePredict(rentalType domain.TypeOfRental) echo.HandlerFunc {
	return func(c echo.Context) error {
		var request domain.PricePredictionRequest
		err := c.Bind(&request)
		if err != nil {
			return presenter.BadRequest(c, err)
		}
		prediction, err := h.market.PredictPrice(c.Request().Context(), rentalType, request)
		if err != nil {
			return presenter.Error(c, err)
		}
		return presenter.OK(c, prediction)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *Handler) handleRealtime(c echo.Context) error {
	if h.signal == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "realtime is not configured"})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	output := make(chan domain.PropertyEvent)
	go h.signal.Realtime(ctx, output)

	quit := make(chan struct{})
	go func() {
		defer close(quit)
		for {
			// clients only send heartbeats; reading detects the close
			_, _, err := ws.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					slog.DebugContext(
						ctx, "WebSocket closed",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case event := <-output:
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}

func pathID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func parseFilter(c echo.Context) (domain.PropertyFilter, error) {
	filter := domain.PropertyFilter{
		City:           c.QueryParam("city"),
		Country:        c.QueryParam("country"),
		TypeOfRental:   domain.TypeOfRental(c.QueryParam("typeOfRental")),
		TypeOfProperty: c.QueryParam("typeOfProperty"),
	}

	var err error
	if filter.MinRent, err = queryBigInt(c, "minRent"); err != nil {
		return filter, err
	}
	if filter.MaxRent, err = queryBigInt(c, "maxRent"); err != nil {
		return filter, err
	}
	if v := c.QueryParam("minRooms"); v != "" {
		if filter.MinRooms, err = strconv.Atoi(v); err != nil {
			return filter, errors.New("invalid minRooms")
		}
	}
	if filter.MinSqM, err = queryFloat(c, "minSqM"); err != nil {
		return filter, err
	}
	if filter.MaxSqM, err = queryFloat(c, "maxSqM"); err != nil {
		return filter, err
	}
	if filter.OnlyAvailable, err = queryBool(c, "available"); err != nil {
		return filter, err
	}
	if filter.IncludeInactive, err = queryBool(c, "includeInactive"); err != nil {
		return filter, err
	}

	if c.QueryParam("minLat") != "" || c.QueryParam("maxLat") != "" || c.QueryParam("minLng") != "" || c.QueryParam("maxLng") != "" {
		var b domain.GeoBounds
		for name, dst := range map[string]*float64{
			"minLat": &b.MinLatitude,
			"maxLat": &b.MaxLatitude,
			"minLng": &b.MinLongitude,
			"maxLng": &b.MaxLongitude,
		} {
			v, err := strconv.ParseFloat(c.QueryParam(name), 64)
			if err != nil {
				return filter, errors.New("bounds need minLat, maxLat, minLng and maxLng")
			}
			*dst = v
		}
		filter.Bounds = &b
	}
	return filter, nil
}

func queryBigInt(c echo.Context, name string) (*big.Int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	n, ok := new(big.Int).SetString(v, 10)
	if !ok {
		return nil, fmt.Errorf("invalid %s", name)
	}
	return n, nil
}

func queryFloat(c echo.Context, name string) (float64, error) {
	v := c.QueryParam(name)
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return f, nil
}

func queryBool(c echo.Context, name string) (bool, error) {
	v := c.QueryParam(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s", name)
	}
	return b, nil
}
