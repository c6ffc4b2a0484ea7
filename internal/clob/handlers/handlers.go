// Package handlers provides HTTP handlers for the matching engine's public
// operations.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/orbitex/clob/internal/clob/engine"
	"github.com/orbitex/clob/internal/clob/model"
	"github.com/orbitex/clob/pkg/errors"
)

const (
	defaultTradeLimit = 50
	maxTradeLimit     = 1000
)

var validate = validator.New()

// Handler handles order, trade and book HTTP requests for one engine.
type Handler struct {
	engine *engine.Engine
	logger *zap.Logger
}

// New creates a handler bound to the given engine.
func New(eng *engine.Engine, logger *zap.Logger) *Handler {
	return &Handler{engine: eng, logger: logger}
}

// Register mounts the API routes on the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/orders", h.CreateOrder)
	rg.GET("/orders/:id", h.GetOrder)
	rg.GET("/trades", h.ListTrades)
	rg.GET("/trades/:id", h.GetTrade)
	rg.GET("/book", h.GetBook)
	rg.GET("/book/best", h.GetTopOfBook)
}

// createOrderRequest represents an order placement request
type createOrderRequest struct {
	Trader   string          `json:"trader" binding:"required" validate:"required"`
	Side     string          `json:"side" binding:"required" validate:"oneof=BUY SELL"`
	Price    decimal.Decimal `json:"price" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

// errorResponse is the JSON error envelope
type errorResponse struct {
	Error   string              `json:"error"`
	Message string              `json:"message,omitempty"`
	Fields  []errors.FieldError `json:"fields,omitempty"`
}

func (h *Handler) renderError(c *gin.Context, err error) {
	status := errors.StatusCode(err)
	if status == http.StatusInternalServerError {
		// Invariant violations must stay visible as server faults.
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, errorResponse{Error: errors.KindInternal, Message: "internal error"})
		return
	}
	var e *errors.Error
	if errors.As(err, &e) {
		c.JSON(status, errorResponse{Error: e.Kind, Message: e.Message, Fields: e.Fields})
		return
	}
	c.JSON(status, errorResponse{Error: "Error", Message: err.Error()})
}

// CreateOrder handles POST /orders
func (h *Handler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("malformed order request", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:   errors.KindInvalid,
			Message: "invalid order payload",
		})
		return
	}
	if err := validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{
			Error:   errors.KindInvalid,
			Message: err.Error(),
		})
		return
	}

	order, err := h.engine.CreateOrder(model.OrderInput{
		Trader:   req.Trader,
		Side:     req.Side,
		Price:    req.Price,
		Quantity: req.Quantity,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetOrder handles GET /orders/:id
func (h *Handler) GetOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.renderError(c, errors.Invalid.Explain("malformed order id"))
		return
	}
	order, err := h.engine.GetOrder(id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// GetTrade handles GET /trades/:id
func (h *Handler) GetTrade(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.renderError(c, errors.Invalid.Explain("malformed trade id"))
		return
	}
	trade, err := h.engine.GetTrade(id)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, trade)
}

// ListTrades handles GET /trades
func (h *Handler) ListTrades(c *gin.Context) {
	limit := defaultTradeLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.renderError(c, errors.Invalid.Explain("limit must be a positive integer"))
			return
		}
		limit = n
	}
	if limit > maxTradeLimit {
		limit = maxTradeLimit
	}
	c.JSON(http.StatusOK, gin.H{"trades": h.engine.ListTrades(limit)})
}

// GetBook handles GET /book
func (h *Handler) GetBook(c *gin.Context) {
	book, err := h.engine.AggregatedBook()
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

// GetTopOfBook handles GET /book/best
func (h *Handler) GetTopOfBook(c *gin.Context) {
	top, err := h.engine.TopOfBook()
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, top)
}
