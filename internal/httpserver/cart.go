package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type Catalog interface {
	GetProduct(ctx context.Context, id string) (*models.Product, error)
}

type CartHTTP struct {
	Cart    *cart.Store
	Catalog Catalog
	Session *session.Manager
	Events  events.Publisher
}

func (h *CartHTTP) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Cart.Snapshot())
}

func (h *CartHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "add.cart")

	var req struct {
		ProductID string `json:"productId"`
	}
	if err := c.Bind(&req); err != nil || req.ProductID == "" {
		l.Warn("add_to_cart_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, errorBody{Error: "productId required"})
	}

	// price and name are taken from the catalog at add time, never from the client
	p, err := h.Catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		return respondError(c, l, "add_to_cart_error", err, "Unable to add this product. Please try again.")
	}
	if err := h.Cart.Add(*p); err != nil {
		return respondError(c, l, "add_to_cart_error", err, "Unable to add this product. Please try again.")
	}

	h.emit(ctx, "cart_item_added", echo.Map{"productId": p.ID, "price": p.Price})
	l.Info("item added to cart", "product_id", p.ID)
	return c.JSON(http.StatusCreated, h.Cart.Snapshot())
}

func (h *CartHTTP) UpdateQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "update.cart")

	var req struct {
		Quantity *int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil || req.Quantity == nil {
		l.Warn("update_cart_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, errorBody{Error: "quantity required"})
	}

	id := c.Param("id")
	h.Cart.UpdateQuantity(id, *req.Quantity)

	h.emit(ctx, "cart_quantity_updated", echo.Map{"productId": id, "quantity": *req.Quantity})
	return c.JSON(http.StatusOK, h.Cart.Snapshot())
}

func (h *CartHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	h.Cart.Remove(id)

	h.emit(ctx, "cart_item_removed", echo.Map{"productId": id})
	return c.JSON(http.StatusOK, h.Cart.Snapshot())
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	h.Cart.Clear()

	h.emit(ctx, "cart_cleared", nil)
	return c.JSON(http.StatusOK, h.Cart.Snapshot())
}

func (h *CartHTTP) emit(ctx context.Context, typ string, payload any) {
	userID := ""
	if u := h.Session.User(); u != nil {
		userID = u.ID
	}
	key := userID
	if key == "" {
		key = "guest"
	}
	events.Emit(ctx, h.Events, events.TopicCart, key, events.New(typ, userID, payload))
}
