package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CheckoutHTTP struct {
	Checkout *checkout.Orchestrator
	Events   events.Publisher
}

type placeOrderRequest struct {
	Shipping models.ShippingInfo `json:"shipping"`
	Payment  models.PaymentInput `json:"payment"`
}

func (h *CheckoutHTTP) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.place.order")

	var req placeOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("place_order_error", "status", 400, "error", err)
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid body"})
	}

	res, err := h.Checkout.PlaceOrder(ctx, req.Shipping, req.Payment)
	if err != nil {
		return respondError(c, l, "place_order_error", err, checkout.MsgPlaceOrder)
	}

	key := res.Draft.UserID
	if key == "" {
		key = res.Confirmation.ID
	}
	events.Emit(ctx, h.Events, events.TopicOrder, key, events.New("order_placed", res.Draft.UserID, echo.Map{
		"orderId": res.Confirmation.ID,
		"items":   len(res.Draft.Items),
		"total":   res.Draft.Total,
	}))
	return c.JSON(http.StatusCreated, res)
}
