// Package checkout turns the cart into an order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/validation"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const MsgPlaceOrder = "Failed to place order. Please try again."

var ErrInProgress = errors.New("an order is already being placed")

type OrderAPI interface {
	CreateOrder(ctx context.Context, draft models.OrderDraft) (*models.OrderConfirmation, error)
}

type Session interface {
	Session() (models.Session, bool)
	Invalidate(ctx context.Context, token string) bool
}

type Cart interface {
	Items() []models.CartItem
	Clear()
}

type Result struct {
	Confirmation *models.OrderConfirmation `json:"confirmation"`
	Draft        models.OrderDraft         `json:"order"`
}

type Orchestrator struct {
	api      OrderAPI
	session  Session
	cart     Cart
	validate *validation.Validator
	log      *slog.Logger

	mu       sync.Mutex
	inFlight bool
}

func New(api OrderAPI, session Session, cart Cart, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = logging.Discard()
	}
	return &Orchestrator{
		api:      api,
		session:  session,
		cart:     cart,
		validate: validation.New(),
		log:      log.With("component", "checkout"),
	}
}

// PlaceOrder submits the current cart. The cart is cleared only when the
// order is confirmed; on any failure it is left exactly as it was.
func (o *Orchestrator) PlaceOrder(ctx context.Context, shipping models.ShippingInfo, payment models.PaymentInput) (*Result, error) {
	items := o.cart.Items()
	if len(items) == 0 {
		return nil, apperr.ErrEmptyCart
	}

	if !o.acquire() {
		return nil, ErrInProgress
	}
	defer o.release()

	sess, signedIn := o.session.Session()
	if signedIn {
		shipping = prefill(shipping, sess.User)
	}
	shipping = trimShipping(shipping)
	if err := o.validate.Struct(shipping); err != nil {
		return nil, apperr.WithMessage(validation.Describe(err), err)
	}

	summary, err := redact(payment)
	if err != nil {
		return nil, apperr.WithMessage("card number is required", err)
	}

	draft := BuildDraft(items, shipping, summary)
	if signedIn {
		draft.UserID = sess.User.ID
	}

	conf, err := o.api.CreateOrder(ctx, draft)
	if err != nil {
		if signedIn && errors.Is(err, apperr.ErrAuth) {
			o.session.Invalidate(ctx, sess.Token)
		}
		o.log.Error("place_order_error", "items", len(draft.Items), "total", draft.Total, "error", err)
		return nil, apperr.WithMessage(MsgPlaceOrder, err)
	}

	o.cart.Clear()
	o.log.Info("order_placed", "order_id", conf.ID, "items", len(draft.Items), "total", draft.Total)
	return &Result{Confirmation: conf, Draft: draft}, nil
}

func (o *Orchestrator) InProgress() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.inFlight
}

func (o *Orchestrator) acquire() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight {
		return false
	}
	o.inFlight = true
	return true
}

func (o *Orchestrator) release() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inFlight = false
}

// BuildDraft snapshots items and totals them from the snapshotted prices.
func BuildDraft(items []models.CartItem, shipping models.ShippingInfo, payment models.PaymentSummary) models.OrderDraft {
	draft := models.OrderDraft{
		Items:        make([]models.OrderItem, 0, len(items)),
		ShippingInfo: shipping,
		PaymentInfo:  payment,
	}
	for _, it := range items {
		draft.Items = append(draft.Items, models.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Image:     it.Image,
		})
		draft.Total += it.Subtotal()
	}
	return draft
}

// redact keeps the last four characters of the whitespace-stripped card
// number and the expiry date. CVV is dropped.
func redact(p models.PaymentInput) (models.PaymentSummary, error) {
	number := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, p.CardNumber)

	if number == "" {
		return models.PaymentSummary{}, fmt.Errorf("card number: %w", apperr.ErrValidation)
	}
	digits := []rune(number)
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}
	return models.PaymentSummary{
		CardLast4:  string(digits),
		ExpiryDate: strings.TrimSpace(p.ExpiryDate),
	}, nil
}

func prefill(s models.ShippingInfo, u *models.User) models.ShippingInfo {
	if u == nil {
		return s
	}
	if strings.TrimSpace(s.Name) == "" {
		s.Name = u.Name
	}
	if strings.TrimSpace(s.Email) == "" {
		s.Email = u.Email
	}
	return s
}

func trimShipping(s models.ShippingInfo) models.ShippingInfo {
	return models.ShippingInfo{
		Name:    strings.TrimSpace(s.Name),
		Email:   strings.TrimSpace(s.Email),
		Address: strings.TrimSpace(s.Address),
		City:    strings.TrimSpace(s.City),
		Zip:     strings.TrimSpace(s.Zip),
	}
}
