package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/apiclient"
	"github.com/Skotchmaster/storefront/internal/cart"
	"github.com/Skotchmaster/storefront/internal/checkout"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/middleware/csrf"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/Skotchmaster/storefront/internal/storage"
)

// remoteAPI is a fake of the remote storefront API.
type remoteAPI struct {
	mu          sync.Mutex
	orderStatus int
	orders      []map[string]any
	proxied     []*http.Request
}

func (r *remoteAPI) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case req.URL.Path == "/api/products":
		r.proxied = append(r.proxied, req.Clone(context.Background()))
		_, _ = w.Write([]byte(`[{"_id":"A","name":"Lamp","price":10}]`))
	case req.URL.Path == "/api/products/A":
		_, _ = w.Write([]byte(`{"_id":"A","name":"Lamp","price":10,"image":"lamp.png"}`))
	case req.URL.Path == "/api/products/B":
		_, _ = w.Write([]byte(`{"_id":"B","name":"Desk","price":5}`))
	case strings.HasPrefix(req.URL.Path, "/api/products/"):
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Product not found"}`))
	case req.URL.Path == "/api/auth/login":
		var creds models.Credentials
		_ = json.NewDecoder(req.Body).Decode(&creds)
		if creds.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"user":{"_id":"u1","name":"Ann","email":"ann@example.com"},"token":"t1"}`))
	case req.URL.Path == "/api/auth/me":
		if req.Header.Get("Authorization") != "Bearer t1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"user":{"_id":"u1","name":"Ann"},"orderCount":1,"totalSpent":25}`))
	case req.URL.Path == "/api/orders":
		var body map[string]any
		_ = json.NewDecoder(req.Body).Decode(&body)
		r.orders = append(r.orders, body)
		if r.orderStatus != 0 {
			w.WriteHeader(r.orderStatus)
			_, _ = w.Write([]byte(`{"message":"boom"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"_id":"o1","status":"pending","total":25}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type env struct {
	e       *echo.Echo
	remote  *remoteAPI
	session *session.Manager
	cart    *cart.Store
	events  *events.MemoryPublisher
}

func newEnv(t *testing.T, csrfCfg *csrf.Config) *env {
	t.Helper()

	remote := &remoteAPI{}
	srv := httptest.NewServer(remote)
	t.Cleanup(srv.Close)

	persist := storage.NewPersistence(storage.NewMemoryStore(), nil)
	var mgr *session.Manager
	client := apiclient.NewClient(srv.URL+"/api", apiclient.WithTokenSource(func(context.Context) string {
		return mgr.Token()
	}))
	mgr = session.New(context.Background(), client, persist)
	c := cart.NewStore()
	pub := &events.MemoryPublisher{}

	e := echo.New()
	require.NoError(t, Register(e, &Deps{
		Session:  mgr,
		Cart:     c,
		Checkout: checkout.New(client, mgr, c, nil),
		Catalog:  client,
		Events:   pub,
		APIURL:   srv.URL + "/api",
		CSRF:     csrfCfg,
	}))

	return &env{e: e, remote: remote, session: mgr, cart: c, events: pub}
}

func (v *env) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	v.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (v *env) login(t *testing.T) {
	t.Helper()
	rec := v.do(t, http.MethodPost, "/api/session/login", `{"email":"ann@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

const orderBody = `{"shipping":{"name":"Ann","email":"ann@example.com","address":"1 Main","city":"Springfield","zip":"62701"},
	"payment":{"cardNumber":"4242 4242 4242 4242","expiryDate":"12/29","cvv":"123"}}`

func TestHealth(t *testing.T) {
	t.Parallel()

	v := newEnv(t, nil)
	assert.Equal(t, http.StatusOK, v.do(t, http.MethodGet, "/health/live", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, v.do(t, http.MethodGet, "/health/ready", "").Code)

	require.NoError(t, v.session.Restore(context.Background()))
	assert.Equal(t, http.StatusOK, v.do(t, http.MethodGet, "/health/ready", "").Code)
}

func TestLoginFlow(t *testing.T) {
	t.Parallel()

	v := newEnv(t, nil)

	rec := v.do(t, http.MethodPost, "/api/session/login", `{"email":"ann@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, session.MsgLogin, decode[errorBody](t, rec).Error)

	rec = v.do(t, http.MethodPost, "/api/session/login", `{"email":"ann@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[session.Snapshot](t, rec)
	assert.True(t, snap.IsAuthenticated)
	assert.Equal(t, "authenticated", snap.State)
	assert.Equal(t, "u1", snap.User.ID)
	assert.NotContains(t, rec.Body.String(), "t1", "token stays server side")

	rec = v.do(t, http.MethodGet, "/api/session/profile", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[models.ProfileSummary](t, rec).OrderCount)

	rec = v.do(t, http.MethodPost, "/api/session/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[session.Snapshot](t, rec).IsAuthenticated)

	var types []string
	for _, p := range v.events.Events() {
		assert.Equal(t, events.TopicUser, p.Topic)
		types = append(types, p.Event.Type)
	}
	assert.Equal(t, []string{"logged_in", "logged_out"}, types)
}

func TestLogin_InvalidInput(t *testing.T) {
	t.Parallel()

	v := newEnv(t, nil)
	rec := v.do(t, http.MethodPost, "/api/session/login", `{"email":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[errorBody](t, rec).Error, "email must be a valid email")
}

func TestProfile_RequiresSession(t *testing.T) {
	t.Parallel()

	v := newEnv(t, nil)
	assert.Equal(t, http.StatusUnauthorized, v.do(t, http.MethodGet, "/api/session/profile", "").Code)
	assert.Equal(t, http.StatusUnauthorized, v.do(t, http.MethodPut, "/api/session/profile-picture", `{"profilePicture":"data:image/png;base64,AA"}`).Code)
}

func TestCartFlow(t *testing.T) {
	t.Parallel()

	v := newEnv(t, nil)

	rec := v.do(t, http.MethodPost, "/api/cart/items", `{"productId":"A"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	v.do(t, http.MethodPost, "/api/cart/items", `{"productId":"A"}`)
	rec = v.do(t, http.MethodPost, "/api/cart/items", `{"productId":"B"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	snap := decode[cart.Snapshot](t, rec)
	assert.Equal(t, 3, snap.TotalItems)
	assert.Equal(t, 25.0, snap.TotalPrice)
	assert.Equal(t, "lamp.png", snap.Items[0].Image)

	rec = v.do(t, http.MethodPatch, "/api/cart/items/A", `{"quantity":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	snap = decode[cart.Snapshot](t, rec)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "B", snap.Items[0].ProductID)

	assert.Equal(t, http.StatusBadRequest, v.do(t, http.MethodPatch, "/api/cart/items/B", `{}`).Code)

	rec = v.do(t, http.MethodDelete, "/api/cart/items/B", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[cart.Snapshot](t, rec).Items)

	for _, p := range v.events.Events() {
		assert.Equal(t, events.TopicCart, p.Topic)
		assert.Equal(t, "guest", p.Key)
	}
}

func TestCart_UnknownProduct(t *testing.T) {
	t.Parallel()

	v := newEnv(t, nil)
	assert.Equal(t, http.StatusNotFound, v.do(t, http.MethodPost, "/api/cart/items", `{"productId":"zzz"}`).Code)
	assert.Equal(t, http.StatusBadRequest, v.do(t, http.MethodPost, "/api/cart/items", `{}`).Code)
	assert.True(t, v.cart.IsEmpty())
}

func TestCheckout_EmptyCart(t *testing.T) {
	t.Parallel()

	v := newEnv(t, nil)
	rec := v.do(t, http.MethodPost, "/api/checkout", orderBody)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, v.remote.orders)
}

func TestCheckout_Success(t *testing.T) {
	t.Parallel()

	v := newEnv(t, nil)
	v.login(t)
	v.do(t, http.MethodPost, "/api/cart/items", `{"productId":"A"}`)
	v.do(t, http.MethodPost, "/api/cart/items", `{"productId":"A"}`)
	v.do(t, http.MethodPost, "/api/cart/items", `{"productId":"B"}`)

	rec := v.do(t, http.MethodPost, "/api/checkout", orderBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	res := decode[checkout.Result](t, rec)
	assert.Equal(t, "o1", res.Confirmation.ID)
	assert.Equal(t, 25.0, res.Draft.Total)
	assert.True(t, v.cart.IsEmpty())

	require.Len(t, v.remote.orders, 1)
	sent := v.remote.orders[0]
	assert.Equal(t, "u1", sent["userId"])
	assert.Equal(t, map[string]any{"cardNumber": "4242", "expiryDate": "12/29"}, sent["paymentInfo"])
	assert.NotContains(t, rec.Body.String(), "4242 4242")

	var orderEvents int
	for _, p := range v.events.Events() {
		if p.Topic == events.TopicOrder {
			orderEvents++
			assert.Equal(t, "u1", p.Key)
		}
	}
	assert.Equal(t, 1, orderEvents)
}

func TestCheckout_RemoteFailureKeepsCart(t *testing.T) {
	t.Parallel()

	v := newEnv(t, nil)
	v.remote.orderStatus = http.StatusInternalServerError
	v.do(t, http.MethodPost, "/api/cart/items", `{"productId":"A"}`)

	rec := v.do(t, http.MethodPost, "/api/checkout", orderBody)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, checkout.MsgPlaceOrder, decode[errorBody](t, rec).Error)
	assert.Equal(t, 1, v.cart.TotalItems())
}

func TestProductsProxy(t *testing.T) {
	t.Parallel()

	v := newEnv(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.AddCookie(&http.Cookie{Name: "XSRF-TOKEN", Value: "local"})
	rec := httptest.NewRecorder()
	v.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"Lamp"`)

	require.Len(t, v.remote.proxied, 1)
	assert.Empty(t, v.remote.proxied[0].Header.Get("Cookie"))
}

func TestCSRF_Enforced(t *testing.T) {
	t.Parallel()

	cfg := csrf.DefaultConfig()
	v := newEnv(t, &cfg)

	rec := v.do(t, http.MethodPost, "/api/cart/items", `{"productId":"A"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.True(t, v.cart.IsEmpty())

	assert.Equal(t, http.StatusOK, v.do(t, http.MethodGet, "/api/cart", "").Code)
}
