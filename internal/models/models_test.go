package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProduct_AcceptsBothIdentifierNames(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "mongo style", body: `{"_id":"p1","name":"Lamp","price":10}`, want: "p1"},
		{name: "plain id", body: `{"id":"p2","name":"Lamp","price":10}`, want: "p2"},
		{name: "both prefers _id", body: `{"_id":"p3","id":"other","price":1}`, want: "p3"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var p Product
			require.NoError(t, json.Unmarshal([]byte(tt.body), &p))
			assert.Equal(t, tt.want, p.ID)
		})
	}
}

func TestUser_DecodesRemoteShape(t *testing.T) {
	t.Parallel()

	body := `{"_id":"u1","name":"Ann","email":"ann@example.com",
		"address":{"street":"1 Main","city":"Springfield","state":"IL","zip":"62701"},
		"createdAt":"2024-03-01T10:00:00Z","role":"customer"}`

	var u User
	require.NoError(t, json.Unmarshal([]byte(body), &u))
	assert.Equal(t, "u1", u.ID)
	require.NotNil(t, u.Address)
	assert.Equal(t, "62701", u.Address.Zip)
	require.NotNil(t, u.CreatedAt)
	assert.Equal(t, 2024, u.CreatedAt.Year())
}

func TestSession_Complete(t *testing.T) {
	t.Parallel()

	assert.True(t, Session{User: &User{ID: "u1"}, Token: "t1"}.Complete())
	assert.False(t, Session{User: &User{ID: "u1"}}.Complete())
	assert.False(t, Session{Token: "t1"}.Complete())
}

func TestPaymentSummary_WireName(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(PaymentSummary{CardLast4: "4242", ExpiryDate: "12/29"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"cardNumber":"4242","expiryDate":"12/29"}`, string(b))
}
