package models

import (
	"encoding/json"
	"time"
)

// Product is a catalog entry as served by the remote API. The API names its
// identifier "_id"; "id" is accepted as well.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Image       string  `json:"image,omitempty"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
}

func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	var raw struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Product(raw.plain)
	if raw.MongoID != "" {
		p.ID = raw.MongoID
	}
	return nil
}

type Address struct {
	Street string `json:"street,omitempty"`
	City   string `json:"city,omitempty"`
	State  string `json:"state,omitempty"`
	Zip    string `json:"zip,omitempty"`
}

type User struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone,omitempty"`
	Address        *Address   `json:"address,omitempty"`
	ProfilePicture string     `json:"profilePicture,omitempty"`
	CreatedAt      *time.Time `json:"createdAt,omitempty"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var raw struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = User(raw.plain)
	if raw.MongoID != "" {
		u.ID = raw.MongoID
	}
	return nil
}

// Session is complete only when both parts are present.
type Session struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

func (s Session) Complete() bool {
	return s.User != nil && s.Token != ""
}

type CartItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image,omitempty"`
	Quantity  int     `json:"quantity"`
}

func (i CartItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignupDetails struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type AuthResult struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type ProfileUpdate struct {
	Name    string   `json:"name,omitempty"`
	Phone   string   `json:"phone,omitempty"`
	Address *Address `json:"address,omitempty"`
}

type ProfileSummary struct {
	User              *User     `json:"user"`
	OrderCount        int       `json:"orderCount"`
	TotalSpent        float64   `json:"totalSpent"`
	PurchasedProducts []Product `json:"purchasedProducts"`
}

type ShippingInfo struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Address string `json:"address" validate:"required"`
	City    string `json:"city" validate:"required"`
	Zip     string `json:"zip" validate:"required"`
}

// PaymentInput is what the shopper types. It never leaves the process.
type PaymentInput struct {
	CardNumber string `json:"cardNumber"`
	ExpiryDate string `json:"expiryDate"`
	CVV        string `json:"cvv"`
}

type PaymentSummary struct {
	CardLast4  string `json:"cardNumber"`
	ExpiryDate string `json:"expiryDate"`
}

type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image,omitempty"`
}

type OrderDraft struct {
	UserID       string         `json:"userId,omitempty"`
	Items        []OrderItem    `json:"items"`
	Total        float64        `json:"total"`
	ShippingInfo ShippingInfo   `json:"shippingInfo"`
	PaymentInfo  PaymentSummary `json:"paymentInfo"`
}

type OrderConfirmation struct {
	ID        string     `json:"id"`
	Status    string     `json:"status,omitempty"`
	Total     float64    `json:"total,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

func (o *OrderConfirmation) UnmarshalJSON(data []byte) error {
	type plain OrderConfirmation
	var raw struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*o = OrderConfirmation(raw.plain)
	if raw.MongoID != "" {
		o.ID = raw.MongoID
	}
	return nil
}
