package models

import (
	"time"
)

// Order status values. Transitions only move forward through this sequence;
// cancellation is modeled as deletion with stock restoration, not a status.
const (
	StatusPending    = "Pending"
	StatusProcessing = "Processing"
	StatusShipped    = "Shipped"
	StatusDelivered  = "Delivered"
)

var statusRank = map[string]int{
	StatusPending:    0,
	StatusProcessing: 1,
	StatusShipped:    2,
	StatusDelivered:  3,
}

// StatusRank returns the position of a status in the lifecycle sequence and
// whether the status is a known value.
func StatusRank(status string) (int, bool) {
	rank, ok := statusRank[status]
	return rank, ok
}

const DefaultAvatar = "https://cdn-icons-png.flaticon.com/512/149/149071.png"

type Product struct {
	ID          uint    `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name        string  `gorm:"not null"                  json:"name"`
	Description string  `gorm:"not null"                  json:"description"`
	Price       float64 `gorm:"not null"                  json:"price"`
	Category    string  `gorm:"not null"                  json:"category"`
	Image       string  `gorm:"not null"                  json:"image"`
	Stock       uint    `gorm:"not null;default:0"        json:"stock"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"not null"                 json:"name"`
	Email        string `gorm:"unique;not null"          json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null;default:user"    json:"role"`
	Avatar       string `json:"avatar"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"          json:"id"`
	Token     string `gorm:"unique;not null"     json:"token"`
	UserID    uint   `gorm:"index;not null"      json:"user_id"`
	Role      string `gorm:"not null"            json:"role"`
	ExpiresAt int64  `gorm:"not null"            json:"expires_at"`
	Revoked   bool   `gorm:"default:false"       json:"revoked"`
}

// ShippingAddress is the snapshot embedded into an order at creation time.
type ShippingAddress struct {
	FullName     string `json:"full_name"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

// PaymentResult holds the gateway identifiers recorded on verification.
type PaymentResult struct {
	RazorpayOrderID   string `json:"razorpay_order_id"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	RazorpaySignature string `json:"razorpay_signature"`
}

type Order struct {
	ID         uint            `gorm:"primaryKey"                       json:"id"`
	UserID     *uint           `gorm:"index"                            json:"user_id"`
	Items      []OrderItem     `gorm:"foreignKey:OrderID"               json:"items"`
	Shipping   ShippingAddress `gorm:"embedded;embeddedPrefix:ship_"    json:"shipping_address"`
	TotalPrice float64         `gorm:"not null"                         json:"total_price"`
	Status     string          `gorm:"not null;default:Pending"         json:"status"`
	IsPaid     bool            `gorm:"default:false"                    json:"is_paid"`
	PaidAt     *time.Time      `json:"paid_at,omitempty"`
	Payment    PaymentResult   `gorm:"embedded;embeddedPrefix:payment_" json:"payment_result"`
	CreatedAt  int64           `gorm:"not null"                         json:"created_at"`
}

// OrderItem captures name, price and image at order-creation time. The
// snapshot keeps delivered orders readable after the product is gone.
type OrderItem struct {
	ID        uint    `gorm:"primaryKey"                  json:"id"`
	OrderID   uint    `gorm:"index;not null"              json:"order_id"`
	ProductID uint    `gorm:"not null"                    json:"product_id"`
	Name      string  `gorm:"not null"                    json:"name"`
	Price     float64 `gorm:"not null"                    json:"price"`
	Image     string  `json:"image"`
	Quantity  uint    `gorm:"default:1;check:quantity>0"  json:"quantity"`
}

type Address struct {
	ID           uint   `gorm:"primaryKey"           json:"id"`
	UserID       uint   `gorm:"index;not null"       json:"user_id"`
	FullName     string `gorm:"not null"             json:"full_name"`
	Phone        string `gorm:"not null"             json:"phone"`
	AddressLine1 string `gorm:"not null"             json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `gorm:"not null"             json:"city"`
	State        string `gorm:"not null"             json:"state"`
	PostalCode   string `gorm:"not null"             json:"postal_code"`
	Country      string `gorm:"not null"             json:"country"`
	IsDefault    bool   `gorm:"default:false"        json:"is_default"`
	CreatedAt    int64  `json:"created_at"`
}
