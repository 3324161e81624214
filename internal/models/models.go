package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type AvailabilityMode string

const (
	ModeInStock  AvailabilityMode = "in_stock"
	ModePreorder AvailabilityMode = "preorder"
	ModeWaiting  AvailabilityMode = "waiting"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusProcessing,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusFailed    PaymentStatus = "failed"
)

type User struct {
	ID           int64     `json:"id"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	FullName     *string   `json:"full_name,omitempty"`
	Email        *string   `json:"email,omitempty"`
	Telegram     *string   `json:"telegram,omitempty"`
	VK           *string   `json:"vk,omitempty"`
	Address      *string   `json:"address,omitempty"`
	CDEKPoint    *string   `json:"cdek_point,omitempty"`
	IsAdmin      bool      `json:"is_admin"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type Product struct {
	ID               int64            `json:"id"`
	Article          string           `json:"article"`
	Name             string           `json:"name"`
	Description      *string          `json:"description,omitempty"`
	Price            decimal.Decimal  `json:"price"`
	Sizes            []string         `json:"sizes"`
	SizeTable        json.RawMessage  `json:"size_table,omitempty"`
	CareInstructions *string          `json:"care_instructions,omitempty"`
	Mode             AvailabilityMode `json:"order_type"`
	StockCount       int              `json:"stock_count"`
	WavesTotal       int              `json:"preorder_waves_total"`
	WaveCapacity     int              `json:"preorder_wave_capacity"`
	CurrentWave      int              `json:"current_wave"`
	CurrentWaveCount int              `json:"current_wave_count"`
	IsActive         bool             `json:"is_active"`
	IsArchived       bool             `json:"is_archived"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	Media            []ProductMedia   `json:"media,omitempty"`
}

type ProductMedia struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	URL       string    `json:"url"`
	Position  int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
}

type PromoCode struct {
	ID              int64           `json:"id"`
	Code            string          `json:"code"`
	Description     *string         `json:"description,omitempty"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	MaxUses         *int            `json:"max_uses,omitempty"`
	CurrentUses     int             `json:"current_uses"`
	ValidFrom       *time.Time      `json:"valid_from,omitempty"`
	ValidUntil      *time.Time      `json:"valid_until,omitempty"`
	IsActive        bool            `json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	ProductIDs      []int64         `json:"product_ids,omitempty"`
}

type Order struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	OrderNumber     string          `json:"order_number"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	FinalAmount     decimal.Decimal `json:"final_amount"`
	Status          OrderStatus     `json:"status"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	TrackingNumber  *string         `json:"tracking_number,omitempty"`
	DeliveryAddress *string         `json:"delivery_address,omitempty"`
	CDEKPoint       *string         `json:"cdek_point,omitempty"`
	PaymentID       *string         `json:"payment_id,omitempty"`
	PaymentURL      *string         `json:"payment_url,omitempty"`
	ReceiptURL      *string         `json:"receipt_url,omitempty"`
	PromoCodeID     *int64          `json:"promo_code_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	ShippedAt       *time.Time      `json:"shipped_at,omitempty"`
	Items           []OrderItem     `json:"items"`
}

type OrderItem struct {
	ID           int64           `json:"id"`
	OrderID      int64           `json:"order_id"`
	ProductID    int64           `json:"product_id"`
	Size         string          `json:"size"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"price"`
	IsPreorder   bool            `json:"is_preorder"`
	PreorderWave *int            `json:"preorder_wave,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

type Page struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	IsPublished bool      `json:"is_published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
