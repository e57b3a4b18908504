package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/samber/lo"

	"github.com/theatashaikh/locomeds/internal/order"
	"github.com/theatashaikh/locomeds/internal/vendor"
)

// OrderPlaced carries everything the notification dispatcher needs to
// format the vendor and consumer emails without further lookups.
type OrderPlaced struct {
	EventID                  string                `json:"eventId"`
	OrderID                  string                `json:"orderId"`
	UserID                   string                `json:"userId"`
	UserContactNumber        string                `json:"userContactNumber"`
	VendorID                 string                `json:"vendorId"`
	VendorEmail              string                `json:"vendorEmail"`
	VendorFirstName          string                `json:"vendorFirstName"`
	Zone                     string                `json:"zone"`
	Items                    []OrderPlacedItem     `json:"items"`
	TotalAmount              string                `json:"totalAmount"`
	DiscountPercentage       string                `json:"discountPercentage"`
	TotalAmountAfterDiscount string                `json:"totalAmountAfterDiscount"`
	DeliveryCharge           string                `json:"deliveryCharge"`
	ShippingAddress          order.ShippingAddress `json:"shippingAddress"`
	OccurredAt               time.Time             `json:"occurredAt"`
}

type OrderPlacedItem struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	UnitPrice   string `json:"unitPrice"`
	Quantity    int    `json:"quantity"`
}

type OrderStatusChanged struct {
	EventID    string    `json:"eventId"`
	OrderID    string    `json:"orderId"`
	UserID     string    `json:"userId"`
	OldStatus  string    `json:"oldStatus"`
	NewStatus  string    `json:"newStatus"`
	OccurredAt time.Time `json:"occurredAt"`
}

type Publisher struct {
	ch *amqp.Channel
}

func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	return &Publisher{ch: ch}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

// PublishOrderPlaced emits the notification event for a freshly committed
// order. The checkout flow treats this as best-effort.
func (p *Publisher) PublishOrderPlaced(ctx context.Context, o order.Order, v vendor.Vendor) error {
	ev := OrderPlaced{
		EventID:           uuid.NewString(),
		OrderID:           o.ID,
		UserID:            o.UserID,
		UserContactNumber: o.ContactNumber,
		VendorID:          v.ID,
		VendorEmail:       v.Email,
		VendorFirstName:   v.FirstName,
		Zone:              o.Zone,
		Items: lo.Map(o.Items, func(it order.Item, _ int) OrderPlacedItem {
			return OrderPlacedItem{
				ProductID:   it.ProductID,
				ProductName: it.ProductName,
				UnitPrice:   it.UnitPrice.String(),
				Quantity:    it.Quantity,
			}
		}),
		TotalAmount:              o.TotalAmount.String(),
		DiscountPercentage:       o.DiscountPercentage.String(),
		TotalAmountAfterDiscount: o.TotalAmountAfterDiscount.String(),
		DeliveryCharge:           o.DeliveryCharge.String(),
		ShippingAddress:          o.ShippingAddress,
		OccurredAt:               time.Now().UTC(),
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderPlaced: %w", err)
	}
	return p.publishJSON(ctx, OrderPlacedRoutingKey, body)
}

func (p *Publisher) PublishOrderStatusChanged(ctx context.Context, o order.Order, oldStatus order.Status) error {
	ev := OrderStatusChanged{
		EventID:    uuid.NewString(),
		OrderID:    o.ID,
		UserID:     o.UserID,
		OldStatus:  string(oldStatus),
		NewStatus:  string(o.Status),
		OccurredAt: time.Now().UTC(),
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal OrderStatusChanged: %w", err)
	}
	return p.publishJSON(ctx, OrderStatusRoutingKey, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	return p.ch.PublishWithContext(ctx,
		EventsExchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
