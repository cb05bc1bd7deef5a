package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/cart"
	"github.com/neoscienzatechnology-lgtm/ecommerce/internal/domain"
	pkgkafka "github.com/neoscienzatechnology-lgtm/ecommerce/pkg/kafka"
	"github.com/neoscienzatechnology-lgtm/ecommerce/pkg/logger"
)

// TopicCart carries every storefront cart event.
var TopicCart = pkgkafka.Topic("storefront", "cart")

// Event types.
const (
	TypeItemAdded       = "cart.item_added"
	TypeItemRemoved     = "cart.item_removed"
	TypeQuantityChanged = "cart.quantity_changed"
	TypeCleared         = "cart.cleared"
	TypeCheckedOut      = "cart.checked_out"
)

const (
	AggregateTypeCart = "cart"
	SourceStorefront  = "storefront"
)

// CartChangedData is the payload of every cart mutation event.
type CartChangedData struct {
	CartKey     string         `json:"cart_key"`
	ProductID   int64          `json:"product_id,omitempty"`
	Delta       int            `json:"delta,omitempty"`
	Items       []CartItemData `json:"items"`
	ItemCount   int            `json:"item_count"`
	TotalAmount domain.Cents   `json:"total_amount"`
	Currency    string         `json:"currency"`
}

// CartItemData is one line item in an event payload.
type CartItemData struct {
	ProductID int64        `json:"product_id"`
	Name      string       `json:"name"`
	Price     domain.Cents `json:"price"`
	Quantity  int          `json:"quantity"`
}

// CheckedOutData is the payload of a cart.checked_out event.
type CheckedOutData struct {
	CartKey     string         `json:"cart_key"`
	Items       []CartItemData `json:"items"`
	ItemCount   int            `json:"item_count"`
	TotalAmount domain.Cents   `json:"total_amount"`
	Currency    string         `json:"currency"`
}

// Publisher is the subset of *pkgkafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront cart events to Kafka. A nil *Producer is
// valid and publishes nothing, which is how events are disabled.
type Producer struct {
	publisher Publisher
	cartKey   string
	logger    *slog.Logger
}

// NewProducer creates a producer for the cart stored under cartKey.
func NewProducer(publisher Publisher, cartKey string, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, cartKey: cartKey, logger: logger}
}

// OnCartChanged is a cart.Listener. Changes flagged NoOp publish nothing.
// Publish failures are logged only; the cart mutation has already been
// applied and saved.
func (p *Producer) OnCartChanged(ctx context.Context, change cart.Change) {
	if p == nil || change.NoOp {
		return
	}
	if err := p.PublishCartChanged(ctx, change); err != nil {
		p.logger.WarnContext(ctx, "failed to publish cart event",
			slog.String("op", string(change.Op)),
			slog.String("error", err.Error()),
		)
	}
}

// PublishCartChanged publishes the event matching change.Op.
func (p *Producer) PublishCartChanged(ctx context.Context, change cart.Change) error {
	if p == nil {
		return nil
	}

	data := CartChangedData{
		CartKey:     p.cartKey,
		ProductID:   change.ProductID,
		Delta:       change.Delta,
		Items:       itemData(change.Items),
		ItemCount:   domain.TotalItemCount(change.Items),
		TotalAmount: domain.TotalPrice(change.Items),
		Currency:    domain.Currency,
	}
	return p.publish(ctx, typeForOp(change.Op), data)
}

// PublishCheckedOut publishes a cart.checked_out event for items.
func (p *Producer) PublishCheckedOut(ctx context.Context, items []domain.LineItem) error {
	if p == nil {
		return nil
	}

	data := CheckedOutData{
		CartKey:     p.cartKey,
		Items:       itemData(items),
		ItemCount:   domain.TotalItemCount(items),
		TotalAmount: domain.TotalPrice(items),
		Currency:    domain.Currency,
	}
	return p.publish(ctx, TypeCheckedOut, data)
}

func (p *Producer) publish(ctx context.Context, eventType string, data any) error {
	event, err := pkgkafka.NewEvent(eventType, p.cartKey, AggregateTypeCart, SourceStorefront, data,
		pkgkafka.WithCorrelationID(logger.CorrelationIDFromContext(ctx)),
	)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}

	if err := p.publisher.Publish(ctx, TopicCart, event); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}

	p.logger.DebugContext(ctx, "published cart event",
		slog.String("event_type", eventType),
		slog.String("event_id", event.EventID),
	)
	return nil
}

func typeForOp(op cart.Op) string {
	switch op {
	case cart.OpAdd:
		return TypeItemAdded
	case cart.OpRemove:
		return TypeItemRemoved
	case cart.OpChangeQuantity:
		return TypeQuantityChanged
	case cart.OpClear:
		return TypeCleared
	default:
		return "cart." + string(op)
	}
}

func itemData(items []domain.LineItem) []CartItemData {
	out := make([]CartItemData, len(items))
	for i, it := range items {
		out[i] = CartItemData{
			ProductID: it.ID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		}
	}
	return out
}
