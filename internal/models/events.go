package models

// Event types carried on the storefront exchange.
const (
	EventNotificationEmail = "notification.email"
	EventNotificationSMS   = "notification.sms"
	EventOrderCreated      = "order.created"
	EventOrderCancelled    = "order.cancelled"
)

// NotificationEvent is handed to the notification consumer. Ownership of the
// message passes to the broker at publish time; delivery is best-effort.
type NotificationEvent struct {
	Type string           `json:"type"`
	Data NotificationData `json:"data"`
}

type NotificationData struct {
	To       string               `json:"to"`
	Subject  string               `json:"subject"`
	Body     string               `json:"body"`
	Metadata NotificationMetadata `json:"metadata"`
}

type NotificationMetadata struct {
	OrderID int `json:"orderId"`
}

// OrderEvent announces an inventory-affecting order change to other services.
// The product service only uses it to drop stale cache entries; stock itself
// is mutated transactionally by the order service.
type OrderEvent struct {
	Type        string           `json:"type"`
	OrderID     int              `json:"order_id"`
	UserID      int              `json:"user_id"`
	TotalAmount float64          `json:"total_amount"`
	Items       []OrderItemEvent `json:"items"`
}

type OrderItemEvent struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}
