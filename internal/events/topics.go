package events

// Topics emitted by the checkout engine.
const (
	// TopicOrderCompleted fires after payment is recorded and the receipt built.
	TopicOrderCompleted = "pos.order.completed"
	// TopicOrderHeld fires after a cart is parked on the backend.
	TopicOrderHeld = "pos.order.held"
	// TopicOrderVoided fires when an un-submitted cart is voided locally.
	TopicOrderVoided = "pos.order.voided"
	// TopicDrawerPulse fires for cash tenders only, once per completed sale.
	TopicDrawerPulse = "pos.drawer.pulse"
	// TopicSessionOpened fires when a register shift is opened.
	TopicSessionOpened = "pos.session.opened"
)
