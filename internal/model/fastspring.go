package model

import "encoding/json"

// FastSpring delivers a batch of events per POST.
type FSWebhookBatch struct {
	Events []FSEvent `json:"events"`
}

type FSEvent struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Live    bool            `json:"live"`
	Created int64           `json:"created"`
	Data    json.RawMessage `json:"data"`
}

type FSCustomer struct {
	First   string `json:"first"`
	Last    string `json:"last"`
	Email   string `json:"email"`
	Company string `json:"company"`
}

type FSSubscriptionRef struct {
	ID string `json:"id"`
}

type FSDriver struct {
	Type string `json:"type"`
	Path string `json:"path"`
}

type FSOrderItem struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
	// Set when the item itself opens a subscription.
	Subscription *FSSubscriptionRef `json:"subscription"`
	// Set on add-on items billed with an existing subscription.
	ParentSubscription string    `json:"parentSubscription"`
	Driver             *FSDriver `json:"driver"`
	// Seller-side product attributes carrying the licensing mapping.
	Attributes map[string]string `json:"attributes"`
}

// order.completed payload.
type FSOrder struct {
	ID        string        `json:"id"`
	Reference string        `json:"reference"`
	Completed bool          `json:"completed"`
	Currency  string        `json:"currency"`
	Total     json.Number   `json:"total,omitempty"`
	Customer  FSCustomer    `json:"customer"`
	Items     []FSOrderItem `json:"items"`
}

// subscription.charge.completed payload.
type FSCharge struct {
	Status       string            `json:"status"`
	Subscription FSSubscriptionRef `json:"subscription"`
	Order        struct {
		Items []FSOrderItem `json:"items"`
	} `json:"order"`
}

// subscription.deactivated and subscription.payment.overdue payload.
type FSSubscription struct {
	ID    string `json:"id"`
	State string `json:"state"`
}
