package model

import "encoding/json"

type PaddleEvent struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt string          `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

type PaddleBillingCycle struct {
	Frequency int    `json:"frequency"`
	Interval  string `json:"interval"` // day, week, month, year
}

type PaddlePrice struct {
	ID           string              `json:"id"`
	BillingCycle *PaddleBillingCycle `json:"billing_cycle"`
}

// Top-level transaction item; carries the price used to derive the
// subscription interval.
type PaddleTransactionItem struct {
	Price    *PaddlePrice `json:"price"`
	Quantity int          `json:"quantity"`
}

type PaddleProduct struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	CustomData map[string]string `json:"custom_data"`
}

// Line item under details; carries the product custom data with the
// licensing mapping.
type PaddleLineItem struct {
	PriceID  string         `json:"price_id"`
	Quantity int            `json:"quantity"`
	Product  *PaddleProduct `json:"product"`
}

type PaddleTotals struct {
	GrandTotal   string `json:"grand_total"`
	CurrencyCode string `json:"currency_code"`
}

type PaddleTransactionDetails struct {
	Totals    *PaddleTotals    `json:"totals"`
	LineItems []PaddleLineItem `json:"line_items"`
}

type PaddleBillingPeriod struct {
	StartsAt string `json:"starts_at"`
	EndsAt   string `json:"ends_at"`
}

// transaction.completed payload.
type PaddleTransaction struct {
	ID             string                    `json:"id"`
	Status         string                    `json:"status"`
	Origin         string                    `json:"origin"`
	CustomerID     string                    `json:"customer_id"`
	SubscriptionID string                    `json:"subscription_id"`
	CurrencyCode   string                    `json:"currency_code"`
	Items          []PaddleTransactionItem   `json:"items"`
	Details        *PaddleTransactionDetails `json:"details"`
	BillingPeriod  *PaddleBillingPeriod      `json:"billing_period"`
}

// subscription.paused payload.
type PaddleSubscription struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	CustomerID string `json:"customer_id"`
}

// customer.created payload.
type PaddleCustomer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
