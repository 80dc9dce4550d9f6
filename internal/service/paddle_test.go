package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"licensing-webhooks/internal/license"
	"licensing-webhooks/internal/model"
)

func paddleEvent(t *testing.T, id, eventType string, data interface{}) *model.PaddleEvent {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return &model.PaddleEvent{EventID: id, EventType: eventType, Data: raw}
}

func monthlyPrice(id string) *model.PaddlePrice {
	return &model.PaddlePrice{
		ID:           id,
		BillingCycle: &model.PaddleBillingCycle{Frequency: 1, Interval: "month"},
	}
}

func TestPaddleTransactionWebOriginCreatesLicenses(t *testing.T) {
	api := &recordingAPI{
		userByMetadata: &model.User{ID: "user_known"},
	}
	svc := NewPaddleService(api, newFakeWebhookEventRepo())

	tx := model.PaddleTransaction{
		ID:             "txn_1",
		Origin:         "web",
		CustomerID:     "ctm_1",
		SubscriptionID: "sub_1",
		Items: []model.PaddleTransactionItem{
			{Price: monthlyPrice("pri_sub"), Quantity: 2},
			{Price: &model.PaddlePrice{ID: "pri_once"}, Quantity: 1},
		},
		Details: &model.PaddleTransactionDetails{
			Totals: &model.PaddleTotals{GrandTotal: "4200", CurrencyCode: "USD"},
			LineItems: []model.PaddleLineItem{
				{
					PriceID:  "pri_sub",
					Quantity: 2,
					Product: &model.PaddleProduct{
						ID: "pro_1",
						CustomData: map[string]string{
							license.PaddleCustomProductID:         "prod_1",
							license.PaddleCustomLicenseTemplateID: "tmpl_1",
						},
					},
				},
				{
					PriceID:  "pri_once",
					Quantity: 1,
					Product: &model.PaddleProduct{
						ID: "pro_2",
						CustomData: map[string]string{
							license.PaddleCustomProductID:         "prod_2",
							license.PaddleCustomLicenseTemplateID: "tmpl_2",
						},
					},
				},
			},
		},
	}

	outcome, err := svc.Dispatch(context.Background(), paddleEvent(t, "evt_1", "transaction.completed", tx))
	require.NoError(t, err)

	assert.Equal(t, 201, outcome.Status)
	assert.Equal(t, "user_known", outcome.UserID)
	assert.Len(t, outcome.Licenses, 3, "2 per-unit subscription licenses + 1 one-time")

	subCreates, oneTimeCreates := 0, 0
	for _, req := range api.createRequests {
		switch req.ProductID {
		case "prod_1":
			subCreates++
			require.Len(t, req.Metadata, 1)
			assert.Equal(t, license.PaddleSubscriptionIDMetadataKey, req.Metadata[0].Key)
			assert.Equal(t, "sub_1", req.Metadata[0].Value)
			require.NotNil(t, req.SubscriptionInterval)
			assert.Equal(t, "P1M", *req.SubscriptionInterval)
		case "prod_2":
			oneTimeCreates++
			require.Len(t, req.Metadata, 1)
			assert.Equal(t, license.PaddleTransactionIDMetadataKey, req.Metadata[0].Key)
			assert.Equal(t, "txn_1", req.Metadata[0].Value)
			require.NotNil(t, req.SubscriptionInterval)
			assert.Empty(t, *req.SubscriptionInterval, "one-time licenses are perpetual")
		}
	}
	assert.Equal(t, 2, subCreates)
	assert.Equal(t, 1, oneTimeCreates)
}

func TestPaddleTransactionWebOriginRequiresCustomer(t *testing.T) {
	api := &recordingAPI{}
	svc := NewPaddleService(api, newFakeWebhookEventRepo())

	tx := model.PaddleTransaction{ID: "txn_1", Origin: "web"}

	_, err := svc.Dispatch(context.Background(), paddleEvent(t, "evt_1", "transaction.completed", tx))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "customer_id")
	assert.Equal(t, 0, api.totalCalls())
}

func TestPaddleRecurringRenewalSplitsSuspendedFromActive(t *testing.T) {
	api := &recordingAPI{
		licenses: []model.License{
			{ID: "lic_active", Suspended: false},
			{ID: "lic_frozen", Suspended: true},
		},
	}
	svc := NewPaddleService(api, newFakeWebhookEventRepo())

	tx := model.PaddleTransaction{
		ID:             "txn_1",
		Origin:         "subscription_recurring",
		SubscriptionID: "sub_1",
		BillingPeriod:  &model.PaddleBillingPeriod{EndsAt: "2026-10-01T00:00:00Z"},
	}

	outcome, err := svc.Dispatch(context.Background(), paddleEvent(t, "evt_1", "transaction.completed", tx))
	require.NoError(t, err)
	assert.Equal(t, 200, outcome.Status)

	assert.Equal(t, []string{"lic_active"}, api.renewedIDs, "the suspended license must not be renewed")
	assert.Equal(t, []string{"lic_frozen"}, api.unsuspendedIDs)
	assert.Equal(t, "2026-10-01T00:00:00Z", api.expiryUpdates["lic_frozen"])
	assert.NotContains(t, api.expiryUpdates, "lic_active")
}

func TestPaddleRecurringRenewalWithoutBillingPeriodSkipsExpiry(t *testing.T) {
	api := &recordingAPI{
		licenses: []model.License{{ID: "lic_frozen", Suspended: true}},
	}
	svc := NewPaddleService(api, newFakeWebhookEventRepo())

	tx := model.PaddleTransaction{
		ID:             "txn_1",
		Origin:         "subscription_recurring",
		SubscriptionID: "sub_1",
	}

	_, err := svc.Dispatch(context.Background(), paddleEvent(t, "evt_1", "transaction.completed", tx))
	require.NoError(t, err)

	assert.Equal(t, []string{"lic_frozen"}, api.unsuspendedIDs)
	assert.Empty(t, api.expiryUpdates)
	assert.Empty(t, api.renewedIDs)
}

func TestPaddleSubscriptionUpdateResumesSuspendedOnly(t *testing.T) {
	api := &recordingAPI{
		licenses: []model.License{
			{ID: "lic_active", Suspended: false},
			{ID: "lic_frozen", Suspended: true},
		},
	}
	svc := NewPaddleService(api, newFakeWebhookEventRepo())

	tx := model.PaddleTransaction{
		ID:             "txn_1",
		Origin:         "subscription_update",
		SubscriptionID: "sub_1",
		BillingPeriod:  &model.PaddleBillingPeriod{EndsAt: "2026-10-01T00:00:00Z"},
	}

	outcome, err := svc.Dispatch(context.Background(), paddleEvent(t, "evt_1", "transaction.completed", tx))
	require.NoError(t, err)

	assert.Equal(t, []string{"lic_frozen"}, outcome.Licenses)
	assert.Equal(t, []string{"lic_frozen"}, api.unsuspendedIDs)
	assert.Equal(t, "2026-10-01T00:00:00Z", api.expiryUpdates["lic_frozen"])
	assert.Empty(t, api.renewedIDs)
}

func TestPaddleUnsupportedOriginAcknowledgedWithoutCalls(t *testing.T) {
	api := &recordingAPI{}
	svc := NewPaddleService(api, newFakeWebhookEventRepo())

	tx := model.PaddleTransaction{ID: "txn_1", Origin: "subscription_charge"}

	outcome, err := svc.Dispatch(context.Background(), paddleEvent(t, "evt_1", "transaction.completed", tx))
	require.NoError(t, err)
	assert.Equal(t, 200, outcome.Status)
	assert.Contains(t, outcome.Message, "Unsupported transaction.completed origin")
	assert.Equal(t, 0, api.totalCalls())
}

func TestPaddleSubscriptionPausedSuspendsAll(t *testing.T) {
	api := &recordingAPI{
		licenses: []model.License{{ID: "lic_1"}, {ID: "lic_2"}},
	}
	svc := NewPaddleService(api, newFakeWebhookEventRepo())

	sub := model.PaddleSubscription{ID: "sub_1", Status: "paused"}

	outcome, err := svc.Dispatch(context.Background(), paddleEvent(t, "evt_1", "subscription.paused", sub))
	require.NoError(t, err)
	assert.Equal(t, 200, outcome.Status)
	assert.ElementsMatch(t, []string{"lic_1", "lic_2"}, api.suspendedIDs)
}

func TestPaddleCustomerCreatedUpsertsUser(t *testing.T) {
	api := &recordingAPI{
		userByMetadata: &model.User{ID: "user_placeholder"},
	}
	svc := NewPaddleService(api, newFakeWebhookEventRepo())

	customer := model.PaddleCustomer{ID: "ctm_1", Email: "real@example.com", Name: "Sam Porter"}

	outcome, err := svc.Dispatch(context.Background(), paddleEvent(t, "evt_1", "customer.created", customer))
	require.NoError(t, err)
	assert.Equal(t, 201, outcome.Status)
	assert.Equal(t, "user_placeholder", outcome.UserID)
	assert.Equal(t, []string{"user_placeholder"}, api.updatedUsers)
}

func TestPaddleCustomerCreatedRequiresEmail(t *testing.T) {
	api := &recordingAPI{}
	svc := NewPaddleService(api, newFakeWebhookEventRepo())

	customer := model.PaddleCustomer{ID: "ctm_1"}

	_, err := svc.Dispatch(context.Background(), paddleEvent(t, "evt_1", "customer.created", customer))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email is required")
	assert.Equal(t, 0, api.totalCalls())
}

func TestPaddleTransactionMissingCustomDataFails(t *testing.T) {
	api := &recordingAPI{userByMetadata: &model.User{ID: "user_known"}}
	svc := NewPaddleService(api, newFakeWebhookEventRepo())

	tx := model.PaddleTransaction{
		ID:         "txn_1",
		Origin:     "web",
		CustomerID: "ctm_1",
		Details: &model.PaddleTransactionDetails{
			LineItems: []model.PaddleLineItem{
				{PriceID: "pri_1", Quantity: 1, Product: &model.PaddleProduct{ID: "pro_1"}},
			},
		},
	}

	_, err := svc.Dispatch(context.Background(), paddleEvent(t, "evt_1", "transaction.completed", tx))
	var recErr *license.ReconciliationError
	require.ErrorAs(t, err, &recErr)
	assert.Equal(t, "user_known", recErr.UserID)
	assert.Empty(t, api.createRequests)
}
