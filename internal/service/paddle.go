package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"licensing-webhooks/internal/client"
	"licensing-webhooks/internal/license"
	"licensing-webhooks/internal/model"
	"licensing-webhooks/internal/repository"
	"licensing-webhooks/pkg/logging"
)

const providerPaddle = "PADDLE"

// Paddle transaction origins this service reacts to.
const (
	originWeb                   = "web"
	originAPI                   = "api"
	originSubscriptionRecurring = "subscription_recurring"
	originSubscriptionUpdate    = "subscription_update"
)

type PaddleService interface {
	Dispatch(ctx context.Context, event *model.PaddleEvent) (*license.Outcome, error)
}

type paddleServiceImpl struct {
	api              client.Cryptlex
	users            *license.UserResolver
	executor         *license.Executor
	webhookEventRepo repository.WebhookEventRepository
}

func NewPaddleService(api client.Cryptlex, webhookEventRepo repository.WebhookEventRepository) PaddleService {
	return &paddleServiceImpl{
		api:              api,
		users:            license.NewUserResolver(api),
		executor:         license.NewExecutor(api),
		webhookEventRepo: webhookEventRepo,
	}
}

func (s *paddleServiceImpl) Dispatch(ctx context.Context, event *model.PaddleEvent) (*license.Outcome, error) {
	processed, err := s.webhookEventRepo.Exists(event.EventID)
	if err != nil {
		logging.Errorf("webhook event lookup failed for %s: %v", event.EventID, err)
	}
	if processed {
		return &license.Outcome{Status: 200, Message: "Event already processed."}, nil
	}

	var (
		outcome  *license.Outcome
		amount   decimal.Decimal
		currency string
	)
	switch event.EventType {
	case "transaction.completed":
		outcome, amount, currency, err = s.handleTransactionCompleted(ctx, event)
	case "subscription.paused":
		outcome, err = s.handleSubscriptionPaused(ctx, event)
	case "customer.created":
		outcome, err = s.handleCustomerCreated(ctx, event)
	default:
		return nil, fmt.Errorf("webhook with event type %s is not supported", event.EventType)
	}
	if err != nil {
		return nil, err
	}

	if markErr := s.webhookEventRepo.MarkProcessed(event.EventID, providerPaddle, event.EventType, amount, currency); markErr != nil {
		logging.Errorf("mark webhook event %s processed: %v", event.EventID, markErr)
	}
	return outcome, nil
}

func (s *paddleServiceImpl) handleTransactionCompleted(ctx context.Context, event *model.PaddleEvent) (*license.Outcome, decimal.Decimal, string, error) {
	var tx model.PaddleTransaction
	if err := json.Unmarshal(event.Data, &tx); err != nil {
		return nil, decimal.Zero, "", fmt.Errorf("decode transaction.completed payload: %w", err)
	}

	amount := decimal.Zero
	currency := tx.CurrencyCode
	if tx.Details != nil && tx.Details.Totals != nil {
		if parsed, err := decimal.NewFromString(tx.Details.Totals.GrandTotal); err == nil {
			amount = parsed
		}
		if tx.Details.Totals.CurrencyCode != "" {
			currency = tx.Details.Totals.CurrencyCode
		}
	}

	var outcome *license.Outcome
	var err error
	switch tx.Origin {
	case originWeb, originAPI:
		outcome, err = s.createLicensesForTransaction(ctx, event, &tx)
	case originSubscriptionRecurring:
		outcome, err = s.renewLicensesForSubscription(ctx, event, &tx)
	case originSubscriptionUpdate:
		outcome, err = s.resumeLicensesForSubscription(ctx, event, &tx)
	default:
		// Paddle emits further origins (adjustments, etc.); acknowledge
		// them without touching the backend.
		outcome = &license.Outcome{
			Status:  200,
			Message: fmt.Sprintf("Unsupported transaction.completed origin: %s.", tx.Origin),
		}
	}
	return outcome, amount, currency, err
}

// subscriptionInterval derives one ISO-8601 interval from the first priced
// item with a billing cycle, and collects the price ids of items without
// one, which mark their line items as one-time purchases.
func subscriptionInterval(tx *model.PaddleTransaction) (interval *string, oneTimePriceIDs map[string]bool) {
	oneTimePriceIDs = make(map[string]bool)
	for _, item := range tx.Items {
		if item.Price == nil {
			continue
		}
		if item.Price.BillingCycle == nil {
			oneTimePriceIDs[item.Price.ID] = true
			continue
		}
		if interval != nil {
			continue
		}
		freq := item.Price.BillingCycle.Frequency
		var iso string
		switch item.Price.BillingCycle.Interval {
		case "day":
			iso = fmt.Sprintf("P%dD", freq)
		case "week":
			iso = fmt.Sprintf("P%dW", freq)
		case "month":
			iso = fmt.Sprintf("P%dM", freq)
		case "year":
			iso = fmt.Sprintf("P%dY", freq)
		default:
			continue
		}
		interval = &iso
	}
	return interval, oneTimePriceIDs
}

// createLicensesForTransaction handles web/api origins: a fresh purchase
// that needs licenses created for the transaction's customer.
func (s *paddleServiceImpl) createLicensesForTransaction(ctx context.Context, event *model.PaddleEvent, tx *model.PaddleTransaction) (*license.Outcome, error) {
	if tx.CustomerID == "" {
		return nil, fmt.Errorf("unsupported transaction.completed: origin %s requires customer_id", tx.Origin)
	}

	interval, oneTimePriceIDs := subscriptionInterval(tx)

	userID, err := s.users.ResolveByCustomerID(ctx, tx.CustomerID)
	if err != nil {
		return nil, &license.ReconciliationError{
			EventType: event.EventType,
			EventID:   event.EventID,
			Action:    "created",
			Cause:     err,
		}
	}

	var ops []license.Operation
	var lineItems []model.PaddleLineItem
	if tx.Details != nil {
		lineItems = tx.Details.LineItems
	}
	for i := range lineItems {
		item := &lineItems[i]
		mapping, err := license.ExtractPaddleCustomData(item)
		if err != nil {
			return nil, &license.ReconciliationError{
				EventType: event.EventType,
				EventID:   event.EventID,
				UserID:    userID,
				Action:    "created",
				Cause:     err,
			}
		}

		classified := &license.ClassifiedItem{
			Mapping:  mapping,
			Quantity: item.Quantity,
		}
		if oneTimePriceIDs[item.PriceID] {
			perpetual := ""
			classified.SubscriptionInterval = &perpetual
			classified.Metadata = []model.MetadataEntry{
				{Key: license.PaddleTransactionIDMetadataKey, Value: tx.ID, ViewPermissions: []string{}},
			}
		} else {
			classified.SubscriptionInterval = interval
			classified.Metadata = []model.MetadataEntry{
				{Key: license.PaddleSubscriptionIDMetadataKey, Value: tx.SubscriptionID, ViewPermissions: []string{}},
			}
		}

		itemOps, err := license.ExpandQuantity(classified, userID)
		if err != nil {
			return nil, &license.ReconciliationError{
				EventType: event.EventType,
				EventID:   event.EventID,
				UserID:    userID,
				Action:    "created",
				Cause:     err,
			}
		}
		ops = append(ops, itemOps...)
	}

	results, err := s.executor.Run(ctx, ops)
	created := license.AffectedIDs(results)
	if err != nil {
		return nil, &license.ReconciliationError{
			EventType: event.EventType,
			EventID:   event.EventID,
			UserID:    userID,
			Action:    "created",
			Affected:  created,
			Cause:     err,
		}
	}

	return &license.Outcome{
		Status:   201,
		Message:  "Licenses created successfully.",
		UserID:   userID,
		Licenses: created,
	}, nil
}

// renewLicensesForSubscription handles subscription_recurring: renew what
// runs normally, lift suspensions first for what does not. Paddle resume
// transactions arrive with this origin too, so a suspended license gets an
// unsuspend and an expiry update instead of a renew.
func (s *paddleServiceImpl) renewLicensesForSubscription(ctx context.Context, event *model.PaddleEvent, tx *model.PaddleTransaction) (*license.Outcome, error) {
	if tx.SubscriptionID == "" {
		return nil, fmt.Errorf("unsupported transaction.completed: origin %s requires subscription_id for renewal", tx.Origin)
	}

	fail := func(affected []string, cause error) error {
		return &license.ReconciliationError{
			EventType: event.EventType,
			EventID:   event.EventID,
			Action:    "renewed",
			Affected:  affected,
			Cause:     cause,
		}
	}

	licenses, err := s.api.FindLicensesByMetadata(ctx, license.PaddleSubscriptionIDMetadataKey, tx.SubscriptionID)
	if err != nil {
		return nil, fail(nil, err)
	}

	var nextBilledAt string
	if tx.BillingPeriod != nil {
		nextBilledAt = tx.BillingPeriod.EndsAt
	}

	var affected []string
	var ops []license.Operation
	for _, lic := range licenses {
		if lic.Suspended {
			// The unsuspend is its own step; the expiry updates of
			// siblings must not wait on it failing late.
			if _, err := s.api.SetLicenseSuspended(ctx, lic.ID, false); err != nil {
				return nil, fail(affected, err)
			}
			affected = append(affected, lic.ID)
			if nextBilledAt != "" {
				ops = append(ops, license.SetExpiryOp(lic.ID, nextBilledAt))
			}
		} else {
			ops = append(ops, license.RenewOp(lic.ID))
		}
	}

	results, err := s.executor.Run(ctx, ops)
	affected = append(affected, license.AffectedIDs(results)...)
	if err != nil {
		return nil, fail(affected, err)
	}

	return &license.Outcome{
		Status:   200,
		Message:  "License(s) renewed successfully.",
		Licenses: affected,
	}, nil
}

// resumeLicensesForSubscription handles subscription_update: a resumed
// subscription gets its suspended licenses unsuspended and, when a billing
// period end is known, their expiry pushed to it.
func (s *paddleServiceImpl) resumeLicensesForSubscription(ctx context.Context, event *model.PaddleEvent, tx *model.PaddleTransaction) (*license.Outcome, error) {
	if tx.SubscriptionID == "" {
		return nil, fmt.Errorf("unsupported transaction.completed: origin %s requires subscription_id for subscription-update", tx.Origin)
	}

	fail := func(affected []string, cause error) error {
		return &license.ReconciliationError{
			EventType: event.EventType,
			EventID:   event.EventID,
			Action:    "resumed",
			Affected:  affected,
			Cause:     cause,
		}
	}

	licenses, err := s.api.FindLicensesByMetadata(ctx, license.PaddleSubscriptionIDMetadataKey, tx.SubscriptionID)
	if err != nil {
		return nil, fail(nil, err)
	}

	var nextBilledAt string
	if tx.BillingPeriod != nil {
		nextBilledAt = tx.BillingPeriod.EndsAt
	}

	var affected []string
	var ops []license.Operation
	for _, lic := range licenses {
		if !lic.Suspended {
			continue
		}
		if _, err := s.api.SetLicenseSuspended(ctx, lic.ID, false); err != nil {
			return nil, fail(affected, err)
		}
		affected = append(affected, lic.ID)
		if nextBilledAt != "" {
			ops = append(ops, license.SetExpiryOp(lic.ID, nextBilledAt))
		}
	}

	if _, err := s.executor.Run(ctx, ops); err != nil {
		return nil, fail(affected, err)
	}

	return &license.Outcome{
		Status:   200,
		Message:  "License(s) resumed and expiry updated successfully.",
		Licenses: affected,
	}, nil
}

func (s *paddleServiceImpl) handleSubscriptionPaused(ctx context.Context, event *model.PaddleEvent) (*license.Outcome, error) {
	var sub model.PaddleSubscription
	if err := json.Unmarshal(event.Data, &sub); err != nil {
		return nil, fmt.Errorf("decode subscription.paused payload: %w", err)
	}

	fail := func(affected []string, cause error) error {
		return &license.ReconciliationError{
			EventType: event.EventType,
			EventID:   event.EventID,
			Action:    "suspended",
			Affected:  affected,
			Cause:     cause,
		}
	}

	licenses, err := s.api.FindLicensesByMetadata(ctx, license.PaddleSubscriptionIDMetadataKey, sub.ID)
	if err != nil {
		return nil, fail(nil, err)
	}

	ops := make([]license.Operation, 0, len(licenses))
	for _, lic := range licenses {
		ops = append(ops, license.SuspendOp(lic.ID))
	}

	results, err := s.executor.Run(ctx, ops)
	suspended := license.AffectedIDs(results)
	if err != nil {
		return nil, fail(suspended, err)
	}

	return &license.Outcome{
		Status:   200,
		Message:  "License(s) suspended successfully.",
		Licenses: suspended,
	}, nil
}

func (s *paddleServiceImpl) handleCustomerCreated(ctx context.Context, event *model.PaddleEvent) (*license.Outcome, error) {
	var customer model.PaddleCustomer
	if err := json.Unmarshal(event.Data, &customer); err != nil {
		return nil, fmt.Errorf("decode customer.created payload: %w", err)
	}

	if customer.Email == "" {
		return nil, fmt.Errorf("could not process the customer.created webhook event with id %s: customer email is required", event.EventID)
	}

	userID, err := s.users.UpsertCustomer(ctx, customer.ID, customer.Email, customer.Name)
	if err != nil {
		return nil, &license.ReconciliationError{
			EventType: event.EventType,
			EventID:   event.EventID,
			Action:    "created",
			Cause:     err,
		}
	}

	return &license.Outcome{
		Status:  201,
		Message: "User upserted successfully.",
		UserID:  userID,
	}, nil
}
