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

const providerFastSpring = "FASTSPRING"

type FastSpringService interface {
	Dispatch(ctx context.Context, event *model.FSEvent) (*license.Outcome, error)
}

type fastSpringServiceImpl struct {
	api              client.Cryptlex
	users            *license.UserResolver
	executor         *license.Executor
	webhookEventRepo repository.WebhookEventRepository
}

func NewFastSpringService(api client.Cryptlex, webhookEventRepo repository.WebhookEventRepository) FastSpringService {
	return &fastSpringServiceImpl{
		api:              api,
		users:            license.NewUserResolver(api),
		executor:         license.NewExecutor(api),
		webhookEventRepo: webhookEventRepo,
	}
}

func (s *fastSpringServiceImpl) Dispatch(ctx context.Context, event *model.FSEvent) (*license.Outcome, error) {
	processed, err := s.webhookEventRepo.Exists(event.ID)
	if err != nil {
		// The audit table must never block reconciliation; at-least-once
		// delivery is the contract anyway.
		logging.Errorf("webhook event lookup failed for %s: %v", event.ID, err)
	}
	if processed {
		return &license.Outcome{Status: 200, Message: "Event already processed."}, nil
	}

	var (
		outcome  *license.Outcome
		amount   decimal.Decimal
		currency string
	)
	switch event.Type {
	case "order.completed":
		outcome, amount, currency, err = s.handleOrderCompleted(ctx, event)
	case "subscription.charge.completed":
		outcome, err = s.handleSubscriptionChargeCompleted(ctx, event)
	case "subscription.deactivated":
		outcome, err = s.handleSubscriptionDeactivated(ctx, event)
	case "subscription.payment.overdue":
		outcome, err = s.handleSubscriptionPaymentOverdue(ctx, event)
	default:
		return nil, fmt.Errorf("webhook with event type %s is not supported", event.Type)
	}
	if err != nil {
		return nil, err
	}

	if markErr := s.webhookEventRepo.MarkProcessed(event.ID, providerFastSpring, event.Type, amount, currency); markErr != nil {
		logging.Errorf("mark webhook event %s processed: %v", event.ID, markErr)
	}
	return outcome, nil
}

// handleOrderCompleted creates licenses for every non-bundle item of a
// completed order, one-time and subscription based alike.
func (s *fastSpringServiceImpl) handleOrderCompleted(ctx context.Context, event *model.FSEvent) (*license.Outcome, decimal.Decimal, string, error) {
	var order model.FSOrder
	if err := json.Unmarshal(event.Data, &order); err != nil {
		return nil, decimal.Zero, "", fmt.Errorf("decode order.completed payload: %w", err)
	}

	amount, _ := decimal.NewFromString(order.Total.String())

	if !order.Completed || len(order.Items) == 0 {
		return nil, decimal.Zero, "", &license.ReconciliationError{
			EventType: event.Type,
			EventID:   event.ID,
			Action:    "created",
			Cause:     fmt.Errorf("order was not completed"),
		}
	}

	userID, err := s.users.InsertUserByEmail(
		ctx,
		order.Customer.Email,
		order.Customer.First,
		order.Customer.Last,
		order.Customer.Company,
	)
	if err != nil {
		return nil, decimal.Zero, "", &license.ReconciliationError{
			EventType: event.Type,
			EventID:   event.ID,
			Action:    "created",
			Cause:     err,
		}
	}

	cache := license.SubscriptionPropertyCache{}
	var ops []license.Operation
	for i := range order.Items {
		classified, err := license.ClassifyOrderItem(ctx, s.api, &order, &order.Items[i], cache)
		if err != nil {
			return nil, decimal.Zero, "", &license.ReconciliationError{
				EventType: event.Type,
				EventID:   event.ID,
				UserID:    userID,
				Action:    "created",
				Cause:     err,
			}
		}
		if classified == nil {
			// bundle container, no license of its own
			continue
		}
		itemOps, err := license.ExpandQuantity(classified, userID)
		if err != nil {
			return nil, decimal.Zero, "", &license.ReconciliationError{
				EventType: event.Type,
				EventID:   event.ID,
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
		return nil, decimal.Zero, "", &license.ReconciliationError{
			EventType: event.Type,
			EventID:   event.ID,
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
	}, amount, order.Currency, nil
}

// handleSubscriptionChargeCompleted renews every license tagged with the
// subscription and lifts the suspension of any that were suspended for an
// overdue payment.
func (s *fastSpringServiceImpl) handleSubscriptionChargeCompleted(ctx context.Context, event *model.FSEvent) (*license.Outcome, error) {
	var charge model.FSCharge
	if err := json.Unmarshal(event.Data, &charge); err != nil {
		return nil, fmt.Errorf("decode subscription.charge.completed payload: %w", err)
	}

	if charge.Status != "successful" || len(charge.Order.Items) == 0 {
		return nil, &license.ReconciliationError{
			EventType: event.Type,
			EventID:   event.ID,
			Action:    "renewed",
			Cause:     fmt.Errorf("charge status %q is not successful", charge.Status),
		}
	}

	licenses, err := s.api.FindLicensesByMetadata(ctx, license.FSSubscriptionIDMetadataKey, charge.Subscription.ID)
	if err != nil {
		return nil, &license.ReconciliationError{
			EventType: event.Type,
			EventID:   event.ID,
			Action:    "renewed",
			Cause:     err,
		}
	}

	var ops []license.Operation
	for _, lic := range licenses {
		ops = append(ops, license.RenewOp(lic.ID))
		if lic.Suspended {
			ops = append(ops, license.UnsuspendOp(lic.ID))
		}
	}

	results, err := s.executor.Run(ctx, ops)
	affected := license.AffectedIDs(results)
	if err != nil {
		return nil, &license.ReconciliationError{
			EventType: event.Type,
			EventID:   event.ID,
			Action:    "renewed",
			Affected:  affected,
			Cause:     err,
		}
	}

	return &license.Outcome{
		Status:   200,
		Message:  "License(s) renewed and unsuspended successfully.",
		Licenses: affected,
	}, nil
}

// handleSubscriptionDeactivated deletes every license tagged with the
// deactivated subscription.
func (s *fastSpringServiceImpl) handleSubscriptionDeactivated(ctx context.Context, event *model.FSEvent) (*license.Outcome, error) {
	var sub model.FSSubscription
	if err := json.Unmarshal(event.Data, &sub); err != nil {
		return nil, fmt.Errorf("decode subscription.deactivated payload: %w", err)
	}

	if sub.State != "deactivated" {
		return nil, &license.ReconciliationError{
			EventType: event.Type,
			EventID:   event.ID,
			Action:    "deleted",
			Cause:     fmt.Errorf("subscription state %q is not deactivated", sub.State),
		}
	}

	licenses, err := s.api.FindLicensesByMetadata(ctx, license.FSSubscriptionIDMetadataKey, sub.ID)
	if err != nil {
		return nil, &license.ReconciliationError{
			EventType: event.Type,
			EventID:   event.ID,
			Action:    "deleted",
			Cause:     err,
		}
	}

	ops := make([]license.Operation, 0, len(licenses))
	for _, lic := range licenses {
		ops = append(ops, license.DeleteOp(lic.ID))
	}

	results, err := s.executor.Run(ctx, ops)
	deleted := license.AffectedIDs(results)
	if err != nil {
		return nil, &license.ReconciliationError{
			EventType: event.Type,
			EventID:   event.ID,
			Action:    "deleted",
			Affected:  deleted,
			Cause:     err,
		}
	}

	return &license.Outcome{
		Status:   204,
		Message:  "License(s) deleted successfully.",
		Licenses: deleted,
	}, nil
}

// handleSubscriptionPaymentOverdue suspends every license tagged with the
// overdue subscription.
func (s *fastSpringServiceImpl) handleSubscriptionPaymentOverdue(ctx context.Context, event *model.FSEvent) (*license.Outcome, error) {
	var sub model.FSSubscription
	if err := json.Unmarshal(event.Data, &sub); err != nil {
		return nil, fmt.Errorf("decode subscription.payment.overdue payload: %w", err)
	}

	if sub.State != "overdue" {
		return nil, &license.ReconciliationError{
			EventType: event.Type,
			EventID:   event.ID,
			Action:    "suspended",
			Cause:     fmt.Errorf("subscription state %q is not overdue", sub.State),
		}
	}

	licenses, err := s.api.FindLicensesByMetadata(ctx, license.FSSubscriptionIDMetadataKey, sub.ID)
	if err != nil {
		return nil, &license.ReconciliationError{
			EventType: event.Type,
			EventID:   event.ID,
			Action:    "suspended",
			Cause:     err,
		}
	}

	ops := make([]license.Operation, 0, len(licenses))
	for _, lic := range licenses {
		ops = append(ops, license.SuspendOp(lic.ID))
	}

	results, err := s.executor.Run(ctx, ops)
	suspended := license.AffectedIDs(results)
	if err != nil {
		return nil, &license.ReconciliationError{
			EventType: event.Type,
			EventID:   event.ID,
			Action:    "suspended",
			Affected:  suspended,
			Cause:     err,
		}
	}

	return &license.Outcome{
		Status:   200,
		Message:  "License(s) suspended successfully.",
		Licenses: suspended,
	}, nil
}
