package license

import (
	"context"
	"fmt"

	"licensing-webhooks/internal/client"
	"licensing-webhooks/internal/model"
)

// SubscriptionProperties are the licensing parameters an add-on inherits
// from its parent subscription line item.
type SubscriptionProperties struct {
	Interval     string
	StartTrigger string
}

// SubscriptionPropertyCache memoizes resolved parent subscription
// properties for one reconciliation run. It is owned by a single handler
// invocation and each key is written at most once.
type SubscriptionPropertyCache map[string]SubscriptionProperties

// ResolveSubscriptionProperties resolves interval and start trigger for the
// given parent subscription. On a cache miss it locates the parent line
// item inside the same event, fetches its license template and memoizes the
// result, so each distinct parent costs one template fetch per event no
// matter how many add-ons reference it.
func ResolveSubscriptionProperties(
	ctx context.Context,
	api client.Cryptlex,
	parentSubscriptionID string,
	items []model.FSOrderItem,
	cache SubscriptionPropertyCache,
) (SubscriptionProperties, error) {
	if props, ok := cache[parentSubscriptionID]; ok {
		return props, nil
	}

	var parent *model.FSOrderItem
	for i := range items {
		if items[i].Subscription != nil && items[i].Subscription.ID == parentSubscriptionID {
			parent = &items[i]
			break
		}
	}
	if parent == nil {
		return SubscriptionProperties{}, &ParentSubscriptionNotFoundError{SubscriptionID: parentSubscriptionID}
	}

	templateID := parent.Attributes[AttrLicenseTemplateID]
	template, err := api.GetLicenseTemplate(ctx, templateID)
	if err != nil {
		return SubscriptionProperties{}, fmt.Errorf("resolve parent subscription %s: %w", parentSubscriptionID, err)
	}

	interval := template.SubscriptionInterval
	if override, ok := parent.Attributes[AttrSubscriptionInterval]; ok && override != "" {
		interval = override
	}

	props := SubscriptionProperties{
		Interval:     interval,
		StartTrigger: template.SubscriptionStartTrigger,
	}
	cache[parentSubscriptionID] = props
	return props, nil
}
