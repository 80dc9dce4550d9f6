package license

import (
	"context"
	"fmt"

	"licensing-webhooks/internal/client"
	"licensing-webhooks/internal/model"
)

// ClassifiedItem is one commerce line item with its kind decided and the
// license parameters to attach resolved.
type ClassifiedItem struct {
	Mapping  *TemplateMapping
	Metadata []model.MetadataEntry
	// nil = let the template decide, "" = forced perpetual.
	SubscriptionInterval     *string
	SubscriptionStartTrigger string
	Quantity                 int
}

func metadataEntry(key, value string) model.MetadataEntry {
	return model.MetadataEntry{Key: key, Value: value, ViewPermissions: []string{}}
}

// ClassifyOrderItem decides the license to create for one FastSpring order
// item. The conditions are evaluated top-down and the first match wins; the
// order matters because a bundle add-on would otherwise also satisfy the
// subscription branch. A nil item with nil error means a bundle container,
// which maps to no license.
func ClassifyOrderItem(
	ctx context.Context,
	api client.Cryptlex,
	order *model.FSOrder,
	item *model.FSOrderItem,
	cache SubscriptionPropertyCache,
) (*ClassifiedItem, error) {
	mapping, err := ExtractFastSpringAttributes(item)
	if err != nil {
		return nil, err
	}
	if mapping.Bundle {
		return nil, nil
	}

	classified := &ClassifiedItem{
		Mapping:              mapping,
		SubscriptionInterval: mapping.SubscriptionInterval,
		Quantity:             item.Quantity,
	}

	switch {
	case item.Driver != nil && item.Driver.Type == "bundle":
		// Item sold inside a bundle: tag it with the bundle product and
		// force a perpetual license.
		perpetual := ""
		classified.Metadata = []model.MetadataEntry{
			metadataEntry(FSOrderIDMetadataKey, order.ID),
			metadataEntry(FSDriverMetadataKey, "bundle_"+item.Driver.Path),
		}
		classified.SubscriptionInterval = &perpetual

	case item.ParentSubscription != "" && item.Driver != nil && item.Driver.Type == "addon":
		classified.Metadata = []model.MetadataEntry{
			metadataEntry(FSSubscriptionIDMetadataKey, item.ParentSubscription),
			metadataEntry(FSDriverMetadataKey, "addon_"+item.Driver.Path),
		}
		props, err := ResolveSubscriptionProperties(ctx, api, item.ParentSubscription, order.Items, cache)
		if err != nil {
			return nil, err
		}
		classified.SubscriptionInterval = &props.Interval
		classified.SubscriptionStartTrigger = props.StartTrigger

	case item.Subscription != nil:
		classified.Metadata = []model.MetadataEntry{
			metadataEntry(FSSubscriptionIDMetadataKey, item.Subscription.ID),
		}

	default:
		// One-time purchase.
		classified.Metadata = []model.MetadataEntry{
			metadataEntry(FSOrderIDMetadataKey, order.ID),
		}
	}

	return classified, nil
}

// ExpandQuantity turns a classified item into its license create
// operations. In allowed-activations mode the quantity becomes an
// activation cap on a single license; in the default per-unit mode it
// becomes that many independent licenses.
func ExpandQuantity(item *ClassifiedItem, userID string) ([]Operation, error) {
	if item.Quantity <= 0 {
		return nil, &AttributeError{
			Product: item.Mapping.ProductID,
			Reason:  fmt.Sprintf("quantity must be positive, got %d", item.Quantity),
		}
	}

	base := model.CreateLicenseRequest{
		ProductID:                item.Mapping.ProductID,
		LicenseTemplateID:        item.Mapping.LicenseTemplateID,
		UserID:                   userID,
		Metadata:                 item.Metadata,
		SubscriptionInterval:     item.SubscriptionInterval,
		SubscriptionStartTrigger: item.SubscriptionStartTrigger,
	}

	if item.Mapping.QuantityMappingMode == QuantityMappingAllowedActivations {
		activations := item.Quantity
		req := base
		req.AllowedActivations = &activations
		return []Operation{CreateOp(&req)}, nil
	}

	ops := make([]Operation, 0, item.Quantity)
	for i := 0; i < item.Quantity; i++ {
		req := base
		ops = append(ops, CreateOp(&req))
	}
	return ops, nil
}
