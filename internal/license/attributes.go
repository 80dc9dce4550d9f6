package license

import (
	"licensing-webhooks/internal/model"
)

// Seller-side product attribute keys (FastSpring item attributes).
const (
	AttrProductID            = "cryptlex_product_id"
	AttrLicenseTemplateID    = "cryptlex_license_template_id"
	AttrSubscriptionInterval = "cryptlex_license_subscription_interval"
	AttrQuantityMappingMode  = "cryptlex_quantity_mapping_mode"
	AttrIsBundle             = "cryptlex_is_bundle"
)

// Paddle product custom_data keys.
const (
	PaddleCustomProductID         = "cryptlex_productId"
	PaddleCustomLicenseTemplateID = "cryptlex_licenseTemplateId"
)

// License metadata keys; metadata equality is the only index path from a
// provider-side id back to license records.
const (
	FSSubscriptionIDMetadataKey = "fastspring_subscription_id"
	FSOrderIDMetadataKey        = "fastspring_order_id"
	FSDriverMetadataKey         = "fastspring_driver"

	PaddleSubscriptionIDMetadataKey = "paddle_subscription_id"
	PaddleTransactionIDMetadataKey  = "paddle_transaction_id"
	PaddleCustomerIDMetadataKey     = "paddle_customer_id"
)

// Quantity mapping modes. Anything else is treated as unset, which defaults
// to one license per purchased unit.
const (
	QuantityMappingLicenseCount       = "license_count"
	QuantityMappingAllowedActivations = "allowed_activations"
)

// TemplateMapping is the licensing mapping resolved from the seller-side
// product configuration of one commerce line item.
type TemplateMapping struct {
	ProductID         string
	LicenseTemplateID string
	// Item-level interval override; nil when the attribute is absent.
	SubscriptionInterval *string
	QuantityMappingMode  string
	// Bundle containers group other items and map to no license.
	Bundle bool
}

// ExtractFastSpringAttributes validates and pulls the licensing mapping out
// of a FastSpring order item. Bundle containers short-circuit validation;
// for everything else product id and license template id are required.
func ExtractFastSpringAttributes(item *model.FSOrderItem) (*TemplateMapping, error) {
	attrs := item.Attributes

	if attrs[AttrIsBundle] == "true" {
		return &TemplateMapping{Bundle: true}, nil
	}

	productID, ok := attrs[AttrProductID]
	if !ok || productID == "" {
		return nil, &AttributeError{Product: item.Product, Reason: "missing " + AttrProductID}
	}
	templateID, ok := attrs[AttrLicenseTemplateID]
	if !ok || templateID == "" {
		return nil, &AttributeError{Product: item.Product, Reason: "missing " + AttrLicenseTemplateID}
	}

	mapping := &TemplateMapping{
		ProductID:         productID,
		LicenseTemplateID: templateID,
	}
	if interval, ok := attrs[AttrSubscriptionInterval]; ok {
		mapping.SubscriptionInterval = &interval
	}
	switch attrs[AttrQuantityMappingMode] {
	case QuantityMappingLicenseCount:
		mapping.QuantityMappingMode = QuantityMappingLicenseCount
	case QuantityMappingAllowedActivations:
		mapping.QuantityMappingMode = QuantityMappingAllowedActivations
	}
	return mapping, nil
}

// ExtractPaddleCustomData pulls the licensing mapping out of a Paddle
// transaction line item's product custom data.
func ExtractPaddleCustomData(item *model.PaddleLineItem) (*TemplateMapping, error) {
	productName := "unknown"
	var custom map[string]string
	if item.Product != nil {
		productName = item.Product.ID
		custom = item.Product.CustomData
	}

	productID := custom[PaddleCustomProductID]
	templateID := custom[PaddleCustomLicenseTemplateID]
	if productID == "" || templateID == "" {
		return nil, &AttributeError{
			Product: productName,
			Reason:  "custom data must include " + PaddleCustomProductID + " and " + PaddleCustomLicenseTemplateID,
		}
	}
	return &TemplateMapping{
		ProductID:         productID,
		LicenseTemplateID: templateID,
	}, nil
}
