package model

// Cryptlex web API entities and request bodies used by the reconciliation
// flows. Only the fields this service reads or writes are mapped.

type MetadataEntry struct {
	Key             string   `json:"key"`
	Value           string   `json:"value"`
	ViewPermissions []string `json:"viewPermissions"`
}

type User struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Company   string          `json:"company"`
	Metadata  []MetadataEntry `json:"metadata"`
}

type License struct {
	ID        string          `json:"id"`
	Key       string          `json:"key"`
	UserID    string          `json:"userId"`
	ProductID string          `json:"productId"`
	Suspended bool            `json:"suspended"`
	ExpiresAt string          `json:"expiresAt"`
	Metadata  []MetadataEntry `json:"metadata"`
}

type LicenseTemplate struct {
	ID                       string `json:"id"`
	Name                     string `json:"name"`
	SubscriptionInterval     string `json:"subscriptionInterval"`
	SubscriptionStartTrigger string `json:"subscriptionStartTrigger"`
}

type CreateUserRequest struct {
	Email     string          `json:"email"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName,omitempty"`
	Company   string          `json:"company,omitempty"`
	Password  string          `json:"password"`
	Role      string          `json:"role"`
	Metadata  []MetadataEntry `json:"metadata,omitempty"`
}

type UpdateUserRequest struct {
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Company   string `json:"company,omitempty"`
}

type CreateLicenseRequest struct {
	ProductID         string          `json:"productId"`
	LicenseTemplateID string          `json:"licenseTemplateId"`
	UserID            string          `json:"userId"`
	Metadata          []MetadataEntry `json:"metadata"`
	// nil means "use the template default"; an empty string forces a
	// perpetual license.
	SubscriptionInterval     *string `json:"subscriptionInterval,omitempty"`
	SubscriptionStartTrigger string  `json:"subscriptionStartTrigger,omitempty"`
	AllowedActivations       *int    `json:"allowedActivations,omitempty"`
}
