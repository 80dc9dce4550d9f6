package license

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"licensing-webhooks/internal/client"
	"licensing-webhooks/internal/model"
)

// Placeholder domain for users created from a Paddle customer id before the
// customer's real email is known. customer.created corrects it later.
const placeholderEmailDomain = "cryptlexpaddle.com"

// UserResolver maps a commerce-side identity (email or provider customer
// id) to a backend user id, idempotently. Concurrent deliveries for the
// same identity may both miss the search and both attempt creation; the
// loser of that race recovers by re-running the search, so no external
// locking is needed.
type UserResolver struct {
	api client.Cryptlex
}

func NewUserResolver(api client.Cryptlex) *UserResolver {
	return &UserResolver{api: api}
}

func (r *UserResolver) createUser(ctx context.Context, email, firstName, lastName, company string, metadata []model.MetadataEntry) (string, error) {
	user, err := r.api.CreateUser(ctx, &model.CreateUserRequest{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Company:   company,
		Password:  uuid.NewString(),
		Role:      "user",
		Metadata:  metadata,
	})
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// InsertUserByEmail returns the id of the user with the given email,
// creating one when none exists. Existing users are left untouched.
func (r *UserResolver) InsertUserByEmail(ctx context.Context, email, firstName, lastName, company string) (string, error) {
	user, err := r.api.FindUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user != nil {
		return user.ID, nil
	}

	userID, createErr := r.createUser(ctx, email, firstName, lastName, company, nil)
	if createErr == nil {
		return userID, nil
	}
	// Only a uniqueness conflict means a concurrent sibling may have won
	// the creation race; every other failure propagates as-is.
	if !client.IsConflict(createErr) {
		return "", createErr
	}
	user, err = r.api.FindUserByEmail(ctx, email)
	if err != nil || user == nil {
		return "", createErr
	}
	return user.ID, nil
}

// UpsertUserByEmail is InsertUserByEmail with update-on-match semantics:
// an existing user's name and company are refreshed from the event.
func (r *UserResolver) UpsertUserByEmail(ctx context.Context, email, firstName, lastName, company string) (string, error) {
	user, err := r.api.FindUserByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user != nil {
		return r.updateUser(ctx, user.ID, "", firstName, lastName, company)
	}

	userID, createErr := r.createUser(ctx, email, firstName, lastName, company, nil)
	if createErr == nil {
		return userID, nil
	}
	if !client.IsConflict(createErr) {
		return "", createErr
	}
	user, err = r.api.FindUserByEmail(ctx, email)
	if err != nil || user == nil {
		return "", createErr
	}
	// This flow owns the caller-supplied name, so the race loser still
	// applies the update.
	return r.updateUser(ctx, user.ID, "", firstName, lastName, company)
}

func (r *UserResolver) updateUser(ctx context.Context, userID, email, firstName, lastName, company string) (string, error) {
	user, err := r.api.UpdateUser(ctx, userID, &model.UpdateUserRequest{
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Company:   company,
	})
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

func (r *UserResolver) findUserByCustomerID(ctx context.Context, customerID string) (string, error) {
	user, err := r.api.FindUserByMetadata(ctx, PaddleCustomerIDMetadataKey, customerID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", nil
	}
	return user.ID, nil
}

// ResolveByCustomerID returns the id of the user tagged with the given
// provider customer id, creating a placeholder user when none exists. The
// placeholder email keeps the backend's email-uniqueness constraint
// satisfiable until a customer identity event supplies the real address.
func (r *UserResolver) ResolveByCustomerID(ctx context.Context, customerID string) (string, error) {
	userID, err := r.findUserByCustomerID(ctx, customerID)
	if err != nil {
		return "", err
	}
	if userID != "" {
		return userID, nil
	}

	email := fmt.Sprintf("%s@%s", customerID, placeholderEmailDomain)
	metadata := []model.MetadataEntry{
		{Key: PaddleCustomerIDMetadataKey, Value: customerID, ViewPermissions: []string{}},
	}
	userID, createErr := r.createUser(ctx, email, customerID, customerID, "", metadata)
	if createErr == nil {
		return userID, nil
	}
	if !client.IsConflict(createErr) {
		return "", createErr
	}
	userID, err = r.findUserByCustomerID(ctx, customerID)
	if err != nil || userID == "" {
		return "", createErr
	}
	return userID, nil
}

// UpsertCustomer handles a customer identity event: an existing user tagged
// with the customer id gets its email and name corrected, otherwise a user
// is created with the real identity and the customer id metadata.
func (r *UserResolver) UpsertCustomer(ctx context.Context, customerID, email, name string) (string, error) {
	firstName, lastName := splitName(name)
	if firstName == "" {
		firstName = customerID
	}

	userID, err := r.findUserByCustomerID(ctx, customerID)
	if err != nil {
		return "", err
	}
	if userID != "" {
		return r.updateUser(ctx, userID, email, firstName, lastName, "")
	}

	metadata := []model.MetadataEntry{
		{Key: PaddleCustomerIDMetadataKey, Value: customerID, ViewPermissions: []string{}},
	}
	userID, createErr := r.createUser(ctx, email, firstName, lastName, "", metadata)
	if createErr == nil {
		return userID, nil
	}
	if !client.IsConflict(createErr) {
		return "", createErr
	}
	userID, err = r.findUserByCustomerID(ctx, customerID)
	if err != nil || userID == "" {
		return "", createErr
	}
	return r.updateUser(ctx, userID, email, firstName, lastName, "")
}

func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
