package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"licensing-webhooks/internal/client"
	"licensing-webhooks/internal/model"
)

// recordingAPI implements client.Cryptlex, recording every backend call so
// tests can assert exactly what an event dispatched.
type recordingAPI struct {
	mu sync.Mutex

	userByEmail    *model.User
	userByMetadata *model.User
	licenses       []model.License
	licensesErr    error
	template       *model.LicenseTemplate

	createLicenseErr func(req *model.CreateLicenseRequest) error
	deleteLicenseErr func(licenseID string) error

	calls          int
	createRequests []*model.CreateLicenseRequest
	renewedIDs     []string
	deletedIDs     []string
	suspendedIDs   []string
	unsuspendedIDs []string
	expiryUpdates  map[string]string
	createdUsers   []*model.CreateUserRequest
	updatedUsers   []string
}

func (f *recordingAPI) track() {
	f.calls++
}

func (f *recordingAPI) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *recordingAPI) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.track()
	return f.userByEmail, nil
}

func (f *recordingAPI) FindUserByMetadata(ctx context.Context, key, value string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.track()
	return f.userByMetadata, nil
}

func (f *recordingAPI) CreateUser(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.track()
	f.createdUsers = append(f.createdUsers, req)
	return &model.User{ID: fmt.Sprintf("user_%d", len(f.createdUsers)), Email: req.Email}, nil
}

func (f *recordingAPI) UpdateUser(ctx context.Context, userID string, req *model.UpdateUserRequest) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.track()
	f.updatedUsers = append(f.updatedUsers, userID)
	return &model.User{ID: userID}, nil
}

func (f *recordingAPI) CreateLicense(ctx context.Context, req *model.CreateLicenseRequest) (*model.License, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.track()
	if f.createLicenseErr != nil {
		if err := f.createLicenseErr(req); err != nil {
			return nil, err
		}
	}
	f.createRequests = append(f.createRequests, req)
	return &model.License{ID: fmt.Sprintf("lic_%d", len(f.createRequests)), UserID: req.UserID}, nil
}

func (f *recordingAPI) FindLicensesByMetadata(ctx context.Context, key, value string) ([]model.License, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.track()
	if f.licensesErr != nil {
		return nil, f.licensesErr
	}
	if len(f.licenses) == 0 {
		return nil, fmt.Errorf("no license found with %s: %s: %w", key, value, client.ErrNoLicenses)
	}
	return f.licenses, nil
}

func (f *recordingAPI) RenewLicense(ctx context.Context, licenseID string) (*model.License, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.track()
	f.renewedIDs = append(f.renewedIDs, licenseID)
	return &model.License{ID: licenseID}, nil
}

func (f *recordingAPI) SetLicenseSuspended(ctx context.Context, licenseID string, suspended bool) (*model.License, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.track()
	if suspended {
		f.suspendedIDs = append(f.suspendedIDs, licenseID)
	} else {
		f.unsuspendedIDs = append(f.unsuspendedIDs, licenseID)
	}
	return &model.License{ID: licenseID, Suspended: suspended}, nil
}

func (f *recordingAPI) SetLicenseExpiry(ctx context.Context, licenseID string, expiresAt string) (*model.License, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.track()
	if f.expiryUpdates == nil {
		f.expiryUpdates = map[string]string{}
	}
	f.expiryUpdates[licenseID] = expiresAt
	return &model.License{ID: licenseID, ExpiresAt: expiresAt}, nil
}

func (f *recordingAPI) DeleteLicense(ctx context.Context, licenseID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.track()
	if f.deleteLicenseErr != nil {
		if err := f.deleteLicenseErr(licenseID); err != nil {
			return err
		}
	}
	f.deletedIDs = append(f.deletedIDs, licenseID)
	return nil
}

func (f *recordingAPI) GetLicenseTemplate(ctx context.Context, templateID string) (*model.LicenseTemplate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.track()
	if f.template != nil {
		return f.template, nil
	}
	return &model.LicenseTemplate{ID: templateID}, nil
}

// fakeWebhookEventRepo keeps processed event ids in memory.
type fakeWebhookEventRepo struct {
	mu        sync.Mutex
	processed map[string]bool
}

func newFakeWebhookEventRepo() *fakeWebhookEventRepo {
	return &fakeWebhookEventRepo{processed: map[string]bool{}}
}

func (r *fakeWebhookEventRepo) Exists(eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.processed[eventID], nil
}

func (r *fakeWebhookEventRepo) MarkProcessed(eventID, provider, eventType string, amount decimal.Decimal, currency string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed[eventID] = true
	return nil
}
