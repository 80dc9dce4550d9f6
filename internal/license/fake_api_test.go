package license

import (
	"context"
	"errors"

	"licensing-webhooks/internal/model"
)

// fakeAPI implements client.Cryptlex with per-method function fields so
// each test wires only what it needs. Unset methods fail loudly.
type fakeAPI struct {
	findUserByEmail     func(ctx context.Context, email string) (*model.User, error)
	findUserByMetadata  func(ctx context.Context, key, value string) (*model.User, error)
	createUser          func(ctx context.Context, req *model.CreateUserRequest) (*model.User, error)
	updateUser          func(ctx context.Context, userID string, req *model.UpdateUserRequest) (*model.User, error)
	createLicense       func(ctx context.Context, req *model.CreateLicenseRequest) (*model.License, error)
	findLicenses        func(ctx context.Context, key, value string) ([]model.License, error)
	renewLicense        func(ctx context.Context, licenseID string) (*model.License, error)
	setLicenseSuspended func(ctx context.Context, licenseID string, suspended bool) (*model.License, error)
	setLicenseExpiry    func(ctx context.Context, licenseID string, expiresAt string) (*model.License, error)
	deleteLicense       func(ctx context.Context, licenseID string) error
	getLicenseTemplate  func(ctx context.Context, templateID string) (*model.LicenseTemplate, error)
}

var errUnexpectedCall = errors.New("unexpected backend call")

func (f *fakeAPI) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if f.findUserByEmail == nil {
		return nil, errUnexpectedCall
	}
	return f.findUserByEmail(ctx, email)
}

func (f *fakeAPI) FindUserByMetadata(ctx context.Context, key, value string) (*model.User, error) {
	if f.findUserByMetadata == nil {
		return nil, errUnexpectedCall
	}
	return f.findUserByMetadata(ctx, key, value)
}

func (f *fakeAPI) CreateUser(ctx context.Context, req *model.CreateUserRequest) (*model.User, error) {
	if f.createUser == nil {
		return nil, errUnexpectedCall
	}
	return f.createUser(ctx, req)
}

func (f *fakeAPI) UpdateUser(ctx context.Context, userID string, req *model.UpdateUserRequest) (*model.User, error) {
	if f.updateUser == nil {
		return nil, errUnexpectedCall
	}
	return f.updateUser(ctx, userID, req)
}

func (f *fakeAPI) CreateLicense(ctx context.Context, req *model.CreateLicenseRequest) (*model.License, error) {
	if f.createLicense == nil {
		return nil, errUnexpectedCall
	}
	return f.createLicense(ctx, req)
}

func (f *fakeAPI) FindLicensesByMetadata(ctx context.Context, key, value string) ([]model.License, error) {
	if f.findLicenses == nil {
		return nil, errUnexpectedCall
	}
	return f.findLicenses(ctx, key, value)
}

func (f *fakeAPI) RenewLicense(ctx context.Context, licenseID string) (*model.License, error) {
	if f.renewLicense == nil {
		return nil, errUnexpectedCall
	}
	return f.renewLicense(ctx, licenseID)
}

func (f *fakeAPI) SetLicenseSuspended(ctx context.Context, licenseID string, suspended bool) (*model.License, error) {
	if f.setLicenseSuspended == nil {
		return nil, errUnexpectedCall
	}
	return f.setLicenseSuspended(ctx, licenseID, suspended)
}

func (f *fakeAPI) SetLicenseExpiry(ctx context.Context, licenseID string, expiresAt string) (*model.License, error) {
	if f.setLicenseExpiry == nil {
		return nil, errUnexpectedCall
	}
	return f.setLicenseExpiry(ctx, licenseID, expiresAt)
}

func (f *fakeAPI) DeleteLicense(ctx context.Context, licenseID string) error {
	if f.deleteLicense == nil {
		return errUnexpectedCall
	}
	return f.deleteLicense(ctx, licenseID)
}

func (f *fakeAPI) GetLicenseTemplate(ctx context.Context, templateID string) (*model.LicenseTemplate, error) {
	if f.getLicenseTemplate == nil {
		return nil, errUnexpectedCall
	}
	return f.getLicenseTemplate(ctx, templateID)
}
