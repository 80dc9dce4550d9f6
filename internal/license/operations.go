package license

import (
	"context"
	"fmt"

	"licensing-webhooks/internal/client"
	"licensing-webhooks/internal/model"
)

type OperationKind string

const (
	OpCreate    OperationKind = "create"
	OpRenew     OperationKind = "renew"
	OpSuspend   OperationKind = "suspend"
	OpUnsuspend OperationKind = "unsuspend"
	OpDelete    OperationKind = "delete"
	OpSetExpiry OperationKind = "set_expiry"
)

// Operation is one tagged backend request derived from an event. Keeping
// heterogeneous operations in a single list lets one dispatcher execute
// them and one reducer aggregate the results.
type Operation struct {
	Kind OperationKind
	// Target license; unset for OpCreate.
	LicenseID string
	// Create request body; only for OpCreate.
	Create *model.CreateLicenseRequest
	// New expiry timestamp; only for OpSetExpiry.
	ExpiresAt string
}

func CreateOp(req *model.CreateLicenseRequest) Operation {
	return Operation{Kind: OpCreate, Create: req}
}

func RenewOp(licenseID string) Operation {
	return Operation{Kind: OpRenew, LicenseID: licenseID}
}

func SuspendOp(licenseID string) Operation {
	return Operation{Kind: OpSuspend, LicenseID: licenseID}
}

func UnsuspendOp(licenseID string) Operation {
	return Operation{Kind: OpUnsuspend, LicenseID: licenseID}
}

func DeleteOp(licenseID string) Operation {
	return Operation{Kind: OpDelete, LicenseID: licenseID}
}

func SetExpiryOp(licenseID, expiresAt string) Operation {
	return Operation{Kind: OpSetExpiry, LicenseID: licenseID, ExpiresAt: expiresAt}
}

// OperationResult records one completed backend call. For OpCreate the
// LicenseID is the id of the license the backend returned.
type OperationResult struct {
	Kind      OperationKind
	LicenseID string
	License   *model.License
}

func (op Operation) run(ctx context.Context, api client.Cryptlex) (OperationResult, error) {
	res := OperationResult{Kind: op.Kind, LicenseID: op.LicenseID}

	switch op.Kind {
	case OpCreate:
		lic, err := api.CreateLicense(ctx, op.Create)
		if err != nil {
			return res, fmt.Errorf("license creation for user %s: %w", op.Create.UserID, err)
		}
		res.LicenseID = lic.ID
		res.License = lic
	case OpRenew:
		lic, err := api.RenewLicense(ctx, op.LicenseID)
		if err != nil {
			return res, fmt.Errorf("license renewal for %s: %w", op.LicenseID, err)
		}
		res.License = lic
	case OpSuspend:
		lic, err := api.SetLicenseSuspended(ctx, op.LicenseID, true)
		if err != nil {
			return res, fmt.Errorf("license suspension for %s: %w", op.LicenseID, err)
		}
		res.License = lic
	case OpUnsuspend:
		lic, err := api.SetLicenseSuspended(ctx, op.LicenseID, false)
		if err != nil {
			return res, fmt.Errorf("license unsuspension for %s: %w", op.LicenseID, err)
		}
		res.License = lic
	case OpDelete:
		if err := api.DeleteLicense(ctx, op.LicenseID); err != nil {
			return res, fmt.Errorf("license deletion for %s: %w", op.LicenseID, err)
		}
	case OpSetExpiry:
		lic, err := api.SetLicenseExpiry(ctx, op.LicenseID, op.ExpiresAt)
		if err != nil {
			return res, fmt.Errorf("license expiry update for %s: %w", op.LicenseID, err)
		}
		res.License = lic
	default:
		return res, fmt.Errorf("unknown operation kind %q", op.Kind)
	}
	return res, nil
}
