package entities

import (
	"context"

	"gorm.io/gorm"

	"github.com/disburse-labs/disburser-backend/pkg/db/models"
	"github.com/disburse-labs/disburser-backend/pkg/method"
)

// Gateway is the slice of the payment network client used for resource
// provisioning.
type Gateway interface {
	CreateCorporateEntity(ctx context.Context, params method.CorporateEntityParams) (*method.Entity, error)
	CreateIndividualEntity(ctx context.Context, params method.IndividualEntityParams) (*method.Entity, error)
	CreateACHAccount(ctx context.Context, params method.ACHAccountParams) (*method.Account, error)
	BeginVerification(ctx context.Context, accountID string) (*method.Verification, error)
	SubmitVerification(ctx context.Context, accountID, verificationID string, params method.VerificationParams) (*method.Verification, error)
	CreateLiabilityAccount(ctx context.Context, params method.LiabilityAccountParams) (*method.Account, error)
	ListMerchants(ctx context.Context) ([]method.Merchant, error)
}

// Repository persists resolved gateway resources so restarts do not
// re-provision them.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindCorporateEntityByEIN(ctx context.Context, ein string) (*models.CorporateEntity, error)
	CreateCorporateEntity(ctx context.Context, entity *models.CorporateEntity) (*models.CorporateEntity, error)
	ListCorporateEntities(ctx context.Context) ([]models.CorporateEntity, error)

	FindIndividualEntityByEmployeeID(ctx context.Context, employeeID string) (*models.IndividualEntity, error)
	CreateIndividualEntity(ctx context.Context, entity *models.IndividualEntity) (*models.IndividualEntity, error)
	ListIndividualEntities(ctx context.Context) ([]models.IndividualEntity, error)

	FindPayorAccountByPayorID(ctx context.Context, payorID string) (*models.PayorAccount, error)
	CreatePayorAccount(ctx context.Context, account *models.PayorAccount) (*models.PayorAccount, error)
	ListPayorAccounts(ctx context.Context) ([]models.PayorAccount, error)

	FindPayeeAccountByPlaidID(ctx context.Context, plaidID string) (*models.PayeeAccount, error)
	CreatePayeeAccount(ctx context.Context, account *models.PayeeAccount) (*models.PayeeAccount, error)
	ListPayeeAccounts(ctx context.Context) ([]models.PayeeAccount, error)

	UpsertMerchant(ctx context.Context, merchant *models.Merchant) error
	ListMerchants(ctx context.Context) ([]models.Merchant, error)
}
