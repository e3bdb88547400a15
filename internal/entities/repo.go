package entities

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/disburse-labs/disburser-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an entities repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindCorporateEntityByEIN(ctx context.Context, ein string) (*models.CorporateEntity, error) {
	var entity models.CorporateEntity
	err := r.db.WithContext(ctx).
		Where("ein = ?", ein).
		First(&entity).Error
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *repository) CreateCorporateEntity(ctx context.Context, entity *models.CorporateEntity) (*models.CorporateEntity, error) {
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return entity, nil
}

func (r *repository) ListCorporateEntities(ctx context.Context) ([]models.CorporateEntity, error) {
	var entities []models.CorporateEntity
	if err := r.db.WithContext(ctx).Find(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *repository) FindIndividualEntityByEmployeeID(ctx context.Context, employeeID string) (*models.IndividualEntity, error) {
	var entity models.IndividualEntity
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		First(&entity).Error
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *repository) CreateIndividualEntity(ctx context.Context, entity *models.IndividualEntity) (*models.IndividualEntity, error) {
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return entity, nil
}

func (r *repository) ListIndividualEntities(ctx context.Context) ([]models.IndividualEntity, error) {
	var entities []models.IndividualEntity
	if err := r.db.WithContext(ctx).Find(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *repository) FindPayorAccountByPayorID(ctx context.Context, payorID string) (*models.PayorAccount, error) {
	var account models.PayorAccount
	err := r.db.WithContext(ctx).
		Where("payor_id = ?", payorID).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) CreatePayorAccount(ctx context.Context, account *models.PayorAccount) (*models.PayorAccount, error) {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

func (r *repository) ListPayorAccounts(ctx context.Context) ([]models.PayorAccount, error) {
	var accounts []models.PayorAccount
	if err := r.db.WithContext(ctx).Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repository) FindPayeeAccountByPlaidID(ctx context.Context, plaidID string) (*models.PayeeAccount, error) {
	var account models.PayeeAccount
	err := r.db.WithContext(ctx).
		Where("plaid_id = ?", plaidID).
		First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *repository) CreatePayeeAccount(ctx context.Context, account *models.PayeeAccount) (*models.PayeeAccount, error) {
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

func (r *repository) ListPayeeAccounts(ctx context.Context) ([]models.PayeeAccount, error) {
	var accounts []models.PayeeAccount
	if err := r.db.WithContext(ctx).Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *repository) UpsertMerchant(ctx context.Context, merchant *models.Merchant) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "plaid_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"merchant_id", "updated_at"}),
		}).
		Create(merchant).Error
}

func (r *repository) ListMerchants(ctx context.Context) ([]models.Merchant, error) {
	var merchants []models.Merchant
	if err := r.db.WithContext(ctx).Find(&merchants).Error; err != nil {
		return nil, err
	}
	return merchants, nil
}
