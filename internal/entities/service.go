package entities

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/disburse-labs/disburser-backend/pkg/db"
	"github.com/disburse-labs/disburser-backend/pkg/db/models"
	pkgerrors "github.com/disburse-labs/disburser-backend/pkg/errors"
	"github.com/disburse-labs/disburser-backend/pkg/logger"
	"github.com/disburse-labs/disburser-backend/pkg/method"
	"github.com/disburse-labs/disburser-backend/pkg/metrics"
)

// Resolution carries the gateway resource ids needed to submit one payment.
type Resolution struct {
	CorporateEntityID  string
	IndividualEntityID string
	PayorAccountID     string
	PayeeAccountID     string
}

// Service resolves payment-network resources idempotently: one gateway
// resource per natural key, regardless of how many requests reference it.
type Service interface {
	Warm(ctx context.Context) error
	RefreshMerchants(ctx context.Context) (int, error)
	MerchantID(plaidID string) (string, bool)
	Resolve(ctx context.Context, req *models.PaymentRequest) (*Resolution, error)
}

type service struct {
	repo    Repository
	gateway Gateway
	logg    *logger.Logger
	metrics *metrics.DisbursementMetrics

	corporates    *resourceCache
	individuals   *resourceCache
	payorAccounts *resourceCache
	payeeAccounts *resourceCache

	merchantMu sync.RWMutex
	merchants  map[string]string
}

// NewService builds the resolution service with the required dependencies.
func NewService(repo Repository, gateway Gateway, logg *logger.Logger, m *metrics.DisbursementMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("entities repository required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("gateway required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:          repo,
		gateway:       gateway,
		logg:          logg,
		metrics:       m,
		corporates:    newResourceCache(),
		individuals:   newResourceCache(),
		payorAccounts: newResourceCache(),
		payeeAccounts: newResourceCache(),
		merchants:     make(map[string]string),
	}, nil
}

// Warm seeds the in-memory caches from rows persisted by earlier runs.
func (s *service) Warm(ctx context.Context) error {
	corporates, err := s.repo.ListCorporateEntities(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading corporate entities")
	}
	for _, entity := range corporates {
		s.corporates.Put(entity.EIN, entity.EntityID)
	}

	individuals, err := s.repo.ListIndividualEntities(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading individual entities")
	}
	for _, entity := range individuals {
		s.individuals.Put(entity.EmployeeID, entity.EntityID)
	}

	payorAccounts, err := s.repo.ListPayorAccounts(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading payor accounts")
	}
	for _, account := range payorAccounts {
		s.payorAccounts.Put(account.PayorID, account.AccountID)
	}

	payeeAccounts, err := s.repo.ListPayeeAccounts(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading payee accounts")
	}
	for _, account := range payeeAccounts {
		s.payeeAccounts.Put(account.PlaidID, account.AccountID)
	}

	merchants, err := s.repo.ListMerchants(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading merchants")
	}
	s.merchantMu.Lock()
	for _, merchant := range merchants {
		if _, ok := s.merchants[merchant.PlaidID]; !ok {
			s.merchants[merchant.PlaidID] = merchant.MerchantID
		}
	}
	s.merchantMu.Unlock()

	return nil
}

// RefreshMerchants pulls the network's merchant directory and indexes it by
// plaid id. The first merchant seen for a plaid id wins; later claimants are
// logged and skipped.
func (s *service) RefreshMerchants(ctx context.Context) (int, error) {
	directory, err := s.gateway.ListMerchants(ctx)
	if err != nil {
		return 0, err
	}

	indexed := 0
	for _, merchant := range directory {
		for _, plaidID := range merchant.ProviderIDs.Plaid {
			if plaidID == "" {
				continue
			}
			s.merchantMu.Lock()
			existing, seen := s.merchants[plaidID]
			if seen && existing != merchant.ID {
				s.merchantMu.Unlock()
				fields := map[string]any{"plaid_id": plaidID, "kept": existing, "skipped": merchant.ID}
				s.logg.Warn(s.logg.WithFields(ctx, fields), "conflicting merchant claim for plaid id")
				continue
			}
			if !seen {
				s.merchants[plaidID] = merchant.ID
				indexed++
			}
			s.merchantMu.Unlock()

			if !seen {
				row := &models.Merchant{MerchantID: merchant.ID, PlaidID: plaidID}
				if err := s.repo.UpsertMerchant(ctx, row); err != nil {
					return indexed, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting merchant")
				}
			}
		}
	}

	s.logg.Info(s.logg.WithField(ctx, "indexed", indexed), "merchant directory refreshed")
	return indexed, nil
}

func (s *service) MerchantID(plaidID string) (string, bool) {
	s.merchantMu.RLock()
	defer s.merchantMu.RUnlock()
	id, ok := s.merchants[plaidID]
	return id, ok
}

// Resolve provisions (or reuses) every gateway resource one payment request
// needs. Resolution order is fixed: accounts cannot exist before the entity
// that holds them.
func (s *service) Resolve(ctx context.Context, req *models.PaymentRequest) (*Resolution, error) {
	corporateID, err := s.resolveCorporateEntity(ctx, req)
	if err != nil {
		return nil, err
	}

	individualID, err := s.resolveIndividualEntity(ctx, req)
	if err != nil {
		return nil, err
	}

	payorAccountID, err := s.resolvePayorAccount(ctx, req, corporateID)
	if err != nil {
		return nil, err
	}

	payeeAccountID, err := s.resolvePayeeAccount(ctx, req, individualID)
	if err != nil {
		return nil, err
	}

	return &Resolution{
		CorporateEntityID:  corporateID,
		IndividualEntityID: individualID,
		PayorAccountID:     payorAccountID,
		PayeeAccountID:     payeeAccountID,
	}, nil
}

func (s *service) resolveCorporateEntity(ctx context.Context, req *models.PaymentRequest) (string, error) {
	return s.corporates.GetOrCreate(req.PayorEIN, func() (string, error) {
		existing, err := s.repo.FindCorporateEntityByEIN(ctx, req.PayorEIN)
		if err == nil {
			return existing.EntityID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up corporate entity")
		}

		entity, err := s.gateway.CreateCorporateEntity(ctx, method.CorporateEntityParams{
			Name: req.PayorName,
			DBA:  req.PayorDBA,
			EIN:  req.PayorEIN,
			Address: method.Address{
				Line1: req.PayorAddressLine1,
				City:  req.PayorAddressCity,
				State: req.PayorAddressState,
				Zip:   req.PayorAddressZip,
			},
		})
		if err != nil {
			return "", err
		}

		row := &models.CorporateEntity{EntityID: entity.ID, EIN: req.PayorEIN}
		if _, err := s.repo.CreateCorporateEntity(ctx, row); err != nil {
			if db.IsUniqueViolation(err, "") {
				if existing, findErr := s.repo.FindCorporateEntityByEIN(ctx, req.PayorEIN); findErr == nil {
					return existing.EntityID, nil
				}
			}
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting corporate entity")
		}
		s.metrics.IncProvision("corporate_entity")
		return entity.ID, nil
	})
}

func (s *service) resolveIndividualEntity(ctx context.Context, req *models.PaymentRequest) (string, error) {
	return s.individuals.GetOrCreate(req.EmployeeID, func() (string, error) {
		existing, err := s.repo.FindIndividualEntityByEmployeeID(ctx, req.EmployeeID)
		if err == nil {
			return existing.EntityID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up individual entity")
		}

		entity, err := s.gateway.CreateIndividualEntity(ctx, method.IndividualEntityParams{
			FirstName: req.EmployeeFirstName,
			LastName:  req.EmployeeLastName,
			DOB:       req.EmployeeDOB,
			Phone:     req.EmployeePhone,
		})
		if err != nil {
			return "", err
		}

		row := &models.IndividualEntity{EntityID: entity.ID, EmployeeID: req.EmployeeID, Branch: req.EmployeeBranch}
		if _, err := s.repo.CreateIndividualEntity(ctx, row); err != nil {
			if db.IsUniqueViolation(err, "") {
				if existing, findErr := s.repo.FindIndividualEntityByEmployeeID(ctx, req.EmployeeID); findErr == nil {
					return existing.EntityID, nil
				}
			}
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting individual entity")
		}
		s.metrics.IncProvision("individual_entity")
		return entity.ID, nil
	})
}

// resolvePayorAccount provisions the funding account and runs bank
// verification. The row is persisted only once verification reports verified,
// so a crashed run never trusts an unverified account.
func (s *service) resolvePayorAccount(ctx context.Context, req *models.PaymentRequest, corporateEntityID string) (string, error) {
	return s.payorAccounts.GetOrCreate(req.PayorID, func() (string, error) {
		existing, err := s.repo.FindPayorAccountByPayorID(ctx, req.PayorID)
		if err == nil {
			return existing.AccountID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up payor account")
		}

		account, err := s.gateway.CreateACHAccount(ctx, method.ACHAccountParams{
			HolderID:      corporateEntityID,
			AccountNumber: req.PayorAccountNumber,
			RoutingNumber: req.PayorABARouting,
		})
		if err != nil {
			return "", err
		}

		verification, err := s.gateway.BeginVerification(ctx, account.ID)
		if err != nil {
			return "", err
		}

		verification, err = s.gateway.SubmitVerification(ctx, account.ID, verification.ID, method.VerificationParams{
			AccountNumber: req.PayorAccountNumber,
			RoutingNumber: req.PayorABARouting,
		})
		if err != nil {
			return "", err
		}
		if verification.Status != method.VerificationStatusVerified {
			return "", pkgerrors.New(pkgerrors.CodeVerificationFailed,
				fmt.Sprintf("payor account verification ended in %s", verification.Status))
		}

		row := &models.PayorAccount{AccountID: account.ID, PayorID: req.PayorID, EntityID: corporateEntityID}
		if _, err := s.repo.CreatePayorAccount(ctx, row); err != nil {
			if db.IsUniqueViolation(err, "") {
				if existing, findErr := s.repo.FindPayorAccountByPayorID(ctx, req.PayorID); findErr == nil {
					return existing.AccountID, nil
				}
			}
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting payor account")
		}
		s.metrics.IncProvision("payor_account")
		return account.ID, nil
	})
}

func (s *service) resolvePayeeAccount(ctx context.Context, req *models.PaymentRequest, individualEntityID string) (string, error) {
	merchantID, ok := s.MerchantID(req.PayeePlaidID)
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeMerchantNotFound,
			fmt.Sprintf("no merchant registered for plaid id %s", req.PayeePlaidID))
	}

	return s.payeeAccounts.GetOrCreate(req.PayeePlaidID, func() (string, error) {
		existing, err := s.repo.FindPayeeAccountByPlaidID(ctx, req.PayeePlaidID)
		if err == nil {
			return existing.AccountID, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "looking up payee account")
		}

		account, err := s.gateway.CreateLiabilityAccount(ctx, method.LiabilityAccountParams{
			HolderID:      individualEntityID,
			MerchantID:    merchantID,
			AccountNumber: req.PayeeLoanAccountNumber,
		})
		if err != nil {
			return "", err
		}

		row := &models.PayeeAccount{AccountID: account.ID, PlaidID: req.PayeePlaidID, EntityID: individualEntityID}
		if _, err := s.repo.CreatePayeeAccount(ctx, row); err != nil {
			if db.IsUniqueViolation(err, "") {
				if existing, findErr := s.repo.FindPayeeAccountByPlaidID(ctx, req.PayeePlaidID); findErr == nil {
					return existing.AccountID, nil
				}
			}
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persisting payee account")
		}
		s.metrics.IncProvision("payee_account")
		return account.ID, nil
	})
}
