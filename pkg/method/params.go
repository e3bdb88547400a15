package method

import "github.com/shopspring/decimal"

// Entity is the payment network's representation of a legal party.
type Entity struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

// Account is a funding source (ACH) or receiving liability account.
type Account struct {
	ID       string `json:"id"`
	HolderID string `json:"holder_id"`
	Type     string `json:"type"`
	Status   string `json:"status"`
}

// Verification is the state of an ACH verification session.
type Verification struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Payment is the network's record of a submitted payment.
type Payment struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Merchant is one entry of the network's merchant directory.
type Merchant struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	ProviderIDs ProviderIDs `json:"provider_ids"`
}

// ProviderIDs groups the external provider identifiers of a merchant.
type ProviderIDs struct {
	Plaid []string `json:"plaid"`
}

// Address is a payor's mailing address.
type Address struct {
	Line1 string `json:"line1"`
	City  string `json:"city"`
	State string `json:"state"`
	Zip   string `json:"zip"`
}

// CorporateEntityParams contains the fields required to create a corporation
// entity.
type CorporateEntityParams struct {
	Name    string
	DBA     string
	EIN     string
	Address Address
}

type corporateEntityRequest struct {
	Type        string           `json:"type"`
	EIN         string           `json:"ein"`
	Corporation corporationBlock `json:"corporation"`
	Address     Address          `json:"address"`
}

type corporationBlock struct {
	Name   string   `json:"name"`
	DBA    string   `json:"dba"`
	Owners []string `json:"owners"`
}

func (p CorporateEntityParams) toRequest() corporateEntityRequest {
	return corporateEntityRequest{
		Type: "corporation",
		EIN:  p.EIN,
		Corporation: corporationBlock{
			Name:   p.Name,
			DBA:    p.DBA,
			Owners: []string{},
		},
		Address: p.Address,
	}
}

// IndividualEntityParams contains the fields required to create an individual
// entity.
type IndividualEntityParams struct {
	FirstName string
	LastName  string
	DOB       string
	Phone     string
}

type individualEntityRequest struct {
	Type       string          `json:"type"`
	Individual individualBlock `json:"individual"`
}

type individualBlock struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	DOB       string `json:"dob"`
	Phone     string `json:"phone"`
}

func (p IndividualEntityParams) toRequest() individualEntityRequest {
	return individualEntityRequest{
		Type: "individual",
		Individual: individualBlock{
			FirstName: p.FirstName,
			LastName:  p.LastName,
			DOB:       p.DOB,
			Phone:     p.Phone,
		},
	}
}

// ACHAccountParams describes a payor's checking account.
type ACHAccountParams struct {
	HolderID      string
	AccountNumber string
	RoutingNumber string
}

type achAccountRequest struct {
	HolderID string   `json:"holder_id"`
	ACH      achBlock `json:"ach"`
}

type achBlock struct {
	Account string `json:"account"`
	Routing string `json:"routing"`
	Type    string `json:"type"`
}

func (p ACHAccountParams) toRequest() achAccountRequest {
	return achAccountRequest{
		HolderID: p.HolderID,
		ACH: achBlock{
			Account: p.AccountNumber,
			Routing: p.RoutingNumber,
			Type:    "checking",
		},
	}
}

type beginVerificationRequest struct {
	Type string `json:"type"`
}

// VerificationParams carries the data submitted to complete a verification
// session.
type VerificationParams struct {
	AccountNumber string
	RoutingNumber string
}

type submitVerificationRequest struct {
	AutoVerify autoVerifyBlock `json:"auto_verify"`
}

type autoVerifyBlock struct {
	AccountNumber string `json:"account_number"`
	RoutingNumber string `json:"routing_number"`
}

func (p VerificationParams) toRequest() submitVerificationRequest {
	return submitVerificationRequest{
		AutoVerify: autoVerifyBlock{
			AccountNumber: p.AccountNumber,
			RoutingNumber: p.RoutingNumber,
		},
	}
}

// LiabilityAccountParams describes a payee's loan account at a merchant.
type LiabilityAccountParams struct {
	HolderID      string
	MerchantID    string
	AccountNumber string
}

type liabilityAccountRequest struct {
	HolderID  string         `json:"holder_id"`
	Liability liabilityBlock `json:"liability"`
}

type liabilityBlock struct {
	MchID         string `json:"mch_id"`
	AccountNumber string `json:"account_number"`
}

func (p LiabilityAccountParams) toRequest() liabilityAccountRequest {
	return liabilityAccountRequest{
		HolderID: p.HolderID,
		Liability: liabilityBlock{
			MchID:         p.MerchantID,
			AccountNumber: p.AccountNumber,
		},
	}
}

// PaymentParams describes one payment submission. Amount is a decimal dollar
// value; conversion to minor units happens when building the request.
type PaymentParams struct {
	SourceAccountID      string
	DestinationAccountID string
	Amount               decimal.Decimal
	Description          string
}

type paymentRequest struct {
	Amount      int64  `json:"amount"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Description string `json:"description"`
}

func (p PaymentParams) toRequest() paymentRequest {
	return paymentRequest{
		Amount:      AmountToMinorUnits(p.Amount),
		Source:      p.SourceAccountID,
		Destination: p.DestinationAccountID,
		Description: p.Description,
	}
}

// AmountToMinorUnits rounds a dollar amount to two decimal places and converts
// it to integer cents.
func AmountToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Round(2).Mul(decimal.NewFromInt(100)).IntPart()
}
