package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/disburse-labs/disburser-backend/pkg/enums"
)

// PaymentRequest is one instruction to pay an individual from a corporate
// funding source. Rows are bulk-created at ingestion with status unprocessed;
// status and message are rewritten exactly once per processing attempt.
type PaymentRequest struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BatchID uuid.UUID `gorm:"column:batch_id;type:uuid;not null;index"`

	EmployeeID        string `gorm:"column:employee_id;not null;index"`
	EmployeeBranch    string `gorm:"column:employee_branch;not null"`
	EmployeeFirstName string `gorm:"column:employee_first_name;not null"`
	EmployeeLastName  string `gorm:"column:employee_last_name;not null"`
	EmployeeDOB       string `gorm:"column:employee_dob;not null"`
	EmployeePhone     string `gorm:"column:employee_phone;not null"`

	PayorID            string `gorm:"column:payor_id;not null;index"`
	PayorABARouting    string `gorm:"column:payor_aba_routing;not null"`
	PayorAccountNumber string `gorm:"column:payor_account_number;not null"`
	PayorName          string `gorm:"column:payor_name;not null"`
	PayorDBA           string `gorm:"column:payor_dba;not null"`
	PayorEIN           string `gorm:"column:payor_ein;not null"`
	PayorAddressLine1  string `gorm:"column:payor_address_line1;not null"`
	PayorAddressCity   string `gorm:"column:payor_address_city;not null"`
	PayorAddressState  string `gorm:"column:payor_address_state;not null"`
	PayorAddressZip    string `gorm:"column:payor_address_zip;not null"`

	PayeePlaidID           string `gorm:"column:payee_plaid_id;not null"`
	PayeeLoanAccountNumber string `gorm:"column:payee_loan_account_number;not null"`

	Amount  decimal.Decimal            `gorm:"column:amount;type:numeric(12,2);not null"`
	Status  enums.PaymentRequestStatus `gorm:"column:status;type:payment_request_status;not null;default:'unprocessed'"`
	Message string                     `gorm:"column:message;not null;default:''"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
