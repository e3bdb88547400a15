package ingestion

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/disburse-labs/disburser-backend/pkg/db/models"
	pkgerrors "github.com/disburse-labs/disburser-backend/pkg/errors"
)

// payrollFile mirrors the upstream payroll export format. Field names are
// fixed by the producer, not by us.
type payrollFile struct {
	XMLName xml.Name     `xml:"root"`
	Rows    []payrollRow `xml:"row"`
}

type payrollRow struct {
	Employee struct {
		DunkinID     string `xml:"DunkinId"`
		DunkinBranch string `xml:"DunkinBranch"`
		FirstName    string `xml:"FirstName"`
		LastName     string `xml:"LastName"`
		DOB          string `xml:"DOB"`
		PhoneNumber  string `xml:"PhoneNumber"`
	} `xml:"Employee"`
	Payor struct {
		DunkinID      string `xml:"DunkinId"`
		ABARouting    string `xml:"ABARouting"`
		AccountNumber string `xml:"AccountNumber"`
		Name          string `xml:"Name"`
		DBA           string `xml:"DBA"`
		EIN           string `xml:"EIN"`
		Address       struct {
			Line1 string `xml:"Line1"`
			City  string `xml:"City"`
			State string `xml:"State"`
			Zip   string `xml:"Zip"`
		} `xml:"Address"`
	} `xml:"Payor"`
	Payee struct {
		PlaidID           string `xml:"PlaidId"`
		LoanAccountNumber string `xml:"LoanAccountNumber"`
	} `xml:"Payee"`
	Amount string `xml:"Amount"`
}

// ParsePayrollFile decodes and validates an uploaded payroll file. The whole
// file is rejected on the first invalid row so a batch is never half-ingested.
func ParsePayrollFile(r io.Reader) ([]models.PaymentRequest, error) {
	var file payrollFile
	if err := xml.NewDecoder(r).Decode(&file); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed payroll file")
	}
	if len(file.Rows) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payroll file contains no rows")
	}

	requests := make([]models.PaymentRequest, 0, len(file.Rows))
	for i, row := range file.Rows {
		request, err := row.toPaymentRequest()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("row %d", i+1))
		}
		requests = append(requests, *request)
	}
	return requests, nil
}

func (row payrollRow) toPaymentRequest() (*models.PaymentRequest, error) {
	required := map[string]string{
		"Employee.DunkinId":       row.Employee.DunkinID,
		"Employee.DunkinBranch":   row.Employee.DunkinBranch,
		"Employee.FirstName":      row.Employee.FirstName,
		"Employee.LastName":       row.Employee.LastName,
		"Payor.DunkinId":          row.Payor.DunkinID,
		"Payor.ABARouting":        row.Payor.ABARouting,
		"Payor.AccountNumber":     row.Payor.AccountNumber,
		"Payor.Name":              row.Payor.Name,
		"Payor.EIN":               row.Payor.EIN,
		"Payee.PlaidId":           row.Payee.PlaidID,
		"Payee.LoanAccountNumber": row.Payee.LoanAccountNumber,
		"Amount":                  row.Amount,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			return nil, fmt.Errorf("missing %s", field)
		}
	}

	amount, err := parseDollarAmount(row.Amount)
	if err != nil {
		return nil, err
	}

	return &models.PaymentRequest{
		EmployeeID:        strings.TrimSpace(row.Employee.DunkinID),
		EmployeeBranch:    strings.TrimSpace(row.Employee.DunkinBranch),
		EmployeeFirstName: strings.TrimSpace(row.Employee.FirstName),
		EmployeeLastName:  strings.TrimSpace(row.Employee.LastName),
		EmployeeDOB:       strings.TrimSpace(row.Employee.DOB),
		EmployeePhone:     strings.TrimSpace(row.Employee.PhoneNumber),

		PayorID:            strings.TrimSpace(row.Payor.DunkinID),
		PayorABARouting:    strings.TrimSpace(row.Payor.ABARouting),
		PayorAccountNumber: strings.TrimSpace(row.Payor.AccountNumber),
		PayorName:          strings.TrimSpace(row.Payor.Name),
		PayorDBA:           strings.TrimSpace(row.Payor.DBA),
		PayorEIN:           strings.TrimSpace(row.Payor.EIN),
		PayorAddressLine1:  strings.TrimSpace(row.Payor.Address.Line1),
		PayorAddressCity:   strings.TrimSpace(row.Payor.Address.City),
		PayorAddressState:  strings.TrimSpace(row.Payor.Address.State),
		PayorAddressZip:    strings.TrimSpace(row.Payor.Address.Zip),

		PayeePlaidID:           strings.TrimSpace(row.Payee.PlaidID),
		PayeeLoanAccountNumber: strings.TrimSpace(row.Payee.LoanAccountNumber),

		Amount: amount,
	}, nil
}

// parseDollarAmount accepts "$123.45" style values. The leading dollar sign is
// required by the producer's format.
func parseDollarAmount(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "$") {
		return decimal.Zero, fmt.Errorf("amount %q missing leading $", raw)
	}
	amount, err := decimal.NewFromString(strings.TrimPrefix(trimmed, "$"))
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q is not a number", raw)
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount %q is negative", raw)
	}
	return amount, nil
}
