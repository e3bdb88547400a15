package method

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/disburse-labs/disburser-backend/pkg/config"
	pkgerrors "github.com/disburse-labs/disburser-backend/pkg/errors"
	"github.com/disburse-labs/disburser-backend/pkg/logger"
)

const (
	devEnv        = "dev"
	productionEnv = "production"

	// VerificationStatusVerified is the only verification outcome that allows a
	// payor account to be used as a funding source.
	VerificationStatusVerified = "verified"
)

var (
	errAPIKeyRequired    = errors.New("method api key is required")
	errInvalidMethodEnv  = fmt.Errorf("method environment must be %q or %q", devEnv, productionEnv)
	errLoggerRequired    = errors.New("method logger is required")
	errAccountIDRequired = errors.New("account id is required")
)

var baseURLs = map[string]string{
	devEnv:        "https://dev.methodfi.com",
	productionEnv: "https://production.methodfi.com",
}

// Client exposes the payment-network primitives the disbursement pipeline
// needs, with centralized auth, logging, and error mapping. It is stateless
// and safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	environment string
	baseURL     string
	logger      *logger.Logger
}

// NewClient initializes the Method wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.MethodConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = baseURLs[env]
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: cfg.HTTPTimeout},
		apiKey:      apiKey,
		environment: env,
		baseURL:     strings.TrimRight(baseURL, "/"),
		logger:      logg,
	}

	logg.Info(ctx, "method client initialized")
	return c, nil
}

// Environment reports the normalized Method environment.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// CreateCorporateEntity provisions a corporation entity for a payor.
func (c *Client) CreateCorporateEntity(ctx context.Context, params CorporateEntityParams) (*Entity, error) {
	c.log(ctx, "request", "create_corporate_entity", map[string]any{"ein": params.EIN, "name": params.Name})

	var entity Entity
	if err := c.do(ctx, http.MethodPost, "/entities", params.toRequest(), &entity); err != nil {
		c.log(ctx, "error", "create_corporate_entity", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_corporate_entity", map[string]any{"entity_id": entity.ID})
	return &entity, nil
}

// CreateIndividualEntity provisions an individual entity for a payee employee.
func (c *Client) CreateIndividualEntity(ctx context.Context, params IndividualEntityParams) (*Entity, error) {
	c.log(ctx, "request", "create_individual_entity", map[string]any{
		"first_name": params.FirstName,
		"last_name":  params.LastName,
	})

	var entity Entity
	if err := c.do(ctx, http.MethodPost, "/entities", params.toRequest(), &entity); err != nil {
		c.log(ctx, "error", "create_individual_entity", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_individual_entity", map[string]any{"entity_id": entity.ID})
	return &entity, nil
}

// CreateACHAccount opens an ACH funding account for the holder entity. The
// account is unusable until a verification session reports verified.
func (c *Client) CreateACHAccount(ctx context.Context, params ACHAccountParams) (*Account, error) {
	c.log(ctx, "request", "create_ach_account", map[string]any{"holder_id": params.HolderID})

	var account Account
	if err := c.do(ctx, http.MethodPost, "/accounts", params.toRequest(), &account); err != nil {
		c.log(ctx, "error", "create_ach_account", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_ach_account", map[string]any{"account_id": account.ID})
	return &account, nil
}

// BeginVerification opens a verification session for an ACH account.
func (c *Client) BeginVerification(ctx context.Context, accountID string) (*Verification, error) {
	if strings.TrimSpace(accountID) == "" {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, errAccountIDRequired, "begin verification")
	}
	c.log(ctx, "request", "begin_verification", map[string]any{"account_id": accountID})

	var verification Verification
	path := fmt.Sprintf("/accounts/%s/verifications", accountID)
	if err := c.do(ctx, http.MethodPost, path, beginVerificationRequest{Type: "auto_verify"}, &verification); err != nil {
		c.log(ctx, "error", "begin_verification", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "begin_verification", map[string]any{
		"verification_id": verification.ID,
		"status":          verification.Status,
	})
	return &verification, nil
}

// SubmitVerification submits verification data for an open session and returns
// the resulting verification state. Callers must check for
// VerificationStatusVerified before treating the account as usable.
func (c *Client) SubmitVerification(ctx context.Context, accountID, verificationID string, params VerificationParams) (*Verification, error) {
	if strings.TrimSpace(accountID) == "" || strings.TrimSpace(verificationID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "account id and verification id are required")
	}
	c.log(ctx, "request", "submit_verification", map[string]any{
		"account_id":      accountID,
		"verification_id": verificationID,
	})

	var verification Verification
	path := fmt.Sprintf("/accounts/%s/verifications/%s", accountID, verificationID)
	if err := c.do(ctx, http.MethodPut, path, params.toRequest(), &verification); err != nil {
		c.log(ctx, "error", "submit_verification", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "submit_verification", map[string]any{
		"verification_id": verification.ID,
		"status":          verification.Status,
	})
	return &verification, nil
}

// CreateLiabilityAccount opens a loan (liability) account for the holder
// entity against a resolved merchant.
func (c *Client) CreateLiabilityAccount(ctx context.Context, params LiabilityAccountParams) (*Account, error) {
	c.log(ctx, "request", "create_liability_account", map[string]any{
		"holder_id":   params.HolderID,
		"merchant_id": params.MerchantID,
	})

	var account Account
	if err := c.do(ctx, http.MethodPost, "/accounts", params.toRequest(), &account); err != nil {
		c.log(ctx, "error", "create_liability_account", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_liability_account", map[string]any{"account_id": account.ID})
	return &account, nil
}

// CreatePayment submits a payment between two provisioned accounts. The
// decimal amount is rounded to two places and converted to minor units here,
// at the submission boundary.
func (c *Client) CreatePayment(ctx context.Context, params PaymentParams) (*Payment, error) {
	c.log(ctx, "request", "create_payment", map[string]any{
		"source":      params.SourceAccountID,
		"destination": params.DestinationAccountID,
		"amount":      params.Amount.StringFixed(2),
	})

	var payment Payment
	if err := c.do(ctx, http.MethodPost, "/payments", params.toRequest(), &payment); err != nil {
		c.log(ctx, "error", "create_payment", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_payment", map[string]any{
		"payment_id": payment.ID,
		"status":     payment.Status,
	})
	return &payment, nil
}

// ListMerchants fetches the full merchant directory, following pagination.
func (c *Client) ListMerchants(ctx context.Context) ([]Merchant, error) {
	c.log(ctx, "request", "list_merchants", nil)

	merchants := []Merchant{}
	page := 1
	for {
		var pageMerchants []Merchant
		path := fmt.Sprintf("/merchants?page=%d&page_limit=%d", page, merchantPageLimit)
		more, err := c.doList(ctx, path, &pageMerchants)
		if err != nil {
			c.log(ctx, "error", "list_merchants", map[string]any{"error": err.Error()})
			return nil, err
		}
		merchants = append(merchants, pageMerchants...)
		if !more {
			break
		}
		page++
	}

	c.log(ctx, "response", "list_merchants", map[string]any{"count": len(merchants)})
	return merchants, nil
}

const merchantPageLimit = 500

type envelope struct {
	Data json.RawMessage `json:"data"`
}

type errorEnvelope struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, httpMethod, path string, body any, out any) error {
	raw, err := c.roundTrip(ctx, httpMethod, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding method response")
	}
	return nil
}

// doList decodes a paginated collection and reports whether a full page came
// back, meaning another page may exist.
func (c *Client) doList(ctx context.Context, path string, out any) (bool, error) {
	raw, err := c.roundTrip(ctx, http.MethodGet, path, nil)
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding method response")
	}
	var count []json.RawMessage
	if err := json.Unmarshal(raw, &count); err != nil {
		return false, nil
	}
	return len(count) == merchantPageLimit, nil
}

func (c *Client) roundTrip(ctx context.Context, httpMethod, path string, body any) (json.RawMessage, error) {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding method request")
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, httpMethod, c.baseURL+path, reqBody)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building method request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calling method api")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading method response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.mapAPIError(resp.StatusCode, payload)
	}

	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil || env.Data == nil {
		// Some endpoints return the resource without the data envelope.
		return payload, nil
	}
	return env.Data, nil
}

func (c *Client) mapAPIError(status int, payload []byte) error {
	message := fmt.Sprintf("method api returned %d", status)
	var env errorEnvelope
	if err := json.Unmarshal(payload, &env); err == nil && env.Error.Message != "" {
		message = env.Error.Message
	}
	return pkgerrors.New(domainCodeForStatus(status), message)
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeDependency
	}
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("method %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("method %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"ein", "routing", "account_number", "dob", "phone", "token", "secret"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = devEnv
	}
	switch env {
	case devEnv, productionEnv:
		return env, nil
	default:
		return "", errInvalidMethodEnv
	}
}
