package midtrans

import (
	"bytes"
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/kerjalink/kerjalink-backend/pkg/config"
	pkgerrors "github.com/kerjalink/kerjalink-backend/pkg/errors"
	"github.com/kerjalink/kerjalink-backend/pkg/logger"
	"github.com/kerjalink/kerjalink-backend/pkg/money"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"

	snapPath = "/snap/v1/transactions"
)

var (
	errServerKeyRequired = errors.New("midtrans server key is required")
	errLoggerRequired    = errors.New("midtrans logger is required")
	errInvalidEnv        = fmt.Errorf("midtrans environment must be %q or %q", sandboxEnv, productionEnv)
)

var baseURLs = map[string]string{
	sandboxEnv:    "https://app.sandbox.midtrans.com",
	productionEnv: "https://app.midtrans.com",
}

// Client talks to the Snap API. Calls carry a bounded timeout so a slow
// gateway can never hold a database transaction hostage; callers write
// their PENDING transaction row before reaching for this client.
type Client struct {
	httpClient *http.Client
	serverKey  string
	baseURL    string
	logger     *logger.Logger
}

// New validates the credentials and prepares the HTTP client.
func New(cfg config.MidtransConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	serverKey := strings.TrimSpace(cfg.ServerKey)
	if serverKey == "" {
		return nil, errServerKeyRequired
	}
	env := strings.ToLower(strings.TrimSpace(cfg.Environment))
	if env == "" {
		env = sandboxEnv
	}
	baseURL, ok := baseURLs[env]
	if !ok {
		return nil, errInvalidEnv
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		serverKey:  serverKey,
		baseURL:    baseURL,
		logger:     logg,
	}, nil
}

// SnapParams describe a payment session request.
type SnapParams struct {
	OrderID       string
	Amount        money.Money
	CustomerName  string
	CustomerEmail string
}

// SnapSession is the gateway's session handle returned to the client app.
type SnapSession struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

type snapRequest struct {
	TransactionDetails struct {
		OrderID     string `json:"order_id"`
		GrossAmount string `json:"gross_amount"`
	} `json:"transaction_details"`
	CustomerDetails struct {
		FirstName string `json:"first_name"`
		Email     string `json:"email,omitempty"`
	} `json:"customer_details"`
}

// CreateSnapTransaction requests a payment-session token for the order.
func (c *Client) CreateSnapTransaction(ctx context.Context, params SnapParams) (*SnapSession, error) {
	if strings.TrimSpace(params.OrderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !params.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	var payload snapRequest
	payload.TransactionDetails.OrderID = params.OrderID
	payload.TransactionDetails.GrossAmount = params.Amount.String()
	payload.CustomerDetails.FirstName = params.CustomerName
	if payload.CustomerDetails.FirstName == "" {
		payload.CustomerDetails.FirstName = "Guest"
	}
	payload.CustomerDetails.Email = params.CustomerEmail

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode snap request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+snapPath, bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build snap request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.serverKey+":")))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call payment gateway")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("payment gateway returned status %d", resp.StatusCode))
	}

	var session SnapSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode snap response")
	}
	if session.Token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment gateway returned empty token")
	}

	c.logger.Info(c.logger.WithField(ctx, "order_id", params.OrderID), "snap session created")
	return &session, nil
}

// VerifySignature checks the callback digest: SHA-512 over
// order_id + status_code + gross_amount + server key, compared in
// constant time.
func (c *Client) VerifySignature(orderID, statusCode, grossAmount, signature string) bool {
	if signature == "" {
		return false
	}
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + c.serverKey))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(signature))) == 1
}

// SetBaseURL overrides the gateway endpoint. Test hook.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}
