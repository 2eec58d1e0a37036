package gateway

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

const (
	liqpayCheckoutURL = "https://www.liqpay.ua/api/3/checkout"
	liqpayRequestURL  = "https://www.liqpay.ua/api/request"
	liqpayVersion     = "3"
)

// LiqPayGateway talks the LiqPay wire protocol: parameters are JSON,
// base64-encoded into a "data" field and signed with
// base64(SHA1(privateKey + data + privateKey)).
type LiqPayGateway struct {
	publicKey  string
	privateKey string
	resultURL  string
	serverURL  string
	requestURL string
	rates      RateSource
	client     *http.Client
}

func NewLiqPayGateway(
	publicKey string,
	privateKey string,
	resultURL string,
	serverURL string,
	rates RateSource,
	client *http.Client,
) *LiqPayGateway {
	if client == nil {
		client = http.DefaultClient
	}
	return &LiqPayGateway{
		publicKey:  publicKey,
		privateKey: privateKey,
		resultURL:  resultURL,
		serverURL:  serverURL,
		requestURL: liqpayRequestURL,
		rates:      rates,
		client:     client,
	}
}

func (g *LiqPayGateway) Name() string {
	return "liqpay"
}

func (g *LiqPayGateway) Sign(data string) string {
	sum := sha1.Sum([]byte(g.privateKey + data + g.privateKey))
	return base64.StdEncoding.EncodeToString(sum[:])
}

func (g *LiqPayGateway) encode(params map[string]any) (data string, signature string, err error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return "", "", err
	}
	data = base64.StdEncoding.EncodeToString(raw)
	return data, g.Sign(data), nil
}

func (g *LiqPayGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeIntent, error) {
	rate, _ := g.rates.UAHPerUSD()
	amountUAH := math.Round(req.Amount * rate)
	orderID := fmt.Sprintf("session_%d_%s", req.SessionID, uuid.NewString())

	params := map[string]any{
		"public_key":  g.publicKey,
		"version":     liqpayVersion,
		"action":      "pay",
		"amount":      amountUAH,
		"currency":    "UAH",
		"description": req.Description,
		"order_id":    orderID,
		"result_url":  g.resultURL,
		"server_url":  g.serverURL,
	}
	data, signature, err := g.encode(params)
	if err != nil {
		return nil, err
	}

	return &ChargeIntent{
		ProviderRef: orderID,
		Amount:      amountUAH,
		Currency:    "UAH",
		ClientPayload: map[string]any{
			"data":         data,
			"signature":    signature,
			"checkout_url": liqpayCheckoutURL,
			"order_id":     orderID,
			"amount":       amountUAH,
			"currency":     "UAH",
		},
	}, nil
}

type liqpayCallback struct {
	OrderID        string  `json:"order_id"`
	Status         string  `json:"status"`
	PaymentID      int64   `json:"payment_id"`
	TransactionID  int64   `json:"transaction_id"`
	Amount         float64 `json:"amount"`
	Currency       string  `json:"currency"`
	ErrDescription string  `json:"err_description"`
}

// VerifyCallback takes the base64 "data" field as payload and the
// "signature" form field, recomputes the signature and rejects on
// mismatch before decoding.
func (g *LiqPayGateway) VerifyCallback(payload []byte, signature string) (*CallbackEvent, error) {
	data := string(payload)
	if g.Sign(data) != signature {
		return nil, ErrBadSignature
	}

	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("invalid callback data: %w", err)
	}

	var cb liqpayCallback
	if err := json.Unmarshal(decoded, &cb); err != nil {
		return nil, fmt.Errorf("invalid callback data: %w", err)
	}

	event := &CallbackEvent{
		ID:          fmt.Sprintf("liqpay_%s_%d", cb.OrderID, cb.TransactionID),
		Type:        cb.Status,
		ProviderRef: cb.OrderID,
		ChargeRef:   fmt.Sprintf("%d", cb.TransactionID),
		Raw:         decoded,
	}

	switch cb.Status {
	case "success", "sandbox":
		event.Status = StatusSucceeded
	case "failure", "error":
		event.Status = StatusFailed
	default:
		event.Status = StatusIgnored
	}
	return event, nil
}

type liqpayResponse struct {
	Status         string `json:"status"`
	TransactionID  int64  `json:"transaction_id"`
	ErrDescription string `json:"err_description"`
}

func (g *LiqPayGateway) Refund(ctx context.Context, req RefundRequest) (*RefundResult, error) {
	rate, _ := g.rates.UAHPerUSD()
	params := map[string]any{
		"public_key": g.publicKey,
		"version":    liqpayVersion,
		"action":     "refund",
		"order_id":   req.ProviderRef,
		"amount":     math.Round(req.Amount * rate),
		"currency":   "UAH",
	}
	resp, err := g.request(ctx, params)
	if err != nil {
		return nil, err
	}
	if resp.Status != "success" && resp.Status != "reversed" {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, resp.ErrDescription)
	}
	return &RefundResult{RefundRef: fmt.Sprintf("%d", resp.TransactionID)}, nil
}

// CheckStatus queries LiqPay for the current state of an order.
func (g *LiqPayGateway) CheckStatus(ctx context.Context, orderID string) (string, error) {
	params := map[string]any{
		"public_key": g.publicKey,
		"version":    liqpayVersion,
		"action":     "status",
		"order_id":   orderID,
	}
	resp, err := g.request(ctx, params)
	if err != nil {
		return "", err
	}
	return resp.Status, nil
}

func (g *LiqPayGateway) request(ctx context.Context, params map[string]any) (*liqpayResponse, error) {
	data, signature, err := g.encode(params)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("data", data)
	form.Set("signature", signature)

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		g.requestURL,
		bytes.NewBufferString(form.Encode()),
	)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer httpResp.Body.Close()

	var resp liqpayResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &resp, nil
}
