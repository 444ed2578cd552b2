package qpay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/AmarboldBazarsuren/mzeel-backend/config"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/payment"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/utils"

	"github.com/google/uuid"
)

var ErrGateway = errors.New("qpay gateway request failed")

// QPayDriver talks to the QPay merchant API v2. Access tokens are cached
// until shortly before expiry and refreshed under a mutex.
type QPayDriver struct {
	BaseURL     string
	Username    string
	Password    string
	InvoiceCode string
	CallbackURL string

	client *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewQPayDriver(cfg *config.Config) *QPayDriver {
	return &QPayDriver{
		BaseURL:     cfg.QPayBaseURL,
		Username:    cfg.QPayUsername,
		Password:    cfg.QPayPassword,
		InvoiceCode: cfg.QPayInvoiceCode,
		CallbackURL: cfg.CallbackBaseURL + "/api/v1/payment/callback",
		client:      utils.NewHTTPClient(15 * time.Second),
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (d *QPayDriver) getToken() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.token != "" && time.Now().Before(d.tokenExpiry) {
		return d.token, nil
	}

	req, err := http.NewRequest(http.MethodPost, d.BaseURL+"/auth/token", nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(d.Username, d.Password)

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: token endpoint returned %s", ErrGateway, resp.Status)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("%w: %v", ErrGateway, err)
	}

	d.token = tr.AccessToken
	// Refresh a minute early rather than racing the expiry.
	d.tokenExpiry = time.Now().Add(time.Hour - time.Minute)

	return d.token, nil
}

func (d *QPayDriver) postJSON(path string, body interface{}, out interface{}) error {
	token, err := d.getToken()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, d.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned %s", ErrGateway, path, resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

type invoiceResponse struct {
	InvoiceID string `json:"invoice_id"`
	QRText    string `json:"qr_text"`
	QRImage   string `json:"qr_image"`
	URLs      []struct {
		Name string `json:"name"`
		Link string `json:"link"`
	} `json:"urls"`
}

func (d *QPayDriver) CreateInvoice(amount int64, userID uint, description string) (*payment.Invoice, error) {
	body := map[string]interface{}{
		"invoice_code":          d.InvoiceCode,
		"sender_invoice_no":     fmt.Sprintf("MZEEL_%d_%s", userID, uuid.New().String()[:8]),
		"invoice_receiver_code": fmt.Sprintf("%d", userID),
		"invoice_description":   description,
		"amount":                amount,
		"callback_url":          d.CallbackURL,
	}

	var ir invoiceResponse
	if err := d.postJSON("/invoice", body, &ir); err != nil {
		return nil, err
	}

	inv := &payment.Invoice{
		InvoiceID: ir.InvoiceID,
		QRText:    ir.QRText,
		QRImage:   ir.QRImage,
	}
	for _, u := range ir.URLs {
		if u.Name == "deeplink" {
			inv.Deeplink = u.Link
			break
		}
	}

	return inv, nil
}

type paymentCheckResponse struct {
	Count int `json:"count"`
	Rows  []struct {
		PaymentStatus string `json:"payment_status"`
	} `json:"rows"`
}

func (d *QPayDriver) CheckPayment(invoiceID string) (bool, error) {
	body := map[string]interface{}{
		"object_type": "INVOICE",
		"object_id":   invoiceID,
	}

	var pr paymentCheckResponse
	if err := d.postJSON("/payment/check", body, &pr); err != nil {
		return false, err
	}

	for _, row := range pr.Rows {
		if row.PaymentStatus == "PAID" {
			return true, nil
		}
	}
	return false, nil
}
