package payment

// Invoice is the result of creating a payment invoice with the gateway.
type Invoice struct {
	InvoiceID string
	QRText    string
	QRImage   string
	Deeplink  string
}

// Driver is the interface all payment gateway drivers must implement.
type Driver interface {
	// CreateInvoice registers an invoice with the gateway and returns the
	// payload the client needs to pay it (QR code, deeplink).
	CreateInvoice(amount int64, userID uint, description string) (*Invoice, error)

	// CheckPayment reports whether the invoice has been paid.
	CheckPayment(invoiceID string) (bool, error)
}
