// Package notify delivers best-effort sale notifications. Failures are the
// caller's to log; nothing here may block or fail a sale.
package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Notifier is the notification sink collaborator: fire-and-forget, failures
// are logged by the caller and never propagated to the sale outcome.
type Notifier interface {
	NotifyNewSale(ctx context.Context, sellerName, customerName string, total decimal.Decimal) error
}

// LogNotifier writes the notification to the request logger. It is the
// default sink when no SMTP delivery is configured.
type LogNotifier struct{}

// NotifyNewSale logs the sale summary.
func (LogNotifier) NotifyNewSale(ctx context.Context, sellerName, customerName string, total decimal.Decimal) error {
	zctx.From(ctx).Info("New sale registered",
		zap.String("seller", sellerName),
		zap.String("customer", customerName),
		zap.String("total", total.StringFixed(2)),
	)
	return nil
}

// SMTPNotifier mails a plain-text summary of each new sale to the sales
// director.
type SMTPNotifier struct {
	// Addr is the SMTP server address, host:port.
	Addr string
	// From is the sender address.
	From string
	// To is the director's address.
	To string
}

// NotifyNewSale sends the notification mail as a single plain-text message.
func (n SMTPNotifier) NotifyNewSale(_ context.Context, sellerName, customerName string, total decimal.Decimal) error {
	body := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: New sale registered\r\n\r\n"+
			"A new sale has been registered:\r\n\r\n"+
			"Seller: %s\r\nCustomer: %s\r\nTotal: %s\r\n",
		n.From, n.To, sellerName, customerName, total.StringFixed(2),
	)
	return smtp.SendMail(n.Addr, nil, n.From, []string{n.To}, []byte(body))
}
