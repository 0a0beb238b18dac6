package email

import (
	"context"
	"fmt"
	"log"
	"strings"

	"merchantry.io/app/internal/mailer"
	"merchantry.io/app/internal/modules/orders"
	"merchantry.io/app/pkg/money"
)

// ConfirmationService sends order confirmation emails after checkout.
// Sending happens post-commit; failures are logged, never surfaced to the buyer.
type ConfirmationService struct {
	mail     mailer.Service
	fromName string
	fromAddr string
	baseURL  string
}

func NewConfirmationService(mail mailer.Service, fromName, fromAddr, baseURL string) *ConfirmationService {
	return &ConfirmationService{
		mail:     mail,
		fromName: fromName,
		fromAddr: fromAddr,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// SendOrderConfirmation builds and sends the confirmation for a freshly created order.
// receiptURL may be empty when no receipt snapshot was stored.
func (s *ConfirmationService) SendOrderConfirmation(ctx context.Context, to string, o *orders.Order, items []orders.OrderItem, receiptURL string) error {
	if s == nil || s.mail == nil || to == "" {
		return nil
	}

	subject := fmt.Sprintf("Order confirmation %s", o.OrderNumber)
	total := money.Format(o.Currency, o.TotalCents)

	var text strings.Builder
	fmt.Fprintf(&text, "Thanks for your order!\n\nOrder number: %s\n\n", o.OrderNumber)
	for _, it := range items {
		fmt.Fprintf(&text, "%d x %s  %s\n", it.Quantity, it.Name, money.Format(o.Currency, it.TotalCents))
	}
	fmt.Fprintf(&text, "\nTotal: %s\n", total)
	if receiptURL != "" {
		fmt.Fprintf(&text, "Receipt: %s\n", receiptURL)
	}
	if s.baseURL != "" {
		fmt.Fprintf(&text, "Track your order: %s/orders/%s\n", s.baseURL, o.ID)
	}

	var rows strings.Builder
	for _, it := range items {
		fmt.Fprintf(&rows, `<tr><td>%d x %s</td><td style="text-align:right">%s</td></tr>`,
			it.Quantity, it.Name, money.Format(o.Currency, it.TotalCents))
	}
	receiptLine := ""
	if receiptURL != "" {
		receiptLine = fmt.Sprintf(`<p><a href="%s">Download receipt</a></p>`, receiptURL)
	}
	html := fmt.Sprintf(`
<html>
  <body style="font-family: sans-serif;">
    <h2>Thanks for your order!</h2>
    <p><strong>Order number:</strong> %s</p>
    <table style="width:100%%;max-width:480px">%s</table>
    <p><strong>Total:</strong> %s</p>
    %s
  </body>
</html>
`, o.OrderNumber, rows.String(), total, receiptLine)

	err := s.mail.Send(ctx, mailer.Email{
		FromName: s.fromName,
		From:     s.fromAddr,
		To:       []string{to},
		Subject:  subject,
		TextBody: text.String(),
		HTMLBody: html,
	})
	if err != nil {
		log.Printf("email: order confirmation failed order=%s err=%v", o.ID, err)
	}
	return err
}
