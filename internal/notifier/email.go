package notifier

import (
	"context"
	"fmt"
	"strings"

	"shop-service/internal/models"
	"shop-service/internal/service"
	"shop-service/internal/util"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// EmailNotifier sends the order confirmation over SMTP
type EmailNotifier struct {
	client  *mail.Client
	from    string
	subject string
	logger  *zap.Logger
}

// NewEmailNotifier creates an SMTP-backed notifier
func NewEmailNotifier(host string, port int, username, password, from string) (*EmailNotifier, error) {
	client, err := mail.NewClient(host,
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(username),
		mail.WithPassword(password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	return &EmailNotifier{
		client:  client,
		from:    from,
		subject: "Your order",
		logger:  util.GetLogger(),
	}, nil
}

// Send delivers the order confirmation to the shopper. Delivery is a single
// attempt; the caller decides what a failure means.
func (n *EmailNotifier) Send(ctx context.Context, order *models.Order, selection *service.Selection) error {
	msg := mail.NewMsg()

	if err := msg.From(n.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(order.Email); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(n.subject)
	msg.SetBodyString(mail.TypeTextHTML, renderConfirmationHTML(order, selection))

	n.logger.Info("Sending order confirmation",
		zap.Int64("order_id", order.ID),
		zap.String("to", order.Email))

	if err := n.client.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send confirmation: %w", err)
	}
	return nil
}

func renderConfirmationHTML(order *models.Order, selection *service.Selection) string {
	var rows strings.Builder
	for _, line := range selection.Lines {
		rows.WriteString(fmt.Sprintf(`
			<tr>
				<td>%s</td>
				<td>%d</td>
				<td>%s</td>
				<td>%s</td>
			</tr>`,
			line.ProductName, line.Quantity, line.UnitPrice.StringFixed(2), line.LineTotal.StringFixed(2)))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body>
	<h2>Order #%d confirmed</h2>
	<p>Hello %s %s, thank you for your order.</p>
	<table border="1" cellpadding="4">
		<tr><th>Product</th><th>Qty</th><th>Unit price</th><th>Total</th></tr>%s
	</table>
	<p>Total: <b>%s</b> for %d item(s)</p>
	<p>Delivery to: %s, %s</p>
</body>
</html>`,
		order.ID, order.FirstName, order.LastName, rows.String(),
		selection.TotalPrice.StringFixed(2), selection.TotalQuantity,
		order.City, order.Address)
}
