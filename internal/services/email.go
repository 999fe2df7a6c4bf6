package services

import (
	"bytes"
	"fmt"
	"log"

	"jojos_back_end/internal/config"
	"jojos_back_end/internal/models"

	"github.com/wneessen/go-mail"
)

// Mailer sends transactional email over SMTP.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewMailer(cfg config.Config) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.EmailFrom,
	}
}

// Configured reports whether SMTP credentials are present.
func (m *Mailer) Configured() bool {
	return m.host != ""
}

// SendOrderConfirmation emails the payment confirmation, attaching the PDF
// receipt when one is provided.
func (m *Mailer) SendOrderConfirmation(order models.Order, receiptPDF []byte) error {
	if !m.Configured() {
		log.Println("⚠️ SMTP not configured — skipping confirmation email for", order.OrderID)
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(order.CustomerEmail); err != nil {
		return err
	}
	msg.Subject(fmt.Sprintf("Order %s confirmed — Jojos Boutick", order.OrderID))
	msg.SetBodyString(mail.TypeTextHTML, orderConfirmationHTML(order))

	if receiptPDF != nil {
		msg.AttachReader("receipt_"+order.OrderID+".pdf", bytes.NewReader(receiptPDF))
	}

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.username),
		mail.WithPassword(m.password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Sending confirmation email to", order.CustomerEmail)
	return client.DialAndSend(msg)
}

func orderConfirmationHTML(order models.Order) string {
	itemsHTML := ""
	for _, item := range order.Items {
		variant := item.Size
		if item.Color != "" {
			if variant != "" {
				variant += " / "
			}
			variant += item.Color
		}
		itemsHTML += fmt.Sprintf(`
			<tr>
				<td style="padding: 10px; border: 1px solid #ddd;">%s</td>
				<td style="padding: 10px; border: 1px solid #ddd;">%s</td>
				<td style="padding: 10px; border: 1px solid #ddd;">%d</td>
				<td style="padding: 10px; border: 1px solid #ddd;">KES %.2f</td>
				<td style="padding: 10px; border: 1px solid #ddd;">KES %.2f</td>
			</tr>`, item.Name, variant, item.Quantity, item.Price, item.Price*float64(item.Quantity))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Order confirmation</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Thank you for your order, %s!</h2>
		<p>Your payment for order <strong>%s</strong> has been received.</p>

		<h3>Order details</h3>
		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background-color: #f0f0f0;">
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Item</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Variant</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Qty</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Price</th>
					<th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Total</th>
				</tr>
			</thead>
			<tbody>
				%s
			</tbody>
			<tfoot>
				<tr>
					<td colspan="4" style="padding: 10px; text-align: right;">Delivery (%s):</td>
					<td style="padding: 10px;">KES %.2f</td>
				</tr>
				<tr>
					<td colspan="4" style="padding: 10px; text-align: right; font-weight: bold;">Total:</td>
					<td style="padding: 10px; font-weight: bold;">KES %.2f</td>
				</tr>
			</tfoot>
		</table>

		<p style="margin-top: 30px; color: #555;">
			Warm regards,<br>
			<strong>The Jojos Boutick team</strong>
		</p>
	</div>
</body>
</html>`, order.CustomerName, order.OrderID, itemsHTML, order.DeliveryMethod, order.DeliveryFee, order.Total)
}
