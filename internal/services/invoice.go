package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"jojos_back_end/internal/models"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/skip2/go-qrcode"
)

// ReceiptQR encodes the order reference and paid total into a QR image,
// base64-ready for an <img src="...">.
func ReceiptQR(order models.Order) (string, error) {
	payload := fmt.Sprintf("JOJOS|%s|KES%.2f|%s", order.OrderID, order.Total, order.PaymentReference)
	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// RenderReceiptPDF prints the HTML receipt to PDF through headless Chrome.
func RenderReceiptPDF(order models.Order) ([]byte, error) {
	qr, err := ReceiptQR(order)
	if err != nil {
		return nil, fmt.Errorf("receipt qr: %w", err)
	}
	html := receiptHTML(order, qr)

	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()
	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	dataURL := "data:text/html;base64," + base64.StdEncoding.EncodeToString([]byte(html))

	var pdfBuf []byte
	err = chromedp.Run(ctx,
		chromedp.Navigate(dataURL),
		chromedp.WaitVisible("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("render receipt pdf: %w", err)
	}
	return pdfBuf, nil
}

func receiptHTML(order models.Order, qrDataURL string) string {
	var rows strings.Builder
	for _, item := range order.Items {
		rows.WriteString(fmt.Sprintf(`
			<tr>
				<td>%s</td>
				<td>%d</td>
				<td>KES %.2f</td>
				<td>KES %.2f</td>
			</tr>`, item.Name, item.Quantity, item.Price, item.Price*float64(item.Quantity)))
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; padding: 40px; color: #222; }
		h1 { color: #b0005e; }
		table { width: 100%%; border-collapse: collapse; margin: 20px 0; }
		th, td { padding: 8px 12px; border: 1px solid #ddd; text-align: left; }
		th { background: #f5f5f5; }
		.totals td { font-weight: bold; }
		.qr { margin-top: 30px; }
	</style>
</head>
<body>
	<h1>Jojos Boutick</h1>
	<p>Receipt for order <strong>%s</strong><br>
	Customer: %s (%s)<br>
	Date: %s</p>

	<table>
		<thead>
			<tr><th>Item</th><th>Qty</th><th>Price</th><th>Total</th></tr>
		</thead>
		<tbody>%s</tbody>
		<tfoot>
			<tr><td colspan="3">Delivery fee</td><td>KES %.2f</td></tr>
			<tr class="totals"><td colspan="3">Total paid</td><td>KES %.2f</td></tr>
		</tfoot>
	</table>

	<div class="qr"><img src="%s" width="128" height="128" alt="receipt code"></div>
</body>
</html>`, order.OrderID, order.CustomerName, order.CustomerEmail,
		order.CreatedAt.Format("2 Jan 2006"), rows.String(), order.DeliveryFee, order.Total, qrDataURL)
}
