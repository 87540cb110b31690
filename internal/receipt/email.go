package receipt

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/Mani87-nq/yardbooks-pos/internal/pos"
)

// EmailMailer renders a receipt into a plain HTML body and hands it to the
// configured sender.
type EmailMailer struct {
	Sender interface {
		Send(to, subject, html string) error
	}
	From string
}

// SendReceipt implements Mailer.
func (m *EmailMailer) SendReceipt(_ context.Context, to string, doc Document) error {
	if m == nil || m.Sender == nil {
		return errors.New("email sender not configured")
	}
	subject := fmt.Sprintf("Receipt %s from %s", doc.OrderNumber, doc.BusinessName)
	return m.Sender.Send(to, subject, renderHTML(doc))
}

func renderHTML(doc Document) string {
	var b strings.Builder
	b.WriteString("<h2>" + html.EscapeString(doc.BusinessName) + "</h2>")
	if doc.BusinessAddress != "" {
		b.WriteString("<p>" + html.EscapeString(doc.BusinessAddress) + "</p>")
	}
	b.WriteString("<p>Order " + html.EscapeString(doc.OrderNumber) + "</p>")
	b.WriteString("<table>")
	for _, line := range doc.Lines {
		b.WriteString(fmt.Sprintf(
			"<tr><td>%s</td><td>%d x %s</td><td align=\"right\">%s</td></tr>",
			html.EscapeString(line.Name), line.Qty, money(line.UnitPrice), money(line.LineTotal),
		))
	}
	b.WriteString("</table>")
	b.WriteString("<p>Subtotal: " + money(doc.Subtotal) + "<br>")
	if doc.DiscountAmount > 0 {
		b.WriteString("Discount: -" + money(doc.DiscountAmount) + "<br>")
	}
	b.WriteString("GCT: " + money(doc.GctAmount) + "<br>")
	b.WriteString("<strong>Total: " + money(doc.Total) + "</strong></p>")
	if doc.Footer != "" {
		b.WriteString("<p>" + html.EscapeString(doc.Footer) + "</p>")
	}
	return b.String()
}

func money(v pos.Money) string {
	whole := v / 100
	cents := v % 100
	if cents < 0 {
		cents = -cents
	}
	return fmt.Sprintf("$%d.%02d", whole, cents)
}
