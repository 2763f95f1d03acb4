package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"

	invoicedomain "github.com/ledgerline/invoicer/internal/invoice/domain"
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateInvoice(ctx context.Context, data invoicedomain.DownloadData) (io.Reader, error) {
	invoice := data.Invoice

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(8, "INVOICE", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, string(invoice.Status), props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Align: align.Right,
			Top:   3,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Invoice number: "+invoice.InvoiceNumber, props.Text{Top: 0}),
			text.New("Date of issue: "+formatDate(invoice.InvoiceDate), props.Text{Top: 4}),
			text.New("Date due: "+formatDate(invoice.DueDate), props.Text{Top: 8}),
		),
		col.New(6),
	)

	m.AddRow(40,
		col.New(6).Add(
			text.New(data.Company.Name, props.Text{Style: fontstyle.Bold}),
			text.New(companyAddress(data), props.Text{Top: 5}),
			text.New(data.Company.Email, props.Text{Top: 14}),
			text.New(taxLine(data), props.Text{Top: 18}),
		),
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(data.Customer.Name, props.Text{Top: 5}),
			text.New(data.Customer.Email, props.Text{Top: 9}),
			text.New(data.Customer.Phone, props.Text{Top: 13}),
		),
	)

	m.AddRow(15,
		text.NewCol(12, fmt.Sprintf("%s due %s", formatAmount(invoice.TotalAmount), formatDate(invoice.DueDate)), props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   5,
		}),
	)

	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Rate", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range invoice.Items {
		m.AddRow(12,
			text.NewCol(6, item.Name, props.Text{Size: 9}),
			text.NewCol(2, formatQuantity(item.Quantity), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, formatAmount(item.Rate), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, formatAmount(item.Amount), props.Text{Size: 9, Align: align.Right}),
		)
	}

	totals := []struct {
		label  string
		amount string
		bold   bool
	}{
		{"Subtotal", formatAmount(invoice.Subtotal), false},
		{fmt.Sprintf("Discount (%s%%)", trimRate(invoice.DiscountRate)), "-" + formatAmount(invoice.DiscountAmount), false},
		{fmt.Sprintf("Tax (%s%%)", trimRate(invoice.TaxRate)), formatAmount(invoice.TaxAmount), false},
		{"Total", formatAmount(invoice.TotalAmount), true},
	}
	for _, row := range totals {
		style := fontstyle.Normal
		if row.bold {
			style = fontstyle.Bold
		}
		m.AddRow(8,
			col.New(8),
			text.NewCol(2, row.label, props.Text{Size: 9, Style: style}),
			text.NewCol(2, row.amount, props.Text{Size: 9, Style: style, Align: align.Right}),
		)
	}

	if invoice.Status == invoicedomain.InvoiceStatusPaid && invoice.PaidAt != nil {
		m.AddRow(12,
			text.NewCol(12, "Paid on "+formatDate(*invoice.PaidAt), props.Text{
				Size:  9,
				Style: fontstyle.Bold,
				Top:   4,
			}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 2006")
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatQuantity(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

func trimRate(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

func companyAddress(data invoicedomain.DownloadData) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{data.Company.Address, data.Company.City, data.Company.State} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, ", ")
}

func taxLine(data invoicedomain.DownloadData) string {
	if strings.TrimSpace(data.Company.TaxID) == "" {
		return ""
	}
	return "Tax ID: " + data.Company.TaxID
}
