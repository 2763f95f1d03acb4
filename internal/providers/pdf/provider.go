package pdf

import (
	"context"
	"io"

	invoicedomain "github.com/ledgerline/invoicer/internal/invoice/domain"
)

type Provider interface {
	GenerateInvoice(ctx context.Context, data invoicedomain.DownloadData) (io.Reader, error)
}
