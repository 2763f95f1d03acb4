package providers

import (
	"github.com/ledgerline/invoicer/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	pdf.Module,
)
