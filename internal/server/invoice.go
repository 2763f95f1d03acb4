package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/ledgerline/invoicer/internal/invoice/domain"
)

type invoiceItemRequest struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Rate     float64 `json:"rate"`
}

type invoiceRequest struct {
	Customer    string               `json:"customer"`
	Items       []invoiceItemRequest `json:"items"`
	InvoiceDate string               `json:"invoiceDate"`
	DueDate     string               `json:"dueDate"`
	Status      string               `json:"status"`
	Discount    *float64             `json:"discount"`
	Tax         *float64             `json:"tax"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (r invoiceRequest) items() []invoicedomain.ItemInput {
	items := make([]invoicedomain.ItemInput, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, invoicedomain.ItemInput{
			Name:     item.Name,
			Quantity: item.Quantity,
			Rate:     item.Rate,
		})
	}
	return items
}

func (s *Server) ListInvoices(c *gin.Context) {
	var req invoicedomain.ListInvoiceRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoiceDate, err := parseOptionalTime(req.InvoiceDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("invoiceDate", "invalid_date", "invalid date"))
		return
	}
	dueDate, err := parseOptionalTime(req.DueDate, true)
	if err != nil {
		AbortWithError(c, newValidationError("dueDate", "invalid_date", "invalid date"))
		return
	}

	invoice, err := s.invoiceSvc.Create(c.Request.Context(), invoicedomain.CreateInvoiceRequest{
		Customer:    req.Customer,
		Items:       req.items(),
		InvoiceDate: invoiceDate,
		DueDate:     dueDate,
		Status:      req.Status,
		Discount:    req.Discount,
		Tax:         req.Tax,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": invoice})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Invoice, "company": resp.Company})
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoiceDate, err := parseOptionalTime(req.InvoiceDate, false)
	if err != nil {
		AbortWithError(c, newValidationError("invoiceDate", "invalid_date", "invalid date"))
		return
	}
	dueDate, err := parseOptionalTime(req.DueDate, true)
	if err != nil {
		AbortWithError(c, newValidationError("dueDate", "invalid_date", "invalid date"))
		return
	}

	invoice, err := s.invoiceSvc.Update(c.Request.Context(), c.Param("id"), invoicedomain.UpdateInvoiceRequest{
		Customer:    req.Customer,
		Items:       req.items(),
		InvoiceDate: invoiceDate,
		DueDate:     dueDate,
		Status:      req.Status,
		Discount:    req.Discount,
		Tax:         req.Tax,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

func (s *Server) UpdateInvoiceStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invoice, err := s.invoiceSvc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": invoice})
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	if err := s.invoiceSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "invoice deleted"})
}

func (s *Server) DownloadInvoice(c *gin.Context) {
	data, err := s.invoiceSvc.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.pdfProvider.GenerateInvoice(c.Request.Context(), data)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	raw, err := io.ReadAll(doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	filename := strings.TrimSpace(data.Invoice.InvoiceNumber)
	if filename == "" {
		filename = data.Invoice.ID.String()
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=invoice-%s.pdf", filename))
	c.Data(http.StatusOK, "application/pdf", raw)
}
