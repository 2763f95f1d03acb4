package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/ledgerline/invoicer/internal/payment/domain"
)

func (s *Server) ApplyCardPayment(c *gin.Context) {
	var req paymentdomain.ApplyCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.paymentSvc.ApplyCard(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ApplyQRPayment(c *gin.Context) {
	var req paymentdomain.ApplyQRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.paymentSvc.ApplyQR(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPaymentStatus(c *gin.Context) {
	resp, err := s.paymentSvc.GetStatus(c.Request.Context(), c.Param("invoiceId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
