package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	identitydomain "github.com/ledgerline/invoicer/internal/identity/domain"
)

func (s *Server) ListCustomers(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	customers, err := s.identitySvc.ListCustomers(c.Request.Context(), actor)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": customers})
}

func (s *Server) GetCustomer(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	customer, err := s.identitySvc.GetCustomer(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": customer})
}

func (s *Server) CreateCustomer(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req identitydomain.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	customer, err := s.identitySvc.CreateCustomer(c.Request.Context(), actor, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": customer})
}
