package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	identitydomain "github.com/ledgerline/invoicer/internal/identity/domain"
)

func actorFrom(c *gin.Context) (identitydomain.Actor, bool) {
	value, ok := c.Get(contextActorKey)
	if !ok {
		return identitydomain.Actor{}, false
	}
	actor, ok := value.(identitydomain.Actor)
	return actor, ok
}

func (s *Server) Register(c *gin.Context) {
	var req identitydomain.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.identitySvc.Register(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (s *Server) Login(c *gin.Context) {
	var req identitydomain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.identitySvc.Login(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) Logout(c *gin.Context) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))

	if err := s.identitySvc.Logout(c.Request.Context(), token); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (s *Server) Me(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	user, err := s.identitySvc.GetUser(c.Request.Context(), actor.UserID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp := gin.H{"user": user}
	if company, err := s.identitySvc.GetCompany(c.Request.Context(), actor.CompanyID.String()); err == nil {
		resp["company"] = company
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) ChangePassword(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req identitydomain.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.identitySvc.ChangePassword(c.Request.Context(), actor, req); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password changed"})
}
