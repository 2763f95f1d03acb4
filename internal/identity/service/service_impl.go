package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/ledgerline/invoicer/internal/identity/domain"
	"github.com/ledgerline/invoicer/internal/identity/password"
	"github.com/ledgerline/invoicer/pkg/db"
	"github.com/ledgerline/invoicer/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const minPasswordLen = 6

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	SessionTTL time.Duration `name:"session_ttl"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	sessionTTL time.Duration

	users     repository.Repository[domain.User]
	companies repository.Repository[domain.Company]
	sessions  repository.Repository[domain.Session]
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("identity.service"),
		genID:      p.GenID,
		sessionTTL: p.SessionTTL,
		users:      repository.ProvideStore[domain.User](p.DB),
		companies:  repository.ProvideStore[domain.Company](p.DB),
		sessions:   repository.ProvideStore[domain.Session](p.DB),
	}
}

// Register creates a company and its owning admin in one transaction.
func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (domain.LoginResponse, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" || email == "" || !strings.Contains(email, "@") {
		return domain.LoginResponse{}, domain.ErrInvalidRequest
	}
	if len(req.Password) < minPasswordLen {
		return domain.LoginResponse{}, domain.ErrWeakPassword
	}

	companyName := strings.TrimSpace(req.CompanyName)
	if companyName == "" {
		companyName = name
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	now := time.Now().UTC()
	company := domain.Company{
		ID:        s.genID.Generate(),
		Name:      companyName,
		Email:     email,
		Phone:     strings.TrimSpace(req.Phone),
		CreatedAt: now,
		UpdatedAt: now,
	}
	user := domain.User{
		ID:           s.genID.Generate(),
		CompanyID:    company.ID,
		Role:         domain.RoleAdmin,
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.companies.WithTrx(tx).Create(ctx, &company); err != nil {
			return err
		}
		return s.users.WithTrx(tx).Create(ctx, &user)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.LoginResponse{}, domain.ErrEmailTaken
		}
		return domain.LoginResponse{}, err
	}

	return s.issueSession(ctx, user)
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return domain.LoginResponse{}, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindOne(ctx, &domain.User{Email: email})
	if err != nil {
		return domain.LoginResponse{}, err
	}
	if user == nil || !password.Verify(req.Password, user.PasswordHash) {
		return domain.LoginResponse{}, domain.ErrInvalidCredentials
	}

	return s.issueSession(ctx, *user)
}

func (s *Service) Logout(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return s.db.WithContext(ctx).Where("token = ?", token).Delete(&domain.Session{}).Error
}

func (s *Service) Authenticate(ctx context.Context, token string) (domain.Actor, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Actor{}, domain.ErrInvalidCredentials
	}

	session, err := s.sessions.FindOne(ctx, &domain.Session{Token: token})
	if err != nil {
		return domain.Actor{}, err
	}
	if session == nil {
		return domain.Actor{}, domain.ErrInvalidCredentials
	}
	if session.ExpiresAt.Before(time.Now().UTC()) {
		return domain.Actor{}, domain.ErrSessionExpired
	}

	user, err := s.users.FindOne(ctx, &domain.User{ID: session.UserID})
	if err != nil {
		return domain.Actor{}, err
	}
	if user == nil {
		return domain.Actor{}, domain.ErrInvalidCredentials
	}

	return domain.Actor{UserID: user.ID, CompanyID: user.CompanyID, Role: user.Role}, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (domain.User, error) {
	userID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.User{}, domain.ErrNotFound
	}
	user, err := s.users.FindOne(ctx, &domain.User{ID: userID})
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, domain.ErrNotFound
	}
	return *user, nil
}

func (s *Service) GetCompany(ctx context.Context, id string) (domain.Company, error) {
	companyID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.Company{}, domain.ErrNotFound
	}
	company, err := s.companies.FindOne(ctx, &domain.Company{ID: companyID})
	if err != nil {
		return domain.Company{}, err
	}
	if company == nil {
		return domain.Company{}, domain.ErrNotFound
	}
	return *company, nil
}

func (s *Service) ChangePassword(ctx context.Context, actor domain.Actor, req domain.ChangePasswordRequest) error {
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return domain.ErrInvalidRequest
	}
	if len(req.NewPassword) < minPasswordLen {
		return domain.ErrWeakPassword
	}
	if req.CurrentPassword == req.NewPassword {
		return domain.ErrInvalidRequest
	}

	user, err := s.users.FindOne(ctx, &domain.User{ID: actor.UserID})
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrNotFound
	}
	if !password.Verify(req.CurrentPassword, user.PasswordHash) {
		return domain.ErrInvalidCredentials
	}

	hash, err := password.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	return s.users.Update(ctx, user.ID.String(), map[string]any{
		"password_hash": hash,
		"updated_at":    time.Now().UTC(),
	})
}

func (s *Service) CreateCustomer(ctx context.Context, actor domain.Actor, req domain.CreateCustomerRequest) (domain.User, error) {
	if !actor.IsAdmin() {
		return domain.User{}, domain.ErrForbidden
	}
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" || email == "" || !strings.Contains(email, "@") {
		return domain.User{}, domain.ErrInvalidRequest
	}
	if len(req.Password) < minPasswordLen {
		return domain.User{}, domain.ErrWeakPassword
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	customer := domain.User{
		ID:           s.genID.Generate(),
		CompanyID:    actor.CompanyID,
		Role:         domain.RoleCustomer,
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, &customer); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.User{}, domain.ErrEmailTaken
		}
		return domain.User{}, err
	}

	return customer, nil
}

func (s *Service) GetCustomer(ctx context.Context, actor domain.Actor, id string) (domain.User, error) {
	if !actor.IsAdmin() {
		return domain.User{}, domain.ErrForbidden
	}
	customer, err := s.GetUser(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if customer.CompanyID != actor.CompanyID || customer.Role != domain.RoleCustomer {
		return domain.User{}, domain.ErrNotFound
	}
	return customer, nil
}

func (s *Service) ListCustomers(ctx context.Context, actor domain.Actor) ([]domain.User, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	items, err := s.users.Find(ctx, &domain.User{CompanyID: actor.CompanyID, Role: domain.RoleCustomer})
	if err != nil {
		return nil, err
	}

	customers := make([]domain.User, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		customers = append(customers, *item)
	}
	return customers, nil
}

func (s *Service) issueSession(ctx context.Context, user domain.User) (domain.LoginResponse, error) {
	now := time.Now().UTC()
	session := domain.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, &session); err != nil {
		return domain.LoginResponse{}, err
	}
	return domain.LoginResponse{Token: session.Token, User: user}, nil
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
