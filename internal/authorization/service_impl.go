package authorization

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	identitydomain "github.com/ledgerline/invoicer/internal/identity/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectInvoice  = "invoice"
	ObjectCustomer = "customer"
	ObjectPayment  = "payment"
)

const (
	ActionInvoiceView   = "invoice.view"
	ActionInvoiceCreate = "invoice.create"
	ActionInvoiceUpdate = "invoice.update"
	ActionInvoiceDelete = "invoice.delete"

	ActionCustomerView   = "customer.view"
	ActionCustomerCreate = "customer.create"

	ActionPaymentApply = "payment.apply"
	ActionPaymentView  = "payment.view"
)

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)

// Service answers role-level capability questions. Resource-level invoice
// access is decided by the Resolver on top of these gates.
type Service interface {
	Authorize(ctx context.Context, actor identitydomain.Actor, object string, action string) error
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{"role:admin", "*", ObjectInvoice, ActionInvoiceView},
		{"role:admin", "*", ObjectInvoice, ActionInvoiceCreate},
		{"role:admin", "*", ObjectInvoice, ActionInvoiceUpdate},
		{"role:admin", "*", ObjectInvoice, ActionInvoiceDelete},
		{"role:admin", "*", ObjectCustomer, ActionCustomerView},
		{"role:admin", "*", ObjectCustomer, ActionCustomerCreate},
		{"role:admin", "*", ObjectPayment, ActionPaymentApply},
		{"role:admin", "*", ObjectPayment, ActionPaymentView},

		{"role:customer", "*", ObjectInvoice, ActionInvoiceView},
		{"role:customer", "*", ObjectInvoice, ActionInvoiceCreate},
		{"role:customer", "*", ObjectInvoice, ActionInvoiceUpdate},
		{"role:customer", "*", ObjectInvoice, ActionInvoiceDelete},
		{"role:customer", "*", ObjectPayment, ActionPaymentApply},
		{"role:customer", "*", ObjectPayment, ActionPaymentView},
	}
	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy[0], policy[1], policy[2], policy[3]); err != nil {
			return err
		}
	}
	return nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor identitydomain.Actor, object string, action string) error {
	_ = ctx
	if actor.UserID == 0 || actor.CompanyID == 0 {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject := fmt.Sprintf("user:%s", actor.UserID.String())
	domain := fmt.Sprintf("company:%s", actor.CompanyID.String())
	roleName := fmt.Sprintf("role:%s", strings.ToLower(string(actor.Role)))

	if err := s.ensureGrouping(subject, roleName, domain); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("subject", subject),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) ensureGrouping(subject string, roleName string, domain string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", domain)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 {
			continue
		}
		if rule[1] != roleName {
			params := make([]interface{}, 0, len(rule))
			for _, value := range rule {
				params = append(params, value)
			}
			_, _ = s.enforcer.RemoveGroupingPolicy(params...)
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, domain)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName, domain)
	return err
}
