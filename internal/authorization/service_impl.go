package authorization

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectWorkOrder  = "work_order"
	ObjectCatalog    = "catalog"
	ObjectProduction = "production"
	ObjectReport     = "report"
	ObjectPermission = "permission"
	ObjectHandball   = "handball"
	ObjectScan       = "scan"
	ObjectChat       = "chat"
)

const (
	ActionWorkOrderView    = "work_order.view"
	ActionWorkOrderEnqueue = "work_order.enqueue"
	ActionWorkOrderStart   = "work_order.start"
	ActionWorkOrderFinish  = "work_order.finish"

	ActionCatalogView   = "catalog.view"
	ActionCatalogManage = "catalog.manage"

	ActionProductionView = "production.view"
	ActionReportView     = "report.view"

	ActionPermissionRequest = "permission.request"
	ActionPermissionDecide  = "permission.decide"
	ActionPermissionView    = "permission.view"

	ActionHandballView   = "handball.view"
	ActionHandballManage = "handball.manage"

	ActionScanUse = "scan.use"
	ActionChatUse = "chat.use"
)

var (
	ErrInvalidActor  = errors.New("authorization: invalid actor")
	ErrInvalidObject = errors.New("authorization: invalid object")
	ErrInvalidAction = errors.New("authorization: invalid action")
	ErrForbidden     = errors.New("authorization: forbidden")
)

type Service interface {
	Authorize(ctx context.Context, actor string, object string, action string) error
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

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor string, object string, action string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
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

	subject, roleName, err := s.resolveActor(ctx, actor)
	if err != nil {
		return err
	}
	if err := s.ensureGrouping(subject, roleName); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("access denied",
			zap.String("subject", subject),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) resolveActor(ctx context.Context, actor string) (string, string, error) {
	if actor == "system" {
		return actor, "role:system", nil
	}
	if strings.HasPrefix(actor, "user:") {
		userIDRaw := strings.TrimPrefix(actor, "user:")
		userID, err := snowflake.ParseString(userIDRaw)
		if err != nil || userID == 0 {
			return "", "", ErrInvalidActor
		}
		role, err := s.roleForUser(ctx, userID)
		if err != nil {
			return "", "", err
		}
		return actor, fmt.Sprintf("role:%s", strings.ToLower(role)), nil
	}
	return "", "", ErrInvalidActor
}

func (s *ServiceImpl) roleForUser(ctx context.Context, userID snowflake.ID) (string, error) {
	var row struct {
		Role string `gorm:"column:role"`
	}
	if err := s.db.WithContext(ctx).Raw(
		`SELECT role
		 FROM users
		 WHERE id = ?
		 LIMIT 1`,
		userID,
	).Scan(&row).Error; err != nil {
		return "", err
	}

	role := strings.TrimSpace(row.Role)
	if role == "" {
		return "", ErrForbidden
	}
	return role, nil
}

// ensureGrouping keeps the subject mapped to exactly one role so a role
// change in the users table takes effect on the next request.
func (s *ServiceImpl) ensureGrouping(subject string, roleName string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject)
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

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName)
	return err
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		// Member permissions (read-only plus chat)
		{"role:member", ObjectWorkOrder, ActionWorkOrderView},
		{"role:member", ObjectCatalog, ActionCatalogView},
		{"role:member", ObjectProduction, ActionProductionView},
		{"role:member", ObjectReport, ActionReportView},
		{"role:member", ObjectPermission, ActionPermissionRequest},
		{"role:member", ObjectHandball, ActionHandballView},
		{"role:member", ObjectChat, ActionChatUse},

		// Operator permissions (shop-floor lifecycle)
		{"role:operator", ObjectWorkOrder, ActionWorkOrderView},
		{"role:operator", ObjectWorkOrder, ActionWorkOrderEnqueue},
		{"role:operator", ObjectWorkOrder, ActionWorkOrderStart},
		{"role:operator", ObjectWorkOrder, ActionWorkOrderFinish},
		{"role:operator", ObjectCatalog, ActionCatalogView},
		{"role:operator", ObjectProduction, ActionProductionView},
		{"role:operator", ObjectReport, ActionReportView},
		{"role:operator", ObjectPermission, ActionPermissionRequest},
		{"role:operator", ObjectHandball, ActionHandballView},
		{"role:operator", ObjectScan, ActionScanUse},
		{"role:operator", ObjectChat, ActionChatUse},

		// Admin permissions
		{"role:admin", ObjectWorkOrder, "*"},
		{"role:admin", ObjectCatalog, "*"},
		{"role:admin", ObjectProduction, "*"},
		{"role:admin", ObjectReport, "*"},
		{"role:admin", ObjectPermission, "*"},
		{"role:admin", ObjectHandball, "*"},
		{"role:admin", ObjectScan, "*"},
		{"role:admin", ObjectChat, "*"},

		// System permissions (seeding and scheduled jobs)
		{"role:system", ObjectCatalog, ActionCatalogManage},
		{"role:system", ObjectWorkOrder, ActionWorkOrderView},
		{"role:system", ObjectReport, ActionReportView},
	}

	for _, policy := range policies {
		if len(policy) < 3 {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
