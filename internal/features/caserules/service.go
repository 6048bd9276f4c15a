package caserules

import (
	"context"
	"errors"
	"time"

	"go-lpm/internal/common/models"
	"go-lpm/internal/features/rbac"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrRuleDisabled = errors.New("rule is disabled")

type RuleService interface {
	CreateRule(ctx context.Context, rule *Rule) error
	GetRule(ctx context.Context, id primitive.ObjectID) (*Rule, error)
	ListRules(ctx context.Context) ([]Rule, error)
	UpdateRule(ctx context.Context, rule *Rule) error
	DeleteRule(ctx context.Context, id primitive.ObjectID) error
	Calculate(ctx context.Context, ruleID primitive.ObjectID, trigger time.Time, params map[string]interface{}) ([]ComputedDeadline, error)
}

type RuleServiceImpl struct {
	Repo         RuleRepository
	Engine       *Engine
	AuditService rbac.AuditLogger
}

func NewRuleService(repo RuleRepository, engine *Engine, auditService rbac.AuditLogger) RuleService {
	return &RuleServiceImpl{
		Repo:         repo,
		Engine:       engine,
		AuditService: auditService,
	}
}

func (s *RuleServiceImpl) CreateRule(ctx context.Context, rule *Rule) error {
	principal := rbac.PrincipalFrom(ctx)
	rule.TenantID = principal.OrganizationID

	// Compile-check against a probe date before the rule is accepted.
	if _, err := s.Engine.Calculate(ctx, rule.Script, time.Now(), nil); err != nil {
		return err
	}

	if err := s.Repo.Create(ctx, rule); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, models.AuditActionCreate, "case_rule", rule.ID.Hex(), map[string]models.Change{
		"name": {New: rule.Name},
	})
	return nil
}

func (s *RuleServiceImpl) GetRule(ctx context.Context, id primitive.ObjectID) (*Rule, error) {
	principal := rbac.PrincipalFrom(ctx)
	return s.Repo.FindByID(ctx, principal.OrganizationID, id)
}

func (s *RuleServiceImpl) ListRules(ctx context.Context) ([]Rule, error) {
	principal := rbac.PrincipalFrom(ctx)
	return s.Repo.List(ctx, principal.OrganizationID)
}

func (s *RuleServiceImpl) UpdateRule(ctx context.Context, rule *Rule) error {
	existing, err := s.GetRule(ctx, rule.ID)
	if err != nil {
		return err
	}

	if _, err := s.Engine.Calculate(ctx, rule.Script, time.Now(), nil); err != nil {
		return err
	}

	rule.TenantID = existing.TenantID
	rule.CreatedAt = existing.CreatedAt
	if err := s.Repo.Update(ctx, rule); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, models.AuditActionUpdate, "case_rule", rule.ID.Hex(), map[string]models.Change{
		"name": {Old: existing.Name, New: rule.Name},
	})
	return nil
}

func (s *RuleServiceImpl) DeleteRule(ctx context.Context, id primitive.ObjectID) error {
	principal := rbac.PrincipalFrom(ctx)
	if _, err := s.GetRule(ctx, id); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, principal.OrganizationID, id); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, models.AuditActionDelete, "case_rule", id.Hex(), nil)
	return nil
}

func (s *RuleServiceImpl) Calculate(ctx context.Context, ruleID primitive.ObjectID, trigger time.Time, params map[string]interface{}) ([]ComputedDeadline, error) {
	rule, err := s.GetRule(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if !rule.Enabled {
		return nil, ErrRuleDisabled
	}
	return s.Engine.Calculate(ctx, rule.Script, trigger, params)
}
