package user

import (
	"context"
	"errors"

	"go-lpm/internal/common/models"
	"go-lpm/internal/features/rbac"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrEmailTaken = errors.New("email already in use")

type UserView struct {
	models.User
	Roles []string `json:"roles"`
}

type UserService interface {
	GetUser(ctx context.Context, orgID, id primitive.ObjectID) (*UserView, error)
	ListUsers(ctx context.Context, orgID primitive.ObjectID, page, limit int64) ([]UserView, error)
	UpdateProfile(ctx context.Context, orgID, id primitive.ObjectID, firstName, lastName string) error
	SetStatus(ctx context.Context, orgID, id primitive.ObjectID, status string) error
}

type UserServiceImpl struct {
	Repo         UserRepository
	RBACService  rbac.RBACService
	AuditService rbac.AuditLogger
}

func NewUserService(repo UserRepository, rbacService rbac.RBACService, auditService rbac.AuditLogger) UserService {
	return &UserServiceImpl{
		Repo:         repo,
		RBACService:  rbacService,
		AuditService: auditService,
	}
}

func (s *UserServiceImpl) GetUser(ctx context.Context, orgID, id primitive.ObjectID) (*UserView, error) {
	user, err := s.Repo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	roles, err := s.RBACService.RoleNamesForUser(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	return &UserView{User: *user, Roles: roles}, nil
}

func (s *UserServiceImpl) ListUsers(ctx context.Context, orgID primitive.ObjectID, page, limit int64) ([]UserView, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	users, err := s.Repo.List(ctx, orgID, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}

	views := make([]UserView, 0, len(users))
	for _, u := range users {
		roles, err := s.RBACService.RoleNamesForUser(ctx, orgID, u.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, UserView{User: u, Roles: roles})
	}
	return views, nil
}

func (s *UserServiceImpl) UpdateProfile(ctx context.Context, orgID, id primitive.ObjectID, firstName, lastName string) error {
	user, err := s.Repo.FindByID(ctx, orgID, id)
	if err != nil {
		return err
	}

	changes := map[string]models.Change{}
	if firstName != "" && firstName != user.FirstName {
		changes["first_name"] = models.Change{Old: user.FirstName, New: firstName}
		user.FirstName = firstName
	}
	if lastName != "" && lastName != user.LastName {
		changes["last_name"] = models.Change{Old: user.LastName, New: lastName}
		user.LastName = lastName
	}
	if len(changes) == 0 {
		return nil
	}

	if err := s.Repo.Update(ctx, user); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, models.AuditActionUpdate, "user", id.Hex(), changes)
	return nil
}

func (s *UserServiceImpl) SetStatus(ctx context.Context, orgID, id primitive.ObjectID, status string) error {
	if err := s.Repo.UpdateStatus(ctx, orgID, id, status); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, models.AuditActionUpdate, "user", id.Hex(), map[string]models.Change{
		"status": {New: status},
	})
	return nil
}
