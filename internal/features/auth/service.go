package auth

import (
	"context"
	"errors"
	"time"

	"go-lpm/internal/common/models"
	"go-lpm/internal/features/organization"
	"go-lpm/internal/features/rbac"
	"go-lpm/internal/features/user"
	"go-lpm/pkg/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

const invitationTTL = 7 * 24 * time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrInvitationInvalid  = errors.New("invitation is invalid or expired")
)

// PortalDirectory resolves the client record a user is linked to as portal
// user. Satisfied by the client feature's repository; declared here to keep
// this package independent of it.
type PortalDirectory interface {
	ClientIDForPortalUser(ctx context.Context, orgID, userID primitive.ObjectID) (primitive.ObjectID, error)
	LinkPortalUser(ctx context.Context, orgID, clientID, userID primitive.ObjectID) error
}

type AuthService interface {
	Register(ctx context.Context, orgName, region, email, password, firstName, lastName string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	Invite(ctx context.Context, orgID, createdBy primitive.ObjectID, email, roleName string, clientID *primitive.ObjectID) (*Invitation, error)
	AcceptInvitation(ctx context.Context, token, password, firstName, lastName string) (*models.User, error)
	ListInvitations(ctx context.Context, orgID primitive.ObjectID, page, limit int64) ([]Invitation, error)
}

type AuthServiceImpl struct {
	UserRepo       user.UserRepository
	InvitationRepo InvitationRepository
	OrgService     organization.OrganizationService
	RBACService    rbac.RBACService
	Portal         PortalDirectory
	AuditService   rbac.AuditLogger
}

func NewAuthService(
	userRepo user.UserRepository,
	invitationRepo InvitationRepository,
	orgService organization.OrganizationService,
	rbacService rbac.RBACService,
	portal PortalDirectory,
	auditService rbac.AuditLogger,
) AuthService {
	return &AuthServiceImpl{
		UserRepo:       userRepo,
		InvitationRepo: invitationRepo,
		OrgService:     orgService,
		RBACService:    rbacService,
		Portal:         portal,
		AuditService:   auditService,
	}
}

// Register provisions a new organization with the caller as its Owner. The
// system roles are materialized by the organization service before the Owner
// grant happens.
func (s *AuthServiceImpl) Register(ctx context.Context, orgName, region, email, password, firstName, lastName string) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	org, err := s.OrgService.CreateOrganization(ctx, orgName, region, "")
	if err != nil {
		return nil, err
	}

	newUser := &models.User{
		TenantID:  org.ID,
		Email:     email,
		Password:  string(hashed),
		FirstName: firstName,
		LastName:  lastName,
		Status:    "active",
	}
	if err := s.UserRepo.Create(ctx, newUser); err != nil {
		return nil, err
	}

	if err := s.RBACService.GrantRoleByName(ctx, org.ID, newUser.ID, "Owner"); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionCreate, "user", newUser.ID.Hex(), map[string]models.Change{
		"email":     {New: email},
		"tenant_id": {New: org.ID.Hex()},
	})

	return newUser, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, error) {
	usr, err := s.UserRepo.FindByEmailGlobal(ctx, email)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(usr.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	if usr.Status != "active" {
		return "", ErrAccountDisabled
	}

	roles, err := s.RBACService.RoleNamesForUser(ctx, usr.TenantID, usr.ID)
	if err != nil {
		return "", err
	}

	// Users linked to a client record authenticate as portal identities.
	clientID := ""
	cid, err := s.Portal.ClientIDForPortalUser(ctx, usr.TenantID, usr.ID)
	switch {
	case err == nil:
		clientID = cid.Hex()
	case errors.Is(err, mongo.ErrNoDocuments):
	default:
		return "", err
	}

	token, err := utils.GenerateToken(usr.ID, usr.TenantID, roles, clientID)
	if err != nil {
		return "", err
	}

	_ = s.UserRepo.RecordLogin(ctx, usr.ID)
	_ = s.AuditService.LogChange(ctx, models.AuditActionLogin, "user", usr.ID.Hex(), nil)

	return token, nil
}

func (s *AuthServiceImpl) Invite(ctx context.Context, orgID, createdBy primitive.ObjectID, email, roleName string, clientID *primitive.ObjectID) (*Invitation, error) {
	inv := &Invitation{
		TenantID:  orgID,
		Email:     email,
		RoleName:  roleName,
		ClientID:  clientID,
		Token:     uuid.NewString(),
		ExpiresAt: time.Now().Add(invitationTTL),
		CreatedBy: createdBy,
	}
	if err := s.InvitationRepo.Create(ctx, inv); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionInvite, "invitation", inv.ID.Hex(), map[string]models.Change{
		"email": {New: email},
		"role":  {New: roleName},
	})

	return inv, nil
}

// AcceptInvitation redeems a token: the new account is created in the
// invitation's organization with the invitation's role. Client invitations
// additionally link the account as the client's portal user.
func (s *AuthServiceImpl) AcceptInvitation(ctx context.Context, token, password, firstName, lastName string) (*models.User, error) {
	inv, err := s.InvitationRepo.FindByToken(ctx, token)
	if err != nil {
		return nil, ErrInvitationInvalid
	}
	if inv.Accepted() || inv.Expired(time.Now()) {
		return nil, ErrInvitationInvalid
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	newUser := &models.User{
		TenantID:  inv.TenantID,
		Email:     inv.Email,
		Password:  string(hashed),
		FirstName: firstName,
		LastName:  lastName,
		Status:    "active",
	}
	if err := s.UserRepo.Create(ctx, newUser); err != nil {
		return nil, err
	}

	if err := s.RBACService.GrantRoleByName(ctx, inv.TenantID, newUser.ID, inv.RoleName); err != nil {
		return nil, err
	}

	if inv.ClientID != nil {
		if err := s.Portal.LinkPortalUser(ctx, inv.TenantID, *inv.ClientID, newUser.ID); err != nil {
			return nil, err
		}
	}

	if err := s.InvitationRepo.MarkAccepted(ctx, inv.ID); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionCreate, "user", newUser.ID.Hex(), map[string]models.Change{
		"email":      {New: inv.Email},
		"role":       {New: inv.RoleName},
		"invitation": {New: inv.ID.Hex()},
	})

	return newUser, nil
}

func (s *AuthServiceImpl) ListInvitations(ctx context.Context, orgID primitive.ObjectID, page, limit int64) ([]Invitation, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return s.InvitationRepo.List(ctx, orgID, limit, (page-1)*limit)
}
