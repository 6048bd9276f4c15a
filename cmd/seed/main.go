package main

import (
	"context"
	"time"

	common_models "go-lpm/internal/common/models"
	"go-lpm/internal/config"
	"go-lpm/internal/database"
	"go-lpm/internal/features/audit"
	"go-lpm/internal/features/client"
	"go-lpm/internal/features/matter"
	"go-lpm/internal/features/organization"
	"go-lpm/internal/features/rbac"
	"go-lpm/internal/features/user"
	"go-lpm/internal/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	seedOrgSlug    = "demo-firm"
	seedOwnerEmail = "owner@demo-firm.test"
)

// Seed provisions a demo organization with an Owner account and a sample
// client and matter. Safe to re-run: it skips everything when the demo
// organization already exists.
func Seed(
	lc fx.Lifecycle,
	orgRepo organization.OrganizationRepository,
	userRepo user.UserRepository,
	clientRepo client.ClientRepository,
	matterRepo matter.MatterRepository,
	rbacService rbac.RBACService,
	synchronizer *rbac.Synchronizer,
	logger *zap.Logger,
	shutdowner fx.Shutdowner,
) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer func() {
					if err := shutdowner.Shutdown(); err != nil {
						logger.Error("Failed to shutdown", zap.Error(err))
					}
				}()

				ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
				defer cancel()

				if _, err := orgRepo.FindBySlug(ctx, seedOrgSlug); err == nil {
					logger.Info("Demo organization exists, skipping seed",
						zap.String("slug", seedOrgSlug))
					return
				}

				org := &common_models.Organization{
					Name:         "Demo Law Firm",
					Slug:         seedOrgSlug,
					Region:       "CA-ON",
					MatterPrefix: "DEMO",
				}
				if err := orgRepo.Create(ctx, org); err != nil {
					logger.Error("Failed to create organization", zap.Error(err))
					return
				}
				if err := synchronizer.SyncOrganization(ctx, org.ID); err != nil {
					logger.Error("Failed to sync roles", zap.Error(err))
					return
				}

				hashed, err := bcrypt.GenerateFromPassword([]byte("ChangeMe123!"), bcrypt.DefaultCost)
				if err != nil {
					logger.Error("Failed to hash password", zap.Error(err))
					return
				}
				owner := &common_models.User{
					TenantID:  org.ID,
					Email:     seedOwnerEmail,
					Password:  string(hashed),
					FirstName: "Demo",
					LastName:  "Owner",
					Status:    "active",
				}
				if err := userRepo.Create(ctx, owner); err != nil {
					logger.Error("Failed to create owner", zap.Error(err))
					return
				}
				if err := rbacService.GrantRoleByName(ctx, org.ID, owner.ID, "Owner"); err != nil {
					logger.Error("Failed to grant Owner role", zap.Error(err))
					return
				}

				demoClient := &client.Client{
					TenantID: org.ID,
					Name:     "Acme Holdings Inc.",
					Type:     "company",
					Email:    "legal@acme.test",
				}
				if err := clientRepo.Create(ctx, demoClient); err != nil {
					logger.Error("Failed to create demo client", zap.Error(err))
					return
				}

				reference, err := orgRepo.NextMatterReference(ctx, org.ID)
				if err != nil {
					logger.Error("Failed to claim matter reference", zap.Error(err))
					return
				}
				demoMatter := &matter.Matter{
					TenantID:      org.ID,
					Reference:     reference,
					Title:         "Acme share purchase agreement",
					Status:        matter.StatusOpen,
					PracticeArea:  "Corporate",
					ClientID:      demoClient.ID,
					LeadLawyerID:  owner.ID,
					AccessUserIDs: []primitive.ObjectID{},
				}
				if err := matterRepo.Create(ctx, demoMatter); err != nil {
					logger.Error("Failed to create demo matter", zap.Error(err))
					return
				}

				logger.Info("Seed complete",
					zap.String("organization", org.ID.Hex()),
					zap.String("owner", seedOwnerEmail),
					zap.String("matter", reference))
			}()
			return nil
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			database.NewDatabase,
			database.NewTxnRunner,

			audit.NewAuditRepository,
			rbac.NewPermissionRepository,
			rbac.NewRoleRepository,
			rbac.NewUserRoleRepository,
			organization.NewOrganizationRepository,
			user.NewUserRepository,
			client.NewClientRepository,
			matter.NewMatterRepository,

			rbac.NewSynchronizer,
			rbac.NewRBACService,
			audit.NewAuditService,

			func(s audit.AuditService) rbac.AuditLogger { return s },
			func(r user.UserRepository) audit.UserFinder { return r },
			func(r organization.OrganizationRepository) rbac.OrgLocker { return r },
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(Seed),
	)

	app.Run()
}
