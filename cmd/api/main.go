package main

import (
	"context"
	"fmt"
	"log"
	"time"

	common_api "go-lpm/internal/common/api"
	common_models "go-lpm/internal/common/models"
	"go-lpm/internal/config"
	"go-lpm/internal/database"
	"go-lpm/internal/features/audit"
	"go-lpm/internal/features/auth"
	"go-lpm/internal/features/billing"
	"go-lpm/internal/features/caserules"
	"go-lpm/internal/features/client"
	"go-lpm/internal/features/document"
	"go-lpm/internal/features/integrations"
	"go-lpm/internal/features/matter"
	"go-lpm/internal/features/messaging"
	"go-lpm/internal/features/notification"
	"go-lpm/internal/features/organization"
	"go-lpm/internal/features/rbac"
	"go-lpm/internal/features/system"
	"go-lpm/internal/features/user"
	"go-lpm/internal/logger"
	"go-lpm/internal/middleware"
	"go-lpm/pkg/utils"

	_ "go-lpm/docs" // Import swagger docs

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates a new Fiber app instance
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute is a helper function to reduce boilerplate.
// It tags the constructor so Fx knows to add it to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the group "routes" (slice of interfaces)
// and calls Setup() on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
	log.Printf("Registered %d route groups", len(routes))
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// ConfigureTokenSigning injects the configured JWT secret before any request
// can mint or validate a token.
func ConfigureTokenSigning(cfg *config.Config) {
	utils.SetSecret(cfg.JWTSecret)
}

// NewPolicyMap builds the declarative access table and refuses to boot on an
// invalid one.
func NewPolicyMap() (*rbac.PolicyMap, error) {
	m := rbac.DefaultPolicyMap()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// StartServer creates a lifecycle hook to start Fiber in a goroutine
// and shut it down when the app exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

type indexed interface {
	EnsureIndexes(ctx context.Context) error
}

// InitializeIndexes ensures that necessary database indexes are created.
func InitializeIndexes(
	lc fx.Lifecycle,
	users user.UserRepository,
	invitations auth.InvitationRepository,
	clients client.ClientRepository,
	matters matter.MatterRepository,
	deadlines matter.DeadlineRepository,
	documents document.DocumentRepository,
	shareLinks document.ShareLinkRepository,
	timeEntries billing.TimeEntryRepository,
	expenses billing.ExpenseRepository,
	invoices billing.InvoiceRepository,
	payments billing.PaymentRepository,
	threads messaging.ThreadRepository,
	messages messaging.MessageRepository,
	notifications notification.NotificationRepository,
) {
	repos := []interface{}{
		users, invitations, clients, matters, deadlines, documents, shareLinks,
		timeEntries, expenses, invoices, payments, threads, messages, notifications,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				for _, repo := range repos {
					if idx, ok := repo.(indexed); ok {
						if err := idx.EnsureIndexes(ctx); err != nil {
							log.Printf("Failed to ensure indexes for %T: %v", repo, err)
						}
					}
				}
			}()
			return nil
		},
	})
}

// StartReminderScheduler runs the deadline reminder sweep alongside the server.
func StartReminderScheduler(lc fx.Lifecycle, reminder *notification.DeadlineReminder) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return reminder.Start()
		},
		OnStop: func(ctx context.Context) error {
			reminder.Stop()
			return nil
		},
	})
}

// @title           Legal Practice Management API
// @version         1.0
// @description     Multi-tenant legal practice management backend with role-based access control.

// @host            localhost:8080
// @BasePath        /api
func main() {
	app := fx.New(
		fx.Provide(
			// Load Config
			config.LoadConfig,

			// Initialize Logger
			logger.NewLogger,

			// Initialize Fiber Server
			NewFiberServer,

			// Initialize Database
			database.NewDatabase,
			database.NewTxnRunner,

			// Initialize Repositories
			audit.NewAuditRepository,
			rbac.NewPermissionRepository,
			rbac.NewRoleRepository,
			rbac.NewUserRoleRepository,
			organization.NewOrganizationRepository,
			user.NewUserRepository,
			auth.NewInvitationRepository,
			client.NewClientRepository,
			matter.NewMatterRepository,
			matter.NewDeadlineRepository,
			caserules.NewRuleRepository,
			document.NewDocumentRepository,
			document.NewShareLinkRepository,
			billing.NewTimeEntryRepository,
			billing.NewExpenseRepository,
			billing.NewInvoiceRepository,
			billing.NewPaymentRepository,
			messaging.NewThreadRepository,
			messaging.NewMessageRepository,
			notification.NewNotificationRepository,

			// RBAC core
			NewPolicyMap,
			rbac.NewRoleSource,
			rbac.NewEvaluator,
			rbac.NewScoper,
			rbac.NewSynchronizer,
			rbac.NewRBACService,

			// Services
			audit.NewAuditService,
			organization.NewOrganizationService,
			user.NewUserService,
			auth.NewAuthService,
			client.NewClientService,
			matter.NewMatterService,
			matter.NewDeadlineService,
			caserules.NewEngine,
			caserules.NewRuleService,
			document.NewDocumentService,
			billing.NewBillingService,
			messaging.NewMessagingService,
			notification.NewHub,
			notification.NewNotificationService,
			notification.NewDeadlineReminder,
			integrations.NewSQLExporter,

			// Interface adapters wiring cross-feature dependencies
			func(s audit.AuditService) rbac.AuditLogger { return s },
			func(r user.UserRepository) audit.UserFinder { return r },
			func(r organization.OrganizationRepository) rbac.OrgLocker { return r },
			func(r matter.MatterRepository) rbac.MatterResolver { return r },
			func(s organization.OrganizationService) matter.ReferenceSource { return s },
			func(s organization.OrganizationService) billing.NumberSource { return s },
			func(r client.ClientRepository) auth.PortalDirectory { return r },
			func(r client.ClientRepository) document.ClientDirectory { return r },
			func(r client.ClientRepository) messaging.ClientDirectory { return r },
			func(s notification.NotificationService) common_models.Notifier { return s },
			func(e *integrations.SQLExporter) billing.ExternalExporter { return e },

			// Controllers
			auth.NewAuthController,
			rbac.NewRBACController,
			organization.NewOrganizationController,
			user.NewUserController,
			client.NewClientController,
			matter.NewMatterController,
			matter.NewDeadlineController,
			caserules.NewRuleController,
			document.NewDocumentController,
			billing.NewBillingController,
			messaging.NewMessagingController,
			notification.NewNotificationController,
			audit.NewAuditController,

			// API Routes
			AsRoute(auth.NewAuthApi),
			AsRoute(rbac.NewRBACApi),
			AsRoute(organization.NewOrganizationApi),
			AsRoute(user.NewUserApi),
			AsRoute(client.NewClientApi),
			AsRoute(matter.NewMatterApi),
			AsRoute(caserules.NewCaseRulesApi),
			AsRoute(document.NewDocumentApi),
			AsRoute(billing.NewBillingApi),
			AsRoute(messaging.NewMessagingApi),
			AsRoute(notification.NewNotificationApi),
			AsRoute(audit.NewAuditApi),
			AsRoute(system.NewHealthApi),
			AsRoute(system.NewSwaggerApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			ConfigureTokenSigning,
			RegisterAllRoutesWithAnnotation,
			InitializeIndexes,
			StartReminderScheduler,
			StartServer,
		),
	)

	app.Run()
}
