package document

import (
	"go-lpm/internal/config"
	"go-lpm/internal/features/rbac"
	"go-lpm/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type DocumentApi struct {
	controller *DocumentController
	config     *config.Config
	evaluator  *rbac.Evaluator
	policy     *rbac.PolicyMap
}

func NewDocumentApi(controller *DocumentController, config *config.Config, evaluator *rbac.Evaluator, policy *rbac.PolicyMap) *DocumentApi {
	return &DocumentApi{
		controller: controller,
		config:     config,
		evaluator:  evaluator,
		policy:     policy,
	}
}

func (h *DocumentApi) Setup(app *fiber.App) {
	guard := func(resource string, action rbac.Action) fiber.Handler {
		return rbac.RequireAction(h.evaluator, h.policy, resource, action)
	}

	docs := app.Group("/api/documents", middleware.AuthMiddleware(h.config.SkipAuth))
	docs.Get("/", guard("document", rbac.ActionList), h.controller.ListDocuments)
	docs.Post("/", guard("document", rbac.ActionCreate), h.controller.Upload)
	docs.Get("/:id", guard("document", rbac.ActionRetrieve), h.controller.GetDocument)
	docs.Delete("/:id", guard("document", rbac.ActionDestroy), h.controller.DeleteDocument)
	docs.Get("/:id/download", guard("document", "download"), h.controller.Download)
	docs.Get("/:id/versions", guard("document", "versions"), h.controller.ListVersions)
	docs.Post("/:id/versions", guard("document", "upload_version"), h.controller.UploadVersion)
	docs.Put("/:id/visibility", guard("document", "set_visibility"), h.controller.SetVisibility)
	docs.Get("/:id/share-links", guard("sharelink", rbac.ActionList), h.controller.ListShareLinks)
	docs.Post("/:id/share-links", guard("sharelink", rbac.ActionCreate), h.controller.CreateShareLink)
	docs.Delete("/share-links/:linkId", guard("sharelink", rbac.ActionDestroy), h.controller.RevokeShareLink)

	// Share link downloads are anonymous; the token is the credential.
	app.Get("/api/shared/:token", h.controller.DownloadShared)
}
