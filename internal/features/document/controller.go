package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go-lpm/internal/config"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DocumentController struct {
	UploadDir string
	Service   DocumentService
}

func NewDocumentController(service DocumentService, cfg *config.Config) *DocumentController {
	if _, err := os.Stat(cfg.FSPath); os.IsNotExist(err) {
		os.MkdirAll(cfg.FSPath, 0755)
	}
	return &DocumentController{
		UploadDir: cfg.FSPath,
		Service:   service,
	}
}

type visibilityRequest struct {
	ClientVisible bool `json:"client_visible"`
}

// Upload godoc
// @Summary      Upload a document
// @Description  Upload a file as a new document on a matter
// @Tags         document
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "File to upload"
// @Param        matter_id formData string true "Matter ID"
// @Param        title formData string false "Document title, defaults to the filename"
// @Param        client_visible formData boolean false "Visible to the client portal"
// @Success      201 {object} Document
// @Router       /documents [post]
func (ctrl *DocumentController) Upload(c *fiber.Ctx) error {
	matterID, err := primitive.ObjectIDFromHex(c.FormValue("matter_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid matter ID",
		})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Error retrieving file",
		})
	}

	version, err := ctrl.saveUpload(c, file.Filename)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error saving file to disk",
		})
	}

	title := c.FormValue("title")
	if title == "" {
		title = version.Filename
	}

	doc := &Document{
		MatterID:      matterID,
		Title:         title,
		Description:   c.FormValue("description"),
		ClientVisible: c.FormValue("client_visible") == "true",
	}
	if err := ctrl.Service.CreateDocument(c.Context(), doc, *version); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Matter not found",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Document uploaded successfully",
		"data":    doc,
	})
}

// UploadVersion godoc
// @Summary      Upload a new version of a document
// @Tags         document
// @Accept       multipart/form-data
// @Produce      json
// @Success      201 {object} Document
// @Router       /documents/{id}/versions [post]
func (ctrl *DocumentController) UploadVersion(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Error retrieving file",
		})
	}

	version, err := ctrl.saveUpload(c, file.Filename)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error saving file to disk",
		})
	}

	doc, err := ctrl.Service.AddVersion(c.Context(), id, *version)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Document not found",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Version uploaded successfully",
		"data":    doc,
	})
}

func (ctrl *DocumentController) saveUpload(c *fiber.Ctx, filename string) (*Version, error) {
	file, err := c.FormFile("file")
	if err != nil {
		return nil, err
	}

	originalName := filepath.Base(filename)
	uniqueName := fmt.Sprintf("%d_%s", time.Now().UnixNano(), originalName)
	uniqueName = strings.ReplaceAll(uniqueName, " ", "_")
	dstPath := filepath.Join(ctrl.UploadDir, uniqueName)

	if err := c.SaveFile(file, dstPath); err != nil {
		return nil, err
	}

	return &Version{
		Filename: originalName,
		Path:     dstPath,
		Size:     file.Size,
		MimeType: file.Header.Get("Content-Type"),
	}, nil
}

// ListDocuments godoc
func (ctrl *DocumentController) ListDocuments(c *fiber.Ctx) error {
	page, _ := strconv.ParseInt(c.Query("page", "1"), 10, 64)
	limit, _ := strconv.ParseInt(c.Query("limit", "20"), 10, 64)

	var matterID *primitive.ObjectID
	if raw := c.Query("matter_id"); raw != "" {
		oid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid matter ID",
			})
		}
		matterID = &oid
	}

	docs, err := ctrl.Service.ListDocuments(c.Context(), matterID, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch documents",
		})
	}

	return c.JSON(fiber.Map{
		"data":  docs,
		"page":  page,
		"limit": limit,
	})
}

// GetDocument godoc
func (ctrl *DocumentController) GetDocument(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	doc, err := ctrl.Service.GetDocument(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Document not found",
		})
	}
	return c.JSON(doc)
}

// ListVersions godoc
func (ctrl *DocumentController) ListVersions(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	doc, err := ctrl.Service.GetDocument(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Document not found",
		})
	}
	return c.JSON(fiber.Map{"data": doc.Versions})
}

// Download godoc
// @Summary      Download the current version of a document
// @Tags         document
// @Produce      octet-stream
// @Success      200
// @Router       /documents/{id}/download [get]
func (ctrl *DocumentController) Download(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	v, err := ctrl.Service.CurrentFile(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Document not found",
		})
	}
	return c.Download(v.Path, v.Filename)
}

// SetVisibility godoc
func (ctrl *DocumentController) SetVisibility(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}
	var req visibilityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := ctrl.Service.SetVisibility(c.Context(), id, req.ClientVisible); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Document not found",
		})
	}
	return c.JSON(fiber.Map{"message": "Visibility updated"})
}

// DeleteDocument godoc
func (ctrl *DocumentController) DeleteDocument(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	if err := ctrl.Service.DeleteDocument(c.Context(), id); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Document not found",
		})
	}
	return c.JSON(fiber.Map{"message": "Document deleted successfully"})
}

// CreateShareLink godoc
func (ctrl *DocumentController) CreateShareLink(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	link, err := ctrl.Service.CreateShareLink(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Document not found",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Share link created",
		"data":    link,
	})
}

// ListShareLinks godoc
func (ctrl *DocumentController) ListShareLinks(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	links, err := ctrl.Service.ListShareLinks(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Document not found",
		})
	}
	return c.JSON(fiber.Map{"data": links})
}

// RevokeShareLink godoc
func (ctrl *DocumentController) RevokeShareLink(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("linkId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid share link ID",
		})
	}

	if err := ctrl.Service.RevokeShareLink(c.Context(), id); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Share link not found",
		})
	}
	return c.JSON(fiber.Map{"message": "Share link revoked"})
}

// DownloadShared serves an anonymous download through a share link token.
func (ctrl *DocumentController) DownloadShared(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Token is required",
		})
	}

	_, v, err := ctrl.Service.ResolveShareLink(c.Context(), token)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Share link is invalid or expired",
		})
	}
	return c.Download(v.Path, v.Filename)
}
