package document

import (
	"context"
	"errors"
	"time"

	"go-lpm/internal/common/models"
	"go-lpm/internal/features/matter"
	"go-lpm/internal/features/rbac"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const shareLinkTTL = 72 * time.Hour

var ErrShareLinkInvalid = errors.New("share link is invalid, revoked or expired")

// Documents inherit matter visibility; portal users additionally need the
// client_visible flag.
var rowPolicy = rbac.RowPolicy{
	Resource:           "document",
	MatterField:        "matter_id",
	ClientVisibleField: "client_visible",
	BypassPermission:   "document.view_all",
}

// ClientDirectory resolves a client's portal user for visibility
// notifications. Satisfied by the client feature's repository.
type ClientDirectory interface {
	PortalUserIDForClient(ctx context.Context, orgID, clientID primitive.ObjectID) (primitive.ObjectID, error)
}

type DocumentService interface {
	CreateDocument(ctx context.Context, doc *Document, first Version) error
	GetDocument(ctx context.Context, id primitive.ObjectID) (*Document, error)
	ListDocuments(ctx context.Context, matterID *primitive.ObjectID, page, limit int64) ([]Document, error)
	AddVersion(ctx context.Context, id primitive.ObjectID, v Version) (*Document, error)
	CurrentFile(ctx context.Context, id primitive.ObjectID) (*Version, error)
	SetVisibility(ctx context.Context, id primitive.ObjectID, visible bool) error
	DeleteDocument(ctx context.Context, id primitive.ObjectID) error

	CreateShareLink(ctx context.Context, documentID primitive.ObjectID) (*ShareLink, error)
	ListShareLinks(ctx context.Context, documentID primitive.ObjectID) ([]ShareLink, error)
	RevokeShareLink(ctx context.Context, id primitive.ObjectID) error
	ResolveShareLink(ctx context.Context, token string) (*Document, *Version, error)
}

type DocumentServiceImpl struct {
	Repo         DocumentRepository
	Links        ShareLinkRepository
	Matters      matter.MatterService
	Clients      ClientDirectory
	Scoper       *rbac.Scoper
	Notifier     models.Notifier
	AuditService rbac.AuditLogger
}

func NewDocumentService(
	repo DocumentRepository,
	links ShareLinkRepository,
	matters matter.MatterService,
	clients ClientDirectory,
	scoper *rbac.Scoper,
	notifier models.Notifier,
	auditService rbac.AuditLogger,
) DocumentService {
	return &DocumentServiceImpl{
		Repo:         repo,
		Links:        links,
		Matters:      matters,
		Clients:      clients,
		Scoper:       scoper,
		Notifier:     notifier,
		AuditService: auditService,
	}
}

func (s *DocumentServiceImpl) CreateDocument(ctx context.Context, doc *Document, first Version) error {
	principal := rbac.PrincipalFrom(ctx)

	// The uploader must be able to see the matter.
	if _, err := s.Matters.GetMatter(ctx, doc.MatterID); err != nil {
		return err
	}

	first.Number = 1
	first.UploadedAt = time.Now()
	first.UploadedBy = principal.UserID
	scanVersion(&first)

	doc.TenantID = principal.OrganizationID
	doc.CreatedBy = principal.UserID
	doc.CurrentVersion = 1
	doc.Versions = []Version{first}

	if err := s.Repo.Create(ctx, doc); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionCreate, "document", doc.ID.Hex(), map[string]models.Change{
		"title": {New: doc.Title},
	})
	return nil
}

func (s *DocumentServiceImpl) GetDocument(ctx context.Context, id primitive.ObjectID) (*Document, error) {
	filter, err := s.scopedFilter(ctx)
	if err != nil {
		return nil, err
	}
	filter["_id"] = id
	return s.Repo.FindOne(ctx, filter)
}

func (s *DocumentServiceImpl) ListDocuments(ctx context.Context, matterID *primitive.ObjectID, page, limit int64) ([]Document, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	filter, err := s.scopedFilter(ctx)
	if err != nil {
		return nil, err
	}
	if matterID != nil {
		filter["matter_id"] = *matterID
	}
	return s.Repo.List(ctx, filter, limit, (page-1)*limit)
}

func (s *DocumentServiceImpl) AddVersion(ctx context.Context, id primitive.ObjectID, v Version) (*Document, error) {
	principal := rbac.PrincipalFrom(ctx)
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	v.Number = doc.CurrentVersion + 1
	v.UploadedAt = time.Now()
	v.UploadedBy = principal.UserID
	scanVersion(&v)
	if err := s.Repo.AppendVersion(ctx, principal.OrganizationID, id, v); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionUpdate, "document", id.Hex(), map[string]models.Change{
		"version": {Old: doc.CurrentVersion, New: v.Number},
	})

	doc.Versions = append(doc.Versions, v)
	doc.CurrentVersion = v.Number
	return doc, nil
}

// CurrentFile returns the latest version's file info and records the download.
func (s *DocumentServiceImpl) CurrentFile(ctx context.Context, id primitive.ObjectID) (*Version, error) {
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	v := doc.latestVersion()
	if v == nil {
		return nil, mongo.ErrNoDocuments
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionDownload, "document", id.Hex(), map[string]models.Change{
		"version": {New: v.Number},
	})
	return v, nil
}

// SetVisibility flips the client flag and notifies the matter's portal user
// when a document becomes visible to them.
func (s *DocumentServiceImpl) SetVisibility(ctx context.Context, id primitive.ObjectID, visible bool) error {
	principal := rbac.PrincipalFrom(ctx)
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if doc.ClientVisible == visible {
		return nil
	}

	if err := s.Repo.SetVisibility(ctx, principal.OrganizationID, id, visible); err != nil {
		return err
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionVisibility, "document", id.Hex(), map[string]models.Change{
		"client_visible": {Old: doc.ClientVisible, New: visible},
	})

	if visible {
		s.notifyPortalUser(ctx, doc)
	}
	return nil
}

func (s *DocumentServiceImpl) notifyPortalUser(ctx context.Context, doc *Document) {
	principal := rbac.PrincipalFrom(ctx)
	m, err := s.Matters.GetMatter(ctx, doc.MatterID)
	if err != nil {
		return
	}
	portalUserID, err := s.Clients.PortalUserIDForClient(ctx, principal.OrganizationID, m.ClientID)
	if err != nil {
		return
	}
	_ = s.Notifier.Notify(ctx, principal.OrganizationID, portalUserID,
		"document_shared", "A new document is available: "+doc.Title, "document", doc.ID.Hex())
}

func (s *DocumentServiceImpl) DeleteDocument(ctx context.Context, id primitive.ObjectID) error {
	principal := rbac.PrincipalFrom(ctx)
	if _, err := s.GetDocument(ctx, id); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, principal.OrganizationID, id); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, models.AuditActionDelete, "document", id.Hex(), nil)
	return nil
}

func (s *DocumentServiceImpl) CreateShareLink(ctx context.Context, documentID primitive.ObjectID) (*ShareLink, error) {
	principal := rbac.PrincipalFrom(ctx)
	if _, err := s.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}

	link := &ShareLink{
		TenantID:   principal.OrganizationID,
		DocumentID: documentID,
		Token:      uuid.NewString(),
		ExpiresAt:  time.Now().Add(shareLinkTTL),
		CreatedBy:  principal.UserID,
	}
	if err := s.Links.Create(ctx, link); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionCreate, "share_link", link.ID.Hex(), map[string]models.Change{
		"document": {New: documentID.Hex()},
	})
	return link, nil
}

func (s *DocumentServiceImpl) ListShareLinks(ctx context.Context, documentID primitive.ObjectID) ([]ShareLink, error) {
	principal := rbac.PrincipalFrom(ctx)
	if _, err := s.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	return s.Links.ListByDocument(ctx, principal.OrganizationID, documentID)
}

func (s *DocumentServiceImpl) RevokeShareLink(ctx context.Context, id primitive.ObjectID) error {
	principal := rbac.PrincipalFrom(ctx)
	if err := s.Links.Revoke(ctx, principal.OrganizationID, id); err != nil {
		return err
	}
	_ = s.AuditService.LogChange(ctx, models.AuditActionDelete, "share_link", id.Hex(), nil)
	return nil
}

// ResolveShareLink serves anonymous downloads. The token is the capability;
// no scoping beyond the link's own tenant applies.
func (s *DocumentServiceImpl) ResolveShareLink(ctx context.Context, token string) (*Document, *Version, error) {
	link, err := s.Links.FindByToken(ctx, token)
	if err != nil {
		return nil, nil, ErrShareLinkInvalid
	}
	if !link.Usable(time.Now()) {
		return nil, nil, ErrShareLinkInvalid
	}

	doc, err := s.Repo.FindOne(ctx, bson.M{"_id": link.DocumentID, "tenant_id": link.TenantID})
	if err != nil {
		return nil, nil, err
	}
	v := doc.latestVersion()
	if v == nil {
		return nil, nil, mongo.ErrNoDocuments
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionDownload, "document", doc.ID.Hex(), map[string]models.Change{
		"share_link": {New: link.ID.Hex()},
	})
	return doc, v, nil
}

// scanVersion screens an upload before it is stored. No scanner is wired in
// yet, so every file is accepted as clean.
func scanVersion(v *Version) {
	v.ScanStatus = ScanStatusClean
}

func (d *Document) latestVersion() *Version {
	for i := range d.Versions {
		if d.Versions[i].Number == d.CurrentVersion {
			return &d.Versions[i]
		}
	}
	if len(d.Versions) > 0 {
		return &d.Versions[len(d.Versions)-1]
	}
	return nil
}

func (s *DocumentServiceImpl) scopedFilter(ctx context.Context) (bson.M, error) {
	principal := rbac.PrincipalFrom(ctx)
	return s.Scoper.Scope(ctx, principal, rowPolicy)
}
