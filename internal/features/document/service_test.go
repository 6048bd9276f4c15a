package document

import (
	"context"
	"testing"
	"time"

	"go-lpm/internal/common/models"
	"go-lpm/internal/features/matter"
	"go-lpm/internal/features/rbac"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type fakeDocumentRepo struct {
	docs map[primitive.ObjectID]*Document
}

func (r *fakeDocumentRepo) Create(ctx context.Context, doc *Document) error {
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	r.docs[doc.ID] = doc
	return nil
}

func (r *fakeDocumentRepo) FindOne(ctx context.Context, filter bson.M) (*Document, error) {
	id, _ := filter["_id"].(primitive.ObjectID)
	doc, ok := r.docs[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	if tenantID, ok := filter["tenant_id"].(primitive.ObjectID); ok && doc.TenantID != tenantID {
		return nil, mongo.ErrNoDocuments
	}
	return doc, nil
}

func (r *fakeDocumentRepo) List(ctx context.Context, filter bson.M, limit, offset int64) ([]Document, error) {
	return nil, nil
}

func (r *fakeDocumentRepo) AppendVersion(ctx context.Context, orgID, id primitive.ObjectID, v Version) error {
	doc := r.docs[id]
	doc.Versions = append(doc.Versions, v)
	doc.CurrentVersion = v.Number
	return nil
}

func (r *fakeDocumentRepo) SetVisibility(ctx context.Context, orgID, id primitive.ObjectID, visible bool) error {
	r.docs[id].ClientVisible = visible
	return nil
}

func (r *fakeDocumentRepo) Delete(ctx context.Context, orgID, id primitive.ObjectID) error {
	delete(r.docs, id)
	return nil
}

type fakeShareLinkRepo struct {
	links map[string]*ShareLink
}

func (r *fakeShareLinkRepo) Create(ctx context.Context, link *ShareLink) error {
	if link.ID.IsZero() {
		link.ID = primitive.NewObjectID()
	}
	r.links[link.Token] = link
	return nil
}

func (r *fakeShareLinkRepo) FindByToken(ctx context.Context, token string) (*ShareLink, error) {
	link, ok := r.links[token]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return link, nil
}

func (r *fakeShareLinkRepo) ListByDocument(ctx context.Context, orgID, documentID primitive.ObjectID) ([]ShareLink, error) {
	var out []ShareLink
	for _, link := range r.links {
		if link.DocumentID == documentID {
			out = append(out, *link)
		}
	}
	return out, nil
}

func (r *fakeShareLinkRepo) Revoke(ctx context.Context, orgID, id primitive.ObjectID) error {
	now := time.Now()
	for _, link := range r.links {
		if link.ID == id {
			link.RevokedAt = &now
		}
	}
	return nil
}

type noopAudit struct{}

func (noopAudit) LogChange(ctx context.Context, action models.AuditAction, module string, recordID string, changes map[string]models.Change) error {
	return nil
}

func TestShareLinkUsable(t *testing.T) {
	now := time.Now()
	revoked := now.Add(-time.Hour)

	tests := []struct {
		name string
		link ShareLink
		want bool
	}{
		{"live link", ShareLink{ExpiresAt: now.Add(time.Hour)}, true},
		{"expired link", ShareLink{ExpiresAt: now.Add(-time.Minute)}, false},
		{"revoked link", ShareLink{ExpiresAt: now.Add(time.Hour), RevokedAt: &revoked}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.link.Usable(now); got != tt.want {
				t.Errorf("Usable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveShareLink(t *testing.T) {
	orgID := primitive.NewObjectID()
	docID := primitive.NewObjectID()
	docs := &fakeDocumentRepo{docs: map[primitive.ObjectID]*Document{
		docID: {
			ID:             docID,
			TenantID:       orgID,
			Title:          "Settlement agreement",
			CurrentVersion: 2,
			Versions: []Version{
				{Number: 1, Filename: "draft.pdf"},
				{Number: 2, Filename: "final.pdf"},
			},
		},
	}}
	revoked := time.Now().Add(-time.Hour)
	links := &fakeShareLinkRepo{links: map[string]*ShareLink{
		"live":    {ID: primitive.NewObjectID(), TenantID: orgID, DocumentID: docID, Token: "live", ExpiresAt: time.Now().Add(time.Hour)},
		"expired": {ID: primitive.NewObjectID(), TenantID: orgID, DocumentID: docID, Token: "expired", ExpiresAt: time.Now().Add(-time.Hour)},
		"revoked": {ID: primitive.NewObjectID(), TenantID: orgID, DocumentID: docID, Token: "revoked", ExpiresAt: time.Now().Add(time.Hour), RevokedAt: &revoked},
		"foreign": {ID: primitive.NewObjectID(), TenantID: primitive.NewObjectID(), DocumentID: docID, Token: "foreign", ExpiresAt: time.Now().Add(time.Hour)},
	}}
	s := &DocumentServiceImpl{Repo: docs, Links: links, AuditService: noopAudit{}}
	ctx := context.Background()

	t.Run("live token serves the current version", func(t *testing.T) {
		doc, v, err := s.ResolveShareLink(ctx, "live")
		if err != nil {
			t.Fatalf("ResolveShareLink() error = %v", err)
		}
		if doc.ID != docID {
			t.Errorf("wrong document: %v", doc.ID)
		}
		if v.Number != 2 || v.Filename != "final.pdf" {
			t.Errorf("expected current version, got %+v", v)
		}
	})

	for _, token := range []string{"expired", "revoked", "unknown"} {
		t.Run(token+" token is rejected", func(t *testing.T) {
			if _, _, err := s.ResolveShareLink(ctx, token); err != ErrShareLinkInvalid {
				t.Errorf("error = %v, want ErrShareLinkInvalid", err)
			}
		})
	}

	t.Run("token never crosses tenants", func(t *testing.T) {
		if _, _, err := s.ResolveShareLink(ctx, "foreign"); err == nil {
			t.Error("link from another tenant must not resolve this tenant's document")
		}
	})
}

type staticRoleSource struct {
	codes []string
}

func (s staticRoleSource) RolesForUser(ctx context.Context, orgID, userID primitive.ObjectID) ([]rbac.Role, error) {
	return []rbac.Role{{Name: "test", PermissionCodes: s.codes}}, nil
}

type staticMatterResolver struct{}

func (staticMatterResolver) VisibleMatterIDs(ctx context.Context, orgID, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return nil, nil
}

func (staticMatterResolver) ClientMatterIDs(ctx context.Context, orgID, clientID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return nil, nil
}

func TestCreateShareLinkMintsTokenWithExpiry(t *testing.T) {
	orgID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	docID := primitive.NewObjectID()
	docs := &fakeDocumentRepo{docs: map[primitive.ObjectID]*Document{
		docID: {ID: docID, TenantID: orgID, Title: "Retainer", CurrentVersion: 1, Versions: []Version{{Number: 1}}},
	}}
	links := &fakeShareLinkRepo{links: map[string]*ShareLink{}}
	s := &DocumentServiceImpl{
		Repo:         docs,
		Links:        links,
		Scoper:       rbac.NewScoper(rbac.NewEvaluator(staticRoleSource{codes: []string{"document.view_all"}}), staticMatterResolver{}),
		AuditService: noopAudit{},
	}
	principal := models.Principal{UserID: userID, OrganizationID: orgID, Authenticated: true}
	ctx := context.WithValue(context.Background(), models.PrincipalKey, principal)

	before := time.Now()
	link, err := s.CreateShareLink(ctx, docID)
	if err != nil {
		t.Fatalf("CreateShareLink() error = %v", err)
	}
	if link.Token == "" {
		t.Error("link has no token")
	}
	if link.TenantID != orgID || link.DocumentID != docID || link.CreatedBy != userID {
		t.Errorf("link not stamped with request identity: %+v", link)
	}
	ttl := link.ExpiresAt.Sub(before)
	if ttl < 71*time.Hour || ttl > 73*time.Hour {
		t.Errorf("expiry %v not near the 72h window", ttl)
	}
	if _, err := links.FindByToken(ctx, link.Token); err != nil {
		t.Error("link was not persisted")
	}
	if want := "/api/shared/" + link.Token; link.URL() != want {
		t.Errorf("URL() = %q, want %q", link.URL(), want)
	}
}

type fakeMatterService struct {
	matter.MatterService
	matters map[primitive.ObjectID]*matter.Matter
}

func (f *fakeMatterService) GetMatter(ctx context.Context, id primitive.ObjectID) (*matter.Matter, error) {
	m, ok := f.matters[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return m, nil
}

func TestUploadsAreScreenedClean(t *testing.T) {
	orgID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	matterID := primitive.NewObjectID()
	docs := &fakeDocumentRepo{docs: map[primitive.ObjectID]*Document{}}
	s := &DocumentServiceImpl{
		Repo:         docs,
		Matters:      &fakeMatterService{matters: map[primitive.ObjectID]*matter.Matter{matterID: {ID: matterID}}},
		Scoper:       rbac.NewScoper(rbac.NewEvaluator(staticRoleSource{codes: []string{"document.view_all"}}), staticMatterResolver{}),
		AuditService: noopAudit{},
	}
	principal := models.Principal{UserID: userID, OrganizationID: orgID, Authenticated: true}
	ctx := context.WithValue(context.Background(), models.PrincipalKey, principal)

	doc := &Document{MatterID: matterID, Title: "Retainer"}
	if err := s.CreateDocument(ctx, doc, Version{Filename: "retainer.pdf"}); err != nil {
		t.Fatalf("CreateDocument() error = %v", err)
	}
	if got := doc.Versions[0].ScanStatus; got != ScanStatusClean {
		t.Errorf("first version scan status = %q, want %q", got, ScanStatusClean)
	}

	updated, err := s.AddVersion(ctx, doc.ID, Version{Filename: "retainer-v2.pdf"})
	if err != nil {
		t.Fatalf("AddVersion() error = %v", err)
	}
	if got := updated.Versions[len(updated.Versions)-1].ScanStatus; got != ScanStatusClean {
		t.Errorf("appended version scan status = %q, want %q", got, ScanStatusClean)
	}
}
