package documents

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurora-grants/aurora-grants/internal/applications"
	"github.com/aurora-grants/aurora-grants/internal/authz"
	"github.com/aurora-grants/aurora-grants/internal/platform/httpx"
	"github.com/aurora-grants/aurora-grants/internal/shared"
)

type memoryRepo struct {
	docs map[string]Document
}

func (m *memoryRepo) Create(ctx context.Context, doc Document) error {
	doc.CreatedAt = time.Now()
	m.docs[doc.ID] = doc
	return nil
}

func (m *memoryRepo) Get(ctx context.Context, id string) (Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return Document{}, shared.ErrNotFound
	}
	return doc, nil
}

func (m *memoryRepo) ListByApplication(ctx context.Context, applicationID string) ([]Document, error) {
	var out []Document
	for _, doc := range m.docs {
		if doc.ApplicationID == applicationID {
			out = append(out, doc)
		}
	}
	return out, nil
}

func (m *memoryRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.docs[id]; !ok {
		return shared.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}

type memoryBlobs struct {
	files map[string][]byte
}

func (m *memoryBlobs) Save(ctx context.Context, path string, r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	m.files[path] = data
	return int64(len(data)), nil
}

func (m *memoryBlobs) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryBlobs) Remove(ctx context.Context, path string) error {
	delete(m.files, path)
	return nil
}

// fakeGate mirrors the applications service's view scoping for a single
// stored application.
type fakeGate struct {
	app      applications.Application
	resolver *authz.Resolver
}

func (f *fakeGate) Get(ctx context.Context, actor *authz.Actor, id string) (applications.Application, error) {
	if id != f.app.ID {
		return applications.Application{}, httpx.ErrNotFound
	}
	if actor == nil {
		return applications.Application{}, httpx.ErrForbidden
	}
	if actor.Role.IsContractor() || actor.Role == authz.RoleSystemAdmin {
		if !f.resolver.HasContractorPermission(actor, authz.CapabilityView, f.app.AuthzContext()) {
			return applications.Application{}, httpx.ErrForbidden
		}
		return f.app, nil
	}
	if actor.CompanyID != f.app.CompanyID || !f.resolver.CanViewOnly(actor) {
		return applications.Application{}, httpx.ErrForbidden
	}
	return f.app, nil
}

const appID = "app-1"

func newFixture() (*Service, *memoryRepo, *memoryBlobs, *fakeGate) {
	repo := &memoryRepo{docs: map[string]Document{}}
	blobs := &memoryBlobs{files: map[string][]byte{}}
	resolver := authz.NewResolver(authz.DefaultGrants())
	gate := &fakeGate{
		resolver: resolver,
		app: applications.Application{
			ID:        appID,
			CompanyID: "co-1",
			Phase:     applications.PhaseDraft,
			AssignedUsers: []applications.ContractorAssignment{
				{UserID: "ctr-edit", Capabilities: []authz.Capability{authz.CapabilityView, authz.CapabilityEdit}},
				{UserID: "ctr-view", Capabilities: []authz.Capability{authz.CapabilityView}},
			},
		},
	}
	return NewService(repo, blobs, gate, resolver, nil, nil), repo, blobs, gate
}

func pdfUpload(name string) UploadRequest {
	body := "%PDF-1.4 fake"
	return UploadRequest{
		FileName:    name,
		ContentType: "application/pdf",
		Category:    CategoryQuote,
		Size:        int64(len(body)),
		Body:        strings.NewReader(body),
	}
}

func TestUploadAndDownload(t *testing.T) {
	service, _, blobs, _ := newFixture()
	ctx := context.Background()
	actor := &authz.Actor{ID: "ca", Role: authz.RoleCompanyAdmin, CompanyID: "co-1"}

	doc, err := service.Upload(ctx, actor, appID, pdfUpload("quote v2.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "quote v2.pdf", doc.FileName)
	assert.Equal(t, CategoryQuote, doc.Category)
	assert.Len(t, blobs.files, 1)

	got, rc, err := service.Open(ctx, actor, doc.ID)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, got.ID)
	assert.Equal(t, "%PDF-1.4 fake", string(data))
}

func TestUploadGuards(t *testing.T) {
	service, _, _, _ := newFixture()
	ctx := context.Background()

	// Upload rides the team_member role's upload_documents permission, so
	// any team member of the owning company may attach files, whatever
	// their permission level.
	viewer := &authz.Actor{ID: "tm", Role: authz.RoleTeamMember, PermissionLevel: authz.LevelViewer, CompanyID: "co-1"}
	_, err := service.Upload(ctx, viewer, appID, pdfUpload("a.pdf"))
	assert.NoError(t, err)

	// Other companies cannot see the application at all.
	outsider := &authz.Actor{ID: "ca2", Role: authz.RoleCompanyAdmin, CompanyID: "co-2"}
	_, err = service.Upload(ctx, outsider, appID, pdfUpload("c.pdf"))
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestContractorUploadNeedsEditCapability(t *testing.T) {
	service, _, _, _ := newFixture()
	ctx := context.Background()

	editMember := &authz.Actor{ID: "ctr-edit", Role: authz.RoleContractorTeamMember}
	_, err := service.Upload(ctx, editMember, appID, pdfUpload("audit.pdf"))
	assert.NoError(t, err)

	viewMember := &authz.Actor{ID: "ctr-view", Role: authz.RoleContractorTeamMember}
	_, err = service.Upload(ctx, viewMember, appID, pdfUpload("audit.pdf"))
	assert.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestUploadValidation(t *testing.T) {
	service, _, _, gate := newFixture()
	ctx := context.Background()
	actor := &authz.Actor{ID: "ca", Role: authz.RoleCompanyAdmin, CompanyID: "co-1"}

	req := pdfUpload("malware.exe")
	req.ContentType = "application/octet-stream"
	_, err := service.Upload(ctx, actor, appID, req)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	req = pdfUpload("a.pdf")
	req.Category = "misc"
	_, err = service.Upload(ctx, actor, appID, req)
	assert.ErrorIs(t, err, httpx.ErrValidation)

	req = pdfUpload("a.pdf")
	req.Size = MaxUploadBytes + 1
	_, err = service.Upload(ctx, actor, appID, req)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	gate.app.Phase = applications.PhaseCompleted
	_, err = service.Upload(ctx, actor, appID, pdfUpload("late.pdf"))
	assert.ErrorIs(t, err, httpx.ErrValidation)
}

func TestUploadStripsClientPath(t *testing.T) {
	service, _, _, _ := newFixture()
	actor := &authz.Actor{ID: "ca", Role: authz.RoleCompanyAdmin, CompanyID: "co-1"}

	doc, err := service.Upload(context.Background(), actor, appID, pdfUpload("../../etc/passwd.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "passwd.pdf", doc.FileName)
}

func TestDeleteRules(t *testing.T) {
	service, _, blobs, _ := newFixture()
	ctx := context.Background()
	uploader := &authz.Actor{ID: "tm2", Role: authz.RoleTeamMember, PermissionLevel: authz.LevelEditor, CompanyID: "co-1"}
	admin := &authz.Actor{ID: "ca", Role: authz.RoleCompanyAdmin, CompanyID: "co-1"}

	doc, err := service.Upload(ctx, uploader, appID, pdfUpload("a.pdf"))
	require.NoError(t, err)

	// Another team member cannot remove a colleague's file.
	other := &authz.Actor{ID: "tm3", Role: authz.RoleTeamMember, PermissionLevel: authz.LevelEditor, CompanyID: "co-1"}
	assert.ErrorIs(t, service.Delete(ctx, other, doc.ID), httpx.ErrForbidden)

	// The uploader and the company admin both may.
	require.NoError(t, service.Delete(ctx, uploader, doc.ID))
	assert.Empty(t, blobs.files)

	doc, err = service.Upload(ctx, uploader, appID, pdfUpload("b.pdf"))
	require.NoError(t, err)
	assert.NoError(t, service.Delete(ctx, admin, doc.ID))
}
