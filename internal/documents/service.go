package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/aurora-grants/aurora-grants/internal/applications"
	"github.com/aurora-grants/aurora-grants/internal/authz"
	"github.com/aurora-grants/aurora-grants/internal/platform/httpx"
	"github.com/aurora-grants/aurora-grants/internal/shared"
)

// Upload constraints.
const MaxUploadBytes = 20 << 20

// ErrFileTooLarge rejects uploads above MaxUploadBytes.
var ErrFileTooLarge = errors.New("documents: file exceeds upload limit")

// Content types accepted for upload, keyed to their canonical extension.
var allowedTypes = map[string]string{
	"application/pdf": ".pdf",
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"text/csv":        ".csv",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": ".xlsx",
}

// ApplicationGate resolves an application the actor may view. Satisfied by
// the applications service, which enforces the view scoping.
type ApplicationGate interface {
	Get(ctx context.Context, actor *authz.Actor, id string) (applications.Application, error)
}

// Service orchestrates uploads and downloads of application documents.
type Service struct {
	repo     Repository
	blobs    BlobStore
	apps     ApplicationGate
	resolver *authz.Resolver
	audit    *shared.AuditLogger
	logger   *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, blobs BlobStore, apps ApplicationGate, resolver *authz.Resolver, audit *shared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, blobs: blobs, apps: apps, resolver: resolver, audit: audit, logger: logger}
}

// UploadRequest carries one incoming file.
type UploadRequest struct {
	FileName    string
	ContentType string
	Category    string
	Size        int64
	Body        io.Reader
}

// Upload stores a file against an application. Company actors need the
// upload_documents permission in their own company; contractor actors need
// the edit capability on this application.
func (s *Service) Upload(ctx context.Context, actor *authz.Actor, applicationID string, req UploadRequest) (Document, error) {
	app, err := s.apps.Get(ctx, actor, applicationID)
	if err != nil {
		return Document{}, err
	}
	if err := s.requireUpload(actor, app); err != nil {
		return Document{}, err
	}
	if app.Phase.Terminal() {
		return Document{}, fmt.Errorf("%w: application is closed", httpx.ErrValidation)
	}
	ext, ok := allowedTypes[req.ContentType]
	if !ok {
		return Document{}, fmt.Errorf("%w: content type %q not accepted", httpx.ErrValidation, req.ContentType)
	}
	if !KnownCategory(req.Category) {
		return Document{}, fmt.Errorf("%w: unknown category %q", httpx.ErrValidation, req.Category)
	}
	if req.Size > MaxUploadBytes {
		return Document{}, ErrFileTooLarge
	}

	id := uuid.NewString()
	path := filepath.Join(applicationID, id+ext)
	written, err := s.blobs.Save(ctx, path, io.LimitReader(req.Body, MaxUploadBytes+1))
	if err != nil {
		return Document{}, err
	}
	if written > MaxUploadBytes {
		if rmErr := s.blobs.Remove(ctx, path); rmErr != nil {
			s.logError("remove oversized upload", rmErr)
		}
		return Document{}, ErrFileTooLarge
	}

	doc := Document{
		ID:            id,
		ApplicationID: applicationID,
		FileName:      sanitizeFileName(req.FileName),
		ContentType:   req.ContentType,
		SizeBytes:     written,
		Category:      req.Category,
		StoragePath:   path,
		UploadedBy:    actor.ID,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		if rmErr := s.blobs.Remove(ctx, path); rmErr != nil {
			s.logError("remove orphaned upload", rmErr)
		}
		return Document{}, err
	}
	s.recordAudit(ctx, actor.ID, "document.upload", doc.ID, map[string]any{"application_id": applicationID, "file_name": doc.FileName})
	return doc, nil
}

// List returns an application's documents. Visibility follows the
// application's view scoping.
func (s *Service) List(ctx context.Context, actor *authz.Actor, applicationID string) ([]Document, error) {
	if _, err := s.apps.Get(ctx, actor, applicationID); err != nil {
		return nil, err
	}
	return s.repo.ListByApplication(ctx, applicationID)
}

// Open returns the document metadata and a reader over its bytes.
func (s *Service) Open(ctx context.Context, actor *authz.Actor, id string) (Document, io.ReadCloser, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return Document{}, nil, err
	}
	if _, err := s.apps.Get(ctx, actor, doc.ApplicationID); err != nil {
		return Document{}, nil, err
	}
	rc, err := s.blobs.Open(ctx, doc.StoragePath)
	if err != nil {
		return Document{}, nil, err
	}
	return doc, rc, nil
}

// Delete removes a document. The uploader may remove their own file;
// company admins and system admins may remove any file on an application
// they can upload to.
func (s *Service) Delete(ctx context.Context, actor *authz.Actor, id string) error {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	app, err := s.apps.Get(ctx, actor, doc.ApplicationID)
	if err != nil {
		return err
	}
	if actor.ID != doc.UploadedBy {
		if actor.Role != authz.RoleSystemAdmin && actor.Role != authz.RoleCompanyAdmin {
			return httpx.ErrForbidden
		}
		if err := s.requireUpload(actor, app); err != nil {
			return err
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.blobs.Remove(ctx, doc.StoragePath); err != nil {
		s.logError("remove stored file", err)
	}
	s.recordAudit(ctx, actor.ID, "document.delete", id, nil)
	return nil
}

func (s *Service) requireUpload(actor *authz.Actor, app applications.Application) error {
	if actor == nil {
		return httpx.ErrForbidden
	}
	if actor.Role == authz.RoleSystemAdmin {
		return nil
	}
	if actor.Role.IsContractor() {
		if s.resolver.HasContractorPermission(actor, authz.CapabilityEdit, app.AuthzContext()) {
			return nil
		}
		return httpx.ErrForbidden
	}
	if app.CompanyID == actor.CompanyID && s.resolver.HasPermission(actor.Role, authz.PermUploadDocuments) {
		return nil
	}
	return httpx.ErrForbidden
}

// sanitizeFileName keeps the client's base name only; the stored path is
// generated server side.
func sanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "upload"
	}
	return name
}

func (s *Service) recordAudit(ctx context.Context, actorID, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "document", EntityID: entityID, Meta: meta}); err != nil {
		s.logError("audit record", err)
	}
}

func (s *Service) logError(msg string, err error) {
	if s.logger != nil {
		s.logger.Error(msg, slog.Any("error", err))
	}
}
