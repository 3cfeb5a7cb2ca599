// Package documents stores supporting files attached to applications:
// energy audits, quotes, invoices and installation photos.
package documents

import "time"

// Document categories accepted by the portal.
const (
	CategoryAudit   = "energy_audit"
	CategoryQuote   = "quote"
	CategoryInvoice = "invoice"
	CategoryPhoto   = "photo"
	CategoryOther   = "other"
)

// KnownCategory reports whether the category is one the portal accepts.
func KnownCategory(category string) bool {
	switch category {
	case CategoryAudit, CategoryQuote, CategoryInvoice, CategoryPhoto, CategoryOther:
		return true
	}
	return false
}

// Document is the stored metadata for one uploaded file. The bytes live
// on disk under the configured upload root.
type Document struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"application_id"`
	FileName      string    `json:"file_name"`
	ContentType   string    `json:"content_type"`
	SizeBytes     int64     `json:"size_bytes"`
	Category      string    `json:"category"`
	StoragePath   string    `json:"-"`
	UploadedBy    string    `json:"uploaded_by"`
	CreatedAt     time.Time `json:"created_at"`
}
