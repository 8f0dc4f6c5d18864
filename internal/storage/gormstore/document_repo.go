package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/jkaninda/ligi/internal/docstore"
)

// DocumentRepository implements docstore.Store on top of GORM.
type DocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a DocumentRepository.
func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Set merge-upserts the document keyed by (collection, uid). An existing
// document keeps its original CreatedAt; everything else is overwritten.
func (r *DocumentRepository) Set(ctx context.Context, collection string, doc *docstore.Document) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing DocumentModel
		err := tx.First(&existing, "collection = ? AND uid = ?", collection, doc.UID).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			m := DocumentModel{
				Collection: collection,
				UID:        doc.UID,
				Username:   doc.Username,
				Email:      doc.Email,
				Role:       doc.Role,
				ClassID:    doc.ClassID,
				Status:     doc.Status,
				CreatedAt:  doc.CreatedAt,
				UpdatedAt:  doc.UpdatedAt,
			}
			if err := tx.Create(&m).Error; err != nil {
				return fmt.Errorf("creating document %s/%s: %w", collection, doc.UID, err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("looking up document %s/%s: %w", collection, doc.UID, err)
		}

		updates := map[string]any{
			"username":   doc.Username,
			"email":      doc.Email,
			"role":       doc.Role,
			"class_id":   doc.ClassID,
			"status":     doc.Status,
			"updated_at": doc.UpdatedAt,
		}
		if err := tx.Model(&DocumentModel{}).
			Where("collection = ? AND uid = ?", collection, doc.UID).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("updating document %s/%s: %w", collection, doc.UID, err)
		}
		doc.CreatedAt = existing.CreatedAt
		return nil
	})
}

// Get retrieves a document by collection and uid.
func (r *DocumentRepository) Get(ctx context.Context, collection, uid string) (*docstore.Document, error) {
	var m DocumentModel
	err := r.db.WithContext(ctx).First(&m, "collection = ? AND uid = ?", collection, uid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting document %s/%s: %w", collection, uid, err)
	}
	return toDocumentDomain(&m), nil
}

// List returns all documents of a collection ordered by username.
func (r *DocumentRepository) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	var models []DocumentModel
	if err := r.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("username ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("listing collection %s: %w", collection, err)
	}
	docs := make([]docstore.Document, 0, len(models))
	for i := range models {
		docs = append(docs, *toDocumentDomain(&models[i]))
	}
	return docs, nil
}

// DeleteByRole removes every document in the collection with the role and
// returns the count removed.
func (r *DocumentRepository) DeleteByRole(ctx context.Context, collection, role string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("collection = ? AND role = ?", collection, role).
		Delete(&DocumentModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("deleting %s documents from %s: %w", role, collection, res.Error)
	}
	return res.RowsAffected, nil
}

func toDocumentDomain(m *DocumentModel) *docstore.Document {
	return &docstore.Document{
		UID:       m.UID,
		Username:  m.Username,
		Email:     m.Email,
		Role:      m.Role,
		ClassID:   m.ClassID,
		Status:    m.Status,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
