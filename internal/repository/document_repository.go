package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"docqa/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *model.Document) error {
	if err := r.db.Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(id string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("id = ?", id).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) GetByIDAndOwnerID(id, ownerID string) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) ListByOwnerID(ownerID string) ([]model.Document, error) {
	var list []model.Document
	if err := r.db.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return list, nil
}

// SetTerminalStatus moves a document out of the loading state. The conditional
// update keeps terminal states write-once: a document already marked success or
// error is never touched again.
func (r *DocumentRepository) SetTerminalStatus(id string, status model.DocumentStatus) error {
	if !status.Terminal() {
		return fmt.Errorf("status %q is not terminal", status)
	}
	result := r.db.Model(&model.Document{}).
		Where("id = ? AND status = ?", id, model.StatusLoading).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("update document status failed: %w", result.Error)
	}
	return nil
}

func (r *DocumentRepository) DeleteByIDAndOwnerID(id, ownerID string) error {
	if err := r.db.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&model.Document{}).Error; err != nil {
		return fmt.Errorf("delete document failed: %w", err)
	}
	return nil
}
