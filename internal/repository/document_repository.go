package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"docuchat/internal/model"
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

func (r *DocumentRepository) List() ([]model.Document, error) {
	var docs []model.Document
	if err := r.db.Order("uploaded_at DESC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) GetByID(id uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Document{}, id).Error; err != nil {
		return fmt.Errorf("delete document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) MarkProcessing(id uint) error {
	return r.updateStatus(id, map[string]interface{}{
		"status": model.DocumentStatusProcessing,
	})
}

func (r *DocumentRepository) MarkCompleted(id uint, chunksCount int) error {
	return r.updateStatus(id, map[string]interface{}{
		"status":         model.DocumentStatusCompleted,
		"chunks_count":   chunksCount,
		"failure_reason": "",
	})
}

func (r *DocumentRepository) MarkFailed(id uint, reason string) error {
	if len(reason) > 512 {
		reason = reason[:512]
	}
	return r.updateStatus(id, map[string]interface{}{
		"status":         model.DocumentStatusFailed,
		"failure_reason": reason,
	})
}

func (r *DocumentRepository) updateStatus(id uint, fields map[string]interface{}) error {
	if err := r.db.Model(&model.Document{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return fmt.Errorf("update document status failed: %w", err)
	}
	return nil
}
