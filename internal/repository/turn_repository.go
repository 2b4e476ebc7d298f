package repository

import (
	"fmt"

	"gorm.io/gorm"

	"docuchat/internal/model"
)

type TurnRepository struct {
	db *gorm.DB
}

func NewTurnRepository(db *gorm.DB) *TurnRepository {
	return &TurnRepository{db: db}
}

func (r *TurnRepository) Create(turn *model.Turn) error {
	if err := r.db.Create(turn).Error; err != nil {
		return fmt.Errorf("create turn failed: %w", err)
	}
	return nil
}

// ListRecentBySession returns up to limit most recent turns for the session,
// ordered oldest-to-newest.
func (r *TurnRepository) ListRecentBySession(token string, limit int) ([]model.Turn, error) {
	if limit <= 0 {
		limit = 10
	}
	var turns []model.Turn
	if err := r.db.Where("session_token = ?", token).
		Order("created_at DESC").Limit(limit).Find(&turns).Error; err != nil {
		return nil, fmt.Errorf("list session turns failed: %w", err)
	}
	// reverse into chronological order
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// ListRecent returns recent turns newest first; token filters by session when
// non-empty.
func (r *TurnRepository) ListRecent(limit int, token string) ([]model.Turn, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := r.db.Order("created_at DESC").Limit(limit)
	if token != "" {
		q = q.Where("session_token = ?", token)
	}
	var turns []model.Turn
	if err := q.Find(&turns).Error; err != nil {
		return nil, fmt.Errorf("list turns failed: %w", err)
	}
	return turns, nil
}

// ClearDocumentID unlinks turns from a deleted document, keeping the
// transcript itself intact.
func (r *TurnRepository) ClearDocumentID(documentID uint) error {
	if err := r.db.Model(&model.Turn{}).
		Where("document_id = ?", documentID).
		Update("document_id", nil).Error; err != nil {
		return fmt.Errorf("clear turn document id failed: %w", err)
	}
	return nil
}
