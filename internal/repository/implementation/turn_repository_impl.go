package implementation

import (
	"context"
	"errors"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/mapper"
	"ai-chat-be/internal/model"
	"ai-chat-be/internal/repository/contract"
	"ai-chat-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type TurnRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewTurnRepository(db *gorm.DB) contract.TurnRepository {
	return &TurnRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *TurnRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TurnRepositoryImpl) Create(ctx context.Context, turn *entity.Turn) error {
	m := r.mapper.TurnToModel(turn)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*turn = *r.mapper.TurnToEntity(m)
	return nil
}

func (r *TurnRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Turn, error) {
	var m model.Turn
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.TurnToEntity(&m), nil
}

func (r *TurnRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Turn, error) {
	var models []*model.Turn
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.TurnsToEntities(models), nil
}

func (r *TurnRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Turn{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *TurnRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Turn{}).Error
}

func (r *TurnRepositoryImpl) DeleteAllByConversationId(ctx context.Context, conversationId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("conversation_id = ?", conversationId).Delete(&model.Turn{}).Error
}

func (r *TurnRepositoryImpl) FindRecent(ctx context.Context, conversationId uuid.UUID, limit int) ([]*entity.Turn, error) {
	var models []*model.Turn
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationId).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.TurnsToEntities(models), nil
}

func (r *TurnRepositoryImpl) UpdateContent(ctx context.Context, turnId uuid.UUID, content string, embedding []float32) error {
	updates := map[string]interface{}{
		"content":   content,
		"embedding": nil,
	}
	if len(embedding) > 0 {
		v := pgvector.NewVector(embedding)
		updates["embedding"] = &v
	}
	return r.db.WithContext(ctx).
		Model(&model.Turn{}).
		Where("id = ?", turnId).
		Updates(updates).Error
}

func (r *TurnRepositoryImpl) UpdateEmbedding(ctx context.Context, turnId uuid.UUID, embedding []float32) error {
	v := pgvector.NewVector(embedding)
	return r.db.WithContext(ctx).
		Model(&model.Turn{}).
		Where("id = ?", turnId).
		Update("embedding", &v).Error
}
