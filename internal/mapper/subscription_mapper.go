package mapper

import (
	"encoding/json"

	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/model"

	"gorm.io/datatypes"
)

type SubscriptionMapper struct{}

func NewSubscriptionMapper() *SubscriptionMapper {
	return &SubscriptionMapper{}
}

func (m *SubscriptionMapper) PlanToEntity(p *model.Plan) *entity.Plan {
	if p == nil {
		return nil
	}
	return &entity.Plan{
		Id:             p.Id,
		Name:           p.Name,
		DurationMonths: p.DurationMonths,
		Price:          p.Price,
	}
}

func (m *SubscriptionMapper) PlanToModel(p *entity.Plan) *model.Plan {
	if p == nil {
		return nil
	}
	return &model.Plan{
		Id:             p.Id,
		Name:           p.Name,
		DurationMonths: p.DurationMonths,
		Price:          p.Price,
	}
}

func (m *SubscriptionMapper) PlansToEntities(plans []*model.Plan) []*entity.Plan {
	entities := make([]*entity.Plan, len(plans))
	for i, p := range plans {
		entities[i] = m.PlanToEntity(p)
	}
	return entities
}

func (m *SubscriptionMapper) VoucherToEntity(v *model.Voucher) *entity.Voucher {
	if v == nil {
		return nil
	}
	return &entity.Voucher{
		Id:         v.Id,
		Code:       v.Code,
		Discount:   v.Discount,
		ExpiryDate: v.ExpiryDate,
		MaxUsage:   v.MaxUsage,
		UsedCount:  v.UsedCount,
	}
}

func (m *SubscriptionMapper) VoucherToModel(v *entity.Voucher) *model.Voucher {
	if v == nil {
		return nil
	}
	return &model.Voucher{
		Id:         v.Id,
		Code:       v.Code,
		Discount:   v.Discount,
		ExpiryDate: v.ExpiryDate,
		MaxUsage:   v.MaxUsage,
		UsedCount:  v.UsedCount,
	}
}

func (m *SubscriptionMapper) SubscriptionToEntity(s *model.Subscription) *entity.Subscription {
	if s == nil {
		return nil
	}
	return &entity.Subscription{
		Id:        s.Id,
		UserId:    s.UserId,
		PlanId:    s.PlanId,
		StartDate: s.StartDate,
		EndDate:   s.EndDate,
		ApiKey:    s.ApiKey,
	}
}

func (m *SubscriptionMapper) SubscriptionToModel(s *entity.Subscription) *model.Subscription {
	if s == nil {
		return nil
	}
	return &model.Subscription{
		Id:        s.Id,
		UserId:    s.UserId,
		PlanId:    s.PlanId,
		StartDate: s.StartDate,
		EndDate:   s.EndDate,
		ApiKey:    s.ApiKey,
	}
}

func (m *SubscriptionMapper) UsageRecordToEntity(r *model.UsageRecord) *entity.UsageRecord {
	if r == nil {
		return nil
	}

	var details map[string]interface{}
	if len(r.Details) > 0 {
		// Malformed stored JSON yields nil details rather than an error
		_ = json.Unmarshal(r.Details, &details)
	}

	return &entity.UsageRecord{
		Id:               r.Id,
		UserId:           r.UserId,
		SubscriptionId:   r.SubscriptionId,
		ConversationId:   r.ConversationId,
		Model:            r.Model,
		PromptTokens:     r.PromptTokens,
		CompletionTokens: r.CompletionTokens,
		Details:          details,
		CreatedAt:        r.CreatedAt,
	}
}

func (m *SubscriptionMapper) UsageRecordToModel(r *entity.UsageRecord) *model.UsageRecord {
	if r == nil {
		return nil
	}

	var details datatypes.JSON
	if r.Details != nil {
		if raw, err := json.Marshal(r.Details); err == nil {
			details = raw
		}
	}

	return &model.UsageRecord{
		Id:               r.Id,
		UserId:           r.UserId,
		SubscriptionId:   r.SubscriptionId,
		ConversationId:   r.ConversationId,
		Model:            r.Model,
		PromptTokens:     r.PromptTokens,
		CompletionTokens: r.CompletionTokens,
		Details:          details,
		CreatedAt:        r.CreatedAt,
	}
}
