// FILE: internal/service/subscription_service.go
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"ai-chat-be/internal/dto"
	"ai-chat-be/internal/entity"
	"ai-chat-be/internal/pkg/serverutils"
	"ai-chat-be/internal/repository/specification"
	"ai-chat-be/internal/repository/unitofwork"

	"ai-chat-be/pkg/events"
	pkgNats "ai-chat-be/pkg/nats"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/redis/go-redis/v9"
)

const apiKeyCacheTTL = 5 * time.Minute

type ISubscriptionService interface {
	GetAllPlans(ctx context.Context) ([]*dto.PlanResponse, error)
	CreatePlan(ctx context.Context, req *dto.CreatePlanRequest) (*dto.PlanResponse, error)
	PurchasePlan(ctx context.Context, userId uuid.UUID, req *dto.PurchasePlanRequest) (*dto.PurchasePlanResponse, error)
	HandlePaymentNotification(ctx context.Context, orderId, transactionStatus, statusCode, grossAmount, signatureKey string) error
	GetMySubscriptions(ctx context.Context, userId uuid.UUID) ([]*dto.SubscriptionResponse, error)

	// ValidateApiKey resolves an API key to its subscription, consulting the
	// cache first. Expired or unknown keys return an error.
	ValidateApiKey(ctx context.Context, apiKey string) (*entity.Subscription, error)

	RecordUsage(ctx context.Context, record *entity.UsageRecord) error
	GetUsageSummary(ctx context.Context, userId uuid.UUID) ([]*dto.UsageSummaryResponse, error)
}

type subscriptionService struct {
	uowFactory     unitofwork.RepositoryFactory
	redisClient    *redis.Client
	eventPublisher *pkgNats.Publisher
	midtransProd   bool
}

func NewSubscriptionService(
	uowFactory unitofwork.RepositoryFactory,
	redisClient *redis.Client,
	eventPublisher *pkgNats.Publisher,
	midtransProd bool,
) ISubscriptionService {
	return &subscriptionService{
		uowFactory:     uowFactory,
		redisClient:    redisClient,
		eventPublisher: eventPublisher,
		midtransProd:   midtransProd,
	}
}

func generateApiKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "sk-" + hex.EncodeToString(b), nil
}

func (s *subscriptionService) GetAllPlans(ctx context.Context) ([]*dto.PlanResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	plans, err := uow.SubscriptionRepository().FindAllPlans(ctx, specification.OrderBy{Field: "price"})
	if err != nil {
		return nil, err
	}

	result := make([]*dto.PlanResponse, 0, len(plans))
	for _, plan := range plans {
		result = append(result, &dto.PlanResponse{
			Id:             plan.Id,
			Name:           plan.Name,
			DurationMonths: plan.DurationMonths,
			Price:          plan.Price,
		})
	}
	return result, nil
}

func (s *subscriptionService) CreatePlan(ctx context.Context, req *dto.CreatePlanRequest) (*dto.PlanResponse, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	existing, err := uow.SubscriptionRepository().FindPlan(ctx, specification.Filter("name", req.Name))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.New("plan name already exists")
	}

	plan := &entity.Plan{
		Id:             uuid.New(),
		Name:           req.Name,
		DurationMonths: req.DurationMonths,
		Price:          req.Price,
	}
	if err := uow.SubscriptionRepository().CreatePlan(ctx, plan); err != nil {
		return nil, err
	}

	return &dto.PlanResponse{
		Id:             plan.Id,
		Name:           plan.Name,
		DurationMonths: plan.DurationMonths,
		Price:          plan.Price,
	}, nil
}

func (s *subscriptionService) PurchasePlan(ctx context.Context, userId uuid.UUID, req *dto.PurchasePlanRequest) (*dto.PurchasePlanResponse, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil || user == nil {
		return nil, ErrUserNotFound
	}

	plan, err := uow.SubscriptionRepository().FindPlan(ctx, specification.ByID{ID: req.PlanId})
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, errors.New("plan not found")
	}

	price := plan.Price
	var voucher *entity.Voucher
	if req.VoucherCode != "" {
		voucher, err = uow.SubscriptionRepository().FindVoucher(ctx, specification.ByVoucherCode{Code: req.VoucherCode})
		if err != nil {
			return nil, err
		}
		if voucher == nil {
			return nil, errors.New("voucher not found")
		}
		if time.Now().After(voucher.ExpiryDate) {
			return nil, errors.New("voucher expired")
		}
		if voucher.MaxUsage > 0 && voucher.UsedCount >= voucher.MaxUsage {
			return nil, errors.New("voucher usage limit reached")
		}
		price = plan.Price * (1 - voucher.Discount)
	}

	apiKey, err := generateApiKey()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sub := &entity.Subscription{
		Id:        uuid.New(),
		UserId:    userId,
		PlanId:    plan.Id,
		StartDate: now,
		EndDate:   now.AddDate(0, plan.DurationMonths, 0),
		ApiKey:    apiKey,
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.SubscriptionRepository().Create(ctx, sub); err != nil {
		return nil, err
	}
	if voucher != nil {
		if err := uow.SubscriptionRepository().IncrementVoucherUsage(ctx, voucher.Id); err != nil {
			return nil, err
		}
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	// External call after the DB commit
	var sClient snap.Client
	env := midtrans.Sandbox
	if s.midtransProd {
		env = midtrans.Production
	}
	sClient.New(os.Getenv("MIDTRANS_SERVER_KEY"), env)

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  sub.Id.String(),
			GrossAmt: int64(price),
		},
		CreditCard: &snap.CreditCardDetails{
			Secure: true,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: user.Username,
			Email: user.Email,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    plan.Id.String(),
				Price: int64(price),
				Qty:   1,
				Name:  plan.Name,
			},
		},
		EnabledPayments: snap.AllSnapPaymentType,
	}

	snapResp, midErr := sClient.CreateTransaction(snapReq)
	if midErr != nil {
		return nil, fmt.Errorf("midtrans error: %v", midErr.GetMessage())
	}

	return &dto.PurchasePlanResponse{
		OrderId:     sub.Id.String(),
		GrossAmount: price,
		RedirectURL: snapResp.RedirectURL,
		Token:       snapResp.Token,
	}, nil
}

func (s *subscriptionService) HandlePaymentNotification(ctx context.Context, orderId, transactionStatus, statusCode, grossAmount, signatureKey string) error {
	serverKey := os.Getenv("MIDTRANS_SERVER_KEY")
	if serverKey == "" {
		return fmt.Errorf("server configuration error")
	}

	// Midtrans signature = SHA512(order_id + status_code + gross_amount + server_key)
	signatureInput := orderId + statusCode + grossAmount + serverKey
	expectedSignature := fmt.Sprintf("%x", sha512.Sum512([]byte(signatureInput)))
	if signatureKey != expectedSignature {
		return fmt.Errorf("invalid signature")
	}

	subId, err := uuid.Parse(orderId)
	if err != nil {
		return fmt.Errorf("invalid order id format")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	sub, err := uow.SubscriptionRepository().FindOne(ctx, specification.ByID{ID: subId})
	if err != nil {
		return err
	}
	if sub == nil {
		return fmt.Errorf("subscription not found")
	}

	switch transactionStatus {
	case "capture", "settlement":
		plan, _ := uow.SubscriptionRepository().FindPlan(ctx, specification.ByID{ID: sub.PlanId})
		planName := ""
		if plan != nil {
			planName = plan.Name
		}
		if s.eventPublisher != nil {
			if err := s.eventPublisher.Publish(ctx, events.NewSubscriptionActivated(sub.UserId, sub.Id, planName)); err != nil {
				fmt.Printf("[WARN] Failed to publish SUBSCRIPTION_ACTIVATED event: %v\n", err)
			}
		}
	case "deny", "cancel", "expire":
		// Cancelled payment invalidates the issued key immediately
		s.evictApiKey(ctx, sub.ApiKey)
	}

	return nil
}

func (s *subscriptionService) GetMySubscriptions(ctx context.Context, userId uuid.UUID) ([]*dto.SubscriptionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	subs, err := uow.SubscriptionRepository().FindAll(ctx,
		specification.ByUserID{UserID: userId},
		specification.OrderBy{Field: "end_date", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	result := make([]*dto.SubscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		planName := ""
		if plan, err := uow.SubscriptionRepository().FindPlan(ctx, specification.ByID{ID: sub.PlanId}); err == nil && plan != nil {
			planName = plan.Name
		}
		result = append(result, &dto.SubscriptionResponse{
			Id:        sub.Id,
			PlanName:  planName,
			StartDate: sub.StartDate,
			EndDate:   sub.EndDate,
			ApiKey:    sub.ApiKey,
			IsActive:  !now.Before(sub.StartDate) && !now.After(sub.EndDate),
		})
	}
	return result, nil
}

func (s *subscriptionService) apiKeyCacheKey(apiKey string) string {
	return "apikey:" + apiKey
}

func (s *subscriptionService) ValidateApiKey(ctx context.Context, apiKey string) (*entity.Subscription, error) {
	if apiKey == "" {
		return nil, ErrInvalidApiKey
	}

	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, s.apiKeyCacheKey(apiKey)).Result(); err == nil {
			var sub entity.Subscription
			if err := json.Unmarshal([]byte(cached), &sub); err == nil {
				if time.Now().After(sub.EndDate) {
					s.evictApiKey(ctx, apiKey)
					return nil, ErrInvalidApiKey
				}
				return &sub, nil
			}
		}
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	sub, err := uow.SubscriptionRepository().FindOne(ctx,
		specification.ByApiKey{ApiKey: apiKey},
		specification.ActiveAt{At: time.Now()},
	)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrInvalidApiKey
	}

	if s.redisClient != nil {
		if raw, err := json.Marshal(sub); err == nil {
			s.redisClient.Set(ctx, s.apiKeyCacheKey(apiKey), raw, apiKeyCacheTTL)
		}
	}

	return sub, nil
}

func (s *subscriptionService) evictApiKey(ctx context.Context, apiKey string) {
	if s.redisClient != nil {
		s.redisClient.Del(ctx, s.apiKeyCacheKey(apiKey))
	}
}

func (s *subscriptionService) RecordUsage(ctx context.Context, record *entity.UsageRecord) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.SubscriptionRepository().CreateUsageRecord(ctx, record); err != nil {
		return err
	}

	if s.eventPublisher != nil {
		evt := events.NewChatTurnCompleted(record.UserId, record.ConversationId, record.Model, record.PromptTokens, record.CompletionTokens)
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			fmt.Printf("[WARN] Failed to publish CHAT_TURN_COMPLETED event: %v\n", err)
		}
	}
	return nil
}

func (s *subscriptionService) GetUsageSummary(ctx context.Context, userId uuid.UUID) ([]*dto.UsageSummaryResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	records, err := uow.SubscriptionRepository().FindUsageRecords(ctx, specification.ByUserID{UserID: userId})
	if err != nil {
		return nil, err
	}

	byModel := make(map[string]*dto.UsageSummaryResponse)
	order := make([]string, 0)
	for _, r := range records {
		summary, ok := byModel[r.Model]
		if !ok {
			summary = &dto.UsageSummaryResponse{Model: r.Model}
			byModel[r.Model] = summary
			order = append(order, r.Model)
		}
		summary.PromptTokens += r.PromptTokens
		summary.CompletionTokens += r.CompletionTokens
		summary.Requests++
	}

	result := make([]*dto.UsageSummaryResponse, 0, len(order))
	for _, m := range order {
		result = append(result, byModel[m])
	}
	return result, nil
}
