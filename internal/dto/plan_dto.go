package dto

import (
	"time"

	"github.com/google/uuid"
)

type PlanResponse struct {
	Id             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	DurationMonths int       `json:"duration_months"`
	Price          float64   `json:"price"`
}

type CreatePlanRequest struct {
	Name           string  `json:"name" validate:"required,max=100"`
	DurationMonths int     `json:"duration_months" validate:"required,min=1"`
	Price          float64 `json:"price" validate:"min=0"`
}

type PurchasePlanRequest struct {
	PlanId      uuid.UUID `json:"plan_id" validate:"required"`
	VoucherCode string    `json:"voucher_code,omitempty"`
}

type PurchasePlanResponse struct {
	OrderId     string  `json:"order_id"`
	GrossAmount float64 `json:"gross_amount"`
	RedirectURL string  `json:"redirect_url"`
	Token       string  `json:"token"`
}

type SubscriptionResponse struct {
	Id        uuid.UUID `json:"id"`
	PlanName  string    `json:"plan_name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	ApiKey    string    `json:"api_key"`
	IsActive  bool      `json:"is_active"`
}

type UsageSummaryResponse struct {
	Model            string `json:"model"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	Requests         int    `json:"requests"`
}

// MidtransWebhookRequest is the subset of the Midtrans notification payload
// needed for signature verification and state transitions.
type MidtransWebhookRequest struct {
	OrderId           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
}
