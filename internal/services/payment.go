package services

import (
	"context"
	"sync"
	"time"

	"github.com/assetshare/backend/internal/config"
	"github.com/assetshare/backend/internal/models"
	"github.com/assetshare/backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

type PaymentSession struct {
	ID        string        `json:"sessionId"`
	UserID    uuid.UUID     `json:"userId"`
	Amount    float64       `json:"amount"`
	Status    PaymentStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
}

// PaymentService is a mock gate for the large-upload entitlement. Sessions
// live only in this process and expire after the configured TTL.
type PaymentService struct {
	DB         *gorm.DB
	gatewayURL string

	mu       sync.Mutex
	sessions *expirable.LRU[string, *PaymentSession]
}

func NewPaymentService(db *gorm.DB, cfg config.PaymentConfig) *PaymentService {
	maxSessions := cfg.MaxSessions
	if maxSessions <= 0 {
		maxSessions = 10000
	}
	return &PaymentService{
		DB:         db,
		gatewayURL: cfg.GatewayURL,
		sessions:   expirable.NewLRU[string, *PaymentSession](maxSessions, nil, cfg.SessionTTL),
	}
}

func (p *PaymentService) Initiate(ctx context.Context, userID uuid.UUID, amount float64) (*PaymentSession, string, error) {
	if amount <= 0 {
		return nil, "", validationError("Amount must be greater than zero")
	}

	session := &PaymentSession{
		ID:        "sess_" + uuid.NewString(),
		UserID:    userID,
		Amount:    amount,
		Status:    PaymentStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	p.sessions.Add(session.ID, session)
	paymentSessionsTotal.WithLabelValues("initiated").Inc()

	logger.InfoWithUser(userID.String(), "payment_initiated", map[string]interface{}{
		"amount": amount,
	})

	snapshot := *session
	return &snapshot, p.gatewayURL + session.ID, nil
}

// Verify marks the session paid and grants the user the large-upload entitlement.
// Unknown, expired and foreign sessions all report not found.
func (p *PaymentService) Verify(ctx context.Context, userID uuid.UUID, sessionID string) (*PaymentSession, error) {
	if sessionID == "" {
		return nil, validationError("Session ID is required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	session, ok := p.sessions.Get(sessionID)
	if !ok || session.UserID != userID {
		paymentSessionsTotal.WithLabelValues("rejected").Inc()
		logger.WarnWithUser(userID.String(), "payment_session_not_found", nil)
		return nil, notFoundError("Payment session not found")
	}

	result := p.DB.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("has_paid_for_large_uploads", true)
	if result.Error != nil {
		return nil, serverError("Failed to record payment", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, notFoundError("User not found")
	}

	session.Status = PaymentStatusPaid
	paymentSessionsTotal.WithLabelValues("verified").Inc()
	logger.InfoWithUser(userID.String(), "payment_verified", map[string]interface{}{
		"amount": session.Amount,
	})

	snapshot := *session
	return &snapshot, nil
}
