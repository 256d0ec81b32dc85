package request

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"VPN-Manager-bot/internal/logger"
	"VPN-Manager-bot/internal/storage"
)

// Статусы заявки. StatusRejected зарезервирован: ни один текущий сценарий
// его не выставляет, но значение входит в модель.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusRejected  = "rejected"
)

// Request — заявка пользователя на ручное оформление подписки.
type Request struct {
	RequestID string         `json:"request_id"`
	UserID    int64          `json:"user_id"`
	Details   map[string]any `json:"details"`
	Status    string         `json:"status"`
	Timestamp int64          `json:"timestamp"` // Unix-время в миллисекундах
}

// Service управляет заявками поверх JSON-хранилища.
type Service struct {
	store *storage.Store[Request]
}

func NewService(store *storage.Store[Request]) *Service {
	return &Service{store: store}
}

// NewRequestID генерирует уникальный идентификатор заявки. Случайный UUID,
// а не счётчик: идентификаторы должны оставаться уникальными между
// перезапусками без центрального источника последовательности.
func NewRequestID() string {
	return uuid.NewString()
}

// Create добавляет заявку в конец хранилища.
func (s *Service) Create(req Request) bool {
	err := s.store.Modify(func(requests []Request) ([]Request, bool, error) {
		return append(requests, req), true, nil
	})
	if err != nil {
		logger.Error("failed to create request", zap.String("request_id", req.RequestID), zap.Error(err))
		return false
	}
	logger.Info("request created", zap.String("request_id", req.RequestID), zap.Int64("user_id", req.UserID))
	return true
}

// Get возвращает заявку по идентификатору или nil.
func (s *Service) Get(requestID string) *Request {
	requests, err := s.store.ReadAll()
	if err != nil {
		logger.Error("failed to read requests", zap.Error(err))
		return nil
	}
	for _, r := range requests {
		if r.RequestID == requestID {
			return &r
		}
	}
	return nil
}

// UpdateStatus меняет статус существующей заявки.
func (s *Service) UpdateStatus(requestID, newStatus string) bool {
	updated := false
	err := s.store.Modify(func(requests []Request) ([]Request, bool, error) {
		for i := range requests {
			if requests[i].RequestID == requestID {
				requests[i].Status = newStatus
				updated = true
				return requests, true, nil
			}
		}
		return requests, false, nil
	})
	if err != nil {
		logger.Error("failed to update request status", zap.String("request_id", requestID), zap.Error(err))
		return false
	}
	if updated {
		logger.Info("request status updated", zap.String("request_id", requestID), zap.String("status", newStatus))
	}
	return updated
}

// List возвращает заявки в порядке добавления. Пустой statusFilter — без
// фильтрации.
func (s *Service) List(statusFilter string) []Request {
	requests, err := s.store.ReadAll()
	if err != nil {
		logger.Error("failed to list requests", zap.Error(err))
		return nil
	}
	if statusFilter == "" {
		return requests
	}
	filtered := make([]Request, 0, len(requests))
	for _, r := range requests {
		if r.Status == statusFilter {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
