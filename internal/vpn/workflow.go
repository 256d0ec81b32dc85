package vpn

import (
	"go.uber.org/zap"

	"VPN-Manager-bot/internal/logger"
	"VPN-Manager-bot/internal/request"
)

// SubmitRequest создаёт заявку в статусе pending и возвращает её
// идентификатор. Заявка не трогает панель: ручное оформление требует
// решения администратора.
func (s *Service) SubmitRequest(userID int64, details map[string]any) (string, bool) {
	req := request.Request{
		RequestID: request.NewRequestID(),
		UserID:    userID,
		Details:   details,
		Status:    request.StatusPending,
		Timestamp: s.currentTimestamp(),
	}
	if !s.requests.Create(req) {
		return "", false
	}
	return req.RequestID, true
}

// RespondToRequest отправляет пользователю ответ администратора и переводит
// заявку в completed. Сначала уведомление, затем статус: если отправка не
// удалась, заявка остаётся pending и видна как необработанная.
func (s *Service) RespondToRequest(requestID, message string) bool {
	req := s.requests.Get(requestID)
	if req == nil {
		logger.Warn("request not found", zap.String("request_id", requestID))
		return false
	}

	if !s.SendMessageToUser(req.UserID, message) {
		return false
	}

	if !s.requests.UpdateStatus(requestID, request.StatusCompleted) {
		logger.Error("user notified but request status was not updated",
			zap.String("request_id", requestID))
		return false
	}
	logger.Info("request completed", zap.String("request_id", requestID), zap.Int64("user_id", req.UserID))
	return true
}

// SendMessageToUser отправляет сообщение через внешний транспорт.
func (s *Service) SendMessageToUser(userID int64, message string) bool {
	if err := s.notifier.SendMessage(userID, message); err != nil {
		logger.Error("failed to send message to user", zap.Int64("user_id", userID), zap.Error(err))
		return false
	}
	return true
}
