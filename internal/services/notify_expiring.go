package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"VPN-Manager-bot/internal/logger"
	"VPN-Manager-bot/internal/vpn"
)

// NotifyExpiringSubscriptions отправляет уведомления пользователям о скором
// окончании подписки. Best effort: сбой отправки одному пользователю не
// прерывает обход остальных.
func NotifyExpiringSubscriptions(vpnService *vpn.Service, notifier vpn.Notifier, daysBefore int) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	now := time.Now().UTC().UnixMilli()
	soon := now + int64(daysBefore)*24*60*60*1000

	for _, user := range vpnService.ListUsers() {
		data := vpnService.GetClientData(ctx, user.UserID)
		if data == nil || data.ExpiryTime <= 0 {
			continue
		}
		if data.ExpiryTime <= now || data.ExpiryTime > soon {
			continue
		}
		expiry := time.UnixMilli(data.ExpiryTime).Format("2006-01-02 15:04")
		text := fmt.Sprintf("⏳ Ваша подписка истекает %s. Продлите её промокодом или заявкой администратору.", expiry)
		if err := notifier.SendMessage(user.UserID, text); err != nil {
			logger.Error("failed to notify user about expiring subscription",
				zap.Int64("user_id", user.UserID), zap.Error(err))
			continue
		}
		logger.Info("expiring subscription notification sent", zap.Int64("user_id", user.UserID))
	}
}
