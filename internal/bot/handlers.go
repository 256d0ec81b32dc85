package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// HandleUpdate — точка входа для каждого обновления Telegram.
func (h *Handler) HandleUpdate(update tgbotapi.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	msg := update.Message
	userID := msg.From.ID
	text := strings.TrimSpace(msg.Text)

	// /start сбрасывает любой незавершённый диалог
	if strings.HasPrefix(text, "/start") {
		h.sessions.reset(userID)
		h.handleStart(msg)
		return
	}

	// Незавершённые диалоги обрабатываются раньше команд и кнопок
	sess := h.sessions.get(userID)
	if sess.state != stateNone {
		h.handleSessionInput(msg, sess)
		return
	}

	if !h.cfg.IsAdmin(userID) && h.limiter.IsLimited(userID, text) {
		h.reply(msg.Chat.ID, "Пожалуйста, не так быстро! Подождите пару секунд...", userKeyboard())
		return
	}

	if h.cfg.IsAdmin(userID) && strings.HasPrefix(text, "/admin_") {
		h.handleAdminCommand(msg)
		return
	}

	switch text {
	case btnRedeemPromo:
		h.sessions.set(userID, session{state: stateAwaitPromo})
		h.reply(msg.Chat.ID, "📩 Пожалуйста, введите ваш промокод:", tgbotapi.NewRemoveKeyboard(false))
	case btnSendRequest:
		h.sessions.set(userID, session{state: stateAwaitDetails})
		h.reply(msg.Chat.ID, "📝 Пожалуйста, введите детали вашей заявки (например, количество устройств и предпочтительная длительность):", tgbotapi.NewRemoveKeyboard(false))
	case btnStatus:
		h.handleStatus(msg)
	case btnViewRequests:
		h.handleViewRequests(msg)
	case btnRespondRequest:
		h.handleRespondButton(msg)
	case btnBack:
		h.handleStart(msg)
	default:
		h.reply(msg.Chat.ID, "Неизвестная команда. Используйте кнопки меню или /start.", h.keyboardFor(userID))
	}
}

func (h *Handler) keyboardFor(userID int64) tgbotapi.ReplyKeyboardMarkup {
	if h.cfg.IsAdmin(userID) {
		return adminKeyboard()
	}
	return userKeyboard()
}

func (h *Handler) handleStart(msg *tgbotapi.Message) {
	if h.cfg.IsAdmin(msg.From.ID) {
		h.reply(msg.Chat.ID, "👋 Привет, администратор! Выберите действие:", adminKeyboard())
		return
	}
	h.reply(msg.Chat.ID, "👋 Привет! Выберите способ оформления подписки:", userKeyboard())
}

func (h *Handler) handleSessionInput(msg *tgbotapi.Message, sess session) {
	switch sess.state {
	case stateAwaitPromo:
		h.handlePromoInput(msg)
	case stateAwaitDetails:
		h.handleDetailsInput(msg)
	case stateAwaitRequestID:
		h.handleRequestIDInput(msg)
	case stateAwaitResponse:
		h.handleResponseInput(msg, sess)
	default:
		h.sessions.reset(msg.From.ID)
	}
}

func (h *Handler) handlePromoInput(msg *tgbotapi.Message) {
	userID := msg.From.ID
	code := strings.TrimSpace(msg.Text)
	h.sessions.reset(userID)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if h.vpn.ApplyPromocode(ctx, userID, code) {
		h.reply(msg.Chat.ID, "✅ Ваш промокод успешно применён! Подписка активирована.", userKeyboard())
		return
	}
	h.reply(msg.Chat.ID, "❌ Неверный или уже использованный промокод. Пожалуйста, попробуйте снова или выберите другой способ оформления подписки.", userKeyboard())
}

func (h *Handler) handleDetailsInput(msg *tgbotapi.Message) {
	userID := msg.From.ID
	h.sessions.reset(userID)

	details := map[string]any{"message": strings.TrimSpace(msg.Text)}
	requestID, ok := h.vpn.SubmitRequest(userID, details)
	if !ok {
		h.reply(msg.Chat.ID, "❌ Произошла ошибка при отправке заявки. Пожалуйста, попробуйте позже.", userKeyboard())
		return
	}
	h.reply(msg.Chat.ID, "✅ Ваша заявка успешно отправлена администратору. Ожидайте ответа.", userKeyboard())
	h.notifyAdmins(fmt.Sprintf("📥 Новая заявка %s от пользователя %d. Нажмите «%s» для просмотра.", requestID, userID, btnViewRequests))
}

func (h *Handler) handleStatus(msg *tgbotapi.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	data := h.vpn.GetClientData(ctx, msg.From.ID)
	if data == nil {
		h.reply(msg.Chat.ID, "❌ У вас нет активной подписки или произошла ошибка при получении данных.", userKeyboard())
		return
	}

	expiry := "без ограничения"
	if data.ExpiryTime > 0 {
		expiry = time.UnixMilli(data.ExpiryTime).Format("2006-01-02 15:04:05")
	}
	devices := "без ограничения"
	if data.MaxDevices > 0 {
		devices = fmt.Sprintf("%d", data.MaxDevices)
	}
	total := "безлимит"
	remaining := "безлимит"
	if data.TrafficTotal > 0 {
		total = formatBytes(data.TrafficTotal)
		remaining = formatBytes(data.TrafficRemaining)
	}

	status := fmt.Sprintf(
		"🔹 Статус Подписки 🔹\nУстройств: %s\nОбщий трафик: %s\nОсталось трафика: %s\nИспользовано: %s\nДействует до: %s",
		devices, total, remaining, formatBytes(data.TrafficUsed), expiry)
	h.reply(msg.Chat.ID, status, userKeyboard())
}

func (h *Handler) notifyAdmins(text string) {
	for adminID := range h.cfg.AdminIDs {
		h.reply(adminID, text, nil)
	}
}

func formatBytes(n int64) string {
	const gb = 1 << 30
	const mb = 1 << 20
	switch {
	case n >= gb:
		return fmt.Sprintf("%.2f GB", float64(n)/float64(gb))
	case n >= mb:
		return fmt.Sprintf("%.2f MB", float64(n)/float64(mb))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
