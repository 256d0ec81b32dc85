package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"VPN-Manager-bot/internal/logger"
	"VPN-Manager-bot/internal/request"
)

// handleAdminCommand разбирает команды администратора с аргументами в одном
// сообщении: /admin_addpromo CODE DAYS и т.п.
func (h *Handler) handleAdminCommand(msg *tgbotapi.Message) {
	args := strings.Fields(msg.Text)
	cmd := strings.TrimPrefix(args[0], "/")
	args = args[1:]

	switch cmd {
	case "admin_requests":
		h.handleViewRequests(msg)
	case "admin_addpromo":
		h.handleAddPromo(msg, args)
	case "admin_delpromo":
		h.handleDelPromo(msg, args)
	case "admin_offpromo":
		h.handleOffPromo(msg, args)
	case "admin_promos":
		h.handleListPromos(msg)
	case "admin_grant":
		h.handleGrant(msg, args, false)
	case "admin_extend":
		h.handleGrant(msg, args, true)
	case "admin_help":
		h.reply(msg.Chat.ID, adminHelpText, adminKeyboard())
	default:
		h.reply(msg.Chat.ID, "Неизвестная админ-команда. /admin_help — список команд.", adminKeyboard())
	}
	logger.LogAdminAction(msg.From.ID, cmd, msg.Text)
}

const adminHelpText = `Команды администратора:
/admin_requests — список заявок в ожидании
/admin_addpromo КОД ДНИ — добавить промокод
/admin_delpromo КОД — удалить промокод
/admin_offpromo КОД — деактивировать промокод
/admin_promos — список промокодов
/admin_grant ID УСТРОЙСТВ ДНИ — выдать подписку
/admin_extend ID УСТРОЙСТВ ДНИ — продлить подписку`

func (h *Handler) handleViewRequests(msg *tgbotapi.Message) {
	if !h.cfg.IsAdmin(msg.From.ID) {
		h.reply(msg.Chat.ID, "❌ У вас нет прав для использования этой команды.", userKeyboard())
		return
	}

	pending := h.requests.List(request.StatusPending)
	if len(pending) == 0 {
		h.reply(msg.Chat.ID, "📭 Нет новых заявок для обработки.", adminKeyboard())
		return
	}

	var sb strings.Builder
	sb.WriteString("📄 Список Новых Заявок:\n\n")
	for _, req := range pending {
		details, _ := req.Details["message"].(string)
		if details == "" {
			details = "Нет деталей"
		}
		sb.WriteString(fmt.Sprintf("🔹 ID заявки: %s\n👤 Пользователь ID: %d\n📋 Детали: %s\n📅 Время создания: %s\n\n",
			req.RequestID, req.UserID, details,
			time.UnixMilli(req.Timestamp).Format("2006-01-02 15:04:05")))
	}
	h.reply(msg.Chat.ID, sb.String(), adminKeyboard())
}

func (h *Handler) handleRespondButton(msg *tgbotapi.Message) {
	if !h.cfg.IsAdmin(msg.From.ID) {
		h.reply(msg.Chat.ID, "❌ У вас нет прав для использования этой команды.", userKeyboard())
		return
	}
	h.sessions.set(msg.From.ID, session{state: stateAwaitRequestID})
	h.reply(msg.Chat.ID, "🔍 Пожалуйста, введите ID заявки, на которую хотите ответить:", tgbotapi.NewRemoveKeyboard(false))
}

func (h *Handler) handleRequestIDInput(msg *tgbotapi.Message) {
	requestID := strings.TrimSpace(msg.Text)
	req := h.requests.Get(requestID)
	if req == nil || req.Status != request.StatusPending {
		h.reply(msg.Chat.ID, "❌ Заявка с таким ID не найдена или уже обработана. Пожалуйста, введите корректный ID заявки.", nil)
		return
	}
	h.sessions.set(msg.From.ID, session{state: stateAwaitResponse, requestID: requestID})
	h.reply(msg.Chat.ID, "💬 Пожалуйста, введите сообщение для пользователя:", nil)
}

func (h *Handler) handleResponseInput(msg *tgbotapi.Message, sess session) {
	h.sessions.reset(msg.From.ID)

	if h.vpn.RespondToRequest(sess.requestID, strings.TrimSpace(msg.Text)) {
		h.reply(msg.Chat.ID, "✅ Сообщение пользователю успешно отправлено и заявка обновлена.", adminKeyboard())
		return
	}
	h.reply(msg.Chat.ID, "❌ Произошла ошибка при отправке сообщения пользователю или обновлении заявки.", adminKeyboard())
}

func (h *Handler) handleAddPromo(msg *tgbotapi.Message, args []string) {
	if len(args) != 2 {
		h.reply(msg.Chat.ID, "Использование: /admin_addpromo КОД ДНИ", adminKeyboard())
		return
	}
	days, err := strconv.Atoi(args[1])
	if err != nil || days <= 0 {
		h.reply(msg.Chat.ID, "Количество дней должно быть положительным числом.", adminKeyboard())
		return
	}
	if !h.promocodes.Add(args[0], days) {
		h.reply(msg.Chat.ID, "❌ Такой промокод уже существует.", adminKeyboard())
		return
	}
	h.reply(msg.Chat.ID, fmt.Sprintf("✅ Промокод %s на %d дней добавлен.", args[0], days), adminKeyboard())
}

func (h *Handler) handleDelPromo(msg *tgbotapi.Message, args []string) {
	if len(args) != 1 {
		h.reply(msg.Chat.ID, "Использование: /admin_delpromo КОД", adminKeyboard())
		return
	}
	if !h.promocodes.Remove(args[0]) {
		h.reply(msg.Chat.ID, "❌ Промокод не найден.", adminKeyboard())
		return
	}
	h.reply(msg.Chat.ID, fmt.Sprintf("✅ Промокод %s удалён.", args[0]), adminKeyboard())
}

func (h *Handler) handleOffPromo(msg *tgbotapi.Message, args []string) {
	if len(args) != 1 {
		h.reply(msg.Chat.ID, "Использование: /admin_offpromo КОД", adminKeyboard())
		return
	}
	if !h.promocodes.Deactivate(args[0]) {
		h.reply(msg.Chat.ID, "❌ Промокод не найден или уже неактивен.", adminKeyboard())
		return
	}
	h.reply(msg.Chat.ID, fmt.Sprintf("✅ Промокод %s деактивирован.", args[0]), adminKeyboard())
}

func (h *Handler) handleListPromos(msg *tgbotapi.Message) {
	promos := h.promocodes.List()
	if len(promos) == 0 {
		h.reply(msg.Chat.ID, "Промокодов пока нет.", adminKeyboard())
		return
	}
	var sb strings.Builder
	sb.WriteString("Промокоды:\n")
	for _, p := range promos {
		state := "активен"
		if !p.Active {
			state = "неактивен"
		}
		sb.WriteString(fmt.Sprintf("%s — %d дней, %s\n", p.Code, p.DurationDays, state))
	}
	h.reply(msg.Chat.ID, sb.String(), adminKeyboard())
}

// handleGrant выдаёт (/admin_grant) или продлевает (/admin_extend) подписку
// вручную по решению администратора.
func (h *Handler) handleGrant(msg *tgbotapi.Message, args []string, extend bool) {
	if len(args) != 3 {
		h.reply(msg.Chat.ID, "Использование: /admin_grant ID УСТРОЙСТВ ДНИ", adminKeyboard())
		return
	}
	userID, err1 := strconv.ParseInt(args[0], 10, 64)
	devices, err2 := strconv.Atoi(args[1])
	days, err3 := strconv.Atoi(args[2])
	if err1 != nil || err2 != nil || err3 != nil || days <= 0 {
		h.reply(msg.Chat.ID, "Все аргументы должны быть числами, дни — положительным.", adminKeyboard())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var ok bool
	if extend {
		ok = h.vpn.ExtendSubscription(ctx, userID, devices, days)
	} else {
		ok = h.vpn.CreateSubscription(ctx, userID, devices, days)
	}
	if !ok {
		h.reply(msg.Chat.ID, "❌ Не удалось выполнить операцию. Проверьте ID пользователя и доступность панели.", adminKeyboard())
		return
	}
	h.reply(msg.Chat.ID, fmt.Sprintf("✅ Подписка пользователя %d обновлена: %d устройств, %d дней.", userID, devices, days), adminKeyboard())
}
