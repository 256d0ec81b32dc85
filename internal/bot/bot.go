package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"VPN-Manager-bot/config"
	"VPN-Manager-bot/internal/logger"
	"VPN-Manager-bot/internal/promocode"
	"VPN-Manager-bot/internal/request"
	"VPN-Manager-bot/internal/vpn"
)

// Handler обрабатывает обновления Telegram. Все зависимости передаются
// явно при создании — без пакетных синглтонов.
type Handler struct {
	api        *tgbotapi.BotAPI
	cfg        *config.Config
	vpn        *vpn.Service
	promocodes *promocode.Service
	requests   *request.Service
	sessions   *sessionStore
	limiter    *RateLimiter
}

func NewHandler(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	vpnService *vpn.Service,
	promocodes *promocode.Service,
	requests *request.Service,
) *Handler {
	return &Handler{
		api:        api,
		cfg:        cfg,
		vpn:        vpnService,
		promocodes: promocodes,
		requests:   requests,
		sessions:   newSessionStore(),
		limiter:    NewRateLimiter(),
	}
}

// Run запускает long polling и блокируется до закрытия канала обновлений.
func (h *Handler) Run() {
	logger.Info("bot started", zap.String("account", h.api.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := h.api.GetUpdatesChan(u)

	for update := range updates {
		h.HandleUpdate(update)
	}
}

func (h *Handler) reply(chatID int64, text string, keyboard any) {
	msg := tgbotapi.NewMessage(chatID, text)
	if keyboard != nil {
		msg.ReplyMarkup = keyboard
	}
	if _, err := h.api.Send(msg); err != nil {
		logger.Error("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
