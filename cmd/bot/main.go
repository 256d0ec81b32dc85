package main

import (
	"context"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"

	"VPN-Manager-bot/config"
	"VPN-Manager-bot/internal/bot"
	"VPN-Manager-bot/internal/promocode"
	"VPN-Manager-bot/internal/request"
	"VPN-Manager-bot/internal/services"
	"VPN-Manager-bot/internal/storage"
	"VPN-Manager-bot/internal/vpn"
	"VPN-Manager-bot/internal/xui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	usersStore, err := storage.New[vpn.User](cfg.UsersFile)
	if err != nil {
		log.Fatalf("Failed to open users store: %v", err)
	}
	promoStore, err := storage.New[promocode.Promocode](cfg.PromoFile)
	if err != nil {
		log.Fatalf("Failed to open promocodes store: %v", err)
	}
	reqStore, err := storage.New[request.Request](cfg.ReqFile)
	if err != nil {
		log.Fatalf("Failed to open requests store: %v", err)
	}

	promoService := promocode.NewService(promoStore)
	reqService := request.NewService(reqStore)

	panel := xui.NewAPIClient(cfg.XUI.Host, cfg.XUI.Username, cfg.XUI.Password, cfg.XUI.Token)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := panel.Login(ctx); err != nil {
		cancel()
		log.Fatalf("Failed to login to 3x-ui panel: %v", err)
	}
	cancel()

	botapi, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}
	notifier := bot.NewNotifier(botapi)

	vpnService := vpn.NewService(
		usersStore,
		promoService,
		reqService,
		panel,
		notifier,
		cfg.XUI.InboundID,
		cfg.XUI.SubscriptionPrefix,
	)

	handler := bot.NewHandler(botapi, cfg, vpnService, promoService, reqService)

	// Уведомления о скором окончании подписки (раз в сутки в 10:00)
	c := cron.New()
	c.AddFunc("0 10 * * *", func() {
		services.NotifyExpiringSubscriptions(vpnService, notifier, cfg.NotifyDays)
	})
	c.Start()

	handler.Run()
}
