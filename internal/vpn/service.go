package vpn

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"VPN-Manager-bot/internal/logger"
	"VPN-Manager-bot/internal/promocode"
	"VPN-Manager-bot/internal/request"
	"VPN-Manager-bot/internal/storage"
	"VPN-Manager-bot/internal/xui"
)

const defaultFlow = "xtls-rprx-vision"

// User — локальная привязка Telegram-пользователя к его идентификатору в
// панели. Создаётся при первой выдаче подписки и дальше не меняется.
type User struct {
	UserID int64  `json:"user_id"`
	VPNID  string `json:"vpn_id"`
}

// PanelClient — контракт внешней панели 3x-ui. GetClientByEmail возвращает
// (nil, nil), если клиента просто нет; ошибка означает сбой транспорта.
type PanelClient interface {
	GetClientByEmail(ctx context.Context, inboundID int, email string) (*xui.Client, error)
	AddClient(ctx context.Context, inboundID int, client xui.Client) error
	UpdateClient(ctx context.Context, inboundID int, clientID string, client xui.Client) error
}

// Notifier — контракт отправки сообщений пользователю.
type Notifier interface {
	SendMessage(userID int64, text string) error
}

// ClientData — нормализованное состояние клиента для показа пользователю.
// -1 означает «без ограничения».
type ClientData struct {
	MaxDevices       int
	TrafficTotal     int64
	TrafficRemaining int64
	TrafficUsed      int64
	TrafficUp        int64
	TrafficDown      int64
	ExpiryTime       int64
}

// Service — ядро управления подписками: политика merge/replace для
// количества устройств и длительности, применение промокодов и обработка
// заявок. Состояние клиента панели не кэшируется: читается и пишется в
// рамках одного вызова.
type Service struct {
	users      *storage.Store[User]
	promocodes *promocode.Service
	requests   *request.Service
	panel      PanelClient
	notifier   Notifier
	inboundID  int
	subPrefix  string
	now        func() time.Time
}

func NewService(
	users *storage.Store[User],
	promocodes *promocode.Service,
	requests *request.Service,
	panel PanelClient,
	notifier Notifier,
	inboundID int,
	subPrefix string,
) *Service {
	return &Service{
		users:      users,
		promocodes: promocodes,
		requests:   requests,
		panel:      panel,
		notifier:   notifier,
		inboundID:  inboundID,
		subPrefix:  subPrefix,
		now:        time.Now,
	}
}

// GetUser возвращает локальную запись пользователя или nil.
func (s *Service) GetUser(userID int64) *User {
	users, err := s.users.ReadAll()
	if err != nil {
		logger.Error("failed to read users", zap.Error(err))
		return nil
	}
	for _, u := range users {
		if u.UserID == userID {
			return &u
		}
	}
	return nil
}

// SaveUser сохраняет запись пользователя, заменяя существующую с тем же ID.
func (s *Service) SaveUser(user User) bool {
	err := s.users.Modify(func(users []User) ([]User, bool, error) {
		for i := range users {
			if users[i].UserID == user.UserID {
				users[i] = user
				return users, true, nil
			}
		}
		return append(users, user), true, nil
	})
	if err != nil {
		logger.Error("failed to save user", zap.Int64("user_id", user.UserID), zap.Error(err))
		return false
	}
	return true
}

// EnsureUser возвращает существующую запись пользователя или создаёт новую
// со стабильным идентификатором панели. Идемпотентна.
func (s *Service) EnsureUser(userID int64) *User {
	if u := s.GetUser(userID); u != nil {
		return u
	}
	user := User{UserID: userID, VPNID: fmt.Sprintf("vpn_%d", userID)}
	if !s.SaveUser(user) {
		return nil
	}
	logger.Debug("user record created", zap.Int64("user_id", userID))
	return &user
}

// CreateClient создаёт нового клиента панели: лимит устройств и срок берутся
// из аргументов, трафик безлимитный.
func (s *Service) CreateClient(ctx context.Context, user User, devices, durationDays int) bool {
	newClient := xui.Client{
		ID:         user.VPNID,
		Email:      s.email(user.UserID),
		Enable:     true,
		ExpiryTime: s.daysToTimestamp(durationDays),
		Flow:       defaultFlow,
		LimitIP:    devices,
		SubID:      s.subPrefix + s.email(user.UserID),
		TotalGB:    0,
	}
	if err := s.panel.AddClient(ctx, s.inboundID, newClient); err != nil {
		logger.Error("failed to create client", zap.Int64("user_id", user.UserID), zap.Error(err))
		return false
	}
	logger.Info("client created", zap.Int64("user_id", user.UserID),
		zap.Int("devices", devices), zap.Int("duration_days", durationDays))
	return true
}

// UpdateClient обновляет клиента панели по политике merge/replace.
// Устройства: replaceDevices=false прибавляет devices к текущему лимиту,
// true — заменяет его. Срок: replaceDuration=false отсчитывает durationDays
// от max(текущее истечение, сейчас) — продление никогда не укорачивает
// активную подписку, а истёкшая продлевается от текущего момента; true
// отсчитывает от текущего момента независимо от прежнего значения.
func (s *Service) UpdateClient(ctx context.Context, user User, devices, durationDays int, replaceDevices, replaceDuration bool) bool {
	client, err := s.panel.GetClientByEmail(ctx, s.inboundID, s.email(user.UserID))
	if err != nil {
		logger.Error("failed to fetch client", zap.Int64("user_id", user.UserID), zap.Error(err))
		return false
	}
	if client == nil {
		logger.Warn("client not found for update", zap.Int64("user_id", user.UserID))
		return false
	}

	if !replaceDevices {
		devices = client.LimitIP + devices
	}

	nowMs := s.currentTimestamp()
	base := nowMs
	if !replaceDuration && client.ExpiryTime > nowMs {
		base = client.ExpiryTime
	}

	client.Enable = true
	client.ExpiryTime = addDays(base, durationDays)
	client.Flow = defaultFlow
	client.LimitIP = devices
	client.SubID = s.subPrefix + s.email(user.UserID)
	client.TotalGB = 0

	if err := s.panel.UpdateClient(ctx, s.inboundID, client.ID, *client); err != nil {
		logger.Error("failed to update client", zap.Int64("user_id", user.UserID), zap.Error(err))
		return false
	}
	logger.Info("client updated", zap.Int64("user_id", user.UserID),
		zap.Int("devices", devices), zap.Int("duration_days", durationDays))
	return true
}

// CreateSubscription оформляет подписку по решению администратора: новому
// клиенту создаётся запись, существующему лимит и срок полностью
// заменяются запрошенными значениями.
func (s *Service) CreateSubscription(ctx context.Context, userID int64, devices, durationDays int) bool {
	user := s.EnsureUser(userID)
	if user == nil {
		return false
	}
	client, err := s.panel.GetClientByEmail(ctx, s.inboundID, s.email(userID))
	if err != nil {
		logger.Error("failed to check client existence", zap.Int64("user_id", userID), zap.Error(err))
		return false
	}
	if client == nil {
		return s.CreateClient(ctx, *user, devices, durationDays)
	}
	return s.UpdateClient(ctx, *user, devices, durationDays, true, true)
}

// ExtendSubscription продлевает подписку существующего пользователя:
// лимит устройств заменяется, срок прибавляется.
func (s *Service) ExtendSubscription(ctx context.Context, userID int64, devices, durationDays int) bool {
	user := s.GetUser(userID)
	if user == nil {
		logger.Warn("user not found for extension", zap.Int64("user_id", userID))
		return false
	}
	return s.UpdateClient(ctx, *user, devices, durationDays, true, false)
}

// ApplyPromocode применяет промокод: существующему клиенту срок
// прибавляется без изменения устройств, новому создаётся клиент на одно
// устройство. Код гасится только после успешного вызова панели — иначе
// неудачная попытка сожгла бы код впустую.
func (s *Service) ApplyPromocode(ctx context.Context, userID int64, code string) bool {
	promo := s.promocodes.Get(code)
	if promo == nil {
		logger.Warn("promocode not found or inactive", zap.String("code", code), zap.Int64("user_id", userID))
		return false
	}

	user := s.EnsureUser(userID)
	if user == nil {
		return false
	}

	client, err := s.panel.GetClientByEmail(ctx, s.inboundID, s.email(userID))
	if err != nil {
		logger.Error("failed to check client existence", zap.Int64("user_id", userID), zap.Error(err))
		return false
	}

	var ok bool
	if client != nil {
		ok = s.UpdateClient(ctx, *user, 0, promo.DurationDays, false, false)
	} else {
		ok = s.CreateClient(ctx, *user, 1, promo.DurationDays)
	}
	if !ok {
		logger.Warn("promocode not applied, panel call failed",
			zap.String("code", code), zap.Int64("user_id", userID))
		return false
	}

	if !s.promocodes.Use(code) {
		// Подписка уже выдана; потерянная отметка о применении лучше,
		// чем отобранная подписка.
		logger.Error("subscription granted but promocode was not consumed",
			zap.String("code", code), zap.Int64("user_id", userID))
	}
	logger.Info("promocode applied", zap.String("code", code), zap.Int64("user_id", userID))
	return true
}

// GetClientData возвращает нормализованное состояние клиента панели или
// nil, если клиента нет.
func (s *Service) GetClientData(ctx context.Context, userID int64) *ClientData {
	client, err := s.panel.GetClientByEmail(ctx, s.inboundID, s.email(userID))
	if err != nil {
		logger.Error("failed to fetch client data", zap.Int64("user_id", userID), zap.Error(err))
		return nil
	}
	if client == nil {
		return nil
	}

	data := &ClientData{
		MaxDevices:   client.LimitIP,
		TrafficTotal: client.Total,
		TrafficUp:    client.Up,
		TrafficDown:  client.Down,
		TrafficUsed:  client.Up + client.Down,
		ExpiryTime:   client.ExpiryTime,
	}
	if client.LimitIP == 0 {
		data.MaxDevices = -1
	}
	if client.Total <= 0 {
		data.TrafficTotal = -1
		data.TrafficRemaining = -1
	} else {
		data.TrafficRemaining = client.Total - (client.Up + client.Down)
	}
	if client.ExpiryTime == 0 {
		data.ExpiryTime = -1
	}
	return data
}

// ListUsers возвращает все локальные записи пользователей.
func (s *Service) ListUsers() []User {
	users, err := s.users.ReadAll()
	if err != nil {
		logger.Error("failed to list users", zap.Error(err))
		return nil
	}
	return users
}

func (s *Service) email(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func (s *Service) currentTimestamp() int64 {
	return s.now().UTC().UnixMilli()
}

func (s *Service) daysToTimestamp(days int) int64 {
	return addDays(s.currentTimestamp(), days)
}

func addDays(timestamp int64, days int) int64 {
	return timestamp + int64(days)*24*60*60*1000
}
