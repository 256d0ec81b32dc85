package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	btnRedeemPromo    = "📄 Оформить через Промокод"
	btnSendRequest    = "✉️ Отправить Заявку Администратору"
	btnStatus         = "📊 Статус Подписки"
	btnViewRequests   = "🔍 Просмотреть Заявки"
	btnRespondRequest = "💬 Ответить на Заявку"
	btnBack           = "⬅️ Назад"
)

func userKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnRedeemPromo),
			tgbotapi.NewKeyboardButton(btnSendRequest),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnStatus),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func adminKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnViewRequests),
			tgbotapi.NewKeyboardButton(btnRespondRequest),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnBack),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}
