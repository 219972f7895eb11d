package bot

import (
	tgbot "github.com/go-telegram/bot"

	"gitlab.com/clientdesk/billing-bot/internal/bot/mocks"
)

// TelegramAPI is an alias to the interface defined in the mocks package.
type TelegramAPI = mocks.TelegramAPI

var _ TelegramAPI = (*tgbot.Bot)(nil)
