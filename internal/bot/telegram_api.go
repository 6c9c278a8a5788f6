package bot

import (
	tgbot "github.com/go-telegram/bot"
	"gitlab.com/yelinaung/boleto-bot/internal/bot/mocks"
)

// TelegramAPI is an alias to the interface defined in the mocks package.
type TelegramAPI = mocks.TelegramAPI

// Compile-time check that the real bot satisfies the interface.
var _ TelegramAPI = (*tgbot.Bot)(nil)
