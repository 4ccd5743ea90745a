package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

const (
	telegramAPI        = "https://api.telegram.org"
	telegramMaxMessage = 4096
)

// Legacy Markdown entities; a backslash makes them literal.
var telegramEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

// TelegramSender posts notifications to one chat through the Bot API.
type TelegramSender struct {
	token   string
	chatID  string
	apiBase string
	client  *http.Client
}

type telegramMessage struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type telegramReply struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// NewTelegramSender returns a sender for the bot token and chat ID.
func NewTelegramSender(token, chatID string) *TelegramSender {
	return &TelegramSender{token: token, chatID: chatID, apiBase: telegramAPI, client: newHTTPClient()}
}

// Send calls sendMessage with a bold title. A 2xx reply whose body reports
// ok=false is still an error.
func (t *TelegramSender) Send(ctx context.Context, title, message string) error {
	msg := telegramMessage{
		ChatID:                t.chatID,
		Text:                  truncate(fmt.Sprintf("*%s*\n%s", telegramEscaper.Replace(title), telegramEscaper.Replace(message)), telegramMaxMessage),
		ParseMode:             "Markdown",
		DisableWebPagePreview: true,
	}
	body, err := postJSON(ctx, t.client, t.apiBase+"/bot"+t.token+"/sendMessage", msg)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	if len(body) == 0 {
		return nil
	}
	var reply telegramReply
	if err := jsoniter.Unmarshal(body, &reply); err != nil {
		return nil
	}
	if !reply.OK {
		return fmt.Errorf("telegram: api error: %s", reply.Description)
	}
	return nil
}

func (t *TelegramSender) Name() string { return "telegram" }
