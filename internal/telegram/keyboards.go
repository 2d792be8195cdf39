package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dan1650/plates-bot/internal/lookup"
	"github.com/dan1650/plates-bot/internal/render"
)

// Reply-keyboard buttons.
const (
	ButtonExamples = "🔍 Examples"
	ButtonHelp     = "❓ Help"
)

// Callback data prefixes.
const (
	CopyPrefix = "copy::"
	ShowPrefix = "show::"
)

const choicesPerRow = 2

// MainKeyboard is the persistent reply keyboard.
func MainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(ButtonExamples),
			tgbotapi.NewKeyboardButton(ButtonHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.InputFieldPlaceholder = "Type B1000, 2259, or a phone number"
	return kb
}

// ResultKeyboard is attached to a record card.
func ResultKeyboard(plate string) tgbotapi.InlineKeyboardMarkup {
	current := ""
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.InlineKeyboardButton{
				Text:                         "🔎 New search",
				SwitchInlineQueryCurrentChat: &current,
			},
			tgbotapi.NewInlineKeyboardButtonData("📋 Copy code", CopyPrefix+plate),
		),
	)
}

// ChooserKeyboard lays out one button per choice, two per row.
func ChooserKeyboard(choices []lookup.Choice) tgbotapi.InlineKeyboardMarkup {
	var (
		rows [][]tgbotapi.InlineKeyboardButton
		row  []tgbotapi.InlineKeyboardButton
	)
	for _, c := range choices {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(render.ButtonLabel(c.Record), ShowPrefix+c.Token))
		if len(row) == choicesPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// parseCallback splits callback data into its prefix and argument.
func parseCallback(data string) (prefix, arg string, ok bool) {
	for _, p := range []string{CopyPrefix, ShowPrefix} {
		if rest, found := strings.CutPrefix(data, p); found {
			return p, rest, true
		}
	}
	return "", "", false
}
