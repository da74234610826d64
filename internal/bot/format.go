package bot

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"photofeed/internal/model"
	"photofeed/internal/presenter"
)

// Telegram rejects captions longer than 1024 characters.
const maxDescription = 800

// Callback actions.
const (
	cbLike   = "like"
	cbMore   = "more"
	cbLogout = "logout"

	logoutAsk     = "ask"
	logoutConfirm = "yes"
	logoutCancel  = "no"
)

const dateLayout = "2 January 2006"

// FormatCaption formats the caption of a photo message.
func FormatCaption(p model.Photo) string {
	var b strings.Builder
	if p.Description != "" {
		b.WriteString(truncate(p.Description, maxDescription))
		b.WriteString("\n\n")
	}
	if !p.CreatedAt.IsZero() {
		b.WriteString(p.CreatedAt.Format(dateLayout))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "%d×%d\n%s", p.Size.Width, p.Size.Height, p.FullURL)
	return b.String()
}

// FormatProfile formats the profile screen.
func FormatProfile(vm presenter.ProfileViewModel) string {
	var b strings.Builder
	b.WriteString(vm.Name)
	b.WriteString("\n")
	b.WriteString(vm.Login)
	if vm.Bio != "" {
		b.WriteString("\n\n")
		b.WriteString(vm.Bio)
	}
	return b.String()
}

func likeLabel(st rowState) string {
	switch {
	case st.disabled:
		return "⏳"
	case st.liked:
		return "❤️ Liked"
	default:
		return "🤍 Like"
	}
}

func photoKeyboard(row int, st rowState) tgbotapi.InlineKeyboardMarkup {
	idx := strconv.Itoa(row)
	buttons := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData(likeLabel(st), cbLike+":"+idx),
	}
	if st.more {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData("More ▸", cbMore+":"+idx))
	}
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(buttons...))
}

func profileKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Log out", cbLogout+":"+logoutAsk),
		),
	)
}

func logoutKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Yes, log out", cbLogout+":"+logoutConfirm),
			tgbotapi.NewInlineKeyboardButtonData("Cancel", cbLogout+":"+logoutCancel),
		),
	)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n])) + "…"
}
