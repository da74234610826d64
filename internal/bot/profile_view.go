package bot

import (
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"photofeed/internal/model"
	"photofeed/internal/presenter"
)

// profileView collects what the profile presenter shows and sends it as a
// single message on flush.
type profileView struct {
	api    telegramAPI
	chatID int64
	log    *slog.Logger

	vm     *presenter.ProfileViewModel
	avatar string
}

func (v *profileView) ShowProfile(vm presenter.ProfileViewModel) { v.vm = &vm }

func (v *profileView) SetAvatar(url string) { v.avatar = url }

func (v *profileView) ShowLogoutConfirm() {
	msg := tgbotapi.NewMessage(v.chatID, "Log out of Unsplash? Your feed will be closed.")
	msg.ReplyMarkup = logoutKeyboard()
	if _, err := v.api.Send(msg); err != nil {
		v.log.Error("send logout confirmation", "chat_id", v.chatID, "error", err)
	}
}

func (v *profileView) flush() {
	if v.vm == nil {
		return
	}
	text := FormatProfile(*v.vm)

	var msg tgbotapi.Chattable
	if v.avatar != "" {
		photo := tgbotapi.NewPhoto(v.chatID, tgbotapi.FileURL(v.avatar))
		photo.Caption = text
		photo.ReplyMarkup = profileKeyboard()
		msg = photo
	} else {
		m := tgbotapi.NewMessage(v.chatID, text)
		m.ReplyMarkup = profileKeyboard()
		msg = m
	}
	if _, err := v.api.Send(msg); err != nil {
		v.log.Error("send profile", "chat_id", v.chatID, "error", err)
	}
}

type staticProfile struct{ p *model.Profile }

func (s staticProfile) Profile() *model.Profile { return s.p }

type staticAvatar string

func (s staticAvatar) AvatarURL() string { return string(s) }
