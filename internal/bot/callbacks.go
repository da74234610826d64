package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const msgFeedExpired = "This feed has expired. Use /feed to start again."

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID

	action, arg, ok := ParseCallback(cb.Data)
	if !ok {
		b.answer(cb.ID, "")
		return
	}

	b.log.Info("callback",
		"action", action,
		"arg", arg,
		"chat_id", chatID,
		"user_id", cb.From.ID,
		"username", cb.From.UserName,
	)

	switch action {
	case cbLike:
		b.answer(cb.ID, b.handleLikeCallback(ctx, chatID, messageID, arg))
	case cbMore:
		b.answer(cb.ID, b.handleMoreCallback(chatID, messageID, arg))
	case cbLogout:
		b.answer(cb.ID, "")
		b.handleLogoutCallback(ctx, chatID, arg)
	default:
		b.answer(cb.ID, "")
	}
}

// handleLikeCallback toggles the like of a row and returns the text shown
// to the user in the callback answer.
func (b *Bot) handleLikeCallback(ctx context.Context, chatID int64, messageID int, arg string) string {
	row, err := ParseRow(arg)
	if err != nil {
		return ""
	}
	s, ok := b.feedSession(chatID, row, messageID)
	if !ok {
		return msgFeedExpired
	}
	signedIn, err := b.auth.HasToken(ctx, chatID)
	if err != nil {
		b.log.Error("check token", "chat_id", chatID, "error", err)
		return msgLikeFailed
	}
	if !signedIn {
		return "Sign in with /login to like photos."
	}

	s.touch(b.now())
	s.list.ToggleLike(row)
	return ""
}

func (b *Bot) handleMoreCallback(chatID int64, messageID int, arg string) string {
	row, err := ParseRow(arg)
	if err != nil {
		return ""
	}
	s, ok := b.feedSession(chatID, row, messageID)
	if !ok {
		return msgFeedExpired
	}
	s.touch(b.now())
	s.list.WillDisplay(row)
	return ""
}

// feedSession returns the chat's session when messageID is the message the
// current feed renders row with. Buttons left over from an earlier feed
// carry row numbers that now belong to other photos.
func (b *Bot) feedSession(chatID int64, row, messageID int) (*session, bool) {
	s, ok := b.sessions[chatID]
	if !ok || !s.view.shows(row, messageID) {
		return nil, false
	}
	return s, true
}

func (b *Bot) handleLogoutCallback(ctx context.Context, chatID int64, arg string) {
	switch arg {
	case logoutAsk:
		b.handleLogout(ctx, chatID)
	case logoutConfirm:
		p, _ := b.profilePresenter(ctx, chatID, staticProfile{}, "")
		p.ConfirmLogout()
	case logoutCancel:
		b.reply(chatID, "Still signed in.")
	}
}
