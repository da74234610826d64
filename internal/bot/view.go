package bot

import (
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"photofeed/internal/model"
)

const (
	msgLikeFailed  = "Could not change like. Try again later."
	msgFetchFailed = "Could not load photos. Use /more to try again."
)

// photoSource is the presenter surface the view reads rows from.
type photoSource interface {
	Photo(row int) (model.Photo, bool)
}

// rowState is what a photo message's keyboard shows.
type rowState struct {
	liked    bool
	disabled bool
	more     bool
}

// key identifies the visible keyboard. Telegram rejects edits that leave
// the markup unchanged.
func (st rowState) key() string {
	if st.more {
		return likeLabel(st) + "|more"
	}
	return likeLabel(st)
}

// chatView renders feed rows as photo messages. Each row is one message;
// reloading a row edits that message's keyboard. The last row carries the
// button that asks for more photos.
type chatView struct {
	api    telegramAPI
	chatID int64
	log    *slog.Logger
	source photoSource

	messages map[int]int
	rendered map[int]string
	disabled map[int]bool
	moreRow  int
	closed   bool
}

func newChatView(api telegramAPI, chatID int64, log *slog.Logger) *chatView {
	v := &chatView{api: api, chatID: chatID, log: log}
	v.clear()
	return v
}

func (v *chatView) clear() {
	v.messages = make(map[int]int)
	v.rendered = make(map[int]string)
	v.disabled = make(map[int]bool)
	v.moreRow = -1
}

func (v *chatView) InsertRows(rows []int) {
	if v.closed || len(rows) == 0 {
		return
	}

	prev := v.moreRow
	v.moreRow = rows[len(rows)-1]
	if prev >= 0 && prev != v.moreRow {
		v.render(prev)
	}

	for _, row := range rows {
		photo, ok := v.source.Photo(row)
		if !ok {
			continue
		}
		st := v.stateFor(row, photo)

		msg := tgbotapi.NewPhoto(v.chatID, tgbotapi.FileURL(photo.ThumbURL))
		msg.Caption = FormatCaption(photo)
		msg.ReplyMarkup = photoKeyboard(row, st)
		sent, err := v.api.Send(msg)
		if err != nil {
			v.log.Error("send photo", "chat_id", v.chatID, "photo_id", photo.ID, "error", err)
			continue
		}
		v.messages[row] = sent.MessageID
		v.rendered[row] = st.key()
	}
}

func (v *chatView) ReloadRows(rows []int) {
	if v.closed {
		return
	}
	for _, row := range rows {
		v.render(row)
	}
}

func (v *chatView) SetLikeEnabled(row int, enabled bool) {
	if v.closed {
		return
	}
	if enabled {
		delete(v.disabled, row)
	} else {
		v.disabled[row] = true
	}
	v.render(row)
}

func (v *chatView) ShowLikeError(err error) {
	if v.closed {
		return
	}
	v.log.Warn("like failed", "chat_id", v.chatID, "error", err)
	v.send(msgLikeFailed)
}

// ShowFetchError reports a failed page load.
func (v *chatView) ShowFetchError(err error) {
	if v.closed {
		return
	}
	v.log.Warn("page load failed", "chat_id", v.chatID, "error", err)
	v.send(msgFetchFailed)
}

// shows reports whether messageID is the message rendering row.
func (v *chatView) shows(row, messageID int) bool {
	id, ok := v.messages[row]
	return ok && id == messageID
}

func (v *chatView) stateFor(row int, photo model.Photo) rowState {
	return rowState{liked: photo.IsLiked, disabled: v.disabled[row], more: row == v.moreRow}
}

// render edits the keyboard of row when what it shows is out of date.
func (v *chatView) render(row int) {
	msgID, ok := v.messages[row]
	if !ok {
		return
	}
	photo, ok := v.source.Photo(row)
	if !ok {
		return
	}
	st := v.stateFor(row, photo)
	if st.key() == v.rendered[row] {
		return
	}

	edit := tgbotapi.NewEditMessageReplyMarkup(v.chatID, msgID, photoKeyboard(row, st))
	if _, err := v.api.Request(edit); err != nil {
		v.log.Error("edit keyboard", "chat_id", v.chatID, "row", row, "error", err)
		return
	}
	v.rendered[row] = st.key()
}

func (v *chatView) send(text string) {
	if _, err := v.api.Send(tgbotapi.NewMessage(v.chatID, text)); err != nil {
		v.log.Error("send message", "chat_id", v.chatID, "error", err)
	}
}
