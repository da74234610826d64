package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"photofeed/internal/auth"
	"photofeed/internal/presenter"
	"photofeed/internal/profile"
)

func (b *Bot) handleStart(ctx context.Context, chatID int64) {
	text := `Welcome to Photo Feed Bot!

Browse the Unsplash photo feed right here in the chat.

Quick start:
1. /feed — show the latest photos
2. /login — sign in to like photos and see your profile

Use /help for the full command reference.`

	if ok, err := b.auth.HasToken(ctx, chatID); err == nil && ok {
		text += "\n\nYou are signed in."
	}
	b.reply(chatID, text)
}

func (b *Bot) handleHelp(chatID int64) {
	b.reply(chatID, `Feed:
/feed — start the feed from the newest photos
/more — load the next page
Tap ❤️ under a photo to like or unlike it.

Account:
/login — get the Unsplash sign-in link
/code <code or URL> — finish signing in
/profile — show your profile
/logout — sign out`)
}

func (b *Bot) handleLogin(chatID int64) {
	state := uuid.NewString()
	b.states[chatID] = state

	b.reply(chatID, fmt.Sprintf(`Open this link and authorize the app:
%s

Then send the code shown by Unsplash with /code <code>, or paste the address of that page.`, b.auth.AuthURL(state)))
}

func (b *Bot) handleCode(ctx context.Context, chatID int64, args string) {
	if args == "" {
		b.reply(chatID, "Usage: /code <code or URL>")
		return
	}

	code, err := auth.ParseCode(args, b.states[chatID])
	if errors.Is(err, auth.ErrStateMismatch) {
		b.reply(chatID, "This sign-in link has expired. Use /login to get a new one.")
		return
	}
	if err != nil {
		b.reply(chatID, "Could not find an authorization code. Send /code <code>.")
		return
	}

	if _, err := b.auth.Exchange(ctx, chatID, code); err != nil {
		b.log.Error("exchange code", "chat_id", chatID, "error", err)
		b.reply(chatID, "Sign-in failed. Use /login to try again.")
		return
	}
	delete(b.states, chatID)

	// Liked flags depend on who asks; the open feed is stale.
	b.dropSession(chatID)

	b.log.Info("signed in", "chat_id", chatID)
	b.reply(chatID, "Signed in! Use /feed to browse photos or /profile to see your profile.")
}

func (b *Bot) handleLogout(ctx context.Context, chatID int64) {
	ok, err := b.auth.HasToken(ctx, chatID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if !ok {
		b.reply(chatID, "You are not signed in.")
		return
	}
	p, _ := b.profilePresenter(ctx, chatID, staticProfile{}, "")
	p.TapLogout()
}

func (b *Bot) logout(ctx context.Context, chatID int64) {
	if err := b.auth.Logout(ctx, chatID); err != nil {
		b.log.Error("logout", "chat_id", chatID, "error", err)
		b.reply(chatID, "Could not sign out. Try again later.")
		return
	}
	delete(b.states, chatID)
	b.dropSession(chatID)

	b.log.Info("signed out", "chat_id", chatID)
	b.reply(chatID, "Signed out. Use /login to sign in again.")
}

func (b *Bot) handleFeed(chatID int64) {
	if s, ok := b.sessions[chatID]; ok {
		s.touch(b.now())
		s.restart()
		return
	}
	b.session(chatID)
}

func (b *Bot) handleMore(chatID int64) {
	s, ok := b.sessions[chatID]
	if !ok {
		b.reply(chatID, "No feed yet. Use /feed to start.")
		return
	}
	s.touch(b.now())
	s.list.WillDisplay(s.list.NumberOfRows() - 1)
}

func (b *Bot) handleProfile(ctx context.Context, chatID int64) {
	ok, err := b.auth.HasToken(ctx, chatID)
	if err != nil {
		b.reply(chatID, fmt.Sprintf("Error: %v", err))
		return
	}
	if !ok {
		b.reply(chatID, "Sign in with /login to see your profile.")
		return
	}

	api := b.newClient(chatID)
	prof, err := b.profiles.Fetch(ctx, chatID, api)
	if err != nil {
		b.log.Warn("fetch profile", "chat_id", chatID, "error", err)
		if prof == nil {
			b.reply(chatID, "Could not load your profile. Try again later.")
			return
		}
	}

	avatar, err := profile.AvatarURL(ctx, api, prof.Username)
	if err != nil {
		b.log.Warn("fetch avatar", "chat_id", chatID, "error", err)
	}

	p, view := b.profilePresenter(ctx, chatID, staticProfile{p: prof}, avatar)
	p.Show()
	view.flush()
}

func (b *Bot) profilePresenter(ctx context.Context, chatID int64, prof staticProfile, avatar string) (*presenter.Profile, *profileView) {
	view := &profileView{api: b.api, chatID: chatID, log: b.log}
	p := presenter.NewProfile(prof, staticAvatar(avatar), func() { b.logout(ctx, chatID) }, view)
	return p, view
}
