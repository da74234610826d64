package presenter

import (
	"net/url"

	"photofeed/internal/model"
)

const placeholder = "—"

// ProfileViewModel is what the profile screen renders.
type ProfileViewModel struct {
	Name  string
	Login string
	Bio   string
}

// ProfileView is the profile surface a Profile presenter drives.
// SetAvatar receives an empty string when there is no usable avatar.
type ProfileView interface {
	ShowProfile(vm ProfileViewModel)
	SetAvatar(url string)
	ShowLogoutConfirm()
}

// ProfileProvider returns the loaded profile, nil when none is loaded.
type ProfileProvider interface {
	Profile() *model.Profile
}

// AvatarProvider returns the avatar URL, empty when unknown.
type AvatarProvider interface {
	AvatarURL() string
}

// LogoutFunc signs the user out.
type LogoutFunc func()

// Profile presents the signed-in user's profile.
type Profile struct {
	profiles ProfileProvider
	avatars  AvatarProvider
	logout   LogoutFunc
	view     ProfileView
}

// NewProfile creates a Profile presenter.
func NewProfile(profiles ProfileProvider, avatars AvatarProvider, logout LogoutFunc, view ProfileView) *Profile {
	return &Profile{profiles: profiles, avatars: avatars, logout: logout, view: view}
}

// Show renders the profile and the avatar.
func (p *Profile) Show() {
	if prof := p.profiles.Profile(); prof != nil {
		p.view.ShowProfile(NewProfileViewModel(prof))
	}
	p.AvatarChanged()
}

// AvatarChanged re-reads the avatar URL and pushes it to the view.
func (p *Profile) AvatarChanged() {
	p.view.SetAvatar(validURL(p.avatars.AvatarURL()))
}

// TapLogout asks the user to confirm signing out.
func (p *Profile) TapLogout() {
	p.view.ShowLogoutConfirm()
}

// ConfirmLogout signs the user out.
func (p *Profile) ConfirmLogout() {
	if p.logout != nil {
		p.logout()
	}
}

// NewProfileViewModel formats prof for display.
func NewProfileViewModel(prof *model.Profile) ProfileViewModel {
	vm := ProfileViewModel{Name: prof.Name, Login: prof.LoginName, Bio: prof.Bio}
	if vm.Name == "" {
		vm.Name = placeholder
	}
	if vm.Login == "" {
		vm.Login = placeholder
	}
	return vm
}

func validURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.String()
}
