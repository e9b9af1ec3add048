package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/chili-mate/internal/session"
)

type loginForm struct {
	inputs []textinput.Model
	active int
	err    string
}

func newLoginForm() *loginForm {
	name := textinput.New()
	name.Placeholder = "Nama lengkap"
	name.Prompt = "Nama  › "
	name.CharLimit = 60

	email := textinput.New()
	email.Placeholder = "nama@email.com"
	email.Prompt = "Email › "
	email.CharLimit = 80

	form := &loginForm{inputs: []textinput.Model{name, email}}
	form.inputs[0].Focus()
	return form
}

func (f *loginForm) focusIndex(idx int) tea.Cmd {
	f.active = (idx + len(f.inputs)) % len(f.inputs)
	var cmd tea.Cmd
	for i := range f.inputs {
		if i == f.active {
			cmd = f.inputs[i].Focus()
			continue
		}
		f.inputs[i].Blur()
	}
	return cmd
}

func (f *loginForm) focus() tea.Cmd {
	return f.focusIndex(f.active)
}

func (f *loginForm) reset() {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
	}
	f.err = ""
	f.focusIndex(0)
}

func (f *loginForm) updateInputs(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.active], cmd = f.inputs[f.active].Update(msg)
	return cmd
}

func (f *loginForm) View() string {
	lines := []string{
		titleStyle.Render("Masuk untuk mulai berbelanja"),
		"",
	}
	for _, in := range f.inputs {
		lines = append(lines, in.View())
	}
	if f.err != "" {
		lines = append(lines, "", errorStyle.Render(f.err))
	}
	lines = append(lines, "", mutedStyle.Render("tab: pindah kolom · enter: login"))
	return strings.Join(lines, "\n")
}

func (a *App) updateLogin(msg tea.KeyMsg) tea.Cmd {
	f := a.login
	switch {
	case key.Matches(msg, a.keys.Next), msg.Type == tea.KeyDown:
		return f.focusIndex(f.active + 1)
	case key.Matches(msg, a.keys.Prev), msg.Type == tea.KeyUp:
		return f.focusIndex(f.active - 1)
	case key.Matches(msg, a.keys.Select):
		if f.active < len(f.inputs)-1 && strings.TrimSpace(f.inputs[f.active+1].Value()) == "" {
			return f.focusIndex(f.active + 1)
		}
		err := a.session.Login(f.inputs[0].Value(), f.inputs[1].Value())
		if errors.Is(err, session.ErrIncompleteProfile) {
			f.err = "Nama dan email wajib diisi"
			a.logWarn("Login rejected · incomplete profile")
			for i, in := range f.inputs {
				if strings.TrimSpace(in.Value()) == "" {
					return f.focusIndex(i)
				}
			}
			return nil
		}
		if err != nil {
			f.err = err.Error()
			a.logError("Login failed: %v", err)
			return nil
		}
		f.err = ""
		user := a.session.User()
		a.statusMsg = "Selamat datang, " + user.Name
		a.logInfo("Login · %s <%s>", user.Name, user.Email)
		return a.navigate(session.PageHome)
	}
	return f.updateInputs(msg)
}
