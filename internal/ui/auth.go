package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskdeck/internal/model"
	"taskdeck/internal/session"
)

type authForm struct {
	labels []string
	fields []textinput.Model
	index  int
}

func newAuthForm(labels ...string) authForm {
	f := authForm{labels: labels}
	for _, label := range labels {
		ti := textinput.New()
		ti.Placeholder = label
		ti.CharLimit = 128
		ti.Width = 32
		if strings.Contains(label, "password") {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
		}
		f.fields = append(f.fields, ti)
	}
	f.focus(0)
	return f
}

func newLoginForm() authForm {
	return newAuthForm("username", "password")
}

func newRegisterForm() authForm {
	return newAuthForm("username", "password", "confirm password", "role (user/manager/admin)")
}

func (f *authForm) focus(i int) {
	f.index = wrapIndex(i, len(f.fields))
	for j := range f.fields {
		if j == f.index {
			f.fields[j].Focus()
		} else {
			f.fields[j].Blur()
		}
	}
}

func (f authForm) value(i int) string {
	if i >= len(f.fields) {
		return ""
	}
	return f.fields[i].Value()
}

func (m Model) updateAuthMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case m.cfg.Keys.Register:
		if m.mode == modeLogin {
			m.mode = modeRegister
			m.form = newRegisterForm()
			m.status = fmt.Sprintf("Create an account, or press %s to go back to login.", m.cfg.Keys.Register)
		} else {
			m.mode = modeLogin
			m.form = newLoginForm()
			m.status = fmt.Sprintf("Log in, or press %s to register.", m.cfg.Keys.Register)
		}
		return m, nil
	case "tab", "down":
		m.form.focus(m.form.index + 1)
		return m, nil
	case "shift+tab", "up":
		m.form.focus(m.form.index - 1)
		return m, nil
	case m.cfg.Keys.Confirm:
		if m.busy > 0 {
			return m, nil
		}
		if m.form.index < len(m.form.fields)-1 {
			m.form.focus(m.form.index + 1)
			return m, nil
		}
		m.busy++
		if m.mode == modeRegister {
			m.status = "Registering…"
			return m, m.registerCmd(session.RegisterRequest{
				Username:        m.form.value(0),
				Password:        m.form.value(1),
				ConfirmPassword: m.form.value(2),
				Role:            model.Role(strings.ToLower(strings.TrimSpace(m.form.value(3)))),
			})
		}
		m.status = "Logging in…"
		return m, m.loginCmd(m.form.value(0), m.form.value(1))
	case m.cfg.Keys.Cancel:
		if m.mode == modeRegister {
			m.mode = modeLogin
			m.form = newLoginForm()
			m.status = ""
			return m, nil
		}
		return m, tea.Quit
	default:
		var cmd tea.Cmd
		m.form.fields[m.form.index], cmd = m.form.fields[m.form.index].Update(msg)
		return m, cmd
	}
}
