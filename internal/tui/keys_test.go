package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestKeyMapVimMode(t *testing.T) {
	k := NewKeyMap("")
	assert.Equal(t, "vim", k.Mode())

	assert.True(t, k.IsUp(keyMsg("k")))
	assert.True(t, k.IsDown(keyMsg("j")))
	assert.True(t, k.IsHome(keyMsg("g")))
	assert.True(t, k.IsEnd(keyMsg("G")))
}

func TestKeyMapArrowMode(t *testing.T) {
	k := NewKeyMap("arrows")

	assert.False(t, k.IsUp(keyMsg("k")))
	assert.True(t, k.IsUp(tea.KeyMsg{Type: tea.KeyUp}))
	assert.True(t, k.IsDown(tea.KeyMsg{Type: tea.KeyDown}))
}

func TestKeyMapDownloadActions(t *testing.T) {
	k := NewKeyMap("vim")

	assert.True(t, k.IsPause(keyMsg("p")))
	assert.True(t, k.IsResume(keyMsg("r")))
	assert.True(t, k.IsRetry(keyMsg("R")))
	assert.True(t, k.IsDelete(keyMsg("d")))
	assert.True(t, k.IsQuit(keyMsg("q")))
	assert.True(t, k.IsQuit(tea.KeyMsg{Type: tea.KeyCtrlC}))
	assert.True(t, k.IsHelp(keyMsg("?")))
}

func TestAppSwitchesViews(t *testing.T) {
	app := NewApp(nil)
	assert.Equal(t, ViewDownloads, app.CurrentView())

	model, _ := app.Update(keyMsg("2"))
	app = model.(App)
	assert.Equal(t, ViewInstances, app.CurrentView())

	model, _ = app.Update(tea.KeyMsg{Type: tea.KeyTab})
	app = model.(App)
	assert.Equal(t, ViewDownloads, app.CurrentView())
}

func TestAppQuits(t *testing.T) {
	app := NewApp(nil)

	_, cmd := app.Update(keyMsg("q"))
	assert.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
