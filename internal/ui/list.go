package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/list"
)

var _ list.Item = statusItem{}

// statusItem is one distinct status seen by the watcher.
type statusItem struct {
	text string
	seen time.Time
}

func (i statusItem) FilterValue() string { return i.text }
func (i statusItem) Title() string       { return i.text }
func (i statusItem) Description() string { return "seen " + i.seen.Format(time.Kitchen) }
