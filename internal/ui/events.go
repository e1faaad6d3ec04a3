package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/tally/internal/productsearch"
)

// Events carries change notifications from list controllers and the product
// searcher into the Bubble Tea loop. Callbacks may fire on any goroutine.
type Events struct {
	ch   chan tea.Msg
	done chan struct{}
	once sync.Once
}

type listChangedMsg string

type searchResultsMsg productsearch.Results

// NewEvents returns an open event bridge.
func NewEvents() *Events {
	return &Events{ch: make(chan tea.Msg, 64), done: make(chan struct{})}
}

// ListChanged reports that a list screen's state changed.
func (e *Events) ListChanged(screen string) { e.send(listChangedMsg(screen)) }

// SearchChanged reports new product suggestions.
func (e *Events) SearchChanged(r productsearch.Results) { e.send(searchResultsMsg(r)) }

// Close stops delivery. Pending and later sends are dropped.
func (e *Events) Close() {
	e.once.Do(func() { close(e.done) })
}

func (e *Events) send(msg tea.Msg) {
	select {
	case e.ch <- msg:
	case <-e.done:
	}
}

// next waits for one event. The model re-arms it after every delivery.
func (e *Events) next() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-e.ch:
			return msg
		case <-e.done:
			return nil
		}
	}
}
