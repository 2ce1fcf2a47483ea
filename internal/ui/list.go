package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/shelf/internal/models"
)

var (
	_ list.Item = bookItem{}
	_ list.Item = collectionItem{}
)

// bookItem wraps a search result [models.Book] to implement [list.Item].
type bookItem struct {
	book models.Book
}

func (i bookItem) FilterValue() string { return i.book.Title }
func (i bookItem) Title() string       { return i.book.DisplayTitle() }
func (i bookItem) Description() string { return i.book.DisplayAuthors() }

// collectionItem wraps a [models.CollectionItem] to implement [list.Item].
type collectionItem struct {
	item models.CollectionItem
}

func (i collectionItem) FilterValue() string { return i.item.Book.Title }
func (i collectionItem) Title() string       { return i.item.Book.DisplayTitle() }
func (i collectionItem) Description() string {
	desc := i.item.Book.DisplayAuthors()
	if !i.item.Entry.CreatedAt.IsZero() {
		desc = fmt.Sprintf("%s • added %s", desc, i.item.Entry.CreatedAt.Local().Format("Jan 2, 2006"))
	}
	return desc
}

func newList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 80, 16)
	l.Title = title
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	l.KeyMap.PrevPage.SetKeys("pgup")
	l.KeyMap.NextPage.SetKeys("pgdown")
	return l
}

func bookItems(books []models.Book) []list.Item {
	items := make([]list.Item, len(books))
	for i, b := range books {
		items[i] = bookItem{book: b}
	}
	return items
}

func collectionItems(items []models.CollectionItem) []list.Item {
	out := make([]list.Item, len(items))
	for i, it := range items {
		out[i] = collectionItem{item: it}
	}
	return out
}
