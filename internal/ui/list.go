package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/twx/internal/models"
)

var (
	_ list.Item = statusItem{}
	_ list.Item = draftItem{}
)

// statusItem wraps [models.Status] to implement [list.Item].
type statusItem struct {
	status   models.Status
	inFlight bool
}

func (i statusItem) FilterValue() string { return i.status.Text }
func (i statusItem) Title() string {
	var marker string
	switch {
	case i.inFlight:
		marker = styles.warn.Render("… ")
	case i.status.IsFavorite:
		marker = styles.ok.Render("★ ")
	default:
		marker = "  "
	}

	text := i.status.Text
	if text == "" {
		text = "status " + i.status.ID
	}
	return marker + firstLine(text)
}
func (i statusItem) Description() string {
	desc := fmt.Sprintf("%s • %d replies • %d reposts • %d favorites",
		i.status.UserKey, i.status.ReplyCount, i.status.RepostCount, i.status.FavoriteCount)
	if i.status.RepostOfID != "" {
		desc = fmt.Sprintf("%s • repost of %s", desc, i.status.RepostOfID)
	}
	return desc
}

// draftItem wraps [models.Draft] to implement [list.Item].
type draftItem struct {
	draft    *models.Draft
	statusID string
	text     string
}

func newDraftItem(d *models.Draft) draftItem {
	item := draftItem{draft: d}
	if extras, err := d.StatusExtras(); err == nil {
		item.statusID = extras.Status.ID
		item.text = extras.Status.Text
	}
	return item
}

func (i draftItem) FilterValue() string { return i.statusID }
func (i draftItem) Title() string {
	return fmt.Sprintf("%s status %s", i.draft.Action(), i.statusID)
}
func (i draftItem) Description() string {
	keys := make([]string, 0, len(i.draft.AccountKeys()))
	for _, k := range i.draft.AccountKeys() {
		keys = append(keys, k.String())
	}
	desc := fmt.Sprintf("%s • %s", strings.Join(keys, ", "), i.draft.CreatedAt().Local().Format("Jan 2 15:04"))
	if i.text != "" {
		desc = fmt.Sprintf("%s • %s", desc, firstLine(i.text))
	}
	return desc
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
