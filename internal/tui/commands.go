package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"recipefinder/internal/mealdb"
)

// Message types
type labelsLoadedMsg struct {
	kind   pickerKind
	labels []string
	err    error
}

type gridLoadedMsg struct {
	token   uint64
	heading string
	failMsg string
	initial bool
	recipes []mealdb.Recipe
	err     error
}

type detailLoadedMsg struct {
	token  uint64
	recipe *mealdb.Recipe
	err    error
}

type favoritesLoadedMsg struct {
	token   uint64
	recipes []mealdb.Recipe
	err     error
}

type debounceMsg struct {
	seq   int
	query string
}

type statusExpiredMsg struct {
	id string
}

type refreshTickMsg struct{}

func (k pickerKind) String() string {
	if k == pickArea {
		return "area"
	}
	return "category"
}

func (m *Model) loadLabels(kind pickerKind) tea.Cmd {
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		var (
			labels []string
			err    error
		)
		if kind == pickArea {
			labels, err = svc.ListAreas(ctx)
		} else {
			labels, err = svc.ListCategories(ctx)
		}
		return labelsLoadedMsg{kind: kind, labels: labels, err: err}
	}
}

// loadGrid issues a grid request under a fresh token; older responses that
// arrive later are dropped.
func (m *Model) loadGrid(heading, failMsg string, fetch func(context.Context) ([]mealdb.Recipe, error), initial bool) tea.Cmd {
	token := m.nextToken(regionGrid)
	ctx := m.ctx
	return func() tea.Msg {
		recipes, err := fetch(ctx)
		return gridLoadedMsg{
			token:   token,
			heading: heading,
			failMsg: failMsg,
			initial: initial,
			recipes: recipes,
			err:     err,
		}
	}
}

func (m *Model) loadDetail(id string) tea.Cmd {
	token := m.nextToken(regionDetail)
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		r, err := svc.Lookup(ctx, id)
		if err == nil && r == nil {
			err = fmt.Errorf("lookup %s returned nothing", id)
		}
		return detailLoadedMsg{token: token, recipe: r, err: err}
	}
}

// loadFavorites looks favorites up one at a time, in insertion order.
func (m *Model) loadFavorites(ids []string) tea.Cmd {
	token := m.nextToken(regionFavorites)
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		recipes, err := svc.LookupAll(ctx, ids)
		return favoritesLoadedMsg{token: token, recipes: recipes, err: err}
	}
}
