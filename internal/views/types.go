// Package views turns recipes into display structures and text. The same
// cards and details feed the TUI and the one-shot commands.
package views

import (
	"recipefinder/internal/mealdb"
)

// Favorite button labels.
const (
	CardLikedLabel   = "♥ Liked"
	CardSaveLabel    = "♡ Save"
	DetailRemoveFav  = "Remove Favorite"
	DetailSaveFav    = "Save to Favorites"
	NoRecipesMessage = "No recipes found"
	NoFavorites      = "No favorite recipes yet."
)

// Card is one entry of a recipe grid.
type Card struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Tag       string `json:"tag,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Favorite  bool   `json:"favorite"`
	FavLabel  string `json:"-"`
}

// NewCard builds the card for r.
func NewCard(r mealdb.Recipe, favorite bool) Card {
	c := Card{
		ID:        r.ID,
		Title:     r.Name,
		Tag:       r.Tag(),
		Thumbnail: r.Thumbnail,
	}
	c.SetFavorite(favorite)
	return c
}

// SetFavorite updates the membership flag and its label together.
func (c *Card) SetFavorite(favorite bool) {
	c.Favorite = favorite
	if favorite {
		c.FavLabel = CardLikedLabel
	} else {
		c.FavLabel = CardSaveLabel
	}
}

// BuildCards maps recipes to cards in order. isFav may be nil.
func BuildCards(recipes []mealdb.Recipe, isFav func(id string) bool) []Card {
	cards := make([]Card, 0, len(recipes))
	for _, r := range recipes {
		cards = append(cards, NewCard(r, isFav != nil && isFav(r.ID)))
	}
	return cards
}

// Detail is the expanded view of a single recipe.
type Detail struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Category     string   `json:"category,omitempty"`
	Area         string   `json:"area,omitempty"`
	Instructions string   `json:"instructions,omitempty"`
	Ingredients  []string `json:"ingredients"`
	YouTube      string   `json:"youtube,omitempty"`
	Source       string   `json:"source,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Favorite     bool     `json:"favorite"`
	FavLabel     string   `json:"-"`
}

// BuildDetail builds the detail view for r.
func BuildDetail(r mealdb.Recipe, favorite bool) Detail {
	d := Detail{
		ID:           r.ID,
		Title:        r.Name,
		Category:     r.Category,
		Area:         r.Area,
		Instructions: r.Instructions,
		Ingredients:  make([]string, 0, len(r.Ingredients)),
		YouTube:      r.YouTube,
		Source:       r.Source,
		Tags:         r.Tags,
	}
	for _, ing := range r.Ingredients {
		d.Ingredients = append(d.Ingredients, ing.String())
	}
	d.SetFavorite(favorite)
	return d
}

// SetFavorite updates the membership flag and the button label.
func (d *Detail) SetFavorite(favorite bool) {
	d.Favorite = favorite
	if favorite {
		d.FavLabel = DetailRemoveFav
	} else {
		d.FavLabel = DetailSaveFav
	}
}
