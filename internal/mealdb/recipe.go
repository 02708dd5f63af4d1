package mealdb

import (
	"fmt"
	"strings"
)

// MaxIngredients is the number of ingredient slots in an upstream meal.
const MaxIngredients = 20

// Ingredient is one (name, measure) pair. Name is never blank.
type Ingredient struct {
	Name    string `json:"name"`
	Measure string `json:"measure,omitempty"`
}

// String renders "name — measure", or just the name when no measure is given.
func (i Ingredient) String() string {
	if i.Measure == "" {
		return i.Name
	}
	return i.Name + " — " + i.Measure
}

// Recipe is a fixed-shape meal built once from the upstream payload.
type Recipe struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Thumbnail    string       `json:"thumbnail,omitempty"`
	Category     string       `json:"category,omitempty"`
	Area         string       `json:"area,omitempty"`
	Instructions string       `json:"instructions,omitempty"`
	Ingredients  []Ingredient `json:"ingredients,omitempty"`
	YouTube      string       `json:"youtube,omitempty"`
	Source       string       `json:"source,omitempty"`
	Tags         []string     `json:"tags,omitempty"`
}

// Tag is the short label shown on a card: category, else area.
func (r Recipe) Tag() string {
	if r.Category != "" {
		return r.Category
	}
	return r.Area
}

// rawMeal is one element of the upstream "meals" array. Values are strings
// or null.
type rawMeal map[string]any

func (m rawMeal) str(key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	default:
		return ""
	}
}

// toRecipe extracts the fixed fields and the numbered ingredient slots.
func (m rawMeal) toRecipe() Recipe {
	r := Recipe{
		ID:           m.str("idMeal"),
		Name:         m.str("strMeal"),
		Thumbnail:    m.str("strMealThumb"),
		Category:     m.str("strCategory"),
		Area:         m.str("strArea"),
		Instructions: m.str("strInstructions"),
		YouTube:      m.str("strYoutube"),
		Source:       m.str("strSource"),
	}

	for i := 1; i <= MaxIngredients; i++ {
		name := m.str(fmt.Sprintf("strIngredient%d", i))
		if name == "" {
			continue
		}
		r.Ingredients = append(r.Ingredients, Ingredient{
			Name:    name,
			Measure: m.str(fmt.Sprintf("strMeasure%d", i)),
		})
	}

	if tags := m.str("strTags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				r.Tags = append(r.Tags, tag)
			}
		}
	}
	return r
}
