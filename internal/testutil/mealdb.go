package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"
)

// SampleMeals is the catalogue served by FakeMealDB. Ingredient slots
// include blank, whitespace-only and null values, as the real API does.
func SampleMeals() []map[string]any {
	return []map[string]any{
		{
			"idMeal": "52771", "strMeal": "Spicy Arrabiata Penne", "strCategory": "Vegetarian", "strArea": "Italian",
			"strMealThumb":    "https://www.themealdb.com/images/media/meals/ustsqw1468250014.jpg",
			"strInstructions": "Bring a large pot of water to a boil.\nAdd the pasta.",
			"strTags":         "Pasta,Curry", "strYoutube": "https://www.youtube.com/watch?v=1IszT_guI08",
			"strIngredient1": "penne rigate", "strMeasure1": "1 pound",
			"strIngredient2": "olive oil", "strMeasure2": "1/4 cup",
			"strIngredient3": "garlic", "strMeasure3": "3 cloves",
			"strIngredient4": " ", "strMeasure4": " ",
			"strIngredient5": "", "strMeasure5": "",
			"strIngredient6": nil, "strMeasure6": nil,
		},
		{
			"idMeal": "52772", "strMeal": "Teriyaki Chicken Casserole", "strCategory": "Chicken", "strArea": "Japanese",
			"strMealThumb":    "https://www.themealdb.com/images/media/meals/wvpsxx1468256321.jpg",
			"strInstructions": "Preheat oven to 350F.",
			"strTags":         "Meat,Casserole", "strYoutube": "https://www.youtube.com/watch?v=4aZr5hZXP_s",
			"strIngredient1": "soy sauce", "strMeasure1": "3/4 cup",
			"strIngredient2": "water", "strMeasure2": "",
			"strIngredient3": "  brown sugar ", "strMeasure3": " 1/2 cup ",
		},
		{
			"idMeal": "52959", "strMeal": "Baked salmon with fennel & tomatoes", "strCategory": "Seafood", "strArea": "British",
			"strMealThumb":    "https://www.themealdb.com/images/media/meals/1548772327.jpg",
			"strInstructions": "Heat oven to 180C/fan 160C/gas 4.",
			"strIngredient1":  "Fennel", "strMeasure1": "2 medium",
			"strIngredient2": "Salmon", "strMeasure2": "2 fillets",
		},
		{
			"idMeal": "52802", "strMeal": "Fish pie", "strCategory": "Seafood", "strArea": "British",
			"strMealThumb":    "https://www.themealdb.com/images/media/meals/ysxwuq1487323065.jpg",
			"strInstructions": "Put the potatoes in a large pan of cold salted water.",
			"strIngredient1":  "Floury Potatoes", "strMeasure1": "900g",
		},
		{
			"idMeal": "52768", "strMeal": "Apple Frangipan Tart", "strCategory": "Dessert", "strArea": "British",
			"strMealThumb":    "https://www.themealdb.com/images/media/meals/wxywrq1468235067.jpg",
			"strInstructions": "Preheat the oven to 200C/180C Fan/Gas 6.",
			"strIngredient1":  "digestive biscuits", "strMeasure1": "175g/6oz",
		},
	}
}

// FakeMealDB is an httptest server speaking TheMealDB's JSON API.
type FakeMealDB struct {
	Server *httptest.Server

	mu           sync.Mutex
	meals        []map[string]any
	calls        map[string]int
	failing      map[string]bool
	randomFails  int
	randomCursor int
}

// NewFakeMealDB starts a fake API with SampleMeals and closes it on cleanup.
func NewFakeMealDB(t testing.TB) *FakeMealDB {
	t.Helper()
	f := &FakeMealDB{
		meals:   SampleMeals(),
		calls:   make(map[string]int),
		failing: make(map[string]bool),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

// BaseURL is the API root to configure clients with (key segment excluded).
func (f *FakeMealDB) BaseURL() string {
	return f.Server.URL + "/api/json/v1/"
}

// Fail makes every request to op ("search", "lookup", ...) answer 500.
func (f *FakeMealDB) Fail(op string, fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing[op] = fail
}

// FailNextRandom makes the next n random.php requests answer 500.
func (f *FakeMealDB) FailNextRandom(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.randomFails = n
}

// Calls returns how many requests op received.
func (f *FakeMealDB) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// TotalCalls returns the number of requests received.
func (f *FakeMealDB) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.calls {
		total += n
	}
	return total
}

func (f *FakeMealDB) serve(w http.ResponseWriter, r *http.Request) {
	op := strings.TrimSuffix(path.Base(r.URL.Path), ".php")
	q := r.URL.Query()

	f.mu.Lock()
	f.calls[op]++
	fail := f.failing[op]
	if op == "random" && f.randomFails > 0 {
		f.randomFails--
		fail = true
	}
	f.mu.Unlock()

	if fail {
		http.Error(w, "upstream failure", http.StatusInternalServerError)
		return
	}

	var meals []map[string]any
	switch op {
	case "search":
		if s := q.Get("s"); s != "" {
			meals = f.match(func(m map[string]any) bool {
				return strings.Contains(strings.ToLower(str(m, "strMeal")), strings.ToLower(s))
			}, false)
		} else if l := q.Get("f"); l != "" {
			meals = f.match(func(m map[string]any) bool {
				return strings.HasPrefix(strings.ToLower(str(m, "strMeal")), strings.ToLower(l))
			}, false)
		}
	case "filter":
		if c := q.Get("c"); c != "" {
			meals = f.match(func(m map[string]any) bool { return str(m, "strCategory") == c }, true)
		} else if a := q.Get("a"); a != "" {
			meals = f.match(func(m map[string]any) bool { return str(m, "strArea") == a }, true)
		}
	case "lookup":
		id := q.Get("i")
		meals = f.match(func(m map[string]any) bool { return str(m, "idMeal") == id }, false)
	case "random":
		f.mu.Lock()
		meals = []map[string]any{f.meals[f.randomCursor%len(f.meals)]}
		f.randomCursor++
		f.mu.Unlock()
	case "list":
		meals = f.labels(q)
	default:
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	resp := map[string]any{"meals": nil}
	if len(meals) > 0 {
		resp["meals"] = meals
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// match returns the meals satisfying keep; brief mimics filter.php, which
// only returns id, name and thumbnail.
func (f *FakeMealDB) match(keep func(map[string]any) bool, brief bool) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []map[string]any
	for _, m := range f.meals {
		if !keep(m) {
			continue
		}
		if brief {
			out = append(out, map[string]any{
				"idMeal":       m["idMeal"],
				"strMeal":      m["strMeal"],
				"strMealThumb": m["strMealThumb"],
			})
			continue
		}
		out = append(out, m)
	}
	return out
}

func (f *FakeMealDB) labels(q map[string][]string) []map[string]any {
	field, key := "", ""
	if _, ok := q["c"]; ok {
		field, key = "strCategory", "strCategory"
	} else if _, ok := q["a"]; ok {
		field, key = "strArea", "strArea"
	} else {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var out []map[string]any
	for _, m := range f.meals {
		out = append(out, map[string]any{key: str(m, field)})
	}
	return out
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
