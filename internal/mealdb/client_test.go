package mealdb_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"recipefinder/internal/cache"
	"recipefinder/internal/mealdb"
	"recipefinder/internal/ratelimit"
	"recipefinder/internal/testutil"
	"recipefinder/internal/utils"
)

func newClient(t *testing.T) (*mealdb.Client, *testutil.FakeMealDB) {
	t.Helper()
	fake := testutil.NewFakeMealDB(t)
	c := cache.New(ratelimit.NewClient(ratelimit.Config{Timeout: 2 * time.Second}), time.Minute)
	return mealdb.NewClient(c, mealdb.WithBaseURL(fake.BaseURL())), fake
}

func TestEndpoint(t *testing.T) {
	c := mealdb.NewClient(nil, mealdb.WithBaseURL("https://example.test/api/json/v1"), mealdb.WithAPIKey("abc"))

	assert.Equal(t, "https://example.test/api/json/v1/abc/random.php", c.Endpoint("random", nil))
	assert.Equal(t, "https://example.test/api/json/v1/abc/search.php?s=fish+pie",
		c.Endpoint("search", map[string][]string{"s": {"fish pie"}}))
}

func TestDefaultEndpointUsesPublicKey(t *testing.T) {
	c := mealdb.NewClient(nil)
	assert.Equal(t, "https://www.themealdb.com/api/json/v1/1/list.php?c=list",
		c.Endpoint("list", map[string][]string{"c": {"list"}}))
}

func TestSearch(t *testing.T) {
	c, _ := newClient(t)

	got, err := c.Search(context.Background(), "chicken")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "52772", got[0].ID)
	assert.Equal(t, "Teriyaki Chicken Casserole", got[0].Name)
	assert.Equal(t, []string{"Meat", "Casserole"}, got[0].Tags)
}

func TestSearchNoMatchIsEmptyNotError(t *testing.T) {
	c, _ := newClient(t)

	got, err := c.Search(context.Background(), "zzzz")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchEmptyTermMakesNoRequest(t *testing.T) {
	c, fake := newClient(t)

	_, err := c.Search(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, "Type something to search", utils.UserMessage(err, "x"))
	assert.Equal(t, 0, fake.TotalCalls())
}

func TestSearchIsCached(t *testing.T) {
	c, fake := newClient(t)
	ctx := context.Background()

	_, err := c.Search(ctx, "fish")
	require.NoError(t, err)
	_, err = c.Search(ctx, "fish")
	require.NoError(t, err)

	assert.Equal(t, 1, fake.Calls("search"))
}

func TestFeaturedSearchesByLetterA(t *testing.T) {
	c, _ := newClient(t)

	got, err := c.Featured(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Apple Frangipan Tart", got[0].Name)
}

func TestSearchByLetterRejectsWords(t *testing.T) {
	c, fake := newClient(t)

	_, err := c.SearchByLetter(context.Background(), "ab")
	assert.Error(t, err)
	assert.Equal(t, 0, fake.TotalCalls())
}

func TestFilterByCategorySeafood(t *testing.T) {
	c, _ := newClient(t)

	got, err := c.FilterByCategory(context.Background(), "Seafood")
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, r := range got {
		assert.Equal(t, "Seafood", r.Category)
	}
}

func TestFilterByCategoryIsCaseSensitive(t *testing.T) {
	c, _ := newClient(t)

	got, err := c.FilterByCategory(context.Background(), "seafood")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFilterByArea(t *testing.T) {
	c, _ := newClient(t)

	got, err := c.FilterByArea(context.Background(), "British")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, r := range got {
		assert.Equal(t, "British", r.Area)
	}
}

func TestLookupExtractsIngredients(t *testing.T) {
	c, _ := newClient(t)

	r, err := c.Lookup(context.Background(), "52771")
	require.NoError(t, err)

	assert.Equal(t, "Spicy Arrabiata Penne", r.Name)
	assert.Equal(t, "Vegetarian", r.Category)
	assert.Equal(t, "Italian", r.Area)
	assert.Equal(t, "https://www.youtube.com/watch?v=1IszT_guI08", r.YouTube)
	assert.Equal(t, []mealdb.Ingredient{
		{Name: "penne rigate", Measure: "1 pound"},
		{Name: "olive oil", Measure: "1/4 cup"},
		{Name: "garlic", Measure: "3 cloves"},
	}, r.Ingredients)
}

func TestLookupIngredientsNeverBlank(t *testing.T) {
	c, _ := newClient(t)

	for _, m := range testutil.SampleMeals() {
		id := m["idMeal"].(string)
		r, err := c.Lookup(context.Background(), id)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(r.Ingredients), mealdb.MaxIngredients)
		for _, ing := range r.Ingredients {
			assert.NotEmpty(t, strings.TrimSpace(ing.Name), "recipe %s has a blank ingredient", id)
		}
	}
}

func TestLookupTrimsValues(t *testing.T) {
	c, _ := newClient(t)

	r, err := c.Lookup(context.Background(), "52772")
	require.NoError(t, err)
	assert.Equal(t, mealdb.Ingredient{Name: "brown sugar", Measure: "1/2 cup"}, r.Ingredients[2])
	assert.Equal(t, "water", r.Ingredients[1].String())
	assert.Equal(t, "soy sauce — 3/4 cup", r.Ingredients[0].String())
}

func TestLookupNotFound(t *testing.T) {
	c, _ := newClient(t)

	_, err := c.Lookup(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, utils.IsNotFound(err))
}

func TestLookupNetworkFailure(t *testing.T) {
	c, fake := newClient(t)
	fake.Fail("lookup", true)

	_, err := c.Lookup(context.Background(), "52771")
	require.Error(t, err)
	assert.True(t, utils.IsNetworkError(err))
	assert.Equal(t, 1, fake.Calls("lookup"), "failures are not retried")
}

func TestLookupAllIsSequentialAndSkipsMissing(t *testing.T) {
	c, fake := newClient(t)

	got, err := c.LookupAll(context.Background(), []string{"52802", "404", "52771"})

	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)
	require.Len(t, got, 2)
	assert.Equal(t, "52802", got[0].ID)
	assert.Equal(t, "52771", got[1].ID)
	assert.Equal(t, 3, fake.Calls("lookup"))
}

func TestRandomBypassesCache(t *testing.T) {
	c, fake := newClient(t)
	ctx := context.Background()

	first, err := c.Random(ctx)
	require.NoError(t, err)
	second, err := c.Random(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, fake.Calls("random"))
	assert.NotEqual(t, first.ID, second.ID)
}

func TestRandomBatchPartialSuccess(t *testing.T) {
	c, fake := newClient(t)
	fake.FailNextRandom(1)

	got, err := c.RandomBatch(context.Background(), 4)

	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)
	assert.Len(t, got, 3)
	assert.Equal(t, 4, fake.Calls("random"))
}

func TestRandomBatchAllFail(t *testing.T) {
	c, fake := newClient(t)
	fake.Fail("random", true)

	got, err := c.RandomBatch(context.Background(), 4)

	assert.Empty(t, got)
	assert.Len(t, multierr.Errors(err), 4)
}

func TestRandomBatchZero(t *testing.T) {
	c, fake := newClient(t)

	got, err := c.RandomBatch(context.Background(), 0)
	assert.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, fake.TotalCalls())
}

func TestListCategoriesDistinct(t *testing.T) {
	c, _ := newClient(t)

	got, err := c.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Vegetarian", "Chicken", "Seafood", "Dessert"}, got)
}

func TestListAreasDistinct(t *testing.T) {
	c, _ := newClient(t)

	got, err := c.ListAreas(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Italian", "Japanese", "British"}, got)
}

func TestRecipeTag(t *testing.T) {
	assert.Equal(t, "Seafood", mealdb.Recipe{Category: "Seafood", Area: "British"}.Tag())
	assert.Equal(t, "British", mealdb.Recipe{Area: "British"}.Tag())
	assert.Equal(t, "", mealdb.Recipe{}.Tag())
}
