package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/mealplan/internal/auth"
	"example.com/mealplan/internal/domain"
	"example.com/mealplan/internal/nutrition"
	"example.com/mealplan/internal/persistence/memory"
)

var testNow = time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)

func testFoods() []nutrition.FoodItem {
	return []nutrition.FoodItem{
		{Name: "Apple", Calories: 95, Protein: 0.5, Carbs: 25, Fat: 0.3, ServingSize: "1 medium", Category: "Fruits"},
		{Name: "Banana", Calories: 105, Protein: 1.3, Carbs: 27, Fat: 0.4, ServingSize: "1 medium", Category: "Fruits"},
		{Name: "Chicken Breast", Calories: 165, Protein: 31, Fat: 3.6, ServingSize: "100g", Category: "Proteins"},
		{Name: "Egg", Calories: 78, Protein: 6, Carbs: 0.6, Fat: 5, ServingSize: "1 large", Category: "Proteins"},
		{Name: "Salmon", Calories: 208, Protein: 20, Fat: 13, ServingSize: "100g", Category: "Proteins"},
		{Name: "Brown Rice", Calories: 216, Protein: 5, Carbs: 45, Fat: 1.8, ServingSize: "1 cup cooked", Category: "Grains"},
		{Name: "Broccoli", Calories: 55, Protein: 3.7, Carbs: 11, Fat: 0.6, ServingSize: "1 cup", Category: "Vegetables"},
		{Name: "Milk 2%", Calories: 122, Protein: 8, Carbs: 12, Fat: 5, ServingSize: "1 cup", Category: "Dairy"},
		{Name: "Avocado", Calories: 234, Protein: 2.9, Carbs: 12, Fat: 21, ServingSize: "1 medium", Category: "Fats"},
		{Name: "Oatmeal", Calories: 154, Protein: 5, Carbs: 27, Fat: 2.6, ServingSize: "1 cup cooked", Category: "Grains"},
	}
}

func newTestHandler(t *testing.T, store *memory.Store) http.Handler {
	t.Helper()
	service := domain.NewService(store, store, store, nil,
		domain.WithClock(func() time.Time { return testNow }),
	)
	mux := http.NewServeMux()
	NewHandler(service, nil).RegisterRoutes(mux)
	return mux
}

func withClaims(req *http.Request, scopes ...string) *http.Request {
	claims := &auth.Claims{
		Subject:   "tester",
		TenantID:  "tenant-1",
		Scopes:    map[string]struct{}{},
		ExpiresAt: time.Now().Add(time.Hour),
	}
	for _, s := range scopes {
		claims.Scopes[s] = struct{}{}
	}
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

func seedWorkout(t *testing.T, store *memory.Store) {
	t.Helper()
	require.NoError(t, store.SaveWorkout(context.Background(), "tenant-1", nutrition.WorkoutRecord{
		ID:          "w1",
		UserID:      "user-1",
		PerformedAt: testNow.Add(-24 * time.Hour),
		Exercises:   []nutrition.ExerciseRecord{{Name: "Squat", Sets: []nutrition.SetRecord{{Reps: 5, WeightKg: 100}}}},
	}))
}

func postPlan(t *testing.T, h http.Handler, body string, scopes ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/meal-plans", strings.NewReader(body))
	req = withClaims(req, scopes...)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	return body
}

const planBody = `{"user_id":"user-1","target":{"calories":2000,"protein":150,"carbs":200,"fat":65},"meals":3,"restrictions":"vegetarian","date":"2024-05-03","seed":42}`

func TestCreateMealPlanSuccess(t *testing.T) {
	store := memory.NewStore(testFoods()...)
	seedWorkout(t, store)
	h := newTestHandler(t, store)

	rr := postPlan(t, h, planBody, auth.ScopeMealPlansWrite)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var view MealPlanView
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&view))
	require.NotEmpty(t, view.PlanID)
	require.Equal(t, "42", view.Seed)
	require.Equal(t, "2024-05-03", view.Date)
	require.Equal(t, []string{"vegetarian"}, view.Restrictions)
	require.Len(t, view.Meals, 3)
	require.Equal(t, "Breakfast", view.Meals[0].Name)
	for _, meal := range view.Meals {
		for _, food := range meal.Foods {
			require.NotEqual(t, "Chicken Breast", food.Name)
			require.NotEqual(t, "Salmon", food.Name)
		}
	}

	require.Len(t, store.Plans(), 1)
	require.Len(t, store.Events(), 1)
}

func TestCreateMealPlanIsReproducibleWithSeed(t *testing.T) {
	store := memory.NewStore(testFoods()...)
	seedWorkout(t, store)
	h := newTestHandler(t, store)

	first := postPlan(t, h, planBody, auth.ScopeMealPlansWrite)
	second := postPlan(t, h, planBody, auth.ScopeMealPlansWrite)
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)

	var a, b MealPlanView
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	require.Equal(t, a.MealPlan, b.MealPlan)
	require.NotEqual(t, a.PlanID, b.PlanID)
}

func TestCreateMealPlanErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		foods  []nutrition.FoodItem
		body   string
		status int
		code   string
		detail string
	}{
		{
			name:   "missing user",
			foods:  testFoods(),
			body:   `{"target":{"calories":2000}}`,
			status: http.StatusBadRequest,
			code:   "validation_failed",
		},
		{
			name:   "bad date",
			foods:  testFoods(),
			body:   `{"user_id":"user-1","target":{"calories":2000},"date":"05/03/2024"}`,
			status: http.StatusBadRequest,
			code:   "validation_failed",
		},
		{
			name:   "malformed body",
			foods:  testFoods(),
			body:   `{"user_id":`,
			status: http.StatusBadRequest,
			code:   "invalid_request",
		},
		{
			name:   "empty catalog",
			body:   planBody,
			status: http.StatusUnprocessableEntity,
			code:   "no_foods_available",
		},
		{
			name:   "insufficient catalog",
			foods:  testFoods()[:3],
			body:   planBody,
			status: http.StatusUnprocessableEntity,
			code:   "insufficient_catalog",
			detail: "only 2 foods",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := memory.NewStore(tc.foods...)
			seedWorkout(t, store)
			rr := postPlan(t, newTestHandler(t, store), tc.body, auth.ScopeMealPlansWrite)
			require.Equal(t, tc.status, rr.Code, rr.Body.String())
			body := decodeError(t, rr)
			require.Equal(t, tc.code, body["type"])
			if tc.detail != "" {
				require.Contains(t, body["detail"], tc.detail)
			}
		})
	}
}

func TestCreateMealPlanWithoutWorkoutContext(t *testing.T) {
	h := newTestHandler(t, memory.NewStore(testFoods()...))

	rr := postPlan(t, h, planBody, auth.ScopeMealPlansWrite)
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Equal(t, "no_workout_data", decodeError(t, rr)["type"])
}

func TestCreateMealPlanRequiresScope(t *testing.T) {
	h := newTestHandler(t, memory.NewStore(testFoods()...))

	rr := postPlan(t, h, planBody, auth.ScopeFoodsRead)
	require.Equal(t, http.StatusForbidden, rr.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/meal-plans", bytes.NewBufferString(planBody))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGetMealPlan(t *testing.T) {
	store := memory.NewStore(testFoods()...)
	seedWorkout(t, store)
	h := newTestHandler(t, store)

	created := postPlan(t, h, planBody, auth.ScopeMealPlansWrite)
	require.Equal(t, http.StatusOK, created.Code)
	var view MealPlanView
	require.NoError(t, json.NewDecoder(created.Body).Decode(&view))

	req := withClaims(httptest.NewRequest(http.MethodGet, "/v1/meal-plans/"+view.PlanID, nil), auth.ScopeMealPlansRead)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var fetched MealPlanView
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&fetched))
	require.Equal(t, view.PlanID, fetched.PlanID)
	require.Equal(t, view.TotalNutrition, fetched.TotalNutrition)

	req = withClaims(httptest.NewRequest(http.MethodGet, "/v1/meal-plans/missing", nil), auth.ScopeMealPlansRead)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListFoodsPaginates(t *testing.T) {
	h := newTestHandler(t, memory.NewStore(testFoods()...))

	var names []string
	cursor := ""
	for page := 0; page < 10; page++ {
		target := "/v1/foods?limit=4"
		if cursor != "" {
			target += "&cursor=" + cursor
		}
		req := withClaims(httptest.NewRequest(http.MethodGet, target, nil), auth.ScopeFoodsRead)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		var resp ListFoodsResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		for _, item := range resp.Items {
			names = append(names, item.Name)
		}
		if resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}
	require.Len(t, names, len(testFoods()))
	require.Equal(t, "Apple", names[0])
}

func TestListFoodsQueryAndValidation(t *testing.T) {
	h := newTestHandler(t, memory.NewStore(testFoods()...))

	req := withClaims(httptest.NewRequest(http.MethodGet, "/v1/foods?query=rice", nil), auth.ScopeFoodsRead)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp ListFoodsResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp.Items, 1)
	require.Equal(t, "Brown Rice", resp.Items[0].Name)

	req = withClaims(httptest.NewRequest(http.MethodGet, "/v1/foods?limit=-1", nil), auth.ScopeFoodsRead)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	req = withClaims(httptest.NewRequest(http.MethodGet, "/v1/foods?cursor=***", nil), auth.ScopeFoodsRead)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(t, memory.NewStore())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}
