package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"prism/internal/models"
)

func TestHealth(t *testing.T) {
	app := setupApp(t)

	rec := app.request("GET", "/api/health", "", "")

	mustStatus(t, rec, http.StatusOK)
	if parseJSON(t, rec)["status"] != "ok" {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := setupApp(t)

	paths := []string{
		"/api/v1/user/profile",
		"/api/v1/accounts",
		"/api/v1/categories/tree",
		"/api/v1/transactions/summary",
		"/api/v1/budgets/current",
		"/api/v1/goals/near-target",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			rec := app.request("GET", path, "", "")
			mustStatus(t, rec, http.StatusUnauthorized)
			if code := errorCode(t, rec); code != "UNAUTHORIZED" {
				t.Errorf("expected UNAUTHORIZED, got %s", code)
			}
		})
	}
}

func TestAuthFlow(t *testing.T) {
	app := setupApp(t)
	access, refresh, _ := app.registerUser(t, "Flow@Test.com")

	t.Run("profile with access token", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/user/profile", "", access)
		mustStatus(t, rec, http.StatusOK)
		if email := field(t, parseJSON(t, rec), "user")["email"]; email != "flow@test.com" {
			t.Errorf("expected normalized email, got %v", email)
		}
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/user/profile", "", refresh)
		mustStatus(t, rec, http.StatusUnauthorized)
	})

	t.Run("duplicate registration conflicts", func(t *testing.T) {
		rec := app.request("POST", "/api/v1/auth/register",
			`{"email":"flow@test.com","password":"password123"}`, "")
		mustStatus(t, rec, http.StatusConflict)
	})

	t.Run("refresh rotates the pair", func(t *testing.T) {
		rec := app.request("POST", "/api/v1/auth/refresh", fmt.Sprintf(`{"refresh":%q}`, refresh), "")
		mustStatus(t, rec, http.StatusOK)
		newRefresh := field(t, parseJSON(t, rec), "tokens")["refresh"].(string)

		rec = app.request("POST", "/api/v1/auth/refresh", fmt.Sprintf(`{"refresh":%q}`, refresh), "")
		mustStatus(t, rec, http.StatusUnauthorized)

		rec = app.request("POST", "/api/v1/auth/refresh", fmt.Sprintf(`{"refresh":%q}`, newRefresh), "")
		mustStatus(t, rec, http.StatusOK)
	})

	t.Run("login locks after repeated failures", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			rec := app.request("POST", "/api/v1/auth/login", `{"email":"flow@test.com","password":"wrong-password"}`, "")
			mustStatus(t, rec, http.StatusUnauthorized)
		}
		rec := app.request("POST", "/api/v1/auth/login", `{"email":"flow@test.com","password":"password123"}`, "")
		mustStatus(t, rec, http.StatusLocked)
	})
}

func TestOwnershipIsolation(t *testing.T) {
	app := setupApp(t)
	alice, _, _ := app.registerUser(t, "alice@test.com")
	bob, _, _ := app.registerUser(t, "bob@test.com")

	account := app.create(t, alice, "/api/v1/accounts", "account",
		`{"name":"Checking","account_type":"checking","balance":"100.00"}`)
	path := "/api/v1/accounts/" + account["id"].(string)

	rec := app.request("GET", path, "", bob)
	mustStatus(t, rec, http.StatusNotFound)
	if code := errorCode(t, rec); code != "ACCOUNT_NOT_FOUND" {
		t.Errorf("expected ACCOUNT_NOT_FOUND, got %s", code)
	}

	rec = app.request("DELETE", path, "", bob)
	mustStatus(t, rec, http.StatusNotFound)

	rec = app.request("GET", "/api/v1/accounts", "", bob)
	mustStatus(t, rec, http.StatusOK)
	if total := parseJSON(t, rec)["total_items"]; total != float64(0) {
		t.Errorf("expected bob to see no accounts, got %v", total)
	}
}

func TestPartialUpdateViaPutAndPatch(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "patch@test.com")

	account := app.create(t, token, "/api/v1/accounts", "account",
		`{"name":"Wallet","account_type":"cash","balance":"20"}`)
	path := "/api/v1/accounts/" + account["id"].(string)

	for _, method := range []string{"PUT", "PATCH"} {
		t.Run(method, func(t *testing.T) {
			rec := app.request(method, path, `{"name":"Wallet `+method+`"}`, token)
			mustStatus(t, rec, http.StatusOK)
			got := field(t, parseJSON(t, rec), "account")
			if got["name"] != "Wallet "+method {
				t.Errorf("expected renamed account, got %v", got["name"])
			}
			if got["account_type"] != "cash" || got["balance"] != "20" {
				t.Errorf("expected untouched fields, got %v", got)
			}
		})
	}
}

func TestBudgetFlow(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "budget@test.com")

	category := app.create(t, token, "/api/v1/categories", "category",
		`{"name":"Groceries","category_type":"expense"}`)
	account := app.create(t, token, "/api/v1/accounts", "account",
		`{"name":"Checking","account_type":"checking","balance":"500"}`)
	categoryID, accountID := category["id"].(string), account["id"].(string)

	today := models.Today()
	start, end := today.AddDays(-10), today.AddDays(20)
	budget := app.create(t, token, "/api/v1/budgets", "budget", fmt.Sprintf(
		`{"category_id":%q,"name":"Food","amount":"200.00","period":"monthly","start_date":%q,"end_date":%q}`,
		categoryID, start, end))
	if budget["spent_amount"] != "0" || budget["percentage_used"] != float64(0) {
		t.Errorf("expected no spending yet, got %v", budget)
	}

	for _, amount := range []string{"-80.00", "-50.00", "25.00"} {
		app.create(t, token, "/api/v1/transactions", "transaction", fmt.Sprintf(
			`{"account_id":%q,"category_id":%q,"amount":%q,"description":"Shop","date":%q}`,
			accountID, categoryID, amount, today))
	}
	// Outside the budget range.
	app.create(t, token, "/api/v1/transactions", "transaction", fmt.Sprintf(
		`{"account_id":%q,"category_id":%q,"amount":"-999","description":"Old","date":%q}`,
		accountID, categoryID, start.AddDays(-1)))

	rec := app.request("GET", "/api/v1/budgets/"+budget["id"].(string), "", token)
	mustStatus(t, rec, http.StatusOK)
	got := field(t, parseJSON(t, rec), "budget")
	if got["spent_amount"] != "130" || got["remaining_amount"] != "70" {
		t.Errorf("expected 130 spent and 70 remaining, got %v / %v", got["spent_amount"], got["remaining_amount"])
	}
	if got["percentage_used"] != 65.0 {
		t.Errorf("expected 65%% used, got %v", got["percentage_used"])
	}

	t.Run("overlapping budget is rejected", func(t *testing.T) {
		rec := app.request("POST", "/api/v1/budgets", fmt.Sprintf(
			`{"category_id":%q,"name":"Food 2","amount":"50","period":"monthly","start_date":%q,"end_date":%q}`,
			categoryID, today, today.AddDays(40)), token)
		mustStatus(t, rec, http.StatusBadRequest)
		if code := errorCode(t, rec); code != "OVERLAPPING_BUDGET" {
			t.Errorf("expected OVERLAPPING_BUDGET, got %s", code)
		}
	})

	t.Run("current budgets include it", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/budgets/current", "", token)
		mustStatus(t, rec, http.StatusOK)
		if count := parseJSON(t, rec)["count"]; count != float64(1) {
			t.Errorf("expected 1 current budget, got %v", count)
		}
	})

	t.Run("over budget after a big expense", func(t *testing.T) {
		app.create(t, token, "/api/v1/transactions", "transaction", fmt.Sprintf(
			`{"account_id":%q,"category_id":%q,"amount":"-100","description":"Party","date":%q}`,
			accountID, categoryID, today))

		rec := app.request("GET", "/api/v1/budgets/over-budget", "", token)
		mustStatus(t, rec, http.StatusOK)
		body := parseJSON(t, rec)
		if body["count"] != float64(1) {
			t.Fatalf("expected 1 over-budget entry, got %v", body["count"])
		}
		entry := body["results"].([]interface{})[0].(map[string]interface{})
		if entry["percentage_used"] != 100.0 || entry["remaining_amount"] != "0" {
			t.Errorf("expected capped stats, got %v", entry)
		}
	})

	t.Run("category with transactions cannot be deleted", func(t *testing.T) {
		rec := app.request("DELETE", "/api/v1/categories/"+categoryID, "", token)
		mustStatus(t, rec, http.StatusBadRequest)
	})
}

func TestTransactionFiltersAndSummary(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "tx@test.com")

	account := app.create(t, token, "/api/v1/accounts", "account",
		`{"name":"Checking","account_type":"checking"}`)
	savings := app.create(t, token, "/api/v1/accounts", "account",
		`{"name":"Savings","account_type":"savings"}`)
	accountID := account["id"].(string)

	post := func(amount, date, extra string) {
		app.create(t, token, "/api/v1/transactions", "transaction", fmt.Sprintf(
			`{"account_id":%q,"amount":%q,"description":"Entry","date":%q%s}`, accountID, amount, date, extra))
	}
	post("1000", "2024-01-05", "")
	post("-200", "2024-01-10", "")
	post("-300", "2024-02-01", "")
	post("-50", "2024-01-20", fmt.Sprintf(`,"transfer_to_id":%q`, savings["id"]))

	t.Run("date range filter", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/transactions?start_date=2024-01-01&end_date=2024-01-31", "", token)
		mustStatus(t, rec, http.StatusOK)
		if total := parseJSON(t, rec)["total_items"]; total != float64(3) {
			t.Errorf("expected 3 January transactions, got %v", total)
		}
	})

	t.Run("summary", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/transactions/summary?start_date=2024-01-01&end_date=2024-01-31", "", token)
		mustStatus(t, rec, http.StatusOK)
		body := parseJSON(t, rec)
		if body["total_income"] != "1000" || body["transfer_transactions"] != float64(1) {
			t.Errorf("unexpected summary: %v", body)
		}
	})

	t.Run("recent honours limit and window", func(t *testing.T) {
		today := models.Today()
		post("-5", today.AddDays(-40).String(), "")
		post("-10", today.AddDays(-2).String(), "")
		post("-20", today.String(), "")
		post("-30", today.AddDays(-1).String(), "")

		rec := app.request("GET", "/api/v1/transactions/recent?limit=2", "", token)
		mustStatus(t, rec, http.StatusOK)
		body := parseJSON(t, rec)
		if body["count"] != float64(2) {
			t.Fatalf("expected 2 recent transactions, got %v", body["count"])
		}
		first := body["results"].([]interface{})[0].(map[string]interface{})
		if first["date"] != today.String() {
			t.Errorf("expected newest first, got %v", first["date"])
		}

		rec = app.request("GET", "/api/v1/transactions/recent", "", token)
		mustStatus(t, rec, http.StatusOK)
		if count := parseJSON(t, rec)["count"]; count != float64(3) {
			t.Errorf("expected 3 transactions in the last 30 days, got %v", count)
		}
	})

	t.Run("malformed date is rejected", func(t *testing.T) {
		rec := app.request("GET", "/api/v1/transactions?start_date=01/01/2024", "", token)
		mustStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("account with transactions cannot be deleted", func(t *testing.T) {
		rec := app.request("DELETE", "/api/v1/accounts/"+accountID, "", token)
		mustStatus(t, rec, http.StatusBadRequest)
	})
}

func TestGoalFlow(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "goal@test.com")

	goal := app.create(t, token, "/api/v1/goals", "goal",
		`{"name":"Bike","target_amount":"500.00","current_amount":"100.00"}`)
	if goal["goal_type"] != "savings" || goal["is_completed"] != false {
		t.Fatalf("unexpected goal: %v", goal)
	}
	progressPath := "/api/v1/goals/" + goal["id"].(string) + "/update-progress"

	rec := app.request("POST", progressPath, `{"amount":"320"}`, token)
	mustStatus(t, rec, http.StatusOK)
	if p := field(t, parseJSON(t, rec), "goal")["progress_percentage"]; p != 84.0 {
		t.Errorf("expected 84%% progress, got %v", p)
	}

	rec = app.request("GET", "/api/v1/goals/near-target", "", token)
	mustStatus(t, rec, http.StatusOK)
	if count := parseJSON(t, rec)["count"]; count != float64(1) {
		t.Errorf("expected 1 near-target goal, got %v", count)
	}

	rec = app.request("POST", progressPath, `{"amount":"80"}`, token)
	mustStatus(t, rec, http.StatusOK)
	completed := field(t, parseJSON(t, rec), "goal")
	if completed["is_completed"] != true || completed["completed_at"] == nil {
		t.Errorf("expected completed goal, got %v", completed)
	}

	rec = app.request("POST", progressPath, `{"amount":"-1000"}`, token)
	mustStatus(t, rec, http.StatusBadRequest)

	rec = app.request("GET", "/api/v1/goals/completed", "", token)
	mustStatus(t, rec, http.StatusOK)
	if count := parseJSON(t, rec)["count"]; count != float64(1) {
		t.Errorf("expected 1 completed goal, got %v", count)
	}
}

func TestCategoryTree(t *testing.T) {
	app := setupApp(t)
	token, _, _ := app.registerUser(t, "tree@test.com")

	parent := app.create(t, token, "/api/v1/categories", "category",
		`{"name":"Home","category_type":"expense"}`)
	app.create(t, token, "/api/v1/categories", "category", fmt.Sprintf(
		`{"name":"Rent","category_type":"expense","parent_id":%q}`, parent["id"]))

	rec := app.request("GET", "/api/v1/categories/tree", "", token)
	mustStatus(t, rec, http.StatusOK)
	body := parseJSON(t, rec)
	if body["count"] != float64(1) {
		t.Fatalf("expected one root, got %v", body["count"])
	}

	rec = app.request("PATCH", "/api/v1/categories/"+parent["id"].(string),
		fmt.Sprintf(`{"parent_id":%q}`, parent["id"]), token)
	mustStatus(t, rec, http.StatusBadRequest)
}

func TestDeleteAccountCascades(t *testing.T) {
	app := setupApp(t)
	token, _, userID := app.registerUser(t, "gone@test.com")
	app.create(t, token, "/api/v1/accounts", "account", `{"name":"Cash","account_type":"cash"}`)

	rec := app.request("DELETE", "/api/v1/user/delete-account", `{"password":"password123"}`, token)
	mustStatus(t, rec, http.StatusOK)

	var remaining int64
	app.DB.Model(&models.Account{}).Where("user_id = ?", userID).Count(&remaining)
	if remaining != 0 {
		t.Errorf("expected accounts removed with the user, %d left", remaining)
	}

	rec = app.request("GET", "/api/v1/user/profile", "", token)
	if rec.Code == http.StatusOK {
		t.Error("expected profile lookup to fail after deletion")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	app := setupApp(t)
	app.request("GET", "/api/health", "", "")

	rec := app.request("GET", "/metrics", "", "")
	mustStatus(t, rec, http.StatusUnauthorized)

	req := httptest.NewRequest("GET", "/metrics", nil)
	req.Header.Set("X-API-Key", testMetricsKey)
	rec = httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	mustStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), `route="/api/health"`) {
		t.Errorf("expected health route in metrics output")
	}
}

func TestCORS(t *testing.T) {
	app := setupApp(t)

	tests := []struct {
		origin string
		want   string
	}{
		{"https://app.example", "https://app.example"},
		{"https://evil.example", ""},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/accounts", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			app.Router.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("expected allow-origin %q, got %q", tt.want, got)
			}
		})
	}
}
