package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestCategoryLifecycle(t *testing.T) {
	t.Run("create_list_get", func(t *testing.T) {
		app := setupApp(t)
		access, _, userID := app.registerUser(t, "alice@example.com", "password123")

		id := app.createCategory(t, access, "Groceries", "expense", "#11AA22")

		rec := app.request("GET", "/api/v1/categories/"+id, "", access)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		cat := result["category"].(map[string]interface{})
		if cat["name"] != "Groceries" || cat["type"] != "expense" || cat["color"] != "#11AA22" {
			t.Errorf("unexpected category payload: %v", cat)
		}
		if cat["owner_id"] != userID {
			t.Errorf("expected owner %s, got %v", userID, cat["owner_id"])
		}
		if cat["is_default"] != false {
			t.Error("user-created category must not be flagged as default")
		}

		// 5 starter categories plus the new one
		rec = app.request("GET", "/api/v1/categories", "", access)
		result = parseJSON(t, rec)
		if got := len(result["data"].([]interface{})); got != 6 {
			t.Errorf("expected 6 categories, got %d", got)
		}
	})

	t.Run("duplicate_name_conflicts", func(t *testing.T) {
		app := setupApp(t)
		access, _, _ := app.registerUser(t, "alice@example.com", "password123")

		app.createCategory(t, access, "Groceries", "expense", "#11AA22")

		body := `{"name":"Groceries","type":"income","color":"#000000"}`
		rec := app.request("POST", "/api/v1/categories", body, access)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, rec, "CATEGORY_NAME_TAKEN")
	})

	t.Run("delete_then_recreate_recovers_record", func(t *testing.T) {
		app := setupApp(t)
		access, _, _ := app.registerUser(t, "alice@example.com", "password123")

		id := app.createCategory(t, access, "Groceries", "expense", "#11AA22")

		rec := app.request("DELETE", "/api/v1/categories/"+id, "", access)
		if rec.Code != http.StatusOK {
			t.Fatalf("delete failed: %d %s", rec.Code, rec.Body.String())
		}

		// Gone from reads
		rec = app.request("GET", "/api/v1/categories/"+id, "", access)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404 after delete, got %d", rec.Code)
		}

		// Re-creating the same name revives the original record
		recreated := app.createCategory(t, access, "Groceries", "income", "#33CC44")
		if recreated != id {
			t.Errorf("expected recovered category to keep ID %s, got %s", id, recreated)
		}

		rec = app.request("GET", "/api/v1/categories/"+id, "", access)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 after recovery, got %d", rec.Code)
		}
		cat := parseJSON(t, rec)["category"].(map[string]interface{})
		if cat["type"] != "income" || cat["color"] != "#33CC44" {
			t.Errorf("expected recovery to apply new type and color, got %v", cat)
		}
	})

	t.Run("foreign_category_is_forbidden", func(t *testing.T) {
		app := setupApp(t)
		aliceToken, _, _ := app.registerUser(t, "alice@example.com", "password123")
		bobToken, _, _ := app.registerUser(t, "bob@example.com", "password123")

		id := app.createCategory(t, aliceToken, "Groceries", "expense", "#11AA22")

		rec := app.request("GET", "/api/v1/categories/"+id, "", bobToken)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
		}

		rec = app.request("DELETE", "/api/v1/categories/"+id, "", bobToken)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403 for foreign delete, got %d", rec.Code)
		}

		// Bob does not see Alice's category in his list
		rec = app.request("GET", "/api/v1/categories", "", bobToken)
		for _, item := range parseJSON(t, rec)["data"].([]interface{}) {
			if item.(map[string]interface{})["id"] == id {
				t.Error("foreign category leaked into list")
			}
		}
	})

	t.Run("same_name_allowed_across_users", func(t *testing.T) {
		app := setupApp(t)
		aliceToken, _, _ := app.registerUser(t, "alice@example.com", "password123")
		bobToken, _, _ := app.registerUser(t, "bob@example.com", "password123")

		aliceID := app.createCategory(t, aliceToken, "Groceries", "expense", "#11AA22")
		bobID := app.createCategory(t, bobToken, "Groceries", "expense", "#11AA22")
		if aliceID == bobID {
			t.Error("expected distinct records per user scope")
		}
	})

	t.Run("update_category", func(t *testing.T) {
		app := setupApp(t)
		access, _, _ := app.registerUser(t, "alice@example.com", "password123")

		id := app.createCategory(t, access, "Groceries", "expense", "#11AA22")

		rec := app.request("PUT", "/api/v1/categories/"+id, `{"color":"#FFFFFF"}`, access)
		if rec.Code != http.StatusOK {
			t.Fatalf("update failed: %d %s", rec.Code, rec.Body.String())
		}
		cat := parseJSON(t, rec)["category"].(map[string]interface{})
		if cat["color"] != "#FFFFFF" {
			t.Errorf("expected updated color, got %v", cat["color"])
		}
		if cat["name"] != "Groceries" {
			t.Errorf("partial update must not touch name, got %v", cat["name"])
		}
	})

	t.Run("rename_onto_existing_name_conflicts", func(t *testing.T) {
		app := setupApp(t)
		access, _, _ := app.registerUser(t, "alice@example.com", "password123")

		app.createCategory(t, access, "Groceries", "expense", "#11AA22")
		id := app.createCategory(t, access, "Takeout", "expense", "#33CC44")

		rec := app.request("PUT", "/api/v1/categories/"+id, `{"name":"Groceries"}`, access)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, rec, "CATEGORY_NAME_TAKEN")
	})

	t.Run("rename_onto_tombstone_conflicts", func(t *testing.T) {
		app := setupApp(t)
		access, _, _ := app.registerUser(t, "alice@example.com", "password123")

		deadID := app.createCategory(t, access, "Groceries", "expense", "#11AA22")
		app.request("DELETE", "/api/v1/categories/"+deadID, "", access)

		id := app.createCategory(t, access, "Takeout", "expense", "#33CC44")
		rec := app.request("PUT", "/api/v1/categories/"+id, `{"name":"Groceries"}`, access)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409 for tombstoned name, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, rec, "CATEGORY_NAME_TAKEN")
	})

	t.Run("default_category_is_protected", func(t *testing.T) {
		app := setupApp(t)
		access, _, _ := app.registerUser(t, "alice@example.com", "password123")

		// Find a seeded default
		rec := app.request("GET", "/api/v1/categories", "", access)
		var defaultID string
		for _, item := range parseJSON(t, rec)["data"].([]interface{}) {
			cat := item.(map[string]interface{})
			if cat["name"] == "Food" {
				defaultID = cat["id"].(string)
			}
		}
		if defaultID == "" {
			t.Fatal("seeded Food category not found")
		}

		rec = app.request("PUT", "/api/v1/categories/"+defaultID, `{"name":"Dining"}`, access)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, rec, "DEFAULT_CATEGORY_PROTECTED")

		rec = app.request("DELETE", "/api/v1/categories/"+defaultID, "", access)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403 for default delete, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, rec, "DEFAULT_CATEGORY_PROTECTED")
	})

	t.Run("invalid_payloads_rejected", func(t *testing.T) {
		app := setupApp(t)
		access, _, _ := app.registerUser(t, "alice@example.com", "password123")

		cases := []struct {
			name string
			body string
		}{
			{"missing_name", `{"type":"expense","color":"#11AA22"}`},
			{"bad_type", `{"name":"X","type":"sideways","color":"#11AA22"}`},
			{"bad_color", `{"name":"X","type":"expense","color":"red"}`},
			{"short_hex", `{"name":"X","type":"expense","color":"#FFF"}`},
		}
		for _, tc := range cases {
			rec := app.request("POST", "/api/v1/categories", tc.body, access)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d: %s", tc.name, rec.Code, rec.Body.String())
			}
		}
	})
}

func TestSharedCategories(t *testing.T) {
	t.Run("shared_create_requires_admin", func(t *testing.T) {
		app := setupApp(t)
		access, _, _ := app.registerUser(t, "alice@example.com", "password123")

		body := `{"name":"Taxes","type":"expense","color":"#555555","shared":true}`
		rec := app.request("POST", "/api/v1/categories", body, access)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("shared_visible_to_everyone_but_admin_managed", func(t *testing.T) {
		app := setupApp(t)
		adminToken, _ := app.registerAdmin(t, "admin@example.com", "password123")
		userToken, _, _ := app.registerUser(t, "alice@example.com", "password123")

		body := `{"name":"Taxes","type":"expense","color":"#555555","shared":true}`
		rec := app.request("POST", "/api/v1/categories", body, adminToken)
		if rec.Code != http.StatusCreated {
			t.Fatalf("admin shared create failed: %d %s", rec.Code, rec.Body.String())
		}
		sharedID := parseJSON(t, rec)["category"].(map[string]interface{})["id"].(string)

		// Visible to a regular user
		rec = app.request("GET", "/api/v1/categories/"+sharedID, "", userToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected shared category readable, got %d", rec.Code)
		}

		// But not mutable by one
		rec = app.request("PUT", "/api/v1/categories/"+sharedID, `{"color":"#000000"}`, userToken)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403 for shared update, got %d: %s", rec.Code, rec.Body.String())
		}
		rec = app.request("DELETE", "/api/v1/categories/"+sharedID, "", userToken)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403 for shared delete, got %d: %s", rec.Code, rec.Body.String())
		}

		// Admin may update it
		rec = app.request("PUT", "/api/v1/categories/"+sharedID, `{"color":"#000000"}`, adminToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("admin shared update failed: %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("shared_name_does_not_collide_with_user_scope", func(t *testing.T) {
		app := setupApp(t)
		adminToken, _ := app.registerAdmin(t, "admin@example.com", "password123")
		userToken, _, _ := app.registerUser(t, "alice@example.com", "password123")

		body := `{"name":"Taxes","type":"expense","color":"#555555","shared":true}`
		rec := app.request("POST", "/api/v1/categories", body, adminToken)
		if rec.Code != http.StatusCreated {
			t.Fatalf("shared create failed: %d %s", rec.Code, rec.Body.String())
		}

		// A personal category with the same name lives in its own scope
		app.createCategory(t, userToken, "Taxes", "expense", "#11AA22")
	})
}

func TestUserDeletionCascade(t *testing.T) {
	t.Run("deleting_user_removes_their_categories", func(t *testing.T) {
		app := setupApp(t)
		aliceToken, _, aliceID := app.registerUser(t, "alice@example.com", "password123")
		bobToken, _, _ := app.registerUser(t, "bob@example.com", "password123")

		app.createCategory(t, aliceToken, "Groceries", "expense", "#11AA22")

		rec := app.request("DELETE", "/api/v1/users/"+aliceID, "", aliceToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("user delete failed: %d %s", rec.Code, rec.Body.String())
		}

		// Alice can no longer log in
		lrec := app.request("POST", "/api/v1/auth/login", `{"email":"alice@example.com","password":"password123"}`, "")
		if lrec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for deleted user login, got %d", lrec.Code)
		}

		// Bob's categories are untouched
		rec = app.request("GET", "/api/v1/categories", "", bobToken)
		if got := len(parseJSON(t, rec)["data"].([]interface{})); got != 5 {
			t.Errorf("expected bystander to keep 5 starter categories, got %d", got)
		}
	})

	t.Run("cannot_delete_another_user", func(t *testing.T) {
		app := setupApp(t)
		_, _, aliceID := app.registerUser(t, "alice@example.com", "password123")
		bobToken, _, _ := app.registerUser(t, "bob@example.com", "password123")

		rec := app.request("DELETE", fmt.Sprintf("/api/v1/users/%s", aliceID), "", bobToken)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}
