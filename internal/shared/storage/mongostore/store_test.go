package mongostore

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"cocktail-hub/internal/shared/model"
	"cocktail-hub/internal/shared/storage"
)

// testStore 创建测试用 Store，使用独立数据库避免污染
func testStore(t *testing.T) *Store {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}

	dbName := "cocktail_hub_test"
	s, err := NewStore(uri, dbName)
	if err != nil {
		t.Skipf("MongoDB not available: %v", err)
	}

	// 清空测试数据库
	ctx := context.Background()
	if err := s.db.Drop(ctx); err != nil {
		t.Fatalf("Failed to drop test database: %v", err)
	}
	// 重新创建索引
	if err := s.ensureIndexes(ctx); err != nil {
		t.Fatalf("Failed to create indexes: %v", err)
	}

	t.Cleanup(func() {
		s.db.Drop(context.Background())
		s.Close()
	})

	return s
}

// Compile-time interface check
var _ storage.PersistentStore = (*Store)(nil)

func seedCocktail(t *testing.T, s *Store, id, ownerID string, published bool) *model.Cocktail {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	c := &model.Cocktail{
		ID:     id,
		UserID: ownerID,
		Name:   "Mojito",
		Recipe: "A refreshing cocktail with mint, lime, and rum.",
		Ingredients: []model.Ingredient{
			{Name: "White rum", Amount: "50ml"},
			{Name: "Lime juice", Amount: "30ml"},
		},
		IsPublished: published,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.CreateCocktail(context.Background(), c); err != nil {
		t.Fatalf("CreateCocktail failed: %v", err)
	}
	return c
}

func TestUserCRUD(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	user := &model.User{
		ID:           "usr-001",
		Username:     "user@gmail.com",
		PasswordHash: "$2a$12$hash",
		Role:         model.UserRoleUser,
		DisplayName:  "User",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	got, err := s.GetUserByUsername(ctx, "user@gmail.com")
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	if got == nil || got.ID != user.ID {
		t.Fatalf("GetUserByUsername = %+v, want ID %s", got, user.ID)
	}
	if got.Role != model.UserRoleUser {
		t.Errorf("Role = %v, want %v", got.Role, model.UserRoleUser)
	}

	// username 唯一索引
	dup := *user
	dup.ID = "usr-002"
	if err := s.CreateUser(ctx, &dup); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("CreateUser duplicate username = %v, want ErrDuplicate", err)
	}

	missing, err := s.GetUserByID(ctx, "usr-999")
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if missing != nil {
		t.Errorf("GetUserByID(missing) = %+v, want nil", missing)
	}
}

func TestCocktailCRUD(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	seedCocktail(t, s, "ct-001", "usr-a", true)

	got, err := s.GetCocktail(ctx, "ct-001")
	if err != nil {
		t.Fatalf("GetCocktail failed: %v", err)
	}
	if got.Name != "Mojito" || len(got.Ingredients) != 2 {
		t.Errorf("GetCocktail = %+v", got)
	}
	if got.AverageRating != 0 {
		t.Errorf("AverageRating = %v, want 0", got.AverageRating)
	}

	if _, err := s.GetCocktail(ctx, "ct-999"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetCocktail(missing) = %v, want ErrNotFound", err)
	}

	if err := s.DeleteCocktail(ctx, "ct-001"); err != nil {
		t.Fatalf("DeleteCocktail failed: %v", err)
	}
	if _, err := s.GetCocktail(ctx, "ct-001"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetCocktail after delete = %v, want ErrNotFound", err)
	}
	if err := s.DeleteCocktail(ctx, "ct-001"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("DeleteCocktail(missing) = %v, want ErrNotFound", err)
	}
}

func TestListCocktailsFilter(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	seedCocktail(t, s, "ct-pub", "usr-a", true)
	seedCocktail(t, s, "ct-draft", "usr-a", false)
	seedCocktail(t, s, "ct-other", "usr-b", false)

	// 匿名：仅已发布
	published, err := s.ListCocktails(ctx, storage.CocktailFilter{PublishedOnly: true})
	if err != nil {
		t.Fatalf("ListCocktails failed: %v", err)
	}
	if len(published) != 1 || published[0].ID != "ct-pub" {
		t.Errorf("published = %+v, want [ct-pub]", published)
	}

	// 归属者：本人全部，不含他人
	own, err := s.ListCocktails(ctx, storage.CocktailFilter{OwnerID: "usr-a"})
	if err != nil {
		t.Fatalf("ListCocktails failed: %v", err)
	}
	if len(own) != 2 {
		t.Errorf("own = %d cocktails, want 2", len(own))
	}

	// admin：全部
	all, err := s.ListCocktails(ctx, storage.CocktailFilter{})
	if err != nil {
		t.Fatalf("ListCocktails failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all = %d cocktails, want 3", len(all))
	}
}

func TestRateCocktail(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	seedCocktail(t, s, "ct-001", "usr-a", true)

	// 新评分追加
	updated, err := s.RateCocktail(ctx, "ct-001", "usr-b", 5)
	if err != nil {
		t.Fatalf("RateCocktail failed: %v", err)
	}
	if len(updated.Ratings) != 1 || updated.AverageRating != 5 {
		t.Errorf("after first rating: ratings=%+v avg=%v", updated.Ratings, updated.AverageRating)
	}

	// 第二个用户评分
	updated, err = s.RateCocktail(ctx, "ct-001", "usr-c", 3)
	if err != nil {
		t.Fatalf("RateCocktail failed: %v", err)
	}
	if len(updated.Ratings) != 2 || updated.AverageRating != 4 {
		t.Errorf("after second rating: ratings=%+v avg=%v", updated.Ratings, updated.AverageRating)
	}

	// 重复评分原位替换，条目数不变、位置保持
	updated, err = s.RateCocktail(ctx, "ct-001", "usr-b", 1)
	if err != nil {
		t.Fatalf("RateCocktail failed: %v", err)
	}
	if len(updated.Ratings) != 2 {
		t.Fatalf("re-rate changed entry count: %+v", updated.Ratings)
	}
	if updated.Ratings[0].UserID != "usr-b" || updated.Ratings[0].Value != 1 {
		t.Errorf("re-rate did not replace in place: %+v", updated.Ratings)
	}
	if updated.AverageRating != 2 {
		t.Errorf("avg = %v, want 2", updated.AverageRating)
	}

	// 越界与缺失
	if _, err := s.RateCocktail(ctx, "ct-001", "usr-b", 6); !errors.Is(err, model.ErrRatingOutOfRange) {
		t.Errorf("RateCocktail(6) = %v, want ErrRatingOutOfRange", err)
	}
	if _, err := s.RateCocktail(ctx, "ct-999", "usr-b", 3); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("RateCocktail(missing) = %v, want ErrNotFound", err)
	}
}

func TestTogglePublished(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	seedCocktail(t, s, "ct-001", "usr-a", false)

	updated, err := s.TogglePublished(ctx, "ct-001")
	if err != nil {
		t.Fatalf("TogglePublished failed: %v", err)
	}
	if !updated.IsPublished {
		t.Errorf("IsPublished = false, want true")
	}

	// 双重翻转回到初始状态
	updated, err = s.TogglePublished(ctx, "ct-001")
	if err != nil {
		t.Fatalf("TogglePublished failed: %v", err)
	}
	if updated.IsPublished {
		t.Errorf("IsPublished = true after double toggle, want false")
	}

	if _, err := s.TogglePublished(ctx, "ct-999"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("TogglePublished(missing) = %v, want ErrNotFound", err)
	}
}
