// Package main 演示数据播种器
//
// 清空数据库并写入两个演示用户（user@gmail.com / admin@gmail.com）
// 与三款演示鸡尾酒。仅用于开发环境。
package main

import (
	"context"
	"log"
	"time"

	"cocktail-hub/internal/apiserver/auth"
	"cocktail-hub/internal/config"
	"cocktail-hub/internal/shared/model"
	"cocktail-hub/internal/shared/storage"
	"cocktail-hub/internal/shared/storage/mongostore"
)

func main() {
	cfg := config.Load()

	if cfg.Env == config.EnvProduction {
		log.Fatal("Refusing to seed fixtures in prod")
	}

	store, err := mongostore.NewStore(cfg.Database.URI, cfg.Database.Name)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := store.Reset(ctx); err != nil {
		log.Fatalf("Failed to reset collections: %v", err)
	}
	log.Println("Collections dropped")

	if err := seed(ctx, store); err != nil {
		log.Fatalf("Failed to seed fixtures: %v", err)
	}
	log.Println("Fixtures created successfully!")
}

// seed 写入演示用户与鸡尾酒
func seed(ctx context.Context, store storage.PersistentStore) error {
	now := time.Now()

	users := []struct {
		id, username, password, displayName string
		role                                model.UserRole
	}{
		{"user-demo", "user@gmail.com", "123", "User", model.UserRoleUser},
		{"user-admin", "admin@gmail.com", "456", "Admin", model.UserRoleAdmin},
	}

	for _, u := range users {
		hash, err := auth.HashPassword(u.password)
		if err != nil {
			return err
		}
		user := &model.User{
			ID:           u.id,
			Username:     u.username,
			PasswordHash: hash,
			Role:         u.role,
			DisplayName:  u.displayName,
			CreatedAt:    now,
		}
		if err := store.CreateUser(ctx, user); err != nil {
			return err
		}
		log.Printf("User created: %s (%s)", u.username, u.role)
	}

	cocktails := []*model.Cocktail{
		{
			ID:     "ct-mojito",
			UserID: "user-demo",
			Name:   "Mojito",
			Recipe: "A refreshing cocktail with mint, lime, and rum.",
			Ingredients: []model.Ingredient{
				{Name: "White rum", Amount: "50ml"},
				{Name: "Lime juice", Amount: "30ml"},
				{Name: "Sugar", Amount: "2 tsp"},
				{Name: "Mint leaves", Amount: "6-8 leaves"},
				{Name: "Soda water", Amount: "Top up"},
			},
			Ratings:       []model.Rating{{UserID: "user-admin", Value: 5}},
			AverageRating: 5,
			IsPublished:   true,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		{
			ID:     "ct-margarita",
			UserID: "user-admin",
			Name:   "Margarita",
			Recipe: "A classic cocktail with tequila, lime, and triple sec.",
			Ingredients: []model.Ingredient{
				{Name: "Tequila", Amount: "50ml"},
				{Name: "Triple sec", Amount: "20ml"},
				{Name: "Lime juice", Amount: "30ml"},
				{Name: "Salt", Amount: "For rim"},
			},
			Ratings:       []model.Rating{{UserID: "user-demo", Value: 4}},
			AverageRating: 4,
			IsPublished:   false,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		{
			ID:     "ct-pina-colada",
			UserID: "user-demo",
			Name:   "Pina Colada",
			Recipe: "A tropical cocktail with pineapple, coconut, and rum.",
			Ingredients: []model.Ingredient{
				{Name: "White rum", Amount: "50ml"},
				{Name: "Coconut cream", Amount: "50ml"},
				{Name: "Pineapple juice", Amount: "100ml"},
			},
			Ratings:     []model.Rating{},
			IsPublished: true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}

	for _, c := range cocktails {
		if err := store.CreateCocktail(ctx, c); err != nil {
			return err
		}
		log.Printf("Cocktail created: %s", c.Name)
	}
	return nil
}
