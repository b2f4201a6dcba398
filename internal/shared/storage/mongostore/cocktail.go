package mongostore

import (
	"context"
	"time"

	"cocktail-hub/internal/shared/model"
	"cocktail-hub/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// ============================================================================
// CocktailStore
// ============================================================================

func (s *Store) CreateCocktail(ctx context.Context, cocktail *model.Cocktail) error {
	return insertOne(ctx, s.col(ColCocktails), cocktail)
}

func (s *Store) GetCocktail(ctx context.Context, id string) (*model.Cocktail, error) {
	c, err := findOne[model.Cocktail](ctx, s.col(ColCocktails), bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, storage.ErrNotFound
	}
	return c, nil
}

func (s *Store) ListCocktails(ctx context.Context, filter storage.CocktailFilter) ([]*model.Cocktail, error) {
	query := bson.D{}
	if filter.OwnerID != "" {
		query = append(query, bson.E{Key: "user_id", Value: filter.OwnerID})
	}
	if filter.PublishedOnly {
		query = append(query, bson.E{Key: "is_published", Value: true})
	}
	return findMany[model.Cocktail](ctx, s.col(ColCocktails), query)
}

// RateCocktail 以单文档原子更新写入评分并重算平均分
//
// 使用聚合管道更新在一次 FindOneAndUpdate 中完成 upsert-by-user 与
// average_rating 重算，避免 read-modify-write 竞态：并发提交的两个评分
// 在服务端按到达顺序串行应用，派生字段始终与评分数组一致。
// 已有评分原位替换（$map 保持条目位置），否则 $concatArrays 追加。
func (s *Store) RateCocktail(ctx context.Context, id, userID string, value int) (*model.Cocktail, error) {
	if err := model.ValidateRating(value); err != nil {
		return nil, err
	}

	entry := bson.D{{Key: "user_id", Value: userID}, {Key: "value", Value: value}}
	ratings := bson.D{{Key: "$ifNull", Value: bson.A{"$ratings", bson.A{}}}}

	pipeline := mongo.Pipeline{
		// 第一阶段：替换或追加该用户的评分条目
		{{Key: "$set", Value: bson.D{{Key: "ratings", Value: bson.D{{Key: "$cond", Value: bson.D{
			{Key: "if", Value: bson.D{{Key: "$in", Value: bson.A{userID, bson.D{{Key: "$ifNull", Value: bson.A{"$ratings.user_id", bson.A{}}}}}}}},
			{Key: "then", Value: bson.D{{Key: "$map", Value: bson.D{
				{Key: "input", Value: "$ratings"},
				{Key: "as", Value: "r"},
				{Key: "in", Value: bson.D{{Key: "$cond", Value: bson.A{
					bson.D{{Key: "$eq", Value: bson.A{"$$r.user_id", userID}}},
					entry,
					"$$r",
				}}}},
			}}}},
			{Key: "else", Value: bson.D{{Key: "$concatArrays", Value: bson.A{ratings, bson.A{entry}}}}},
		}}}}}}},
		// 第二阶段：在同一次更新内重算派生字段
		{{Key: "$set", Value: bson.D{
			{Key: "average_rating", Value: bson.D{{Key: "$ifNull", Value: bson.A{
				bson.D{{Key: "$avg", Value: "$ratings.value"}}, 0.0,
			}}}},
			{Key: "updated_at", Value: time.Now()},
		}}},
	}

	return findOneAndUpdate[model.Cocktail](ctx, s.col(ColCocktails), id, pipeline)
}

// TogglePublished 翻转发布状态
func (s *Store) TogglePublished(ctx context.Context, id string) (*model.Cocktail, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "is_published", Value: bson.D{{Key: "$not", Value: "$is_published"}}},
			{Key: "updated_at", Value: time.Now()},
		}}},
	}
	return findOneAndUpdate[model.Cocktail](ctx, s.col(ColCocktails), id, pipeline)
}

func (s *Store) DeleteCocktail(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColCocktails), id)
}
