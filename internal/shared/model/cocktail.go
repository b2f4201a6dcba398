package model

import (
	"errors"
	"strings"
	"time"
)

// 评分取值范围
const (
	RatingMin = 1
	RatingMax = 5
)

// 校验错误
var (
	ErrRatingOutOfRange  = errors.New("rating must be between 1 and 5")
	ErrInvalidIngredient = errors.New("ingredient name and amount are required")
	ErrMissingName       = errors.New("cocktail name is required")
	ErrMissingRecipe     = errors.New("cocktail recipe is required")
)

// Ingredient 配料（name 与 amount 均为必填字符串）
type Ingredient struct {
	Name   string `json:"name" bson:"name"`
	Amount string `json:"amount" bson:"amount"`
}

// Rating 单个用户的评分，每个用户在同一鸡尾酒上至多一条
type Rating struct {
	UserID string `json:"user" bson:"user_id"`
	Value  int    `json:"value" bson:"value"`
}

// Cocktail 鸡尾酒文档
//
// UserID 为创建者，创建后不可变更。AverageRating 是评分数组的派生字段，
// 任何改动评分数组的路径都必须在同一次持久化中重算它（唯一入口 ApplyRating）。
type Cocktail struct {
	ID            string       `json:"id" bson:"_id"`
	UserID        string       `json:"user" bson:"user_id"`
	Name          string       `json:"name" bson:"name"`
	ImageKey      string       `json:"image,omitempty" bson:"image_key,omitempty"`
	Recipe        string       `json:"recipe" bson:"recipe"`
	Ingredients   []Ingredient `json:"ingredients" bson:"ingredients"`
	Ratings       []Rating     `json:"rating" bson:"ratings"`
	AverageRating float64      `json:"averageRating" bson:"average_rating"`
	IsPublished   bool         `json:"isPublished" bson:"is_published"`
	CreatedAt     time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at" bson:"updated_at"`
}

// Validate 校验创建时的必填字段与配料结构
func (c *Cocktail) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrMissingName
	}
	if strings.TrimSpace(c.Recipe) == "" {
		return ErrMissingRecipe
	}
	for _, ing := range c.Ingredients {
		if strings.TrimSpace(ing.Name) == "" || strings.TrimSpace(ing.Amount) == "" {
			return ErrInvalidIngredient
		}
	}
	return nil
}

// ValidateRating 校验评分取值
func ValidateRating(value int) error {
	if value < RatingMin || value > RatingMax {
		return ErrRatingOutOfRange
	}
	return nil
}

// ApplyRating 写入或替换指定用户的评分并重算平均分
//
// 已有评分原位替换（保持条目顺序），否则追加新条目。
// 返回是否为新增条目。评分改动的唯一入口，调用方不得直接改 Ratings。
func (c *Cocktail) ApplyRating(userID string, value int) (added bool, err error) {
	if err := ValidateRating(value); err != nil {
		return false, err
	}

	found := false
	for i := range c.Ratings {
		if c.Ratings[i].UserID == userID {
			c.Ratings[i].Value = value
			found = true
			break
		}
	}
	if !found {
		c.Ratings = append(c.Ratings, Rating{UserID: userID, Value: value})
	}

	c.AverageRating = averageOf(c.Ratings)
	return !found, nil
}

// RatingBy 返回指定用户的评分条目，不存在时返回 nil
func (c *Cocktail) RatingBy(userID string) *Rating {
	for i := range c.Ratings {
		if c.Ratings[i].UserID == userID {
			return &c.Ratings[i]
		}
	}
	return nil
}

// averageOf 计算平均分，空数组为 0
func averageOf(ratings []Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r.Value
	}
	return float64(sum) / float64(len(ratings))
}
