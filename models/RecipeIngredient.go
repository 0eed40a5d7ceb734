package models

// RecipeIngredient links a recipe to one catalog ingredient. The composite
// primary key guarantees a pair exists at most once.
type RecipeIngredient struct {
	RecipeID     uint `gorm:"primaryKey;autoIncrement:false" json:"recipe_id"`
	IngredientID uint `gorm:"primaryKey;autoIncrement:false;index" json:"ingredient_id"`
}

// TableName pins the join table name.
func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}
