package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// DefaultCategoryColor is used when a category is created without a color.
const DefaultCategoryColor = "#6B7280"

// Category represents a transaction category. Categories form a per-user tree
// through ParentID; names are unique among siblings, root categories included.
type Category struct {
	Base
	UserID   string       `gorm:"type:uuid;not null;index;uniqueIndex:idx_categories_user_parent_name;uniqueIndex:idx_categories_user_root_name,where:parent_id IS NULL" json:"user_id"`
	Name     string       `gorm:"size:100;not null;uniqueIndex:idx_categories_user_parent_name;uniqueIndex:idx_categories_user_root_name,where:parent_id IS NULL" json:"name"`
	Type     CategoryType `gorm:"size:10;not null" json:"category_type"`
	Color    string       `gorm:"size:7;not null;default:'#6B7280'" json:"color"`
	ParentID *string      `gorm:"type:uuid;index;uniqueIndex:idx_categories_user_parent_name" json:"parent_id"`
	IsActive bool         `gorm:"not null" json:"is_active"`

	// Relationships
	Parent *Category `gorm:"foreignKey:ParentID" json:"-"`
}
