package models

import "gorm.io/gorm"

// AutoMigrate creates or updates the tables for every model. Order matters:
// referenced tables come first so foreign keys can be declared inline.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Group{},
		&Post{},
		&Comment{},
		&Follow{},
	)
}
