package models

import "gorm.io/gorm"

type CodeSnippet struct {
	gorm.Model
	UserID   uint   `gorm:"index;not null" json:"user_id"`
	Title    string `gorm:"not null" json:"title"`
	Language string `gorm:"not null" json:"language"`
	Code     string `gorm:"not null" json:"code"`
	Stdin    string `json:"stdin"`
}
