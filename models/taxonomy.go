package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Category struct {
	Base            `bson:",inline"`
	Title           string `bson:"title" json:"title" binding:"required"`
	Slug            string `bson:"slug" json:"slug" binding:"required,slug"`
	Description     string `bson:"description" json:"description"`
	MetaTitle       string `bson:"metaTitle" json:"metaTitle"`
	MetaDescription string `bson:"metaDescription" json:"metaDescription"`
	MetaKeyword     string `bson:"metaKeyword" json:"metaKeyword"`
	Navigation      bool   `bson:"navigation" json:"navigation"`
}

type Subcategory struct {
	Base            `bson:",inline"`
	Title           string              `bson:"title" json:"title"`
	Slug            string              `bson:"slug" json:"slug" binding:"required,slug"`
	ParentCategory  *primitive.ObjectID `bson:"parentcategory" json:"parentcategory"`
	Description     string              `bson:"description" json:"description"`
	MetaTitle       string              `bson:"metaTitle" json:"metaTitle"`
	MetaDescription string              `bson:"metaDescription" json:"metaDescription"`
	MetaKeyword     string              `bson:"metaKeyword" json:"metaKeyword"`
}
