package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type Comment struct {
	Base     `bson:",inline"`
	UserID   primitive.ObjectID `bson:"userId" json:"userId"` // defaults to the caller
	Body     string             `bson:"body" json:"body" binding:"required"`
	PostID   primitive.ObjectID `bson:"postId" json:"postId" binding:"required"`
	PostType string             `bson:"postType" json:"postType"` // set server-side: article, review or comparison
}
