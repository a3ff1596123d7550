package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type PushKeys struct {
	P256dh string `bson:"p256dh" json:"p256dh" binding:"required"`
	Auth   string `bson:"auth" json:"auth" binding:"required"`
}

// PushSubscription is a browser web-push endpoint that opted in to publish alerts.
type PushSubscription struct {
	Base     `bson:",inline"`
	Endpoint string              `bson:"endpoint" json:"endpoint" binding:"required,url"`
	Keys     PushKeys            `bson:"keys" json:"keys" binding:"required"`
	UserID   *primitive.ObjectID `bson:"userId,omitempty" json:"userId,omitempty"`
}
