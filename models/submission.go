package models

type Contact struct {
	Base    `bson:",inline"`
	Name    string `bson:"name" json:"name" binding:"required"`
	Email   string `bson:"email" json:"email" binding:"required,email"`
	Phone   string `bson:"phone" json:"phone"`
	Subject string `bson:"subject" json:"subject"`
	Message string `bson:"message" json:"message" binding:"required"`
}

type Subscriber struct {
	Base        `bson:",inline"`
	Email       string `bson:"email" json:"email" binding:"required,email"`
	Unsubscribe bool   `bson:"unsubscribe" json:"unsubscribe"`
}
