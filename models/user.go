package models

import "time"

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	UserActive   = "active"
	UserInactive = "inactive"
)

type Social struct {
	Facebook  string `bson:"facebook,omitempty" json:"facebook,omitempty"`
	X         string `bson:"x,omitempty" json:"x,omitempty"`
	LinkedIn  string `bson:"linkedin,omitempty" json:"linkedin,omitempty"`
	Instagram string `bson:"instagram,omitempty" json:"instagram,omitempty"`
}

type User struct {
	Base       `bson:",inline"`
	FirstName  string `bson:"firstname" json:"firstname"`
	LastName   string `bson:"lastname" json:"lastname"`
	Email      string `bson:"email,omitempty" json:"email" binding:"required,email"` // absent for provider accounts without a verified email
	Password   string `bson:"password,omitempty" json:"-"` // bcrypt hash, local accounts only
	GoogleID   string `bson:"googleId,omitempty" json:"googleId,omitempty"`
	FacebookID string `bson:"facebookId,omitempty" json:"facebookId,omitempty"`
	ProfilePic string `bson:"profilePic" json:"profilePic"`
	Role       string `bson:"role" json:"role" binding:"omitempty,oneof=user admin"`
	Status     string `bson:"status" json:"status" binding:"omitempty,oneof=active inactive"`

	Title       string `bson:"title" json:"title"`
	Description string `bson:"description" json:"description"`
	Social      Social `bson:"social" json:"social"`
	Phone       string `bson:"phone" json:"phone"`
	Country     string `bson:"country" json:"country"`
	Address     string `bson:"address" json:"address"`

	LastLogin *time.Time `bson:"lastLogin,omitempty" json:"lastLogin,omitempty"`
}

// ApplyDefaults fills the schema defaults for a new user.
func (u *User) ApplyDefaults() {
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.Status == "" {
		u.Status = UserActive
	}
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
