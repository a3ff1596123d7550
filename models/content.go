package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type DigitalSoftware struct {
	Image        string `bson:"image" json:"image"`
	Title        string `bson:"title" json:"title"`
	Description  string `bson:"description" json:"description"`
	AffiliateURL string `bson:"affiliate_url" json:"affiliate_url"`
	Subscription string `bson:"subscription" json:"subscription"`
}

type Product struct {
	Image        string `bson:"image" json:"image"`
	Title        string `bson:"title" json:"title"`
	Description  string `bson:"description" json:"description"`
	AffiliateURL string `bson:"affiliate_url" json:"affiliate_url"`
	Price        string `bson:"price" json:"price"`
	OfPrice      string `bson:"ofprice" json:"ofprice"`
	Store        string `bson:"store" json:"store"`
}

// Specification is a single named row on a review.
type Specification struct {
	Name  string `bson:"name" json:"name"`
	Value string `bson:"value" json:"value"`
}

// ComparisonSpec is a named row holding one value per compared product.
type ComparisonSpec struct {
	Name   string `bson:"name" json:"name"`
	Value1 string `bson:"value1" json:"value1"`
	Value2 string `bson:"value2" json:"value2"`
}

type Article struct {
	Base            `bson:",inline"`
	Title           string               `bson:"title" json:"title" binding:"required"`
	Slug            string               `bson:"slug" json:"slug" binding:"required,slug"`
	FocusKeyword    string               `bson:"focuskeyword" json:"focuskeyword"`
	Keyword         string               `bson:"keyword" json:"keyword"`
	Description     string               `bson:"description" json:"description"`
	Content         string               `bson:"content" json:"content"`
	Thumbnail       string               `bson:"thumbnail" json:"thumbnail"`
	Status          string               `bson:"status" json:"status" binding:"omitempty,oneof=published draft"`
	Type            string               `bson:"type" json:"type" binding:"omitempty,oneof=article comparison review"`
	DigitalSoftware DigitalSoftware      `bson:"digitalsoftware" json:"digitalsoftware"`
	Product         []Product            `bson:"product" json:"product"`
	Category        primitive.ObjectID   `bson:"category" json:"category" binding:"required"`
	Subcategory     *primitive.ObjectID  `bson:"subcategory" json:"subcategory"`
	Author          primitive.ObjectID   `bson:"author" json:"author" binding:"required"`
	Comments        []primitive.ObjectID `bson:"comments" json:"comments"`
}

func (a *Article) ApplyDefaults() {
	if a.Status == "" {
		a.Status = StatusDraft
	}
	if a.Type == "" {
		a.Type = TypeArticle
	}
	if a.Product == nil {
		a.Product = []Product{}
	}
	if a.Comments == nil {
		a.Comments = []primitive.ObjectID{}
	}
}

type Review struct {
	Base            `bson:",inline"`
	Title           string               `bson:"title" json:"title" binding:"required"`
	Slug            string               `bson:"slug" json:"slug" binding:"required,slug"`
	FocusKeyword    string               `bson:"focus_keyword" json:"focus_keyword"`
	Keyword         string               `bson:"keyword" json:"keyword"`
	Description     string               `bson:"description" json:"description"`
	Content         string               `bson:"content" json:"content"`
	Thumbnail       string               `bson:"thumbnail" json:"thumbnail"`
	Pros            []string             `bson:"pros" json:"pros"`
	Cons            []string             `bson:"cons" json:"cons"`
	Specification   []Specification      `bson:"specification" json:"specification"`
	Category        primitive.ObjectID   `bson:"category" json:"category" binding:"required"`
	Subcategory     primitive.ObjectID   `bson:"subcategory" json:"subcategory" binding:"required"`
	Author          primitive.ObjectID   `bson:"author" json:"author" binding:"required"`
	Rating          float64              `bson:"rating" json:"rating" binding:"gte=0,lte=5"`
	Views           int64                `bson:"views" json:"views" binding:"gte=0"`
	Comments        []primitive.ObjectID `bson:"comments" json:"comments"`
	WhyWePick       string               `bson:"why_we_pick" json:"why_we_pick"`
	WhoItWorksFor   string               `bson:"who_it_works_for" json:"who_it_works_for"`
	BottomLine      string               `bson:"bottomline" json:"bottomline"`
	DigitalSoftware DigitalSoftware      `bson:"digitalsoftware" json:"digitalsoftware"`
	Product         []Product            `bson:"product" json:"product"`
	Type            string               `bson:"type" json:"type" binding:"omitempty,oneof=article comparison review"`
	Status          string               `bson:"status" json:"status" binding:"omitempty,oneof=published draft"`
}

func (r *Review) ApplyDefaults() {
	if r.Status == "" {
		r.Status = StatusDraft
	}
	if r.Type == "" {
		r.Type = TypeReview
	}
	if r.Pros == nil {
		r.Pros = []string{}
	}
	if r.Cons == nil {
		r.Cons = []string{}
	}
	if r.Specification == nil {
		r.Specification = []Specification{}
	}
	if r.Product == nil {
		r.Product = []Product{}
	}
	if r.Comments == nil {
		r.Comments = []primitive.ObjectID{}
	}
}

type Comparison struct {
	Base          `bson:",inline"`
	Title         string               `bson:"title" json:"title" binding:"required"`
	FocusKeyword  string               `bson:"focus_keyword" json:"focus_keyword"`
	Slug          string               `bson:"slug" json:"slug" binding:"required,slug"`
	Description   string               `bson:"description" json:"description"`
	Specification []ComparisonSpec     `bson:"specification" json:"specification"`
	Product1      primitive.ObjectID   `bson:"product1" json:"product1" binding:"required"`
	Product2      primitive.ObjectID   `bson:"product2" json:"product2" binding:"required"`
	Content       string               `bson:"content" json:"content"`
	Category      primitive.ObjectID   `bson:"category" json:"category" binding:"required"`
	Subcategory   primitive.ObjectID   `bson:"subcategory" json:"subcategory" binding:"required"`
	Author        primitive.ObjectID   `bson:"author" json:"author" binding:"required"`
	Comments      []primitive.ObjectID `bson:"comments" json:"comments"`
	Thumbnail     string               `bson:"thumbnail" json:"thumbnail"`
	Keyword       string               `bson:"keyword" json:"keyword"`
	Type          string               `bson:"type" json:"type" binding:"omitempty,oneof=article comparison review"`
	Status        string               `bson:"status" json:"status" binding:"omitempty,oneof=published draft"`
}

func (c *Comparison) ApplyDefaults() {
	if c.Status == "" {
		c.Status = StatusDraft
	}
	if c.Type == "" {
		c.Type = TypeComparison
	}
	if c.Specification == nil {
		c.Specification = []ComparisonSpec{}
	}
	if c.Comments == nil {
		c.Comments = []primitive.ObjectID{}
	}
}
