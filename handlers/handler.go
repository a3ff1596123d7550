package handlers

import (
	"reviewcms/auth"
	"reviewcms/config"
	"reviewcms/database"
	"reviewcms/filestore"
	"reviewcms/models"
	"reviewcms/notify"
	"reviewcms/session"
)

// Repos is the set of collections the handlers read and write.
type Repos struct {
	Users         database.Repository[models.User]
	Categories    database.Repository[models.Category]
	Subcategories database.Repository[models.Subcategory]
	Articles      database.Repository[models.Article]
	Reviews       database.Repository[models.Review]
	Comparisons   database.Repository[models.Comparison]
	Comments      database.Repository[models.Comment]
	Contacts      database.Repository[models.Contact]
	Subscribers   database.Repository[models.Subscriber]
	PushSubs      database.Repository[models.PushSubscription]
}

// MongoRepos binds every repository to its collection in db.
func MongoRepos(db *database.DB) Repos {
	return Repos{
		Users:         database.NewCollection[models.User](db.Collection(database.ColUsers)),
		Categories:    database.NewCollection[models.Category](db.Collection(database.ColCategories)),
		Subcategories: database.NewCollection[models.Subcategory](db.Collection(database.ColSubcategories)),
		Articles:      database.NewCollection[models.Article](db.Collection(database.ColArticles)),
		Reviews:       database.NewCollection[models.Review](db.Collection(database.ColReviews)),
		Comparisons:   database.NewCollection[models.Comparison](db.Collection(database.ColComparisons)),
		Comments:      database.NewCollection[models.Comment](db.Collection(database.ColComments)),
		Contacts:      database.NewCollection[models.Contact](db.Collection(database.ColContacts)),
		Subscribers:   database.NewCollection[models.Subscriber](db.Collection(database.ColSubscribers)),
		PushSubs:      database.NewCollection[models.PushSubscription](db.Collection(database.ColPushSubscriptions)),
	}
}

// Deps are the collaborators a Handler is built from.
type Deps struct {
	Config    *config.Config
	Repos     Repos
	Tokens    *auth.Tokens
	Verifiers *auth.Registry
	Sessions  *session.Manager
	Uploader  *filestore.Uploader
	Events    notify.Publisher
}

// Handler serves every API route.
type Handler struct {
	Deps

	users         *resource[models.User]
	categories    *resource[models.Category]
	subcategories *resource[models.Subcategory]
	articles      *resource[models.Article]
	reviews       *resource[models.Review]
	comparisons   *resource[models.Comparison]
	comments      *resource[models.Comment]
	contacts      *resource[models.Contact]
	subscribers   *resource[models.Subscriber]
}

func New(d Deps) *Handler {
	if d.Events == nil {
		d.Events = notify.Nop{}
	}
	h := &Handler{Deps: d}
	h.users = h.userResource()
	h.categories = h.categoryResource()
	h.subcategories = h.subcategoryResource()
	h.articles = h.articleResource()
	h.reviews = h.reviewResource()
	h.comparisons = h.comparisonResource()
	h.comments = h.commentResource()
	h.contacts = h.contactResource()
	h.subscribers = h.subscriberResource()
	return h
}

// Resource accessors used by the router.

func (h *Handler) Users() CRUD         { return h.users }
func (h *Handler) Categories() CRUD    { return h.categories }
func (h *Handler) Subcategories() CRUD { return h.subcategories }
func (h *Handler) Articles() CRUD      { return h.articles }
func (h *Handler) Reviews() CRUD       { return h.reviews }
func (h *Handler) Comparisons() CRUD   { return h.comparisons }
func (h *Handler) Comments() CRUD      { return h.comments }
func (h *Handler) Contacts() CRUD      { return h.contacts }
func (h *Handler) Subscribers() CRUD   { return h.subscribers }
