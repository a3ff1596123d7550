package notify

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"reviewcms/config"
	"reviewcms/database"
	"reviewcms/models"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnnounces(t *testing.T) {
	assert.True(t, announces(Event{Type: EventCreated, Resource: models.TypeReview, Status: models.StatusPublished}))
	assert.True(t, announces(Event{Type: EventUpdated, Resource: models.TypeArticle, Status: models.StatusPublished, Previous: models.StatusDraft}))
	assert.False(t, announces(Event{Type: EventUpdated, Resource: models.TypeArticle, Status: models.StatusPublished, Previous: models.StatusPublished}))
	assert.False(t, announces(Event{Type: EventUpdated, Resource: models.TypeArticle, Status: models.StatusDraft, Previous: models.StatusPublished}))
	assert.False(t, announces(Event{Type: EventCreated, Resource: models.TypeReview, Status: models.StatusDraft}))
	assert.False(t, announces(Event{Type: EventDeleted, Resource: models.TypeReview, Status: models.StatusPublished}))
	assert.False(t, announces(Event{Type: EventCreated, Resource: "category", Status: models.StatusPublished}))
}

func TestPush_DeliverPrunesGoneSubscriptions(t *testing.T) {
	subs := database.NewMemory[models.PushSubscription]("endpoint")
	ctx := context.Background()
	live := &models.PushSubscription{Endpoint: "https://push.example/live", Keys: models.PushKeys{P256dh: "p", Auth: "a"}}
	gone := &models.PushSubscription{Endpoint: "https://push.example/gone", Keys: models.PushKeys{P256dh: "p", Auth: "a"}}
	require.NoError(t, subs.Create(ctx, live))
	require.NoError(t, subs.Create(ctx, gone))

	var endpoints []string
	var body string
	p := NewPush(subs, config.VAPIDConfig{PublicKey: "pub", PrivateKey: "priv", Subject: "mailto:a@b.c"}, "https://cms.example")
	p.send = func(payload []byte, sub *webpush.Subscription, opts *webpush.Options) (*http.Response, error) {
		endpoints = append(endpoints, sub.Endpoint)
		body = string(payload)
		assert.Equal(t, "priv", opts.VAPIDPrivateKey)
		status := http.StatusCreated
		if strings.HasSuffix(sub.Endpoint, "gone") {
			status = http.StatusGone
		}
		return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(""))}, nil
	}

	p.Deliver(ctx, Event{Type: EventCreated, Resource: models.TypeReview, Title: "Best Laptops", Slug: "best-laptops", Status: models.StatusPublished, At: time.Now()})

	assert.ElementsMatch(t, []string{live.Endpoint, gone.Endpoint}, endpoints)
	assert.Contains(t, body, "Best Laptops")
	assert.Contains(t, body, "https://cms.example/reviews/best-laptops")

	_, err := subs.Get(ctx, gone.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)
	_, err = subs.Get(ctx, live.ID)
	assert.NoError(t, err)
}

func TestMulti(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	Multi{a, Nop{}, b}.Publish(context.Background(), Event{Type: EventCreated, ID: "1"})
	assert.Len(t, a.Events, 1)
	assert.Len(t, b.Events, 1)
}

func TestGenerateVAPIDKeys(t *testing.T) {
	pub, priv, err := GenerateVAPIDKeys()
	require.NoError(t, err)
	assert.NotEmpty(t, pub)
	assert.NotEmpty(t, priv)
	assert.NotEqual(t, pub, priv)
}
