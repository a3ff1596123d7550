package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"reviewcms/config"
	"reviewcms/database"
	"reviewcms/metrics"
	"reviewcms/models"

	"github.com/SherClockHolmes/webpush-go"
)

type sendFunc func(payload []byte, sub *webpush.Subscription, opts *webpush.Options) (*http.Response, error)

// Push sends a web push to every stored subscription when content is published.
type Push struct {
	subs  database.Repository[models.PushSubscription]
	vapid config.VAPIDConfig
	site  string
	send  sendFunc
}

func NewPush(subs database.Repository[models.PushSubscription], vapid config.VAPIDConfig, publicURL string) *Push {
	return &Push{subs: subs, vapid: vapid, site: publicURL, send: webpush.SendNotification}
}

func (p *Push) Publish(_ context.Context, e Event) {
	if !announces(e) {
		return
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Panic in push notification: %v", r)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		p.Deliver(ctx, e)
	}()
}

// announces reports whether e is a piece of content going live: created
// as published, or updated from another status to published.
func announces(e Event) bool {
	if e.Status != models.StatusPublished {
		return false
	}
	switch e.Type {
	case EventCreated:
	case EventUpdated:
		if e.Previous == models.StatusPublished {
			return false
		}
	default:
		return false
	}
	switch e.Resource {
	case models.TypeArticle, models.TypeReview, models.TypeComparison:
		return true
	}
	return false
}

// Deliver sends e to every subscription synchronously and prunes the gone ones.
func (p *Push) Deliver(ctx context.Context, e Event) {
	subs, err := p.subs.List(ctx, database.ListOptions{})
	if err != nil {
		log.Printf("❌ Failed to list push subscriptions: %v", err)
		return
	}
	if len(subs) == 0 {
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"title": "New " + e.Resource + " published",
		"body":  e.Title,
		"data": map[string]interface{}{
			"url":       fmt.Sprintf("%s/%ss/%s", p.site, e.Resource, e.Slug),
			"timestamp": e.At.Unix(),
		},
	})
	if err != nil {
		log.Printf("Failed to marshal push payload: %v", err)
		return
	}

	opts := &webpush.Options{
		Subscriber:      p.vapid.Subject,
		VAPIDPublicKey:  p.vapid.PublicKey,
		VAPIDPrivateKey: p.vapid.PrivateKey,
		TTL:             3600,
	}

	sent := 0
	for _, s := range subs {
		sub := &webpush.Subscription{
			Endpoint: s.Endpoint,
			Keys:     webpush.Keys{P256dh: s.Keys.P256dh, Auth: s.Keys.Auth},
		}
		resp, err := p.send(payload, sub, opts)
		if err != nil {
			metrics.RecordPush("error")
			log.Printf("Failed to send push notification to %s: %v", s.ID.Hex(), err)
			continue
		}
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
			metrics.RecordPush("gone")
			log.Printf("Push subscription %s expired, deleting...", s.ID.Hex())
			if _, err := p.subs.Delete(ctx, s.ID); err != nil {
				log.Printf("Failed to delete expired subscription: %v", err)
			}
		case resp.StatusCode >= 300:
			metrics.RecordPush("error")
			log.Printf("Push to %s rejected with status %d", s.ID.Hex(), resp.StatusCode)
		default:
			metrics.RecordPush("sent")
			sent++
		}
	}
	log.Printf("📣 Push for %s %s delivered to %d/%d subscriptions", e.Resource, e.ID, sent, len(subs))
}

// GenerateVAPIDKeys returns a fresh (public, private) key pair.
func GenerateVAPIDKeys() (string, string, error) {
	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	return publicKey, privateKey, err
}
