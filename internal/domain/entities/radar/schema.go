package radar

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Raw row types mirror what the data sources hand back before any trust is
// established. Validation policy is strict at the root and resilient for
// collections: a bad user row fails the whole parse, a bad collection row is
// dropped with a warning so one corrupt record cannot blank the dashboard.

// RawUserRow is the untrusted balance row for the purchasing agent.
type RawUserRow struct {
	Points float64 `json:"points" validate:"gte=0"`
	QuotaS int     `json:"quota_s" validate:"gte=0"`
	QuotaA int     `json:"quota_a" validate:"gte=0"`
}

// RawLead is one untrusted session or purchase row.
type RawLead struct {
	ID                 string     `json:"id" validate:"required"`
	Name               string     `json:"name"`
	Grade              string     `json:"grade" validate:"required,oneof=S A B C F"`
	Intent             int        `json:"intent" validate:"gte=0,lte=100"`
	Prop               string     `json:"prop"`
	Visit              int        `json:"visit" validate:"gte=0"`
	Price              float64    `json:"price" validate:"gte=0"`
	Status             string     `json:"status" validate:"required,oneof=new purchased"`
	PurchasedAt        *time.Time `json:"purchased_at"`
	AI                 string     `json:"ai"`
	RemainingHours     *float64   `json:"remainingHours"`
	X                  float64    `json:"x"`
	Y                  float64    `json:"y"`
	CreatedAt          *time.Time `json:"created_at"`
	SessionID          string     `json:"session_id"`
	PropertyID         string     `json:"property_id"`
	NotificationStatus string     `json:"notification_status"`
	ConversationID     string     `json:"conversation_id"`
}

// RawListing is one untrusted listing row.
type RawListing struct {
	PublicID    string     `json:"public_id" validate:"required"`
	Title       string     `json:"title" validate:"required"`
	Images      []string   `json:"images"`
	Tags        []string   `json:"tags"`
	Thumbnail   string     `json:"thumbnail"`
	CommunityID string     `json:"community_id"`
	View        int        `json:"view" validate:"gte=0"`
	Click       int        `json:"click" validate:"gte=0"`
	Fav         int        `json:"fav" validate:"gte=0"`
	CreatedAt   *time.Time `json:"created_at"`
}

// RawFeedPost is one untrusted community post row.
type RawFeedPost struct {
	ID            string     `json:"id" validate:"required"`
	Title         string     `json:"title" validate:"required"`
	Meta          string     `json:"meta"`
	Body          string     `json:"body"`
	CommunityID   string     `json:"communityId"`
	CommunityName string     `json:"communityName"`
	LikesCount    int        `json:"likesCount" validate:"gte=0"`
	CommentsCount int        `json:"commentsCount" validate:"gte=0"`
	CreatedAt     *time.Time `json:"created_at"`
}

// ParseWarning records a dropped collection row.
type ParseWarning struct {
	Collection string `json:"collection"`
	Index      int    `json:"index"`
	ID         string `json:"id,omitempty"`
	Reason     string `json:"reason"`
}

func (w ParseWarning) String() string {
	if w.ID != "" {
		return fmt.Sprintf("%s[%d] id=%s: %s", w.Collection, w.Index, w.ID, w.Reason)
	}
	return fmt.Sprintf("%s[%d]: %s", w.Collection, w.Index, w.Reason)
}

var validate = validator.New()

// ParseSnapshot validates raw rows and assembles the trusted snapshot. The
// user row is required and fatal on failure; invalid leads, listings, and
// posts are dropped and reported. Purchased leads missing a remaining-hours
// value get it computed from the purchase timestamp relative to now.
func ParseSnapshot(rawUser *RawUserRow, rawLeads []RawLead, rawListings []RawListing, rawFeed []RawFeedPost, now time.Time) (*AppData, []ParseWarning, error) {
	if rawUser == nil {
		return nil, nil, fmt.Errorf("user row missing")
	}
	if err := validate.Struct(rawUser); err != nil {
		return nil, nil, fmt.Errorf("user row invalid: %w", err)
	}

	data := &AppData{
		User: UserData{
			Points: rawUser.Points,
			Quota:  Quota{S: rawUser.QuotaS, A: rawUser.QuotaA},
		},
		Leads:    make([]Lead, 0, len(rawLeads)),
		Listings: make([]Listing, 0, len(rawListings)),
		Feed:     make([]FeedPost, 0, len(rawFeed)),
	}
	var warnings []ParseWarning

	for i, raw := range rawLeads {
		if err := validate.Struct(raw); err != nil {
			warnings = append(warnings, ParseWarning{Collection: "leads", Index: i, ID: raw.ID, Reason: err.Error()})
			continue
		}
		lead := Lead{
			ID:                 raw.ID,
			Name:               raw.Name,
			Grade:              Grade(raw.Grade),
			Intent:             raw.Intent,
			Prop:               raw.Prop,
			Visit:              raw.Visit,
			Price:              raw.Price,
			Status:             LeadStatus(raw.Status),
			PurchasedAt:        raw.PurchasedAt,
			AI:                 raw.AI,
			RemainingHours:     raw.RemainingHours,
			X:                  raw.X,
			Y:                  raw.Y,
			CreatedAt:          raw.CreatedAt,
			SessionID:          raw.SessionID,
			PropertyID:         raw.PropertyID,
			NotificationStatus: NotificationStatus(raw.NotificationStatus),
			ConversationID:     raw.ConversationID,
		}
		if lead.SessionID == "" {
			lead.SessionID = lead.ID
		}
		if lead.Status == StatusPurchased && lead.RemainingHours == nil {
			if lead.PurchasedAt != nil {
				h := RemainingProtection(*lead.PurchasedAt, lead.Grade, now)
				lead.RemainingHours = &h
			} else {
				h := ProtectionHoursOf(lead.Grade)
				lead.RemainingHours = &h
			}
		}
		data.Leads = append(data.Leads, lead)
	}

	for i, raw := range rawListings {
		if err := validate.Struct(raw); err != nil {
			warnings = append(warnings, ParseWarning{Collection: "listings", Index: i, ID: raw.PublicID, Reason: err.Error()})
			continue
		}
		data.Listings = append(data.Listings, Listing{
			PublicID:    raw.PublicID,
			Title:       raw.Title,
			Images:      raw.Images,
			Tags:        raw.Tags,
			Thumbnail:   raw.Thumbnail,
			CommunityID: raw.CommunityID,
			View:        raw.View,
			Click:       raw.Click,
			Fav:         raw.Fav,
			CreatedAt:   raw.CreatedAt,
		})
	}

	for i, raw := range rawFeed {
		if err := validate.Struct(raw); err != nil {
			warnings = append(warnings, ParseWarning{Collection: "feed", Index: i, ID: raw.ID, Reason: err.Error()})
			continue
		}
		data.Feed = append(data.Feed, FeedPost{
			ID:            raw.ID,
			Title:         raw.Title,
			Meta:          raw.Meta,
			Body:          raw.Body,
			CommunityID:   raw.CommunityID,
			CommunityName: raw.CommunityName,
			LikesCount:    raw.LikesCount,
			CommentsCount: raw.CommentsCount,
			CreatedAt:     raw.CreatedAt,
		})
	}

	return data, warnings, nil
}
