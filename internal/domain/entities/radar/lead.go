// Package radar defines the core entities of the lead radar: anonymized
// visitor sessions (leads), the purchasing user's balance, and the aggregate
// snapshot that the dashboard consumes.
package radar

import "time"

// Grade classifies a visitor session by purchase intent, S highest to F lowest.
type Grade string

const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeF Grade = "F"
)

// Grades returns all grades in rank order, highest intent first.
func Grades() []Grade {
	return []Grade{GradeS, GradeA, GradeB, GradeC, GradeF}
}

// IsValidGrade reports whether g is one of the known grade values.
func IsValidGrade(g Grade) bool {
	switch g {
	case GradeS, GradeA, GradeB, GradeC, GradeF:
		return true
	}
	return false
}

// LeadStatus is the two-state lifecycle of a lead.
type LeadStatus string

const (
	StatusNew       LeadStatus = "new"
	StatusPurchased LeadStatus = "purchased"
)

// NotificationStatus tracks the post-purchase outreach outcome for a lead.
type NotificationStatus string

const (
	NotificationPending     NotificationStatus = "pending"
	NotificationSent        NotificationStatus = "sent"
	NotificationNoChannel   NotificationStatus = "no_channel"
	NotificationUnreachable NotificationStatus = "unreachable"
	NotificationFailed      NotificationStatus = "failed"
	NotificationSkipped     NotificationStatus = "skipped"
)

// Lead is one anonymized visitor session, or once bought, a purchased contact
// right. While status is "new" the ID is the session identifier; after a
// purchase the ID becomes the purchase transaction identifier. SessionID is
// the immutable anchor across that transition.
type Lead struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	Grade              Grade              `json:"grade"`
	Intent             int                `json:"intent"`
	Prop               string             `json:"prop"`
	Visit              int                `json:"visit"`
	Price              float64            `json:"price"`
	Status             LeadStatus         `json:"status"`
	PurchasedAt        *time.Time         `json:"purchased_at,omitempty"`
	AI                 string             `json:"ai"`
	RemainingHours     *float64           `json:"remainingHours,omitempty"`
	X                  float64            `json:"x"`
	Y                  float64            `json:"y"`
	CreatedAt          *time.Time         `json:"created_at,omitempty"`
	SessionID          string             `json:"session_id"`
	PropertyID         string             `json:"property_id,omitempty"`
	NotificationStatus NotificationStatus `json:"notification_status,omitempty"`
	ConversationID     string             `json:"conversation_id,omitempty"`
}

// IsUnpurchased reports whether the lead can still be bought. For an
// unpurchased lead the ID carries the session identifier that the purchase
// operation expects.
func (l *Lead) IsUnpurchased() bool {
	return l.Status == StatusNew
}

// Clone returns a deep copy of the lead.
func (l *Lead) Clone() *Lead {
	if l == nil {
		return nil
	}
	c := *l
	if l.PurchasedAt != nil {
		t := *l.PurchasedAt
		c.PurchasedAt = &t
	}
	if l.RemainingHours != nil {
		h := *l.RemainingHours
		c.RemainingHours = &h
	}
	if l.CreatedAt != nil {
		t := *l.CreatedAt
		c.CreatedAt = &t
	}
	return &c
}

// Quota is the per-grade remaining free-purchase allowance. Only the top
// grades carry a quota.
type Quota struct {
	S int `json:"s"`
	A int `json:"a"`
}

// UserData is the purchasing agent's spendable balance and quota.
// Points are decimal-valued because the F-grade price is half a point.
type UserData struct {
	Points float64 `json:"points"`
	Quota  Quota   `json:"quota"`
}

// Listing is one of the agent's own property listings shown on the dashboard.
type Listing struct {
	PublicID    string     `json:"public_id"`
	Title       string     `json:"title"`
	Images      []string   `json:"images,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Thumbnail   string     `json:"thumbnail,omitempty"`
	CommunityID string     `json:"community_id,omitempty"`
	View        int        `json:"view"`
	Click       int        `json:"click"`
	Fav         int        `json:"fav"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
}

// FeedPost is one community wall post surfaced on the dashboard.
type FeedPost struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Meta          string     `json:"meta"`
	Body          string     `json:"body"`
	CommunityID   string     `json:"communityId,omitempty"`
	CommunityName string     `json:"communityName,omitempty"`
	LikesCount    int        `json:"likesCount"`
	CommentsCount int        `json:"commentsCount"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}

// AppData is the aggregate snapshot: the unit of caching, optimistic mutation,
// and rollback. Consumers never mutate it in place; it is replaced wholesale.
type AppData struct {
	User     UserData   `json:"user"`
	Leads    []Lead     `json:"leads"`
	Listings []Listing  `json:"listings"`
	Feed     []FeedPost `json:"feed"`
}

// Clone returns a deep copy of the snapshot. The purchase orchestrator clones
// before its optimistic apply so the prior snapshot survives for rollback.
func (d *AppData) Clone() *AppData {
	if d == nil {
		return nil
	}

	out := &AppData{
		User:     d.User,
		Leads:    make([]Lead, len(d.Leads)),
		Listings: make([]Listing, len(d.Listings)),
		Feed:     make([]FeedPost, len(d.Feed)),
	}

	for i, l := range d.Leads {
		c := l
		if l.PurchasedAt != nil {
			t := *l.PurchasedAt
			c.PurchasedAt = &t
		}
		if l.RemainingHours != nil {
			h := *l.RemainingHours
			c.RemainingHours = &h
		}
		if l.CreatedAt != nil {
			t := *l.CreatedAt
			c.CreatedAt = &t
		}
		out.Leads[i] = c
	}

	for i, listing := range d.Listings {
		c := listing
		if listing.Images != nil {
			c.Images = append([]string(nil), listing.Images...)
		}
		if listing.Tags != nil {
			c.Tags = append([]string(nil), listing.Tags...)
		}
		if listing.CreatedAt != nil {
			t := *listing.CreatedAt
			c.CreatedAt = &t
		}
		out.Listings[i] = c
	}

	for i, post := range d.Feed {
		c := post
		if post.CreatedAt != nil {
			t := *post.CreatedAt
			c.CreatedAt = &t
		}
		out.Feed[i] = c
	}

	return out
}

// FindLead returns the lead with the given id, or nil.
func (d *AppData) FindLead(id string) *Lead {
	for i := range d.Leads {
		if d.Leads[i].ID == id {
			return &d.Leads[i]
		}
	}
	return nil
}
