package radar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validUser() *RawUserRow {
	return &RawUserRow{Points: 25, QuotaS: 1, QuotaA: 2}
}

func TestParseSnapshotUserRowStrict(t *testing.T) {
	_, _, err := ParseSnapshot(nil, nil, nil, nil, time.Now())
	assert.Error(t, err)

	bad := &RawUserRow{Points: -5}
	_, _, err = ParseSnapshot(bad, nil, nil, nil, time.Now())
	assert.Error(t, err)
}

func TestParseSnapshotDropsInvalidLeads(t *testing.T) {
	leads := []RawLead{
		{ID: "s1", Grade: "S", Status: "new", Intent: 95, Price: 20},
		{ID: "s2", Grade: "X", Status: "new", Intent: 50, Price: 3}, // bad grade
		{ID: "s3", Grade: "B", Status: "new", Intent: 55, Price: 3},
	}

	data, warnings, err := ParseSnapshot(validUser(), leads, nil, nil, time.Now())
	require.NoError(t, err)

	require.Len(t, data.Leads, 2)
	assert.Equal(t, "s1", data.Leads[0].ID)
	assert.Equal(t, "s3", data.Leads[1].ID)

	require.Len(t, warnings, 1)
	assert.Equal(t, "leads", warnings[0].Collection)
	assert.Equal(t, 1, warnings[0].Index)
	assert.Equal(t, "s2", warnings[0].ID)
}

func TestParseSnapshotComputesRemainingHours(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	purchased := now.Add(-24 * time.Hour)

	leads := []RawLead{
		{ID: "p1", Grade: "S", Status: "purchased", PurchasedAt: &purchased},
	}

	data, _, err := ParseSnapshot(validUser(), leads, nil, nil, now)
	require.NoError(t, err)
	require.Len(t, data.Leads, 1)
	require.NotNil(t, data.Leads[0].RemainingHours)
	assert.InDelta(t, 48, *data.Leads[0].RemainingHours, 0.001)
}

func TestParseSnapshotKeepsProvidedRemainingHours(t *testing.T) {
	now := time.Now()
	purchased := now.Add(-70 * time.Hour)
	provided := 12.5

	leads := []RawLead{
		{ID: "p1", Grade: "S", Status: "purchased", PurchasedAt: &purchased, RemainingHours: &provided},
	}

	data, _, err := ParseSnapshot(validUser(), leads, nil, nil, now)
	require.NoError(t, err)
	assert.Equal(t, 12.5, *data.Leads[0].RemainingHours)
}

func TestParseSnapshotPurchasedWithoutTimestamp(t *testing.T) {
	leads := []RawLead{
		{ID: "p1", Grade: "A", Status: "purchased"},
	}

	data, _, err := ParseSnapshot(validUser(), leads, nil, nil, time.Now())
	require.NoError(t, err)
	require.NotNil(t, data.Leads[0].RemainingHours)
	assert.Equal(t, 48.0, *data.Leads[0].RemainingHours)
}

func TestParseSnapshotBackfillsSessionID(t *testing.T) {
	leads := []RawLead{
		{ID: "s1", Grade: "C", Status: "new"},
	}

	data, _, err := ParseSnapshot(validUser(), leads, nil, nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "s1", data.Leads[0].SessionID)
}

func TestParseSnapshotDropsInvalidCollectionsIndependently(t *testing.T) {
	listings := []RawListing{
		{PublicID: "l1", Title: "Garden flat"},
		{PublicID: "", Title: "No id"},
	}
	feed := []RawFeedPost{
		{ID: "f1", Title: "Open house this weekend"},
		{ID: "f2", Title: ""},
	}

	data, warnings, err := ParseSnapshot(validUser(), nil, listings, feed, time.Now())
	require.NoError(t, err)

	assert.Len(t, data.Listings, 1)
	assert.Len(t, data.Feed, 1)
	assert.Len(t, warnings, 2)
}

func TestPurchaseResultValidate(t *testing.T) {
	ok := &PurchaseResult{Success: true, PurchaseID: "2c9e4a1e-9d5b-4f6a-8c3d-1b2a3c4d5e6f"}
	assert.NoError(t, ok.Validate())

	missing := &PurchaseResult{Success: true}
	assert.ErrorIs(t, missing.Validate(), ErrInvalidPurchaseResult)

	malformed := &PurchaseResult{Success: true, PurchaseID: "not-a-uuid"}
	assert.ErrorIs(t, malformed.Validate(), ErrInvalidPurchaseResult)

	failure := &PurchaseResult{Success: false, Error: "insufficient points"}
	assert.NoError(t, failure.Validate())

	badConv := &PurchaseResult{Success: false, ConversationID: "nope"}
	assert.ErrorIs(t, badConv.Validate(), ErrInvalidPurchaseResult)
}

func TestAppDataClone(t *testing.T) {
	ts := time.Now()
	hours := 10.0
	original := &AppData{
		User: UserData{Points: 20, Quota: Quota{S: 1, A: 2}},
		Leads: []Lead{
			{ID: "s1", Grade: GradeS, Status: StatusNew},
			{ID: "p1", Grade: GradeA, Status: StatusPurchased, PurchasedAt: &ts, RemainingHours: &hours},
		},
		Listings: []Listing{{PublicID: "l1", Images: []string{"a.jpg"}}},
		Feed:     []FeedPost{{ID: "f1"}},
	}

	clone := original.Clone()
	require.NotNil(t, clone)

	clone.User.Points = 0
	clone.Leads[0].Status = StatusPurchased
	*clone.Leads[1].RemainingHours = 99
	clone.Listings[0].Images[0] = "b.jpg"

	assert.Equal(t, 20.0, original.User.Points)
	assert.Equal(t, StatusNew, original.Leads[0].Status)
	assert.Equal(t, 10.0, *original.Leads[1].RemainingHours)
	assert.Equal(t, "a.jpg", original.Listings[0].Images[0])
}

func TestFindLead(t *testing.T) {
	data := &AppData{Leads: []Lead{{ID: "s1"}, {ID: "s2"}}}
	require.NotNil(t, data.FindLead("s2"))
	assert.Nil(t, data.FindLead("missing"))
}
