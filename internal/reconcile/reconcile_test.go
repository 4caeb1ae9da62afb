package reconcile

import (
	"testing"
	"time"

	"github.com/arvkevi/walkup/internal/models"
)

var observedOn = time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)

func resolved(team, player, title, artist string) models.ResolvedSong {
	return models.ResolvedSong{
		WalkupRecord: models.WalkupRecord{
			Team:       team,
			Player:     player,
			SongTitle:  title,
			SongArtist: artist,
			ObservedOn: observedOn,
		},
	}
}

func TestDecideFirstObservation(t *testing.T) {
	r := resolved("yankees", "Aaron Judge", "Thunderstruck", "AC/DC")
	r.Match = models.CatalogMatch{Found: true, URI: "spotify:track:abc", Explicit: false}

	d := Decide(r, nil)

	if d.Action != models.ActionInsert {
		t.Fatalf("expected insert, got %v", d.Action)
	}
	if d.Entry.ID == "" {
		t.Error("new entry should get an id")
	}
	if !d.Entry.IsCurrent {
		t.Error("new entry should be current")
	}
	if d.Entry.CatalogURI == nil || *d.Entry.CatalogURI != "spotify:track:abc" {
		t.Error("catalog uri should carry over from a found match")
	}
	if !d.Entry.FirstSeen.Equal(observedOn) || !d.Entry.LastUpdated.Equal(observedOn) {
		t.Error("new entry dates should be the observation date")
	}
	if d.Event == nil {
		t.Fatal("first observation should emit a change event")
	}
	if d.Event.PreviousTitle != nil || d.Event.PreviousArtist != nil {
		t.Error("first observation event should have nil previous fields")
	}
	if d.Event.NewTitle != "Thunderstruck" {
		t.Errorf("unexpected event title %q", d.Event.NewTitle)
	}
}

func TestDecideUnresolvedObservation(t *testing.T) {
	r := resolved("yankees", "Aaron Judge", "Thunderstruck", "AC/DC")

	d := Decide(r, nil)

	if d.Action != models.ActionInsert {
		t.Fatalf("expected insert, got %v", d.Action)
	}
	if d.Entry.CatalogURI != nil || d.Entry.Explicit != nil {
		t.Error("a lookup miss should leave catalog fields nil")
	}
}

func TestDecideNoOpOnFormattingDrift(t *testing.T) {
	current := &models.SongEntry{
		ID:          "existing-id",
		Team:        "yankees",
		Player:      "Aaron Judge",
		SongTitle:   "Thunderstruck",
		SongArtist:  "AC/DC",
		FirstSeen:   observedOn.AddDate(0, 0, -30),
		LastUpdated: observedOn.AddDate(0, 0, -1),
		IsCurrent:   true,
	}

	// same song, different casing and padding
	r := resolved("yankees", "Aaron Judge", "  thunderstruck ", "ac/dc")

	d := Decide(r, current)

	if d.Action != models.ActionNoOp {
		t.Fatalf("formatting drift must not register as a change, got %v", d.Action)
	}
	if d.Entry.ID != "existing-id" {
		t.Error("noop should carry the existing entry")
	}
	if !d.Entry.LastUpdated.Equal(observedOn) {
		t.Error("noop should refresh last_updated_date")
	}
	if !d.Entry.FirstSeen.Equal(current.FirstSeen) {
		t.Error("noop must not touch first_seen_date")
	}
	if d.Event != nil {
		t.Error("noop should not emit a change event")
	}
}

func TestDecideSupersede(t *testing.T) {
	current := &models.SongEntry{
		ID:          "old-id",
		Team:        "yankees",
		Player:      "Aaron Judge",
		SongTitle:   "Thunderstruck",
		SongArtist:  "AC/DC",
		FirstSeen:   observedOn.AddDate(0, 0, -30),
		LastUpdated: observedOn.AddDate(0, 0, -1),
		IsCurrent:   true,
	}

	r := resolved("yankees", "Aaron Judge", "Enter Sandman", "Metallica")

	d := Decide(r, current)

	if d.Action != models.ActionSupersede {
		t.Fatalf("expected supersede, got %v", d.Action)
	}
	if d.Entry.SongTitle != "Enter Sandman" || !d.Entry.IsCurrent {
		t.Error("new entry should be the current observation")
	}
	if d.Previous == nil {
		t.Fatal("supersede should carry the retired entry")
	}
	if d.Previous.IsCurrent {
		t.Error("retired entry should not be current")
	}
	if d.Previous.ID != "old-id" {
		t.Errorf("retired entry should keep its id, got %q", d.Previous.ID)
	}

	if d.Event == nil {
		t.Fatal("supersede should emit a change event")
	}
	if d.Event.PreviousTitle == nil || *d.Event.PreviousTitle != "Thunderstruck" {
		t.Error("event should record the previous title")
	}
	if d.Event.PreviousArtist == nil || *d.Event.PreviousArtist != "AC/DC" {
		t.Error("event should record the previous artist")
	}
	if d.Event.NewTitle != "Enter Sandman" || d.Event.NewArtist != "Metallica" {
		t.Error("event should record the new song")
	}
	if !d.Event.ChangeDate.Equal(observedOn) {
		t.Error("event date should be the observation date")
	}
}

func TestFirstListed(t *testing.T) {
	records := []models.WalkupRecord{
		resolved("yankees", "Aaron Judge", "Thunderstruck", "AC/DC").WalkupRecord,
		resolved("yankees", "Aaron Judge", "Back in Black", "AC/DC").WalkupRecord,
		resolved("yankees", "Juan Soto", "Suavemente", "Elvis Crespo").WalkupRecord,
		resolved("mets", "Aaron Judge", "Different Team", "Someone").WalkupRecord,
	}

	got := FirstListed(records)

	if len(got) != 3 {
		t.Fatalf("expected 3 records after dedupe, got %d", len(got))
	}
	if got[0].SongTitle != "Thunderstruck" {
		t.Errorf("first listed song should win, got %q", got[0].SongTitle)
	}
	if got[2].Team != "mets" {
		t.Error("same name on another team is a different player")
	}
}
