package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToIngestRequest_MapsSheet(t *testing.T) {
	raceDay := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	req := IngestEventRequest{
		SourceEventID: "liverc-48121",
		EventName:     "Club Race Round 5",
		EventDate:     raceDay,
		Track:         "Stadium RC Raceway",
		Drivers: []IngestDriverRequest{
			{SourceDriverID: "d-1", DisplayName: "Jayson Brenton", Transponder: "7712345"},
			{SourceDriverID: "d-2", DisplayName: "Kaitlyn Reeve"},
		},
		Entries: []IngestEntryRequest{
			{SourceDriverID: "d-1", ClassName: "Mod Buggy", Transponder: "7712345"},
		},
	}

	out := toIngestRequest(req)

	assert.Equal(t, "liverc-48121", out.SourceEventID)
	assert.Equal(t, "Club Race Round 5", out.EventName)
	assert.Equal(t, raceDay, out.EventDate)
	assert.Equal(t, "Stadium RC Raceway", out.Track)

	assert.Len(t, out.Drivers, 2)
	assert.Equal(t, "d-1", out.Drivers[0].SourceDriverID)
	assert.Equal(t, "Jayson Brenton", out.Drivers[0].DisplayName)
	assert.Equal(t, "7712345", out.Drivers[0].Transponder)
	assert.Empty(t, out.Drivers[1].Transponder)

	assert.Len(t, out.Entries, 1)
	assert.Equal(t, "Mod Buggy", out.Entries[0].ClassName)
}

func TestToIngestRequest_NoEntries(t *testing.T) {
	out := toIngestRequest(IngestEventRequest{
		SourceEventID: "liverc-48122",
		EventName:     "Practice Day",
		EventDate:     time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
		Drivers: []IngestDriverRequest{
			{SourceDriverID: "d-1", DisplayName: "Jayson Brenton"},
		},
	})

	assert.Len(t, out.Drivers, 1)
	assert.NotNil(t, out.Entries)
	assert.Empty(t, out.Entries)
}
