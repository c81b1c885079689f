package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediasync/internal/domain"
)

func episode(id, date string) domain.MediaItem {
	return domain.MediaItem{
		ID:          id,
		Title:       "Episode " + id,
		Date:        date,
		ContentType: domain.DefaultContentType,
		Links: []domain.Link{
			{Type: "video", URL: "https://www.youtube.com/watch?v=" + id, Platform: "YouTube"},
		},
		Duration:    "3m",
		DurationISO: "PT3M0S",
		Description: "desc " + id,
		Image:       "https://img.example/" + id + "/high.jpg",
		Thumbnails: domain.Thumbnails{
			Default: "https://img.example/" + id + "/default.jpg",
			High:    "https://img.example/" + id + "/high.jpg",
		},
	}
}

func TestDiff_NewAndUnchanged(t *testing.T) {
	old := []domain.MediaItem{episode("v1", "2024-01-01")}
	incoming := []domain.MediaItem{episode("v1", "2024-01-01"), episode("v2", "2024-01-02")}

	plan := Diff(old, incoming)

	require.Len(t, plan.Inserts, 1)
	assert.Equal(t, "v2", plan.Inserts[0].ID)
	assert.Empty(t, plan.Updates)
	assert.Equal(t, 1, plan.Unchanged)
}

func TestDiff_ThumbnailDriftMarksDirty(t *testing.T) {
	old := []domain.MediaItem{episode("v1", "2024-01-01")}
	in := episode("v1", "2024-01-01")
	in.Thumbnails.Maxres = "https://img.example/v1/maxres.jpg"

	plan := Diff(old, []domain.MediaItem{in})

	assert.Empty(t, plan.Inserts)
	require.Len(t, plan.Updates, 1)
	assert.Equal(t, 0, plan.Unchanged)
}

func TestDiff_TitleDriftMarksDirty(t *testing.T) {
	old := []domain.MediaItem{episode("v1", "2024-01-01")}
	in := episode("v1", "2024-01-01")
	in.Title = "Episode v1 (remastered)"

	plan := Diff(old, []domain.MediaItem{in})

	require.Len(t, plan.Updates, 1)
	assert.Equal(t, "Episode v1 (remastered)", plan.Updates[0].Title)
}

func TestDiff_PreservesCuratedLinks(t *testing.T) {
	old := episode("v1", "2024-01-01")
	old.Links = append(old.Links, domain.Link{
		Type:     "audio",
		URL:      "https://podcasts.apple.com/ep/v1",
		Platform: "Apple Podcasts",
	})

	in := episode("v1", "2024-01-01")
	in.Description = "updated"

	plan := Diff([]domain.MediaItem{old}, []domain.MediaItem{in})
	require.Len(t, plan.Updates, 1)

	merged := plan.Updates[0]
	assert.Equal(t, "updated", merged.Description)
	require.Len(t, merged.Links, 2)
	assert.True(t, merged.HasLinkFor("YouTube"))
	assert.True(t, merged.HasLinkFor("Apple Podcasts"))
}

func TestDiff_RederivesImageFromThumbnails(t *testing.T) {
	old := episode("v1", "2024-01-01")
	in := episode("v1", "2024-01-01")
	in.Thumbnails.High = ""
	in.Image = "stale"

	plan := Diff([]domain.MediaItem{old}, []domain.MediaItem{in})
	require.Len(t, plan.Updates, 1)
	assert.Equal(t, in.Thumbnails.Default, plan.Updates[0].Image)
}

func TestApply_Idempotent(t *testing.T) {
	old := []domain.MediaItem{episode("v2", "2024-01-02"), episode("v1", "2024-01-01")}
	incoming := []domain.MediaItem{episode("v1", "2024-01-01"), episode("v2", "2024-01-02")}

	plan := Diff(old, incoming)
	snapshot, changed, purged := Apply(old, plan)

	assert.False(t, changed, "identical data must not trigger a write")
	assert.Zero(t, purged)
	assert.Equal(t, old, snapshot)
}

func TestApply_InsertSortsNewestFirst(t *testing.T) {
	old := []domain.MediaItem{episode("v1", "2024-01-01")}
	plan := Diff(old, []domain.MediaItem{episode("v2", "2024-03-01")})

	snapshot, changed, _ := Apply(old, plan)

	assert.True(t, changed)
	require.Len(t, snapshot, 2)
	assert.Equal(t, "v2", snapshot[0].ID)
	assert.Equal(t, "v1", snapshot[1].ID)
}

func TestApply_NoDuplicateIDs(t *testing.T) {
	old := []domain.MediaItem{episode("v1", "2024-01-01")}
	in := episode("v1", "2024-01-01")
	in.Title = "changed"

	plan := Diff(old, []domain.MediaItem{in, episode("v2", "2024-01-02")})
	snapshot, _, _ := Apply(old, plan)

	seen := map[string]bool{}
	for _, item := range snapshot {
		assert.False(t, seen[item.ID], "duplicate id %s", item.ID)
		seen[item.ID] = true
	}
	assert.Len(t, snapshot, 2)
}

func TestApply_RetroactivePurge(t *testing.T) {
	short := episode("v1", "2024-01-01")
	short.DurationISO = "PT1M30S" // 90s, below the threshold
	short.Duration = "1m"
	old := []domain.MediaItem{short, episode("v2", "2024-01-02")}

	snapshot, changed, purged := Apply(old, Diff(old, nil))

	assert.True(t, changed, "purge alone triggers a write")
	assert.Equal(t, 1, purged)
	require.Len(t, snapshot, 1)
	assert.Equal(t, "v2", snapshot[0].ID)
}

func TestApply_PurgeFallsBackToDisplayDuration(t *testing.T) {
	legacy := episode("v1", "2024-01-01")
	legacy.DurationISO = "" // pre-dates raw encoding retention
	legacy.Duration = "1m"
	old := []domain.MediaItem{legacy}

	snapshot, changed, purged := Apply(old, Plan{})

	assert.True(t, changed)
	assert.Equal(t, 1, purged)
	assert.Empty(t, snapshot)
}

func TestApply_LegacyLongDisplayKept(t *testing.T) {
	legacy := episode("v1", "2024-01-01")
	legacy.DurationISO = ""
	legacy.Duration = "1h 30m"

	snapshot, changed, _ := Apply([]domain.MediaItem{legacy}, Plan{})

	assert.False(t, changed)
	assert.Len(t, snapshot, 1)
}

func TestApply_SortStability(t *testing.T) {
	a := episode("a", "2024-01-01")
	b := episode("b", "2024-01-01")
	c := episode("c", "2024-01-01")
	old := []domain.MediaItem{a, b, c}

	// Repeated applies with a same-date insert keep relative order of ties.
	plan := Diff(old, []domain.MediaItem{episode("d", "2024-01-01")})
	snapshot, _, _ := Apply(old, plan)

	var order []string
	for _, item := range snapshot {
		order = append(order, item.ID)
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, order)

	snapshot2, changed, _ := Apply(snapshot, Diff(snapshot, snapshot))
	assert.False(t, changed)
	assert.Equal(t, snapshot, snapshot2)
}

func TestNewSince(t *testing.T) {
	incoming := []domain.MediaItem{
		episode("v1", "2023-12-31"), // before cutoff
		episode("v2", "2024-01-01"), // on cutoff, already present
		episode("v3", "2024-01-02"),
	}
	existing := map[string]struct{}{"v2": {}}

	fresh := NewSince(existing, "2024-01-01", incoming)

	require.Len(t, fresh, 1)
	assert.Equal(t, "v3", fresh[0].ID)
}

func TestNewSince_NoPersistedDate(t *testing.T) {
	incoming := []domain.MediaItem{episode("v1", "2020-05-05"), episode("v2", "2024-01-02")}

	fresh := NewSince(map[string]struct{}{}, "", incoming)

	assert.Len(t, fresh, 2, "all remote items are candidates when nothing is persisted")
}
