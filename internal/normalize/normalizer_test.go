package normalize

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediasync/internal/domain"
)

func rawItem(id, iso string) domain.RawItem {
	return domain.RawItem{
		ID:          id,
		Title:       "Ep1",
		Description: "desc",
		PublishedAt: time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC),
		DurationISO: iso,
		Thumbnails: domain.Thumbnails{
			Default: "https://img.example/default.jpg",
			High:    "https://img.example/high.jpg",
		},
		Platform: "YouTube",
		WatchURL: "https://www.youtube.com/watch?v=" + id,
	}
}

func TestNormalize(t *testing.T) {
	item, err := Normalize(rawItem("v1", "PT3M0S"))
	require.NoError(t, err)

	assert.Equal(t, "v1", item.ID)
	assert.Equal(t, "2024-01-01", item.Date, "timestamp truncated to date")
	assert.Equal(t, "podcast", item.ContentType)
	assert.Equal(t, "3m", item.Duration)
	assert.Equal(t, "PT3M0S", item.DurationISO, "raw encoding retained verbatim")
	assert.Equal(t, "https://img.example/high.jpg", item.Image)
	require.Len(t, item.Links, 1)
	assert.Equal(t, domain.Link{
		Type:     "video",
		URL:      "https://www.youtube.com/watch?v=v1",
		Platform: "YouTube",
	}, item.Links[0])
}

func TestNormalize_ImageFallsBackToDefault(t *testing.T) {
	raw := rawItem("v1", "PT3M")
	raw.Thumbnails.High = ""

	item, err := Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/default.jpg", item.Image)
}

func TestNormalize_FilterBoundary(t *testing.T) {
	_, err := Normalize(rawItem("v1", "PT1M59S")) // 119s
	assert.ErrorIs(t, err, ErrShortContent)

	_, err = Normalize(rawItem("v2", "PT2M")) // 120s
	assert.NoError(t, err)
}

func TestNormalize_MissingDurationFiltered(t *testing.T) {
	// No duration decodes to zero seconds, which is short content.
	_, err := Normalize(rawItem("v1", ""))
	assert.ErrorIs(t, err, ErrShortContent)
}

func TestNormalize_MalformedItem(t *testing.T) {
	raw := rawItem("", "PT3M")
	_, err := Normalize(raw)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrShortContent))

	raw = rawItem("v1", "PT3M")
	raw.PublishedAt = time.Time{}
	_, err = Normalize(raw)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrShortContent))
}
