package circular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/dims-api/internal/models"
)

func TestAcknowledgeIdempotent(t *testing.T) {
	original := item("c1", 1)

	once, changed, err := Acknowledge(original, alice)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"u2"}, once.AcknowledgedBy)
	assert.Empty(t, original.AcknowledgedBy, "input must not be mutated")

	twice, changed, err := Acknowledge(once, alice)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, once.AcknowledgedBy, twice.AcknowledgedBy)
	assert.Empty(t, twice.History)
}

func TestAcknowledgeExemptAndHidden(t *testing.T) {
	it := item("c1", 1, withAuthor(admin))

	_, _, err := Acknowledge(it, admin)
	assert.ErrorIs(t, err, ErrAckExempt)

	_, _, err = Acknowledge(it, root)
	assert.ErrorIs(t, err, ErrAckExempt)

	_, _, err = Acknowledge(it, carol)
	assert.ErrorIs(t, err, ErrNotVisible)
}

func TestProgress(t *testing.T) {
	ack, total, tracked := Progress(item("c1", 0, withAcks("u2", "u3")))
	assert.True(t, tracked)
	assert.Equal(t, 2, ack)
	assert.Equal(t, 10, total)

	_, _, tracked = Progress(item("a1", 0, withCategory(models.CategoryAnnouncement)))
	assert.False(t, tracked)
}
