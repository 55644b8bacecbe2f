package ticket

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePayload() Payload {
	return Payload{
		BookingID:   42,
		EventID:     5,
		EventTitle:  "Rock Night",
		UserID:      9,
		UserName:    "Asha",
		Quantity:    2,
		TotalAmount: 100000,
		EventDate:   time.Date(2026, 9, 12, 19, 30, 0, 0, time.UTC),
		Location:    "Mumbai",
		BookingDate: time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
	}
}

func TestDataURLProducesEmbeddablePNG(t *testing.T) {
	g := NewGenerator("test-secret")

	url, err := g.DataURL(samplePayload())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
	assert.Greater(t, len(url), 100)
}

func TestSealedPayloadRoundTrips(t *testing.T) {
	g := NewGenerator("test-secret")
	p := samplePayload()

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	sealed, err := encryptAES(raw, g.secret)
	require.NoError(t, err)

	got, err := g.Decode(sealed)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestDecodeRejectsWrongSecret(t *testing.T) {
	issuer := NewGenerator("issuer-secret")
	raw, err := json.Marshal(samplePayload())
	require.NoError(t, err)
	sealed, err := encryptAES(raw, issuer.secret)
	require.NoError(t, err)

	other := NewGenerator("different-secret")
	_, err = other.Decode(sealed)
	assert.Error(t, err)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	g := NewGenerator("test-secret")

	_, err := g.Decode("not base64 at all!!")
	assert.Error(t, err)

	_, err = g.Decode("AAAA")
	assert.Error(t, err)
}
