package addressing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashIsDeterministic(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 30, 0, 123456789, time.UTC)

	first := Hash(`{"text":"hello"}`, "u1", at)
	second := Hash(`{"text":"hello"}`, "u1", at)

	require.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestHashDiffersOnInputs(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	base := Hash("payload", "u1", at)

	assert.NotEqual(t, base, Hash("payload!", "u1", at))
	assert.NotEqual(t, base, Hash("payload", "u2", at))
	assert.NotEqual(t, base, Hash("payload", "u1", at.Add(time.Nanosecond)))
}

func TestHashSeparatesFields(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	assert.NotEqual(t, Hash("ab", "c", at), Hash("a", "bc", at))
}

func TestHashSeparatesFieldsContainingNUL(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	assert.NotEqual(t, Hash("x\x00u1", "u2", at), Hash("x", "u1\x00u2", at))
	assert.NotEqual(t, Hash("x\x00", "u", at), Hash("x", "\x00u", at))
	assert.NotEqual(t,
		ActionDigest("follow", at, "a\x00b", "c"),
		ActionDigest("follow", at, "a", "b\x00c"),
	)
	assert.NotEqual(t, ActionDigest("like", at, "a", ""), ActionDigest("like", at, "a"))
}

func TestHashNormalizesLocation(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	local := at.In(time.FixedZone("UTC+2", 2*60*60))
	assert.Equal(t, Hash("p", "u1", at), Hash("p", "u1", local))
}

func TestActionDigest(t *testing.T) {
	at := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	follow := ActionDigest("follow", at, "u1", "u2")
	assert.Equal(t, follow, ActionDigest("follow", at, "u1", "u2"))
	assert.NotEqual(t, follow, ActionDigest("follow", at, "u2", "u1"))
	assert.NotEqual(t, follow, ActionDigest("reaction", at, "u1", "u2"))
}
