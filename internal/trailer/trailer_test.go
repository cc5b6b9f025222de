package trailer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	recommiterrors "recommit.dev/recommit/internal/errors"
	"recommit.dev/recommit/internal/trailer"
)

func TestEncode(t *testing.T) {
	codec := trailer.NewCodec("")

	t.Run("appends trailer block to plain message", func(t *testing.T) {
		msg, err := codec.Encode("task-1", "Update generated docs")
		require.NoError(t, err)
		require.Equal(t, "Update generated docs\n\nX-Commit-Rewrite-ID: task-1\n", msg)
	})

	t.Run("appends after multi-paragraph body", func(t *testing.T) {
		base := "Update generated docs\n\nRegenerated from the v2 schema.\nSee the pipeline run for details."
		msg, err := codec.Encode("task-1", base)
		require.NoError(t, err)
		require.Equal(t, base+"\n\nX-Commit-Rewrite-ID: task-1\n", msg)
	})

	t.Run("inserts into existing trailer block", func(t *testing.T) {
		base := "Update generated docs\n\nSigned-off-by: CI Bot <ci@example.com>\n"
		msg, err := codec.Encode("task-1", base)
		require.NoError(t, err)
		require.Equal(t, "Update generated docs\n\nSigned-off-by: CI Bot <ci@example.com>\nX-Commit-Rewrite-ID: task-1\n", msg)
	})

	t.Run("encode is idempotent", func(t *testing.T) {
		once, err := codec.Encode("task-1", "Update generated docs")
		require.NoError(t, err)
		twice, err := codec.Encode("task-1", once)
		require.NoError(t, err)
		require.Equal(t, once, twice)

		id, ok := codec.Decode(twice)
		require.True(t, ok)
		require.Equal(t, "task-1", id)
	})

	t.Run("re-encode with new id replaces the line", func(t *testing.T) {
		once, err := codec.Encode("task-1", "Update generated docs")
		require.NoError(t, err)
		msg, err := codec.Encode("task-2", once)
		require.NoError(t, err)

		id, ok := codec.Decode(msg)
		require.True(t, ok)
		require.Equal(t, "task-2", id)
		require.Equal(t, "Update generated docs\n\nX-Commit-Rewrite-ID: task-2\n", msg)
	})

	t.Run("empty message gets bare trailer", func(t *testing.T) {
		msg, err := codec.Encode("task-1", "")
		require.NoError(t, err)
		require.Equal(t, "X-Commit-Rewrite-ID: task-1\n", msg)
	})

	t.Run("rejects empty group id", func(t *testing.T) {
		_, err := codec.Encode("", "Update docs")
		require.ErrorIs(t, err, recommiterrors.ErrInvalidInput)
	})

	t.Run("rejects group id with newline", func(t *testing.T) {
		_, err := codec.Encode("task\n1", "Update docs")
		require.ErrorIs(t, err, recommiterrors.ErrInvalidInput)
	})
}

func TestDecode(t *testing.T) {
	codec := trailer.NewCodec("")

	t.Run("returns id from trailer block", func(t *testing.T) {
		id, ok := codec.Decode("Update docs\n\nX-Commit-Rewrite-ID: task-1\n")
		require.True(t, ok)
		require.Equal(t, "task-1", id)
	})

	t.Run("tolerates multi-paragraph body", func(t *testing.T) {
		msg := "Subject\n\nFirst paragraph.\n\nSecond paragraph\nwith a wrapped line.\n\nX-Commit-Rewrite-ID: task-9\nSigned-off-by: CI Bot <ci@example.com>\n"
		id, ok := codec.Decode(msg)
		require.True(t, ok)
		require.Equal(t, "task-9", id)
	})

	t.Run("absent trailer returns not ok", func(t *testing.T) {
		_, ok := codec.Decode("Update docs\n\nJust a body paragraph.\n")
		require.False(t, ok)
	})

	t.Run("colon text in body is not a trailer", func(t *testing.T) {
		// The final paragraph contains a non-trailer line, so it is body.
		_, ok := codec.Decode("Subject\n\nNote: this looks like a trailer\nbut this line breaks the block\n")
		require.False(t, ok)
	})

	t.Run("subject-only message is never a trailer block", func(t *testing.T) {
		_, ok := codec.Decode("X-Commit-Rewrite-ID: task-1")
		require.False(t, ok)
	})

	t.Run("first occurrence wins on duplicates", func(t *testing.T) {
		msg := "Subject\n\nX-Commit-Rewrite-ID: first\nX-Commit-Rewrite-ID: second\n"
		id, ok := codec.Decode(msg)
		require.True(t, ok)
		require.Equal(t, "first", id)
	})

	t.Run("custom key", func(t *testing.T) {
		custom := trailer.NewCodec("X-Automation-Task")
		msg, err := custom.Encode("nightly", "Sync data")
		require.NoError(t, err)

		id, ok := custom.Decode(msg)
		require.True(t, ok)
		require.Equal(t, "nightly", id)

		_, ok = codec.Decode(msg)
		require.False(t, ok)
	})
}
