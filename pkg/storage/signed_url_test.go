package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("job-1", "2026-08/CS-3A-Timetable.pdf")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	jobID, path, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, "2026-08/CS-3A-Timetable.pdf", path)
	assert.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Millisecond*10)
	token, _, err := signer.Generate("job-1", "2026-08/CS-3A-Timetable.pdf")
	require.NoError(t, err)
	time.Sleep(time.Millisecond * 20)

	_, _, _, err = signer.Parse(token, false)
	require.Error(t, err)

	// Cleanup routines still need to resolve paths from stale tokens.
	jobID, path, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, "2026-08/CS-3A-Timetable.pdf", path)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("job-1", "2026-08/CS-3A-Timetable.pdf")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[0] = "job-2"
	_, _, _, err = signer.Parse(strings.Join(parts, "."), false)
	assert.Error(t, err)

	_, _, _, err = NewSignedURLSigner("other", time.Hour).Parse(token, false)
	assert.Error(t, err)
}

func TestLocalStorageSaveOpenCleanup(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	rel, err := store.Save("CS-3A-Timetable.csv", []byte("Time,Monday\n"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(rel, ".csv"))
	assert.Contains(t, rel, time.Now().Format("2006-01"))

	file, err := store.Open(rel)
	require.NoError(t, err)
	require.NoError(t, file.Close())

	// Paths from forged tokens must not escape the storage root.
	_, err = store.Open("../outside.txt")
	assert.Error(t, err)

	deleted, err := store.CleanupOlderThan(-time.Second)
	require.NoError(t, err)
	assert.Contains(t, deleted, rel)
	_, err = store.Open(rel)
	assert.Error(t, err)
}
