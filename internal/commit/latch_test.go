package commit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSequenceSkipsWhenEmpty(t *testing.T) {
	l := &Latch{}
	ran := false
	err := Sequence(l, func() int { return 0 }, func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	require.False(t, ran)
}

func TestSequenceRunsWhenUncommitted(t *testing.T) {
	l := &Latch{}
	ran := false
	err := Sequence(l, func() int { return 3 }, func() error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, ran)
}

func TestSequencePropagatesStepError(t *testing.T) {
	l := &Latch{}
	wantErr := errors.New("boom")
	err := Sequence(l, func() int { return 1 }, func() error {
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)
}

func TestIngestAndCommitAcquireAndRelease(t *testing.T) {
	l := &Latch{}
	releaseIngest := l.Ingest()
	releaseIngest()

	releaseCommit := l.Commit()
	releaseCommit()
}
