package cleanup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

type remoteError struct {
	status int
}

func (e remoteError) Error() string  { return fmt.Sprintf("status %d", e.status) }
func (e remoteError) NotFound() bool { return e.status == 404 }

func TestClassify(t *testing.T) {
	_, statErr := os.Stat(filepath.Join(t.TempDir(), "missing.kml"))

	testCases := []struct {
		name string
		err  error
		want Result
	}{
		{name: "no error", want: Removed},
		{name: "missing file", err: statErr, want: NotFound},
		{name: "wrapped not exist", err: fmt.Errorf("remove: %w", fs.ErrNotExist), want: NotFound},
		{name: "remote not found", err: fmt.Errorf("layer: %w", remoteError{status: 404}), want: NotFound},
		{name: "remote failure", err: remoteError{status: 500}, want: Failed},
		{name: "other", err: errors.New("permission denied"), want: Failed},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestReport(t *testing.T) {
	var report Report

	assert.Equal(t, Removed, report.Add("a.kml", nil))
	assert.Equal(t, NotFound, report.Add("b.kml", fs.ErrNotExist))
	assert.False(t, report.Failed())

	var other Report
	other.Add("erfp:layer", errors.New("boom"))
	report.Merge(other)

	assert.Len(t, report.Steps, 3)
	assert.True(t, report.Failed())
	assert.Equal(t, 1, report.Count(Removed))
	assert.Equal(t, "failed", report.Steps[2].Result.String())

	assert.NotPanics(t, func() { report.Log("cleanup step") })
}
