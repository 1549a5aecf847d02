package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSubmissionKind(t *testing.T) {
	assert.Equal(t, "both", SubmissionKind(true, true))
	assert.Equal(t, "recitation", SubmissionKind(true, false))
	assert.Equal(t, "explanation", SubmissionKind(false, true))
	assert.Equal(t, "none", SubmissionKind(false, false))
}

func TestCountersAreRegistered(t *testing.T) {
	before := testutil.ToFloat64(BlobUploadsTotal.WithLabelValues("reference", Result(nil)))
	BlobUploadsTotal.WithLabelValues("reference", Result(nil)).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(BlobUploadsTotal.WithLabelValues("reference", "ok")))

	assert.Equal(t, "error", Result(errors.New("boom")))
}
