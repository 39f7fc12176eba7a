package installerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
)

func TestErrorIsSingleLine(t *testing.T) {
	err := New(KindCopy, errors.New("permission denied"), "cannot write %q in %s\nsecond line", "bin/x", "/opt")
	assert.Equal(t, `cannot write "bin/x" in /opt`, err.Error())
	assert.Contains(t, err.Detail(), "permission denied")
}

func TestKindOfWrapped(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("stage: %w", VersionCheck(VersionTimeout, cause, "timed out"))

	assert.Equal(t, KindVersionCheck, KindOf(err))
	assert.Equal(t, VersionTimeout, ReasonOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindUnknown, KindOf(cause))
}

func TestFormatErrorOrNil(t *testing.T) {
	var merr *multierror.Error
	assert.NoError(t, FormatErrorOrNil(merr))

	merr = multierror.Append(merr, errors.New("first"))
	assert.Equal(t, "1 error occurred:\n\t* first", FormatErrorOrNil(merr).Error())

	merr = multierror.Append(merr, errors.New("second"))
	assert.Equal(t, "2 errors occurred:\n\t* first\n\t* second", FormatErrorOrNil(merr).Error())
}
