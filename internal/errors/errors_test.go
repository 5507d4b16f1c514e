package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"alignbench/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestWrap_InheritsCode(t *testing.T) {
	base := StorageError("write run record", stderrors.New("disk full"))
	err := Wrap(base, "score batch")

	assert.Equal(t, CodeStorageError, GetCode(err))
	assert.Equal(t, "score batch: write run record: disk full", err.Error())
	assert.True(t, IsAppError(err))
}

func TestWrap_DerivesCodeFromDomainErrors(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{&core.MalformedReportError{Side: core.SideReported, Index: 2, Field: "files", Reason: "not an array"}, CodeMalformedReport},
		{core.NewInsufficientSample("a", 1, 2), CodeInsufficientSample},
		{fmt.Errorf("load: %w", core.ErrGroundTruthNotFound), CodeNotFound},
		{core.ErrUnknownKind, CodeInvalidInput},
		{core.NewInvalidNumericError("a", 0, 0), CodeInvalidInput},
		{stderrors.New("boom"), CodeInternalError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, GetCode(Wrap(tc.err, "ctx")), "%v", tc.err)
	}
}

func TestWrap_Nil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "nothing"))
	assert.NoError(t, Wrapf(nil, "nothing %d", 1))
	assert.NoError(t, WithCode(CodeNotFound, nil))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeNotFound, InternalError("run missing"))
	assert.Equal(t, CodeNotFound, GetCode(err))
	assert.Equal(t, "run missing", err.Error())

	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
	assert.True(t, stderrors.Is(Wrap(core.ErrRunNotFound, "x"), core.ErrNotFound))
}
