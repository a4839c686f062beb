package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWalkError(t *testing.T) {
	underlying := errors.New("permission denied")
	err := NewWalkError("readdir", "/repo/src", underlying)

	assert.Equal(t, "readdir", err.Operation)
	assert.ErrorIs(t, err, underlying)
	assert.Equal(t, `walk readdir failed for /repo/src: permission denied`, err.Error())
}

func TestParseError(t *testing.T) {
	underlying := errors.New("unexpected indent")
	err := NewParseError("/repo/a.py", 10, 5, "def", underlying)

	assert.Equal(t, 10, err.Line)
	assert.Equal(t, 5, err.Column)
	assert.ErrorIs(t, err, underlying)
	assert.Equal(t, `parse error at /repo/a.py:10:5 (near token "def"): unexpected indent`, err.Error())
}

func TestParseErrorNoLine(t *testing.T) {
	underlying := errors.New("not valid utf-8")
	err := NewParseError("/repo/a.py", 0, 0, "", underlying)
	assert.Equal(t, "parse error at /repo/a.py: not valid utf-8", err.Error())
}

func TestFileErrorPermission(t *testing.T) {
	underlying := errors.New("permission denied")
	err := NewFileError("read", "/repo/a.py", underlying)
	assert.Equal(t, ErrorTypePermission, err.Type)
}

func TestFileErrorNotFound(t *testing.T) {
	underlying := errors.New("no such file or directory")
	err := NewFileError("stat", "/repo/missing.py", underlying)
	assert.Equal(t, ErrorTypeFileNotFound, err.Type)
}

func TestConfigError(t *testing.T) {
	underlying := errors.New("invalid regex")
	err := NewConfigError("patterns[2].regex", "(unterminated", underlying)
	assert.Equal(t, "patterns[2].regex", err.Field)
	assert.ErrorIs(t, err, underlying)
}

func TestMultiError(t *testing.T) {
	e1 := errors.New("parse failure in a.py")
	e2 := errors.New("parse failure in b.py")

	multi := NewMultiError([]error{e1, nil, e2, nil})
	assert.Len(t, multi.Errors, 2)
	assert.Equal(t, "2 errors: [parse failure in a.py parse failure in b.py]", multi.Error())

	single := NewMultiError([]error{e1})
	assert.Equal(t, "parse failure in a.py", single.Error())

	empty := NewMultiError(nil)
	assert.Equal(t, "no errors", empty.Error())

	assert.Len(t, multi.Unwrap(), 2)
}
