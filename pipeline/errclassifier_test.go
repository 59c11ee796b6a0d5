// SPDX-License-Identifier: GPL-3.0-or-later

package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type taggedErr struct{ tag string }

func (e *taggedErr) Error() string { return "taggedErr: " + e.tag }
func (e *taggedErr) Tag() string   { return e.tag }

func TestDefaultErrClassifier(t *testing.T) {
	assert.Equal(t, "role-not-found", DefaultErrClassifier.Classify(&taggedErr{tag: "role-not-found"}))
	assert.Equal(t, "", DefaultErrClassifier.Classify(errors.New("plain error")))
	assert.Equal(t, "", DefaultErrClassifier.Classify(nil))
}

func TestErrClassifierFunc(t *testing.T) {
	var classifier ErrClassifier = ErrClassifierFunc(func(err error) string {
		if err == nil {
			return "none"
		}
		return "some"
	})
	assert.Equal(t, "none", classifier.Classify(nil))
	assert.Equal(t, "some", classifier.Classify(errors.New("x")))
}
