package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dudu/retouch/internal/facetest"
)

func TestSideBySide(t *testing.T) {
	a := facetest.Portrait(300, 200)
	defer a.Close()
	b := a.Clone()
	defer b.Close()

	out := SideBySide(a, b)
	defer out.Close()

	assert.Equal(t, 600, out.Cols())
	assert.Equal(t, 200, out.Rows())
}

func TestSideBySideScalesDown(t *testing.T) {
	a := facetest.Portrait(1000, 500)
	defer a.Close()

	out := SideBySide(a, a)
	defer out.Close()

	assert.Equal(t, MaxWidth, out.Cols())
	assert.Equal(t, 400, out.Rows())
}
