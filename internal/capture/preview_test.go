package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

func TestPreview_Viewers(t *testing.T) {
	p := NewPreview()
	assert.False(t, p.Wanted())

	p.Acquire()
	p.Acquire()
	assert.True(t, p.Wanted())

	require.NoError(t, p.Set([]byte{0xff, 0xd8}))
	img, seq := p.Latest()
	assert.Equal(t, []byte{0xff, 0xd8}, img)
	assert.Equal(t, uint64(1), seq)

	p.Release()
	assert.True(t, p.Wanted())
	img, _ = p.Latest()
	assert.NotNil(t, img, "frame kept while someone still watches")

	p.Release()
	p.Release()
	assert.False(t, p.Wanted())
	img, seq = p.Latest()
	assert.Nil(t, img)
	assert.Equal(t, uint64(1), seq)
}

func TestPreview_RejectsEmpty(t *testing.T) {
	p := NewPreview()
	assert.Error(t, p.Set(nil))
	assert.ErrorIs(t, p.Update(nil), ErrEmptyFrame)
}

func TestPreview_Update(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping gocv test")
	}

	frame := gocv.NewMatWithSize(DefaultHeight, DefaultWidth, gocv.MatTypeCV8UC3)
	defer frame.Close()

	p := NewPreview()
	require.NoError(t, p.Update(&frame))

	img, seq := p.Latest()
	require.Greater(t, len(img), 2)
	assert.Equal(t, []byte{0xff, 0xd8}, img[:2], "JPEG start-of-image marker")
	assert.Equal(t, uint64(1), seq)
}
