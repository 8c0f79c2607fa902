package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingBufferWrapsAround(t *testing.T) {
	rb := NewRingBuffer(6)

	assert.Equal(t, 4, rb.Write([]byte{1, 2, 3, 4}))
	out := make([]byte, 3)
	assert.Equal(t, 3, rb.Read(out))
	assert.Equal(t, []byte{1, 2, 3}, out)

	// crosses the end of the backing array
	assert.Equal(t, 5, rb.Write([]byte{5, 6, 7, 8, 9, 10}))
	assert.Equal(t, 0, rb.Free())
	assert.Equal(t, 6, rb.Available())

	out = make([]byte, 8)
	assert.Equal(t, 6, rb.Read(out))
	assert.Equal(t, []byte{4, 5, 6, 7, 8, 9}, out[:6])
	assert.Equal(t, 0, rb.Available())
}

func TestRingBufferReset(t *testing.T) {
	rb := NewRingBuffer(4)
	rb.Write([]byte{1, 2, 3})
	rb.Reset()

	assert.Equal(t, 0, rb.Available())
	assert.Equal(t, 4, rb.Free())
	assert.Equal(t, 0, rb.Read(make([]byte, 2)))
}
