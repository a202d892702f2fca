package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseURLResolver(t *testing.T) {
	r := NewBaseURLResolver("http://cdn.example.com/media/")

	assert.Equal(t, "http://cdn.example.com/media/image/boot.jpg", r.URL("image/boot.jpg"))
	assert.Equal(t, "http://cdn.example.com/media/image/boot.jpg", r.URL("/image/boot.jpg"))
	assert.Equal(t, "https://other.example.com/a.jpg", r.URL("https://other.example.com/a.jpg"))
	assert.Equal(t, "", r.URL(""))
}
