package email

import (
	"testing"

	"github.com/deppfellow/bookshelf/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPreviewData(t *testing.T) {
	t.Parallel()

	for name, data := range PreviewData {
		html, err := Render(name, data)
		require.NoError(t, err, name)
		assert.Contains(t, html, "Welcome, momo!")
	}

	_, err := Render("missing", nil)
	assert.Error(t, err)
}

func TestRenderEscapesInput(t *testing.T) {
	t.Parallel()

	html, err := Render(TemplateWelcome, map[string]string{"Username": "<script>"})
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}

func TestClientWithoutAPIKey(t *testing.T) {
	t.Parallel()

	l := zerolog.New(zerolog.NewTestWriter(t))
	c := NewClient(&config.Config{}, &l)

	assert.False(t, c.Enabled())
	assert.NoError(t, c.SendWelcomeEmail("momo@example.com", "momo"))
}
