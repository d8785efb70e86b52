package email

import (
	"testing"

	"github.com/deppfellow/classroom/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPreviews(t *testing.T) {
	for name, data := range PreviewData {
		t.Run(string(name), func(t *testing.T) {
			body, err := Render(name, data)
			require.NoError(t, err)
			assert.Contains(t, body, "Hi Budi,")
			assert.Contains(t, body, "Ask your teacher for a class code")
		})
	}
}

func TestRenderEscapesValues(t *testing.T) {
	body, err := Render(TemplateWelcome, map[string]string{"UserName": "<script>", "UserRole": "teacher"})
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "Create your first class")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := Render("missing", nil)
	assert.Error(t, err)
}

func TestNewClientWithoutKey(t *testing.T) {
	logger := zerolog.Nop()
	assert.Nil(t, NewClient(&config.Config{}, &logger))
}
