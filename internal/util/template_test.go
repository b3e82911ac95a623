package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplateFastPath(t *testing.T) {
	out, err := RenderTemplate("no markers <here>", nil)
	require.NoError(t, err)
	assert.Equal(t, "no markers <here>", out)
}

func TestRenderTemplateDoesNotEscape(t *testing.T) {
	out, err := RenderTemplate("{{.Name}} says {{.Text}}", map[string]any{
		"Name": "bob",
		"Text": `"I'm <not> a wolf"`,
	})
	require.NoError(t, err)
	assert.Equal(t, `bob says "I'm <not> a wolf"`, out)
}

func TestRenderTemplateFuncs(t *testing.T) {
	out, err := RenderTemplate(`{{upper .A}} {{title .B}} {{join ", " .C}} {{default "x" .D}}`, map[string]any{
		"A": "wolf",
		"B": "seer",
		"C": []string{"bob", "carol"},
		"D": "",
	})
	require.NoError(t, err)
	assert.Equal(t, "WOLF Seer bob, carol x", out)
}

func TestRenderTemplateMissingKey(t *testing.T) {
	_, err := RenderTemplate("{{.Missing}}", map[string]any{})
	assert.Error(t, err)
}

func TestMustTemplate(t *testing.T) {
	tmpl := MustTemplate("t", "hi {{.}}")
	out, err := Execute(tmpl, "bob")
	require.NoError(t, err)
	assert.Equal(t, "hi bob", out)
}
