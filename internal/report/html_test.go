package report

import (
	"testing"

	"github.com/phrazzld/genewise-api/internal/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "event handlers and scripts",
			input: `<p onclick="steal()">Hola <strong>mundo</strong></p><script>alert(1)</script>`,
			want:  `<p>Hola <strong>mundo</strong></p>`,
		},
		{
			name:  "javascript url",
			input: `<a href=" javascript:alert(1)">x</a>`,
			want:  `<a>x</a>`,
		},
		{
			name:  "safe link",
			input: `<a href="https://example.com/info">más info</a>`,
			want:  `<a href="https://example.com/info">más info</a>`,
		},
		{
			name:  "comments styles and frames",
			input: `<p>a</p><!-- nota --><style>p{color:red}</style><iframe src="https://x"></iframe>`,
			want:  `<p>a</p>`,
		},
		{
			name:  "nested script",
			input: `<div><p>ok</p><script>bad()</script></div>`,
			want:  `<div><p>ok</p></div>`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Sanitize(tc.input)

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestSummaryHTML(t *testing.T) {
	t.Run("html passes through", func(t *testing.T) {
		got, err := SummaryHTML("<p>Se estudió el gen <strong>BRCA1</strong>.</p>")

		require.NoError(t, err)
		assert.Equal(t, "<p>Se estudió el gen <strong>BRCA1</strong>.</p>", got)
	})

	t.Run("fenced html", func(t *testing.T) {
		got, err := SummaryHTML("```html\n<p>x</p>\n```")

		require.NoError(t, err)
		assert.Equal(t, "<p>x</p>", got)
	})

	t.Run("markdown is rendered", func(t *testing.T) {
		got, err := SummaryHTML("**Resultado:** sin hallazgos\n\n- punto uno\n- punto dos")

		require.NoError(t, err)
		assert.Contains(t, got, "<p><strong>Resultado:</strong> sin hallazgos</p>")
		assert.Contains(t, got, "<li>punto uno</li>")
	})

	t.Run("blank", func(t *testing.T) {
		_, err := SummaryHTML("  ")

		assert.ErrorIs(t, err, extract.ErrShape)
	})

	t.Run("only unsafe content", func(t *testing.T) {
		_, err := SummaryHTML("<script>alert(1)</script>")

		assert.ErrorIs(t, err, extract.ErrShape)
	})
}
