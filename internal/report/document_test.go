package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentValidate(t *testing.T) {
	assert.ErrorIs(t, Document{}.Validate(), ErrEmptyDocument)
	assert.ErrorIs(t, Document{Text: " ", Sections: map[string]string{"Resultados": "\n"}}.Validate(), ErrEmptyDocument)
	assert.NoError(t, Document{Text: "informe"}.Validate())
	assert.NoError(t, Document{Sections: map[string]string{"Resultados": "BRCA1"}}.Validate())
}

func TestDocumentSection(t *testing.T) {
	doc := Document{Sections: map[string]string{
		"Interpretación": "  texto  ",
		"anexo_i":        "tabla",
	}}

	assert.Equal(t, "texto", doc.Section(SectionInterpretation))
	assert.Equal(t, "tabla", doc.Section(SectionAnnex))
	assert.Empty(t, doc.Section("Limitaciones"))
}

func TestDocumentContext(t *testing.T) {
	doc := Document{
		Sections: map[string]string{
			"Resultados":   "Variante en BRCA1",
			"Conclusiones": "Patogénica",
			"Vacía":        " ",
		},
		Text: "texto libre",
	}

	assert.Equal(t,
		"Texto de la sección 'Conclusiones':\nPatogénica\n\nTexto de la sección 'Resultados':\nVariante en BRCA1",
		doc.Context())
	assert.Equal(t, "Texto de la sección 'Resultados':\nVariante en BRCA1", doc.Context(SectionResults, SectionAnnex))

	assert.Equal(t, "Texto del informe:\nsolo OCR", Document{Text: "solo OCR"}.Context(SectionResults))
}
