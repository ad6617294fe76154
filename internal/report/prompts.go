package report

import (
	"fmt"
	"strings"

	"github.com/phrazzld/genewise-api/internal/generation"
)

// systemPrompt is shared by every task.
const systemPrompt = "Eres un asistente experto en genética y simplificación de informes médicos para pacientes. Responde de forma clara y precisa a la tarea solicitada."

const jsonOnly = "NO añadas texto explicativo antes o después del JSON."

var deterministic = generation.Float32(0)

func summaryPrompt(doc Document) generation.Prompt {
	return generation.Prompt{
		System: systemPrompt,
		Instructions: fmt.Sprintf(`Basándote EXCLUSIVAMENTE en los siguientes textos extraídos de un informe genético:

%s

Redacta un resumen para un paciente sin conocimientos médicos. Explica qué se estudió, qué se encontró y qué significa, manteniendo la precisión esencial pero evitando jerga compleja. No incluyas pronósticos ni recomendaciones que no aparezcan en el informe.
Devuelve únicamente HTML sencillo (párrafos <p>, listas <ul>/<li> y <strong> para resaltar), sin etiquetas <html>, <head> ni <body>.`, doc.Context()),
		Temperature: generation.Float32(0.2),
	}
}

func metadataPrompt(doc Document) generation.Prompt {
	return generation.Prompt{
		System: systemPrompt,
		Instructions: fmt.Sprintf(`Analiza los siguientes textos de un informe genético:

%s

¿El informe (especialmente en Resultados, Conclusiones o Interpretación/Anexo I) indica CLARAMENTE que se ha identificado una variante Patogénica (P) o Probablemente Patogénica (LP) que EXPLICA la clínica o fenotipo del paciente?

Devuelve un objeto JSON VÁLIDO con estas claves:
- "primary_finding_exists": true o false.
- "primary_variant": si la respuesta es true, un objeto con las claves "gen", "localizacion", "transcrito", "cdna", "proteina", "genotipo" y "clasificacion" de ESA variante; si es false, omítelo.
- "inheritance_pattern": el patrón de herencia asociado al gen de la variante (Autosómica Dominante, Autosómica Recesiva, Ligada al X Recesiva, Ligada al X Dominante, Y-linked, Mitocondrial o Desconocido); omítelo si no hay variante.
%s`, doc.Context(SectionResults, SectionConclusions, SectionInterpretation, SectionAnnex), jsonOnly),
		Temperature: deterministic,
		JSON:        true,
	}
}

func timelinePrompt(doc Document) generation.Prompt {
	return generation.Prompt{
		System: systemPrompt,
		Instructions: fmt.Sprintf(`Analiza el siguiente informe genético:

%s

Identifica los acontecimientos fechados relevantes para el paciente (toma de muestra, recepción, estudios previos, emisión del informe, etc.).
Devuelve una lista JSON VÁLIDA de objetos con EXACTAMENTE las claves "date" y "event", en orden cronológico. Si no encuentras ninguno, devuelve una lista JSON VÁLIDA vacía []. %s`, doc.Context(), jsonOnly),
		Temperature: deterministic,
		JSON:        true,
	}
}

func otherFindingsPrompt(annex string) generation.Prompt {
	return generation.Prompt{
		System: systemPrompt,
		Instructions: fmt.Sprintf(`Analiza el siguiente texto de una sección de informe genético:

%s

Identifica y extrae todas las **variantes genéticas listadas en la tabla o texto (incluyendo VUS, P, LP, etc.)**.
Para cada una, devuelve los siguientes detalles en una lista de objetos JSON VÁLIDO. Cada objeto debe tener EXACTAMENTE las claves: "gen", "localizacion", "transcrito", "cdna", "proteina", "genotipo", "clasificacion".
Si no encuentras ninguna, devuelve una lista JSON VÁLIDA vacía []. %s`, annex, jsonOnly),
		Temperature: deterministic,
		JSON:        true,
	}
}

func secondaryFindingsPrompt(section string) generation.Prompt {
	return generation.Prompt{
		System: systemPrompt,
		Instructions: fmt.Sprintf(`Analiza el siguiente texto de la sección de hallazgos secundarios de un informe genético:

%s

Extrae los hallazgos secundarios (variantes genéticas P/LP en genes no relacionados con el motivo del estudio).
Devuelve una lista de objetos JSON VÁLIDO con EXACTAMENTE las claves: "gen", "variante", "genotipo", "clasificacion".
Si no encuentras ninguno, devuelve una lista JSON VÁLIDA vacía []. %s`, section, jsonOnly),
		Temperature: deterministic,
		JSON:        true,
	}
}

func geneInfoPrompt(v Variant) generation.Prompt {
	variant := strings.TrimSpace(v.CDNA)
	if variant == "" {
		variant = strings.TrimSpace(v.Proteina)
	}
	if variant == "" {
		variant = "identificada"
	}
	return generation.Prompt{
		System: systemPrompt,
		Instructions: fmt.Sprintf(`Explica de forma sencilla, para un paciente sin conocimientos médicos, qué función tiene el gen %s en el organismo y qué condición clínica se asocia a sus variantes patogénicas, en particular a la variante %s.
Responde en dos o tres frases, sin pronósticos ni recomendaciones médicas.
Devuelve únicamente HTML sencillo (párrafos <p> y <strong> para resaltar).`, strings.TrimSpace(v.Gen), variant),
		Temperature: generation.Float32(0.2),
	}
}

func clinicalRelevancePrompt(text string) generation.Prompt {
	return generation.Prompt{
		System: systemPrompt,
		Instructions: fmt.Sprintf(`Simplifica la siguiente interpretación clínica de un informe genético para un paciente sin conocimientos médicos:

%s

Explica qué significa el hallazgo para su salud manteniendo la precisión esencial. No añadas información que no aparezca en el texto.
Devuelve únicamente HTML sencillo (párrafos <p> y <strong> para resaltar).`, text),
		Temperature: generation.Float32(0.2),
	}
}

func limitationsPrompt(text string) generation.Prompt {
	return generation.Prompt{
		System: systemPrompt,
		Instructions: fmt.Sprintf(`Simplifica el siguiente texto sobre las limitaciones de la técnica para un paciente que acaba de recibir un resultado sin hallazgos:

%s

Deja claro que un resultado negativo no descarta por completo una causa genética.
Devuelve únicamente HTML sencillo (párrafos <p>).`, text),
		Temperature: generation.Float32(0.2),
	}
}

func inheritancePrompt(pattern string) generation.Prompt {
	return generation.Prompt{
		System: systemPrompt,
		Instructions: fmt.Sprintf(`Explica brevemente, para un paciente, el patrón de herencia llamado '%s': cómo se transmite y qué probabilidad tienen los hijos de heredarlo.
Responde con un único párrafo de texto plano, sin HTML ni markdown.`, pattern),
		Temperature: generation.Float32(0.2),
	}
}
