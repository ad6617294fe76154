package report

import "fmt"

// Inheritance is the patient-facing explanation of an inheritance pattern.
type Inheritance struct {
	Pattern string `json:"pattern"`
	Text    string `json:"text"`
	ImageID string `json:"image_id,omitempty"`
}

type inheritanceEntry struct {
	aliases []string // folded
	text    string
	imageID string
}

// Checked in order; the first entry with an alias contained in the folded
// pattern wins.
var inheritanceTable = []inheritanceEntry{
	{
		aliases: []string{"autosomica dominante", "autosomal dominant"},
		text:    "Herencia Autosómica Dominante: Normalmente, una sola copia de la variante genética (heredada de uno de los padres, o a veces nueva en el paciente) es suficiente para causar la condición. Cada hijo de una persona afectada tiene un 50% de probabilidad de heredar la variante y la condición.",
		imageID: "AD_image",
	},
	{
		aliases: []string{"autosomica recesiva", "autosomal recessive"},
		text:    "Herencia Autosómica Recesiva: Se necesitan dos copias de la variante genética (una heredada de cada padre) para causar la condición. Los padres suelen ser portadores sanos (tienen una sola copia). Cada hijo de dos padres portadores tiene un 25% de probabilidad de tener la condición, un 50% de ser portador sano y un 25% de no tener la variante.",
		imageID: "AR_image",
	},
	{
		aliases: []string{"ligada al x recesiva", "x-linked recessive"},
		text:    "Herencia Ligada al X Recesiva: El gen se encuentra en el cromosoma X. Las mujeres tienen dos cromosomas X, los hombres uno (XY). Las mujeres portadoras de una variante en un X suelen ser sanas o tener síntomas leves. Los hombres con una variante en su único cromosoma X suelen desarrollar la condición. Las mujeres portadoras tienen un 50% de probabilidad de pasar la variante a cada hijo (varón afectado, hija portadora).",
		imageID: "XLR_image",
	},
	{
		aliases: []string{"ligada al x dominante", "x-linked dominant"},
		text:    "Herencia Ligada al X Dominante: El gen se encuentra en el cromosoma X. Una sola copia de la variante es suficiente para causar la condición tanto en hombres como en mujeres (aunque puede ser más severa en hombres). Un hombre afectado pasará la variante a todas sus hijas pero a ninguno de sus hijos. Una mujer afectada tiene un 50% de probabilidad de pasar la variante a cada hijo o hija.",
		imageID: "XLD_image",
	},
	{
		aliases: []string{"y-linked", "ligada al y"},
		text:    "Herencia Ligada al Y: El gen se encuentra en el cromosoma Y, que solo tienen los hombres. La condición solo afecta a hombres y se transmite de padres a hijos varones.",
		imageID: "Y_linked_image",
	},
	{
		aliases: []string{"mitocondrial", "mitochondrial"},
		text:    "Herencia Mitocondrial: El gen se encuentra en el ADN de las mitocondrias (pequeñas 'baterías' dentro de nuestras células). Este ADN se hereda casi exclusivamente de la madre. Una madre afectada pasará la variante a todos sus hijos e hijas, pero solo las hijas la transmitirán a la siguiente generación.",
		imageID: "Mito_image",
	},
}

const homozygousRecessiveText = "Herencia Autosómica Recesiva (detectada en Homocigosis): Se han detectado dos copias idénticas de la variante genética. Esto suele ocurrir cuando ambos padres son portadores de la misma variante. Para que aparezca la condición asociada, se necesitan ambas copias. Cada hijo de dos padres portadores tiene un 25% de probabilidad de heredar ambas copias y tener la condición."

// ExplainInheritance returns the standard explanation and image for pattern.
// A homozygous genotype refines the autosomal recessive text. Unknown
// patterns get a generic sentence and no image.
func ExplainInheritance(pattern, genotype string) Inheritance {
	key := fold(pattern)
	out := Inheritance{Pattern: pattern}

	if containsAny(key, "autosomica recesiva", "autosomal recessive") &&
		containsAny(fold(genotype), "homocig", "homozyg") {
		out.Text = homozygousRecessiveText
		out.ImageID = "AR_image"
		return out
	}

	for _, entry := range inheritanceTable {
		if containsAny(key, entry.aliases...) {
			out.Text = entry.text
			out.ImageID = entry.imageID
			return out
		}
	}

	out.Text = fmt.Sprintf("Patrón de herencia: %s (No se encontró explicación estándar).", pattern)
	return out
}
