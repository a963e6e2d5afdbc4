package extraction

import "google.golang.org/genai"

const instruction = `Analysiere das Bild von einem Straßenschild.
Extrahiere den Straßennamen und die Hausnummer.
Gib für beide Elemente auch die Bounding Boxen im Format [ymin, xmin, ymax, xmax] (Skala 0-1000) zurück.
Gib das Ergebnis als JSON Objekt zurück.`

func responseSchema() *genai.Schema {
	box := func(description string) *genai.Schema {
		return &genai.Schema{
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeInteger},
			Description: description,
		}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"street":        {Type: genai.TypeString},
			"street_box_2d": box("Bounding box for the street name [ymin, xmin, ymax, xmax]"),
			"number":        {Type: genai.TypeString},
			"number_box_2d": box("Bounding box for the house number [ymin, xmin, ymax, xmax]"),
		},
	}
}
