// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"strings"
	"text/template"
)

const extractionSystem = `You are a highly specialized scientific data extraction assistant. You extract structured protein information from scientific literature and respond with a single valid JSON object, nothing else.`

// extractionPrompt renders the user message: the target protein, the exact
// output schema, and the retrieved context. The model must not infer
// beyond the context.
var extractionPrompt = template.Must(template.New("extraction").Parse(`Based ONLY on the following text context from scientific literature, extract comprehensive information about the protein {{.Protein}}. Return the data as a single, valid JSON object following this exact schema:

{
"protein_info": {"symbol": "...", "full_name": "...", "uniprot_id": "...", "family": "..."},
"gene_info": {"symbol": "...", "gene_id": "...", "organism": "...", "chromosome": "..."},
"overview": "...",
"key_functions": ["...", "..."],
"modifications": [{"modification_id": "...", "location": "...", "type": "...", "description": "...", "function_description": "...", "publication_pmid": "..."}],
"clinical_significance": [{"condition_name": "...", "variant_info": "...", "phenotype": "...", "publication_pmid": "..."}],
"small_molecule_interactions": [{"molecule_name": "...", "interaction_type": "...", "effect": "...", "publication_pmid": "..."}],
"protein_partners": [{"partner_symbol": "...", "interaction_type": "...", "publication_pmid": "..."}]
}

Fill in all fields based strictly on the provided context. If information for a field is not present, use null or an empty list as appropriate for the schema. Do not infer information not present in the text. Where a statement is supported by a particular paper, cite its PMID in publication_pmid.

Context:
---
{{range .Chunks}}[{{.PMCID}}{{if .Title}}: {{.Title}}{{end}}]
{{.Content}}

{{end}}---

JSON Output:`))

// promptData is the input to extractionPrompt.
type promptData struct {
	Protein string
	Chunks  []contextChunk
}

type contextChunk struct {
	PMCID   string
	Title   string
	Content string
}

// stripFences removes a Markdown code fence around a JSON payload. Models
// add them despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
