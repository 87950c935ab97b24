// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package article

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/feliks-hub/protein-kb/pkg/types"
)

// defaultTemplate is the Markdown skeleton handed to the LLM writer.
const defaultTemplate = `# {Protein Symbol}: {Full Name}

## Overview
{One or two paragraphs summarizing the protein's role.}

## Gene
{Gene symbol, organism, chromosome.}

## Key Functions
{Bulleted list of principal functions.}

## Modifications and Variants
{One subsection per modification, with its functional consequence and citation.}

## Clinical Significance
{Disease associations with citations.}

## Small Molecule Interactions
{Known ligands, inhibitors, and activators.}

## Protein Partners
{Interacting proteins.}

## References
{PMID list of every cited publication.}
`

// renderTemplate produces the deterministic article used when no LLM is
// configured. It covers the same sections as defaultTemplate.
var renderTemplate = template.Must(template.New("article").Funcs(template.FuncMap{
	"pmid": citePMID,
}).Parse(`# {{.ProteinInfo.Symbol}}{{if .ProteinInfo.FullName}}: {{.ProteinInfo.FullName}}{{end}}

## Overview

{{if .Overview}}{{.Overview}}{{else}}No overview extracted.{{end}}
{{if .ProteinInfo.UniProtID}}
UniProt: {{.ProteinInfo.UniProtID}}{{if .ProteinInfo.Family}} ({{.ProteinInfo.Family}} family){{end}}
{{end}}
## Gene

{{.GeneInfo.Symbol}}{{if .GeneInfo.Organism}}, {{.GeneInfo.Organism}}{{end}}{{if .GeneInfo.Chromosome}}, chromosome {{.GeneInfo.Chromosome}}{{end}}
{{if .KeyFunctions}}
## Key Functions
{{range .KeyFunctions}}
- {{.}}{{end}}
{{end}}{{if .Modifications}}
## Modifications and Variants
{{range .Modifications}}
### {{if .Location}}{{.Location}}{{else}}{{.ModificationID}}{{end}}{{if .Type}} ({{.Type}}){{end}}

{{.Description}}{{if .FunctionDescription}} {{.FunctionDescription}}{{end}}{{pmid .PublicationPMID}}
{{end}}{{end}}{{if .ClinicalSignificance}}
## Clinical Significance
{{range .ClinicalSignificance}}
- **{{.ConditionName}}**{{if .VariantInfo}} ({{.VariantInfo}}){{end}}{{if .Phenotype}}: {{.Phenotype}}{{end}}{{pmid .PublicationPMID}}{{end}}
{{end}}{{if .SmallMoleculeInteractions}}
## Small Molecule Interactions
{{range .SmallMoleculeInteractions}}
- **{{.MoleculeName}}**{{if .InteractionType}} ({{.InteractionType}}){{end}}{{if .Effect}}: {{.Effect}}{{end}}{{pmid .PublicationPMID}}{{end}}
{{end}}{{if .ProteinPartners}}
## Protein Partners
{{range .ProteinPartners}}
- **{{.PartnerSymbol}}**{{if .InteractionType}}: {{.InteractionType}}{{end}}{{pmid .PublicationPMID}}{{end}}
{{end}}`))

func citePMID(pmid string) string {
	if pmid == "" {
		return ""
	}
	return fmt.Sprintf(" [PMID:%s]", pmid)
}

// Render produces the deterministic Markdown article for a record,
// appending a references section listing every cited PMID.
func Render(record *types.ProteinRecord) (string, error) {
	var sb strings.Builder
	if err := renderTemplate.Execute(&sb, record); err != nil {
		return "", err
	}

	if pmids := collectPMIDs(record); len(pmids) > 0 {
		sb.WriteString("\n## References\n\n")
		for _, pmid := range pmids {
			fmt.Fprintf(&sb, "- PMID:%s (https://pubmed.ncbi.nlm.nih.gov/%s/)\n", pmid, pmid)
		}
	}
	return sb.String(), nil
}

// collectPMIDs gathers the distinct cited PMIDs in first-seen order.
func collectPMIDs(record *types.ProteinRecord) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(pmid string) {
		if pmid != "" && !seen[pmid] {
			seen[pmid] = true
			out = append(out, pmid)
		}
	}
	for _, m := range record.Modifications {
		add(m.PublicationPMID)
	}
	for _, c := range record.ClinicalSignificance {
		add(c.PublicationPMID)
	}
	for _, s := range record.SmallMoleculeInteractions {
		add(s.PublicationPMID)
	}
	for _, p := range record.ProteinPartners {
		add(p.PublicationPMID)
	}
	return out
}
