// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Protein holds the UniProt entry fetched for one gene symbol.
type Protein struct {
	// GeneSymbol is the official human gene symbol queried (e.g. "SIRT6").
	GeneSymbol string `json:"gene_symbol" yaml:"gene_symbol"`

	// UniProtID is the primary accession (e.g. "Q8N6T7").
	UniProtID string `json:"uniprot_id" yaml:"uniprot_id"`

	// ProteinName is the recommended full protein name.
	ProteinName string `json:"protein_name" yaml:"protein_name"`

	// Sequence is the canonical amino-acid sequence.
	Sequence string `json:"sequence" yaml:"sequence"`

	// CitationTitles lists the titles of publications referenced by the
	// UniProt entry. These seed the reference-network expansion.
	CitationTitles []string `json:"citation_titles,omitempty" yaml:"citation_titles,omitempty"`
}

// GenAgeEntry is one row of the GenAge human ageing-gene dataset.
type GenAgeEntry struct {
	// GenAgeID is the numeric GenAge identifier.
	GenAgeID string `json:"genage_id" yaml:"genage_id"`

	// Symbol is the gene symbol.
	Symbol string `json:"symbol" yaml:"symbol"`

	// Name is the gene's full name.
	Name string `json:"name" yaml:"name"`

	// EntrezID is the NCBI Entrez gene identifier.
	EntrezID string `json:"entrez_id" yaml:"entrez_id"`

	// Why records GenAge's reason for inclusion.
	Why string `json:"why" yaml:"why"`
}
