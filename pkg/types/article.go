// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the protein-kb pipeline.
// An Article is the normalized bibliographic record every stage exchanges;
// a CorpusDocument is the harvested full-text form written to the corpus
// directory and ingested by the index.
package types

// Article is a normalized bibliographic record for a paper found through
// Europe PMC. At least one of PMID, PMCID, DOI, or Title is set; unknowns
// are empty.
type Article struct {
	// PMID is the PubMed identifier (bare digits).
	PMID string `json:"pmid,omitempty" yaml:"pmid,omitempty"`

	// PMCID is the PubMed Central identifier including the PMC prefix
	// (e.g. "PMC1234567").
	PMCID string `json:"pmcid,omitempty" yaml:"pmcid,omitempty"`

	// DOI is the bare Digital Object Identifier (e.g. "10.1038/nature12345").
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// Title is the article title as returned by the source.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Journal is the journal title.
	Journal string `json:"journal,omitempty" yaml:"journal,omitempty"`

	// Year is the publication year. Zero when unknown.
	Year int `json:"year,omitempty" yaml:"year,omitempty"`

	// SourceURL is the europepmc.org article page for the best identifier.
	SourceURL string `json:"source_url,omitempty" yaml:"source_url,omitempty"`

	// Source is the Europe PMC source code of the record (e.g. "MED", "PMC").
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// Abstract is the article abstract when one was recovered.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// CitedByCount is the Europe PMC citation count, when returned.
	CitedByCount int `json:"cited_by_count,omitempty" yaml:"cited_by_count,omitempty"`
}

// HasIdentifier reports whether the article carries at least one stable
// bibliographic identifier.
func (a Article) HasIdentifier() bool {
	return a.PMID != "" || a.PMCID != "" || a.DOI != ""
}

// CorpusDocument is a harvested article stored as one JSON file per PMCID
// in the corpus directory.
type CorpusDocument struct {
	// PMCID identifies the document and names its file ("<PMCID>.json").
	PMCID string `json:"pmcid"`

	// DOI is the bare DOI, when known.
	DOI string `json:"doi"`

	// Title is the article title.
	Title string `json:"title"`

	// Year is the publication year (0 = unknown).
	Year int `json:"year"`

	// Journal is the journal title.
	Journal string `json:"journal"`

	// ProteinHits lists the gene/protein symbols whose harvest found this article.
	ProteinHits []string `json:"protein_hits"`

	// XML is the raw JATS full-text XML. Empty when SaveXML is off or
	// full text was unavailable.
	XML string `json:"xml"`

	// PlainText is the extracted body text, or title+abstract when no
	// full text exists.
	PlainText string `json:"plain_text"`

	// SourceURL is the europepmc.org article page.
	SourceURL string `json:"source_url"`
}
