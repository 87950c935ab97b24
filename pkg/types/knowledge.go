// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ProteinRecord is the structured extraction produced for one protein by
// the LLM extraction stage. Every evidence-bearing entry carries the PMID
// of the publication it was drawn from.
type ProteinRecord struct {
	// ProteinInfo identifies the protein itself.
	ProteinInfo ProteinInfo `json:"protein_info" yaml:"protein_info"`

	// GeneInfo identifies the encoding gene.
	GeneInfo GeneInfo `json:"gene_info" yaml:"gene_info"`

	// Overview is a short prose summary of the protein's role.
	Overview string `json:"overview" yaml:"overview"`

	// KeyFunctions lists the protein's principal molecular functions.
	KeyFunctions []string `json:"key_functions" yaml:"key_functions"`

	// Modifications lists sequence variants and post-translational
	// modifications with functional consequences.
	Modifications []Modification `json:"modifications" yaml:"modifications"`

	// ClinicalSignificance lists disease associations.
	ClinicalSignificance []ClinicalFinding `json:"clinical_significance" yaml:"clinical_significance"`

	// SmallMoleculeInteractions lists known ligands, inhibitors, and activators.
	SmallMoleculeInteractions []MoleculeInteraction `json:"small_molecule_interactions" yaml:"small_molecule_interactions"`

	// ProteinPartners lists interacting proteins.
	ProteinPartners []ProteinPartner `json:"protein_partners" yaml:"protein_partners"`
}

// ProteinInfo identifies a protein.
type ProteinInfo struct {
	Symbol    string `json:"symbol" yaml:"symbol"`
	FullName  string `json:"full_name" yaml:"full_name"`
	UniProtID string `json:"uniprot_id" yaml:"uniprot_id"`
	Family    string `json:"family" yaml:"family"`
}

// GeneInfo identifies the encoding gene.
type GeneInfo struct {
	Symbol     string `json:"symbol" yaml:"symbol"`
	GeneID     string `json:"gene_id" yaml:"gene_id"`
	Organism   string `json:"organism" yaml:"organism"`
	Chromosome string `json:"chromosome" yaml:"chromosome"`
}

// Modification records a variant or post-translational modification and its
// functional consequence.
type Modification struct {
	// ModificationID is a stable label within the record (e.g. "mod-1").
	ModificationID string `json:"modification_id" yaml:"modification_id"`

	// Location is the residue position (e.g. "Asn308").
	Location string `json:"location" yaml:"location"`

	// Type is the modification class (e.g. "Phosphorylation", "Missense variant").
	Type string `json:"type" yaml:"type"`

	// Description explains the modification itself.
	Description string `json:"description" yaml:"description"`

	// FunctionDescription explains its functional outcome.
	FunctionDescription string `json:"function_description" yaml:"function_description"`

	// PublicationPMID cites the supporting paper.
	PublicationPMID string `json:"publication_pmid" yaml:"publication_pmid"`
}

// ClinicalFinding records a disease association.
type ClinicalFinding struct {
	ConditionName   string `json:"condition_name" yaml:"condition_name"`
	VariantInfo     string `json:"variant_info" yaml:"variant_info"`
	Phenotype       string `json:"phenotype" yaml:"phenotype"`
	PublicationPMID string `json:"publication_pmid" yaml:"publication_pmid"`
}

// MoleculeInteraction records a small-molecule interaction.
type MoleculeInteraction struct {
	MoleculeName    string `json:"molecule_name" yaml:"molecule_name"`
	InteractionType string `json:"interaction_type" yaml:"interaction_type"`
	Effect          string `json:"effect" yaml:"effect"`
	PublicationPMID string `json:"publication_pmid" yaml:"publication_pmid"`
}

// ProteinPartner records a protein-protein interaction.
type ProteinPartner struct {
	PartnerSymbol   string `json:"partner_symbol" yaml:"partner_symbol"`
	InteractionType string `json:"interaction_type" yaml:"interaction_type"`
	PublicationPMID string `json:"publication_pmid" yaml:"publication_pmid"`
}

// IsEmpty reports whether the record carries no extracted content at all.
func (r ProteinRecord) IsEmpty() bool {
	return r.Overview == "" &&
		len(r.KeyFunctions) == 0 &&
		len(r.Modifications) == 0 &&
		len(r.ClinicalSignificance) == 0 &&
		len(r.SmallMoleculeInteractions) == 0 &&
		len(r.ProteinPartners) == 0
}
