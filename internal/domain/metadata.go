package domain

// Read-only metadata describing the phenotyping pipeline hierarchy. These
// tables are populated by the crawler and only ever read here, to enrich
// responses with display names and keys.

// Pipeline (pipelines table).
type Pipeline struct {
	PipelineID int    `db:"pipeline_id"`
	Key        string `db:"pipeline_key"`
	Name       string `db:"name"`
}

// Procedure (procedures table).
type Procedure struct {
	ProcedureID int    `db:"procedure_id"`
	Key         string `db:"procedure_key"`
	Name        string `db:"name"`
}

// Parameter (parameters table).
type Parameter struct {
	ParameterID int    `db:"parameter_id"`
	Key         string `db:"parameter_key"`
	Name        string `db:"name"`
}

// GeneStrain is a genotype/background-strain pairing with measured data at a
// centre (genestrains view).
type GeneStrain struct {
	GenotypeID int    `db:"genotype_id"`
	StrainID   int    `db:"strain_id"`
	Symbol     string `db:"symbol"`
	Strain     string `db:"strain"`
}
