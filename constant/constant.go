package constant

// UnscoredScore is the sentinel accuracy score a recording carries from
// creation until the scoring verdict is persisted. The score column is never
// NULL; every code path uses this value.
const UnscoredScore float64 = -1

type Stage string

const (
	StageValidate  Stage = "validate"
	StageTranscode Stage = "transcode"
	StageRecord    Stage = "record"
	StageScoring   Stage = "scoring"
	StagePersist   Stage = "persist"
)

func (s Stage) String() string {
	return string(s)
}

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}
