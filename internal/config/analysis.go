package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/wq-threshold-etl/internal/domain"
)

// AnalysisFile is the YAML form of an analysis definition.
//
// Rules may be listed as objects, or as parallel parameters/thresholds/
// operators vectors; the vectors must have equal lengths.
type AnalysisFile struct {
	Rules      []domain.Rule `yaml:"rules"`
	Parameters []string      `yaml:"parameters"`
	Thresholds []float64     `yaml:"thresholds"`
	Operators  []string      `yaml:"operators"`

	MinDuration       string      `yaml:"min_duration"`
	Granularity       string      `yaml:"granularity"`
	AbbreviateSeasons bool        `yaml:"abbreviate_seasons"`
	Seasons           *SeasonFile `yaml:"seasons"`
}

// SeasonFile lists named month groups and the season that opens the cycle.
type SeasonFile struct {
	Start  string        `yaml:"start"`
	Groups []SeasonGroup `yaml:"groups"`
}

// SeasonGroup is one named season.
type SeasonGroup struct {
	Name   string `yaml:"name"`
	Months []int  `yaml:"months"`
}

// DefaultAnalysis flags hypoxia (dissolved oxygen below 2 mg/L) lasting at
// least two hours and counts events per year.
func DefaultAnalysis() domain.Analysis {
	return domain.Analysis{
		Rules:   []domain.Rule{{Parameter: "do_mgl", Threshold: 2, Operator: domain.OperatorLess}},
		Detect:  domain.DetectOptions{MinDuration: 2 * time.Hour},
		Summary: domain.SummaryOptions{Granularity: domain.GranularityYear, Seasons: domain.DefaultSeasonPolicy()},
	}
}

// LoadAnalysis reads and parses an analysis file.
func LoadAnalysis(path string) (domain.Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Analysis{}, err
	}
	return ParseAnalysis(data)
}

// ParseAnalysis decodes YAML into a validated analysis.
func ParseAnalysis(data []byte) (domain.Analysis, error) {
	var f AnalysisFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return domain.Analysis{}, fmt.Errorf("parse analysis: %w", err)
	}

	rules := f.Rules
	if len(f.Parameters) > 0 || len(f.Thresholds) > 0 || len(f.Operators) > 0 {
		vectorRules, err := domain.NewRules(f.Parameters, f.Thresholds, f.Operators)
		if err != nil {
			return domain.Analysis{}, err
		}
		rules = append(rules, vectorRules...)
	}
	if len(rules) == 0 {
		return domain.Analysis{}, fmt.Errorf("%w: no threshold rules", domain.ErrInvalidArity)
	}
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return domain.Analysis{}, err
		}
	}
	rules = domain.UniqueRules(rules)

	var minDuration time.Duration
	if f.MinDuration != "" {
		d, err := time.ParseDuration(f.MinDuration)
		if err != nil || d < 0 {
			return domain.Analysis{}, fmt.Errorf("invalid min_duration %q", f.MinDuration)
		}
		minDuration = d
	}

	granularity := domain.GranularityYear
	if f.Granularity != "" {
		g, err := domain.ParseGranularity(f.Granularity)
		if err != nil {
			return domain.Analysis{}, err
		}
		granularity = g
	}

	seasons := domain.DefaultSeasonPolicy()
	if f.Seasons != nil {
		p, err := f.Seasons.policy()
		if err != nil {
			return domain.Analysis{}, err
		}
		seasons = p
	}
	if err := seasons.Validate(f.AbbreviateSeasons); err != nil {
		return domain.Analysis{}, err
	}

	return domain.Analysis{
		Rules:  rules,
		Detect: domain.DetectOptions{MinDuration: minDuration},
		Summary: domain.SummaryOptions{
			Granularity:       granularity,
			Seasons:           seasons,
			AbbreviateSeasons: f.AbbreviateSeasons,
		},
	}, nil
}

func (s *SeasonFile) policy() (*domain.SeasonPolicy, error) {
	groupings := make([][]time.Month, len(s.Groups))
	names := make([]string, len(s.Groups))
	for i, g := range s.Groups {
		names[i] = g.Name
		for _, m := range g.Months {
			groupings[i] = append(groupings[i], time.Month(m))
		}
	}
	return domain.NewSeasonPolicy(groupings, names, s.Start)
}
