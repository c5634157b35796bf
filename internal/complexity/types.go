// Package complexity computes cyclomatic and cognitive complexity over
// parsed syntax trees.
package complexity

// Result holds the metrics of one function or method.
type Result struct {
	Name       string `json:"name"`
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
	Lines      int    `json:"lines"`
	Cyclomatic int    `json:"cyclomatic"`
	Cognitive  int    `json:"cognitive"`
}

// FileComplexity aggregates the functions of one file.
type FileComplexity struct {
	Path              string   `json:"path"`
	Language          string   `json:"language"`
	Functions         []Result `json:"functions"`
	TotalCyclomatic   int      `json:"total_cyclomatic"`
	TotalCognitive    int      `json:"total_cognitive"`
	AverageCyclomatic float64  `json:"average_cyclomatic"`
	AverageCognitive  float64  `json:"average_cognitive"`
	MaxCyclomatic     int      `json:"max_cyclomatic"`
	MaxCognitive      int      `json:"max_cognitive"`
	FunctionCount     int      `json:"function_count"`
}

// Aggregate fills the totals from Functions.
func (fc *FileComplexity) Aggregate() {
	fc.FunctionCount = len(fc.Functions)
	fc.TotalCyclomatic, fc.TotalCognitive = 0, 0
	fc.MaxCyclomatic, fc.MaxCognitive = 0, 0
	if fc.FunctionCount == 0 {
		fc.AverageCyclomatic, fc.AverageCognitive = 0, 0
		return
	}

	for _, f := range fc.Functions {
		fc.TotalCyclomatic += f.Cyclomatic
		fc.TotalCognitive += f.Cognitive
		fc.MaxCyclomatic = max(fc.MaxCyclomatic, f.Cyclomatic)
		fc.MaxCognitive = max(fc.MaxCognitive, f.Cognitive)
	}

	fc.AverageCyclomatic = float64(fc.TotalCyclomatic) / float64(fc.FunctionCount)
	fc.AverageCognitive = float64(fc.TotalCognitive) / float64(fc.FunctionCount)
}
