package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"locusga/internal/model"
)

const (
	runFile            = "run.json"
	fitnessHistoryFile = "fitness_history.json"
	generationsFile    = "generations.csv"
)

// RunArtifacts is everything exported for one finished run.
type RunArtifacts struct {
	Run         model.RunRecord
	Generations []model.GenerationSummary
}

type FitnessHistory struct {
	RunID            string    `json:"run_id"`
	BestByGeneration []float64 `json:"best_by_generation"`
	FinalBestFitness float64   `json:"final_best_fitness"`
	GoalReached      bool      `json:"goal_reached"`
}

var generationsHeader = []string{"generation", "best_fitness", "mean_fitness", "worst_fitness", "diversity"}

// WriteRunArtifacts writes the run record, its fitness history and a CSV of
// generation summaries under baseDir/<run id>, returning that directory.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Run.ID == "" {
		return "", fmt.Errorf("run id is required")
	}
	if id := artifacts.Run.ID; id == "." || !filepath.IsLocal(id) || filepath.Base(id) != id {
		return "", fmt.Errorf("run id %q is not a plain directory name", id)
	}

	runDir := filepath.Join(baseDir, artifacts.Run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, runFile), artifacts.Run); err != nil {
		return "", err
	}
	history := FitnessHistory{
		RunID:            artifacts.Run.ID,
		BestByGeneration: make([]float64, len(artifacts.Generations)),
		FinalBestFitness: artifacts.Run.FinalBestFitness,
		GoalReached:      artifacts.Run.GoalReached,
	}
	for i, g := range artifacts.Generations {
		history.BestByGeneration[i] = g.BestFitness
	}
	if err := writeJSON(filepath.Join(runDir, fitnessHistoryFile), history); err != nil {
		return "", err
	}
	if err := writeGenerationsCSV(filepath.Join(runDir, generationsFile), artifacts.Generations); err != nil {
		return "", err
	}
	return runDir, nil
}

// ReadFitnessHistory loads a previously exported history. The boolean is
// false when the run has no exported artifacts.
func ReadFitnessHistory(baseDir, runID string) (FitnessHistory, bool, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runID, fitnessHistoryFile))
	if err != nil {
		if os.IsNotExist(err) {
			return FitnessHistory{}, false, nil
		}
		return FitnessHistory{}, false, err
	}
	var history FitnessHistory
	if err := json.Unmarshal(data, &history); err != nil {
		return FitnessHistory{}, false, err
	}
	return history, true, nil
}

func writeGenerationsCSV(path string, generations []model.GenerationSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(generationsHeader); err != nil {
		return err
	}
	for _, g := range generations {
		record := []string{
			strconv.Itoa(g.Generation),
			formatFloat(g.BestFitness),
			formatFloat(g.MeanFitness),
			formatFloat(g.WorstFitness),
			formatFloat(g.Diversity),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
