package reporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/oddslab/internal/service"
)

// MarkdownReporter writes evaluation reports into a report directory.
type MarkdownReporter struct {
	dir    string
	logger *logrus.Logger
}

// NewMarkdownReporter creates the report directory if needed.
func NewMarkdownReporter(dir string, logger *logrus.Logger) (*MarkdownReporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &MarkdownReporter{dir: dir, logger: logger}, nil
}

// WriteEvaluation renders the evaluation battery as a markdown report and
// returns the written path.
func (m *MarkdownReporter) WriteEvaluation(ev *service.Evaluation, now time.Time) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# Strategy Evaluation\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Settled predictions: %d (train %d / test %d, chronological split)\n\n",
		ev.NumSettled, ev.NumTrain, ev.NumTest)

	b.WriteString("## Model performance\n\n")
	b.WriteString("| Split | AUC | LogLoss | Brier | Hit rate | ROI/unit |\n")
	b.WriteString("|-------|-----|---------|-------|----------|----------|\n")
	writeSplitRow(&b, "Train", ev.Train)
	writeSplitRow(&b, "Test", ev.Test)
	b.WriteString("\n")

	if ev.Model != nil {
		b.WriteString("## Model coefficients\n\n")
		b.WriteString("| Feature | Weight |\n")
		b.WriteString("|---------|--------|\n")
		fmt.Fprintf(&b, "| (intercept) | %+.4f |\n", ev.Model.Intercept)
		for i, name := range ev.FeatureNames {
			if i < len(ev.Model.Weights) {
				fmt.Fprintf(&b, "| %s | %+.4f |\n", name, ev.Model.Weights[i])
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("## Calibration (test split)\n\n")
	b.WriteString("| Bin | N | Mean predicted | Observed win rate |\n")
	b.WriteString("|-----|---|----------------|-------------------|\n")
	for _, bin := range ev.Calibration {
		if bin.Count == 0 {
			fmt.Fprintf(&b, "| %.1f-%.1f | 0 | - | - |\n", bin.Low, bin.High)
			continue
		}
		fmt.Fprintf(&b, "| %.1f-%.1f | %d | %.3f | %.3f |\n",
			bin.Low, bin.High, bin.Count, bin.MeanPred, bin.FracWon)
	}
	b.WriteString("\n")

	b.WriteString("## Predictor screens\n\n")
	b.WriteString("| Feature | N | Pearson(profit) | Spearman(profit) | Pt-biserial | AUC | Top decile ROI | Bottom decile ROI |\n")
	b.WriteString("|---------|---|-----------------|------------------|-------------|-----|----------------|-------------------|\n")
	for _, s := range ev.Screens {
		fmt.Fprintf(&b, "| %s | %d | %s | %s | %s | %s | %s | %s |\n",
			s.Feature, s.N,
			num(s.PearsonProfit), num(s.SpearmanProfit), num(s.PointBiserial),
			num(s.AUCvsWin), num(s.TopDecileROI), num(s.BottomDecileROI))
	}
	b.WriteString("\n")

	path := filepath.Join(m.dir, fmt.Sprintf("evaluation_%s.md", now.UTC().Format("20060102_150405")))
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	m.logger.WithFields(logrus.Fields{
		"path":    path,
		"settled": ev.NumSettled,
	}).Info("Evaluation report written")
	return path, nil
}

func writeSplitRow(b *strings.Builder, name string, s service.SplitMetrics) {
	fmt.Fprintf(b, "| %s | %.3f | %.4f | %.4f | %.3f | %+.4f |\n",
		name, s.AUC, s.LogLoss, s.Brier, s.HitRate, s.ROI)
}

// num renders a metric, "-" for NaN produced by thin or constant features.
func num(v float64) string {
	if v != v {
		return "-"
	}
	return fmt.Sprintf("%+.3f", v)
}
