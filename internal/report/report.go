// Package report summarizes stored score records as markdown.
package report

import (
	"bytes"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/TobiSchelling/secat/internal/database"
	"github.com/TobiSchelling/secat/internal/sec"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// Composer builds the run report from the store.
type Composer struct {
	db  *database.DB
	top int
}

// NewComposer creates a report composer listing the top scored pairs.
func NewComposer(db *database.DB, top int) *Composer {
	if top <= 0 {
		top = 20
	}
	return &Composer{db: db, top: top}
}

// Compose returns the markdown report of the latest scoring run.
func (c *Composer) Compose() (string, error) {
	latest, err := c.db.GetLatestScoreRun()
	if err != nil {
		return "", fmt.Errorf("reading run report: %w", err)
	}
	if latest == nil {
		return "# secat report\n\nNo scoring run recorded yet. Run `secat score` first.\n", nil
	}
	stats, err := c.db.GetStats()
	if err != nil {
		return "", fmt.Errorf("reading stats: %w", err)
	}
	runs, err := c.db.GetRunSummaries()
	if err != nil {
		return "", fmt.Errorf("reading run summaries: %w", err)
	}
	top, err := c.db.TopScores(c.top)
	if err != nil {
		return "", fmt.Errorf("reading top scores: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# secat report\n\n")
	generated := ""
	if latest.GeneratedAt != nil {
		generated = *latest.GeneratedAt
	}
	fmt.Fprintf(&b, "Run %d, generated %s in %d ms.\n\n", latest.ID, generated, latest.DurationMS)

	b.WriteString("## Summary\n\n")
	b.WriteString("| | Count |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Proteins | %d |\n| Runs | %d |\n| Queries | %d (%d decoys) |\n",
		stats.Proteins, stats.Runs, stats.Queries, stats.Decoys)
	fmt.Fprintf(&b, "| Comparison groups | %d |\n| Scored | %d |\n| Insufficient signal | %d |\n| Failed | %d |\n\n",
		latest.GroupCount, latest.ScoredCount, latest.InsufficientCount, latest.FailedCount)

	b.WriteString("## Parameters\n\n")
	b.WriteString(paramsTable(latest.Params))

	if len(runs) > 0 {
		b.WriteString("\n## Runs\n\n")
		b.WriteString("| Condition | Replicate | Scored | Insufficient | Failed |\n|---|---|---:|---:|---:|\n")
		for _, r := range runs {
			fmt.Fprintf(&b, "| %s | %s | %d | %d | %d |\n", r.ConditionID, r.ReplicateID, r.Scored, r.Insufficient, r.Failed)
		}
	}

	b.WriteString("\n## Top interactions\n\n")
	if len(top) == 0 {
		b.WriteString("No target group was scored.\n")
	} else {
		b.WriteString("| Condition | Replicate | Bait | Prey | xcorr_shape | xcorr_shift | mic | mass_ratio | overlap |\n")
		b.WriteString("|---|---|---|---|---:|---:|---:|---:|---:|\n")
		for _, r := range top {
			f := r.Features
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s | %d |\n",
				r.ConditionID, r.ReplicateID, r.BaitID, r.PreyID,
				num(f.XcorrShape), num(f.XcorrShift), num(f.MIC), num(f.MassRatio), f.LongestOverlap)
		}
	}

	log.WithField("top", len(top)).Debug("Report composed")
	return b.String(), nil
}

func paramsTable(p sec.Params) string {
	var b strings.Builder
	b.WriteString("| Parameter | Value |\n|---|---:|\n")
	fmt.Fprintf(&b, "| monomer_threshold_factor | %g |\n", p.MonomerThresholdFactor)
	fmt.Fprintf(&b, "| monomer_elution_width | %d |\n", p.MonomerElutionWidth)
	fmt.Fprintf(&b, "| minimum_peptides | %d |\n", p.MinimumPeptides)
	fmt.Fprintf(&b, "| maximum_peptides | %d |\n", p.MaximumPeptides)
	fmt.Fprintf(&b, "| minimum_overlap | %d |\n", p.MinimumOverlap)
	fmt.Fprintf(&b, "| minimum_peptide_snr | %g |\n", p.MinimumPeptideSNR)
	fmt.Fprintf(&b, "| chunk_size | %d |\n", p.ChunkSize)
	return b.String()
}

func num(v *float64) string {
	if v == nil {
		return "NA"
	}
	return fmt.Sprintf("%.3f", *v)
}

// RenderHTML converts a markdown report to HTML.
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}
