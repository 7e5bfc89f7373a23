// Package orchestrator drives one dialect through the apply/dry-run/export
// workflow: connect, pull the live schema, diff it against the desired SQL,
// and either execute the resulting statements, render them for preview, or
// (for Export) just re-render the live schema through the dialect's own
// canonical SQL form.
package orchestrator

import (
	"os"

	"github.com/k0kubun/pp/v3"

	"github.com/schemadrift/schemadrift/annotation"
	"github.com/schemadrift/schemadrift/dialect"
	"github.com/schemadrift/schemadrift/diff"
	"github.com/schemadrift/schemadrift/diffcfg"
	"github.com/schemadrift/schemadrift/executor"
	"github.com/schemadrift/schemadrift/ir"
	"github.com/schemadrift/schemadrift/plan"
	"github.com/schemadrift/schemadrift/renderer"
)

type Mode int

const (
	ModeApply Mode = iota
	ModeDryRun
	ModeExport
)

type Options struct {
	Mode       Mode
	EnableDrop bool
	Config     diffcfg.Config
	// Debug pretty-prints the computed diff ops to stderr before they're
	// rendered or applied, for inspecting what the diff engine decided
	// without reading generated SQL back out.
	Debug bool
}

// Output is the closed set of results a Run can produce, one member active
// per Mode.
type Output interface {
	isOutput()
}

type (
	AppliedOutput   struct{}
	DryRunSQLOutput struct{ SQL string }
	ExportSQLOutput struct{ SQL string }
)

func (AppliedOutput) isOutput()   {}
func (DryRunSQLOutput) isOutput() {}
func (ExportSQLOutput) isOutput() {}

// Orchestrator ties one dialect to a fresh diff engine for the lifetime of
// a run.
type Orchestrator struct {
	dialect    dialect.Dialect
	diffEngine diff.DiffEngine
}

func New(d dialect.Dialect) Orchestrator {
	return Orchestrator{dialect: d, diffEngine: diff.NewDiffEngine()}
}

// Run connects to the target database, diffs it against desiredSQL, and
// carries out options.Mode: Apply executes the statements, DryRun renders
// them without executing, Export re-renders the live schema through the
// dialect's canonical SQL form.
func (o Orchestrator) Run(connectionConfig dialect.ConnectionConfig, desiredSQL string, options Options) (Output, error) {
	adapter, err := o.dialect.Connect(connectionConfig)
	if err != nil {
		return nil, err
	}

	currentSQL, err := adapter.ExportSchema()
	if err != nil {
		return nil, err
	}

	if options.Mode == ModeExport {
		objects, err := o.parseAndNormalize(currentSQL)
		if err != nil {
			return nil, err
		}
		objects = diffcfg.FilterObjects(objects, options.Config)
		rendered, err := o.renderExport(objects)
		if err != nil {
			return nil, err
		}
		return ExportSQLOutput{SQL: rendered}, nil
	}

	current, err := o.parseAndNormalize(currentSQL)
	if err != nil {
		return nil, err
	}
	desired, err := o.parseDesiredWithAnnotations(desiredSQL)
	if err != nil {
		return nil, err
	}

	current = diffcfg.FilterObjects(current, options.Config)
	desired = diffcfg.FilterObjects(desired, options.Config)

	diffConfig := o.diffConfig(adapter, options.EnableDrop)
	diffOutcome, err := o.diffEngine.DiffWithDiagnostics(desired, current, diffConfig)
	if err != nil {
		return nil, err
	}

	if options.Debug {
		pp.Fprintln(os.Stderr, diffOutcome.Ops)
	}

	statements, err := o.dialect.GenerateDDL(plan.BuildDdlPlan(diffOutcome.Ops).Ops())
	if err != nil {
		return nil, err
	}

	if options.Mode == ModeApply {
		exec := executor.New(adapter)
		if err := exec.ExecutePlan(statements); err != nil {
			return nil, err
		}
		return AppliedOutput{}, nil
	}

	rendered := o.renderDryRun(statements, diffOutcome.Diagnostics)
	return DryRunSQLOutput{SQL: rendered}, nil
}

// ExportRoundtripMatches reports whether re-exporting exportedSQL through
// this dialect's parse/normalize/render pipeline reproduces it verbatim —
// a canonical-form self-consistency check, not a database comparison.
func (o Orchestrator) ExportRoundtripMatches(exportedSQL string) (bool, error) {
	reExported, err := o.exportSQLFromInput(exportedSQL)
	if err != nil {
		return false, err
	}
	return exportedSQL == reExported, nil
}

func (o Orchestrator) parseAndNormalize(sql string) ([]ir.SchemaObject, error) {
	objects, err := o.dialect.Parse(sql)
	if err != nil {
		return nil, err
	}
	normalized := make([]ir.SchemaObject, len(objects))
	for i, object := range objects {
		normalized[i] = o.dialect.Normalize(object)
	}
	return normalized, nil
}

// parseDesiredWithAnnotations extracts @renamed directives from the desired
// SQL's own comments before handing it to the dialect parser, then attaches
// each surviving annotation back onto the parsed table/view/column it sits
// beside. Annotations only make sense on hand-authored desired SQL — the
// live schema pulled from the database carries no such comments.
func (o Orchestrator) parseDesiredWithAnnotations(sql string) ([]ir.SchemaObject, error) {
	cleaned, annotations, err := annotation.Extract(sql)
	if err != nil {
		return nil, err
	}

	objects, err := o.parseAndNormalize(cleaned)
	if err != nil {
		return nil, err
	}

	if len(annotations) == 0 {
		return objects, nil
	}

	attachments := annotation.BuildAttachments(cleaned)
	if err := annotation.Attach(objects, annotations, attachments); err != nil {
		return nil, err
	}
	return objects, nil
}

func (o Orchestrator) exportSQLFromInput(sql string) (string, error) {
	objects, err := o.parseAndNormalize(sql)
	if err != nil {
		return "", err
	}
	return o.renderExport(objects)
}

func (o Orchestrator) diffConfig(adapter dialect.DatabaseAdapter, enableDrop bool) diffcfg.DiffConfig {
	return diffcfg.NewDiffConfig(enableDrop, adapter.SchemaSearchPath(), o.dialect.EquivalencePolicy())
}

func (o Orchestrator) renderDryRun(statements []dialect.Statement, diagnostics diff.DiffDiagnostics) string {
	r := renderer.New(o.dialect)
	var rendered string
	r.RenderSkippedDiagnostics(&rendered, skippedMessages(diagnostics))
	rendered += r.Render(statements)
	return rendered
}

func (o Orchestrator) renderExport(objects []ir.SchemaObject) (string, error) {
	var rendered string
	for _, object := range objects {
		sql, err := o.dialect.ToSQL(object)
		if err != nil {
			return "", err
		}
		rendered += sql
		rendered += "\n"
	}
	return rendered, nil
}

func skippedMessages(diagnostics diff.DiffDiagnostics) []string {
	messages := make([]string, 0, len(diagnostics.SkippedOps))
	for _, diagnostic := range diagnostics.SkippedOps {
		messages = append(messages, diagnostic.Kind.Tag())
	}
	return messages
}
