// Package generation turns one parsed interface into the call table header,
// the override bodies, the schema and optionally Go bindings. Every artifact
// is rendered in memory from the same parse before anything is written.
package generation

import (
	"os"
	"path/filepath"

	"fntablegen/internal/config"
	"fntablegen/internal/logging"
	"fntablegen/internal/mapping"
	"fntablegen/internal/metadata"
	"fntablegen/internal/policy"
	"fntablegen/internal/schema"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// Artifact is one rendered output file.
type Artifact struct {
	// Path is relative to the output directory.
	Path    string
	Content []byte
}

// Result holds everything derived from one parse.
type Result struct {
	Methods   *metadata.MethodTable
	CallTable *mapping.FlatTable
	Overrides *metadata.MethodTable
	Schema    *schema.Document
	Artifacts []Artifact
}

type Generator struct {
	config *config.Config
	logger *zap.SugaredLogger
	reader *metadata.HeaderReader
	mapper *mapping.Mapper
}

func NewGenerator(cfg *config.Config, logger *zap.SugaredLogger) *Generator {
	logger = logging.OrNop(logger)
	return &Generator{
		config: cfg,
		logger: logger,
		reader: metadata.NewReader(cfg, logger),
		mapper: mapping.NewMapper(cfg),
	}
}

// Generate parses lines once and renders every artifact. Nothing is
// returned unless all of them succeed.
func (generator *Generator) Generate(lines []string) (*Result, error) {
	methods, err := generator.reader.Read(lines)
	if err != nil {
		return nil, err
	}

	cfg := generator.config
	result := &Result{Methods: methods}

	// Exclusion is by name, so filtering before flattening keeps methods
	// that never reach an artifact from needing a mapping rule.
	callTable, err := generator.mapper.FlattenTable(policy.Filter(methods, cfg.Exclude.CallTable))
	if err != nil {
		return nil, errors.Wrap(err, "call table")
	}
	if result.CallTable, err = generator.inject("call table", callTable, cfg.Custom.CallTable); err != nil {
		return nil, err
	}

	schemaTable, err := generator.mapper.FlattenTable(policy.Filter(methods, cfg.Exclude.Schema))
	if err != nil {
		return nil, errors.Wrap(err, "schema")
	}
	if schemaTable, err = generator.inject("schema", schemaTable, cfg.Custom.Schema); err != nil {
		return nil, err
	}
	result.Schema = schema.Build(schemaTable, cfg.Structs)

	result.Overrides = policy.Filter(methods, cfg.Exclude.Overrides)
	if err := policy.ValidateConsistency(result.Overrides, result.CallTable, schemaTable, generator.logger); err != nil {
		return nil, err
	}

	header, err := EmitCallTable(cfg, result.CallTable)
	if err != nil {
		return nil, err
	}
	overrides, err := NewOverrideEmitter(cfg, generator.mapper).Emit(result.Overrides)
	if err != nil {
		return nil, err
	}
	document, err := schema.Encode(result.Schema, cfg.Output.SchemaFormat)
	if err != nil {
		return nil, err
	}
	result.Artifacts = []Artifact{
		{Path: cfg.Output.CallTable, Content: header},
		{Path: cfg.Output.Overrides, Content: overrides},
		{Path: cfg.Output.Schema, Content: document},
	}

	if cfg.Output.GoBindings != "" {
		source, err := NewGoBindings(cfg).Emit(result.Schema)
		if err != nil {
			return nil, err
		}
		result.Artifacts = append(result.Artifacts, Artifact{Path: cfg.Output.GoBindings, Content: source})
	}

	generator.logger.Debugw("generated artifacts",
		"methods", methods.Len(),
		"call_table", result.CallTable.Len(),
		"overrides", result.Overrides.Len(),
		"schema", len(result.Schema.Methods))
	return result, nil
}

func (generator *Generator) inject(artifact string, table *mapping.FlatTable, entries []config.CustomEntry) (*mapping.FlatTable, error) {
	for _, entry := range entries {
		if table.Has(entry.Name) {
			generator.logger.Infow("custom entry replaces derived method", "artifact", artifact, "method", entry.Name)
		}
	}
	injected, err := policy.Inject(table, entries)
	if err != nil {
		return nil, errors.Wrap(err, artifact)
	}
	return injected, nil
}

// rename is replaced in tests to fail part way through the swap.
var rename = os.Rename

// Write stores every artifact under dir. Each file is first written next to
// its destination and only renamed into place once all of them are on disk.
// Existing files are moved aside during the swap and put back if any rename
// fails, so dir holds either the old set or the new one.
func Write(dir string, artifacts []Artifact) error {
	type pending struct {
		temp, target, backup string
	}
	staged := make([]pending, 0, len(artifacts))
	cleanup := func(remaining []pending) {
		for _, p := range remaining {
			os.Remove(p.temp)
		}
	}
	restore := func(done []pending) {
		for i := len(done) - 1; i >= 0; i-- {
			if done[i].backup == "" {
				os.Remove(done[i].target)
				continue
			}
			os.Remove(done[i].target)
			os.Rename(done[i].backup, done[i].target)
		}
	}

	for _, artifact := range artifacts {
		target := filepath.Join(dir, artifact.Path)
		if err := os.MkdirAll(filepath.Dir(target), os.ModePerm); err != nil {
			cleanup(staged)
			return errors.Wrapf(err, "creating directory for %s", artifact.Path)
		}
		temp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*")
		if err != nil {
			cleanup(staged)
			return errors.Wrapf(err, "staging %s", artifact.Path)
		}
		staged = append(staged, pending{temp: temp.Name(), target: target})
		_, writeErr := temp.Write(artifact.Content)
		closeErr := temp.Close()
		if err := errors.CombineErrors(writeErr, closeErr); err != nil {
			cleanup(staged)
			return errors.Wrapf(err, "staging %s", artifact.Path)
		}
		if err := os.Chmod(temp.Name(), 0o644); err != nil {
			cleanup(staged)
			return errors.Wrapf(err, "staging %s", artifact.Path)
		}
	}

	for i := range staged {
		p := &staged[i]
		if _, err := os.Lstat(p.target); err == nil {
			backup := p.temp + ".orig"
			if err := rename(p.target, backup); err != nil {
				restore(staged[:i])
				cleanup(staged[i:])
				return errors.Wrapf(err, "moving aside %s", p.target)
			}
			p.backup = backup
		}
		if err := rename(p.temp, p.target); err != nil {
			if p.backup != "" {
				os.Rename(p.backup, p.target)
			}
			restore(staged[:i])
			cleanup(staged[i:])
			return errors.Wrapf(err, "replacing %s", p.target)
		}
	}

	for _, p := range staged {
		if p.backup != "" {
			os.Remove(p.backup)
		}
	}
	return nil
}
