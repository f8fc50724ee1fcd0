// Package policy decides which methods reach each artifact: exclusion sets,
// hand-authored entries, and the checks that keep the artifacts in step.
package policy

import (
	"slices"
	"strings"

	"fntablegen/internal/config"
	"fntablegen/internal/mapping"
	"fntablegen/internal/metadata"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

var (
	// ErrCustomEntryCollision marks a hand-authored entry defined twice for one
	// artifact, or one that replaces a slot an override still dispatches through.
	ErrCustomEntryCollision = errors.New("custom entry collision")
	// ErrMissingCallTableSlot marks an override that would dispatch through a slot
	// the call table does not declare.
	ErrMissingCallTableSlot = errors.New("missing call table slot")
)

// Excluded reports whether name, or name without a leading pointer sigil,
// is in the exclusion set.
func Excluded(name string, exclusions []string) bool {
	return slices.Contains(exclusions, name) || slices.Contains(exclusions, strings.TrimPrefix(name, "*"))
}

// Filter returns the entries of table that are not excluded, in order.
func Filter[T any](table *metadata.Table[T], exclusions []string) *metadata.Table[T] {
	return table.Filter(func(name string, _ T) bool {
		return !Excluded(name, exclusions)
	})
}

// Inject returns table with the custom entries appended in authoring order.
// A custom entry replaces any derived entry of the same name.
func Inject(table *mapping.FlatTable, entries []config.CustomEntry) (*mapping.FlatTable, error) {
	injected := table.Filter(func(string, *mapping.FlatSignature) bool { return true })
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if seen[entry.Name] {
			return nil, errors.Mark(errors.Newf("custom entry %q defined more than once", entry.Name), ErrCustomEntryCollision)
		}
		seen[entry.Name] = true
		injected.Append(entry.Name, FromCustomEntry(entry))
	}
	return injected, nil
}

// FromCustomEntry converts an authored entry, which is already flat.
func FromCustomEntry(entry config.CustomEntry) *mapping.FlatSignature {
	signature := &mapping.FlatSignature{
		Name:       entry.Name,
		ReturnType: entry.ReturnType,
		Const:      entry.Const,
		Arguments:  make([]mapping.FlatParameter, len(entry.Args)),
		Custom:     true,
	}
	for i, arg := range entry.Args {
		signature.Arguments[i] = mapping.FlatParameter{
			Type:  arg.Type,
			Name:  arg.Name,
			Const: strings.HasPrefix(arg.Type, "const ") && strings.HasSuffix(arg.Type, "*"),
		}
	}
	return signature
}

// ValidateConsistency checks that every override dispatches through a slot
// the call table derived from the same declaration. A slot replaced by a
// custom entry has a hand-authored signature the override cannot match.
// Differences between the call table and the schema are legal but reported.
func ValidateConsistency(overrides *metadata.MethodTable, callTable, schema *mapping.FlatTable, logger *zap.SugaredLogger) error {
	var missing, custom []string
	for _, name := range overrides.Names() {
		slot, found := callTable.Get(name)
		switch {
		case !found:
			missing = append(missing, name)
		case slot.Custom:
			custom = append(custom, name)
		}
	}
	if len(missing) > 0 {
		return errors.WithHint(
			errors.Mark(errors.Newf("overrides dispatch through undeclared slots: %s", strings.Join(missing, ", ")), ErrMissingCallTableSlot),
			"exclude these methods from the overrides or keep them in the call table")
	}
	if len(custom) > 0 {
		return errors.WithHint(
			errors.Mark(errors.Newf("overrides dispatch through custom slots: %s", strings.Join(custom, ", ")), ErrCustomEntryCollision),
			"add these methods to exclude.overrides and implement them by hand")
	}

	if onlyTable, onlySchema := difference(callTable.Names(), schema.Names()); len(onlyTable)+len(onlySchema) > 0 {
		logger.Warnw("call table and schema describe different methods",
			"only_in_call_table", onlyTable,
			"only_in_schema", onlySchema)
	}
	return nil
}

func difference(a, b []string) (onlyA, onlyB []string) {
	for _, name := range a {
		if !slices.Contains(b, name) {
			onlyA = append(onlyA, name)
		}
	}
	for _, name := range b {
		if !slices.Contains(a, name) {
			onlyB = append(onlyB, name)
		}
	}
	return onlyA, onlyB
}
