package builtin

import (
	"fmt"
	"sort"
	"sync"

	"clinprep/internal/config"
	"clinprep/internal/transformer"
)

// CatalogFunc returns a named, predefined chain. workers bounds the imputation
// fan-out.
type CatalogFunc func(workers int) transformer.Chain

var (
	catMu    sync.RWMutex
	catalogs = map[string]CatalogFunc{}
)

// RegisterCatalog makes a predefined chain available to the "catalog"
// transform kind. Registering the same name twice panics.
func RegisterCatalog(name string, fn CatalogFunc) {
	catMu.Lock()
	defer catMu.Unlock()
	if _, dup := catalogs[name]; dup {
		panic("builtin: catalog registered twice: " + name)
	}
	catalogs[name] = fn
}

// Catalogs lists the registered catalog names.
func Catalogs() []string {
	catMu.RLock()
	defer catMu.RUnlock()
	out := make([]string, 0, len(catalogs))
	for k := range catalogs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Catalog returns the chain registered under name.
func Catalog(name string, workers int) (transformer.Chain, error) {
	catMu.RLock()
	fn, ok := catalogs[name]
	catMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown catalog %q (registered: %v)", name, Catalogs())
	}
	return fn(workers), nil
}

// BuildChain turns the configured transform list into a chain. A "catalog"
// entry expands in place to the registered chain.
func BuildChain(ts []config.Transform, workers int) (transformer.Chain, error) {
	var c transformer.Chain
	for i, t := range ts {
		if t.Kind == "catalog" {
			steps, err := Catalog(t.Options.String("name", "admissions"), workers)
			if err != nil {
				return nil, fmt.Errorf("transform[%d]: %w", i, err)
			}
			c = append(c, steps...)
			continue
		}
		s, err := Build(t, workers)
		if err != nil {
			return nil, fmt.Errorf("transform[%d]: %w", i, err)
		}
		c = append(c, s)
	}
	return c, nil
}

// Build constructs one step from its configuration.
func Build(t config.Transform, workers int) (transformer.Step, error) {
	o := t.Options
	var s transformer.Step
	switch t.Kind {
	case "normalize_schema":
		s = NormalizeSchema{}
	case "require_columns":
		s = RequireColumns{Columns: o.StringSlice("columns")}
	case "binary_map":
		s = BinaryMap{Column: o.String("column", ""), Mapping: o.FloatMap("mapping")}
	case "impute":
		s = Impute{
			Columns:  o.StringSlice("columns"),
			Strategy: Strategy(o.String("strategy", string(Mean))),
			Workers:  o.Int("workers", workers),
		}
	case "score_impute":
		s = ScoreImpute{
			Column: o.String("column", ""),
			From:   o.String("from", ""),
			Min:    o.Int("min", 0),
			Max:    o.Int("max", 4),
		}
	case "one_hot":
		s = OneHot{
			Column:     o.String("column", ""),
			Categories: o.StringSlice("categories"),
			Prefix:     o.String("prefix", ""),
			Missing:    MissingPolicy(o.String("missing", string(MissingAbsent))),
			Default:    o.String("default", ""),
			Other:      o.String("other", ""),
		}
	case "yes_no":
		s = YesNo{Columns: o.StringSlice("columns"), Fill: Fill(o.String("fill", string(FillMode)))}
	case "repair_negatives":
		s = RepairNegatives{Column: o.String("column", ""), Decimals: o.Int("decimals", -1)}
	default:
		return nil, fmt.Errorf("unknown transform kind %q", t.Kind)
	}
	return transformer.Named(t.Name, s), nil
}
