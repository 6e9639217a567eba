package itensor

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

const (
	// MinCut is the default truncation cutoff.
	MinCut = 1e-15
	// MaxM is the default maximum number of kept states.
	MaxM = 5000
)

// Args is an immutable string-keyed bag of options.
// Getters take the default to use for a missing key.
// A present key of the wrong type is a programming error and panics.
type Args struct {
	m map[string]any
}

func NewArgs() Args {
	return Args{}
}

// ArgsFromMap returns Args holding a copy of m.
func ArgsFromMap(m map[string]any) Args {
	return Args{m: maps.Clone(m)}
}

// Add returns a copy of a with key set to v.
func (a Args) Add(key string, v any) Args {
	m := maps.Clone(a.m)
	if m == nil {
		m = make(map[string]any)
	}
	m[key] = v
	return Args{m: m}
}

func (a Args) Defined(key string) bool {
	_, ok := a.m[key]
	return ok
}

func (a Args) GetReal(key string, def float64) float64 {
	v, ok := a.m[key]
	if !ok {
		return def
	}
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	default:
		panic(fmt.Sprintf("%s %#v", key, v))
	}
}

func (a Args) GetInt(key string, def int) int {
	v, ok := a.m[key]
	if !ok {
		return def
	}
	switch x := v.(type) {
	case int:
		return x
	case float64:
		if x != float64(int(x)) {
			panic(fmt.Sprintf("%s %#v", key, v))
		}
		return int(x)
	default:
		panic(fmt.Sprintf("%s %#v", key, v))
	}
}

func (a Args) GetBool(key string, def bool) bool {
	v, ok := a.m[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		panic(fmt.Sprintf("%s %#v", key, v))
	}
	return b
}

func (a Args) GetString(key string, def string) string {
	v, ok := a.m[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		panic(fmt.Sprintf("%s %#v", key, v))
	}
	return s
}

// GetIndexType accepts either an IndexType or its name.
func (a Args) GetIndexType(key string, def IndexType) IndexType {
	v, ok := a.m[key]
	if !ok {
		return def
	}
	switch x := v.(type) {
	case IndexType:
		return x
	case string:
		for _, t := range []IndexType{All, Link, Site} {
			if strings.EqualFold(t.String(), x) {
				return t
			}
		}
	}
	panic(fmt.Sprintf("%s %#v", key, v))
}

func (a Args) String() string {
	keys := slices.Sorted(maps.Keys(a.m))
	ss := make([]string, 0, len(keys))
	for _, k := range keys {
		ss = append(ss, fmt.Sprintf("%s=%v", k, a.m[k]))
	}
	return "Args{" + strings.Join(ss, ", ") + "}"
}

// truncParams are the truncation options shared by all decompositions.
type truncParams struct {
	cutoff         float64
	maxm           int
	minm           int
	truncate       bool
	doRelCutoff    bool
	absoluteCutoff bool
	showEigs       bool
}

// readTruncParams reads truncation options from args, falling back to def.
func readTruncParams(args Args, def truncParams) truncParams {
	p := truncParams{}
	p.cutoff = args.GetReal("Cutoff", def.cutoff)
	p.maxm = args.GetInt("Maxm", def.maxm)
	p.minm = args.GetInt("Minm", def.minm)
	p.truncate = args.GetBool("Truncate", def.truncate)
	p.doRelCutoff = args.GetBool("DoRelCutoff", def.doRelCutoff)
	p.absoluteCutoff = args.GetBool("AbsoluteCutoff", def.absoluteCutoff)
	p.showEigs = args.GetBool("ShowEigs", def.showEigs)
	return p
}

// defaultTruncParams returns the library defaults, truncating or not.
func defaultTruncParams(truncate bool) truncParams {
	return truncParams{cutoff: MinCut, maxm: MaxM, minm: 1, truncate: truncate}
}
