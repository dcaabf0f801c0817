package graph

// arena indexes every extracted function by position so caller resolution is
// a map lookup per call site instead of a scan over all functions.
type arena struct {
	nodes  []FunctionNode
	byBare map[string][]int // bare name -> arena indices, ascending
}

func newArena(nodes []FunctionNode) *arena {
	a := &arena{
		nodes:  nodes,
		byBare: make(map[string][]int, len(nodes)),
	}
	for i := range nodes {
		bare := bareName(nodes[i].Name)
		a.byBare[bare] = append(a.byBare[bare], i)
	}
	return a
}

// resolve returns the index of the first function whose qualified name equals
// target or whose bare name equals target's bare name, or -1.
//
// An exact qualified match always shares the target's bare name, so the first
// bare-name match is also the first match overall.
func (a *arena) resolve(target string) int {
	if target == TargetSubscript || target == TargetChained {
		return -1
	}
	if indices := a.byBare[bareName(target)]; len(indices) > 0 {
		return indices[0]
	}
	return -1
}

// resolveCallers maps each qualified name to the call sites that resolve to it.
// Every call site contributes at most one CallerInfo.
func (a *arena) resolveCallers() map[string][]CallerInfo {
	callers := make(map[string][]CallerInfo, len(a.nodes))
	for i := range a.nodes {
		caller := &a.nodes[i]
		for _, site := range caller.CallSites {
			idx := a.resolve(site.Target)
			if idx < 0 {
				continue
			}
			callee := a.nodes[idx].Name
			callers[callee] = append(callers[callee], CallerInfo{
				Function: caller.Name,
				File:     caller.File,
				Line:     site.Line,
			})
		}
	}
	return callers
}
