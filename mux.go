package res

// Byte markers used when parsing patterns and resource names.
const (
	pmark = '$'
	pwild = '*'
	fwild = '>'
	btsep = '.'
)

// Mux stores handlers under resource name patterns and resolves a resource
// name to its registered handler with deterministic precedence: literal
// children first, then a parameter child, then a terminal full-wildcard
// child (see Pattern).
type Mux struct {
	path string // service-wide prefix mounted in front of every pattern
	plen int    // number of dot-separated tokens in path
	root *node
}

// regHandler is a handler bound to the pattern it was registered under,
// plus the information needed to capture path parameters and resolve the
// serialization group at match time.
type regHandler struct {
	Handler
	group  group
	params []pathParam
}

// node is one token position in the pattern trie. At most one handler may
// be registered on a given node.
type node struct {
	paramName string // set on a node reached through a $name child
	hs        *regHandler
	nodes     map[string]*node // literal children keyed by literal text
	param     *node            // the single $name child, if any
	wild      *node            // the > child, if any
}

// pathParam is a parameter captured at registration time: its name and the
// zero-based token index (relative to the subpattern) it occupies.
type pathParam struct {
	name string
	idx  int
}

// Match is the result of resolving a resource name to a registered handler.
type Match struct {
	Handler *Handler
	Params  map[string]string
	Group   string
}

// NewMux returns a new Mux. path is the service-wide prefix that every
// pattern registered on this Mux is implicitly under; it may be empty.
func NewMux(path string) *Mux {
	return &Mux{
		path: path,
		plen: len(splitPattern(path)),
		root: &node{},
	}
}

// Handle registers handler options under a resource name subpattern. It
// panics with a description of the conflict if the pattern is invalid,
// already registered, or ambiguous with a sibling registration.
func (m *Mux) Handle(subpattern string, opts ...Option) {
	var h Handler
	for _, o := range opts {
		o.SetOption(&h)
	}
	m.AddHandler(subpattern, h)
}

// AddHandler registers a fully built Handler under a resource name
// subpattern. See Handle for the pattern syntax and panic conditions.
func (m *Mux) AddHandler(subpattern string, h Handler) {
	if !Pattern(subpattern).IsValid() {
		panic("res: invalid pattern: " + subpattern)
	}
	rh := &regHandler{
		Handler: h,
		group:   parseGroup(h.Group, subpattern),
	}
	m.add(subpattern, rh)
}

// add inserts rh at the node addressed by subpattern, panicking on a
// conflicting pattern.
func (m *Mux) add(subpattern string, rh *regHandler) {
	tokens := splitPattern(subpattern)

	l := m.root
	for i, t := range tokens {
		var n *node
		switch t[0] {
		case pmark:
			name := t[1:]
			rh.params = append(rh.params, pathParam{name: name, idx: i})
			if l.param == nil {
				l.param = &node{paramName: name}
			}
			n = l.param
		case fwild:
			if l.wild == nil {
				l.wild = &node{}
			}
			n = l.wild
		default:
			if l.nodes == nil {
				l.nodes = make(map[string]*node)
			}
			n = l.nodes[t]
			if n == nil {
				n = &node{}
				l.nodes[t] = n
			}
		}
		l = n
	}

	if l.hs != nil {
		panic("res: pattern conflict: " + subpattern)
	}
	l.hs = rh
}

// GetHandler resolves rname to its registered handler, applying the match
// precedence documented on Mux. It returns nil if no handler matches.
func (m *Mux) GetHandler(rname string) *Match {
	tokens, ok := m.stripPrefix(rname)
	if !ok {
		return nil
	}

	var rh *regHandler
	if len(tokens) == 0 {
		rh = m.root.hs
	} else {
		rh = matchNode(m.root, tokens, 0)
	}
	if rh == nil {
		return nil
	}

	params := captureParams(rh, tokens)
	return &Match{
		Handler: &rh.Handler,
		Params:  params,
		Group:   rh.group.toString(rname, tokens),
	}
}

// stripPrefix removes the Mux's own path prefix from a resource name,
// returning the remaining tokens. ok is false if rname doesn't carry the
// prefix.
func (m *Mux) stripPrefix(rname string) (tokens []string, ok bool) {
	all := splitPattern(rname)
	if len(all) < m.plen {
		return nil, false
	}
	for i, t := range splitPattern(m.path) {
		if all[i] != t {
			return nil, false
		}
	}
	return all[m.plen:], true
}

// matchNode walks the trie for toks[i:], preferring a literal child, then
// the parameter child at the same level, then falling back to a full
// wildcard if neither yields a match further down.
func matchNode(l *node, toks []string, i int) *regHandler {
	t := toks[i]
	i++
	last := i == len(toks)

	if n := l.nodes[t]; n != nil {
		if last {
			if n.hs != nil {
				return n.hs
			}
		} else if rh := matchNode(n, toks, i); rh != nil {
			return rh
		}
	}

	if n := l.param; n != nil {
		if last {
			if n.hs != nil {
				return n.hs
			}
		} else if rh := matchNode(n, toks, i); rh != nil {
			return rh
		}
	}

	if l.wild != nil && l.wild.hs != nil {
		return l.wild.hs
	}

	return nil
}

// captureParams builds the path-parameter map for a match using the
// parameter positions recorded at registration time.
func captureParams(rh *regHandler, toks []string) map[string]string {
	if len(rh.params) == 0 {
		return nil
	}
	params := make(map[string]string, len(rh.params))
	for _, p := range rh.params {
		if p.idx < len(toks) {
			params[p.name] = toks[p.idx]
		}
	}
	return params
}

// Contains reports whether any registered handler satisfies test.
func (m *Mux) Contains(test func(Handler) bool) bool {
	return containsNode(m.root, test)
}

func containsNode(n *node, test func(Handler) bool) bool {
	if n == nil {
		return false
	}
	if n.hs != nil && test(n.hs.Handler) {
		return true
	}
	if containsNode(n.param, test) {
		return true
	}
	if containsNode(n.wild, test) {
		return true
	}
	for _, c := range n.nodes {
		if containsNode(c, test) {
			return true
		}
	}
	return false
}

// OwnedPatterns walks every registered pattern and returns the full
// resource name patterns (including the Mux path) whose handler satisfies
// test, in the form used in a system.reset resources/access list.
func (m *Mux) OwnedPatterns(test func(Handler) bool) []string {
	var out []string
	collectPatterns(m.root, m.path, test, &out)
	return out
}

func collectPatterns(n *node, prefix string, test func(Handler) bool, out *[]string) {
	if n == nil {
		return
	}
	if n.hs != nil && test(n.hs.Handler) {
		*out = append(*out, prefix)
	}
	for t, c := range n.nodes {
		collectPatterns(c, mergePattern(prefix, t), test, out)
	}
	if n.param != nil {
		collectPatterns(n.param, mergePattern(prefix, "$"+n.param.paramName), test, out)
	}
	if n.wild != nil {
		collectPatterns(n.wild, mergePattern(prefix, ">"), test, out)
	}
}
