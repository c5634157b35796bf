package impact

// Traversal depth bounds. MaxDepth is the only termination guarantee a
// walk needs.
const (
	MinDepth     = 1
	MaxDepth     = 6
	DefaultDepth = 2
)

// ClampDepth moves depth into [MinDepth, MaxDepth].
func ClampDepth(depth int) int {
	if depth < MinDepth {
		return MinDepth
	}
	if depth > MaxDepth {
		return MaxDepth
	}
	return depth
}
