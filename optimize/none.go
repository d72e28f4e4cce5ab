package optimize

// None is an optimizer which computes the initial likelihood and
// exits.
type None struct {
	BaseOptimizer
}

// NewNone creates an optimizer which computes the initial likelihood
// only.
func NewNone() *None {
	return &None{}
}

// Run computes the likelihood once.
func (n *None) Run(iterations int) {
	l := n.Likelihood()
	n.calls++
	n.maxL = l
	n.maxLPar = n.parameters.Values(n.maxLPar)
	n.PrintHeader()
	n.PrintLine(l, 1)
}
