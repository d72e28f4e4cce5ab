package optimize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"strconv"
)

// Randomize bounds for parameters with infinite ranges.
const (
	randMin = -10
	randMax = +10
)

// FloatParameter is a single float64 model parameter known to the
// optimizer: it carries a name, bounds, a prior and a proposal
// distribution.
type FloatParameter interface {
	Name() string
	Prior() float64
	OldPrior() float64
	Propose()
	Accept(iter int)
	Reject()
	String() string
	SetMin(float64)
	SetMax(float64)
	GetMin() float64
	GetMax() float64
	SetOnChange(func())
	SetProposalFunc(func(float64) float64)
	SetPriorFunc(func(float64) float64)
	Get() float64
	Set(float64)
	InRange() bool
	ValueInRange(float64) bool
}

// FloatParameterGenerator creates a FloatParameter bound to a value.
type FloatParameterGenerator func(*float64, string) FloatParameter

// FloatParameters is a collection of parameters in a fixed order.
type FloatParameters []FloatParameter

// Append adds a parameter.
func (p *FloatParameters) Append(par FloatParameter) {
	*p = append(*p, par)
}

// Names returns parameter names, reusing is if non-nil.
func (p *FloatParameters) Names(is []string) (s []string) {
	if is == nil {
		s = make([]string, len(*p))
	} else {
		s = is
	}
	for i, par := range *p {
		s[i] = par.Name()
	}
	return
}

// Values returns parameter values, reusing iv if non-nil.
func (p *FloatParameters) Values(iv []float64) (v []float64) {
	if iv == nil {
		v = make([]float64, len(*p))
	} else {
		v = iv
	}
	for i, par := range *p {
		v[i] = par.Get()
	}
	return
}

// ValuesInRange returns true if all the given values are inside the
// parameter bounds.
func (p *FloatParameters) ValuesInRange(vals []float64) bool {
	if len(vals) != len(*p) {
		panic("incorrect number of parameters")
	}
	for i, par := range *p {
		if !par.ValueInRange(vals[i]) {
			return false
		}
	}
	return true
}

// SetValues sets all parameter values.
func (p *FloatParameters) SetValues(v []float64) error {
	if len(v) != len(*p) {
		return fmt.Errorf("expected %d parameter values, got %d", len(*p), len(v))
	}
	for i, par := range *p {
		par.Set(v[i])
	}
	return nil
}

// ReadLine sets parameter values from a trajectory line (iteration,
// likelihood, values).
func (p *FloatParameters) ReadLine(l string) error {
	v, err := ReadFloats(l)
	if err != nil {
		return err
	}
	if len(v) < 2 {
		return fmt.Errorf("trajectory line too short")
	}
	return p.SetValues(v[2:])
}

// Randomize sets every parameter to a uniform random value inside its
// bounds.
func (p *FloatParameters) Randomize() {
	for _, par := range *p {
		min := math.Max(randMin, par.GetMin())
		max := math.Min(randMax, par.GetMax())
		par.Set(min + rand.Float64()*(max-min))
	}
}

// InRange returns true if all parameters are inside their bounds.
func (p *FloatParameters) InRange() bool {
	for _, par := range *p {
		if !par.InRange() {
			return false
		}
	}
	return true
}

// NamesString returns tab-separated parameter names.
func (p *FloatParameters) NamesString() (s string) {
	for i, par := range *p {
		if i != 0 {
			s += "\t"
		}
		s += par.Name()
	}
	return
}

// ValuesString returns tab-separated parameter values.
func (p *FloatParameters) ValuesString() (s string) {
	for i, par := range *p {
		if i != 0 {
			s += "\t"
		}
		s += par.String()
	}
	return
}

// ParamsMap returns a name to value map.
func (p *FloatParameters) ParamsMap() map[string]float64 {
	m := make(map[string]float64, len(*p))
	for _, par := range *p {
		m[par.Name()] = par.Get()
	}
	return m
}

// SetFromMap sets parameter values from a name to value map; names
// missing from the map are left unchanged.
func (p *FloatParameters) SetFromMap(m map[string]float64) {
	for _, par := range *p {
		if v, ok := m[par.Name()]; ok {
			par.Set(v)
		}
	}
}

// MarshalJSON encodes parameters as a JSON object preserving order.
func (p FloatParameters) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, par := range p {
		if i != 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(par.Name())
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		val, err := json.Marshal(par.Get())
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON sets parameter values from a JSON object.
func (p *FloatParameters) UnmarshalJSON(data []byte) error {
	m := make(map[string]float64)
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	p.SetFromMap(m)
	return nil
}

// BasicFloatParameter is the default FloatParameter implementation. It
// keeps a pointer to the model's value so that proposing and rejecting
// act on the model directly.
type BasicFloatParameter struct {
	*float64
	old          float64
	name         string
	priorFunc    func(float64) float64
	proposalFunc func(float64) float64
	min          float64
	max          float64
	onChange     func()
}

// NewBasicFloatParameter creates a parameter with an unbounded range,
// a uniform prior and a normal proposal.
func NewBasicFloatParameter(par *float64, name string) *BasicFloatParameter {
	return &BasicFloatParameter{
		float64:      par,
		name:         name,
		priorFunc:    UniformPrior(-1, 1, true, true),
		proposalFunc: NormalProposal(1),
		min:          math.Inf(-1),
		max:          math.Inf(+1),
	}
}

// BasicFloatParameterGenerator is the FloatParameterGenerator for
// BasicFloatParameter.
func BasicFloatParameterGenerator(par *float64, name string) FloatParameter {
	return NewBasicFloatParameter(par, name)
}

func (p *BasicFloatParameter) Name() string {
	return p.name
}

func (p *BasicFloatParameter) SetMin(min float64) {
	p.min = min
}

func (p *BasicFloatParameter) SetMax(max float64) {
	p.max = max
}

func (p *BasicFloatParameter) GetMin() float64 {
	return p.min
}

func (p *BasicFloatParameter) GetMax() float64 {
	return p.max
}

func (p *BasicFloatParameter) SetPriorFunc(f func(float64) float64) {
	p.priorFunc = f
}

func (p *BasicFloatParameter) SetProposalFunc(f func(float64) float64) {
	p.proposalFunc = f
}

func (p *BasicFloatParameter) SetOnChange(f func()) {
	p.onChange = f
}

func (p *BasicFloatParameter) Get() float64 {
	return *p.float64
}

func (p *BasicFloatParameter) Set(v float64) {
	if *p.float64 == v {
		return
	}
	*p.float64 = v
	if p.onChange != nil {
		p.onChange()
	}
}

func (p *BasicFloatParameter) InRange() bool {
	return p.ValueInRange(*p.float64)
}

func (p *BasicFloatParameter) ValueInRange(v float64) bool {
	return v >= p.min && v <= p.max
}

func (p *BasicFloatParameter) Prior() float64 {
	return p.priorFunc(*p.float64)
}

func (p *BasicFloatParameter) OldPrior() float64 {
	return p.priorFunc(p.old)
}

// reflect brings the value back inside the bounds by mirroring at the
// boundary.
func (p *BasicFloatParameter) reflect() {
	for *p.float64 < p.min || *p.float64 > p.max {
		if *p.float64 < p.min {
			*p.float64 = p.min + (p.min - *p.float64)
		}
		if *p.float64 > p.max {
			*p.float64 = p.max - (*p.float64 - p.max)
		}
	}
}

func (p *BasicFloatParameter) Propose() {
	p.old, *p.float64 = *p.float64, p.proposalFunc(*p.float64)
	p.reflect()
	if p.onChange != nil {
		p.onChange()
	}
}

func (p *BasicFloatParameter) Reject() {
	*p.float64, p.old = p.old, *p.float64
	if p.onChange != nil {
		p.onChange()
	}
}

func (p *BasicFloatParameter) Accept(iter int) {
}

func (p *BasicFloatParameter) String() string {
	return strconv.FormatFloat(*p.float64, 'f', 6, 64)
}
