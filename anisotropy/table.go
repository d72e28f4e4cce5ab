package anisotropy

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/khaled-space/concord-khldl/interp"
)

// he16Data is the reference table for the tabulated model. Columns:
// inclination (degrees), 1/xi_d, 1/xi_r, 1/xi_p.
//
//go:embed anisotropy_he16.txt
var he16Data []byte

// he16Table holds interpolators over the reference table.
type he16Table struct {
	invDisk *interp.Linear
	invRefl *interp.Linear
	invPers *interp.Linear
}

// The table is parsed once per process on first use. It is static, so
// the result is never invalidated.
var (
	he16Once sync.Once
	he16Tab  *he16Table
	he16Err  error
)

func he16() (*he16Table, error) {
	he16Once.Do(func() {
		he16Tab, he16Err = parseHe16(he16Data)
		if he16Err == nil {
			min, max := he16Tab.invDisk.Domain()
			log.Debugf("loaded anisotropy table, inclination %v-%v degrees", min, max)
		}
	})
	return he16Tab, he16Err
}

func parseHe16(data []byte) (*he16Table, error) {
	var incl, invD, invR, invP []float64
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, fmt.Errorf("anisotropy table line %d: expected 4 columns, got %d", lineNo, len(fields))
		}
		row := make([]float64, 4)
		for i, f := range fields {
			x, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("anisotropy table line %d: %v", lineNo, err)
			}
			row[i] = x
		}
		incl = append(incl, row[0])
		invD = append(invD, row[1])
		invR = append(invR, row[2])
		invP = append(invP, row[3])
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	t := &he16Table{}
	var err error
	if t.invDisk, err = interp.NewLinear(incl, invD, interp.Clamp); err != nil {
		return nil, fmt.Errorf("anisotropy table: %v", err)
	}
	if t.invRefl, err = interp.NewLinear(incl, invR, interp.Clamp); err != nil {
		return nil, fmt.Errorf("anisotropy table: %v", err)
	}
	if t.invPers, err = interp.NewLinear(incl, invP, interp.Clamp); err != nil {
		return nil, fmt.Errorf("anisotropy table: %v", err)
	}
	return t, nil
}
