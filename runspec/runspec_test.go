package runspec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/khaled-space/concord-khldl/anisotropy"
)

func TestLoad(tst *testing.T) {
	s, err := Load("testdata/gs1826.yaml")
	if err != nil {
		tst.Fatal("Error loading run spec: ", err)
	}
	if s.Source != "gs1826" {
		tst.Error("Expected source gs1826, got ", s.Source)
	}
	m, err := s.Model()
	if err != nil {
		tst.Error("Error: ", err)
	}
	if m != anisotropy.He16 {
		tst.Error("Expected he16 model, got ", m)
	}
	if len(s.Epochs) != 3 {
		tst.Fatal("Expected 3 epochs, got ", len(s.Epochs))
	}
	if s.Epochs[0].Name != "1998" || s.Epochs[0].Run != 12 {
		tst.Error("Incorrect first epoch: ", s.Epochs[0])
	}
	if s.Epochs[2].Tdel != 3.53 || s.Epochs[2].UTdel != 0.03 {
		tst.Error("Incorrect third epoch: ", s.Epochs[2])
	}
	v := s.StartValues()
	if len(v) != 6 {
		tst.Fatal("Expected 6 starting values, got ", len(v))
	}
	if v[0] != 6.1 || v[1] != 60 || v[2] != 1.26 || v[3] != 0 {
		tst.Error("Incorrect starting values: ", v)
	}
}

func TestLoadDefaults(tst *testing.T) {
	s, err := Load("testdata/minimal.yaml")
	if err != nil {
		tst.Fatal("Error loading run spec: ", err)
	}
	if s.Weights.Flux != 1 || s.Weights.Tdel != 100 {
		tst.Error("Incorrect default weights: ", s.Weights)
	}
	if s.Start.D != 8 || s.Start.I != 30 || s.Start.Opz != 1.26 {
		tst.Error("Incorrect default start: ", s.Start)
	}
	m, err := s.Model()
	if err != nil {
		tst.Error("Error: ", err)
	}
	if m != anisotropy.Fujimoto88 {
		tst.Error("Expected fuji88 model, got ", m)
	}
	if s.Epochs[0].Name != "obs/burst.txt" {
		tst.Error("Expected the epoch name to default to the observation file, got ", s.Epochs[0].Name)
	}
}

func TestEnvOverride(tst *testing.T) {
	tst.Setenv("CONCORD_DISC_MODEL", "he16")
	s, err := Load("testdata/minimal.yaml")
	if err != nil {
		tst.Fatal("Error loading run spec: ", err)
	}
	m, err := s.Model()
	if err != nil {
		tst.Error("Error: ", err)
	}
	if m != anisotropy.He16 {
		tst.Error("Expected the environment to override the disc model, got ", s.DiscModel)
	}
}

func writeSpec(tst *testing.T, content string) string {
	path := filepath.Join(tst.TempDir(), "spec.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		tst.Fatal("Error writing spec: ", err)
	}
	return path
}

func TestValidation(tst *testing.T) {
	specs := []string{
		// no source
		"param_table: p\nsumm_table: s\nepochs:\n  - {obs: o, tdel: 4, u_tdel: 0.1, run: 1, mean: m}\n",
		// no epochs
		"source: x\nparam_table: p\nsumm_table: s\n",
		// unknown disc model
		"source: x\nparam_table: p\nsumm_table: s\ndisc_model: nodisc\nepochs:\n  - {obs: o, tdel: 4, u_tdel: 0.1, run: 1, mean: m}\n",
		// no run
		"source: x\nparam_table: p\nsumm_table: s\nepochs:\n  - {obs: o, tdel: 4, u_tdel: 0.1, mean: m}\n",
		// non-positive uncertainty
		"source: x\nparam_table: p\nsumm_table: s\nepochs:\n  - {obs: o, tdel: 4, u_tdel: 0, run: 1, mean: m}\n",
		// no tables
		"source: x\nepochs:\n  - {obs: o, tdel: 4, u_tdel: 0.1, run: 1, mean: m}\n",
	}
	for _, content := range specs {
		if _, err := Load(writeSpec(tst, content)); err == nil {
			tst.Error("Expected an error for spec:\n", content)
		}
	}
	if _, err := Load(filepath.Join(tst.TempDir(), "missing.yaml")); err == nil {
		tst.Error("Expected an error for a missing file")
	}
}
