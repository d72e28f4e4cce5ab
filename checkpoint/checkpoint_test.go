package checkpoint

import (
	"path/filepath"
	"testing"

	bolt "go.etcd.io/bbolt"
)

func openTestDB(tst *testing.T) *bolt.DB {
	path := filepath.Join(tst.TempDir(), "checkpoint.db")
	db, err := bolt.Open(path, 0644, nil)
	if err != nil {
		tst.Fatal("Error opening database: ", err)
	}
	return db
}

func TestSaveLoad(tst *testing.T) {
	db := openTestDB(tst)
	defer db.Close()

	s := NewStore(db, "gs1826", 0)
	state := &State{
		Parameters: map[string]float64{
			"d":      6.1,
			"i":      60,
			"opz":    1.26,
			"tshift": -0.12,
		},
		Lhood: -123.45,
		Iter:  500,
	}
	if err := s.Save(state); err != nil {
		tst.Fatal("Error saving state: ", err)
	}

	loaded, err := s.Load()
	if err != nil {
		tst.Fatal("Error loading state: ", err)
	}
	if loaded == nil {
		tst.Fatal("Expected a stored state")
	}
	if loaded.Lhood != state.Lhood || loaded.Iter != state.Iter || loaded.Final {
		tst.Error("Incorrect state: ", loaded)
	}
	if loaded.Parameters["d"] != 6.1 || loaded.Parameters["opz"] != 1.26 {
		tst.Error("Incorrect parameters: ", loaded.Parameters)
	}
}

func TestLoadEmpty(tst *testing.T) {
	db := openTestDB(tst)
	defer db.Close()

	s := NewStore(db, "gs1826", 0)
	loaded, err := s.Load()
	if err != nil {
		tst.Error("Error loading state: ", err)
	}
	if loaded != nil {
		tst.Error("Expected no stored state, got ", loaded)
	}
}

func TestLabelsIndependent(tst *testing.T) {
	db := openTestDB(tst)
	defer db.Close()

	s1 := NewStore(db, "run1", 0)
	s2 := NewStore(db, "run2", 0)
	err := s1.Save(&State{
		Parameters: map[string]float64{"d": 8},
		Lhood:      -1,
		Iter:       10,
		Final:      true,
	})
	if err != nil {
		tst.Fatal("Error saving state: ", err)
	}
	loaded, err := s2.Load()
	if err != nil {
		tst.Error("Error loading state: ", err)
	}
	if loaded != nil {
		tst.Error("Expected no state for a different label, got ", loaded)
	}
	loaded, err = s1.Load()
	if err != nil || loaded == nil || !loaded.Final {
		tst.Error("Expected a final state, got ", loaded, err)
	}
}

func TestThrottle(tst *testing.T) {
	s := &Store{seconds: 3600}
	if !s.Old() {
		tst.Error("Expected a fresh store to be old")
	}
	s.SetNow()
	if s.Old() {
		tst.Error("Expected the store to be recent after SetNow")
	}
}
