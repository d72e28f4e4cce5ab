package optimize

import (
	"encoding/json"
	"testing"
)

const (
	json1 = "{\"d\":6.1,\"i\":60,\"opz\":1.26,\"tshift\":-0.12}"
)

func TestMarshalParameters(tst *testing.T) {
	var pars FloatParameters
	d := 6.1
	i := 60.0
	opz := 1.26
	tshift := -0.12
	pars.Append(NewBasicFloatParameter(&d, "d"))
	pars.Append(NewBasicFloatParameter(&i, "i"))
	pars.Append(NewBasicFloatParameter(&opz, "opz"))
	pars.Append(NewBasicFloatParameter(&tshift, "tshift"))
	j, err := json.Marshal(pars)
	if err != nil {
		tst.Error("Error: ", err)
	}
	if string(j) != json1 {
		tst.Errorf("Incorrect encoded json value. Expected:\n'%v'\n got\n'%v'", json1, string(j))
	}
}

func TestUnmarshalParameters(tst *testing.T) {
	var pars FloatParameters
	d := 1.0
	i := 1.0
	opz := 1.0
	tshift := 1.0
	pars.Append(NewBasicFloatParameter(&d, "d"))
	pars.Append(NewBasicFloatParameter(&i, "i"))
	pars.Append(NewBasicFloatParameter(&opz, "opz"))
	pars.Append(NewBasicFloatParameter(&tshift, "tshift"))
	err := json.Unmarshal([]byte(json1), &pars)
	if err != nil {
		tst.Error("Error: ", err)
	}
	j, err := json.Marshal(pars)
	if err != nil {
		tst.Error("Error: ", err)
	}
	if string(j) != json1 {
		tst.Errorf("Incorrect encoded json value. Expected:\n'%v'\n got\n'%v'", json1, string(j))
	}
	if d != 6.1 || opz != 1.26 {
		tst.Error("Parameter values not updated, got d=", d, ", opz=", opz)
	}
}

func TestParamsMap(tst *testing.T) {
	var pars FloatParameters
	d := 8.0
	opz := 1.3
	pars.Append(NewBasicFloatParameter(&d, "d"))
	pars.Append(NewBasicFloatParameter(&opz, "opz"))
	m := pars.ParamsMap()
	if m["d"] != 8.0 || m["opz"] != 1.3 {
		tst.Error("Incorrect parameters map: ", m)
	}
	m["d"] = 9.5
	pars.SetFromMap(m)
	if d != 9.5 {
		tst.Error("Expected d=9.5, got ", d)
	}
}
