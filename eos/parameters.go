package eos

import (
	"encoding/json"
	"fmt"
	"os"
)

// Identifier names a substance. Any of the fields may be used to query
// a record from a parameter file; Name is the default key.
type Identifier struct {
	CAS       string `json:"cas,omitempty"`
	Name      string `json:"name,omitempty"`
	IupacName string `json:"iupac_name,omitempty"`
	Smiles    string `json:"smiles,omitempty"`
	Inchi     string `json:"inchi,omitempty"`
	Formula   string `json:"formula,omitempty"`
}

// PureRecord is a single-substance parameter record. The model record
// is opaque to the core; only the parameter set of a concrete equation
// of state interprets it.
type PureRecord struct {
	Identifier     Identifier      `json:"identifier"`
	MolarWeight    float64         `json:"molarweight"` // g/mol
	ModelRecord    json.RawMessage `json:"model_record"`
	IdealGasRecord *JobackRecord   `json:"ideal_gas_record,omitempty"`
}

// BinaryRecord is a pairwise interaction parameter between two
// substances.
type BinaryRecord struct {
	ID1         Identifier `json:"id1"`
	ID2         Identifier `json:"id2"`
	ModelRecord float64    `json:"model_record"`
}

// LoadPureRecords reads substance records from a JSON file and returns
// them in the order of the queried names. Missing substances and
// malformed records surface as ParameterError before any State exists.
func LoadPureRecords(path string, names []string) ([]PureRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParameterError{Msg: err.Error()}
	}
	var records []PureRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, &ParameterError{Msg: fmt.Sprintf("%s: %v", path, err)}
	}
	byName := make(map[string]PureRecord, len(records))
	for _, r := range records {
		byName[r.Identifier.Name] = r
	}
	out := make([]PureRecord, 0, len(names))
	for _, n := range names {
		r, ok := byName[n]
		if !ok {
			return nil, &ParameterError{Msg: fmt.Sprintf("substance %q not found in %s", n, path)}
		}
		out = append(out, r)
	}
	return out, nil
}

// LoadBinaryRecords reads pairwise interaction records from a JSON
// file.
func LoadBinaryRecords(path string) ([]BinaryRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParameterError{Msg: err.Error()}
	}
	var records []BinaryRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, &ParameterError{Msg: fmt.Sprintf("%s: %v", path, err)}
	}
	return records, nil
}

// BinaryMatrix arranges pairwise records into a symmetric matrix
// following the order of the pure records. Pairs without a record
// default to zero.
func BinaryMatrix(pure []PureRecord, binary []BinaryRecord) [][]float64 {
	n := len(pure)
	kij := make([][]float64, n)
	for i := range kij {
		kij[i] = make([]float64, n)
	}
	match := func(id Identifier, r PureRecord) bool {
		if id.CAS != "" && id.CAS == r.Identifier.CAS {
			return true
		}
		return id.Name != "" && id.Name == r.Identifier.Name
	}
	for _, br := range binary {
		for i := range pure {
			for j := range pure {
				if i != j && match(br.ID1, pure[i]) && match(br.ID2, pure[j]) {
					kij[i][j] = br.ModelRecord
					kij[j][i] = br.ModelRecord
				}
			}
		}
	}
	return kij
}
