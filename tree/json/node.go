package json

import (
	"encoding/json"

	fjson "github.com/pbanos/canopy/feature/json"
	"github.com/pbanos/canopy/tree"
)

/*
NodeEncodeDecoder is an interface for objects
that allow encoding node records into slices of
bytes and decoding them back to node records.
*/
type NodeEncodeDecoder interface {

	//Encode receives a *tree.NodeRecord
	//and returns a slice of bytes with the record
	//encoded or an error if the encoding could not
	//be performed for some reason.
	Encode(*tree.NodeRecord) ([]byte, error)

	//Decode receives a slice of bytes
	//and returns a *tree.NodeRecord decoded from the
	//slice of bytes or an error if the decoding
	//could not be performed for some reason.
	Decode([]byte) (*tree.NodeRecord, error)
}

type nodeEncodeDecoder struct {
	fjson.CriteriaEncodeDecoder
}

type node struct {
	ID           string           `json:"id"`
	ParentID     string           `json:"pId,omitempty"`
	SubtreeIDs   []string         `json:"stIds,omitempty"`
	Criterion    *json.RawMessage `json:"c,omitempty"`
	FeatureIndex int              `json:"fi,omitempty"`
	Prediction   *json.RawMessage `json:"pred,omitempty"`
	Entropy      float64          `json:"h"`
}

type jsonPrediction struct {
	Probabilities map[string]float64 `json:"probs,omitempty"`
	Weight        int                `json:"w,omitempty"`
}

/*
NewNodeEncodeDecoder returns a NodeEncodeDecoder that uses the
given CriteriaEncodeDecoder to encode/decode the records' criteria.
*/
func NewNodeEncodeDecoder(ced fjson.CriteriaEncodeDecoder) NodeEncodeDecoder {
	return &nodeEncodeDecoder{ced}
}

func (ned *nodeEncodeDecoder) Encode(n *tree.NodeRecord) ([]byte, error) {
	jn := &node{
		ID:           n.ID,
		ParentID:     n.ParentID,
		FeatureIndex: n.FeatureIndex,
		Entropy:      n.Entropy,
	}
	if len(n.SubtreeIDs) > 0 {
		jn.SubtreeIDs = n.SubtreeIDs
	}
	if n.Criterion != nil {
		fc, err := ned.CriteriaEncodeDecoder.Encode(n.Criterion)
		if err != nil {
			return nil, err
		}
		rfc := json.RawMessage(fc)
		jn.Criterion = &rfc
	}
	if n.Prediction != nil {
		p, err := json.Marshal(&jsonPrediction{Probabilities: n.Prediction.Probabilities(), Weight: n.Prediction.Weight()})
		if err != nil {
			return nil, err
		}
		rp := json.RawMessage(p)
		jn.Prediction = &rp
	}
	return json.Marshal(jn)
}

func (ned *nodeEncodeDecoder) Decode(data []byte) (*tree.NodeRecord, error) {
	jn := &node{}
	err := json.Unmarshal(data, jn)
	if err != nil {
		return nil, err
	}
	n := &tree.NodeRecord{
		ID:           jn.ID,
		ParentID:     jn.ParentID,
		FeatureIndex: jn.FeatureIndex,
		Entropy:      jn.Entropy,
	}
	if jn.Criterion != nil {
		n.Criterion, err = ned.CriteriaEncodeDecoder.Decode(*jn.Criterion)
		if err != nil {
			return nil, err
		}
	}
	if jn.Prediction != nil {
		n.Prediction, err = UnmarshalJSONPrediction(*jn.Prediction)
		if err != nil {
			return nil, err
		}
	}
	if len(jn.SubtreeIDs) > 0 {
		n.SubtreeIDs = jn.SubtreeIDs
	}
	return n, nil
}

/*
UnmarshalJSONPrediction takes a slice of bytes and returns
a pointer to a new tree.Prediction with the data from the slice
unmarshalled into it or an error. The slice of bytes is expected
to contain a JSON object with the following fields:
  - "probs": a JSON object with string keys (values) and
    numeric (float64) values (probability of that value)
  - "w": a number (integer) corresponding to the number of
    samples in the dataset from which the prediction was made.
*/
func UnmarshalJSONPrediction(b []byte) (*tree.Prediction, error) {
	jp := &jsonPrediction{}
	err := json.Unmarshal(b, jp)
	if err != nil {
		return nil, err
	}
	return tree.NewPrediction(jp.Probabilities, jp.Weight), nil
}
