package protocol

import (
	"encoding/json"
	"fmt"
)

// ParamJSON is the wire shape of a Param descriptor.
type ParamJSON struct {
	Name          string `json:"name"`
	Dataset       string `json:"dataset"`
	Amount        uint32 `json:"amount"`
	TotalByteSize uint64 `json:"totalByteSize"`
}

// OtherModelJSON is the wire shape of a sibling model reference.
type OtherModelJSON struct {
	ID        string `json:"id"`
	MountPath string `json:"mountPath"`
}

// OtherModelWithStateJSON is the wire shape of a sibling model reference
// that also carries exposed state params.
type OtherModelWithStateJSON struct {
	ID        string      `json:"id"`
	MountPath string      `json:"mountPath"`
	State     []ParamJSON `json:"state"`
}

// Command is the sealed set of inbound RPC commands (host -> guest).
// Implementations are the Call* types below; callers type-switch on the
// concrete type, the idiomatic replacement for serde's externally tagged
// enum.
type Command interface {
	commandMethod() string
}

type CallCreateModelState struct {
	ID          string
	Params      []ParamJSON
	OtherModels []OtherModelWithStateJSON
}

type CallInstantiateModel struct {
	ID                  string
	InstantiatedModelID string
	State               []ParamJSON
	OtherModels         []OtherModelJSON
}

type CallDisposeInstantiatedModel struct {
	InstantiatedModelID string
}

type CallTrain struct {
	ID                  string
	TrainingSessionID   string
	InstantiatedModelID string
	Params              []ParamJSON
}

type CallCancelTrain struct {
	TrainingSessionID string
}

type CallEvaluate struct {
	ID                  string
	InstantiatedModelID string
	Params              []ParamJSON
}

type CallGetModelState struct {
	ID                  string
	InstantiatedModelID string
}

func (CallCreateModelState) commandMethod() string         { return "callCreateModelState" }
func (CallInstantiateModel) commandMethod() string         { return "callInstantiateModel" }
func (CallDisposeInstantiatedModel) commandMethod() string { return "callDisposeInstantiatedModel" }
func (CallTrain) commandMethod() string                    { return "callTrain" }
func (CallCancelTrain) commandMethod() string               { return "callCancelTrain" }
func (CallEvaluate) commandMethod() string                  { return "callEvaluate" }
func (CallGetModelState) commandMethod() string              { return "callGetModelState" }

// envelope is the {method, params} shape every inbound command arrives in.
type envelope struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// DecodeCommand decodes an inbound RPC command body.
func DecodeCommand(body []byte) (Command, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("protocol: malformed command envelope: %w", err)
	}
	switch env.Method {
	case "callCreateModelState":
		var p struct {
			ID          string                    `json:"id"`
			Params      []ParamJSON               `json:"params"`
			OtherModels []OtherModelWithStateJSON `json:"otherModels"`
		}
		if err := json.Unmarshal(env.Params, &p); err != nil {
			return nil, fmt.Errorf("protocol: malformed callCreateModelState params: %w", err)
		}
		return CallCreateModelState{ID: p.ID, Params: p.Params, OtherModels: p.OtherModels}, nil
	case "callInstantiateModel":
		var p struct {
			ID                  string           `json:"id"`
			InstantiatedModelID string           `json:"instantiatedModelId"`
			State               []ParamJSON      `json:"state"`
			OtherModels         []OtherModelJSON `json:"otherModels"`
		}
		if err := json.Unmarshal(env.Params, &p); err != nil {
			return nil, fmt.Errorf("protocol: malformed callInstantiateModel params: %w", err)
		}
		return CallInstantiateModel{
			ID:                  p.ID,
			InstantiatedModelID: p.InstantiatedModelID,
			State:               p.State,
			OtherModels:         p.OtherModels,
		}, nil
	case "callDisposeInstantiatedModel":
		var p struct {
			InstantiatedModelID string `json:"instantiatedModelId"`
		}
		if err := json.Unmarshal(env.Params, &p); err != nil {
			return nil, fmt.Errorf("protocol: malformed callDisposeInstantiatedModel params: %w", err)
		}
		return CallDisposeInstantiatedModel{InstantiatedModelID: p.InstantiatedModelID}, nil
	case "callTrain":
		var p struct {
			ID                  string      `json:"id"`
			TrainingSessionID   string      `json:"trainingSessionId"`
			InstantiatedModelID string      `json:"instantiatedModelId"`
			Params              []ParamJSON `json:"params"`
		}
		if err := json.Unmarshal(env.Params, &p); err != nil {
			return nil, fmt.Errorf("protocol: malformed callTrain params: %w", err)
		}
		return CallTrain{
			ID:                  p.ID,
			TrainingSessionID:   p.TrainingSessionID,
			InstantiatedModelID: p.InstantiatedModelID,
			Params:              p.Params,
		}, nil
	case "callCancelTrain":
		var p struct {
			TrainingSessionID string `json:"trainingSessionId"`
		}
		if err := json.Unmarshal(env.Params, &p); err != nil {
			return nil, fmt.Errorf("protocol: malformed callCancelTrain params: %w", err)
		}
		return CallCancelTrain{TrainingSessionID: p.TrainingSessionID}, nil
	case "callEvaluate":
		var p struct {
			ID                  string      `json:"id"`
			InstantiatedModelID string      `json:"instantiatedModelId"`
			Params              []ParamJSON `json:"params"`
		}
		if err := json.Unmarshal(env.Params, &p); err != nil {
			return nil, fmt.Errorf("protocol: malformed callEvaluate params: %w", err)
		}
		return CallEvaluate{ID: p.ID, InstantiatedModelID: p.InstantiatedModelID, Params: p.Params}, nil
	case "callGetModelState":
		var p struct {
			ID                  string `json:"id"`
			InstantiatedModelID string `json:"instantiatedModelId"`
		}
		if err := json.Unmarshal(env.Params, &p); err != nil {
			return nil, fmt.Errorf("protocol: malformed callGetModelState params: %w", err)
		}
		return CallGetModelState{ID: p.ID, InstantiatedModelID: p.InstantiatedModelID}, nil
	default:
		return nil, fmt.Errorf("protocol: unknown command method %q", env.Method)
	}
}

// WireError is the {code, details?} error shape embedded in result bodies.
type WireError struct {
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

const (
	CodeException                  = "exception"
	CodeInstantiatedModelNotFound = "instantiated_model_not_found"
)

// EvaluateOutputJSON is one named tensor's byte-size breakdown in the
// evaluate result.
type EvaluateOutputJSON struct {
	Name      string   `json:"name"`
	ByteSizes []uint64 `json:"byteSizes"`
}

type simpleResult struct {
	Error *WireError `json:"error"`
}

type evaluateResult struct {
	Outputs []EvaluateOutputJSON `json:"outputs,omitempty"`
	Error   *WireError            `json:"error"`
}

// EncodeSimpleResult encodes the {error: null|WireError} shape shared by
// CreateModelState, InstantiateModel, Train, and GetModelState results.
func EncodeSimpleResult(id string, wireErr *WireError) ([]byte, error) {
	return encodeResult(id, simpleResult{Error: wireErr})
}

// EncodeEvaluateResult encodes the evaluate result shape.
func EncodeEvaluateResult(id string, outputs []EvaluateOutputJSON, wireErr *WireError) ([]byte, error) {
	return encodeResult(id, evaluateResult{Outputs: outputs, Error: wireErr})
}

func encodeResult(id string, result interface{}) ([]byte, error) {
	return json.Marshal(struct {
		ID     string      `json:"id"`
		Result interface{} `json:"result"`
	}{ID: id, Result: result})
}
