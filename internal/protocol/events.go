package protocol

import "encoding/json"

// event wraps an event payload as {event, params}.
type event struct {
	Event  string      `json:"event"`
	Params interface{} `json:"params"`
}

// EncodeModelSessionInitialized encodes the startup handshake event.
func EncodeModelSessionInitialized() ([]byte, error) {
	return json.Marshal(event{Event: "modelSessionInitialized", Params: struct{}{}})
}

// EncodeTrainingProgress encodes a trainingProgress event.
func EncodeTrainingProgress(sessionID string, progress float32) ([]byte, error) {
	return json.Marshal(event{
		Event: "trainingProgress",
		Params: struct {
			TrainingSessionID string  `json:"trainingSessionId"`
			Progress          float32 `json:"progress"`
		}{sessionID, progress},
	})
}

// EncodeTrainingMetrics encodes a trainingMetrics event. The metric payload
// bytes themselves travel as extra segments, in the same order as names.
func EncodeTrainingMetrics(sessionID string, names []string) ([]byte, error) {
	return json.Marshal(event{
		Event: "trainingMetrics",
		Params: struct {
			TrainingSessionID string   `json:"trainingSessionId"`
			Names             []string `json:"names"`
		}{sessionID, names},
	})
}

// EncodeProvideStateData encodes a provideStateData event. Values travel as
// extra segments in the order names appear.
func EncodeProvideStateData(commandID string, names []string) ([]byte, error) {
	return json.Marshal(event{
		Event: "provideStateData",
		Params: struct {
			CommandID string   `json:"commandId"`
			Names     []string `json:"names"`
		}{commandID, names},
	})
}

// EncodeProvideWeightsData encodes a provideWeightsData event.
func EncodeProvideWeightsData(commandID string, names []string) ([]byte, error) {
	return json.Marshal(event{
		Event: "provideWeightsData",
		Params: struct {
			CommandID string   `json:"commandId"`
			Names     []string `json:"names"`
		}{commandID, names},
	})
}

// EncodeRequestData encodes a requestData data-event: flat fields alongside
// "event", no "params" wrapper (see spec §6 note on data-event shape).
func EncodeRequestData(requestID uint32, dataset string, startIndex, amount uint32) ([]byte, error) {
	return json.Marshal(struct {
		Event      string `json:"event"`
		Dataset    string `json:"dataset"`
		RequestID  uint32 `json:"requestId"`
		StartIndex uint32 `json:"startIndex"`
		Amount     uint32 `json:"amount"`
	}{"requestData", dataset, requestID, startIndex, amount})
}

// EncodeShuffle encodes a shuffle data-event.
func EncodeShuffle(datasets []string) ([]byte, error) {
	return json.Marshal(struct {
		Event    string   `json:"event"`
		Datasets []string `json:"datasets"`
	}{"shuffle", datasets})
}
