package entities

import "encoding/json"

// Stages reported in ItemFailure.Stage.
const (
	StageDevice      = "device"
	StageDatabase    = "database"
	StageCover       = "cover"
	StageDestination = "destination"
	StageWrite       = "write"
)

// ItemFailure records one item of a batch that was skipped without aborting
// the rest of the batch.
type ItemFailure struct {
	Key   string
	Stage string
	Err   error
}

func (f ItemFailure) Error() string {
	if f.Err == nil {
		return f.Stage + " " + f.Key
	}
	return f.Stage + " " + f.Key + ": " + f.Err.Error()
}

func (f ItemFailure) Unwrap() error {
	return f.Err
}

func (f ItemFailure) MarshalJSON() ([]byte, error) {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct {
		Key   string `json:"key"`
		Stage string `json:"stage"`
		Error string `json:"error"`
	}{f.Key, f.Stage, msg})
}
