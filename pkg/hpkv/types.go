package hpkv

import "encoding/json"

// setRecordRequest is the body of POST /record.
type setRecordRequest struct {
	Key           string `json:"key"`
	Value         string `json:"value"`
	PartialUpdate bool   `json:"partialUpdate"`
}

// incrementRequest is the body of POST /record/atomic.
type incrementRequest struct {
	Key       string `json:"key"`
	Increment int64  `json:"increment"`
}

// OperationResponse is returned by Set and Delete.
type OperationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// GetRecordResponse is returned by Get. Value is always the raw stored text;
// the client never decodes JSON values on read.
type GetRecordResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// IncrementResponse is returned by Increment. Result is the value after the
// delta was applied.
type IncrementResponse struct {
	Result int64 `json:"result"`
}

// RecordItem is a single record within a range query response.
type RecordItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RangeQueryResponse is returned by Query. Truncated signals that more
// matching records exist beyond the requested limit; the client does not
// follow up on it.
type RangeQueryResponse struct {
	Records   []RecordItem `json:"records"`
	Count     int          `json:"count"`
	Truncated bool         `json:"truncated,omitempty"`
}

// decodeObject decodes data as a JSON object. ok is false when data is empty,
// invalid JSON or not an object.
func decodeObject(data []byte) (obj map[string]any, ok bool) {
	if len(data) == 0 {
		return nil, false
	}
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// hasFields reports whether every required field is present on the object.
// Presence is enough here; type mismatches surface when the body is decoded
// into the operation's response struct.
func hasFields(obj map[string]any, fields ...string) bool {
	for _, f := range fields {
		if _, present := obj[f]; !present {
			return false
		}
	}
	return true
}
