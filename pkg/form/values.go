// Package form renders stub entries as editable HTML fragments and reads
// their input values back.
//
// Values is the UI-boundary shape of a stub: every field is the raw text of
// an input. Headers stay JSON text here and are only parsed by the store.
package form

import (
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/getmockd/stubrouter/pkg/stub"
)

// Input names shared by the renderer, the parser and the store payload.
const (
	FieldPath    = "path"
	FieldCode    = "code"
	FieldHeaders = "headers"
	FieldData    = "data"
	FieldTimeout = "timeout"
	FieldIsNew   = "isnew"
)

// EmptyHeaders is the headers text shown when a stub has no headers.
const EmptyHeaders = "{}"

// Values holds the current text of a fragment's inputs.
type Values struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Headers string `json:"headers"`
	Data    string `json:"data"`
	Timeout string `json:"timeout"`
}

// FromRecord converts a stored record into display values. Absent numbers
// become empty inputs rather than "0" and absent headers become "{}".
func FromRecord(r stub.Record) Values {
	v := Values{
		Path:    r.Path,
		Data:    r.Data,
		Headers: EmptyHeaders,
	}
	if r.Code != 0 {
		v.Code = strconv.Itoa(r.Code)
	}
	if r.Timeout != 0 {
		v.Timeout = strconv.Itoa(r.Timeout)
	}
	if r.Headers != nil {
		if b, err := json.Marshal(r.Headers); err == nil {
			v.Headers = string(b)
		}
	}
	return v
}

// ParseValues reads fragment inputs from submitted form data.
func ParseValues(q url.Values) Values {
	return Values{
		Path:    q.Get(FieldPath),
		Code:    q.Get(FieldCode),
		Headers: q.Get(FieldHeaders),
		Data:    q.Get(FieldData),
		Timeout: q.Get(FieldTimeout),
	}
}

// Encode returns the values as form data.
func (v Values) Encode() url.Values {
	return url.Values{
		FieldPath:    {v.Path},
		FieldCode:    {v.Code},
		FieldHeaders: {v.Headers},
		FieldData:    {v.Data},
		FieldTimeout: {v.Timeout},
	}
}

// IsZero reports whether no input holds any text.
func (v Values) IsZero() bool {
	return v == Values{}
}
