package stats

import (
	"errors"
	"maps"
	"strings"
)

// Status is the outcome flag on the first line of a response.
type Status string

const (
	StatusOK      Status = "ok"
	StatusError   Status = "error"
	StatusUnknown Status = ""
)

var (
	// ErrEmptyResponse is returned for a response with no body.
	ErrEmptyResponse = errors.New("stats: empty response")
	// ErrServer is returned when the service flags the response as an error.
	ErrServer = errors.New("stats: service returned error status")
)

// Row is one data line keyed by the header line preceding it.
type Row map[string]string

// Result is a parsed service response.
type Result struct {
	Status  Status `json:"status"`
	Rows    []Row  `json:"rows"`
	Trailer string `json:"trailer,omitempty"`
}

// ParseResponse parses the tab separated response format.
//
// The first line is the status: 'O' for ok, 'E' for error. Each following
// line is a header ('H', whitespace separated keys), data ('D', tab
// separated values) or the trailer ('$'), which ends parsing. A line whose
// first field is longer than one character is data without the 'D' tag.
// Data lines are zipped with the most recent header and dropped when the
// field counts differ.
//
// For an error status the parsed result is returned together with
// ErrServer.
func ParseResponse(data string) (*Result, error) {
	if data == "" {
		return nil, ErrEmptyResponse
	}
	lines := strings.Split(data, "\n")
	res := &Result{Rows: []Row{}}
	if first := lines[0]; first != "" {
		switch first[0] {
		case 'O':
			res.Status = StatusOK
		case 'E':
			res.Status = StatusError
		}
	}

	var keys []string
	for _, line := range lines[1:] {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		var fields []string
		if line[0] == 'H' {
			fields = strings.Fields(line)
		} else {
			fields = strings.Split(line, "\t")
		}
		if len(fields[0]) > 1 {
			fields = append([]string{"D"}, fields...)
		}

		switch fields[0] {
		case "H":
			keys = fields[1:]
		case "D":
			values := fields[1:]
			if len(keys) > 0 && len(keys) == len(values) {
				row := make(Row, len(keys))
				for i, k := range keys {
					row[k] = values[i]
				}
				res.Rows = append(res.Rows, row)
			}
		case "$":
			if len(fields) > 1 {
				res.Trailer = fields[1]
			}
			return res, res.err()
		}
	}
	return res, res.err()
}

// clone copies r deeply so cached results never share rows with callers.
func (r Result) clone() Result {
	out := r
	out.Rows = make([]Row, len(r.Rows))
	for i, row := range r.Rows {
		out.Rows[i] = maps.Clone(row)
	}
	return out
}

func (r *Result) err() error {
	if r.Status == StatusError {
		return ErrServer
	}
	return nil
}
