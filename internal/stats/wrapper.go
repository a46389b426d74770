package stats

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrUnknownMode is returned by PlayerInfo for a mode without a field set.
var ErrUnknownMode = errors.New("stats: unknown player info mode")

// Converter turns a raw field value into a typed one.
type Converter func(string) (any, error)

// Record is a row with typed values.
type Record map[string]any

func Int(s string) (any, error) { return strconv.ParseInt(s, 10, 64) }

func Float(s string) (any, error) { return strconv.ParseFloat(s, 64) }

func String(s string) (any, error) { return s, nil }

// Timestamp reads unix seconds.
func Timestamp(s string) (any, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, err
	}
	return time.Unix(n, 0).UTC(), nil
}

// Format keeps the rows that carry every key in fields and converts
// those keys. Other keys are dropped.
func Format(rows []Row, fields map[string]Converter) ([]Record, error) {
	out := make([]Record, 0, len(rows))
next:
	for _, row := range rows {
		for k := range fields {
			if _, ok := row[k]; !ok {
				continue next
			}
		}
		rec := make(Record, len(fields))
		for k, conv := range fields {
			v, err := conv(row[k])
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", k, err)
			}
			rec[k] = v
		}
		out = append(out, rec)
	}
	return out, nil
}

// Modes lists the fields requested for each getplayerinfo mode.
var Modes = map[string]map[string]Converter{
	"ovr": {
		"acdt": Timestamp, "brs": Int, "crpt": Int,
		"fe": Int, "fgm": Int, "fk": Int, "fm": Int, "fv": Int, "fw": Int,
		"gsco": Int, "lgdt": Timestamp, "los": Int, "nick": String,
		"pdt": Int, "pdtc": Int, "pid": Int, "tid": Int, "tt": Int,
		"win": Int, "etp-3": Int,
	},
	"ply": {
		"adpr": Float, "akpr": Float, "dpm": Float, "dstrk": Int, "dths": Int,
		"kdr": Float, "kkls-0": Int, "kkls-1": Int, "kkls-2": Int, "kkls-3": Int,
		"klla": Int, "klls": Int, "klstrk": Int, "kpm": Float, "ktt-0": Int,
		"ktt-1": Int, "ktt-2": Int, "ktt-3": Int, "nick": String, "ovaccu": Float,
		"pid": Int, "spm": Float, "suic": Int, "tid": Int, "toth": Int, "tots": Int,
	},
}

// Wrapper returns typed records instead of raw rows.
type Wrapper struct {
	c *Client
}

func NewWrapper(c *Client) *Wrapper { return &Wrapper{c: c} }

func (w *Wrapper) format(res *Result, err error, fields map[string]Converter) ([]Record, error) {
	if err != nil {
		return nil, err
	}
	return Format(res.Rows, fields)
}

func (w *Wrapper) Awards(ctx context.Context, pid uint32) ([]Record, error) {
	res, err := w.c.GetAwardsInfo(ctx, pid)
	return w.format(res, err, map[string]Converter{
		"first": Int, "when": Timestamp, "award": String, "level": Int,
	})
}

func (w *Wrapper) BackendInfo(ctx context.Context) ([]Record, error) {
	res, err := w.c.GetBackendInfo(ctx)
	return w.format(res, err, map[string]Converter{"config": String})
}

func (w *Wrapper) PlayerInfo(ctx context.Context, mode string) ([]Record, error) {
	fields, ok := Modes[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	res, err := w.c.GetPlayerInfo(ctx, mode)
	return w.format(res, err, fields)
}

func (w *Wrapper) PlayerSearch(ctx context.Context, nick string) ([]Record, error) {
	res, err := w.c.PlayerSearch(ctx, nick)
	return w.format(res, err, map[string]Converter{"nick": String, "pid": Int})
}
