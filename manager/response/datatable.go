package response

import (
	"errors"
	"fmt"
	"time"

	"github.com/dot5enko/segquery/bits"
	"github.com/dot5enko/segquery/compression"
)

var (
	ErrBadDataTable       = errors.New("malformed data table")
	ErrUnsupportedVersion = errors.New("unsupported data table version")
)

const (
	dataTableMagic   uint32 = 0x53514454 // SQDT
	dataTableVersion uint16 = 1

	// magic + version + codec + payload length
	dataTableHeaderSize = 4 + 2 + 1 + 4
)

const (
	valueNil byte = iota
	valueInt32
	valueInt64
	valueFloat32
	valueFloat64
	valueString
)

const (
	sectionAggregation byte = 1 << iota
	sectionGroupBy
	sectionSelection
)

func putValue(w *bits.Encoder, v any) error {
	switch x := v.(type) {
	case nil:
		w.PutU8(valueNil)
	case int32:
		w.PutU8(valueInt32)
		w.PutU32(uint32(x))
	case int64:
		w.PutU8(valueInt64)
		w.PutI64(x)
	case float32:
		w.PutU8(valueFloat32)
		w.PutF32(x)
	case float64:
		w.PutU8(valueFloat64)
		w.PutF64(x)
	case string:
		w.PutU8(valueString)
		w.PutString(x)
	default:
		return fmt.Errorf("value %v of type %T can not be encoded", v, v)
	}
	return nil
}

func readValue(r *bits.Decoder) (any, error) {

	tag, err := r.ReadU8()
	if err != nil {
		return nil, err
	}

	switch tag {
	case valueNil:
		return nil, nil
	case valueInt32:
		u, err := r.ReadU32()
		return int32(u), err
	case valueInt64:
		return r.ReadI64()
	case valueFloat32:
		return r.ReadF32()
	case valueFloat64:
		return r.ReadF64()
	case valueString:
		return r.ReadString()
	default:
		return nil, fmt.Errorf("unknown value tag %d: %w", tag, ErrBadDataTable)
	}
}

func putStrings(w *bits.Encoder, values []string) {
	w.PutU32(uint32(len(values)))
	for _, s := range values {
		w.PutString(s)
	}
}

func readStrings(r *bits.Decoder) ([]string, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for idx := range out {
		if out[idx], err = r.ReadString(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func putRow(w *bits.Encoder, row []any) error {
	w.PutU32(uint32(len(row)))
	for _, v := range row {
		if err := putValue(w, v); err != nil {
			return err
		}
	}
	return nil
}

func readRow(r *bits.Decoder) ([]any, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	row := make([]any, n)
	for idx := range row {
		if row[idx], err = readValue(r); err != nil {
			return nil, err
		}
	}
	return row, nil
}

func (resp *InstanceResponse) encodePayload() ([]byte, error) {

	w := bits.NewEncoder(1024)

	w.PutUUID(resp.RequestId)
	w.PutString(resp.Resource)

	flags := byte(0)
	if resp.Partial {
		flags = 1
	}
	w.PutU8(flags)

	sections := byte(0)
	if resp.Aggregations != nil {
		sections |= sectionAggregation
	}
	if resp.GroupBy != nil {
		sections |= sectionGroupBy
	}
	if resp.Selection != nil {
		sections |= sectionSelection
	}
	w.PutU8(sections)

	if resp.Aggregations != nil {
		w.PutU32(uint32(len(resp.Aggregations)))
		for _, a := range resp.Aggregations {
			w.PutString(a.Function)
			w.PutF64(a.Value)
		}
	}

	if gb := resp.GroupBy; gb != nil {
		putStrings(w, gb.Columns)
		putStrings(w, gb.Functions)
		w.PutU32(uint32(len(gb.Rows)))
		for _, row := range gb.Rows {
			if err := putRow(w, row.Values); err != nil {
				return nil, err
			}
			w.PutU32(uint32(len(row.Aggregates)))
			for _, v := range row.Aggregates {
				w.PutF64(v)
			}
		}
	}

	if sel := resp.Selection; sel != nil {
		putStrings(w, sel.Columns)
		w.PutU32(uint32(len(sel.Rows)))
		for _, row := range sel.Rows {
			if err := putRow(w, row); err != nil {
				return nil, err
			}
		}
	}

	w.PutU32(uint32(len(resp.Failures)))
	for _, f := range resp.Failures {
		w.PutString(f.Segment)
		w.PutString(f.Status)
		w.PutString(f.Reason)
	}

	st := resp.Stats
	w.PutU32(uint32(st.SegmentsQueried))
	w.PutU32(uint32(st.SegmentsProcessed))
	w.PutU32(uint32(st.SegmentsFailed))
	w.PutU32(uint32(st.SegmentsTimedOut))
	w.PutI64(st.TotalDocs)
	w.PutI64(st.DocsMatched)
	w.PutI64(int64(st.TimeUsed))

	w.PutU32(uint32(len(st.Strategies)))
	for name, n := range st.Strategies {
		w.PutString(name)
		w.PutU32(uint32(n))
	}

	return w.Bytes(), nil
}

// Encode serializes the response into a data table compressed with codec
func (resp *InstanceResponse) Encode(codec compression.Codec) ([]byte, error) {

	payload, err := resp.encodePayload()
	if err != nil {
		return nil, fmt.Errorf("unable to encode data table: %s", err.Error())
	}

	compressed, err := compression.Compress(codec, payload)
	if err != nil {
		return nil, err
	}

	w := bits.NewEncoder(dataTableHeaderSize + len(compressed))
	w.PutU32(dataTableMagic)
	w.PutU16(dataTableVersion)
	w.PutU8(byte(codec))
	w.PutU32(uint32(len(compressed)))
	w.PutRaw(compressed)

	return w.Bytes(), nil
}

// Decode is the inverse of Encode
func Decode(data []byte) (*InstanceResponse, error) {

	header := bits.NewDecoder(data)

	magic, err := header.ReadU32()
	if err != nil || magic != dataTableMagic {
		return nil, fmt.Errorf("bad magic: %w", ErrBadDataTable)
	}

	version, err := header.ReadU16()
	if err != nil {
		return nil, fmt.Errorf("truncated header: %w", ErrBadDataTable)
	}
	if version != dataTableVersion {
		return nil, fmt.Errorf("version %d: %w", version, ErrUnsupportedVersion)
	}

	codec, err := header.ReadU8()
	if err != nil {
		return nil, fmt.Errorf("truncated header: %w", ErrBadDataTable)
	}

	size, err := header.ReadU32()
	if err != nil || int(size) != len(data)-dataTableHeaderSize {
		return nil, fmt.Errorf("payload size mismatch: %w", ErrBadDataTable)
	}

	payload, err := compression.Decompress(compression.Codec(codec), data[dataTableHeaderSize:])
	if err != nil {
		return nil, fmt.Errorf("unable to decompress data table: %s", err.Error())
	}

	r := bits.NewDecoder(payload)
	resp, err := decodePayload(r)
	if errors.Is(err, bits.ErrEOF) {
		return nil, fmt.Errorf("truncated payload: %w", ErrBadDataTable)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err.Error(), ErrBadDataTable)
	}
	if r.Remaining() != 0 {
		return nil, fmt.Errorf("%d trailing bytes: %w", r.Remaining(), ErrBadDataTable)
	}

	return resp, nil
}

func decodePayload(r *bits.Decoder) (*InstanceResponse, error) {

	resp := &InstanceResponse{}
	var err error

	if resp.RequestId, err = r.ReadUUID(); err != nil {
		return nil, err
	}
	if resp.Resource, err = r.ReadString(); err != nil {
		return nil, err
	}

	flags, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	resp.Partial = flags&1 != 0

	sections, err := r.ReadU8()
	if err != nil {
		return nil, err
	}

	if sections&sectionAggregation != 0 {
		n, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		resp.Aggregations = make([]AggregationResult, n)
		for idx := range resp.Aggregations {
			a := &resp.Aggregations[idx]
			if a.Function, err = r.ReadString(); err != nil {
				return nil, err
			}
			if a.Value, err = r.ReadF64(); err != nil {
				return nil, err
			}
		}
	}

	if sections&sectionGroupBy != 0 {
		gb := &GroupByResult{}
		if gb.Columns, err = readStrings(r); err != nil {
			return nil, err
		}
		if gb.Functions, err = readStrings(r); err != nil {
			return nil, err
		}

		n, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		gb.Rows = make([]GroupRow, n)
		for idx := range gb.Rows {
			row := &gb.Rows[idx]
			if row.Values, err = readRow(r); err != nil {
				return nil, err
			}
			aggs, err := r.ReadU32()
			if err != nil {
				return nil, err
			}
			row.Aggregates = make([]float64, aggs)
			for a := range row.Aggregates {
				if row.Aggregates[a], err = r.ReadF64(); err != nil {
					return nil, err
				}
			}
		}
		resp.GroupBy = gb
	}

	if sections&sectionSelection != 0 {
		sel := &SelectionResult{}
		if sel.Columns, err = readStrings(r); err != nil {
			return nil, err
		}
		n, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		sel.Rows = make([][]any, n)
		for idx := range sel.Rows {
			if sel.Rows[idx], err = readRow(r); err != nil {
				return nil, err
			}
		}
		resp.Selection = sel
	}

	failures, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	for range failures {
		f := SegmentFailure{}
		if f.Segment, err = r.ReadString(); err != nil {
			return nil, err
		}
		if f.Status, err = r.ReadString(); err != nil {
			return nil, err
		}
		if f.Reason, err = r.ReadString(); err != nil {
			return nil, err
		}
		resp.Failures = append(resp.Failures, f)
	}

	counters := make([]uint32, 4)
	for idx := range counters {
		if counters[idx], err = r.ReadU32(); err != nil {
			return nil, err
		}
	}
	resp.Stats.SegmentsQueried = int(counters[0])
	resp.Stats.SegmentsProcessed = int(counters[1])
	resp.Stats.SegmentsFailed = int(counters[2])
	resp.Stats.SegmentsTimedOut = int(counters[3])

	if resp.Stats.TotalDocs, err = r.ReadI64(); err != nil {
		return nil, err
	}
	if resp.Stats.DocsMatched, err = r.ReadI64(); err != nil {
		return nil, err
	}
	timeUsed, err := r.ReadI64()
	if err != nil {
		return nil, err
	}
	resp.Stats.TimeUsed = time.Duration(timeUsed)

	strategies, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if strategies > 0 {
		resp.Stats.Strategies = make(map[string]int, strategies)
	}
	for range strategies {
		name, err := r.ReadString()
		if err != nil {
			return nil, err
		}
		n, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		resp.Stats.Strategies[name] = int(n)
	}

	return resp, nil
}
