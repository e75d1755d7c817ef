package catalogqa

import (
	"bytes"
	"encoding/json"
)

// RecordVersion is the version stamped on every cache record.
const RecordVersion = 1

// Record kinds.
const (
	KindPage     = "page"
	KindChunk    = "chunk"
	KindChunkSet = "chunkset"
)

// record is the envelope every cache value is wrapped in.
type record struct {
	Version int             `json:"v"`
	Kind    string          `json:"kind"`
	Data    json.RawMessage `json:"data"`
}

// MarshalPageContent encodes page content as a cache record.
func MarshalPageContent(p *PageContent) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return marshalRecord(KindPage, p)
}

// UnmarshalPageContent decodes a page content cache record.
// Returns EDECODE if the record is malformed or of another kind or version.
func UnmarshalPageContent(data []byte) (*PageContent, error) {
	var p PageContent
	if err := unmarshalRecord(data, KindPage, &p); err != nil {
		return nil, err
	}
	if p.URL == "" {
		return nil, Errorf(EDECODE, "page record missing linkRef")
	}
	return &p, nil
}

// MarshalChunk encodes a chunk as a cache record.
func MarshalChunk(c *Chunk) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return marshalRecord(KindChunk, c)
}

// UnmarshalChunk decodes a chunk cache record.
// Returns EDECODE if the record is malformed or of another kind or version.
func UnmarshalChunk(data []byte) (*Chunk, error) {
	// Index defaults to -1 so a record without chunkIndex fails validation.
	c := Chunk{Index: -1}
	if err := unmarshalRecord(data, KindChunk, &c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, Errorf(EDECODE, "chunk record: %s", ErrorMessage(err))
	}
	return &c, nil
}

type chunkSet struct {
	Count int `json:"count"`
}

// MarshalChunkSet encodes the number of chunks a page was split into.
func MarshalChunkSet(count int) ([]byte, error) {
	if count <= 0 {
		return nil, Errorf(EINVALID, "chunk count must be positive")
	}
	return marshalRecord(KindChunkSet, chunkSet{Count: count})
}

// UnmarshalChunkSet decodes a chunk count record.
// Returns EDECODE if the record is malformed or the count is not positive.
func UnmarshalChunkSet(data []byte) (int, error) {
	var set chunkSet
	if err := unmarshalRecord(data, KindChunkSet, &set); err != nil {
		return 0, err
	}
	if set.Count <= 0 {
		return 0, Errorf(EDECODE, "chunkset record count must be positive")
	}
	return set.Count, nil
}

func marshalRecord(kind string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(record{Version: RecordVersion, Kind: kind, Data: data})
}

func unmarshalRecord(data []byte, kind string, v any) error {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return Errorf(EDECODE, "invalid %s record: %v", kind, err)
	}
	if r.Version != RecordVersion {
		return Errorf(EDECODE, "unsupported %s record version %d", kind, r.Version)
	}
	if r.Kind != kind {
		return Errorf(EDECODE, "expected %s record, got %q", kind, r.Kind)
	}
	if len(r.Data) == 0 || bytes.Equal(r.Data, []byte("null")) {
		return Errorf(EDECODE, "%s record has no data", kind)
	}

	dec := json.NewDecoder(bytes.NewReader(r.Data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return Errorf(EDECODE, "invalid %s record data: %v", kind, err)
	}
	return nil
}
