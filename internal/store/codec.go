package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/maxkimambo/gasrun/internal/config"
	"github.com/maxkimambo/gasrun/internal/task"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Envelope is the on-disk form of an artifact. It carries enough of the
// task to be inspected without the task definition.
type Envelope struct {
	Kind      string          `json:"kind"`
	Identity  task.Identity   `json:"identity"`
	Params    task.Params     `json:"params"`
	WrittenAt time.Time       `json:"written_at"`
	Payload   json.RawMessage `json:"payload"`
}

// Codec encodes envelopes to bytes.
type Codec interface {
	Name() string
	Ext() string
	Marshal(env *Envelope) ([]byte, error)
	Unmarshal(data []byte, env *Envelope) error
}

// CodecByName returns the codec registered under name.
func CodecByName(name string) (Codec, error) {
	switch name {
	case config.CodecJSON, "":
		return JSONCodec{}, nil
	case config.CodecProtobuf:
		return ProtoCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

// JSONCodec stores envelopes as indented JSON.
type JSONCodec struct{}

func (JSONCodec) Name() string { return config.CodecJSON }
func (JSONCodec) Ext() string  { return "json" }

func (JSONCodec) Marshal(env *Envelope) ([]byte, error) {
	return json.MarshalIndent(env, "", "  ")
}

func (JSONCodec) Unmarshal(data []byte, env *Envelope) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(env); err != nil {
		return err
	}
	if env.Identity == "" || len(env.Payload) == 0 {
		return fmt.Errorf("envelope is missing identity or payload")
	}
	return nil
}

// ProtoCodec stores envelopes as a binary google.protobuf.Struct.
// Numbers pass through float64, so integers beyond 2^53 lose precision.
type ProtoCodec struct{}

func (ProtoCodec) Name() string { return config.CodecProtobuf }
func (ProtoCodec) Ext() string  { return "pb" }

func (ProtoCodec) Marshal(env *Envelope) ([]byte, error) {
	params, err := toGeneric(env.Params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	var payload interface{}
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	st, err := structpb.NewStruct(map[string]interface{}{
		"kind":       env.Kind,
		"identity":   string(env.Identity),
		"params":     params,
		"written_at": env.WrittenAt.UTC().Format(time.RFC3339Nano),
		"payload":    payload,
	})
	if err != nil {
		return nil, err
	}
	return proto.MarshalOptions{Deterministic: true}.Marshal(st)
}

func (ProtoCodec) Unmarshal(data []byte, env *Envelope) error {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return err
	}
	fields := st.GetFields()

	identity := fields["identity"].GetStringValue()
	payload, ok := fields["payload"]
	if identity == "" || !ok {
		return fmt.Errorf("envelope is missing identity or payload")
	}

	raw, err := json.Marshal(payload.AsInterface())
	if err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	writtenAt, err := time.Parse(time.RFC3339Nano, fields["written_at"].GetStringValue())
	if err != nil {
		return fmt.Errorf("decode written_at: %w", err)
	}

	env.Kind = fields["kind"].GetStringValue()
	env.Identity = task.Identity(identity)
	env.Params = task.ParamsFromMap(fields["params"].GetStructValue().AsMap())
	env.WrittenAt = writtenAt
	env.Payload = raw
	return nil
}

func toGeneric(p task.Params) (map[string]interface{}, error) {
	canon, err := p.Canonical()
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(canon, &m); err != nil {
		return nil, err
	}
	return m, nil
}
