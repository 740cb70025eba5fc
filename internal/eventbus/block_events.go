package eventbus

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Типы событий движка
const (
	EventBlockEdited    = "block.edited"
	EventChunkGenerated = "chunk.generated"
	EventPrefabPlaced   = "prefab.placed"
	EventWorldSaved     = "world.saved"
	EventWorldReset     = "world.reset"
)

// EncodePayload сериализует поля события в protobuf Struct
func EncodePayload(fields map[string]interface{}) ([]byte, error) {
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("не удалось собрать payload: %w", err)
	}
	data, err := proto.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("не удалось сериализовать payload: %w", err)
	}
	return data, nil
}

// DecodePayload восстанавливает поля события из protobuf Struct
func DecodePayload(data []byte) (map[string]interface{}, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("не удалось разобрать payload: %w", err)
	}
	return st.AsMap(), nil
}

// NewBlockEdited создаёт событие правки блока игроком
func NewBlockEdited(source string, x, y, z int, value uint32) (*Envelope, error) {
	payload, err := EncodePayload(map[string]interface{}{
		"x":     x,
		"y":     y,
		"z":     z,
		"value": value,
	})
	if err != nil {
		return nil, err
	}
	return NewEnvelope(EventBlockEdited, source, PriorityHigh, payload), nil
}

// NewChunkGenerated создаёт событие генерации структур чанка
func NewChunkGenerated(source string, x, z, placed int) (*Envelope, error) {
	payload, err := EncodePayload(map[string]interface{}{
		"x":      x,
		"z":      z,
		"placed": placed,
	})
	if err != nil {
		return nil, err
	}
	return NewEnvelope(EventChunkGenerated, source, PriorityLow, payload), nil
}

// NewPrefabPlaced создаёт событие ручной установки префаба
func NewPrefabPlaced(source, name string, x, y, z, written int) (*Envelope, error) {
	payload, err := EncodePayload(map[string]interface{}{
		"name":    name,
		"x":       x,
		"y":       y,
		"z":       z,
		"written": written,
	})
	if err != nil {
		return nil, err
	}
	return NewEnvelope(EventPrefabPlaced, source, PriorityNormal, payload), nil
}
