package store

// Layer определяет, из какого слоя хранилища получено значение блока.
// Порядок чтения (от старшего к младшему):
//
// 0 – LayerUser: правки игрока, сохраняются на диск;
// 1 – LayerGenerated: блоки процедурных построек, восстанавливаются из сида;
// 2 – LayerTerrain: чистая функция рельефа, ничего не хранит.
type Layer uint8

const (
	LayerUser Layer = iota
	LayerGenerated
	LayerTerrain
)

// String возвращает имя слоя
func (l Layer) String() string {
	switch l {
	case LayerUser:
		return "user"
	case LayerGenerated:
		return "generated"
	case LayerTerrain:
		return "terrain"
	default:
		return "unknown"
	}
}
