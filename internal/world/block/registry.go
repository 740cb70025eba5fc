package block

// Texture: ячейка текстурного атласа 16x16
type Texture struct {
	U, V uint8
}

// Definition описывает статические свойства типа блока
type Definition struct {
	ID   BlockID
	Name string

	// Transparent: сквозь блок видно соседей, его грани идут в прозрачный поток.
	Transparent bool
	// SemiTransparent: листва, трава и т.п.: собственные грани рисуются
	// даже против непустых соседей. Всегда подразумевает Transparent.
	SemiTransparent bool
	// Solid: участвует в коллизиях
	Solid bool
	// Liquid: вода и прочие жидкости
	Liquid bool

	Top, Side, Bottom Texture
}

var table = make([]Definition, 1)

// Register добавляет определение блока в регистр
func Register(def Definition) {
	if def.SemiTransparent {
		def.Transparent = true
	}
	for int(def.ID) >= len(table) {
		table = append(table, Definition{})
	}
	table[def.ID] = def
}

// Get возвращает определение для указанного ID
func Get(id BlockID) (Definition, bool) {
	if int(id) >= len(table) || id == 0 {
		return Definition{}, false
	}
	def := table[id]
	return def, def.ID == id
}

// IsValidBlockID проверяет, является ли ID зарегистрированным блоком
func IsValidBlockID(id BlockID) bool {
	_, ok := Get(id)
	return ok
}

// Count возвращает наибольший допустимый ID блока (размер таблицы без воздуха)
func Count() int {
	return len(table) - 1
}

// IsTransparent сообщает, что блок прозрачный или полупрозрачный
func IsTransparent(id BlockID) bool {
	if int(id) >= len(table) {
		return false
	}
	return table[id].Transparent
}

// IsSemiTransparent сообщает, что блок полупрозрачный
func IsSemiTransparent(id BlockID) bool {
	if int(id) >= len(table) {
		return false
	}
	return table[id].SemiTransparent
}

// IsSolid сообщает, что блок участвует в коллизиях.
// Открытые двери проходимы независимо от таблицы.
func IsSolid(v Value) bool {
	id := v.ID()
	if id == 0 || int(id) >= len(table) {
		return false
	}
	if id == DoorBlockID && v.IsOpen() {
		return false
	}
	return table[id].Solid
}

// TextureFor возвращает ячейку атласа для грани: up=true - верх, down=true - низ
func TextureFor(id BlockID, up, down bool) Texture {
	if int(id) >= len(table) {
		return Texture{}
	}
	def := table[id]
	switch {
	case up:
		return def.Top
	case down:
		return def.Bottom
	default:
		return def.Side
	}
}
