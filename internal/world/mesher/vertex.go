package mesher

// Раскладка основного 32-битного слова вершины
const (
	xShift      = 0
	zShift      = 4
	yShift      = 8
	cornerShift = 16
	lightShift  = 18
	faceShift   = 22
	uShift      = 25

	vMask     = 0x0F
	WaterFlag = 1 << 4
)

// Vertex: распакованная вершина
type Vertex struct {
	X, Y, Z    uint8
	Corner     uint8
	Brightness uint8
	Face       Face
	U, V       uint8
	Water      bool
}

// Pack упаковывает вершину в основное слово и вспомогательный байт
func Pack(v Vertex) (uint32, uint8) {
	word := uint32(v.X&0x0F)<<xShift |
		uint32(v.Z&0x0F)<<zShift |
		uint32(v.Y)<<yShift |
		uint32(v.Corner&0x03)<<cornerShift |
		uint32(v.Brightness&0x0F)<<lightShift |
		uint32(v.Face&0x07)<<faceShift |
		uint32(v.U&0x0F)<<uShift

	aux := v.V & vMask
	if v.Water {
		aux |= WaterFlag
	}
	return word, aux
}

// Unpack восстанавливает вершину из упакованного представления
func Unpack(word uint32, aux uint8) Vertex {
	return Vertex{
		X:          uint8(word>>xShift) & 0x0F,
		Z:          uint8(word>>zShift) & 0x0F,
		Y:          uint8(word >> yShift),
		Corner:     uint8(word>>cornerShift) & 0x03,
		Brightness: uint8(word>>lightShift) & 0x0F,
		Face:       Face(word>>faceShift) & 0x07,
		U:          uint8(word>>uShift) & 0x0F,
		V:          aux & vMask,
		Water:      aux&WaterFlag != 0,
	}
}
