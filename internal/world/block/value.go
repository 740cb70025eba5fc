package block

// BlockID представляет идентификатор типа блока (0 = воздух)
type BlockID uint16

// Value: 32-битное слово блока: младшие 16 бит хранят ID,
// старшие - флаги, осмысленные только для блоков, которые их определяют.
type Value uint32

// Direction: одно из четырёх горизонтальных направлений блока
type Direction uint8

const (
	North Direction = iota
	East
	South
	West
)

const (
	idMask         Value = 0xFFFF
	directionShift       = 16
	directionMask  Value = 0b11 << directionShift
	openBit        Value = 1 << 18
	topHalfBit     Value = 1 << 19
	pairedBit      Value = 1 << 20
	flagsMask            = ^idMask
)

// Air: нулевое значение: отсутствие твёрдого содержимого
const Air Value = 0

// Make собирает значение из ID без флагов
func Make(id BlockID) Value {
	return Value(id)
}

// ID возвращает идентификатор типа блока
func (v Value) ID() BlockID {
	return BlockID(v & idMask)
}

// IsAir возвращает true для пустой клетки
func (v Value) IsAir() bool {
	return v.ID() == 0
}

// Flags возвращает только флаговые биты
func (v Value) Flags() uint32 {
	return uint32(v & flagsMask)
}

// WithID заменяет ID, сохраняя флаги
func (v Value) WithID(id BlockID) Value {
	return (v & flagsMask) | Value(id)
}

// Direction возвращает направление блока
func (v Value) Direction() Direction {
	return Direction((v & directionMask) >> directionShift)
}

// WithDirection устанавливает направление блока
func (v Value) WithDirection(d Direction) Value {
	return (v &^ directionMask) | (Value(d&0b11) << directionShift)
}

// IsOpen сообщает, открыта ли дверь/люк
func (v Value) IsOpen() bool { return v&openBit != 0 }

// WithOpen устанавливает флаг "открыто"
func (v Value) WithOpen(open bool) Value { return setBit(v, openBit, open) }

// IsTopHalf сообщает, что клетка - верхняя половина двухклеточного блока
func (v Value) IsTopHalf() bool { return v&topHalfBit != 0 }

// WithTopHalf устанавливает флаг верхней половины
func (v Value) WithTopHalf(top bool) Value { return setBit(v, topHalfBit, top) }

// IsPaired сообщает, что клетка принадлежит парному блоку (например, двери)
func (v Value) IsPaired() bool { return v&pairedBit != 0 }

// WithPaired устанавливает маркер парного блока
func (v Value) WithPaired(paired bool) Value { return setBit(v, pairedBit, paired) }

func setBit(v, bit Value, on bool) Value {
	if on {
		return v | bit
	}
	return v &^ bit
}
