package mesher

import "github.com/annel0/voxel-engine/internal/world/block"

// emitFace решает, видна ли грань блока self со стороны соседа neighbor
func emitFace(self, neighbor block.Value) bool {
	if neighbor.IsAir() {
		return true
	}

	selfID, nID := self.ID(), neighbor.ID()
	if block.IsTransparent(selfID) {
		if block.IsSemiTransparent(nID) {
			return true
		}
		// Вода рисует границу с прозрачными блоками другого типа
		return selfID == block.WaterBlockID && block.IsTransparent(nID) && nID != block.WaterBlockID
	}

	// Полупрозрачные блоки всегда прозрачны, отдельной проверки не нужно
	return block.IsTransparent(nID)
}
