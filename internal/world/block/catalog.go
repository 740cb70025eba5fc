package block

// Константы ID блоков
const (
	AirBlockID BlockID = iota // 0
	SandBlockID
	WaterBlockID
	GrassBlockID
	DirtBlockID
	CobblestoneBlockID
	LogBlockID
	LeavesBlockID
	GlassBlockID
	StoneBlockID
	PlanksBlockID
	BedrockBlockID // 11
	GravelBlockID
	BrickBlockID
	SnowBlockID
	IceBlockID
	ClayBlockID
	CoalOreBlockID
	IronOreBlockID
	GoldOreBlockID
	DiamondOreBlockID // 20
	PineLogBlockID
	PineLeavesBlockID
	TallGrassBlockID
	FlowerBlockID
	CactusBlockID
	DoorBlockID
	TorchBlockID
	WoolBlockID
	BookshelfBlockID
	MossyStoneBlockID // 30
	ObsidianBlockID
	BasaltBlockID
	RedSandBlockID
	AlienRockBlockID
	CrystalBlockID
	LavaStoneBlockID
	MushroomBlockID
	LadderBlockID
	FenceBlockID
	SlabBlockID // 40
	ChestBlockID
	FurnaceBlockID
	CraftingTableBlockID
	PumpkinBlockID
	HayBlockID
	MarbleBlockID // 46
)

// cell возвращает ячейку атласа по умолчанию: блок N лежит в ячейке N-1
func cell(id BlockID) Texture {
	n := uint8(id - 1)
	return Texture{U: n % 16, V: n / 16}
}

func opaque(id BlockID, name string) Definition {
	t := cell(id)
	return Definition{ID: id, Name: name, Solid: true, Top: t, Side: t, Bottom: t}
}

func glassy(id BlockID, name string, solid bool) Definition {
	d := opaque(id, name)
	d.Transparent = true
	d.Solid = solid
	return d
}

func foliage(id BlockID, name string, solid bool) Definition {
	d := opaque(id, name)
	d.SemiTransparent = true
	d.Solid = solid
	return d
}

// Регистрируем все типы блоков при импорте пакета
func init() {
	water := glassy(WaterBlockID, "Water", false)
	water.Liquid = true

	grass := opaque(GrassBlockID, "Grass")
	grass.Top = Texture{U: 0, V: 3}
	grass.Bottom = cell(DirtBlockID)

	logDef := opaque(LogBlockID, "Log")
	logDef.Top = Texture{U: 1, V: 3}
	logDef.Bottom = logDef.Top

	pine := opaque(PineLogBlockID, "Pine Log")
	pine.Top = Texture{U: 2, V: 3}
	pine.Bottom = pine.Top

	defs := []Definition{
		opaque(SandBlockID, "Sand"),
		water,
		grass,
		opaque(DirtBlockID, "Dirt"),
		opaque(CobblestoneBlockID, "Cobblestone"),
		logDef,
		foliage(LeavesBlockID, "Leaves", true),
		glassy(GlassBlockID, "Glass", true),
		opaque(StoneBlockID, "Stone"),
		opaque(PlanksBlockID, "Planks"),
		opaque(BedrockBlockID, "Bedrock"),
		opaque(GravelBlockID, "Gravel"),
		opaque(BrickBlockID, "Brick"),
		opaque(SnowBlockID, "Snow"),
		glassy(IceBlockID, "Ice", true),
		opaque(ClayBlockID, "Clay"),
		opaque(CoalOreBlockID, "Coal Ore"),
		opaque(IronOreBlockID, "Iron Ore"),
		opaque(GoldOreBlockID, "Gold Ore"),
		opaque(DiamondOreBlockID, "Diamond Ore"),
		pine,
		foliage(PineLeavesBlockID, "Pine Leaves", true),
		foliage(TallGrassBlockID, "Tall Grass", false),
		foliage(FlowerBlockID, "Flower", false),
		opaque(CactusBlockID, "Cactus"),
		glassy(DoorBlockID, "Door", true),
		foliage(TorchBlockID, "Torch", false),
		opaque(WoolBlockID, "Wool"),
		opaque(BookshelfBlockID, "Bookshelf"),
		opaque(MossyStoneBlockID, "Mossy Stone"),
		opaque(ObsidianBlockID, "Obsidian"),
		opaque(BasaltBlockID, "Basalt"),
		opaque(RedSandBlockID, "Red Sand"),
		opaque(AlienRockBlockID, "Alien Rock"),
		glassy(CrystalBlockID, "Crystal", true),
		opaque(LavaStoneBlockID, "Lava Stone"),
		foliage(MushroomBlockID, "Mushroom", false),
		foliage(LadderBlockID, "Ladder", false),
		foliage(FenceBlockID, "Fence", true),
		opaque(SlabBlockID, "Slab"),
		opaque(ChestBlockID, "Chest"),
		opaque(FurnaceBlockID, "Furnace"),
		opaque(CraftingTableBlockID, "Crafting Table"),
		opaque(PumpkinBlockID, "Pumpkin"),
		opaque(HayBlockID, "Hay"),
		opaque(MarbleBlockID, "Marble"),
	}
	for _, d := range defs {
		Register(d)
	}
}
