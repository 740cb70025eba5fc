package api

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/annel0/voxel-engine/internal/physics"
	"github.com/annel0/voxel-engine/internal/storage"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/annel0/voxel-engine/internal/world/block"
	"github.com/annel0/voxel-engine/internal/world/chunkpool"
	"github.com/annel0/voxel-engine/internal/world/terrain"
	"github.com/gin-gonic/gin"
	"github.com/go-gl/mathgl/mgl32"
)

// Размер коллайдера игрока для поиска точки появления
const (
	spawnWidth  = 0.6
	spawnHeight = 1.8
)

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// BlockRequest: запись блока. Value (сырое слово с флагами) важнее ID.
type BlockRequest struct {
	ID        *uint16 `json:"id"`
	Value     *uint32 `json:"value"`
	Neighbors *bool   `json:"neighbors"` // перестраивать соседние чанки, по умолчанию да
}

// BlockResponse описывает блок в точке
type BlockResponse struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Z        int    `json:"z"`
	Value    uint32 `json:"value"`
	ID       uint16 `json:"id"`
	Name     string `json:"name"`
	Layer    string `json:"layer"`
	Collides bool   `json:"collides"`
}

// ResetRequest: параметры нового мира; пустые поля берутся из текущего
type ResetRequest struct {
	Seed   *int64  `json:"seed"`
	Planet *string `json:"planet"`
	Radius *int    `json:"radius"`
}

// PlaceRequest: точка установки префаба (центр основания)
type PlaceRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// ViewerRequest: опорный чанк наблюдателя
type ViewerRequest struct {
	X int `json:"x"`
	Z int `json:"z"`
}

func fail(c *gin.Context, status int, format string, args ...interface{}) {
	c.JSON(status, GenericResponse{Success: false, Message: fmt.Sprintf(format, args...)})
}

func ok(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, GenericResponse{Success: true, Message: message, Data: data})
}

func parseInts(c *gin.Context, names ...string) ([]int, error) {
	out := make([]int, len(names))
	for i, name := range names {
		n, err := strconv.Atoi(c.Param(name))
		if err != nil {
			return nil, fmt.Errorf("параметр %s должен быть целым: %q", name, c.Param(name))
		}
		out[i] = n
	}
	return out, nil
}

func parseCoord(c *gin.Context) (vec.Vec3, error) {
	nums, err := parseInts(c, "x", "y", "z")
	if err != nil {
		return vec.Vec3{}, err
	}
	coord := vec.Vec3{X: nums[0], Y: nums[1], Z: nums[2]}
	if !coord.InHeightRange() {
		return vec.Vec3{}, fmt.Errorf("y=%d вне диапазона [0, %d)", coord.Y, vec.ChunkHeight)
	}
	return coord, nil
}

func (rs *RestServer) describeBlock(c vec.Vec3) BlockResponse {
	v, layer := rs.engine.LookupBlock(c)
	name := "Air"
	if def, ok := block.Get(v.ID()); ok {
		name = def.Name
	}
	return BlockResponse{
		X: c.X, Y: c.Y, Z: c.Z,
		Value:    uint32(v),
		ID:       uint16(v.ID()),
		Name:     name,
		Layer:    layer.String(),
		Collides: rs.engine.Collides(c),
	}
}

// handleHealth: проверка живости
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": rs.metrics.GetUptime(),
		"seed":   rs.engine.Seed(),
	})
}

// handleLogin выдаёт токен администратора
func (rs *RestServer) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}
	if !rs.operator.Authenticate(req.Username, req.Password) {
		rs.logger.Warn("Неудачный вход оператора %q с %s", req.Username, c.ClientIP())
		fail(c, http.StatusUnauthorized, "Неверное имя пользователя или пароль")
		return
	}

	token, err := rs.tokens.Issue(req.Username, true)
	if err != nil {
		fail(c, http.StatusInternalServerError, "Ошибка генерации токена")
		return
	}
	ok(c, http.StatusOK, "Успешная авторизация", gin.H{"token": token})
}

// handleStats возвращает состояние движка и процесса
func (rs *RestServer) handleStats(c *gin.Context) {
	memoryMB, _ := rs.metrics.GetMemoryUsage()
	cpuPercent, _ := rs.metrics.GetCPUUsage()

	ok(c, http.StatusOK, "Статистика получена", gin.H{
		"engine": rs.engine.Stats(),
		"server": gin.H{
			"uptime":      rs.metrics.GetUptime(),
			"memory_mb":   fmt.Sprintf("%.2f", memoryMB),
			"cpu_percent": fmt.Sprintf("%.2f", cpuPercent),
			"goroutines":  runtime.NumGoroutine(),
			"server_time": time.Now().Unix(),
		},
		"memory_details": rs.metrics.GetDetailedMemoryStats(),
	})
}

// handleGetBlock возвращает блок в точке
func (rs *RestServer) handleGetBlock(c *gin.Context) {
	coord, err := parseCoord(c)
	if err != nil {
		fail(c, http.StatusBadRequest, "%v", err)
		return
	}
	ok(c, http.StatusOK, "Блок", rs.describeBlock(coord))
}

// handleSetBlock записывает правку игрока и ставит перестройку
func (rs *RestServer) handleSetBlock(c *gin.Context) {
	coord, err := parseCoord(c)
	if err != nil {
		fail(c, http.StatusBadRequest, "%v", err)
		return
	}

	var req BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}

	var v block.Value
	switch {
	case req.Value != nil:
		v = block.Value(*req.Value)
	case req.ID != nil:
		v = block.Make(block.BlockID(*req.ID))
	default:
		fail(c, http.StatusBadRequest, "Нужно указать id или value")
		return
	}
	if !v.IsAir() && !block.IsValidBlockID(v.ID()) {
		fail(c, http.StatusBadRequest, "Неизвестный блок %d", v.ID())
		return
	}

	neighbors := req.Neighbors == nil || *req.Neighbors
	rs.engine.SetBlockAndQueueRerender(coord, v, neighbors, true)
	ok(c, http.StatusOK, "Блок записан", rs.describeBlock(coord))
}

// handleGenerateChunk заполняет чанк структурами
func (rs *RestServer) handleGenerateChunk(c *gin.Context) {
	nums, err := parseInts(c, "x", "z")
	if err != nil {
		fail(c, http.StatusBadRequest, "%v", err)
		return
	}
	cc := vec.Vec2{X: nums[0], Z: nums[1]}
	if rs.engine.IsGenerated(cc) {
		ok(c, http.StatusOK, "Чанк уже сгенерирован", gin.H{"placed": 0, "fresh": false})
		return
	}
	placed := rs.engine.GenerateChunk(cc)
	ok(c, http.StatusOK, "Чанк сгенерирован", gin.H{"placed": placed, "fresh": true})
}

// handlePlacePrefab печатает префаб из библиотеки в указанной точке
func (rs *RestServer) handlePlacePrefab(c *gin.Context) {
	var req PlaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}
	origin := vec.Vec3{X: req.X, Y: req.Y, Z: req.Z}
	if !origin.InHeightRange() {
		fail(c, http.StatusBadRequest, "Высота %d вне мира", req.Y)
		return
	}

	written, err := rs.engine.PlacePrefab(origin, c.Param("name"))
	if err != nil {
		if errors.Is(err, world.ErrUnknownPrefab) {
			fail(c, http.StatusNotFound, "%v", err)
			return
		}
		fail(c, http.StatusInternalServerError, "%v", err)
		return
	}
	ok(c, http.StatusOK, "Префаб установлен", gin.H{"written": written})
}

// handleSaveWorld сохраняет мир в настроенный файл
func (rs *RestServer) handleSaveWorld(c *gin.Context) {
	if rs.worldPath == "" {
		fail(c, http.StatusConflict, "Файл мира не настроен")
		return
	}
	if err := rs.engine.SaveCurrentWorldToFile(rs.worldPath); err != nil {
		rs.logger.Error("Сохранение мира: %v", err)
		fail(c, http.StatusInternalServerError, "Не удалось сохранить мир")
		return
	}
	ok(c, http.StatusOK, "Мир сохранён", gin.H{"path": rs.worldPath})
}

// handleResetWorld создаёт новый мир и возвращает наблюдателя на место
func (rs *RestServer) handleResetWorld(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}

	seed, planet, radius := rs.engine.Seed(), rs.engine.Planet(), rs.engine.Radius()
	if req.Seed != nil {
		seed = *req.Seed
	}
	if req.Planet != nil {
		p, err := terrain.ParsePlanet(*req.Planet)
		if err != nil {
			fail(c, http.StatusBadRequest, "%v", err)
			return
		}
		planet = p
	}
	if req.Radius != nil {
		if *req.Radius < 0 || *req.Radius > chunkpool.MaxRadius {
			fail(c, http.StatusBadRequest, "Радиус должен быть в диапазоне [0, %d]", chunkpool.MaxRadius)
			return
		}
		radius = *req.Radius
	}

	center, hadViewer := rs.engine.Viewer()
	rs.engine.Reset(radius, seed, planet)
	if hadViewer {
		rs.engine.UpdateViewer(center)
	}
	ok(c, http.StatusOK, "Мир пересоздан", rs.engine.Stats())
}

// handleRenderTable возвращает занятые слоты, загруженные рендером
func (rs *RestServer) handleRenderTable(c *gin.Context) {
	table := rs.engine.RenderTable()
	used := make([]world.RenderEntry, 0, len(table))
	for _, entry := range table {
		if entry.Used {
			used = append(used, entry)
		}
	}
	ok(c, http.StatusOK, "Таблица рендера", gin.H{"slots": len(table), "used": used})
}

// handlePrefabs перечисляет префабы библиотеки
func (rs *RestServer) handlePrefabs(c *gin.Context) {
	ok(c, http.StatusOK, "Префабы", rs.engine.Library().Names())
}

// handleGetViewer возвращает сохранённый опорный чанк
func (rs *RestServer) handleGetViewer(c *gin.Context) {
	id := c.Param("id")
	chunk, found, err := rs.viewers.Load(c.Request.Context(), id)
	if err != nil {
		fail(c, http.StatusBadRequest, "%v", err)
		return
	}
	if !found {
		fail(c, http.StatusNotFound, "Наблюдатель %s не найден", id)
		return
	}
	ok(c, http.StatusOK, "Наблюдатель", ViewerRequest{X: chunk.X, Z: chunk.Z})
}

// handlePutViewer сохраняет опорный чанк и перестраивает пул вокруг него
func (rs *RestServer) handlePutViewer(c *gin.Context) {
	id := c.Param("id")
	var req ViewerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Неверный формат запроса")
		return
	}

	center := vec.Vec2{X: req.X, Z: req.Z}
	if err := rs.viewers.Save(c.Request.Context(), id, center); err != nil {
		fail(c, http.StatusBadRequest, "%v", err)
		return
	}
	moved := rs.engine.UpdateViewer(center)
	ok(c, http.StatusOK, "Наблюдатель обновлён", gin.H{"moved": moved})
}

// handleDeleteViewer удаляет запись наблюдателя
func (rs *RestServer) handleDeleteViewer(c *gin.Context) {
	if err := rs.viewers.Delete(c.Request.Context(), c.Param("id")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, storage.ErrViewerNotFound) {
			status = http.StatusNotFound
		}
		fail(c, status, "%v", err)
		return
	}
	ok(c, http.StatusOK, "Наблюдатель удалён", nil)
}

// handleSpawn опускает коллайдер игрока по столбцу (x, z) и возвращает точку опоры
func (rs *RestServer) handleSpawn(c *gin.Context) {
	nums, err := parseInts(c, "x", "z")
	if err != nil {
		fail(c, http.StatusBadRequest, "%v", err)
		return
	}

	feet := mgl32.Vec3{float32(nums[0]) + 0.5, float32(vec.ChunkHeight - 2), float32(nums[1]) + 0.5}
	box := physics.NewBoxCollider(feet, spawnWidth, spawnHeight)
	if physics.Overlaps(rs.engine, box) {
		fail(c, http.StatusConflict, "Столбец (%d,%d) занят до верха мира", nums[0], nums[1])
		return
	}

	landed, grounded := physics.DropToGround(rs.engine, box)
	if !grounded {
		fail(c, http.StatusNotFound, "Под столбцом (%d,%d) нет опоры", nums[0], nums[1])
		return
	}
	spawn := landed.Feet()
	ok(c, http.StatusOK, "Точка появления", gin.H{"x": spawn.X(), "y": spawn.Y(), "z": spawn.Z()})
}
