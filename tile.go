package primitive

// TileMap partitions a device-wide input of Count elements into an ordered
// sequence of fixed-size tiles, one block per tile. The last tile may be
// partial. An empty input maps to zero tiles.
type TileMap struct {
	Count    int
	TileSize int
	NumTiles int
}

// MakeTileMap builds the tile partition for count elements.
func MakeTileMap(count, tileSize int) TileMap {
	return TileMap{
		Count:    count,
		TileSize: tileSize,
		NumTiles: (count + tileSize - 1) / tileSize,
	}
}

// Tile returns tile i's element offset and valid item count.
func (m TileMap) Tile(i int) (offset, valid int) {
	offset = i * m.TileSize
	valid = m.TileSize
	if offset+valid > m.Count {
		valid = m.Count - offset
	}
	return offset, valid
}

// IsPartial reports whether tile i holds fewer than TileSize items.
func (m TileMap) IsPartial(i int) bool {
	_, valid := m.Tile(i)
	return valid < m.TileSize
}
