package render

// 8x16 glyph bitmaps for the gear/RPM readout. Row strings keep the
// artwork editable; they are packed into bit rows at init.

const (
	glyphWidth  = 8
	glyphHeight = 16
)

var glyphArt = map[rune][glyphHeight]string{
	'0': {
		"........",
		"..####..",
		".##..##.",
		".##..##.",
		".##..##.",
		".##..##.",
		".##..##.",
		".##..##.",
		".##..##.",
		".##..##.",
		".##..##.",
		".##..##.",
		".##..##.",
		"..####..",
		"........",
		"........",
	},
	'1': {
		"........",
		"...##...",
		"..###...",
		".####...",
		"...##...",
		"...##...",
		"...##...",
		"...##...",
		"...##...",
		"...##...",
		"...##...",
		"...##...",
		"...##...",
		".######.",
		"........",
		"........",
	},
	'2': {
		"........",
		"..####..",
		".##..##.",
		".....##.",
		".....##.",
		".....##.",
		"....##..",
		"...##...",
		"..##....",
		".##.....",
		".##.....",
		".##.....",
		".##.....",
		".######.",
		"........",
		"........",
	},
	'3': {
		"........",
		"..####..",
		".##..##.",
		".....##.",
		".....##.",
		".....##.",
		"..####..",
		".....##.",
		".....##.",
		".....##.",
		".....##.",
		".....##.",
		".##..##.",
		"..####..",
		"........",
		"........",
	},
	'4': {
		"........",
		".##..##.",
		".##..##.",
		".##..##.",
		".##..##.",
		".##..##.",
		"..######",
		".....##.",
		".....##.",
		".....##.",
		".....##.",
		".....##.",
		".....##.",
		".....##.",
		"........",
		"........",
	},
	'5': {
		"........",
		".######.",
		".##.....",
		".##.....",
		".##.....",
		".##.....",
		".#####..",
		".....##.",
		".....##.",
		".....##.",
		".....##.",
		".....##.",
		".##..##.",
		"..####..",
		"........",
		"........",
	},
	'6': {
		"........",
		"..####..",
		".##..##.",
		".##.....",
		".##.....",
		".##.....",
		".#####..",
		".##..##.",
		".##..##.",
		".##..##.",
		".##..##.",
		".##..##.",
		".##..##.",
		"..####..",
		"........",
		"........",
	},
	'7': {
		"........",
		".######.",
		".....##.",
		".....##.",
		"....##..",
		"....##..",
		"....##..",
		"...##...",
		"...##...",
		"...##...",
		"..##....",
		"..##....",
		"..##....",
		"..##....",
		"........",
		"........",
	},
	'8': {
		"........",
		"..####..",
		".##..##.",
		".##..##.",
		".##..##.",
		".##..##.",
		"..####..",
		".##..##.",
		".##..##.",
		".##..##.",
		".##..##.",
		".##..##.",
		".##..##.",
		"..####..",
		"........",
		"........",
	},
	'9': {
		"........",
		"..####..",
		".##..##.",
		".##..##.",
		".##..##.",
		".##..##.",
		"..#####.",
		".....##.",
		".....##.",
		".....##.",
		".....##.",
		".....##.",
		".##..##.",
		"..####..",
		"........",
		"........",
	},
	'N': {
		"........",
		"##....##",
		"###...##",
		"###...##",
		"##.#..##",
		"##.#..##",
		"##..#.##",
		"##..#.##",
		"##...###",
		"##...###",
		"##....##",
		"##....##",
		"##....##",
		"##....##",
		"........",
		"........",
	},
	'R': {
		"........",
		"######..",
		"##...##.",
		"##...##.",
		"##...##.",
		"##...##.",
		"######..",
		"##.##...",
		"##..##..",
		"##..##..",
		"##...##.",
		"##...##.",
		"##....##",
		"##....##",
		"........",
		"........",
	},
	'-': {
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"..####..",
		"..####..",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
		"........",
	},
}

var glyphs = map[rune][glyphHeight]uint8{}

func init() {
	for ch, art := range glyphArt {
		var rows [glyphHeight]uint8
		for y, row := range art {
			for x := 0; x < glyphWidth && x < len(row); x++ {
				if row[x] == '#' {
					rows[y] |= 1 << (glyphWidth - 1 - x)
				}
			}
		}
		glyphs[ch] = rows
	}
}

// glyphFor falls back to the dash for characters outside the font.
func glyphFor(ch rune) [glyphHeight]uint8 {
	if g, ok := glyphs[ch]; ok {
		return g
	}
	return glyphs['-']
}
