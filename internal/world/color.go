package world

// Color семантический тег материала блока в виде hex-строки
type Color string

// Палитра деревни
const (
	ColorWoodDark    Color = "#5D4037"
	ColorWoodLight   Color = "#8D6E63"
	ColorLeavesDark  Color = "#1B5E20"
	ColorLeavesLight Color = "#4CAF50"
	ColorPeachDark   Color = "#F06292"
	ColorPeachLight  Color = "#FFC1E3"
	ColorRoofDark    Color = "#37474F"
	ColorRoofLight   Color = "#546E7A"
	ColorWall        Color = "#F5F5F5"
	ColorWallDirty   Color = "#E0E0E0"
	ColorStone       Color = "#757575"
	ColorGrass       Color = "#558B2F"
	ColorDirt        Color = "#795548"
	ColorWater       Color = "#29B6F6"
	ColorCropWheat   Color = "#FFD54F"
	ColorCropGreen   Color = "#AED581"
	ColorSkin        Color = "#FFCC80"
	ColorClothBlue   Color = "#1E88E5"
	ColorClothGrey   Color = "#78909C"
	ColorClothRed    Color = "#E53935"
)

// IsHex проверяет формат #RRGGBB
func (c Color) IsHex() bool {
	if len(c) != 7 || c[0] != '#' {
		return false
	}
	for i := 1; i < len(c); i++ {
		ch := c[i]
		switch {
		case ch >= '0' && ch <= '9':
		case ch >= 'a' && ch <= 'f':
		case ch >= 'A' && ch <= 'F':
		default:
			return false
		}
	}
	return true
}
