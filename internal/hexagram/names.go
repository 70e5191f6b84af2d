package hexagram

// Trigram indices: three line bits with the trigram's top line as MSB and
// yang = 1. The resulting order is 坤震坎兑艮离巽乾.
var trigramNames = [8]string{"坤", "震", "坎", "兑", "艮", "离", "巽", "乾"}

// hexagramNames[upper][lower] — the 64 King Wen names addressed by trigram
// pair. The hexagram's 6-bit index splits into upper (bits 5..3) and lower
// (bits 2..0) trigram indices.
var hexagramNames = [8][8]string{
	{"坤为地", "地雷复", "地水师", "地泽临", "地山谦", "地火明夷", "地风升", "地天泰"},
	{"雷地豫", "震为雷", "雷水解", "雷泽归妹", "雷山小过", "雷火丰", "雷风恒", "雷天大壮"},
	{"水地比", "水雷屯", "坎为水", "水泽节", "水山蹇", "水火既济", "水风井", "水天需"},
	{"泽地萃", "泽雷随", "泽水困", "兑为泽", "泽山咸", "泽火革", "泽风大过", "泽天夬"},
	{"山地剥", "山雷颐", "山水蒙", "山泽损", "艮为山", "山火贲", "山风蛊", "山天大畜"},
	{"火地晋", "火雷噬嗑", "火水未济", "火泽睽", "火山旅", "离为火", "火风鼎", "火天大有"},
	{"风地观", "风雷益", "风水涣", "风泽中孚", "风山渐", "风火家人", "巽为风", "风天小畜"},
	{"天地否", "天雷无妄", "天水讼", "天泽履", "天山遁", "天火同人", "天风姤", "乾为天"},
}

// Name returns the King Wen name for a 0-63 hexagram index.
func Name(index int) string {
	upper := (index >> 3) & 0x7
	lower := index & 0x7
	return hexagramNames[upper][lower]
}

// TrigramName returns the name of a 0-7 trigram index.
func TrigramName(index int) string {
	return trigramNames[index&0x7]
}
