package command

// numberWords maps spelled-out Spanish numbers 0-30 to their value.
// Accented and unaccented spellings are both listed; "un"/"una" are left out
// because they are articles far more often than floor numbers.
var numberWords = map[string]int{
	"cero":         0,
	"uno":          1,
	"dos":          2,
	"tres":         3,
	"cuatro":       4,
	"cinco":        5,
	"seis":         6,
	"siete":        7,
	"ocho":         8,
	"nueve":        9,
	"diez":         10,
	"once":         11,
	"doce":         12,
	"trece":        13,
	"catorce":      14,
	"quince":       15,
	"dieciseis":    16,
	"dieciséis":    16,
	"diecisiete":   17,
	"dieciocho":    18,
	"diecinueve":   19,
	"veinte":       20,
	"veintiuno":    21,
	"veintiun":     21,
	"veintiún":     21,
	"veintidos":    22,
	"veintidós":    22,
	"veintitres":   23,
	"veintitrés":   23,
	"veinticuatro": 24,
	"veinticinco":  25,
	"veintiseis":   26,
	"veintiséis":   26,
	"veintisiete":  27,
	"veintiocho":   28,
	"veintinueve":  29,
	"treinta":      30,
}

// landmark floors, matched on normalized text.
const topFloor = -1

var namedFloors = []struct {
	phrase string
	floor  int
}{
	{"pb", 0},
	{"garaje", 0},
	{"garage", 0},
	{"cochera", 0},
	{"subsuelo", 0},
	{"ultimo piso", topFloor},
	{"azotea", topFloor},
	{"terraza", topFloor},
}

// ordinal suffixes accepted after a digit run ("5to", "3º", "1er").
var ordinalSuffixes = map[string]bool{
	"":   true,
	"º":  true,
	"ª":  true,
	"o":  true,
	"er": true,
	"ro": true,
	"do": true,
	"to": true,
	"vo": true,
	"mo": true,
	"no": true,
}

// maxDigitFloor is the largest digit token recognized as a floor.
const maxDigitFloor = 99
