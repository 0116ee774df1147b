package plate

// LeadingRule limits a letter->digit substitution to the first Positions digit slots.
type LeadingRule struct {
	Digit     rune
	Positions int
}

/*
ConfusionTable maps characters OCR commonly mistakes for one another, by the
class of the position they appear in. A table is read-only once built.
*/
type ConfusionTable struct {
	ToDigit        map[rune]rune        // letter read where a digit belongs
	ToLetter       map[rune]rune        // digit read where a letter belongs
	LeadingToDigit map[rune]LeadingRule // only near the start of the digit run
	TrailingLetter map[rune]rune        // only on the final letter slot
}

// positional tables used by FixCommonErrors when the text looks like 1234ABC
var digitFirstFixTable = ConfusionTable{
	ToDigit: map[rune]rune{'O': '0', 'I': '1', 'L': '1', 'S': '5', 'Z': '2', 'G': '6', 'T': '7', 'F': '1'},
	LeadingToDigit: map[rune]LeadingRule{
		'B': {Digit: '8', Positions: 2},
		'A': {Digit: '4', Positions: 1},
	},
	ToLetter:       map[rune]rune{'0': 'O', '1': 'I', '8': 'B', '5': 'S', '6': 'G', '2': 'Z', '7': 'T'},
	TrailingLetter: map[rune]rune{'U': 'D'},
}

// ... and when it looks like ABC1234
var letterFirstFixTable = ConfusionTable{
	ToLetter: map[rune]rune{'0': 'O', '1': 'I', '8': 'B', '5': 'S'},
	ToDigit:  map[rune]rune{'O': '0', 'I': '1', 'L': '1', 'S': '5', 'B': '8', 'Z': '2', 'G': '6'},
}

var interpretationTable = ConfusionTable{
	ToDigit:  map[rune]rune{'O': '0', 'I': '1', 'L': '1', 'S': '5', 'B': '8', 'Z': '2', 'G': '6'},
	ToLetter: map[rune]rune{'0': 'O', '1': 'I', '8': 'B', '5': 'S', '6': 'G', '2': 'Z'},
}

var positionalTable = ConfusionTable{
	ToDigit:  map[rune]rune{'O': '0', 'I': '1', 'L': '1', 'S': '5', 'B': '8'},
	ToLetter: map[rune]rune{'0': 'O', '1': 'I', '8': 'B', '5': 'S'},
}

var forceTable = ConfusionTable{
	ToDigit:  map[rune]rune{'O': '0', 'I': '1', 'L': '1', 'S': '5', 'B': '8', 'Z': '2', 'G': '6', 'T': '7', 'A': '4', 'F': '1'},
	ToLetter: map[rune]rune{'0': 'O', '1': 'I', '8': 'B', '5': 'S', '6': 'G', '2': 'Z', '7': 'T', '4': 'A'},
}

/*
Apply rewrites text so every position follows shape ('D' digit, 'L' letter)
where the table knows a substitution. Characters without a mapping are kept,
so the result may still not fit the shape. text and shape must have the same
length, otherwise text is returned unchanged.
*/
func (t ConfusionTable) Apply(text string, shape string) string {
	if len(text) != len(shape) {
		return text
	}

	lastLetter := -1
	for i := len(shape) - 1; i >= 0; i-- {
		if shape[i] == 'L' {
			lastLetter = i
			break
		}
	}

	result := []rune(text)
	digitSlot := 0
	for i, r := range result {
		switch shape[i] {
		case 'D':
			if mapped, ok := t.ToDigit[r]; ok {
				result[i] = mapped
			} else if leading, ok := t.LeadingToDigit[r]; ok && digitSlot < leading.Positions {
				result[i] = leading.Digit
			}
			digitSlot++
		case 'L':
			if mapped, ok := t.ToLetter[r]; ok {
				result[i] = mapped
			}
			if i == lastLetter {
				if mapped, ok := t.TrailingLetter[result[i]]; ok {
					result[i] = mapped
				}
			}
		}
	}
	return string(result)
}

// fitsShape reports whether every rune of text has the class shape asks for.
func fitsShape(text string, shape string) bool {
	if len(text) != len(shape) {
		return false
	}
	for i, r := range text {
		if shape[i] == 'D' && !isDigit(r) {
			return false
		}
		if shape[i] == 'L' && !isLetter(r) {
			return false
		}
	}
	return true
}
