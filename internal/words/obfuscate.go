package words

import (
	"math/rand"
	"strings"
)

const xorKey = 179

// Obfuscate lightly scrambles the current answer before it is pushed to
// clients, interleaving random padding letters and XOR-ing the result.
// This is not encryption; it only keeps the answer out of a casual
// devtools inspection.
func Obfuscate(answer string) string {
	var sb strings.Builder
	sb.Grow(len(answer) * 2)
	for _, c := range answer {
		sb.WriteRune(c)
		sb.WriteRune(rune('a' + rand.Intn(26)))
	}
	return xorString(sb.String())
}

// Deobfuscate reverses Obfuscate.
func Deobfuscate(obfuscated string) string {
	plain := xorString(obfuscated)
	var sb strings.Builder
	sb.Grow(len(plain) / 2)
	runes := []rune(plain)
	for i := 0; i < len(runes); i += 2 {
		sb.WriteRune(runes[i])
	}
	return sb.String()
}

func xorString(txt string) string {
	var sb strings.Builder
	sb.Grow(len(txt))
	for _, c := range txt {
		sb.WriteRune(c ^ xorKey)
	}
	return sb.String()
}
