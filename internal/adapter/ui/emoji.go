package ui

import (
	"strings"
)

// emojiGlyphs is the fixed picker palette. Selection appends the glyph to
// the draft and closes the panel; the picker has no other state.
var emojiGlyphs = []string{
	"😀", "😂", "😍", "😎", "🤔", "😢", "😡", "👍",
	"👎", "🙏", "🎉", "❤️", "🔥", "✨", "💀", "👀",
}

func renderEmojiPicker(selected int) string {
	var b strings.Builder
	for i, glyph := range emojiGlyphs {
		if i > 0 && i%8 == 0 {
			b.WriteString("\n")
		}
		cell := " " + glyph + " "
		if i == selected {
			cell = pickerSelectedStyle.Render(cell)
		}
		b.WriteString(cell)
	}
	b.WriteString("\n" + helpStyle.Render("←/→ select · enter pick · esc close"))
	return pickerStyle.Render(b.String())
}

func clampEmojiIndex(i int) int {
	if i < 0 {
		return 0
	}
	if i >= len(emojiGlyphs) {
		return len(emojiGlyphs) - 1
	}
	return i
}
