package gemini

// DefaultVoice is used for any display name missing from the mapping.
const DefaultVoice = "Kore"

// voiceMapping maps UI display names onto prebuilt Gemini voices.
var voiceMapping = map[string]string{
	"Kore":   "Kore",
	"Fenrir": "Fenrir",
	"不羁青年":   "Fenrir",
	"嚣张小姐":   "Kore",
	"机械战甲":   "Charon",
	"热心大婶":   "Aoede",
	"搞笑大爷":   "Puck",
	"温润男声":   "Zephyr",
	"温暖闺蜜":   "Kore",
	"我的数字分身": "Charon",
	"Narrator": "Puck",
}

// ResolveVoice returns the provider voice for a display name. Unknown
// names fall back to DefaultVoice instead of failing.
func ResolveVoice(displayName string) string {
	if v, ok := voiceMapping[displayName]; ok {
		return v
	}
	return DefaultVoice
}
