package entities

// VoiceSource tells where a catalog voice comes from
type VoiceSource string

const (
	VoiceSourcePreset    VoiceSource = "preset"
	VoiceSourceCommunity VoiceSource = "community"
	VoiceSourceCustom    VoiceSource = "custom"
)

// Voice is a selectable speaker in the catalog. Name is the display name
// sent back as SpeechRequest.VoiceName.
type Voice struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Gender   string      `json:"gender"`
	Language string      `json:"language"`
	Category string      `json:"category"`
	Tags     []string    `json:"tags"`
	Source   VoiceSource `json:"source"`
}

var voiceCatalog = []Voice{
	{ID: "v1", Name: "不羁青年", Gender: "Male", Language: "Chinese", Category: "Narrator", Tags: []string{"潇洒", "青年"}, Source: VoiceSourcePreset},
	{ID: "v2", Name: "嚣张小姐", Gender: "Female", Language: "Chinese", Category: "Character", Tags: []string{"自信", "优越感"}, Source: VoiceSourcePreset},
	{ID: "v3", Name: "机械战甲", Gender: "Male", Language: "Chinese", Category: "Character", Tags: []string{"科幻", "机器人"}, Source: VoiceSourcePreset},
	{ID: "v4", Name: "热心大婶", Gender: "Female", Language: "Chinese", Category: "Narrator", Tags: []string{"温和", "善良"}, Source: VoiceSourcePreset},
	{ID: "v5", Name: "搞笑大爷", Gender: "Male", Language: "Chinese", Category: "Character", Source: VoiceSourcePreset},
	{ID: "v6", Name: "温润男声", Gender: "Male", Language: "Chinese", Category: "Narrator", Source: VoiceSourcePreset},
	{ID: "v7", Name: "温暖闺蜜", Gender: "Female", Language: "Chinese", Category: "Social Media", Source: VoiceSourcePreset},
	{ID: "c1", Name: "我的数字分身", Gender: "Male", Language: "Chinese", Category: "Character", Source: VoiceSourceCustom},
	{ID: "en1", Name: "Kore", Gender: "Female", Language: "English", Category: "Narrator", Source: VoiceSourcePreset},
	{ID: "en2", Name: "Fenrir", Gender: "Male", Language: "English", Category: "Character", Source: VoiceSourcePreset},
	{ID: "en3", Name: "Narrator", Gender: "Male", Language: "English", Category: "Narrator", Source: VoiceSourcePreset},
}

// VoiceCatalog returns a copy of the built-in voices.
func VoiceCatalog() []Voice {
	out := make([]Voice, len(voiceCatalog))
	for i, v := range voiceCatalog {
		out[i] = v.clone()
	}
	return out
}

// FindVoice looks a voice up by its display name.
func FindVoice(name string) (Voice, bool) {
	for _, v := range voiceCatalog {
		if v.Name == name {
			return v.clone(), true
		}
	}
	return Voice{}, false
}

func (v Voice) clone() Voice {
	if v.Tags != nil {
		v.Tags = append([]string(nil), v.Tags...)
	}
	return v
}
