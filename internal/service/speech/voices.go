package speech

import "strings"

// DefaultSpeaker is used when no voice is configured.
const DefaultSpeaker = "en_male_glen_jupiter_bigtts"

const (
	defaultResource = "volc.service_type.10029"
	megaResource    = "volc.megatts.default"
	seedResource    = "seed-tts-2.0"
)

var speakerAliases = map[string]string{
	"default":    DefaultSpeaker,
	"en_default": DefaultSpeaker,
	"en_female":  "en_female_amy_jupiter_bigtts",
	"en_male":    DefaultSpeaker,
}

// speakerCandidates returns the configured speaker, resolved through the
// alias table, followed by DefaultSpeaker.
func speakerCandidates(configured string) []string {
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if mapped, ok := speakerAliases[strings.ToLower(s)]; ok {
			s = mapped
		}
		for _, existing := range out {
			if strings.EqualFold(existing, s) {
				return
			}
		}
		out = append(out, s)
	}
	add(configured)
	add(DefaultSpeaker)
	return out
}

// resourceCandidates orders resource ids by how likely they are to match speaker.
func resourceCandidates(speaker string) []string {
	speaker = strings.TrimSpace(speaker)
	if speaker == "" {
		return []string{defaultResource, seedResource}
	}
	if strings.HasPrefix(speaker, "S_") {
		// cloned voices
		return []string{megaResource}
	}

	normalized := strings.ToLower(speaker)
	for _, hint := range []string{"bigtts", "seed", "megatts", "uranus", "venus", "jupiter", "saturn", "neptune", "mercury", "pluto", "mars"} {
		if strings.Contains(normalized, hint) {
			return []string{seedResource, defaultResource}
		}
	}
	return []string{defaultResource, seedResource}
}

func isResourceMismatch(err error) bool {
	return err != nil && strings.Contains(err.Error(), "resource ID is mismatched with speaker related resource")
}
