package effect

// Effect is a named preset appended to a prompt to bias the generation style.
type Effect struct {
	Name   string `json:"name"`
	Suffix string `json:"suffix"`
}

// None is the effect that leaves the prompt untouched.
const None = "None"

var effects = []Effect{
	{Name: None, Suffix: ""},
	{Name: "Cinematic", Suffix: ", cinematic style, dramatic lighting, high contrast, wide-angle shot"},
	{Name: "Anime", Suffix: ", anime style, vibrant colors, cel-shaded"},
	{Name: "Vintage", Suffix: ", vintage film look, grain, slightly desaturated colors, 1960s"},
	{Name: "Claymation", Suffix: ", claymation style, stop-motion animation"},
	{Name: "Watercolor", Suffix: ", watercolor painting style, soft edges"},
	{Name: "Painterly", Suffix: ", painterly style, visible brushstrokes, rich colors, expressive"},
	{Name: "Digital Drawing", Suffix: ", digital art style, clean lines, vibrant flat colors, graphic novel look"},
	{Name: "Realistic", Suffix: ", photorealistic, 8k, hyper-detailed, cinematic lighting"},
	{Name: "Fantasy", Suffix: ", fantasy style, magical atmosphere, ethereal lighting, epic and grand scale"},
}

// All returns a copy of the available effects in display order.
func All() []Effect {
	out := make([]Effect, len(effects))
	copy(out, effects)
	return out
}

// Lookup returns the effect with the given name.
func Lookup(name string) (Effect, bool) {
	for _, e := range effects {
		if e.Name == name {
			return e, true
		}
	}
	return Effect{}, false
}

// Apply appends the suffix of the named effect to the prompt.
// Unknown names leave the prompt as is.
func Apply(prompt, name string) string {
	e, ok := Lookup(name)
	if !ok {
		return prompt
	}
	return prompt + e.Suffix
}

// Default returns the effect selected when there is no saved preference.
func Default() Effect {
	e, _ := Lookup(None)
	return e
}
