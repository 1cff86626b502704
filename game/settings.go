package game

import "InfTrack/memory"

// PlaySettings layout. The block repeats at +60 bytes for the 2P side.
// The song-select marker sits six words below the block and toggles
// between the menu phase (1) and the play phase (0).
const (
	PlaySettingsSize = 0x28

	settingsStyleOffset  = 0x00
	settingsGaugeOffset  = 0x04
	settingsAssistOffset = 0x08
	settingsFlipOffset   = 0x0C
	settingsRangeOffset  = 0x10
	settingsStyle2Offset = 0x14
	settingsBattleOffset = 0x20
	settingsHRanOffset   = 0x24

	// SettingsP2Offset is the displacement of the 2P settings block.
	SettingsP2Offset = 60

	// SongSelectMarkerOffset is subtracted from the settings address to
	// reach the marker word.
	SongSelectMarkerOffset = 0x18

	// Marker values observed for the two phases.
	MarkerSelect = 1
	MarkerPlay   = 0
)

// PlaySettings are the modifiers active for the current or upcoming play.
type PlaySettings struct {
	Style  Style
	Style2 Style // DP second side; StyleOff otherwise
	Gauge  GaugeType
	Assist AssistType
	Range  RangeType
	Flip   bool
	Battle bool
	HRan   bool
}

// DecodePlaySettings decodes and validates one settings block.
func DecodePlaySettings(buf *memory.Buffer) (*PlaySettings, error) {
	if buf.Len() < PlaySettingsSize {
		return nil, invalidStructure("settings block too short", buf.Bytes())
	}
	style, _ := buf.I32At(settingsStyleOffset)
	gauge, _ := buf.I32At(settingsGaugeOffset)
	assist, _ := buf.I32At(settingsAssistOffset)
	flip, _ := buf.I32At(settingsFlipOffset)
	rng, _ := buf.I32At(settingsRangeOffset)
	style2, _ := buf.I32At(settingsStyle2Offset)
	battle, _ := buf.I32At(settingsBattleOffset)
	hRan, _ := buf.I32At(settingsHRanOffset)

	if !Style(style).Valid() {
		return nil, invalidStructure("style out of range", buf.Bytes())
	}
	if !GaugeType(gauge).Valid() {
		return nil, invalidStructure("gauge out of range", buf.Bytes())
	}
	if !AssistType(assist).Valid() {
		return nil, invalidStructure("assist out of range", buf.Bytes())
	}
	if flip != 0 && flip != 1 {
		return nil, invalidStructure("flip out of range", buf.Bytes())
	}
	if !RangeType(rng).Valid() {
		return nil, invalidStructure("range out of range", buf.Bytes())
	}
	if !Style(style2).Valid() {
		style2 = int32(StyleOff)
	}

	return &PlaySettings{
		Style:  Style(style),
		Style2: Style(style2),
		Gauge:  GaugeType(gauge),
		Assist: AssistType(assist),
		Range:  RangeType(rng),
		Flip:   flip == 1,
		Battle: battle == 1,
		HRan:   hRan == 1,
	}, nil
}

// ReadPlaySettings reads the settings block for the given side.
// settingsAddr is the 1P block; the 2P block sits at +SettingsP2Offset.
func ReadPlaySettings(r memory.Reader, settingsAddr uint64, playType PlayType) (*PlaySettings, error) {
	addr := settingsAddr
	if playType == PlayP2 {
		addr += SettingsP2Offset
	}
	raw, err := r.ReadBytes(addr, PlaySettingsSize)
	if err != nil {
		return nil, err
	}
	settings, err := DecodePlaySettings(memory.NewBuffer(raw))
	if err != nil {
		return nil, err
	}
	if playType != PlayDP {
		settings.Style2 = StyleOff
	}
	return settings, nil
}

// ReadSongSelectMarker reads the marker word below the settings block.
func ReadSongSelectMarker(r memory.Reader, settingsAddr uint64) (int32, error) {
	return memory.ReadI32(r, settingsAddr-SongSelectMarkerOffset)
}
