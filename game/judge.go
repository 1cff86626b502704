package game

import "InfTrack/memory"

// Judge region layout: eighteen consecutive u32 words, P1 then P2, plus
// two state-marker words further in.
const (
	judgeWord = 4

	judgeP1PGreat = 0 * judgeWord
	judgeP1Great  = 1 * judgeWord
	judgeP1Good   = 2 * judgeWord
	judgeP1Bad    = 3 * judgeWord
	judgeP1Poor   = 4 * judgeWord

	judgeP2PGreat = 5 * judgeWord
	judgeP2Great  = 6 * judgeWord
	judgeP2Good   = 7 * judgeWord
	judgeP2Bad    = 8 * judgeWord
	judgeP2Poor   = 9 * judgeWord

	judgeP1ComboBreak = 10 * judgeWord
	judgeP2ComboBreak = 11 * judgeWord
	judgeP1Fast       = 12 * judgeWord
	judgeP2Fast       = 13 * judgeWord
	judgeP1Slow       = 14 * judgeWord
	judgeP2Slow       = 15 * judgeWord
	judgeP1MeasureEnd = 16 * judgeWord
	judgeP2MeasureEnd = 17 * judgeWord

	// JudgeStateMarker1 and JudgeStateMarker2 flip non-zero while a chart
	// is in progress.
	JudgeStateMarker1 = 54 * judgeWord
	JudgeStateMarker2 = 55 * judgeWord

	// JudgeZeroRegionSize is the span of the counter words. All zero in
	// the idle state, between plays and at boot.
	JudgeZeroRegionSize = 18 * judgeWord

	// JudgeRegionSize covers the counters and both state markers.
	JudgeRegionSize = 0xE0

	// MaxJudgeValue bounds any single counter for a real chart.
	MaxJudgeValue = 3000
)

// PlayerJudge holds one side's raw counters.
type PlayerJudge struct {
	PGreat     uint32
	Great      uint32
	Good       uint32
	Bad        uint32
	Poor       uint32
	ComboBreak uint32
	Fast       uint32
	Slow       uint32
	MeasureEnd uint32
}

// TotalNotes is the number of judged notes on this side.
func (p *PlayerJudge) TotalNotes() uint32 {
	return p.PGreat + p.Great + p.Good + p.Bad + p.Poor
}

// Judge is the combined judgment for a play, with the play type inferred
// from which sides saw notes.
type Judge struct {
	PlayType     PlayType
	PGreat       uint32
	Great        uint32
	Good         uint32
	Bad          uint32
	Poor         uint32
	Fast         uint32
	Slow         uint32
	ComboBreak   uint32
	PrematureEnd bool
}

// ExScore is 2*pgreat + great.
func (j *Judge) ExScore() uint32 { return j.PGreat*2 + j.Great }

// MissCount is bad + poor.
func (j *Judge) MissCount() uint32 { return j.Bad + j.Poor }

// TotalNotes is the number of judged notes.
func (j *Judge) TotalNotes() uint32 {
	return j.PGreat + j.Great + j.Good + j.Bad + j.Poor
}

// IsPerfect reports a play with no good, bad or poor.
func (j *Judge) IsPerfect() bool { return j.Good == 0 && j.Bad == 0 && j.Poor == 0 }

// CombineJudge merges both sides into one Judge and infers the play type.
func CombineJudge(p1, p2 PlayerJudge) Judge {
	playType := PlayP1
	switch {
	case p1.TotalNotes() == 0 && p2.TotalNotes() > 0:
		playType = PlayP2
	case p1.TotalNotes() > 0 && p2.TotalNotes() > 0:
		playType = PlayDP
	}
	return Judge{
		PlayType:     playType,
		PGreat:       p1.PGreat + p2.PGreat,
		Great:        p1.Great + p2.Great,
		Good:         p1.Good + p2.Good,
		Bad:          p1.Bad + p2.Bad,
		Poor:         p1.Poor + p2.Poor,
		Fast:         p1.Fast + p2.Fast,
		Slow:         p1.Slow + p2.Slow,
		ComboBreak:   p1.ComboBreak + p2.ComboBreak,
		PrematureEnd: p1.MeasureEnd+p2.MeasureEnd != 0,
	}
}

// DecodeJudge decodes the judge region from an already-read buffer.
func DecodeJudge(buf *memory.Buffer) (Judge, error) {
	if buf.Len() < JudgeZeroRegionSize {
		return Judge{}, invalidStructure("judge region too short", buf.Bytes())
	}
	word := func(offset int) uint32 {
		v, _ := buf.U32At(offset)
		return v
	}
	p1 := PlayerJudge{
		PGreat:     word(judgeP1PGreat),
		Great:      word(judgeP1Great),
		Good:       word(judgeP1Good),
		Bad:        word(judgeP1Bad),
		Poor:       word(judgeP1Poor),
		ComboBreak: word(judgeP1ComboBreak),
		Fast:       word(judgeP1Fast),
		Slow:       word(judgeP1Slow),
		MeasureEnd: word(judgeP1MeasureEnd),
	}
	p2 := PlayerJudge{
		PGreat:     word(judgeP2PGreat),
		Great:      word(judgeP2Great),
		Good:       word(judgeP2Good),
		Bad:        word(judgeP2Bad),
		Poor:       word(judgeP2Poor),
		ComboBreak: word(judgeP2ComboBreak),
		Fast:       word(judgeP2Fast),
		Slow:       word(judgeP2Slow),
		MeasureEnd: word(judgeP2MeasureEnd),
	}
	return CombineJudge(p1, p2), nil
}

// ReadJudge reads and decodes the judge region at judgeAddr.
func ReadJudge(r memory.Reader, judgeAddr uint64) (Judge, error) {
	raw, err := r.ReadBytes(judgeAddr, JudgeZeroRegionSize)
	if err != nil {
		return Judge{}, err
	}
	return DecodeJudge(memory.NewBuffer(raw))
}

// ReadJudgeMarkers reads the two state-marker words.
func ReadJudgeMarkers(r memory.Reader, judgeAddr uint64) (int32, int32, error) {
	m1, err := memory.ReadI32(r, judgeAddr+JudgeStateMarker1)
	if err != nil {
		return 0, 0, err
	}
	m2, err := memory.ReadI32(r, judgeAddr+JudgeStateMarker2)
	if err != nil {
		return 0, 0, err
	}
	return m1, m2, nil
}
