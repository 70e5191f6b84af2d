// Package prompt assembles the final model prompt from a persona, an
// optional game-type instruction block, and the structured divination
// payload.
package prompt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// GameType is the closed set of supported divination games. Unknown
// strings are an explicit error, never a silently-empty prompt block.
type GameType string

const (
	GameNone      GameType = ""
	GameHexagram  GameType = "hexagram"
	GameQimen     GameType = "qimen"
	GameBazi      GameType = "bazi"
	GameLifeCurve GameType = "lifecurve"
)

// ErrUnsupportedGameType marks a game type outside the closed set.
var ErrUnsupportedGameType = errors.New("prompt: unsupported game type")

// ParseGameType validates a raw type tag from the API surface.
func ParseGameType(s string) (GameType, error) {
	switch GameType(s) {
	case GameHexagram, GameQimen, GameBazi, GameLifeCurve:
		return GameType(s), nil
	case GameNone:
		return GameNone, nil
	default:
		return GameNone, fmt.Errorf("%w: %q", ErrUnsupportedGameType, s)
	}
}

// Valid reports membership in the closed set (GameNone excluded).
func (g GameType) Valid() bool {
	switch g {
	case GameHexagram, GameQimen, GameBazi, GameLifeCurve:
		return true
	}
	return false
}

var gameInstructions = map[GameType]string{
	GameHexagram: "请根据下面的六爻卦象数据进行解卦：先总述卦意，再逐一分析动爻，" +
		"最后结合世应关系给出对所问之事的判断与建议。",
	GameQimen: "请根据下面的奇门遁甲盘面数据进行分析：说明值符值使落宫含义，" +
		"分析用神所在宫位的星门神组合，并给出吉凶判断与行动建议。",
	GameBazi: "请根据下面的八字命盘数据进行分析：从日主强弱、五行喜忌入手，" +
		"依次分析性格、事业、财运、感情与健康，并给出调理建议。",
	GameLifeCurve: "请根据下面的人生曲线数据进行解读：概括整体运势走向，" +
		"指出关键的高峰与低谷年份及其对应大运，并给出各阶段的把握建议。",
}

const (
	languageInstruction = "请务必只使用简体中文回答。"
	markdownInstruction = "请使用 Markdown 格式组织回答，适当使用标题与列表。"
)

// Persona is the voice the model answers in.
type Persona struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	System      string `json:"system"`
}

// DefaultPersona is used when the user never picked one.
var DefaultPersona = Persona{
	ID:          "master-xuan",
	Name:        "玄机子",
	Description: "精通易经、奇门与子平命理的资深命理师",
	System: "你是一位精通《易经》、奇门遁甲与子平八字的资深命理师，号玄机子。" +
		"你的解读专业而克制，既引用传统命理依据，也给出现代生活中的可行建议，" +
		"不渲染恐慌，不做绝对化断言。",
}

// Build concatenates persona, game instructions, payload and context into
// the final prompt. The payload is serialized as indented JSON (strings
// pass through verbatim); cyclic payloads surface as a serialization
// error.
func Build(p Persona, payload any, game GameType, userContext any) (string, error) {
	if game != GameNone && !game.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedGameType, game)
	}

	var b strings.Builder
	b.WriteString(p.System)
	b.WriteString("\n\n")

	instr, hasGameBlock := gameInstructions[game]
	if hasGameBlock {
		b.WriteString(instr)
		b.WriteString("\n\n")
	}

	serialized, err := serialize(payload)
	if err != nil {
		return "", err
	}
	b.WriteString("以下是本次推演得到的结构化数据：\n")
	b.WriteString(serialized)
	b.WriteString("\n")

	if userContext != nil {
		ctxText, err := serialize(userContext)
		if err != nil {
			return "", err
		}
		b.WriteString("\n用户补充信息：\n")
		b.WriteString(ctxText)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(languageInstruction)
	if !hasGameBlock {
		b.WriteString(markdownInstruction)
	}
	return b.String(), nil
}

func serialize(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "null", nil
	case string:
		return t, nil
	case fmt.Stringer:
		return t.String(), nil
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("prompt: serialize payload: %w", err)
	}
	return string(raw), nil
}
