// Package content holds the typed game content consumed by the room engine:
// player roster, round configuration and minigame prompt banks. The engine
// never parses files itself; it receives a validated Pack, or a fatal error
// string when validation failed.
package content

import (
	"fmt"

	"github.com/spf13/viper"
)

// Player is one roster entry. The roster is immutable once loaded.
type Player struct {
	ID     string `mapstructure:"id" json:"id"`
	Name   string `mapstructure:"name" json:"name"`
	Avatar string `mapstructure:"avatar" json:"avatar,omitempty"`
}

// TriviaPrompt is one entry of the trivia bank. Answer is host-only.
type TriviaPrompt struct {
	Question string `mapstructure:"question" json:"question"`
	Answer   string `mapstructure:"answer" json:"answer"`
}

// RoundConfig describes one round of play.
type RoundConfig struct {
	Label           string `mapstructure:"label" json:"label"`
	Sauce           string `mapstructure:"sauce" json:"sauce"`
	PointsPerPlayer int    `mapstructure:"points_per_player" json:"pointsPerPlayer"`
	Minigame        string `mapstructure:"minigame" json:"minigame"`
	EatingSeconds   int    `mapstructure:"eating_seconds" json:"eatingSeconds"`
}

// ScoringConfig caps the minigame points a team can earn per round.
type ScoringConfig struct {
	DefaultPointsMax    int `mapstructure:"default_points_max" json:"defaultPointsMax"`
	FinalRoundPointsMax int `mapstructure:"final_round_points_max" json:"finalRoundPointsMax"`
}

// Rules are the optional per-minigame rule overrides.
type Rules struct {
	QuestionsPerTurn  int  `mapstructure:"questions_per_turn" json:"questionsPerTurn"`
	ScopeToActiveTeam bool `mapstructure:"scope_to_active_team" json:"scopeToActiveTeam"`
}

// GameConfig is the full round/scoring/timer configuration.
type GameConfig struct {
	Rounds          []RoundConfig    `mapstructure:"rounds" json:"rounds"`
	Scoring         ScoringConfig    `mapstructure:"scoring" json:"scoring"`
	MinigameSeconds map[string]int   `mapstructure:"minigame_seconds" json:"minigameSeconds,omitempty"`
	Rules           map[string]Rules `mapstructure:"rules" json:"rules,omitempty"`
}

// Pack is everything the room engine consumes at startup.
type Pack struct {
	Players []Player       `mapstructure:"players"`
	Game    GameConfig     `mapstructure:"game"`
	Trivia  []TriviaPrompt `mapstructure:"trivia"`
}

// RulesFor returns the overrides for a minigame type, filled with defaults.
func (p *Pack) RulesFor(minigameType string) Rules {
	r := p.Game.Rules[minigameType]
	if r.QuestionsPerTurn <= 0 {
		r.QuestionsPerTurn = 1
	}
	return r
}

// Load reads and validates a content pack from a yaml file.
func Load(path string) (*Pack, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read content pack: %w", err)
	}

	var pack Pack
	if err := v.Unmarshal(&pack); err != nil {
		return nil, fmt.Errorf("decode content pack: %w", err)
	}

	if err := pack.Validate(); err != nil {
		return nil, err
	}
	return &pack, nil
}

// Validate checks the pack invariants the engine relies on.
func (p *Pack) Validate() error {
	if len(p.Players) == 0 {
		return fmt.Errorf("content: empty player roster")
	}
	seen := make(map[string]bool, len(p.Players))
	for _, pl := range p.Players {
		if pl.ID == "" || pl.Name == "" {
			return fmt.Errorf("content: player with empty id or name")
		}
		if seen[pl.ID] {
			return fmt.Errorf("content: duplicate player id %q", pl.ID)
		}
		seen[pl.ID] = true
	}

	if len(p.Game.Rounds) == 0 {
		return fmt.Errorf("content: no rounds configured")
	}
	needsTrivia := false
	for i, r := range p.Game.Rounds {
		if r.PointsPerPlayer < 0 {
			return fmt.Errorf("content: round %d has negative points_per_player", i+1)
		}
		if r.EatingSeconds <= 0 {
			return fmt.Errorf("content: round %d has no eating duration", i+1)
		}
		if r.Minigame == "trivia" {
			needsTrivia = true
		}
	}
	if p.Game.Scoring.DefaultPointsMax <= 0 {
		return fmt.Errorf("content: scoring default_points_max must be positive")
	}
	if p.Game.Scoring.FinalRoundPointsMax <= 0 {
		return fmt.Errorf("content: scoring final_round_points_max must be positive")
	}
	if needsTrivia && len(p.Trivia) == 0 {
		return fmt.Errorf("content: a round uses trivia but the trivia bank is empty")
	}
	for i, q := range p.Trivia {
		if q.Question == "" || q.Answer == "" {
			return fmt.Errorf("content: trivia prompt %d incomplete", i)
		}
	}
	return nil
}
