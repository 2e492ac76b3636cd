package graph

import (
	"fmt"
	"os"
	"strings"

	"github.com/deepgraph/backend/pkg/common"

	"github.com/pelletier/go-toml/v2"
)

// KeywordBonus is the score added when a node matches a keyword tier. Each
// tier applies at most once per node.
type KeywordBonus struct {
	Strong int `toml:"strong"`
	Medium int `toml:"medium"`
	Extra  int `toml:"extra"`
}

// Policy holds every lexicon and bonus table used by segmentation, scoring
// and quarantine. It is plain data so deployments can swap it with a TOML
// file instead of a rebuild.
type Policy struct {
	// DiscourseMarkers force a chunk boundary when a paragraph starts with one.
	DiscourseMarkers []string `toml:"discourse_markers"`

	StrongKeywords   []string `toml:"strong_keywords"`
	MediumKeywords   []string `toml:"medium_keywords"`
	HighRiskKeywords []string `toml:"high_risk_keywords"`

	EntityBase       map[string]int `toml:"entity_base"`
	EventBase        map[string]int `toml:"event_base"`
	EventBaseDefault int            `toml:"event_base_default"`
	RiskBonus        map[string]int `toml:"risk_bonus"`
	RelationBonus    map[string]int `toml:"relation_bonus"`

	EntityBonus KeywordBonus `toml:"entity_bonus"`
	EventBonus  KeywordBonus `toml:"event_bonus"`

	// FocusThreshold is the score or weight counted as focus in Stats.
	FocusThreshold int `toml:"focus_threshold"`

	// CarveOutHighRisk keeps high-risk sparse nodes out of the quarantine bucket.
	CarveOutHighRisk bool   `toml:"carve_out_high_risk"`
	QuarantineLabel  string `toml:"quarantine_label"`
}

// DefaultPolicy returns the built-in policy tuned for modern political
// history in English and Chinese.
func DefaultPolicy() *Policy {
	return &Policy{
		DiscourseMarkers: []string{
			"the next day", "the following day", "meanwhile", "later that year",
			"in the same year", "years later", "chapter", "part ",
			"次日", "第二天", "与此同时", "后来", "同年", "翌年", "第一章", "第二章", "第三章",
		},
		StrongKeywords: []string{
			"reform", "revolution", "plenum", "congress", "constitution", "coup",
			"改革", "革命", "全会", "代表大会", "宪法", "政变",
		},
		MediumKeywords: []string{
			"committee", "party", "election", "protest", "treaty", "ministry",
			"委员会", "党", "选举", "抗议", "条约",
		},
		HighRiskKeywords: []string{
			"massacre", "crackdown", "purge", "martial law", "uprising",
			"镇压", "清洗", "戒严", "屠杀", "暴动",
		},
		EntityBase: map[string]int{
			string(common.EntityPerson):   5,
			string(common.EntityOrg):      4,
			string(common.EntityDocument): 3,
			string(common.EntityConcept):  3,
			string(common.EntityLocation): 2,
		},
		EventBase: map[string]int{
			string(common.EventMeeting):  5,
			string(common.EventPolicy):   5,
			string(common.EventMovement): 5,
			string(common.EventConflict): 4,
			string(common.EventSpeech):   4,
		},
		EventBaseDefault: 3,
		RiskBonus: map[string]int{
			string(common.RiskSafe):          1,
			string(common.RiskControversial): 2,
			string(common.RiskHigh):          3,
		},
		RelationBonus: map[string]int{
			"led":          2,
			"organized":    2,
			"initiated":    2,
			"opposed":      2,
			"suppressed":   3,
			"criticized":   2,
			"caused":       2,
			"participated": 1,
			"attended":     1,
			"supported":    1,
		},
		EntityBonus:      KeywordBonus{Strong: 4, Medium: 2, Extra: 3},
		EventBonus:       KeywordBonus{Strong: 3, Medium: 1, Extra: 2},
		FocusThreshold:   7,
		CarveOutHighRisk: true,
		QuarantineLabel:  "Sensitive bucket",
	}
}

// LoadPolicy reads a TOML policy file. Keys present in the file replace the
// defaults; absent keys keep them.
func LoadPolicy(path string) (*Policy, error) {
	p := DefaultPolicy()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse policy %s: %w", path, err)
	}
	return p, nil
}

// relationBonus looks up the bonus for a relation label, case-insensitively.
func (p *Policy) relationBonus(relation string) int {
	return p.RelationBonus[strings.ToLower(strings.TrimSpace(relation))]
}

func (p *Policy) startsWithMarker(paragraph string) bool {
	head := strings.ToLower(strings.TrimSpace(paragraph))
	for _, m := range p.DiscourseMarkers {
		if m != "" && strings.HasPrefix(head, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

// containsAny reports whether any keyword occurs in any text, case-insensitively.
func containsAny(keywords []string, texts ...string) bool {
	for _, text := range texts {
		lower := strings.ToLower(text)
		for _, k := range keywords {
			if k != "" && strings.Contains(lower, strings.ToLower(k)) {
				return true
			}
		}
	}
	return false
}
