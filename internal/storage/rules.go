package storage

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/dvloznov/spending-patterns/internal/domain"
)

// RulesObject is the object name of the overspending rule file.
const RulesObject = "rules/overspending_rules.json"

type ruleFile struct {
	Rules  json.RawMessage `json:"rules"`
	NextID int64           `json:"next_id,omitempty"`
}

// RuleRepository stores the rule list as a JSON document {"rules": [...]}.
// The document also keeps next_id, the high-water mark for new rule ids, so
// the id of a deleted rule is never handed out again.
type RuleRepository struct {
	blob Blob
	log  zerolog.Logger
}

// NewRuleRepository creates a rule repository over blob.
func NewRuleRepository(blob Blob, log zerolog.Logger) *RuleRepository {
	return &RuleRepository{blob: blob, log: log}
}

// Load returns the rules in file order. A missing file yields an empty list;
// malformed content is a ValidationError.
func (r *RuleRepository) Load(ctx context.Context, includeDisabled bool) ([]domain.OverspendingRule, error) {
	data, err := r.blob.Read(ctx, RulesObject)
	if errors.Is(err, ErrNotExist) {
		r.log.Warn().Str("object", RulesObject).Msg("Rule file not found, using empty rule list")
		return []domain.OverspendingRule{}, nil
	}
	if err != nil {
		return nil, domain.WrapStorage("read rules", err)
	}

	rules, _, err := decodeRuleFile(data)
	if err != nil {
		return nil, err
	}
	if includeDisabled {
		return rules, nil
	}

	enabled := make([]domain.OverspendingRule, 0, len(rules))
	for _, rule := range rules {
		if rule.Enabled {
			enabled = append(enabled, rule)
		}
	}
	return enabled, nil
}

// Save overwrites the rule file. The stored next_id never moves backwards.
func (r *RuleRepository) Save(ctx context.Context, rules []domain.OverspendingRule) error {
	mark, err := r.storedNextID(ctx)
	if err != nil {
		return err
	}
	data, err := EncodeRules(rules, max(mark, nextRuleID(rules)))
	if err != nil {
		return domain.WrapStorage("encode rules", err)
	}
	if err := r.blob.Write(ctx, RulesObject, data); err != nil {
		return domain.WrapStorage("write rules", err)
	}
	r.log.Info().Int("rules", len(rules)).Msg("Rules saved")
	return nil
}

// NextID returns the id for the next created rule: the stored high-water
// mark or one more than the largest stored id, whichever is greater.
func (r *RuleRepository) NextID(ctx context.Context) (int64, error) {
	data, err := r.blob.Read(ctx, RulesObject)
	if errors.Is(err, ErrNotExist) {
		return 1, nil
	}
	if err != nil {
		return 0, domain.WrapStorage("read rules", err)
	}
	rules, mark, err := decodeRuleFile(data)
	if err != nil {
		return 0, err
	}
	return max(mark, nextRuleID(rules)), nil
}

// storedNextID returns the mark implied by the current file: its next_id or
// one more than its largest id. A missing or undecodable document counts as
// no mark, so Save can still replace a broken file.
func (r *RuleRepository) storedNextID(ctx context.Context) (int64, error) {
	data, err := r.blob.Read(ctx, RulesObject)
	if errors.Is(err, ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, domain.WrapStorage("read rules", err)
	}
	rules, mark, err := decodeRuleFile(data)
	if err != nil {
		r.log.Warn().Err(err).Str("object", RulesObject).Msg("Rule file is unreadable, resetting next_id")
		return 0, nil
	}
	return max(mark, nextRuleID(rules)), nil
}

// nextRuleID returns one more than the largest id in rules, or 1.
func nextRuleID(rules []domain.OverspendingRule) int64 {
	var highest int64
	for _, rule := range rules {
		highest = max(highest, rule.RuleID())
	}
	return highest + 1
}

// DecodeRules parses a rule file.
func DecodeRules(data []byte) ([]domain.OverspendingRule, error) {
	rules, _, err := decodeRuleFile(data)
	return rules, err
}

func decodeRuleFile(data []byte) ([]domain.OverspendingRule, int64, error) {
	var f ruleFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, 0, &domain.ValidationError{Field: "rules", Message: "rule file is not valid JSON", Err: err}
	}
	raw := bytes.TrimSpace(f.Rules)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, 0, domain.NewValidationError("rules", "rule file must hold a list under \"rules\"")
	}

	var rules []domain.OverspendingRule
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, 0, &domain.ValidationError{Field: "rules", Message: "rule file holds a malformed rule", Err: err}
	}
	if rules == nil {
		rules = []domain.OverspendingRule{}
	}
	return rules, f.NextID, nil
}

// EncodeRules renders rules as an indented rule file. A zero nextID is
// omitted.
func EncodeRules(rules []domain.OverspendingRule, nextID int64) ([]byte, error) {
	if rules == nil {
		rules = []domain.OverspendingRule{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(struct {
		Rules  []domain.OverspendingRule `json:"rules"`
		NextID int64                     `json:"next_id,omitempty"`
	}{rules, nextID}); err != nil {
		return nil, errors.Wrap(err, "EncodeRules")
	}
	return buf.Bytes(), nil
}
